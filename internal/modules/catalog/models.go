package catalog

import "time"

type Category struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_categories_name"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Category) TableName() string { return "categories" }

type Product struct {
	ID          string  `gorm:"type:char(36);primaryKey"`
	Name        string  `gorm:"type:varchar(255);not null"`
	Description *string `gorm:"type:text"`
	BasePrice   float64 `gorm:"not null"`
	CategoryID  string  `gorm:"type:char(36);not null;index:ix_products_category_id"`
	Stock       int     `gorm:"not null;default:0"`
	Unit        string  `gorm:"type:varchar(32);not null;default:piece"`
	InStock     bool    `gorm:"not null;default:true"`

	Category   Category    `gorm:"foreignKey:CategoryID"`
	Variations []Variation `gorm:"foreignKey:ProductID"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Product) TableName() string { return "products" }

// Variation carries its own absolute price; when a variation is chosen at
// checkout its price replaces the product base price in the snapshot.
type Variation struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	ProductID string    `gorm:"type:char(36);not null;index:ix_variations_product_id"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Type      string    `gorm:"type:varchar(64);not null;default:Size"`
	Price     float64   `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (Variation) TableName() string { return "variations" }
