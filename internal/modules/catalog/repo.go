package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DonaldKnut/marketdotcom/internal/shared/apperr"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

type ListParams struct {
	CategoryID string
	Search     string
	InStock    *bool
}

func (r *Repo) List(ctx context.Context, in ListParams) ([]Product, error) {
	q := r.db.WithContext(ctx).Model(&Product{}).
		Preload("Category").
		Preload("Variations")

	if in.CategoryID != "" {
		q = q.Where("category_id = ?", in.CategoryID)
	}
	if s := strings.TrimSpace(in.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if in.InStock != nil {
		q = q.Where("in_stock = ?", *in.InStock)
	}

	var products []Product
	if err := q.Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *Repo) Get(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Variations").
		First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Product{}, apperr.NotFoundErr("Product not found.")
		}
		return Product{}, err
	}
	return p, nil
}

type VariationInput struct {
	Name  string
	Type  string
	Price float64
}

type CreateProductInput struct {
	Name        string
	Description string
	BasePrice   float64
	CategoryID  string
	Stock       int
	Unit        string
	InStock     *bool
	Variations  []VariationInput
}

func (r *Repo) Create(ctx context.Context, in CreateProductInput) (Product, error) {
	if strings.TrimSpace(in.Name) == "" || in.CategoryID == "" {
		return Product{}, apperr.InvalidErr("Name and category are required.", nil)
	}
	if in.BasePrice < 0 {
		return Product{}, apperr.InvalidErr("Price cannot be negative.", map[string]string{"basePrice": "negative"})
	}

	var cat Category
	if err := r.db.WithContext(ctx).First(&cat, "id = ?", in.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Product{}, apperr.InvalidErr("Category does not exist.", nil)
		}
		return Product{}, err
	}

	now := time.Now()
	unit := in.Unit
	if unit == "" {
		unit = "piece"
	}
	inStock := true
	if in.InStock != nil {
		inStock = *in.InStock
	}

	var desc *string
	if d := strings.TrimSpace(in.Description); d != "" {
		desc = &d
	}

	p := Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: desc,
		BasePrice:   in.BasePrice,
		CategoryID:  in.CategoryID,
		Stock:       in.Stock,
		Unit:        unit,
		InStock:     inStock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		for _, v := range in.Variations {
			vt := v.Type
			if vt == "" {
				vt = "Size"
			}
			row := Variation{
				ID:        uuid.NewString(),
				ProductID: p.ID,
				Name:      v.Name,
				Type:      vt,
				Price:     v.Price,
				CreatedAt: now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	return r.Get(ctx, p.ID)
}

type UpdateProductInput struct {
	Name        *string
	Description *string
	BasePrice   *float64
	Stock       *int
	Unit        *string
	InStock     *bool
}

func (r *Repo) Update(ctx context.Context, id string, in UpdateProductInput) (Product, error) {
	updates := map[string]any{"updated_at": time.Now()}
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.BasePrice != nil {
		if *in.BasePrice < 0 {
			return Product{}, apperr.InvalidErr("Price cannot be negative.", nil)
		}
		updates["base_price"] = *in.BasePrice
	}
	if in.Stock != nil {
		updates["stock"] = *in.Stock
	}
	if in.Unit != nil {
		updates["unit"] = *in.Unit
	}
	if in.InStock != nil {
		updates["in_stock"] = *in.InStock
	}

	res := r.db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return Product{}, res.Error
	}
	if res.RowsAffected == 0 {
		return Product{}, apperr.NotFoundErr("Product not found.")
	}
	return r.Get(ctx, id)
}

func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	var cats []Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *Repo) CreateCategory(ctx context.Context, name string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, apperr.InvalidErr("Category name is required.", nil)
	}
	now := time.Now()
	c := Category{ID: uuid.NewString(), Name: name, CreatedAt: now, UpdatedAt: now}
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return Category{}, err
	}
	return c, nil
}
