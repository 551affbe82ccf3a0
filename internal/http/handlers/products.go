package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DonaldKnut/marketdotcom/internal/http/middleware"
	"github.com/DonaldKnut/marketdotcom/internal/http/validation"
	"github.com/DonaldKnut/marketdotcom/internal/modules/catalog"
	"github.com/DonaldKnut/marketdotcom/internal/shared/apperr"
)

type ProductHandler struct {
	Catalog *catalog.Repo
}

func NewProductHandler(repo *catalog.Repo) *ProductHandler {
	return &ProductHandler{Catalog: repo}
}

// GET /api/products?categoryId=&search=&inStock=
func (h *ProductHandler) List(c *gin.Context) {
	params := catalog.ListParams{
		CategoryID: c.Query("categoryId"),
		Search:     c.Query("search"),
	}
	if v := c.Query("inStock"); v != "" {
		inStock := v == "true" || v == "1"
		params.InStock = &inStock
	}

	products, err := h.Catalog.List(c.Request.Context(), params)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	out := make([]gin.H, 0, len(products))
	for _, p := range products {
		out = append(out, productJSON(p))
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}

// GET /api/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	p, err := h.Catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": productJSON(p)})
}

type variationInput struct {
	Name  string  `json:"name" binding:"required,max=255"`
	Type  string  `json:"type" binding:"omitempty,max=64"`
	Price float64 `json:"price" binding:"required,gt=0"`
}

type createProductInput struct {
	Name        string           `json:"name" binding:"required,max=255"`
	Description string           `json:"description"`
	BasePrice   float64          `json:"basePrice" binding:"required,gt=0"`
	CategoryID  string           `json:"categoryId" binding:"required"`
	Stock       int              `json:"stock" binding:"omitempty,min=0"`
	Unit        string           `json:"unit" binding:"omitempty,max=32"`
	InStock     *bool            `json:"inStock"`
	Variations  []variationInput `json:"variations" binding:"omitempty,dive"`
}

// POST /api/products  (admin)
func (h *ProductHandler) Create(c *gin.Context) {
	var in createProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid product data.", validation.FromBindError(err, &in)))
		return
	}

	variations := make([]catalog.VariationInput, 0, len(in.Variations))
	for _, v := range in.Variations {
		variations = append(variations, catalog.VariationInput{Name: v.Name, Type: v.Type, Price: v.Price})
	}

	p, err := h.Catalog.Create(c.Request.Context(), catalog.CreateProductInput{
		Name:        in.Name,
		Description: in.Description,
		BasePrice:   in.BasePrice,
		CategoryID:  in.CategoryID,
		Stock:       in.Stock,
		Unit:        in.Unit,
		InStock:     in.InStock,
		Variations:  variations,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": productJSON(p)})
}

type updateProductInput struct {
	Name        *string  `json:"name" binding:"omitempty,max=255"`
	Description *string  `json:"description"`
	BasePrice   *float64 `json:"basePrice" binding:"omitempty,gt=0"`
	Stock       *int     `json:"stock" binding:"omitempty,min=0"`
	Unit        *string  `json:"unit" binding:"omitempty,max=32"`
	InStock     *bool    `json:"inStock"`
}

// PUT /api/products/:id  (admin)
func (h *ProductHandler) Update(c *gin.Context) {
	var in updateProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid product data.", validation.FromBindError(err, &in)))
		return
	}

	p, err := h.Catalog.Update(c.Request.Context(), c.Param("id"), catalog.UpdateProductInput{
		Name:        in.Name,
		Description: in.Description,
		BasePrice:   in.BasePrice,
		Stock:       in.Stock,
		Unit:        in.Unit,
		InStock:     in.InStock,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": productJSON(p)})
}

// GET /api/categories
func (h *ProductHandler) ListCategories(c *gin.Context) {
	cats, err := h.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	out := make([]gin.H, 0, len(cats))
	for _, cat := range cats {
		out = append(out, gin.H{"id": cat.ID, "name": cat.Name, "createdAt": cat.CreatedAt})
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

type createCategoryInput struct {
	Name string `json:"name" binding:"required,max=255"`
}

// POST /api/categories  (admin)
func (h *ProductHandler) CreateCategory(c *gin.Context) {
	var in createCategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid category data.", validation.FromBindError(err, &in)))
		return
	}

	cat, err := h.Catalog.CreateCategory(c.Request.Context(), in.Name)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": gin.H{"id": cat.ID, "name": cat.Name, "createdAt": cat.CreatedAt}})
}

func productJSON(p catalog.Product) gin.H {
	variations := make([]gin.H, 0, len(p.Variations))
	for _, v := range p.Variations {
		variations = append(variations, gin.H{
			"id":    v.ID,
			"name":  v.Name,
			"type":  v.Type,
			"price": v.Price,
		})
	}
	return gin.H{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"basePrice":   p.BasePrice,
		"categoryId":  p.CategoryID,
		"category":    gin.H{"id": p.Category.ID, "name": p.Category.Name},
		"stock":       p.Stock,
		"unit":        p.Unit,
		"inStock":     p.InStock,
		"variations":  variations,
		"createdAt":   p.CreatedAt,
	}
}
