package repository

import (
	"context"
	"strings"

	"github.com/brightstack/coursekart/internal/catalog/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (id, slug, title, description, price, currency, thumbnail_url, pdf_url, video_url, features, category, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID,
		product.Slug,
		product.Title,
		product.Description,
		product.Price,
		product.Currency,
		product.ThumbnailURL,
		product.PDFURL,
		product.VideoURL,
		product.Features,
		product.Category,
		product.Active,
		product.CreatedAt,
		product.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT id, slug, title, description, price, currency, thumbnail_url, pdf_url, video_url, features, category, active, created_at, updated_at
		 FROM products WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.Product, error) {
	var items []domain.Product
	stmt := db.WithContext(ctx).Model(&domain.Product{})

	if !filter.IncludeAll {
		stmt = stmt.Where("active = ?", true)
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		stmt = stmt.Where("category = ?", category)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		stmt = stmt.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	sortBy := filter.SortBy
	switch sortBy {
	case "price", "title", "created_at":
	default:
		sortBy = "created_at"
	}
	orderBy := strings.ToUpper(strings.TrimSpace(filter.OrderBy))
	if orderBy != "ASC" && orderBy != "DESC" {
		orderBy = "DESC"
	}
	stmt = stmt.Order(sortBy + " " + orderBy)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	if product == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE products
		 SET title = ?, description = ?, price = ?, thumbnail_url = ?, pdf_url = ?, video_url = ?, features = ?, category = ?, updated_at = ?
		 WHERE id = ?`,
		product.Title,
		product.Description,
		product.Price,
		product.ThumbnailURL,
		product.PDFURL,
		product.VideoURL,
		product.Features,
		product.Category,
		product.UpdatedAt,
		product.ID,
	).Error
}

func (r *repo) SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool) error {
	return db.WithContext(ctx).Exec(
		`UPDATE products SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		active,
		id,
	).Error
}
