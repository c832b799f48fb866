package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Archive(ctx context.Context, id string) error
}

type ListRequest struct {
	Category   string
	Search     string
	IncludeAll bool
	SortBy     string
	OrderBy    string
}

type CreateRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Price        int64    `json:"price"`
	Currency     string   `json:"currency"`
	ThumbnailURL string   `json:"thumbnail_url"`
	PDFURL       string   `json:"pdf_url"`
	VideoURL     string   `json:"video_url"`
	Features     []string `json:"features"`
	Category     string   `json:"category"`
}

type UpdateRequest struct {
	Title        *string   `json:"title"`
	Description  *string   `json:"description"`
	Price        *int64    `json:"price"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	PDFURL       *string   `json:"pdf_url"`
	VideoURL     *string   `json:"video_url"`
	Features     *[]string `json:"features"`
	Category     *string   `json:"category"`
}

type Response struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Price        int64     `json:"price"`
	Currency     string    `json:"currency"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	PDFURL       string    `json:"pdf_url,omitempty"`
	VideoURL     string    `json:"video_url,omitempty"`
	Features     []string  `json:"features,omitempty"`
	Category     string    `json:"category"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var (
	ErrNotFound        = errors.New("product_not_found")
	ErrInvalidID       = errors.New("invalid_product_id")
	ErrInvalidTitle    = errors.New("invalid_title")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidCategory = errors.New("invalid_category")
	ErrSlugTaken       = errors.New("slug_taken")
)
