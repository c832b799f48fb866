package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/brightstack/coursekart/internal/catalog/domain"
	"github.com/brightstack/coursekart/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}
	if req.Price < 0 {
		return nil, domain.ErrInvalidPrice
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return nil, domain.ErrInvalidCategory
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "INR"
	}

	features, err := encodeFeatures(req.Features)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:           s.genID.Generate(),
		Slug:         slug.Make(title),
		Title:        title,
		Description:  strings.TrimSpace(req.Description),
		Price:        req.Price,
		Currency:     currency,
		ThumbnailURL: strings.TrimSpace(req.ThumbnailURL),
		PDFURL:       strings.TrimSpace(req.PDFURL),
		VideoURL:     strings.TrimSpace(req.VideoURL),
		Features:     features,
		Category:     category,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, s.db, &product); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}

	resp := toResponse(&product)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) (*domain.Response, error) {
	productID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	product, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		product.Title = title
	}
	if req.Description != nil {
		product.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, domain.ErrInvalidPrice
		}
		product.Price = *req.Price
	}
	if req.ThumbnailURL != nil {
		product.ThumbnailURL = strings.TrimSpace(*req.ThumbnailURL)
	}
	if req.PDFURL != nil {
		product.PDFURL = strings.TrimSpace(*req.PDFURL)
	}
	if req.VideoURL != nil {
		product.VideoURL = strings.TrimSpace(*req.VideoURL)
	}
	if req.Features != nil {
		features, err := encodeFeatures(*req.Features)
		if err != nil {
			return nil, err
		}
		product.Features = features
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			return nil, domain.ErrInvalidCategory
		}
		product.Category = category
	}
	product.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, product); err != nil {
		return nil, err
	}

	resp := toResponse(product)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	productID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	product, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(product)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	items, err := s.repo.List(ctx, s.db, req)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

// Archive deactivates a product without deleting it. Orders keep referencing
// archived products, so rows are never removed.
func (s *Service) Archive(ctx context.Context, id string) error {
	productID, err := parseID(id)
	if err != nil {
		return err
	}

	product, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrNotFound
	}

	return s.repo.SetActive(ctx, s.db, productID, false)
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func encodeFeatures(features []string) (datatypes.JSON, error) {
	cleaned := make([]string, 0, len(features))
	for _, f := range features {
		f = strings.TrimSpace(f)
		if f != "" {
			cleaned = append(cleaned, f)
		}
	}
	raw, err := json.Marshal(cleaned)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func toResponse(p *domain.Product) domain.Response {
	var features []string
	if len(p.Features) > 0 {
		_ = json.Unmarshal(p.Features, &features)
	}

	return domain.Response{
		ID:           p.ID.String(),
		Slug:         p.Slug,
		Title:        p.Title,
		Description:  p.Description,
		Price:        p.Price,
		Currency:     p.Currency,
		ThumbnailURL: p.ThumbnailURL,
		PDFURL:       p.PDFURL,
		VideoURL:     p.VideoURL,
		Features:     features,
		Category:     p.Category,
		Active:       p.Active,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
