package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/brightstack/coursekart/internal/catalog/domain"
	"github.com/brightstack/coursekart/internal/catalog/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, conn.Exec(`CREATE TABLE products (
		id BIGINT PRIMARY KEY,
		slug TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		price BIGINT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'INR',
		thumbnail_url TEXT,
		pdf_url TEXT,
		video_url TEXT,
		features TEXT,
		category TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`).Error)
	require.NoError(t, conn.Exec(`CREATE UNIQUE INDEX ux_products_slug ON products(slug)`).Error)

	return conn
}

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	conn := setupTestDB(t)
	node, err := snowflake.NewNode(10)
	require.NoError(t, err)

	return New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func TestCreateProduct(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, domain.CreateRequest{
		Title:       "Go for Backend Engineers",
		Description: "a complete course",
		Price:       499,
		Category:    "course",
		Features:    []string{"12 hours of video", " lifetime access ", ""},
	})
	require.NoError(t, err)

	assert.Equal(t, "go-for-backend-engineers", product.Slug)
	assert.Equal(t, int64(499), product.Price)
	assert.Equal(t, "INR", product.Currency)
	assert.True(t, product.Active)
	assert.Equal(t, []string{"12 hours of video", "lifetime access"}, product.Features)
}

func TestCreateProductValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{Title: "  ", Price: 10, Category: "course"})
	assert.ErrorIs(t, err, domain.ErrInvalidTitle)

	_, err = svc.Create(ctx, domain.CreateRequest{Title: "Course", Price: -1, Category: "course"})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = svc.Create(ctx, domain.CreateRequest{Title: "Course", Price: 10, Category: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)
}

func TestCreateProductDuplicateSlug(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	req := domain.CreateRequest{Title: "Go Course", Price: 499, Category: "course"}
	_, err := svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrSlugTaken)
}

func TestUpdateProduct(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Title: "Go Course", Price: 499, Category: "course"})
	require.NoError(t, err)

	newPrice := int64(699)
	newTitle := "Go Course, Second Edition"
	updated, err := svc.Update(ctx, created.ID, domain.UpdateRequest{
		Title: &newTitle,
		Price: &newPrice,
	})
	require.NoError(t, err)

	assert.Equal(t, newTitle, updated.Title)
	assert.Equal(t, newPrice, updated.Price)
	// Slug stays stable across retitles so existing links keep working.
	assert.Equal(t, created.Slug, updated.Slug)
}

func TestUpdateProductNotFound(t *testing.T) {
	svc := newTestService(t)

	price := int64(699)
	_, err := svc.Update(context.Background(), "123456789", domain.UpdateRequest{Price: &price})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Update(context.Background(), "not-a-number", domain.UpdateRequest{Price: &price})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestListProducts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{Title: "Go Course", Price: 499, Category: "course"})
	require.NoError(t, err)
	created, err := svc.Create(ctx, domain.CreateRequest{Title: "Go Ebook", Price: 199, Category: "ebook"})
	require.NoError(t, err)
	require.NoError(t, svc.Archive(ctx, created.ID))

	active, err := svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := svc.List(ctx, domain.ListRequest{IncludeAll: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ebooks, err := svc.List(ctx, domain.ListRequest{Category: "ebook", IncludeAll: true})
	require.NoError(t, err)
	assert.Len(t, ebooks, 1)
}

func TestArchiveProduct(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Title: "Go Course", Price: 499, Category: "course"})
	require.NoError(t, err)

	require.NoError(t, svc.Archive(ctx, created.ID))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	assert.ErrorIs(t, svc.Archive(ctx, "987654321"), domain.ErrNotFound)
}
