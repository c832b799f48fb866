package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Product is a digital good: a course bundle with a PDF and a video.
// Price is an integer amount in the catalog's display unit; conversion to the
// gateway's minor unit happens once, in the settlement coordinator.
type Product struct {
	ID           snowflake.ID   `json:"id" gorm:"primaryKey"`
	Slug         string         `json:"slug" gorm:"type:text;not null;uniqueIndex:ux_products_slug"`
	Title        string         `json:"title" gorm:"type:text;not null"`
	Description  string         `json:"description" gorm:"type:text;not null"`
	Price        int64          `json:"price" gorm:"not null"`
	Currency     string         `json:"currency" gorm:"type:text;not null;default:'INR'"`
	ThumbnailURL string         `json:"thumbnail_url" gorm:"type:text"`
	PDFURL       string         `json:"pdf_url" gorm:"column:pdf_url;type:text"`
	VideoURL     string         `json:"video_url" gorm:"type:text"`
	Features     datatypes.JSON `json:"features" gorm:"type:text"`
	Category     string         `json:"category" gorm:"type:text;not null;index"`
	Active       bool           `json:"active" gorm:"not null;default:true"`
	CreatedAt    time.Time      `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"not null"`
}

func (Product) TableName() string { return "products" }
