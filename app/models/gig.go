package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StringList ist ein Typ für die Speicherung von String-Arrays als JSON-Spalte
type StringList []string

// Value implementiert das driver.Valuer Interface
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implementiert das sql.Scanner Interface
func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = StringList{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("invalid scan source")
	}
	return json.Unmarshal(bytes, s)
}

// RatingBucket tracks one histogram bucket: how often a rating value was
// given and the running sum of those values.
type RatingBucket struct {
	Value int64 `gorm:"default:0" json:"value"`
	Count int64 `gorm:"default:0" json:"count"`
}

// RatingCategories is the fixed five-bucket rating histogram keyed 1..5.
type RatingCategories struct {
	One   RatingBucket `gorm:"embedded;embeddedPrefix:rating_one_" json:"one"`
	Two   RatingBucket `gorm:"embedded;embeddedPrefix:rating_two_" json:"two"`
	Three RatingBucket `gorm:"embedded;embeddedPrefix:rating_three_" json:"three"`
	Four  RatingBucket `gorm:"embedded;embeddedPrefix:rating_four_" json:"four"`
	Five  RatingBucket `gorm:"embedded;embeddedPrefix:rating_five_" json:"five"`
}

// Gig is the authoritative listing record. JSON tags double as the search
// index projection, so they follow the document field names (camelCase).
type Gig struct {
	ID             string `gorm:"type:char(36);primaryKey" json:"id"`
	SellerID       string `gorm:"type:char(36);index;not null" json:"sellerId"`
	Username       string `gorm:"type:varchar(100);index;not null" json:"username"`
	Email          string `gorm:"type:varchar(200);not null" json:"email"`
	ProfilePicture string `gorm:"type:varchar(255);not null" json:"profilePicture"`

	Title            string     `gorm:"type:varchar(255);not null" json:"title"`
	BasicTitle       string     `gorm:"type:varchar(255);not null" json:"basicTitle"`
	Description      string     `gorm:"type:text;not null" json:"description"`
	BasicDescription string     `gorm:"type:text;not null" json:"basicDescription"`
	Categories       string     `gorm:"type:varchar(100);index;not null" json:"categories"`
	SubCategories    StringList `gorm:"type:json" json:"subCategories"`
	Tags             StringList `gorm:"type:json" json:"tags"`

	Price                int64  `gorm:"not null" json:"price"` // minor units
	Currency             string `gorm:"type:char(3);default:'USD'" json:"currency"`
	ExpectedDeliveryDays int    `gorm:"not null" json:"expectedDeliveryDays"`

	Active           bool             `gorm:"default:true" json:"active"`
	ActiveOrderCount int64            `gorm:"default:0" json:"activeOrderCount"`
	RatingsCount     int64            `gorm:"default:0" json:"ratingsCount"`
	RatingSum        int64            `gorm:"default:0" json:"ratingSum"`
	RatingCategories RatingCategories `gorm:"embedded" json:"ratingCategories"`

	SortID     int64  `gorm:"index" json:"sortId"`
	CoverImage string `gorm:"type:varchar(255);not null" json:"coverImage"`

	IsDeleted bool       `gorm:"default:false;index" json:"isDeleted"`
	DeletedAt *time.Time `gorm:"type:datetime;default:null" json:"deletedAt"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// BeforeCreate assigns the id before the first insert so the search index
// write can reuse it.
func (g *Gig) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	return nil
}

// AverageRating derives the mean rating, guarded against a zero count.
func (g *Gig) AverageRating() float64 {
	if g.RatingsCount == 0 {
		return 0
	}
	return float64(g.RatingSum) / float64(g.RatingsCount)
}

// BucketColumns maps a rating value 1..5 to its histogram column names.
// An out-of-range rating is a programming error, hence the error return
// instead of silent clamping.
func BucketColumns(rating int) (valueColumn, countColumn string, err error) {
	switch rating {
	case 1:
		return "rating_one_value", "rating_one_count", nil
	case 2:
		return "rating_two_value", "rating_two_count", nil
	case 3:
		return "rating_three_value", "rating_three_count", nil
	case 4:
		return "rating_four_value", "rating_four_count", nil
	case 5:
		return "rating_five_value", "rating_five_count", nil
	default:
		return "", "", errors.New("rating value out of histogram range")
	}
}

// GigCreatePayload is the inbound shape for creating a gig. Price is in
// major units and converted to minor units by the service.
type GigCreatePayload struct {
	SellerID             string   `json:"sellerId" validate:"required"`
	Username             string   `json:"username" validate:"required"`
	Email                string   `json:"email" validate:"required,email"`
	ProfilePicture       string   `json:"profilePicture" validate:"required"`
	Title                string   `json:"title" validate:"required,max=255"`
	BasicTitle           string   `json:"basicTitle" validate:"required,max=255"`
	Description          string   `json:"description" validate:"required"`
	BasicDescription     string   `json:"basicDescription" validate:"required"`
	Categories           string   `json:"categories" validate:"required"`
	SubCategories        []string `json:"subCategories" validate:"required,min=1"`
	Tags                 []string `json:"tags" validate:"required,min=1"`
	Price                float64  `json:"price" validate:"required,gt=4.99"`
	ExpectedDeliveryDays int      `json:"expectedDeliveryDays" validate:"required,min=1,max=365"`
}

func (p *GigCreatePayload) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// GigUpdatePayload covers the mutable content fields of a gig.
type GigUpdatePayload struct {
	Title                string   `json:"title" validate:"required,max=255"`
	BasicTitle           string   `json:"basicTitle" validate:"required,max=255"`
	Description          string   `json:"description" validate:"required"`
	BasicDescription     string   `json:"basicDescription" validate:"required"`
	Categories           string   `json:"categories" validate:"required"`
	SubCategories        []string `json:"subCategories" validate:"required,min=1"`
	Tags                 []string `json:"tags" validate:"required,min=1"`
	Price                float64  `json:"price" validate:"required,gt=4.99"`
	ExpectedDeliveryDays int      `json:"expectedDeliveryDays" validate:"required,min=1,max=365"`
}

func (p *GigUpdatePayload) Validate() error {
	v := validator.New()

	return v.Struct(p)
}
