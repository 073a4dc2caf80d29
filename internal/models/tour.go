package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/mariofilbert/natours-api/internal/apperror"
)

type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyDifficult:
		return true
	}
	return false
}

// DefaultRatingsAverage is the aggregate baseline for a tour without reviews.
const DefaultRatingsAverage = 4.8

var tourNameRegex = regexp.MustCompile(`^[a-zA-Z\s]+$`)

// StringList stores a slice of strings as a JSON text column so the same
// model works on postgres and the sqlite test database.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *StringList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("unsupported StringList source type %T", src)
}

// Location is a geographic point with a human-readable description.
type Location struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Address     string  `gorm:"type:varchar(255)" json:"address"`
	Description string  `gorm:"type:varchar(255)" json:"description"`
}

// TourLocation is a waypoint along a tour's itinerary.
type TourLocation struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	TourID   uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Location `gorm:"embedded"`
	Day      int `json:"day"`
}

// TourStartDate is a scheduled departure of a tour.
type TourStartDate struct {
	ID     uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	TourID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Date   time.Time `gorm:"not null;index" json:"date"`
}

func (d TourStartDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Date)
}

func (d *TourStartDate) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &d.Date)
}

type Tour struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string     `gorm:"type:varchar(40);uniqueIndex;not null" json:"name"`
	Slug         string     `gorm:"type:varchar(60);index" json:"slug"`
	Duration     int        `gorm:"not null" json:"duration"`
	MaxGroupSize int        `gorm:"not null" json:"maxGroupSize"`
	Difficulty   Difficulty `gorm:"type:varchar(20);not null" json:"difficulty"`

	// Denormalized review aggregate, recomputed after every review mutation
	RatingsAverage  float64 `gorm:"not null;default:4.8" json:"ratingsAverage"`
	RatingsQuantity int     `gorm:"not null;default:0" json:"ratingsQuantity"`

	Price         float64  `gorm:"not null" json:"price"`
	PriceDiscount *float64 `json:"priceDiscount,omitempty"`

	Summary     string     `gorm:"type:text;not null" json:"summary"`
	Description string     `gorm:"type:text" json:"description"`
	ImageCover  string     `gorm:"type:varchar(255);not null" json:"imageCover"`
	Images      StringList `gorm:"type:text" json:"images"`

	StartDates []TourStartDate `gorm:"constraint:OnDelete:CASCADE" json:"startDates"`

	// Secret tours are excluded from default finds and aggregates
	SecretTour bool `gorm:"not null;default:false" json:"secretTour"`

	StartLocation Location       `gorm:"embedded;embeddedPrefix:start_" json:"startLocation"`
	Locations     []TourLocation `gorm:"constraint:OnDelete:CASCADE" json:"locations"`

	Guides []User `gorm:"many2many:tour_guides;constraint:OnDelete:CASCADE" json:"guides"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *Tour) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.Slug = slug.Make(t.Name)
	return nil
}

func (t *Tour) Validate() error {
	if len(t.Name) < 10 || len(t.Name) > 40 {
		return apperror.New(apperror.KindValidation, "a tour name must have between 10 and 40 characters")
	}
	if !tourNameRegex.MatchString(t.Name) {
		return apperror.Newf(apperror.KindValidation, "%s is not a valid name", t.Name)
	}
	if t.Duration <= 0 {
		return apperror.New(apperror.KindValidation, "a tour must have a duration")
	}
	if t.MaxGroupSize <= 0 {
		return apperror.New(apperror.KindValidation, "a tour must have a group size")
	}
	if !t.Difficulty.Valid() {
		return apperror.New(apperror.KindValidation, "difficulty is either: easy, medium, difficult")
	}
	if t.Price <= 0 {
		return apperror.New(apperror.KindValidation, "a tour must have a price")
	}
	if t.PriceDiscount != nil && *t.PriceDiscount >= t.Price {
		return apperror.Newf(apperror.KindValidation,
			"discount price (%v) should be below regular price", *t.PriceDiscount)
	}
	if t.RatingsAverage != 0 && (t.RatingsAverage < 1 || t.RatingsAverage > 5) {
		return apperror.New(apperror.KindValidation, "rating must be between 1.0 and 5.0")
	}
	if t.Summary == "" {
		return apperror.New(apperror.KindValidation, "a tour must have a summary")
	}
	if t.ImageCover == "" {
		return apperror.New(apperror.KindValidation, "a tour must have a cover image")
	}
	return nil
}
