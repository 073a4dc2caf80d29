package query

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type widget struct {
	ID         uint    `gorm:"primaryKey;autoIncrement"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Difficulty string  `json:"difficulty"`
	Secret     bool    `json:"secret"`
	CreatedAt  int64   `gorm:"autoCreateTime" json:"createdAt"`
}

var widgetColumns = map[string]string{
	"name":       "name",
	"price":      "price",
	"difficulty": "difficulty",
	"secret":     "secret",
	"createdAt":  "created_at",
}

func setupWidgets(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&widget{}))

	seed := []widget{
		{Name: "alpha", Price: 100, Difficulty: "easy"},
		{Name: "bravo", Price: 250, Difficulty: "medium"},
		{Name: "charlie", Price: 400, Difficulty: "easy"},
		{Name: "delta", Price: 900, Difficulty: "difficult"},
	}
	require.NoError(t, db.Create(&seed).Error)
	return db
}

func list(t *testing.T, db *gorm.DB, rawQuery string) []widget {
	t.Helper()

	params, err := url.ParseQuery(rawQuery)
	require.NoError(t, err)

	var out []widget
	features := NewFeatures(params, widgetColumns)
	require.NoError(t, db.Model(&widget{}).Scopes(features.Scope()).Find(&out).Error)
	return out
}

func TestFilterEquality(t *testing.T) {
	db := setupWidgets(t)

	out := list(t, db, "difficulty=easy")
	require.Len(t, out, 2)
	for _, w := range out {
		assert.Equal(t, "easy", w.Difficulty)
	}
}

func TestFilterComparisonOperators(t *testing.T) {
	db := setupWidgets(t)

	assert.Len(t, list(t, db, "price[gte]=250"), 3)
	assert.Len(t, list(t, db, "price[gt]=250"), 2)
	assert.Len(t, list(t, db, "price[lte]=250"), 2)
	assert.Len(t, list(t, db, "price[lt]=100"), 0)
	assert.Len(t, list(t, db, "price[gte]=100&price[lte]=400"), 3)
}

func TestUnknownParametersAreDropped(t *testing.T) {
	db := setupWidgets(t)

	// Neither a mapped field nor a reserved key; must not reach SQL
	out := list(t, db, "evil=1%3BDROP+TABLE+widgets&price[gte]=400")
	assert.Len(t, out, 2)
}

func TestSortAscendingAndDescending(t *testing.T) {
	db := setupWidgets(t)

	out := list(t, db, "sort=price")
	require.Len(t, out, 4)
	assert.Equal(t, "alpha", out[0].Name)
	assert.Equal(t, "delta", out[3].Name)

	out = list(t, db, "sort=-price")
	assert.Equal(t, "delta", out[0].Name)

	out = list(t, db, "sort=difficulty,-price")
	assert.Equal(t, "difficult", out[0].Difficulty)
	assert.Equal(t, "charlie", out[1].Name) // easy, higher price first
}

func TestFieldProjectionAlwaysIncludesID(t *testing.T) {
	db := setupWidgets(t)

	out := list(t, db, "fields=name")
	require.Len(t, out, 4)
	for _, w := range out {
		assert.NotZero(t, w.ID)
		assert.NotEmpty(t, w.Name)
		assert.Zero(t, w.Price) // not selected
	}
}

func TestPagination(t *testing.T) {
	db := setupWidgets(t)

	out := list(t, db, "sort=price&page=2&limit=2")
	require.Len(t, out, 2)
	assert.Equal(t, "charlie", out[0].Name)

	// Past the end: empty result, not an error
	assert.Len(t, list(t, db, "page=9&limit=2"), 0)

	// Invalid values fall back to defaults
	assert.Len(t, list(t, db, "page=0&limit=-5"), 4)
}

func TestDefaultSortIsNewestFirst(t *testing.T) {
	db := setupWidgets(t)

	require.NoError(t, db.Model(&widget{}).Where("name = ?", "alpha").
		Update("created_at", 9999999999).Error)

	out := list(t, db, "")
	require.Len(t, out, 4)
	assert.Equal(t, "alpha", out[0].Name)
}

func TestBooleanCoercion(t *testing.T) {
	db := setupWidgets(t)
	require.NoError(t, db.Model(&widget{}).Where("name = ?", "delta").
		Update("secret", true).Error)

	out := list(t, db, "secret=false")
	assert.Len(t, out, 3)

	out = list(t, db, fmt.Sprintf("secret=%v", true))
	require.Len(t, out, 1)
	assert.Equal(t, "delta", out[0].Name)
}
