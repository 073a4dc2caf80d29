// Package query translates request query strings into gorm query scopes:
// filtering, sorting, field projection and pagination. Building is pure;
// execution stays with the caller.
package query

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultLimit = 100
	DefaultSort  = "created_at DESC"
)

// reserved control keys never become filters
var reservedKeys = map[string]bool{
	"page":   true,
	"sort":   true,
	"limit":  true,
	"fields": true,
}

// price[gte]=100 style comparison parameters
var operatorKeyRegex = regexp.MustCompile(`^(\w+)\[(gte|gt|lte|lt)\]$`)

var sqlOperators = map[string]string{
	"gte": ">=",
	"gt":  ">",
	"lte": "<=",
	"lt":  "<",
}

// Features refines a base query from request parameters. Field names go
// through a static request-name → column mapping, so unknown or unsafe
// parameters are dropped instead of reaching the database.
type Features struct {
	params  url.Values
	columns map[string]string
}

func NewFeatures(params url.Values, columns map[string]string) *Features {
	return &Features{params: params, columns: columns}
}

// Scope composes filter, sort, projection and pagination into one
// gorm scope.
func (f *Features) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = f.filter(db)
		db = f.sort(db)
		db = f.limitFields(db)
		return f.paginate(db)
	}
}

func (f *Features) filter(db *gorm.DB) *gorm.DB {
	for key, values := range f.params {
		if reservedKeys[key] || len(values) == 0 {
			continue
		}

		field, op := key, "="
		if m := operatorKeyRegex.FindStringSubmatch(key); m != nil {
			field, op = m[1], sqlOperators[m[2]]
		}

		column, ok := f.columns[field]
		if !ok {
			continue
		}

		db = db.Where(fmt.Sprintf("%s %s ?", column, op), coerce(values[0]))
	}
	return db
}

func (f *Features) sort(db *gorm.DB) *gorm.DB {
	raw := f.params.Get("sort")
	if raw == "" {
		return db.Order(DefaultSort)
	}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		field := strings.TrimPrefix(part, "-")

		column, ok := f.columns[field]
		if !ok {
			continue
		}
		if desc {
			column += " DESC"
		}
		db = db.Order(column)
	}
	return db
}

func (f *Features) limitFields(db *gorm.DB) *gorm.DB {
	raw := f.params.Get("fields")
	if raw == "" {
		return db
	}

	selected := []string{"id"}
	for _, field := range strings.Split(raw, ",") {
		column, ok := f.columns[strings.TrimSpace(field)]
		if !ok || column == "id" {
			continue
		}
		selected = append(selected, column)
	}
	return db.Select(selected)
}

func (f *Features) paginate(db *gorm.DB) *gorm.DB {
	page, _ := strconv.Atoi(f.params.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(f.params.Get("limit"))
	if limit < 1 {
		limit = DefaultLimit
	}

	// A page past the end is a valid empty result, not an error
	return db.Offset((page - 1) * limit).Limit(limit)
}

// coerce converts a query parameter into the value type the column most
// likely holds, so drivers with typed placeholders compare correctly.
func coerce(v string) any {
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}
