package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mariofilbert/natours-api/internal/apperror"
	"github.com/mariofilbert/natours-api/internal/query"
)

// Scope narrows a query, e.g. excluding secret tours or scoping reviews
// to one tour.
type Scope = func(*gorm.DB) *gorm.DB

// Validator is implemented by models that carry their own schema checks.
type Validator interface {
	Validate() error
}

// Repository provides the five generic operations every resource shares.
// Resource-specific lookups live in the per-resource repositories below.
type Repository[T any] struct {
	db       *gorm.DB
	resource string
	preloads []string
}

func New[T any](db *gorm.DB, resource string, preloads ...string) *Repository[T] {
	return &Repository[T]{db: db, resource: resource, preloads: preloads}
}

func (r *Repository[T]) DB() *gorm.DB { return r.db }

// ParseID converts a path parameter into a uuid, classifying format
// errors as InvalidIdentifier (the cast-error equivalent).
func (r *Repository[T]) ParseID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperror.Newf(apperror.KindInvalidIdentifier, "invalid ID: %s", id)
	}
	return uid, nil
}

func (r *Repository[T]) Create(doc *T) error {
	if v, ok := any(doc).(Validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if err := r.db.Create(doc).Error; err != nil {
		return apperror.FromDB(err, r.resource)
	}
	return nil
}

func (r *Repository[T]) GetByID(id string, scopes ...Scope) (*T, error) {
	uid, err := r.ParseID(id)
	if err != nil {
		return nil, err
	}

	q := r.db
	for _, p := range r.preloads {
		q = q.Preload(p)
	}

	var doc T
	if err := q.Scopes(scopes...).First(&doc, "id = ?", uid).Error; err != nil {
		return nil, apperror.FromDB(err, r.resource)
	}
	return &doc, nil
}

// List executes a filtered/sorted/paginated find. Empty result sets are
// valid, never an error.
func (r *Repository[T]) List(features *query.Features, scopes ...Scope) ([]T, error) {
	q := r.db.Model(new(T)).Scopes(scopes...)
	if features != nil {
		q = q.Scopes(features.Scope())
	}

	docs := []T{}
	if err := q.Find(&docs).Error; err != nil {
		return nil, apperror.FromDB(err, r.resource)
	}
	return docs, nil
}

// UpdateByID merges the given (already whitelisted) fields into the
// document and returns both the prior and the new state. The merge and
// the post-merge validation run in one transaction, so an invariant
// violation rolls the write back.
func (r *Repository[T]) UpdateByID(id string, fields map[string]any, scopes ...Scope) (previous, updated *T, err error) {
	uid, err := r.ParseID(id)
	if err != nil {
		return nil, nil, err
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		var prev T
		if err := tx.Scopes(scopes...).First(&prev, "id = ?", uid).Error; err != nil {
			return apperror.FromDB(err, r.resource)
		}

		if len(fields) > 0 {
			if err := tx.Model(new(T)).Where("id = ?", uid).Updates(fields).Error; err != nil {
				return apperror.FromDB(err, r.resource)
			}
		}

		var next T
		if err := tx.First(&next, "id = ?", uid).Error; err != nil {
			return apperror.FromDB(err, r.resource)
		}
		if v, ok := any(&next).(Validator); ok {
			if err := v.Validate(); err != nil {
				return err
			}
			// Validate may normalize fields (e.g. rounding); the stored
			// row must match what the caller gets back
			if err := tx.Omit(clause.Associations).Save(&next).Error; err != nil {
				return apperror.FromDB(err, r.resource)
			}
		}

		previous, updated = &prev, &next
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return previous, updated, nil
}

// DeleteByID hard-deletes a document.
func (r *Repository[T]) DeleteByID(id string) error {
	uid, err := r.ParseID(id)
	if err != nil {
		return err
	}

	res := r.db.Delete(new(T), "id = ?", uid)
	if res.Error != nil {
		return apperror.FromDB(res.Error, r.resource)
	}
	if res.RowsAffected == 0 {
		return apperror.Newf(apperror.KindNotFound, "no %s found with that ID", r.resource)
	}
	return nil
}
