package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mariofilbert/natours-api/internal/apperror"
	"github.com/mariofilbert/natours-api/internal/query"
	"github.com/mariofilbert/natours-api/internal/repository"
)

// Resource serves the five generic endpoints a collection shares.
// Resource-specific behavior hangs off the two hooks: beforeCreate for
// injecting request context into a new document (nested routes, the
// logged-in user), listScope for narrowing collection reads.
type Resource[T any] struct {
	repo     *repository.Repository[T]
	singular string
	plural   string

	// path parameter carrying the document id; "id" unless the
	// resource nests others under it (gin forbids conflicting
	// parameter names at the same path position)
	idParam string

	// query parameter -> column map for filtering/sorting/projection
	columns map[string]string
	// JSON key -> column map of fields a partial update may touch
	updatable map[string]string

	beforeCreate func(c *gin.Context, doc *T) error
	listScope    func(c *gin.Context) []repository.Scope
}

type ResourceOption[T any] func(*Resource[T])

func WithBeforeCreate[T any](hook func(c *gin.Context, doc *T) error) ResourceOption[T] {
	return func(r *Resource[T]) { r.beforeCreate = hook }
}

func WithListScope[T any](hook func(c *gin.Context) []repository.Scope) ResourceOption[T] {
	return func(r *Resource[T]) { r.listScope = hook }
}

func WithIDParam[T any](name string) ResourceOption[T] {
	return func(r *Resource[T]) { r.idParam = name }
}

func NewResource[T any](
	repo *repository.Repository[T],
	singular, plural string,
	columns map[string]string,
	updatable map[string]string,
	opts ...ResourceOption[T],
) *Resource[T] {
	r := &Resource[T]{
		repo:      repo,
		singular:  singular,
		plural:    plural,
		idParam:   "id",
		columns:   columns,
		updatable: updatable,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resource[T]) CreateOne(c *gin.Context) {
	doc := new(T)
	if err := c.ShouldBindJSON(doc); err != nil {
		renderError(c, apperror.New(apperror.KindValidation, "invalid request body"))
		return
	}

	if r.beforeCreate != nil {
		if err := r.beforeCreate(c, doc); err != nil {
			renderError(c, err)
			return
		}
	}

	if err := r.repo.Create(doc); err != nil {
		renderError(c, err)
		return
	}
	renderData(c, http.StatusCreated, r.singular, doc)
}

func (r *Resource[T]) GetOne(c *gin.Context) {
	doc, err := r.repo.GetByID(c.Param(r.idParam), r.scopes(c)...)
	if err != nil {
		renderError(c, err)
		return
	}
	renderData(c, http.StatusOK, r.singular, doc)
}

func (r *Resource[T]) GetAll(c *gin.Context) {
	features := query.NewFeatures(c.Request.URL.Query(), r.columns)
	docs, err := r.repo.List(features, r.scopes(c)...)
	if err != nil {
		renderError(c, err)
		return
	}
	renderList(c, r.plural, docs, len(docs))
}

// UpdateOne merges the allow-listed fields of the body into the document
// and returns both the prior and the resulting state.
func (r *Resource[T]) UpdateOne(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		renderError(c, apperror.New(apperror.KindValidation, "invalid request body"))
		return
	}

	fields := make(map[string]interface{})
	for key, value := range body {
		if column, ok := r.updatable[key]; ok {
			fields[column] = value
		}
	}

	previous, updated, err := r.repo.UpdateByID(c.Param(r.idParam), fields, r.scopes(c)...)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"previous": previous,
			"updated":  updated,
		},
	})
}

func (r *Resource[T]) DeleteOne(c *gin.Context) {
	if err := r.repo.DeleteByID(c.Param(r.idParam)); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, gin.H{
		"status": "success",
		"data":   nil,
	})
}

func (r *Resource[T]) scopes(c *gin.Context) []repository.Scope {
	if r.listScope == nil {
		return nil
	}
	return r.listScope(c)
}
