package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mariofilbert/natours-api/internal/apperror"
	"github.com/mariofilbert/natours-api/internal/media"
	"github.com/mariofilbert/natours-api/internal/models"
	"github.com/mariofilbert/natours-api/internal/repository"
	"github.com/mariofilbert/natours-api/internal/service"
)

var tourQueryColumns = map[string]string{
	"name":            "name",
	"duration":        "duration",
	"maxGroupSize":    "max_group_size",
	"difficulty":      "difficulty",
	"ratingsAverage":  "ratings_average",
	"ratingsQuantity": "ratings_quantity",
	"price":           "price",
	"summary":         "summary",
	"createdAt":       "created_at",
}

var tourUpdatableColumns = map[string]string{
	"name":          "name",
	"duration":      "duration",
	"maxGroupSize":  "max_group_size",
	"difficulty":    "difficulty",
	"price":         "price",
	"priceDiscount": "price_discount",
	"summary":       "summary",
	"description":   "description",
	"imageCover":    "image_cover",
	"secretTour":    "secret_tour",
}

type TourHandler struct {
	*Resource[models.Tour]
	tourRepo    *repository.TourRepository
	tourService *service.TourService
	storage     media.Storage
}

func NewTourHandler(tourRepo *repository.TourRepository, tourService *service.TourService, storage media.Storage) *TourHandler {
	resource := NewResource(
		tourRepo.Repository,
		"tour", "tours",
		tourQueryColumns,
		tourUpdatableColumns,
		WithIDParam[models.Tour]("tourId"),
		WithListScope[models.Tour](func(c *gin.Context) []repository.Scope {
			return []repository.Scope{repository.VisibleTours}
		}),
	)
	return &TourHandler{
		Resource:    resource,
		tourRepo:    tourRepo,
		tourService: tourService,
		storage:     storage,
	}
}

// AliasTopTours presets the query for the five best cheap tours before
// the generic list handler runs.
func AliasTopTours(c *gin.Context) {
	q := url.Values{}
	q.Set("limit", "5")
	q.Set("sort", "-ratingsAverage,price")
	q.Set("fields", "name,price,ratingsAverage,summary,difficulty")
	c.Request.URL.RawQuery = q.Encode()
	c.Next()
}

func (h *TourHandler) GetStats(c *gin.Context) {
	stats, err := h.tourService.Stats()
	if err != nil {
		renderError(c, err)
		return
	}
	renderData(c, http.StatusOK, "stats", stats)
}

func (h *TourHandler) GetMonthlyPlan(c *gin.Context) {
	plan, err := h.tourService.MonthlyPlan(c.Param("year"))
	if err != nil {
		renderError(c, err)
		return
	}
	renderData(c, http.StatusOK, "plan", plan)
}

// GetToursWithin serves /tours-within/:distance/center/:latlng/unit/:unit.
func (h *TourHandler) GetToursWithin(c *gin.Context) {
	tours, err := h.tourService.ToursWithin(c.Param("latlng"), c.Param("distance"), c.Param("unit"))
	if err != nil {
		renderError(c, err)
		return
	}
	renderList(c, "tours", tours, len(tours))
}

// GetDistances serves /distances/:latlng/unit/:unit.
func (h *TourHandler) GetDistances(c *gin.Context) {
	distances, err := h.tourService.Distances(c.Param("latlng"), c.Param("unit"))
	if err != nil {
		renderError(c, err)
		return
	}
	renderData(c, http.StatusOK, "distances", distances)
}

// UploadImages replaces a tour's cover and gallery from a multipart
// form: one "imageCover" file plus up to three "images" files.
func (h *TourHandler) UploadImages(c *gin.Context) {
	id := c.Param("tourId")
	if _, err := h.tourRepo.GetByID(id); err != nil {
		renderError(c, err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		renderError(c, apperror.New(apperror.KindValidation, "expected a multipart form with image files"))
		return
	}

	fields := make(map[string]interface{})

	if covers := form.File["imageCover"]; len(covers) > 0 {
		name := media.TourCoverName(id)
		if err := h.saveFile(covers[0], name); err != nil {
			renderError(c, err)
			return
		}
		fields["image_cover"] = name
	}

	if gallery := form.File["images"]; len(gallery) > 0 {
		if len(gallery) > 3 {
			renderError(c, apperror.New(apperror.KindValidation, "a tour can have at most 3 gallery images"))
			return
		}
		names := make(models.StringList, 0, len(gallery))
		for i, file := range gallery {
			name := media.TourImageName(id, i+1)
			if err := h.saveFile(file, name); err != nil {
				renderError(c, err)
				return
			}
			names = append(names, name)
		}
		value, err := names.Value()
		if err != nil {
			renderError(c, apperror.Wrap(apperror.KindInternal, "failed to encode image list", err))
			return
		}
		fields["images"] = value
	}

	if len(fields) == 0 {
		renderError(c, apperror.New(apperror.KindValidation, "no image files provided"))
		return
	}

	_, updated, err := h.tourRepo.UpdateByID(id, fields)
	if err != nil {
		renderError(c, err)
		return
	}
	renderData(c, http.StatusOK, "tour", updated)
}

func ensureImage(file *multipart.FileHeader) error {
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		return apperror.New(apperror.KindValidation, "not an image, please upload only images")
	}
	return nil
}

func (h *TourHandler) saveFile(file *multipart.FileHeader, name string) error {
	if err := ensureImage(file); err != nil {
		return err
	}

	src, err := file.Open()
	if err != nil {
		return apperror.Wrap(apperror.KindInternal, fmt.Sprintf("failed to read uploaded file %s", file.Filename), err)
	}
	defer src.Close()

	if err := h.storage.Save(name, src); err != nil {
		return apperror.Wrap(apperror.KindInternal, fmt.Sprintf("failed to store uploaded file %s", file.Filename), err)
	}
	return nil
}
