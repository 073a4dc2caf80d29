package service

import (
	"strconv"
	"strings"

	"github.com/mariofilbert/natours-api/internal/apperror"
	"github.com/mariofilbert/natours-api/internal/models"
	"github.com/mariofilbert/natours-api/internal/repository"
)

// Equatorial radii used to turn a surface distance into an angular
// radius for the given unit.
const (
	earthRadiusMiles = 3963.2
	earthRadiusKm    = 6378.1
)

type TourService struct {
	tourRepo *repository.TourRepository
}

func NewTourService(tourRepo *repository.TourRepository) *TourService {
	return &TourService{tourRepo: tourRepo}
}

// ParseLatLng splits a "lat,lng" path segment into coordinates.
func ParseLatLng(latlng string) (float64, float64, error) {
	parts := strings.Split(latlng, ",")
	if len(parts) != 2 {
		return 0, 0, apperror.New(apperror.KindValidation,
			"please provide latitude and longitude in the format lat,lng")
	}

	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLat != nil || errLng != nil {
		return 0, 0, apperror.New(apperror.KindValidation,
			"please provide latitude and longitude in the format lat,lng")
	}
	return lat, lng, nil
}

// ToursWithin returns tours whose start location lies inside the sphere
// of the given surface distance around the center point.
func (s *TourService) ToursWithin(latlng, distance, unit string) ([]models.Tour, error) {
	lat, lng, err := ParseLatLng(latlng)
	if err != nil {
		return nil, err
	}

	dist, err := strconv.ParseFloat(distance, 64)
	if err != nil || dist < 0 {
		return nil, apperror.New(apperror.KindValidation, "please provide a valid distance")
	}

	radiusKm := dist
	if unit == "mi" {
		radiusKm = dist / earthRadiusMiles * earthRadiusKm
	}

	return s.tourRepo.Within(lat, lng, radiusKm)
}

// Distances returns every visible tour with its distance from the
// center point, nearest first, in the requested unit.
func (s *TourService) Distances(latlng, unit string) ([]repository.TourDistance, error) {
	lat, lng, err := ParseLatLng(latlng)
	if err != nil {
		return nil, err
	}

	multiplier := 1.0
	if unit == "mi" {
		multiplier = repository.MilesPerKm
	}

	return s.tourRepo.DistancesFrom(lat, lng, multiplier)
}

func (s *TourService) Stats() ([]repository.TourStats, error) {
	return s.tourRepo.Stats()
}

func (s *TourService) MonthlyPlan(yearParam string) ([]repository.MonthPlan, error) {
	year, err := strconv.Atoi(yearParam)
	if err != nil {
		return nil, apperror.New(apperror.KindValidation, "please provide a valid year")
	}
	return s.tourRepo.MonthlyPlan(year)
}
