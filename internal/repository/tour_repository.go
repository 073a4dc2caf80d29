package repository

import (
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/mariofilbert/natours-api/internal/apperror"
	"github.com/mariofilbert/natours-api/internal/models"
)

// VisibleTours excludes secret tours from default finds and aggregates.
func VisibleTours(db *gorm.DB) *gorm.DB {
	return db.Where("secret_tour = ?", false)
}

type TourRepository struct {
	*Repository[models.Tour]
}

func NewTourRepository(db *gorm.DB) *TourRepository {
	return &TourRepository{
		Repository: New[models.Tour](db, "tour", "StartDates", "Locations", "Guides"),
	}
}

// TourStats is the per-difficulty aggregate over well-rated tours.
type TourStats struct {
	Difficulty string  `json:"difficulty"`
	NumTours   int     `json:"numTours"`
	NumRatings int     `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}

// Stats groups tours with a ratings average of at least 4.5 by
// difficulty, ordered by ascending average price.
func (r *TourRepository) Stats() ([]TourStats, error) {
	stats := []TourStats{}
	err := r.db.Model(&models.Tour{}).
		Scopes(VisibleTours).
		Select(`difficulty,
			COUNT(*) AS num_tours,
			SUM(ratings_quantity) AS num_ratings,
			AVG(ratings_average) AS avg_rating,
			AVG(price) AS avg_price,
			MIN(price) AS min_price,
			MAX(price) AS max_price`).
		Where("ratings_average >= ?", 4.5).
		Group("difficulty").
		Order("avg_price").
		Scan(&stats).Error
	if err != nil {
		return nil, apperror.FromDB(err, "tour")
	}
	return stats, nil
}

// MonthPlan counts tour departures per month of a year.
type MonthPlan struct {
	Month         int      `json:"month"`
	NumTourStarts int      `json:"numTourStarts"`
	Tours         []string `json:"tours"`
}

// MonthlyPlan enumerates departures in the given year grouped by month,
// busiest month first. Month extraction happens in Go: the SQL for it
// differs between postgres and the sqlite test database, and a year of
// start dates is small.
func (r *TourRepository) MonthlyPlan(year int) ([]MonthPlan, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)

	var rows []struct {
		Date time.Time
		Name string
	}
	err := r.db.Model(&models.TourStartDate{}).
		Select("tour_start_dates.date, tours.name").
		Joins("JOIN tours ON tours.id = tour_start_dates.tour_id").
		Where("tours.secret_tour = ?", false).
		Where("tour_start_dates.date BETWEEN ? AND ?", from, to).
		Scan(&rows).Error
	if err != nil {
		return nil, apperror.FromDB(err, "tour")
	}

	byMonth := map[int]*MonthPlan{}
	for _, row := range rows {
		m := int(row.Date.Month())
		plan, ok := byMonth[m]
		if !ok {
			plan = &MonthPlan{Month: m}
			byMonth[m] = plan
		}
		plan.NumTourStarts++
		plan.Tours = append(plan.Tours, row.Name)
	}

	plans := make([]MonthPlan, 0, len(byMonth))
	for _, plan := range byMonth {
		plans = append(plans, *plan)
	}
	sort.Slice(plans, func(i, j int) bool {
		if plans[i].NumTourStarts != plans[j].NumTourStarts {
			return plans[i].NumTourStarts > plans[j].NumTourStarts
		}
		return plans[i].Month < plans[j].Month
	})
	return plans, nil
}

// Within returns visible tours whose start location lies inside the
// given radius (km) around the center point.
func (r *TourRepository) Within(lat, lng, radiusKm float64) ([]models.Tour, error) {
	var tours []models.Tour
	if err := r.db.Scopes(VisibleTours).Find(&tours).Error; err != nil {
		return nil, apperror.FromDB(err, "tour")
	}

	within := []models.Tour{}
	for _, tour := range tours {
		if haversineKm(lat, lng, tour.StartLocation.Lat, tour.StartLocation.Lng) <= radiusKm {
			within = append(within, tour)
		}
	}
	return within, nil
}

// TourDistance pairs a tour with its distance from a reference point.
type TourDistance struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

// DistancesFrom computes the distance from the given point to every
// visible tour's start location, scaled by unitMultiplier (1 for km,
// the mile factor otherwise), nearest first.
func (r *TourRepository) DistancesFrom(lat, lng, unitMultiplier float64) ([]TourDistance, error) {
	var tours []models.Tour
	if err := r.db.Scopes(VisibleTours).Find(&tours).Error; err != nil {
		return nil, apperror.FromDB(err, "tour")
	}

	distances := make([]TourDistance, 0, len(tours))
	for _, tour := range tours {
		distances = append(distances, TourDistance{
			ID:       tour.ID.String(),
			Name:     tour.Name,
			Distance: haversineKm(lat, lng, tour.StartLocation.Lat, tour.StartLocation.Lng) * unitMultiplier,
		})
	}
	sort.Slice(distances, func(i, j int) bool {
		return distances[i].Distance < distances[j].Distance
	})
	return distances, nil
}
