// Package storage содержит хранилища учебных мест и наблюдений о статусе:
// PostgreSQL, Elasticsearch/OpenSearch и хранилище в памяти.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/akozadaev/study_spots_recommender/internal/models"
)

// ErrSpotNotFound возвращается, если учебное место с указанным ID не существует.
var ErrSpotNotFound = errors.New("spot not found")

// ErrCatalogTooLarge возвращается, если справочник не помещается в одну выборку.
var ErrCatalogTooLarge = errors.New("spot catalog exceeds result window")

// Repository описывает источник данных для ранжирования и приема наблюдений.
type Repository interface {
	// ListSpots возвращает все учебные места в стабильном порядке.
	ListSpots(ctx context.Context) ([]models.Spot, error)
	// LatestStatusBySpot возвращает самое свежее наблюдение для каждого места из spotIDs.
	// Места без наблюдений в результат не попадают.
	LatestStatusBySpot(ctx context.Context, spotIDs []string) (map[string]models.StatusObservation, error)
	// AppendStatus сохраняет новое наблюдение. Существующие наблюдения не изменяются.
	AppendStatus(ctx context.Context, obs models.StatusObservation) (models.StatusObservation, error)
}

// SpotReader читает одно учебное место.
type SpotReader interface {
	GetSpot(ctx context.Context, id string) (models.Spot, error)
}

// SpotWriter загружает справочник учебных мест.
type SpotWriter interface {
	UpsertSpots(ctx context.Context, spots []models.Spot) error
}

// Catalog объединяет операции, нужные HTTP слою.
type Catalog interface {
	Repository
	SpotReader
}

// Store объединяет все операции конкретного хранилища.
type Store interface {
	Catalog
	SpotWriter
	Close() error
}

// ValidateSpot проверяет, что данные места пригодны для оценки.
func ValidateSpot(s models.Spot) error {
	if s.ID == "" {
		return errors.New("spot has empty id")
	}
	if math.IsNaN(s.Lat) || s.Lat < -90 || s.Lat > 90 {
		return fmt.Errorf("spot %q has invalid latitude %v", s.ID, s.Lat)
	}
	if math.IsNaN(s.Lng) || s.Lng < -180 || s.Lng > 180 {
		return fmt.Errorf("spot %q has invalid longitude %v", s.ID, s.Lng)
	}
	return nil
}

// ValidateObservation проверяет, что наблюдение из хранилища корректно.
func ValidateObservation(o models.StatusObservation) error {
	if o.SpotID == "" {
		return fmt.Errorf("observation %q has empty spot id", o.ID)
	}
	if o.OccupancyPercent != nil && (math.IsNaN(*o.OccupancyPercent) || math.IsInf(*o.OccupancyPercent, 0)) {
		return fmt.Errorf("observation %q has non-finite occupancy", o.ID)
	}
	if o.NoiseLevel != nil && !o.NoiseLevel.Valid() {
		return fmt.Errorf("observation %q has unknown noise level %q", o.ID, *o.NoiseLevel)
	}
	if !o.Source.Valid() {
		return fmt.Errorf("observation %q has unknown source %q", o.ID, o.Source)
	}
	if o.UpdatedAt.IsZero() {
		return fmt.Errorf("observation %q has no timestamp", o.ID)
	}
	return nil
}
