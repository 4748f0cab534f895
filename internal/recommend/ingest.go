package recommend

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"

	"github.com/akozadaev/study_spots_recommender/internal/logging"
	"github.com/akozadaev/study_spots_recommender/internal/metrics"
	"github.com/akozadaev/study_spots_recommender/internal/models"
	"github.com/akozadaev/study_spots_recommender/internal/storage"
)

// Update описывает новое наблюдение о месте. Нужен хотя бы один сигнал.
type Update struct {
	SpotID           string
	OccupancyPercent *float64
	NoiseLevel       *models.NoiseLevel
	Source           models.Source // Пустое значение означает user
}

// Submit проверяет и добавляет наблюдение. Прежние наблюдения не изменяются.
func (s *Service) Submit(ctx context.Context, u Update) (models.StatusObservation, error) {
	if u.Source == "" {
		u.Source = models.SourceUser
	}

	if err := validateUpdate(u); err != nil {
		metrics.StatusSubmissions.WithLabelValues(string(u.Source), "invalid").Inc()
		return models.StatusObservation{}, err
	}

	obs := models.StatusObservation{
		ID:               uuid.New().String(),
		SpotID:           u.SpotID,
		OccupancyPercent: u.OccupancyPercent,
		NoiseLevel:       u.NoiseLevel,
		Source:           u.Source,
		UpdatedAt:        s.now().UTC(),
	}

	saved, err := s.repo.AppendStatus(ctx, obs)
	if err != nil {
		if errors.Is(err, storage.ErrSpotNotFound) {
			metrics.StatusSubmissions.WithLabelValues(string(u.Source), "invalid").Inc()
			return models.StatusObservation{}, &ValidationError{Field: "spotId", Message: "unknown spot " + u.SpotID}
		}
		metrics.StatusSubmissions.WithLabelValues(string(u.Source), "upstream_error").Inc()
		logging.Ctx(ctx).Error().Err(err).Str("spot_id", u.SpotID).Msg("Failed to append status")
		return models.StatusObservation{}, &UpstreamFetchError{Op: "append status", Err: err}
	}

	metrics.StatusSubmissions.WithLabelValues(string(u.Source), "created").Inc()
	logging.Ctx(ctx).Info().
		Str("spot_id", saved.SpotID).
		Str("observation_id", saved.ID).
		Str("source", string(saved.Source)).
		Msg("Status observation recorded")
	return saved, nil
}

func validateUpdate(u Update) error {
	if u.SpotID == "" {
		return &ValidationError{Field: "spotId", Message: "is required"}
	}
	if u.OccupancyPercent == nil && u.NoiseLevel == nil {
		return &ValidationError{Message: "at least one of occupancyPercent or noiseLevel is required"}
	}
	if p := u.OccupancyPercent; p != nil {
		if math.IsNaN(*p) || math.IsInf(*p, 0) || *p < 0 || *p > 100 {
			return &ValidationError{Field: "occupancyPercent", Message: "must be between 0 and 100"}
		}
	}
	if u.NoiseLevel != nil && !u.NoiseLevel.Valid() {
		return &ValidationError{Field: "noiseLevel", Message: "must be one of: Quiet Medium Loud"}
	}
	if !u.Source.Valid() {
		return &ValidationError{Field: "source", Message: "must be one of: user schedule"}
	}
	return nil
}
