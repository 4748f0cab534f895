// Package recommend содержит точки входа ядра: ранжирование учебных мест
// и прием наблюдений о их статусе. Хранилище передается явно через storage.Repository.
package recommend

import (
	"context"
	"sort"
	"time"

	"github.com/akozadaev/study_spots_recommender/internal/logging"
	"github.com/akozadaev/study_spots_recommender/internal/metrics"
	"github.com/akozadaev/study_spots_recommender/internal/models"
	"github.com/akozadaev/study_spots_recommender/internal/scoring"
	"github.com/akozadaev/study_spots_recommender/internal/storage"
)

// DefaultLimit задает размер выдачи, если limit не задан.
const DefaultLimit = 5

// Service ранжирует места и принимает наблюдения.
type Service struct {
	repo         storage.Repository
	engine       *scoring.Engine
	defaultLimit int
	now          func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDefaultLimit задает размер выдачи по умолчанию.
func WithDefaultLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.defaultLimit = limit
		}
	}
}

// NewService создает Service поверх хранилища repo.
func NewService(repo storage.Repository, engine *scoring.Engine, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		engine:       engine,
		defaultLimit: DefaultLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rank возвращает не более limit мест, отсортированных по убыванию оценки.
// limit <= 0 означает размер выдачи по умолчанию. При ошибке хранилища
// частичный результат не возвращается.
func (s *Service) Rank(ctx context.Context, prefs models.Preferences, limit int) ([]models.ScoredSpot, error) {
	start := time.Now()
	defer func() {
		metrics.RankDuration.Observe(time.Since(start).Seconds())
	}()

	if limit <= 0 {
		limit = s.defaultLimit
	}

	scored, err := s.scoreAll(ctx, prefs)
	if err != nil {
		metrics.RankRequests.WithLabelValues("upstream_error").Inc()
		logging.Ctx(ctx).Error().Err(err).Msg("Ranking failed")
		return nil, err
	}

	// Стабильная сортировка: равные оценки сохраняют порядок выборки.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	metrics.RankedCandidates.Observe(float64(len(scored)))
	if len(scored) > limit {
		scored = scored[:limit]
	}

	metrics.RankRequests.WithLabelValues("ok").Inc()
	logging.Ctx(ctx).Debug().
		Int("returned", len(scored)).
		Int("limit", limit).
		Bool("has_location", prefs.HasLocation()).
		Msg("Ranked study spots")
	return scored, nil
}

func (s *Service) scoreAll(ctx context.Context, prefs models.Preferences) ([]models.ScoredSpot, error) {
	spots, err := s.repo.ListSpots(ctx)
	if err != nil {
		return nil, &UpstreamFetchError{Op: "list spots", Err: err}
	}

	ids := make([]string, 0, len(spots))
	for _, spot := range spots {
		if err := storage.ValidateSpot(spot); err != nil {
			return nil, &UpstreamFetchError{Op: "list spots", Err: err}
		}
		ids = append(ids, spot.ID)
	}

	latest, err := s.repo.LatestStatusBySpot(ctx, ids)
	if err != nil {
		return nil, &UpstreamFetchError{Op: "fetch latest status", Err: err}
	}
	for _, obs := range latest {
		if err := storage.ValidateObservation(obs); err != nil {
			return nil, &UpstreamFetchError{Op: "fetch latest status", Err: err}
		}
	}

	// Один момент времени на весь запрос, чтобы свежесть оценивалась одинаково.
	now := s.now()
	scored := make([]models.ScoredSpot, 0, len(spots))
	for _, spot := range spots {
		var status *models.StatusObservation
		if obs, ok := latest[spot.ID]; ok {
			status = &obs
		}

		res := s.engine.Score(spot, status, prefs, now)
		for _, w := range res.Warnings {
			metrics.ScoringWarnings.WithLabelValues(w).Inc()
		}
		scored = append(scored, models.ScoredSpot{
			Spot:           spot,
			Status:         status,
			Score:          res.Score,
			DistanceMeters: res.DistanceMeters,
			SubScores:      res.SubScores,
			Warnings:       res.Warnings,
			MatchReason:    res.MatchReason,
		})
	}
	return scored, nil
}
