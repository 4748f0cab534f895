package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/akozadaev/study_spots_recommender/internal/logging"
	"github.com/akozadaev/study_spots_recommender/internal/metrics"
	"github.com/akozadaev/study_spots_recommender/internal/models"
)

// BreakerSettings задает поведение автоматического выключателя.
type BreakerSettings struct {
	Name             string
	FailureThreshold uint32        // Подряд идущие сбои до размыкания
	OpenTimeout      time.Duration // Время в разомкнутом состоянии до пробного запроса
}

// BreakerRepository оборачивает Catalog автоматическим выключателем.
// При недоступном хранилище запросы отклоняются сразу, не дожидаясь таймаутов.
type BreakerRepository struct {
	next Catalog
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// NewBreakerRepository создает обертку над next.
func NewBreakerRepository(next Catalog, s BreakerSettings) *BreakerRepository {
	name := s.Name
	if name == "" {
		name = "store"
	}
	metrics.BreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.FailureThreshold
		},
		// Отсутствующее место и отмена запроса клиентом не говорят о сбое хранилища.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrSpotNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Store circuit breaker state changed")
			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.BreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &BreakerRepository{next: next, cb: cb, name: name}
}

// State возвращает текущее состояние выключателя.
func (b *BreakerRepository) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerRepository) ListSpots(ctx context.Context) ([]models.Spot, error) {
	return run(b, "list_spots", func() ([]models.Spot, error) {
		return b.next.ListSpots(ctx)
	})
}

func (b *BreakerRepository) GetSpot(ctx context.Context, id string) (models.Spot, error) {
	return run(b, "get_spot", func() (models.Spot, error) {
		return b.next.GetSpot(ctx, id)
	})
}

func (b *BreakerRepository) LatestStatusBySpot(ctx context.Context, spotIDs []string) (map[string]models.StatusObservation, error) {
	return run(b, "latest_status", func() (map[string]models.StatusObservation, error) {
		return b.next.LatestStatusBySpot(ctx, spotIDs)
	})
}

func (b *BreakerRepository) AppendStatus(ctx context.Context, obs models.StatusObservation) (models.StatusObservation, error) {
	return run(b, "append_status", func() (models.StatusObservation, error) {
		return b.next.AppendStatus(ctx, obs)
	})
}

func run[T any](b *BreakerRepository, op string, fn func() (T, error)) (T, error) {
	var zero T
	result, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		if !errors.Is(err, ErrSpotNotFound) {
			metrics.StoreErrors.WithLabelValues(op).Inc()
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%s rejected by circuit breaker %s: %w", op, b.name, err)
		}
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// stateValue: 0 = closed, 1 = half-open, 2 = open.
func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
