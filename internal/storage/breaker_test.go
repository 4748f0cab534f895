package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/akozadaev/study_spots_recommender/internal/models"
)

// failingCatalog возвращает err на каждый вызов, пока он не nil.
type failingCatalog struct {
	*MemoryStorage
	err   error
	calls int
}

func (f *failingCatalog) ListSpots(ctx context.Context) ([]models.Spot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.MemoryStorage.ListSpots(ctx)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &failingCatalog{MemoryStorage: NewMemoryStorage(testSpots()...), err: errors.New("connection refused")}
	b := NewBreakerRepository(inner, BreakerSettings{Name: "test-open", FailureThreshold: 3, OpenTimeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := b.ListSpots(ctx); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("state = %s, want open", b.State())
	}

	_, err := b.ListSpots(ctx)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("got %v, want ErrOpenState", err)
	}
	if inner.calls != 3 {
		t.Errorf("inner called %d times, want 3", inner.calls)
	}
}

func TestBreakerIgnoresNotFound(t *testing.T) {
	b := NewBreakerRepository(NewMemoryStorage(testSpots()...), BreakerSettings{Name: "test-notfound", FailureThreshold: 1, OpenTimeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := b.GetSpot(ctx, "missing"); !errors.Is(err, ErrSpotNotFound) {
			t.Fatalf("got %v, want ErrSpotNotFound", err)
		}
	}
	if b.State() != gobreaker.StateClosed {
		t.Fatalf("state = %s, want closed", b.State())
	}
}

func TestBreakerPassesResults(t *testing.T) {
	b := NewBreakerRepository(NewMemoryStorage(testSpots()...), BreakerSettings{Name: "test-pass", FailureThreshold: 1, OpenTimeout: time.Minute})
	ctx := context.Background()

	obs := models.StatusObservation{ID: "o1", SpotID: "lib-1", OccupancyPercent: occupancy(40), Source: models.SourceUser, UpdatedAt: baseTime}
	if _, err := b.AppendStatus(ctx, obs); err != nil {
		t.Fatalf("AppendStatus: %v", err)
	}

	latest, err := b.LatestStatusBySpot(ctx, []string{"lib-1"})
	if err != nil {
		t.Fatalf("LatestStatusBySpot: %v", err)
	}
	if latest["lib-1"].ID != "o1" {
		t.Errorf("got %+v, want observation o1", latest["lib-1"])
	}

	spots, err := b.ListSpots(ctx)
	if err != nil {
		t.Fatalf("ListSpots: %v", err)
	}
	if len(spots) != 3 {
		t.Errorf("got %d spots, want 3", len(spots))
	}
}
