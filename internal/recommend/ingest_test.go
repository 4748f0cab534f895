package recommend

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/akozadaev/study_spots_recommender/internal/models"
	"github.com/akozadaev/study_spots_recommender/internal/storage"
)

func TestSubmitCreatesObservation(t *testing.T) {
	repo := storage.NewMemoryStorage(models.Spot{ID: "lib", Name: "Library", Lat: userLat, Lng: userLng})
	svc := newTestService(repo)
	ctx := context.Background()

	got, err := svc.Submit(ctx, Update{SpotID: "lib", OccupancyPercent: floatPtr(35)})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got.ID == "" {
		t.Error("observation has no id")
	}
	if got.Source != models.SourceUser {
		t.Errorf("source = %q, want user", got.Source)
	}
	if !got.UpdatedAt.Equal(testNow) {
		t.Errorf("updatedAt = %v, want %v", got.UpdatedAt, testNow)
	}
	if got.NoiseLevel != nil {
		t.Errorf("noise = %v, want nil", *got.NoiseLevel)
	}

	latest, err := repo.LatestStatusBySpot(ctx, []string{"lib"})
	if err != nil {
		t.Fatalf("LatestStatusBySpot: %v", err)
	}
	if latest["lib"].ID != got.ID {
		t.Errorf("stored observation = %+v, want %s", latest["lib"], got.ID)
	}
}

func TestSubmitAppendsWithoutOverwriting(t *testing.T) {
	repo := storage.NewMemoryStorage(models.Spot{ID: "lib", Name: "Library", Lat: userLat, Lng: userLng})
	clock := testNow
	svc := NewService(repo, nil, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	first, err := svc.Submit(ctx, Update{SpotID: "lib", NoiseLevel: noisePtr(models.NoiseLoud)})
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	clock = testNow.Add(time.Minute)
	second, err := svc.Submit(ctx, Update{SpotID: "lib", OccupancyPercent: floatPtr(0), Source: models.SourceSchedule})
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("observations share an id")
	}

	latest, _ := repo.LatestStatusBySpot(ctx, []string{"lib"})
	if latest["lib"].ID != second.ID {
		t.Errorf("latest = %s, want %s", latest["lib"].ID, second.ID)
	}
	if latest["lib"].Source != models.SourceSchedule {
		t.Errorf("source = %q, want schedule", latest["lib"].Source)
	}
}

func TestSubmitValidation(t *testing.T) {
	repo := storage.NewMemoryStorage(models.Spot{ID: "lib", Name: "Library", Lat: userLat, Lng: userLng})
	svc := newTestService(repo)

	tests := []struct {
		name      string
		update    Update
		wantField string
	}{
		{"empty spot id", Update{OccupancyPercent: floatPtr(10)}, "spotId"},
		{"no signals", Update{SpotID: "lib"}, ""},
		{"occupancy above range", Update{SpotID: "lib", OccupancyPercent: floatPtr(120)}, "occupancyPercent"},
		{"occupancy below range", Update{SpotID: "lib", OccupancyPercent: floatPtr(-1)}, "occupancyPercent"},
		{"occupancy not a number", Update{SpotID: "lib", OccupancyPercent: floatPtr(math.NaN())}, "occupancyPercent"},
		{"unknown noise", Update{SpotID: "lib", NoiseLevel: noisePtr("Deafening")}, "noiseLevel"},
		{"unknown source", Update{SpotID: "lib", OccupancyPercent: floatPtr(10), Source: "sensor"}, "source"},
		{"unknown spot", Update{SpotID: "nope", OccupancyPercent: floatPtr(10)}, "spotId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tt.update)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("got error %v, want ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}

	latest, _ := repo.LatestStatusBySpot(context.Background(), []string{"lib"})
	if len(latest) != 0 {
		t.Errorf("invalid submissions were stored: %v", latest)
	}
}

func TestSubmitBoundaryOccupancy(t *testing.T) {
	repo := storage.NewMemoryStorage(models.Spot{ID: "lib", Name: "Library", Lat: userLat, Lng: userLng})
	svc := newTestService(repo)

	for _, v := range []float64{0, 100} {
		if _, err := svc.Submit(context.Background(), Update{SpotID: "lib", OccupancyPercent: floatPtr(v)}); err != nil {
			t.Errorf("Submit(%v): %v", v, err)
		}
	}
}

func TestSubmitStoreFailure(t *testing.T) {
	unreachable := errors.New("connection refused")
	svc := newTestService(&stubRepository{appendErr: unreachable})

	_, err := svc.Submit(context.Background(), Update{SpotID: "lib", OccupancyPercent: floatPtr(10)})
	var upstream *UpstreamFetchError
	if !errors.As(err, &upstream) {
		t.Fatalf("got error %v, want UpstreamFetchError", err)
	}
	if !errors.Is(err, unreachable) {
		t.Errorf("error does not wrap %v", unreachable)
	}
}
