package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/akozadaev/study_spots_recommender/internal/config"
	"github.com/akozadaev/study_spots_recommender/internal/logging"
	"github.com/akozadaev/study_spots_recommender/internal/models"
	"github.com/akozadaev/study_spots_recommender/internal/storage"
)

func main() {
	spotsPath := flag.String("file", "spots.json", "JSON файл со справочником учебных мест")
	statusesPath := flag.String("statuses", "", "JSON файл с начальными наблюдениями (необязательно)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if cfg.StoreBackend == config.BackendMemory {
		logging.Fatal().Msg("Indexer needs a persistent store; set STORE_BACKEND to postgres or elasticsearch")
	}

	spots, err := loadSpots(*spotsPath)
	if err != nil {
		logging.Fatal().Err(err).Str("file", *spotsPath).Msg("Error reading spots")
	}

	var statuses []models.StatusObservation
	if *statusesPath != "" {
		statuses, err = loadStatuses(*statusesPath, time.Now().UTC())
		if err != nil {
			logging.Fatal().Err(err).Str("file", *statusesPath).Msg("Error reading statuses")
		}
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.StoreOptions())
	if err != nil {
		logging.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("Failed to open store")
	}
	defer store.Close()

	if err := index(ctx, store, spots, statuses); err != nil {
		logging.Fatal().Err(err).Msg("Indexing failed")
	}

	logging.Info().Int("spots", len(spots)).Int("statuses", len(statuses)).Msg("Indexing completed successfully")
}

// index загружает места, затем наблюдения: наблюдения ссылаются на места.
func index(ctx context.Context, store storage.Store, spots []models.Spot, statuses []models.StatusObservation) error {
	logging.Info().Int("count", len(spots)).Msg("Indexing spots")
	if err := store.UpsertSpots(ctx, spots); err != nil {
		return fmt.Errorf("error indexing spots: %w", err)
	}

	for _, obs := range statuses {
		if _, err := store.AppendStatus(ctx, obs); err != nil {
			return fmt.Errorf("error appending status %s for spot %s: %w", obs.ID, obs.SpotID, err)
		}
	}
	return nil
}

// loadSpots читает JSON массив мест и проверяет каждое из них.
func loadSpots(path string) ([]models.Spot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var spots []models.Spot
	if err := json.Unmarshal(data, &spots); err != nil {
		return nil, fmt.Errorf("failed to parse spots: %w", err)
	}

	seen := make(map[string]bool, len(spots))
	for i, s := range spots {
		if err := storage.ValidateSpot(s); err != nil {
			return nil, fmt.Errorf("spot #%d: %w", i, err)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("spot #%d: duplicate id %q", i, s.ID)
		}
		seen[s.ID] = true
	}
	return spots, nil
}

// loadStatuses читает JSON массив наблюдений. Пустые id генерируются,
// отсутствующие source и updatedAt заменяются на user и now.
func loadStatuses(path string, now time.Time) ([]models.StatusObservation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var statuses []models.StatusObservation
	if err := json.Unmarshal(data, &statuses); err != nil {
		return nil, fmt.Errorf("failed to parse statuses: %w", err)
	}

	for i := range statuses {
		obs := &statuses[i]
		if obs.ID == "" {
			obs.ID = uuid.New().String()
		}
		if obs.Source == "" {
			obs.Source = models.SourceUser
		}
		if obs.UpdatedAt.IsZero() {
			obs.UpdatedAt = now
		}
		if obs.OccupancyPercent == nil && obs.NoiseLevel == nil {
			return nil, fmt.Errorf("status #%d: at least one of occupancyPercent or noiseLevel is required", i)
		}
		if p := obs.OccupancyPercent; p != nil && (*p < 0 || *p > 100) {
			return nil, fmt.Errorf("status #%d: occupancyPercent %v is outside 0-100", i, *p)
		}
		if err := storage.ValidateObservation(*obs); err != nil {
			return nil, fmt.Errorf("status #%d: %w", i, err)
		}
	}
	return statuses, nil
}
