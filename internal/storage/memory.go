package storage

import (
	"context"
	"sync"

	"github.com/akozadaev/study_spots_recommender/internal/models"
)

// MemoryStorage хранит места и наблюдения в памяти процесса.
// Используется в тестах и при STORE_BACKEND=memory.
type MemoryStorage struct {
	mu       sync.RWMutex
	spots    []models.Spot
	position map[string]int
	statuses []models.StatusObservation
}

// NewMemoryStorage создает хранилище с начальным набором мест.
func NewMemoryStorage(spots ...models.Spot) *MemoryStorage {
	m := &MemoryStorage{position: make(map[string]int)}
	_ = m.UpsertSpots(context.Background(), spots)
	return m
}

// ListSpots возвращает места в порядке добавления.
func (m *MemoryStorage) ListSpots(ctx context.Context) ([]models.Spot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Spot, len(m.spots))
	copy(out, m.spots)
	return out, nil
}

// GetSpot возвращает место по ID.
func (m *MemoryStorage) GetSpot(ctx context.Context, id string) (models.Spot, error) {
	if err := ctx.Err(); err != nil {
		return models.Spot{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.position[id]
	if !ok {
		return models.Spot{}, ErrSpotNotFound
	}
	return m.spots[i], nil
}

// UpsertSpots добавляет новые места и заменяет существующие, сохраняя их позицию.
func (m *MemoryStorage) UpsertSpots(ctx context.Context, spots []models.Spot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range spots {
		if i, ok := m.position[s.ID]; ok {
			m.spots[i] = s
			continue
		}
		m.position[s.ID] = len(m.spots)
		m.spots = append(m.spots, s)
	}
	return nil
}

// LatestStatusBySpot выбирает наблюдение с наибольшим UpdatedAt;
// при равных временах побеждает добавленное позже.
func (m *MemoryStorage) LatestStatusBySpot(ctx context.Context, spotIDs []string) (map[string]models.StatusObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wanted := make(map[string]struct{}, len(spotIDs))
	for _, id := range spotIDs {
		wanted[id] = struct{}{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	latest := make(map[string]models.StatusObservation)
	for _, obs := range m.statuses {
		if _, ok := wanted[obs.SpotID]; !ok {
			continue
		}
		if cur, ok := latest[obs.SpotID]; ok && obs.UpdatedAt.Before(cur.UpdatedAt) {
			continue
		}
		latest[obs.SpotID] = obs
	}
	return latest, nil
}

// AppendStatus добавляет наблюдение для существующего места.
func (m *MemoryStorage) AppendStatus(ctx context.Context, obs models.StatusObservation) (models.StatusObservation, error) {
	if err := ctx.Err(); err != nil {
		return models.StatusObservation{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.position[obs.SpotID]; !ok {
		return models.StatusObservation{}, ErrSpotNotFound
	}
	m.statuses = append(m.statuses, obs)
	return obs, nil
}

// Close ничего не делает; нужен для соответствия Store.
func (m *MemoryStorage) Close() error {
	return nil
}
