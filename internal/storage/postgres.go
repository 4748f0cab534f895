package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/akozadaev/study_spots_recommender/internal/models"
	"github.com/akozadaev/study_spots_recommender/migrations"
)

// Код ошибки PostgreSQL при нарушении внешнего ключа.
const foreignKeyViolation = "23503"

// PostgresStorage хранит справочник мест и журнал наблюдений в PostgreSQL.
type PostgresStorage struct {
	db *sql.DB // Подключение к базе данных PostgreSQL
}

// NewPostgresStorage создает новый экземпляр PostgresStorage и устанавливает подключение к БД.
// DSN должен быть в формате: "host=... port=... user=... password=... dbname=... sslmode=..."
func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStorage{db: db}, nil
}

// Close закрывает подключение к базе данных PostgreSQL.
func (ps *PostgresStorage) Close() error {
	return ps.db.Close()
}

// EnsureSchema создает таблицы и индексы, если их еще нет.
func (ps *PostgresStorage) EnsureSchema(ctx context.Context) error {
	if _, err := ps.db.ExecContext(ctx, migrations.PostgresSchema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// ListSpots возвращает все учебные места, отсортированные по имени.
func (ps *PostgresStorage) ListSpots(ctx context.Context) ([]models.Spot, error) {
	query := `SELECT id, name, building, floor, lat, lng FROM study_spots ORDER BY name, id`

	rows, err := ps.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query spots: %w", err)
	}
	defer rows.Close()

	var spots []models.Spot
	for rows.Next() {
		var s models.Spot
		if err := rows.Scan(&s.ID, &s.Name, &s.Building, &s.Floor, &s.Lat, &s.Lng); err != nil {
			return nil, fmt.Errorf("failed to scan spot: %w", err)
		}
		spots = append(spots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return spots, nil
}

// GetSpot возвращает учебное место по идентификатору.
func (ps *PostgresStorage) GetSpot(ctx context.Context, id string) (models.Spot, error) {
	query := `SELECT id, name, building, floor, lat, lng FROM study_spots WHERE id = $1`

	var s models.Spot
	err := ps.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Name, &s.Building, &s.Floor, &s.Lat, &s.Lng)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Spot{}, ErrSpotNotFound
	}
	if err != nil {
		return models.Spot{}, fmt.Errorf("failed to query spot: %w", err)
	}
	return s, nil
}

// UpsertSpots добавляет или обновляет учебные места в одной транзакции.
func (ps *PostgresStorage) UpsertSpots(ctx context.Context, spots []models.Spot) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO study_spots (id, name, building, floor, lat, lng)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			building = EXCLUDED.building,
			floor = EXCLUDED.floor,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			updated_at = now()`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, s := range spots {
		if _, err := stmt.ExecContext(ctx, s.ID, s.Name, s.Building, s.Floor, s.Lat, s.Lng); err != nil {
			return fmt.Errorf("failed to upsert spot %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit spots: %w", err)
	}
	return nil
}

// LatestStatusBySpot возвращает самое свежее наблюдение по каждому месту.
// При равных updated_at побеждает вставленное позже (seq).
func (ps *PostgresStorage) LatestStatusBySpot(ctx context.Context, spotIDs []string) (map[string]models.StatusObservation, error) {
	latest := make(map[string]models.StatusObservation, len(spotIDs))
	if len(spotIDs) == 0 {
		return latest, nil
	}

	query := `
		SELECT DISTINCT ON (spot_id) id, spot_id, occupancy_percent, noise_level, source, updated_at
		FROM spot_status
		WHERE spot_id = ANY($1)
		ORDER BY spot_id, updated_at DESC, seq DESC`

	rows, err := ps.db.QueryContext(ctx, query, pq.Array(spotIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query statuses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		latest[obs.SpotID] = obs
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return latest, nil
}

// AppendStatus добавляет наблюдение в журнал spot_status.
// Если места не существует, возвращает ErrSpotNotFound.
func (ps *PostgresStorage) AppendStatus(ctx context.Context, obs models.StatusObservation) (models.StatusObservation, error) {
	query := `
		INSERT INTO spot_status (id, spot_id, occupancy_percent, noise_level, source, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, spot_id, occupancy_percent, noise_level, source, updated_at`

	var noise sql.NullString
	if obs.NoiseLevel != nil {
		noise = sql.NullString{String: string(*obs.NoiseLevel), Valid: true}
	}
	var occupancy sql.NullFloat64
	if obs.OccupancyPercent != nil {
		occupancy = sql.NullFloat64{Float64: *obs.OccupancyPercent, Valid: true}
	}

	row := ps.db.QueryRowContext(ctx, query, obs.ID, obs.SpotID, occupancy, noise, string(obs.Source), obs.UpdatedAt)
	stored, err := scanObservation(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return models.StatusObservation{}, ErrSpotNotFound
		}
		return models.StatusObservation{}, fmt.Errorf("failed to insert status: %w", err)
	}
	return stored, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanObservation(row rowScanner) (models.StatusObservation, error) {
	var (
		obs       models.StatusObservation
		occupancy sql.NullFloat64
		noise     sql.NullString
		source    string
	)
	if err := row.Scan(&obs.ID, &obs.SpotID, &occupancy, &noise, &source, &obs.UpdatedAt); err != nil {
		return models.StatusObservation{}, fmt.Errorf("failed to scan status: %w", err)
	}
	if occupancy.Valid {
		v := occupancy.Float64
		obs.OccupancyPercent = &v
	}
	if noise.Valid {
		level := models.NoiseLevel(noise.String)
		obs.NoiseLevel = &level
	}
	obs.Source = models.Source(source)
	obs.UpdatedAt = obs.UpdatedAt.UTC()
	return obs, nil
}
