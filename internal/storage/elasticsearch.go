package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/akozadaev/study_spots_recommender/internal/models"
	"github.com/akozadaev/study_spots_recommender/migrations"
)

// maxSpots ограничивает размер выборки справочника мест (index.max_result_window по умолчанию).
const maxSpots = 10000

// ElasticsearchStorage хранит места и наблюдения в Elasticsearch/OpenSearch.
// Поисковые запросы идут прямыми HTTP вызовами для совместимости с OpenSearch,
// а индексация документов и управление индексами идут через официальный клиент.
type ElasticsearchStorage struct {
	client      *elasticsearch.Client // Официальный клиент Elasticsearch
	spotsIndex  string                // Индекс учебных мест
	statusIndex string                // Индекс наблюдений (только добавление)
	httpClient  *http.Client          // HTTP клиент для прямых запросов
	baseURL     string                // Базовый URL Elasticsearch/OpenSearch
}

// NewElasticsearchStorage создает хранилище поверх клиента и базового URL кластера.
func NewElasticsearchStorage(client *elasticsearch.Client, baseURL, spotsIndex, statusIndex string) *ElasticsearchStorage {
	return &ElasticsearchStorage{
		client:      client,
		spotsIndex:  spotsIndex,
		statusIndex: statusIndex,
		httpClient:  &http.Client{},
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

type geoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type spotDocument struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Building  string    `json:"building,omitempty"`
	Floor     string    `json:"floor,omitempty"`
	Location  geoPoint  `json:"location"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d spotDocument) spot() models.Spot {
	return models.Spot{
		ID:       d.ID,
		Name:     d.Name,
		Building: d.Building,
		Floor:    d.Floor,
		Lat:      d.Location.Lat,
		Lng:      d.Location.Lon,
	}
}

type statusDocument struct {
	ID               string    `json:"id"`
	SpotID           string    `json:"spot_id"`
	OccupancyPercent *float64  `json:"occupancy_percent"`
	NoiseLevel       *string   `json:"noise_level"`
	Source           string    `json:"source"`
	UpdatedAt        time.Time `json:"updated_at"`
	Seq              int64     `json:"seq"` // Порядок поступления для разрешения равных updated_at
}

func (d statusDocument) observation() models.StatusObservation {
	obs := models.StatusObservation{
		ID:               d.ID,
		SpotID:           d.SpotID,
		OccupancyPercent: d.OccupancyPercent,
		Source:           models.Source(d.Source),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}
	if d.NoiseLevel != nil {
		level := models.NoiseLevel(*d.NoiseLevel)
		obs.NoiseLevel = &level
	}
	return obs
}

type searchResult[T any] struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source T `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// CreateIndices создает индексы мест и наблюдений с маппингами из migrations.
// Существующие индексы не изменяются.
func (es *ElasticsearchStorage) CreateIndices(ctx context.Context) error {
	if err := es.createIndex(ctx, es.spotsIndex, migrations.SpotsMapping); err != nil {
		return err
	}
	return es.createIndex(ctx, es.statusIndex, migrations.StatusMapping)
}

func (es *ElasticsearchStorage) createIndex(ctx context.Context, index, mappingJSON string) error {
	res, err := es.client.Indices.Exists([]string{index}, es.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index %s existence: %w", index, err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = es.client.Indices.Create(
		index,
		es.client.Indices.Create.WithBody(strings.NewReader(mappingJSON)),
		es.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("error creating index %s: %s", index, string(body))
	}
	return nil
}

// ListSpots возвращает все учебные места, отсортированные по имени.
func (es *ElasticsearchStorage) ListSpots(ctx context.Context) ([]models.Spot, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort": []map[string]interface{}{
			{"name.raw": map[string]interface{}{"order": "asc"}},
			{"id": map[string]interface{}{"order": "asc"}},
		},
		"size":             maxSpots,
		"track_total_hits": true,
	}

	var result searchResult[spotDocument]
	if err := es.search(ctx, es.spotsIndex, query, &result); err != nil {
		return nil, fmt.Errorf("failed to list spots: %w", err)
	}
	// Усеченный справочник исказил бы ранжирование, поэтому это ошибка.
	if total := result.Hits.Total.Value; total > len(result.Hits.Hits) {
		return nil, fmt.Errorf("%w: %d spots, limit %d", ErrCatalogTooLarge, total, maxSpots)
	}

	spots := make([]models.Spot, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		spots = append(spots, hit.Source.spot())
	}
	return spots, nil
}

// GetSpot получает место по его идентификатору.
func (es *ElasticsearchStorage) GetSpot(ctx context.Context, id string) (models.Spot, error) {
	endpoint := fmt.Sprintf("%s/%s/_doc/%s", es.baseURL, es.spotsIndex, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Spot{}, fmt.Errorf("failed to create request: %w", err)
	}

	res, err := es.httpClient.Do(req)
	if err != nil {
		return models.Spot{}, fmt.Errorf("failed to get spot: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return models.Spot{}, ErrSpotNotFound
	}
	if res.StatusCode >= 400 {
		body, _ := io.ReadAll(res.Body)
		return models.Spot{}, fmt.Errorf("error getting spot: status %d, body: %s", res.StatusCode, string(body))
	}

	var result struct {
		Found  bool         `json:"found"`
		Source spotDocument `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return models.Spot{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if !result.Found {
		return models.Spot{}, ErrSpotNotFound
	}
	return result.Source.spot(), nil
}

// UpsertSpots индексирует места одним Bulk запросом.
func (es *ElasticsearchStorage) UpsertSpots(ctx context.Context, spots []models.Spot) error {
	if len(spots) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	now := time.Now().UTC()
	for _, s := range spots {
		meta := map[string]interface{}{
			"index": map[string]interface{}{"_index": es.spotsIndex, "_id": s.ID},
		}
		doc := spotDocument{
			ID:        s.ID,
			Name:      s.Name,
			Building:  s.Building,
			Floor:     s.Floor,
			Location:  geoPoint{Lat: s.Lat, Lon: s.Lng},
			UpdatedAt: now,
		}
		if err := enc.Encode(meta); err != nil {
			return fmt.Errorf("failed to encode meta: %w", err)
		}
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode spot: %w", err)
		}
	}

	endpoint := fmt.Sprintf("%s/_bulk?refresh=true", es.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-ndjson")

	res, err := es.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to bulk index: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("error bulk indexing: status %d, body: %s", res.StatusCode, string(body))
	}

	var result struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode bulk response: %w", err)
	}
	if result.Errors {
		return fmt.Errorf("bulk indexing reported item errors")
	}
	return nil
}

// LatestStatusBySpot выбирает последнее наблюдение по каждому месту через collapse по spot_id.
func (es *ElasticsearchStorage) LatestStatusBySpot(ctx context.Context, spotIDs []string) (map[string]models.StatusObservation, error) {
	latest := make(map[string]models.StatusObservation, len(spotIDs))
	if len(spotIDs) == 0 {
		return latest, nil
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"terms": map[string]interface{}{"spot_id": spotIDs},
		},
		"collapse": map[string]interface{}{"field": "spot_id"},
		"sort": []map[string]interface{}{
			{"updated_at": map[string]interface{}{"order": "desc"}},
			{"seq": map[string]interface{}{"order": "desc"}},
		},
		"size": len(spotIDs),
	}

	var result searchResult[statusDocument]
	if err := es.search(ctx, es.statusIndex, query, &result); err != nil {
		return nil, fmt.Errorf("failed to query statuses: %w", err)
	}

	for _, hit := range result.Hits.Hits {
		obs := hit.Source.observation()
		if _, seen := latest[obs.SpotID]; !seen {
			latest[obs.SpotID] = obs
		}
	}
	return latest, nil
}

// AppendStatus индексирует новое наблюдение. Место должно существовать.
func (es *ElasticsearchStorage) AppendStatus(ctx context.Context, obs models.StatusObservation) (models.StatusObservation, error) {
	if _, err := es.GetSpot(ctx, obs.SpotID); err != nil {
		return models.StatusObservation{}, err
	}

	doc := statusDocument{
		ID:               obs.ID,
		SpotID:           obs.SpotID,
		OccupancyPercent: obs.OccupancyPercent,
		Source:           string(obs.Source),
		UpdatedAt:        obs.UpdatedAt,
		Seq:              time.Now().UnixNano(),
	}
	if obs.NoiseLevel != nil {
		level := string(*obs.NoiseLevel)
		doc.NoiseLevel = &level
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return models.StatusObservation{}, fmt.Errorf("failed to marshal status: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      es.statusIndex,
		DocumentID: obs.ID,
		Body:       bytes.NewReader(body),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, es.client)
	if err != nil {
		return models.StatusObservation{}, fmt.Errorf("failed to index status: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return models.StatusObservation{}, fmt.Errorf("error indexing status: %s", string(body))
	}
	return obs, nil
}

// Close освобождает простаивающие соединения HTTP клиента.
func (es *ElasticsearchStorage) Close() error {
	es.httpClient.CloseIdleConnections()
	return nil
}

func (es *ElasticsearchStorage) search(ctx context.Context, index string, query map[string]interface{}, out interface{}) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return fmt.Errorf("failed to encode query: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/_search", es.baseURL, index)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := es.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to search: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("error searching: status %d, body: %s", res.StatusCode, string(body))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
