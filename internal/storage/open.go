package storage

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/akozadaev/study_spots_recommender/internal/logging"
)

// Имена хранилищ для OpenOptions.Backend.
const (
	BackendPostgres      = "postgres"
	BackendElasticsearch = "elasticsearch"
	BackendMemory        = "memory"
)

// OpenOptions описывает подключение к хранилищу.
type OpenOptions struct {
	Backend          string
	PostgresDSN      string
	ElasticsearchURL string
	SpotsIndex       string
	StatusIndex      string
}

// Open подключается к выбранному хранилищу и готовит схему или индексы.
func Open(ctx context.Context, opts OpenOptions) (Store, error) {
	switch opts.Backend {
	case BackendPostgres:
		ps, err := NewPostgresStorage(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := ps.EnsureSchema(ctx); err != nil {
			ps.Close()
			return nil, err
		}
		logging.Info().Msg("Connected to PostgreSQL")
		return ps, nil

	case BackendElasticsearch:
		// Мета-заголовки клиента отключены для совместимости с OpenSearch.
		client, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses:         []string{opts.ElasticsearchURL},
			DisableMetaHeader: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
		}
		es := NewElasticsearchStorage(client, opts.ElasticsearchURL, opts.SpotsIndex, opts.StatusIndex)
		if err := es.CreateIndices(ctx); err != nil {
			return nil, err
		}
		logging.Info().Str("url", opts.ElasticsearchURL).Msg("Elasticsearch/OpenSearch indices created/verified")
		return es, nil

	case BackendMemory:
		logging.Warn().Msg("Using in-memory store; data is lost on restart")
		return NewMemoryStorage(), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
