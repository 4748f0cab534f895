// Package migrations встраивает схему PostgreSQL и маппинги индексов Elasticsearch в бинарник.
package migrations

import _ "embed"

//go:embed 001_init.sql
var PostgresSchema string

//go:embed elasticsearch_spots_mapping.json
var SpotsMapping string

//go:embed elasticsearch_status_mapping.json
var StatusMapping string
