package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

const ProductSchemaTextV1 = `{
	"type": "record",
	"namespace": "catalog",
	"name": "product",
	"fields": [
		{"name": "id", "type": "string"},
		{"name": "name", "type": "string"},
		{"name": "material", "type": "string"},
		{"name": "price", "type": "long"},
		{"name": "impact_score", "type": "int"},
		{"name": "is_new", "type": "boolean"},
		{"name": "is_limited", "type": "boolean"}
	]
}`

const QueryEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "catalog",
	"name": "query_event",
	"fields": [
		{"name": "query_id", "type": "string"},
		{"name": "materials", "type": {"type": "array", "items": "string"}},
		{"name": "max_price", "type": "long"},
		{"name": "impact_scores", "type": {"type": "array", "items": "int"}},
		{"name": "sort", "type": "string"},
		{"name": "visible", "type": "long"},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

type ProductV1 struct {
	ID          string `avro:"id"`
	Name        string `avro:"name"`
	Material    string `avro:"material"`
	Price       int64  `avro:"price"`
	ImpactScore int32  `avro:"impact_score"`
	IsNew       bool   `avro:"is_new"`
	IsLimited   bool   `avro:"is_limited"`
}

type QueryEventV1 struct {
	QueryID      string    `avro:"query_id"`
	Materials    []string  `avro:"materials"`
	MaxPrice     int64     `avro:"max_price"`
	ImpactScores []int32   `avro:"impact_scores"`
	Sort         string    `avro:"sort"`
	Visible      int64     `avro:"visible"`
	OccurredAt   time.Time `avro:"occurred_at"`
}

// ProductV1Avro returns the parsed product schema. It panics on a malformed
// schema text.
func ProductV1Avro() avro.Schema {
	return avro.MustParse(ProductSchemaTextV1)
}

// QueryEventV1Avro returns the parsed query event schema. It panics on a
// malformed schema text.
func QueryEventV1Avro() avro.Schema {
	return avro.MustParse(QueryEventSchemaTextV1)
}
