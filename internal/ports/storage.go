// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

import "context"

// RecordSource yields metadata records that still need a location.
// The SQL adapter reads them from merged_dataset_metadata; file readers
// implement the same shape for JSONL/CSV batches.
type RecordSource interface {
	// Fetch returns up to limit pending records. limit <= 0 means no limit.
	Fetch(ctx context.Context, limit int) ([]Record, error)
}

// ResultSink persists resolved locations.
//
// Save must be transactional per call: either every result of the batch is
// stored or none is. Saving a result for an identifier that already has one
// overwrites it.
type ResultSink interface {
	Save(ctx context.Context, results []Result) error
}

// Result is the per-record output handed to persistence: the enriched
// location plus the audit fields explaining how it was found.
type Result struct {
	Identifier string    `json:"dataset_identifier"`
	Language   Languages `json:"dataset_language,omitempty"`
	Publisher  string    `json:"dataset_publisher_name"`

	LabelID  string `json:"label_id"`
	Location string `json:"dataset_location"`
	District string `json:"dataset_location_district"`
	Canton   string `json:"dataset_location_canton"`
	Country  string `json:"dataset_location_country"`

	MatchField *string `json:"match_field"`
	MatchLevel *int    `json:"match_level"`
	MatchRule  string  `json:"match_rule"`
}
