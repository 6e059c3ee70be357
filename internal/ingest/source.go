// Package ingest defines the data-source side of the pipeline: collaborators
// that deliver unordered raw records for one logical stream. Encoding and
// storage are the collaborator's concern; the core only ever sees records.
package ingest

import (
	"context"

	"packline-analytics/internal/timeseries"
)

// Source loads the full raw batch of one logical stream. Records may arrive
// in any order and carry fields the target schema does not declare; the
// normalizer sorts and projects them.
type Source interface {
	Load(ctx context.Context) ([]timeseries.Record, error)
}
