package indexing

import "time"

// ItemStatus is the processing outcome of a single record in an indexing job.
type ItemStatus string

// Indexing item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Outcome is the result of indexing one source record. A failed item is
// recorded and counted; it never aborts the rest of the batch.
type Outcome struct {
	id     string
	status ItemStatus
	err    error
}

// NewOK creates a successful indexing outcome.
func NewOK(id string) Outcome { return Outcome{id: id, status: StatusOK} }

// NewError creates a failed indexing outcome.
func NewError(id string, err error) Outcome {
	return Outcome{id: id, status: StatusError, err: err}
}

// ID returns the source record identifier.
func (o Outcome) ID() string { return o.id }

// Status returns the processing outcome.
func (o Outcome) Status() ItemStatus { return o.status }

// Err returns the error, if any.
func (o Outcome) Err() error { return o.err }

// Stats reports the state of the search index as maintained by the
// indexing scheduler.
type Stats struct {
	TotalDocuments     int       `json:"total_documents"`
	IndexedDocuments   int       `json:"indexed_documents"`
	LastUpdateTime     time.Time `json:"last_update_time"`
	AverageIndexTimeMs float64   `json:"average_index_time_ms"`
	IndexErrors        int       `json:"index_errors"`
}

// ErrorRate is indexErrors over indexed documents (at least 1).
func (s Stats) ErrorRate() float64 {
	denom := s.IndexedDocuments
	if denom < 1 {
		denom = 1
	}
	return float64(s.IndexErrors) / float64(denom)
}
