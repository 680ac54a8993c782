package health

import (
	"fmt"
	"time"

	"github.com/clearcart/ordersearch/internal/domain/indexing"
)

// Status represents the aggregated index health.
type Status string

// Health status values.
const (
	// Healthy indicates a fresh, populated index with a low error rate.
	Healthy Status = "healthy"
	// Degraded indicates one or two detected issues.
	Degraded Status = "degraded"
	// Unhealthy indicates three or more detected issues.
	Unhealthy Status = "unhealthy"
)

// Thresholds for individual health issues.
const (
	staleAfter      = time.Hour
	maxErrorRate    = 0.10
	slowAvgIndexMs  = 500.0
	degradedMaxHits = 2
)

// Report aggregates the health verdict with the issues behind it.
type Report struct {
	Status Status         `json:"status"`
	Issues []string       `json:"issues,omitempty"`
	Stats  indexing.Stats `json:"stats"`
}

// Service derives a health verdict from index statistics.
type Service struct {
	stats StatsProvider
}

// New creates a health service.
func New(stats StatsProvider) *Service {
	return &Service{stats: stats}
}

// Check inspects the index stats for known issues: an empty index, no
// update within the last hour, an error rate above 10%, and a slow average
// index time.
func (s *Service) Check() Report {
	st := s.stats.Stats()

	var issues []string
	if st.IndexedDocuments == 0 {
		issues = append(issues, "index is empty")
	}
	if st.LastUpdateTime.IsZero() || time.Since(st.LastUpdateTime) > staleAfter {
		issues = append(issues, "index has not been updated in the last hour")
	}
	if rate := st.ErrorRate(); rate > maxErrorRate {
		issues = append(issues, fmt.Sprintf("index error rate %.0f%% exceeds %.0f%%", rate*100, maxErrorRate*100))
	}
	if st.AverageIndexTimeMs > slowAvgIndexMs {
		issues = append(issues, fmt.Sprintf("average index time %.0fms exceeds %.0fms", st.AverageIndexTimeMs, slowAvgIndexMs))
	}

	status := Healthy
	switch {
	case len(issues) > degradedMaxHits:
		status = Unhealthy
	case len(issues) > 0:
		status = Degraded
	}

	return Report{Status: status, Issues: issues, Stats: st}
}
