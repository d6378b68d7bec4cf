package research

import (
	"context"
	"errors"
	"fmt"

	"github.com/mohammad-safakhou/topicradar/internal/search"
	"github.com/mohammad-safakhou/topicradar/models"
)

// Provider is the narrow surface the orchestrator needs from an LLM backend.
// ResearchStream performs search-augmented generation, invoking emit for each
// token and source as they arrive, and returns the accumulated answer text
// plus every source the provider consulted. Structure turns that raw answer
// into a schema-constrained summary. The two calls are never merged and never
// run concurrently for the same run.
type Provider interface {
	ResearchStream(ctx context.Context, topic string, intent search.Intent, timeRange string, emit func(StreamEvent)) (raw string, sources []models.SourceRef, err error)
	Structure(ctx context.Context, topic, raw string, sources []models.SourceRef) (models.TopicSummary, error)
}

// UpstreamError is a failure reported by the hosted model API. Transient
// failures (rate limits, 5xx, network drops) are retried with backoff;
// everything else aborts the run immediately.
type UpstreamError struct {
	Status    int
	Message   string
	Transient bool
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream status %d: %s", e.Status, e.Message)
	}
	return e.Message
}

// IsTransient reports whether err is worth retrying. Network-level errors
// without an HTTP status are treated as transient.
func IsTransient(err error) bool {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Transient
	}
	return false
}

func transientStatus(code int) bool {
	return code == 408 || code == 429 || code >= 500
}
