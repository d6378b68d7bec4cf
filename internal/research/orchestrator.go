package research

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mohammad-safakhou/topicradar/internal/aggregate"
	"github.com/mohammad-safakhou/topicradar/internal/helpers"
	"github.com/mohammad-safakhou/topicradar/internal/search"
	"github.com/mohammad-safakhou/topicradar/internal/telemetry"
	"github.com/mohammad-safakhou/topicradar/models"
)

// HistoryStore is the persistence surface the orchestrator needs. A nil store
// disables persistence; runs then complete without a history_id event.
type HistoryStore interface {
	Save(ctx context.Context, topic, lens string, summary models.TopicSummary) (int64, error)
}

// SearchReport is the aggregated, non-streaming answer for a query: the raw
// narrative plus results grouped into intent-ordered sections.
type SearchReport struct {
	Query     string              `json:"query"`
	Intent    search.Intent       `json:"intent"`
	TimeRange string              `json:"time_range,omitempty"`
	Overview  string              `json:"overview"`
	Sections  []aggregate.Section `json:"sections"`
	Total     int                 `json:"total_results"`
}

// Orchestrator drives the two-pass research flow: a streaming
// search-augmented pass followed by a schema-constrained structuring pass,
// with bounded retries on transient upstream failures.
type Orchestrator struct {
	provider   Provider
	store      HistoryStore
	logger     *log.Logger
	metrics    *telemetry.Metrics
	timeout    time.Duration
	maxRetries uint64
	maxResults int
}

func NewOrchestrator(provider Provider, store HistoryStore, metrics *telemetry.Metrics, logger *log.Logger, timeout time.Duration, maxRetries uint64, maxResults int) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	if maxResults == 0 {
		maxResults = 20
	}
	return &Orchestrator{
		provider:   provider,
		store:      store,
		logger:     logger,
		metrics:    metrics,
		timeout:    timeout,
		maxRetries: maxRetries,
		maxResults: maxResults,
	}
}

// Run executes a research run and returns a channel of progress events. The
// channel always ends with a done event and is closed afterwards, unless ctx
// is cancelled first, in which case the run stops silently and nothing is
// persisted. lens selects the research style; leave it empty to detect one
// from the topic.
func (o *Orchestrator) Run(ctx context.Context, topic string, lens search.Intent) <-chan StreamEvent {
	out := make(chan StreamEvent)
	go func() {
		defer close(out)
		ctx, cancel := context.WithTimeout(ctx, o.timeout)
		defer cancel()

		emit := func(ev StreamEvent) bool {
			select {
			case out <- ev:
				if o.metrics != nil {
					o.metrics.Observe(string(ev.Type))
				}
				return true
			case <-ctx.Done():
				return false
			}
		}
		o.run(ctx, topic, lens, emit)
	}()
	return out
}

func (o *Orchestrator) run(ctx context.Context, topic string, lens search.Intent, emit func(StreamEvent) bool) {
	started := time.Now()
	if o.metrics != nil {
		o.metrics.RunsStarted.Inc()
	}
	fail := func(err error) {
		if o.metrics != nil {
			o.metrics.RunsFailed.Inc()
		}
		o.logger.Printf("[research] run failed topic=%q: %v", topic, err)
		if emit(ErrorEvent(sanitize(err))) {
			emit(DoneEvent())
		}
	}

	topic = strings.TrimSpace(topic)
	if topic == "" {
		fail(errors.New("topic must not be empty"))
		return
	}
	intent := lens
	if intent == "" {
		intent = search.DetectIntent(topic)
	}
	timeRange := search.ParseTimeRange(topic)
	o.logger.Printf("[research] run start topic=%q intent=%s time_range=%q", topic, intent, timeRange)

	if !emit(StatusEvent("Researching topic...")) {
		return
	}

	// Pass 1: search-augmented generation. Transient upstream errors are
	// retried only while nothing has been relayed yet; once the client has
	// seen tokens a restart would duplicate output.
	var (
		raw     string
		sources []models.SourceRef
		relayed bool
		gone    bool
	)
	pass1 := func() error {
		r, s, err := o.provider.ResearchStream(ctx, topic, intent, timeRange, func(ev StreamEvent) {
			relayed = true
			if !emit(ev) {
				gone = true
			}
		})
		if err != nil {
			if relayed || !IsTransient(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		raw, sources = r, s
		return nil
	}
	if err := backoff.Retry(pass1, o.newBackOff(ctx)); err != nil {
		if ctx.Err() != nil || gone {
			return
		}
		fail(err)
		return
	}
	if gone || ctx.Err() != nil {
		return
	}

	// Pass 2: schema-constrained structuring of the pass-1 text. No status
	// event here: statuses precede the token stream in the event sequence.
	o.logger.Printf("[research] structuring topic=%q tokens=%d sources=%d", topic, len(raw), len(sources))
	var summary models.TopicSummary
	pass2 := func() error {
		s, err := o.provider.Structure(ctx, topic, raw, sources)
		if err != nil {
			if !IsTransient(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		summary = s
		return nil
	}
	if err := backoff.Retry(pass2, o.newBackOff(ctx)); err != nil {
		if ctx.Err() != nil {
			return
		}
		fail(err)
		return
	}

	if !emit(StructuredEvent(summary)) {
		return
	}
	if ctx.Err() != nil {
		return
	}

	if o.store != nil {
		id, err := o.store.Save(ctx, topic, string(intent), summary)
		if err != nil {
			// The summary already reached the client; a failed save is a
			// warning, not a run failure.
			o.logger.Printf("[research] history save failed topic=%q: %v", topic, err)
			if !emit(ErrorEvent("failed to save this run to history")) {
				return
			}
		} else if !emit(HistoryIDEvent(id)) {
			return
		}
	}

	if o.metrics != nil {
		o.metrics.RunsCompleted.Inc()
		o.metrics.RunDuration.Observe(time.Since(started).Seconds())
	}
	o.logger.Printf("[research] run complete topic=%q sources=%d elapsed=%s", topic, len(summary.Sources), time.Since(started).Round(time.Millisecond))
	emit(DoneEvent())
}

// Search runs the single aggregated variant: one search-augmented pass with
// nothing relayed, results deduplicated, classified and grouped into
// intent-ordered sections.
func (o *Orchestrator) Search(ctx context.Context, query string, lens search.Intent) (SearchReport, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchReport{}, errors.New("query must not be empty")
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	intent := lens
	if intent == "" {
		intent = search.DetectIntent(query)
	}
	timeRange := search.ParseTimeRange(query)

	var (
		raw     string
		sources []models.SourceRef
	)
	op := func() error {
		r, s, err := o.provider.ResearchStream(ctx, query, intent, timeRange, func(StreamEvent) {})
		if err != nil {
			if !IsTransient(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		raw, sources = r, s
		return nil
	}
	if err := backoff.Retry(op, o.newBackOff(ctx)); err != nil {
		return SearchReport{}, err
	}

	results := make([]models.SearchResult, 0, len(sources))
	for _, src := range sources {
		results = append(results, models.SearchResult{
			Title:         src.Title,
			URL:           src.URL,
			Source:        helpers.Hostname(src.URL),
			PublishedDate: src.Snippet,
		})
	}
	// Cap after deduplication so duplicate URLs never consume result slots.
	unique := aggregate.Deduplicate(results)
	if len(unique) > o.maxResults {
		unique = unique[:o.maxResults]
	}
	sections := aggregate.Aggregate(unique, intent)
	total := 0
	for _, sec := range sections {
		total += len(sec.Results)
	}
	o.logger.Printf("[research] search complete query=%q intent=%s results=%d", query, intent, total)
	return SearchReport{
		Query:     query,
		Intent:    intent,
		TimeRange: timeRange,
		Overview:  raw,
		Sections:  sections,
		Total:     total,
	}, nil
}

func (o *Orchestrator) newBackOff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 10 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(bo, o.maxRetries), ctx)
}

func sanitize(err error) string {
	var ue *UpstreamError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "research timed out, please try a narrower topic"
	case errors.As(err, &ue) && ue.Transient:
		return "research provider is temporarily unavailable, please try again"
	case errors.As(err, &ue) && ue.Status != 0:
		return "research provider rejected the request"
	case errors.As(err, &ue):
		return ue.Message
	}
	return err.Error()
}
