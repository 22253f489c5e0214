package search

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/grocerpos/terminal/internal/domain/catalog"
	"github.com/grocerpos/terminal/internal/infrastructure/metrics"
	"github.com/grocerpos/terminal/internal/pkg/logging"
)

// Searcher is the catalog lookup slice of the backend client.
type Searcher interface {
	SearchProducts(ctx context.Context, query string) ([]catalog.Product, error)
}

// Results receives the outcome of a committed query. It is never called for
// a query that was superseded before or after its network round trip.
type Results func(query string, products []catalog.Product, err error)

// Service debounces catalog lookups: a query only reaches the network after
// the input has been quiet for the debounce interval, and only the latest
// query's response is ever committed. Each query carries a sequence number;
// a response whose number is no longer current is discarded, so a slow early
// response cannot overwrite a newer query's results.
type Service struct {
	mu       sync.Mutex
	seq      uint64
	timer    *time.Timer
	cancel   context.CancelFunc
	searcher Searcher
	debounce time.Duration
	deliver  Results
	metrics  *metrics.Metrics
}

func NewService(searcher Searcher, debounce time.Duration, deliver Results, m *metrics.Metrics) *Service {
	return &Service{
		searcher: searcher,
		debounce: debounce,
		deliver:  deliver,
		metrics:  m,
	}
}

// Query supersedes any pending query. An empty query delivers an empty
// result set immediately, with no network call.
func (s *Service) Query(ctx context.Context, query string) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	if query == "" {
		s.mu.Unlock()
		s.deliver(query, nil, nil)
		return
	}

	s.timer = time.AfterFunc(s.debounce, func() {
		s.run(ctx, seq, query)
	})
	s.mu.Unlock()
}

// Close stops any pending dispatch.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Service) run(ctx context.Context, seq uint64, query string) {
	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return
	}
	reqCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	products, err := s.searcher.SearchProducts(reqCtx, query)
	cancel()

	s.mu.Lock()
	stale := seq != s.seq
	if !stale && s.cancel != nil {
		s.cancel = nil
	}
	s.mu.Unlock()

	if stale {
		s.observe("superseded")
		logging.FromContext(ctx).Debug("search_response_discarded",
			zap.String("query", query),
		)
		return
	}

	if err != nil {
		s.observe("error")
	} else {
		s.observe("success")
	}
	s.deliver(query, products, err)
}

func (s *Service) observe(outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.Searches.WithLabelValues(outcome).Inc()
}
