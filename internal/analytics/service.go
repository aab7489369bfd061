// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/pulse/internal/cache"
	"github.com/tomtom215/pulse/internal/config"
	"github.com/tomtom215/pulse/internal/kv"
	"github.com/tomtom215/pulse/internal/logging"
	"github.com/tomtom215/pulse/internal/models"
	"github.com/tomtom215/pulse/internal/search"
)

// RateWindows are the rolling windows reported by Rate, in minutes.
var RateWindows = []int{1, 5, 15, 60}

// ErrSearchDisabled is returned by the search reads when no search index
// is configured.
var ErrSearchDisabled = errors.New("search index is not enabled")

// CounterReader is the read side of the counter store.
type CounterReader interface {
	Get(ctx context.Context, key string) (int64, bool, error)
	MGet(ctx context.Context, keys ...string) (map[string]int64, error)
}

// EventStore is the read side of the durable store.
type EventStore interface {
	CountEvents(ctx context.Context) (int64, error)
	EventsByType(ctx context.Context, eventType string, pr models.PageRequest) (models.Page[models.EventRecord], error)
	EventsByUser(ctx context.Context, userID string, pr models.PageRequest) (models.Page[models.EventRecord], error)
	EventsBetween(ctx context.Context, from, to time.Time, pr models.PageRequest) (models.Page[models.EventRecord], error)
	EventTypeDistribution(ctx context.Context) ([]models.EventTypeCount, error)
	RegionDistribution(ctx context.Context) ([]models.RegionCount, error)
	SourceDistribution(ctx context.Context) ([]models.SourceCount, error)
	DeadLetters(ctx context.Context, pr models.PageRequest) (models.Page[models.DeadLetter], error)
}

// SearchReader is the read side of the search index.
type SearchReader interface {
	SearchByField(ctx context.Context, field, value string, pr models.PageRequest) (models.Page[models.EventDocument], error)
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the clock used for rate buckets and summary timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDistributionCacheTTL caches distribution results for ttl. Zero disables caching.
func WithDistributionCacheTTL(ttl time.Duration) Option {
	return func(s *Service) { s.distTTL = ttl }
}

// Service answers dashboard and query reads. Summary and rate reads come
// from the counter store only; paged queries and distributions come from
// the durable store; searches come from the search index.
type Service struct {
	counters CounterReader
	store    EventStore
	search   SearchReader
	paging   Paging
	now      func() time.Time
	distTTL  time.Duration

	typeDist   *cache.Cache[[]models.EventTypeCount]
	regionDist *cache.Cache[[]models.RegionCount]
	sourceDist *cache.Cache[[]models.SourceCount]
}

// NewService creates a read service. index may be nil when the search
// index is disabled.
func NewService(counters CounterReader, store EventStore, index SearchReader, api *config.APIConfig, opts ...Option) *Service {
	s := &Service{
		counters: counters,
		store:    store,
		search:   index,
		paging:   PagingFrom(api),
		now:      time.Now,
		distTTL:  api.DistributionCacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.distTTL > 0 {
		s.typeDist = cache.New[[]models.EventTypeCount]("event-types", s.distTTL, cache.WithClock(s.now))
		s.regionDist = cache.New[[]models.RegionCount]("regions", s.distTTL, cache.WithClock(s.now))
		s.sourceDist = cache.New[[]models.SourceCount]("sources", s.distTTL, cache.WithClock(s.now))
	}
	return s
}

// Paging returns the page request normalization rules.
func (s *Service) Paging() Paging {
	return s.paging
}

// SearchEnabled reports whether search reads are available.
func (s *Service) SearchEnabled() bool {
	return s.search != nil
}

// Dashboard assembles the summary from the counter store. Counters that
// do not exist yet are omitted rather than reported as zero. The total
// falls back to a durable count when its counter is missing.
func (s *Service) Dashboard(ctx context.Context) (*models.DashboardSummary, error) {
	now := s.now()

	total, ok, err := s.counters.Get(ctx, kv.TotalKey)
	if err != nil {
		return nil, fmt.Errorf("read total counter: %w", err)
	}
	if !ok {
		total, err = s.store.CountEvents(ctx)
		if err != nil {
			return nil, fmt.Errorf("count events: %w", err)
		}
		logging.Ctx(ctx).Debug().Int64("total", total).Msg("Total counter missing, used durable count")
	}

	byType, err := s.readCounters(ctx, models.DashboardEventTypes, kv.EventTypeKey)
	if err != nil {
		return nil, fmt.Errorf("read event type counters: %w", err)
	}
	byRegion, err := s.readCounters(ctx, models.DashboardRegions, kv.RegionKey)
	if err != nil {
		return nil, fmt.Errorf("read region counters: %w", err)
	}
	last5, err := s.eventsLastNMinutesAt(ctx, 5, now)
	if err != nil {
		return nil, err
	}

	return &models.DashboardSummary{
		TotalEvents:    total,
		ByEventType:    byType,
		ByRegion:       byRegion,
		EventsLast5Min: last5,
		Timestamp:      models.FormatTimestamp(now),
	}, nil
}

// readCounters reads the counters of names and keys the result by name.
func (s *Service) readCounters(ctx context.Context, names []string, keyOf func(string) string) (map[string]int64, error) {
	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = keyOf(name)
	}
	values, err := s.counters.MGet(ctx, keys...)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(values))
	for i, name := range names {
		if v, ok := values[keys[i]]; ok {
			out[name] = v
		}
	}
	return out, nil
}

// EventsLastNMinutes sums the per-minute buckets from n minutes ago up to
// and including the current minute.
func (s *Service) EventsLastNMinutes(ctx context.Context, n int) (int64, error) {
	return s.eventsLastNMinutesAt(ctx, n, s.now())
}

func (s *Service) eventsLastNMinutesAt(ctx context.Context, n int, now time.Time) (int64, error) {
	if n < 0 {
		n = 0
	}
	current := kv.MinuteBucket(now)
	keys := make([]string, 0, n+1)
	for b := current - int64(n); b <= current; b++ {
		keys = append(keys, kv.RateKey(b))
	}
	values, err := s.counters.MGet(ctx, keys...)
	if err != nil {
		return 0, fmt.Errorf("read rate buckets: %w", err)
	}
	var total int64
	for _, v := range values {
		total += v
	}
	return total, nil
}

// Rate reports the event rate over each of RateWindows.
func (s *Service) Rate(ctx context.Context) (*models.RateSummary, error) {
	now := s.now()
	sums := make([]int64, len(RateWindows))
	for i, n := range RateWindows {
		v, err := s.eventsLastNMinutesAt(ctx, n, now)
		if err != nil {
			return nil, err
		}
		sums[i] = v
	}
	return &models.RateSummary{
		Last1Min:  sums[0],
		Last5Min:  sums[1],
		Last15Min: sums[2],
		Last60Min: sums[3],
	}, nil
}

// EventsByType returns stored events of one type, newest first.
func (s *Service) EventsByType(ctx context.Context, eventType string, pr models.PageRequest) (models.Page[models.EventRecord], error) {
	pr, err := s.paging.normalizeWithin(pr, maxRowOffset)
	if err != nil {
		return models.Page[models.EventRecord]{}, err
	}
	return s.store.EventsByType(ctx, eventType, pr)
}

// EventsByUser returns a user's stored events, newest first.
func (s *Service) EventsByUser(ctx context.Context, userID string, pr models.PageRequest) (models.Page[models.EventRecord], error) {
	pr, err := s.paging.normalizeWithin(pr, maxRowOffset)
	if err != nil {
		return models.Page[models.EventRecord]{}, err
	}
	return s.store.EventsByUser(ctx, userID, pr)
}

// EventsBetween returns stored events created in [from, to], newest first.
func (s *Service) EventsBetween(ctx context.Context, from, to time.Time, pr models.PageRequest) (models.Page[models.EventRecord], error) {
	pr, err := s.paging.normalizeWithin(pr, maxRowOffset)
	if err != nil {
		return models.Page[models.EventRecord]{}, err
	}
	return s.store.EventsBetween(ctx, from, to, pr)
}

// EventTypeDistribution counts stored events per type.
func (s *Service) EventTypeDistribution(ctx context.Context) ([]models.EventTypeCount, error) {
	if s.typeDist == nil {
		return s.store.EventTypeDistribution(ctx)
	}
	return s.typeDist.GetOrLoad(ctx, "event-types", s.store.EventTypeDistribution)
}

// RegionDistribution counts stored events per non-null region.
func (s *Service) RegionDistribution(ctx context.Context) ([]models.RegionCount, error) {
	if s.regionDist == nil {
		return s.store.RegionDistribution(ctx)
	}
	return s.regionDist.GetOrLoad(ctx, "regions", s.store.RegionDistribution)
}

// SourceDistribution counts stored events per non-null source.
func (s *Service) SourceDistribution(ctx context.Context) ([]models.SourceCount, error) {
	if s.sourceDist == nil {
		return s.store.SourceDistribution(ctx)
	}
	return s.sourceDist.GetOrLoad(ctx, "sources", s.store.SourceDistribution)
}

// DeadLetters returns quarantined records, newest first.
func (s *Service) DeadLetters(ctx context.Context, pr models.PageRequest) (models.Page[models.DeadLetter], error) {
	pr, err := s.paging.normalizeWithin(pr, maxRowOffset)
	if err != nil {
		return models.Page[models.DeadLetter]{}, err
	}
	return s.store.DeadLetters(ctx, pr)
}

// SearchByType searches indexed events by type.
func (s *Service) SearchByType(ctx context.Context, eventType string, pr models.PageRequest) (models.Page[models.EventDocument], error) {
	return s.searchBy(ctx, search.FieldEventType, eventType, pr)
}

// SearchByUser searches indexed events by user.
func (s *Service) SearchByUser(ctx context.Context, userID string, pr models.PageRequest) (models.Page[models.EventDocument], error) {
	return s.searchBy(ctx, search.FieldUserID, userID, pr)
}

// SearchByRegion searches indexed events by region.
func (s *Service) SearchByRegion(ctx context.Context, region string, pr models.PageRequest) (models.Page[models.EventDocument], error) {
	return s.searchBy(ctx, search.FieldRegion, region, pr)
}

func (s *Service) searchBy(ctx context.Context, field, value string, pr models.PageRequest) (models.Page[models.EventDocument], error) {
	if s.search == nil {
		return models.Page[models.EventDocument]{}, ErrSearchDisabled
	}
	pr, err := s.paging.normalizeWithin(pr, search.MaxResultWindow)
	if err != nil {
		return models.Page[models.EventDocument]{}, err
	}
	return s.search.SearchByField(ctx, field, value, pr)
}
