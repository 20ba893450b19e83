// Package engine drives the two-phase search: book metadata plus the
// fast source first, the slow sources concurrently in the background,
// then merge, dedup, rank, and staged emission to the presentation
// layer.
package engine

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/openshelf/bookdiscovery/internal/metrics"
	apperrors "github.com/openshelf/bookdiscovery/internal/pkg/errors"
	"github.com/openshelf/bookdiscovery/internal/pkg/logger"
	"github.com/openshelf/bookdiscovery/internal/search/query"
	"github.com/openshelf/bookdiscovery/internal/search/rank"
	"github.com/openshelf/bookdiscovery/internal/search/source"
	"github.com/openshelf/bookdiscovery/internal/search/types"
)

// Phase tags a status message with the loading stage it belongs to.
type Phase int

const (
	PhaseSearching Phase = iota
	PhaseBackground
)

// Presenter receives the staged output of one search session. The
// engine guarantees that a superseded session never reaches its
// presenter again.
type Presenter interface {
	// OnBookInfoReady fires as soon as the metadata card resolves.
	OnBookInfoReady(info types.BookInfo)

	// OnLinksReady fires up to twice per session: once with the fast
	// phase-1 candidates, once with the final ranked list.
	OnLinksReady(info types.BookInfo, links []types.LinkCandidate)

	// OnNoResults replaces the final OnLinksReady when no links were
	// found anywhere.
	OnNoResults(ev NoResultsEvent)

	// OnStatus carries the rotating loading messages.
	OnStatus(phase Phase, message string)
}

// NoResultsEvent distinguishes "no free links" from "book likely does
// not exist": BookFound is false when even the metadata lookup had no
// real match.
type NoResultsEvent struct {
	Query         string
	Info          types.BookInfo
	BookFound     bool
	Message       string
	PurchaseLinks []types.PurchaseLink
}

// MetadataProvider resolves the book metadata card for a query.
type MetadataProvider interface {
	FetchBookInfo(ctx context.Context, query string, variations []string) (types.BookInfo, error)
}

// FailureTracker records searches that produced no results. Delivery is
// best-effort; the engine never waits on it.
type FailureTracker interface {
	TrackFailedSearch(ctx context.Context, query string)
}

// Config tunes the orchestration policy
type Config struct {
	// MinResults is the candidate count below which the author
	// fallback search runs.
	MinResults int `mapstructure:"min_results"`

	// FallbackCap bounds the merged list after the author fallback.
	FallbackCap int `mapstructure:"fallback_cap"`

	// StatusInterval / BackgroundStatusInterval drive the two message
	// rotators. Zero disables a rotator.
	StatusInterval           time.Duration `mapstructure:"status_interval"`
	BackgroundStatusInterval time.Duration `mapstructure:"background_status_interval"`
}

// DefaultConfig returns the stock orchestration policy
func DefaultConfig() *Config {
	return &Config{
		MinResults:               5,
		FallbackCap:              20,
		StatusInterval:           time.Second,
		BackgroundStatusInterval: 1200 * time.Millisecond,
	}
}

// Engine owns the sources and runs search sessions against them
type Engine struct {
	cfg        *Config
	metadata   MetadataProvider
	fast       source.Source
	background []source.Source

	tracker FailureTracker
	log     *logger.Logger

	// sessions is the monotonic session counter. Continuations compare
	// their captured value against it and drop stale results.
	sessions atomic.Uint64
}

// New creates an engine. The fast source serves phase 1; the background
// sources run concurrently in phase 2 in the given, fixed order.
func New(cfg *Config, metadata MetadataProvider, fast source.Source, background []source.Source, log *logger.Logger) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logger.L()
	}
	return &Engine{
		cfg:        cfg,
		metadata:   metadata,
		fast:       fast,
		background: background,
		log:        log.Named("engine"),
	}
}

// SetFailureTracker wires the analytics tracker. Optional.
func (e *Engine) SetFailureTracker(t FailureTracker) {
	e.tracker = t
}

// session holds the per-search state: the captured counter value, the
// presenter, and the two progress rotators that must die on every exit
// path.
type session struct {
	id        uint64
	query     string
	engine    *Engine
	presenter Presenter

	main *rotator
	bg   *rotator
}

// Search runs one complete session. An empty or whitespace query is
// rejected before any network call. A metadata failure is fatal and
// returned; source failures degrade silently. Starting a newer search
// makes this one's remaining emissions no-ops.
func (e *Engine) Search(ctx context.Context, rawQuery string, p Presenter) error {
	q := strings.TrimSpace(rawQuery)
	if q == "" {
		return apperrors.NewInvalidQueryError()
	}

	metrics.SearchesTotal.Inc()
	s := &session{
		id:        e.sessions.Add(1),
		query:     q,
		engine:    e,
		presenter: p,
	}
	defer s.stopRotators()

	s.main = newRotator(loadingSteps, e.cfg.StatusInterval, func(msg string) {
		s.status(PhaseSearching, msg)
	})
	s.main.Start()

	// Phase 1: metadata plus the fast source.
	fastVars := query.Variations(q, "", false)

	info, err := e.metadata.FetchBookInfo(ctx, q, fastVars)
	if err != nil {
		metrics.SearchFailuresTotal.Inc()
		e.log.Error("metadata lookup failed", zap.String("query", q), zap.Error(err))
		return apperrors.NewFatalSearchError(err)
	}
	if !s.current() {
		return nil
	}
	p.OnBookInfoReady(info)

	phase1 := e.searchOne(ctx, e.fast, q, fastVars)
	if !s.current() {
		return nil
	}

	// Zero fast hits: a query the fast source knows nothing about is
	// unlikely to gain from the slow path, so skip straight to the
	// terminal state.
	if len(phase1) == 0 {
		s.stopRotators()
		e.emitNoResults(ctx, s, info)
		return nil
	}

	s.main.Stop()
	p.OnLinksReady(info, phase1)

	// Phase 2: slow sources in the background.
	s.bg = newRotator(backgroundSteps, e.cfg.BackgroundStatusInterval, func(msg string) {
		s.status(PhaseBackground, msg)
	})
	s.bg.Start()

	author := ""
	if info.HasKnownAuthor() {
		author = info.Author
	}
	fullVars := query.Variations(q, author, true)

	merged := types.DedupByURL(append([][]types.LinkCandidate{phase1}, e.searchBackground(ctx, q, fullVars)...)...)
	final := rank.Rerank(merged, q)

	if len(final) < e.cfg.MinResults && info.HasKnownAuthor() {
		e.log.Debug("running author fallback",
			zap.String("author", info.Author),
			zap.Int("count", len(final)))
		authorLinks := e.aggregatedSearch(ctx, info.Author)
		final = types.DedupByURL(final, authorLinks)
		if len(final) > e.cfg.FallbackCap {
			final = final[:e.cfg.FallbackCap]
		}
	}

	if !s.current() {
		return nil
	}
	s.stopRotators()

	if len(final) == 0 {
		e.emitNoResults(ctx, s, info)
		return nil
	}

	p.OnLinksReady(info, final)
	return nil
}

// searchOne runs one source, absorbing its errors into an empty list.
func (e *Engine) searchOne(ctx context.Context, src source.Source, q string, variations []string) []types.LinkCandidate {
	links, err := src.Search(ctx, &types.SearchRequest{Query: q, Variations: variations})
	if err != nil {
		e.log.Warn("source failed",
			zap.String("source", string(src.ID())),
			zap.Error(err))
		return nil
	}
	return links
}

// searchBackground launches the slow sources concurrently and joins
// all-settled: each source's failure only costs its own slot. Results
// land in a fixed adapter-ordered slice so the later dedup stays
// deterministic regardless of completion order.
func (e *Engine) searchBackground(ctx context.Context, q string, variations []string) [][]types.LinkCandidate {
	results := make([][]types.LinkCandidate, len(e.background))

	var wg sync.WaitGroup
	for i, src := range e.background {
		wg.Add(1)
		go func(i int, src source.Source) {
			defer wg.Done()
			results[i] = e.searchOne(ctx, src, q, variations)
		}(i, src)
	}
	wg.Wait()

	return results
}

// aggregatedSearch runs every source sequentially against a standalone
// query (the author-fallback path), merges, and ranks.
func (e *Engine) aggregatedSearch(ctx context.Context, q string) []types.LinkCandidate {
	variations := query.Variations(q, "", true)

	var lists [][]types.LinkCandidate
	for _, src := range e.allSources() {
		lists = append(lists, e.searchOne(ctx, src, q, variations))
	}

	return rank.Rerank(types.DedupByURL(lists...), q)
}

func (e *Engine) allSources() []source.Source {
	return append([]source.Source{e.fast}, e.background...)
}

func (e *Engine) emitNoResults(ctx context.Context, s *session, info types.BookInfo) {
	metrics.NoResultsTotal.Inc()
	if e.tracker != nil {
		e.tracker.TrackFailedSearch(ctx, s.query)
	}
	s.presenter.OnNoResults(NoResultsEvent{
		Query:         s.query,
		Info:          info,
		BookFound:     !info.IsDefaultInfo,
		Message:       noResultsMessages[rand.Intn(len(noResultsMessages))],
		PurchaseLinks: info.PurchaseLinks(),
	})
}

// current reports whether this session is still the live one.
func (s *session) current() bool {
	return s.engine.sessions.Load() == s.id
}

func (s *session) status(phase Phase, msg string) {
	if s.current() {
		s.presenter.OnStatus(phase, msg)
	}
}

func (s *session) stopRotators() {
	if s.main != nil {
		s.main.Stop()
	}
	if s.bg != nil {
		s.bg.Stop()
	}
}
