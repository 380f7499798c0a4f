// Package store owns the process-wide chart series. It replaces module-level
// pre-generated data with explicit state that is initialised once in New.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"BTCChart/internal/cache"
	"BTCChart/internal/model"
	"BTCChart/internal/recorder"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrRunNotFound is returned for a run id the store never produced or has evicted.
var ErrRunNotFound = errors.New("series run not found")

// recentRuns bounds how many past runs stay addressable by id.
const recentRuns = 128

// Mode selects how series are handed out on a timeframe switch.
type Mode string

const (
	// ModePregenerated generates every timeframe once and serves the same data until Refresh.
	ModePregenerated Mode = "pregenerated"
	// ModeFresh generates a new series on every request.
	ModeFresh Mode = "fresh"
)

// Source produces a series for a timeframe.
type Source interface {
	Generate(tf model.Timeframe, startPrice float64) (model.Series, error)
	Name() string
}

// Options configure a Store.
type Options struct {
	Mode       Mode
	StartPrice float64
	Cache      cache.SeriesCache
	// CacheTTL discards cached runs generated longer ago than this. Zero disables the age check;
	// a cached run whose last point is more than one interval old is always discarded.
	CacheTTL time.Duration
	Recorder recorder.Recorder
	Logger   *logrus.Logger
	Now      func() time.Time
}

// Store hands out series per timeframe. Every run it produces is also kept by id for a
// while, so a chart image and a pointer session can refer to the same series.
type Store struct {
	mu     sync.RWMutex
	runs   map[model.Timeframe]*model.SeriesRun
	byID   map[string]*model.SeriesRun
	order  []string
	source Source
	opts   Options
}

// New builds the store. In pregenerated mode every timeframe is loaded from the cache
// or generated before New returns.
func New(ctx context.Context, src Source, opts Options) (*Store, error) {
	if opts.Mode == "" {
		opts.Mode = ModePregenerated
	}
	if opts.Mode != ModePregenerated && opts.Mode != ModeFresh {
		return nil, fmt.Errorf("unknown store mode %q", opts.Mode)
	}
	if opts.StartPrice <= 0 {
		return nil, fmt.Errorf("start price must be positive, got %v", opts.StartPrice)
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNoopCache()
	}
	if opts.Recorder == nil {
		opts.Recorder = recorder.NewNoopRecorder()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Store{
		runs:   make(map[model.Timeframe]*model.SeriesRun, len(model.Timeframes)),
		byID:   make(map[string]*model.SeriesRun),
		source: src,
		opts:   opts,
	}
	if opts.Mode == ModeFresh {
		return s, nil
	}

	for _, tf := range model.Timeframes {
		run, err := opts.Cache.Load(ctx, tf)
		if err == nil && !s.current(run) {
			opts.Logger.Infof("cached series %s from %s is stale, regenerating", tf, run.GeneratedAt.Format(time.RFC3339))
			err = cache.ErrMiss
		}
		switch {
		case err == nil:
			if run.ID == "" {
				run.ID = uuid.NewString()
			}
			s.remember(run)
			opts.Logger.Infof("series %s loaded from %s cache (%d points)", tf, opts.Cache.Name(), len(run.Points))
		case errors.Is(err, cache.ErrMiss):
			if run, err = s.generate(ctx, tf); err != nil {
				return nil, err
			}
		default:
			opts.Logger.Warnf("load series %s from %s cache: %v, regenerating", tf, opts.Cache.Name(), err)
			if run, err = s.generate(ctx, tf); err != nil {
				return nil, err
			}
		}
		s.runs[tf] = run
	}
	return s, nil
}

func (s *Store) Mode() Mode { return s.opts.Mode }

// Series returns the series for tf.
func (s *Store) Series(ctx context.Context, tf model.Timeframe) (model.Series, error) {
	run, err := s.Run(ctx, tf)
	if err != nil {
		return nil, err
	}
	return run.Points, nil
}

// Run returns the series for tf with its provenance. Callers must not modify the points.
func (s *Store) Run(ctx context.Context, tf model.Timeframe) (*model.SeriesRun, error) {
	if !tf.Valid() {
		return nil, fmt.Errorf("unknown timeframe %q", tf)
	}
	if s.opts.Mode == ModeFresh {
		return s.generate(ctx, tf)
	}

	s.mu.RLock()
	run, ok := s.runs[tf]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("series %s not initialised", tf)
	}
	return run, nil
}

// RunByID returns a run produced earlier by this store.
func (s *Store) RunByID(id string) (*model.SeriesRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if run, ok := s.byID[id]; ok {
		return run, nil
	}
	for _, run := range s.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
}

// Refresh regenerates every timeframe. A failed timeframe keeps its previous series.
func (s *Store) Refresh(ctx context.Context) error {
	var errs []error
	for _, tf := range model.Timeframes {
		run, err := s.generate(ctx, tf)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.mu.Lock()
		s.runs[tf] = run
		s.mu.Unlock()
	}
	s.opts.Logger.Infof("series refreshed (%s)", s.source.Name())
	return errors.Join(errs...)
}

func (s *Store) generate(ctx context.Context, tf model.Timeframe) (*model.SeriesRun, error) {
	points, err := s.source.Generate(tf, s.opts.StartPrice)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", tf, err)
	}
	run := &model.SeriesRun{
		ID:          uuid.NewString(),
		Timeframe:   tf,
		StartPrice:  s.opts.StartPrice,
		GeneratedAt: s.opts.Now(),
		Points:      points,
	}
	if err := s.opts.Cache.Save(ctx, run); err != nil {
		s.opts.Logger.Warnf("save series %s to %s cache: %v", tf, s.opts.Cache.Name(), err)
	}
	if err := s.opts.Recorder.RecordRun(run); err != nil {
		s.opts.Logger.Errorf("record series %s: %v", tf, err)
	}
	s.remember(run)
	return run, nil
}

// remember indexes run by id, evicting the oldest once recentRuns is exceeded.
func (s *Store) remember(run *model.SeriesRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[run.ID] = run
	s.order = append(s.order, run.ID)
	if len(s.order) > recentRuns {
		delete(s.byID, s.order[0])
		s.order = s.order[1:]
	}
}

// current reports whether a cached run may be served as if generated at start-up:
// its last point lies within one interval of now and it is younger than CacheTTL.
func (s *Store) current(run *model.SeriesRun) bool {
	p, ok := run.Timeframe.Params()
	if !ok {
		return false
	}
	last, ok := run.Points.Last()
	if !ok {
		return false
	}
	now := s.opts.Now()
	if now.Sub(last.Time()) > p.Interval {
		return false
	}
	return s.opts.CacheTTL <= 0 || now.Sub(run.GeneratedAt) <= s.opts.CacheTTL
}
