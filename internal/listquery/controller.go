package listquery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-bizdata/internal/debounce"
	"github.com/tbourn/go-bizdata/internal/transport"
)

// Phase is the controller's scheduling state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseScheduled
	PhaseFetching
)

func (p Phase) String() string {
	switch p {
	case PhaseScheduled:
		return "scheduled"
	case PhaseFetching:
		return "fetching"
	default:
		return "idle"
	}
}

// MarshalText renders the phase by name.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// State is the UI-observable state of one list.
//
// Err is the last committed error (nil on success). On error the previously
// committed Items stay visible. Version increases on every state change so
// observers can discard out-of-order notifications.
type State[T any] struct {
	Query       Query     `json:"query"`
	Phase       Phase     `json:"phase"`
	Loading     bool      `json:"loading"`
	Err         error     `json:"-"`
	Error       string    `json:"error,omitempty"`
	ErrorStatus int       `json:"errorStatus,omitempty"`
	Items       []T       `json:"items"`
	Generation  uint64    `json:"generation"`
	Committed   bool      `json:"committed"`
	CommittedAt time.Time `json:"committedAt,omitempty"`
	Version     uint64    `json:"version"`
}

// Defaults for the debounce windows.
const (
	DefaultKeywordDelay = 300 * time.Millisecond
	DefaultFilterDelay  = 0
)

type config struct {
	name         string
	keywordDelay time.Duration
	filterDelay  time.Duration
	fetchTimeout time.Duration
	logger       *zerolog.Logger
}

// Option configures a Controller.
type Option func(*config)

// WithName labels the controller in logs and in a Registry.
func WithName(name string) Option { return func(c *config) { c.name = name } }

// WithKeywordDelay sets the debounce window for keyword changes.
func WithKeywordDelay(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.keywordDelay = d
		}
	}
}

// WithFilterDelay sets the delay for filter-only changes.
func WithFilterDelay(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.filterDelay = d
		}
	}
}

// WithFetchTimeout bounds each fetch; 0 means no controller-level timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.fetchTimeout = d
		}
	}
}

// WithLogger overrides the global logger.
func WithLogger(l zerolog.Logger) Option { return func(c *config) { c.logger = &l } }

// Controller owns the query state of one list screen.
// It is safe for concurrent use.
type Controller[T any] struct {
	cfg  config
	src  Source[T]
	task *debounce.Task
	log  zerolog.Logger

	mu      sync.Mutex
	query   Query // latest requested query
	pending bool  // a dispatch is armed
	gen     uint64
	alive   bool
	state   State[T]
	subs    map[int]func(State[T])
	nextSub int
}

// New creates a controller over src. src.All must be set.
func New[T any](src Source[T], opts ...Option) *Controller[T] {
	cfg := config{
		name:         "list",
		keywordDelay: DefaultKeywordDelay,
		filterDelay:  DefaultFilterDelay,
	}
	for _, o := range opts {
		o(&cfg)
	}
	lg := log.Logger
	if cfg.logger != nil {
		lg = *cfg.logger
	}
	return &Controller[T]{
		cfg:   cfg,
		src:   src,
		task:  debounce.New(cfg.keywordDelay),
		log:   lg.With().Str("component", "listquery").Str("list", cfg.name).Logger(),
		alive: true,
		state: State[T]{Items: []T{}},
		subs:  map[int]func(State[T]){},
	}
}

// Name returns the controller's label.
func (c *Controller[T]) Name() string { return c.cfg.name }

// SetKeyword schedules a fetch for keyword after the keyword delay.
func (c *Controller[T]) SetKeyword(keyword string) {
	c.update(func(q *Query) { q.Keyword = keyword })
}

// SetFilters schedules a fetch for filters. Filter-only changes use the
// filter delay (0 by default) since they are explicit confirmations.
func (c *Controller[T]) SetFilters(f Filters) {
	c.update(func(q *Query) { q.Filters = f })
}

// SetQuery schedules a fetch for q. Any pending fetch is superseded. A
// query equal to the latest requested one is ignored.
func (c *Controller[T]) SetQuery(q Query) {
	c.update(func(cur *Query) { *cur = q })
}

// update applies edit to the latest requested query under the lock, so
// concurrent keyword and filter changes never overwrite each other.
func (c *Controller[T]) update(edit func(*Query)) {
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return
	}
	q := c.query
	edit(&q)
	q = q.Normalize()
	if q.Equal(c.query) {
		c.mu.Unlock()
		return
	}
	delay := c.cfg.filterDelay
	if q.Keyword != c.query.Keyword {
		delay = c.cfg.keywordDelay
	}
	c.query = q
	c.pending = true
	c.state.Query = q
	c.state.Phase = PhaseScheduled
	snap := c.bumpLocked()
	c.mu.Unlock()

	c.task.ArmAfter(delay, c.dispatch)
	c.notify(snap)
}

// Refresh cancels any pending delay and fetches the latest query now.
func (c *Controller[T]) Refresh() {
	c.mu.Lock()
	alive := c.alive
	c.mu.Unlock()
	if !alive {
		return
	}
	c.task.Cancel()
	c.dispatch()
}

// Snapshot returns a copy of the current state.
func (c *Controller[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyLocked()
}

// Subscribe registers fn to receive state changes and returns a function
// that removes it. Notifications run on the goroutine that caused the
// change and may interleave; use State.Version to order them.
func (c *Controller[T]) Subscribe(fn func(State[T])) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Close tears the controller down: the pending delay is cancelled and no
// later result can touch the state. In-flight fetches are left to finish.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	c.alive = false
	c.pending = false
	c.subs = map[int]func(State[T]){}
	c.mu.Unlock()
	c.task.Cancel()
}

// dispatch starts a fetch for the latest query under a new generation.
func (c *Controller[T]) dispatch() {
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	q := c.query
	c.pending = false
	c.state.Phase = PhaseFetching
	c.state.Loading = true
	c.state.Generation = gen
	snap := c.bumpLocked()
	c.mu.Unlock()

	c.notify(snap)
	c.log.Debug().Uint64("generation", gen).Str("keyword", q.Keyword).Msg("fetch dispatched")
	go c.run(gen, q)
}

func (c *Controller[T]) run(gen uint64, q Query) {
	ctx := context.Background()
	if c.cfg.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.fetchTimeout)
		defer cancel()
	}

	items, err := c.fetch(ctx, q)

	c.mu.Lock()
	if !c.alive || gen != c.gen {
		latest := c.gen
		c.mu.Unlock()
		c.log.Debug().
			Uint64("generation", gen).
			Uint64("latest", latest).
			Bool("closed", latest == gen).
			Msg("stale result dropped")
		return
	}

	c.state.Loading = false
	if c.pending {
		c.state.Phase = PhaseScheduled
	} else {
		c.state.Phase = PhaseIdle
	}
	c.state.Committed = true
	c.state.CommittedAt = time.Now()
	if err != nil {
		c.state.Err = err
		c.state.Error = errorMessage(err)
		c.state.ErrorStatus = errorStatus(err)
	} else {
		if items == nil {
			items = []T{}
		}
		c.state.Err = nil
		c.state.Error = ""
		c.state.ErrorStatus = 0
		c.state.Items = items
	}
	snap := c.bumpLocked()
	c.mu.Unlock()

	if err != nil {
		c.log.Warn().Err(err).Uint64("generation", gen).Msg("fetch failed")
	}
	c.notify(snap)
}

// fetch calls the source, turning a panic into an error so a broken
// adapter cannot take the host screen down.
func (c *Controller[T]) fetch(ctx context.Context, q Query) (items []T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			c.log.Error().Interface("panic", rec).Msg("fetch panicked")
			items, err = nil, fmt.Errorf("listquery: fetch failed: %v", rec)
		}
	}()
	if c.src.All == nil {
		return nil, errors.New("listquery: source has no All function")
	}
	return c.src.Fetch(ctx, q)
}

func (c *Controller[T]) bumpLocked() State[T] {
	c.state.Version++
	return c.copyLocked()
}

func (c *Controller[T]) copyLocked() State[T] {
	s := c.state
	s.Items = append([]T(nil), c.state.Items...)
	if s.Items == nil {
		s.Items = []T{}
	}
	return s
}

func (c *Controller[T]) notify(s State[T]) {
	c.mu.Lock()
	fns := make([]func(State[T]), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

func errorMessage(err error) string {
	if te, ok := transport.AsError(err); ok {
		return te.Message
	}
	return err.Error()
}

func errorStatus(err error) int {
	if te, ok := transport.AsError(err); ok {
		return te.Status
	}
	return 0
}
