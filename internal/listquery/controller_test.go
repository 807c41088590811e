package listquery

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tbourn/go-bizdata/internal/transport"
)

type item struct {
	Name string
	Tags []string
}

func fields(it item) []string { return []string{it.Name} }

// gatedSource blocks each Search until the test releases that keyword.
type gatedSource struct {
	mu      sync.Mutex
	calls   []string
	started chan string
	gates   map[string]chan result
}

type result struct {
	items []item
	err   error
}

func newGatedSource() *gatedSource {
	return &gatedSource{started: make(chan string, 16), gates: map[string]chan result{}}
}

func (g *gatedSource) gate(kw string) chan result {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[kw]
	if !ok {
		ch = make(chan result, 1)
		g.gates[kw] = ch
	}
	return ch
}

func (g *gatedSource) source() Source[item] {
	return Source[item]{
		All: func(ctx context.Context) ([]item, error) { return nil, nil },
		Search: func(ctx context.Context, kw string) ([]item, error) {
			g.mu.Lock()
			g.calls = append(g.calls, kw)
			g.mu.Unlock()
			g.started <- kw
			r := <-g.gate(kw)
			return r.items, r.err
		},
		Fields: fields,
	}
}

func (g *gatedSource) callList() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func waitStarted(t *testing.T, g *gatedSource, want string) {
	t.Helper()
	select {
	case got := <-g.started:
		if got != want {
			t.Fatalf("fetch started for %q; want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("fetch for %q never started", want)
	}
}

func waitFor[T any](t *testing.T, c *Controller[T], cond func(State[T]) bool) State[T] {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := c.Snapshot(); cond(s) {
			return s
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met; state = %+v", c.Snapshot())
	return State[T]{}
}

func TestController_BurstFetchesOnceWithLastKeyword(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	src := Source[item]{
		All: func(ctx context.Context) ([]item, error) { return nil, nil },
		Search: func(ctx context.Context, kw string) ([]item, error) {
			mu.Lock()
			calls = append(calls, kw)
			mu.Unlock()
			return []item{{Name: kw}}, nil
		},
	}
	c := New(src, WithKeywordDelay(60*time.Millisecond))
	defer c.Close()

	for _, kw := range []string{"e", "el", "ele", "elec"} {
		c.SetKeyword(kw)
		time.Sleep(5 * time.Millisecond)
	}
	if s := c.Snapshot(); s.Phase != PhaseScheduled || s.Committed {
		t.Fatalf("expected a scheduled, uncommitted state during the burst; got %+v", s)
	}

	s := waitFor(t, c, func(s State[item]) bool { return s.Committed })
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(calls, []string{"elec"}) {
		t.Fatalf("search calls = %q; want exactly [elec]", calls)
	}
	if len(s.Items) != 1 || s.Items[0].Name != "elec" {
		t.Fatalf("items = %+v", s.Items)
	}
	if s.Loading || s.Phase != PhaseIdle || s.Err != nil {
		t.Fatalf("unexpected final state %+v", s)
	}
}

func TestController_StaleResultDropped(t *testing.T) {
	g := newGatedSource()
	c := New(g.source(), WithKeywordDelay(0))
	defer c.Close()

	c.SetKeyword("A")
	waitStarted(t, g, "A")
	c.SetKeyword("B")
	waitStarted(t, g, "B")

	g.gate("B") <- result{items: []item{{Name: "b1"}}}
	s := waitFor(t, c, func(s State[item]) bool { return s.Committed })
	if len(s.Items) != 1 || s.Items[0].Name != "b1" {
		t.Fatalf("items after B = %+v", s.Items)
	}
	version := s.Version

	// A resolves late, with an error; neither data nor error may land.
	g.gate("A") <- result{err: errors.New("boom")}
	time.Sleep(50 * time.Millisecond)

	s = c.Snapshot()
	if s.Err != nil || s.Error != "" {
		t.Fatalf("stale error leaked into state: %v", s.Err)
	}
	if len(s.Items) != 1 || s.Items[0].Name != "b1" {
		t.Fatalf("stale result overwrote items: %+v", s.Items)
	}
	if s.Version != version {
		t.Fatalf("stale result bumped version %d -> %d", version, s.Version)
	}
	if got := g.callList(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Fatalf("calls = %q", got)
	}
}

func TestController_NoMutationAfterClose(t *testing.T) {
	g := newGatedSource()
	c := New(g.source(), WithKeywordDelay(0))

	var notified atomic.Int32
	c.SetKeyword("A")
	waitStarted(t, g, "A")
	before := c.Snapshot()

	c.Subscribe(func(State[item]) { notified.Add(1) })
	c.Close()
	g.gate("A") <- result{items: []item{{Name: "late"}}}
	time.Sleep(50 * time.Millisecond)

	after := c.Snapshot()
	if after.Committed || len(after.Items) != 0 || after.Version != before.Version {
		t.Fatalf("state changed after Close: %+v", after)
	}
	if n := notified.Load(); n != 0 {
		t.Fatalf("closed controller notified %d times", n)
	}

	c.SetKeyword("B")
	c.Refresh()
	time.Sleep(20 * time.Millisecond)
	if got := g.callList(); !reflect.DeepEqual(got, []string{"A"}) {
		t.Fatalf("closed controller dispatched fetches: %q", got)
	}
}

func TestController_CloseCancelsPendingDelay(t *testing.T) {
	var mu sync.Mutex
	fetched := 0
	src := Source[item]{All: func(ctx context.Context) ([]item, error) {
		mu.Lock()
		fetched++
		mu.Unlock()
		return nil, nil
	}}
	c := New(src, WithKeywordDelay(30*time.Millisecond))
	c.SetKeyword("x")
	c.Close()
	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if fetched != 0 {
		t.Fatalf("fetch ran %d times after Close", fetched)
	}
}

func TestController_FiltersCombineWithKeywordClientSide(t *testing.T) {
	var gotFilters Filters
	searched := false
	src := Source[item]{
		All: func(ctx context.Context) ([]item, error) { return nil, errors.New("unexpected All") },
		Search: func(ctx context.Context, kw string) ([]item, error) {
			searched = true
			return nil, nil
		},
		Filtered: func(ctx context.Context, f Filters) ([]item, error) {
			gotFilters = f
			return []item{{Name: "Hex bolt"}, {Name: "Washer"}, {Name: "Carriage BOLT"}}, nil
		},
		Fields: fields,
	}
	c := New(src, WithKeywordDelay(0))
	defer c.Close()

	c.SetQuery(Query{Keyword: " bolt ", Filters: Filters{FilterTags: {"t2", "t1", "t1", " "}}})
	s := waitFor(t, c, func(s State[item]) bool { return s.Committed })

	if searched {
		t.Fatalf("keyword endpoint must not be used while filters are active")
	}
	if !reflect.DeepEqual(gotFilters, Filters{FilterTags: {"t1", "t2"}}) {
		t.Fatalf("filters = %v", gotFilters)
	}
	if len(s.Items) != 2 || s.Items[0].Name != "Hex bolt" || s.Items[1].Name != "Carriage BOLT" {
		t.Fatalf("items = %+v", s.Items)
	}
	if s.Query.Keyword != "bolt" {
		t.Fatalf("query keyword = %q", s.Query.Keyword)
	}
}

func TestController_FilterOnlyChangeUsesFilterDelay(t *testing.T) {
	done := make(chan struct{}, 1)
	src := Source[item]{
		Match: func(it item, f Filters) bool {
			return len(it.Tags) > 0 && it.Tags[0] == f[FilterTags][0]
		},
	}
	src.All = func(ctx context.Context) ([]item, error) {
		defer func() { done <- struct{}{} }()
		return []item{{Name: "a", Tags: []string{"x"}}, {Name: "b", Tags: []string{"y"}}}, nil
	}
	c := New(src, WithKeywordDelay(time.Hour))
	defer c.Close()

	c.SetFilters(Filters{FilterTags: {"y"}})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("filter change should not wait for the keyword delay")
	}
	s := waitFor(t, c, func(s State[item]) bool { return s.Committed })
	if len(s.Items) != 1 || s.Items[0].Name != "b" {
		t.Fatalf("items = %+v", s.Items)
	}
}

func TestSource_UnsupportedFilters(t *testing.T) {
	all := func(ctx context.Context) ([]item, error) { return []item{{Name: "a"}}, nil }
	cases := []struct {
		name string
		src  Source[item]
		f    Filters
		ok   bool
	}{
		{"no filter support", Source[item]{All: all}, Filters{FilterTags: {"t"}}, false},
		{"unknown criterion", Source[item]{All: all, Match: func(item, Filters) bool { return true }, Criteria: []string{FilterTags}}, Filters{"brand": {"b"}}, false},
		{"known criterion", Source[item]{All: all, Match: func(item, Filters) bool { return true }, Criteria: []string{FilterTags}}, Filters{FilterTags: {"t"}}, true},
		{"open criteria", Source[item]{All: all, Match: func(item, Filters) bool { return true }}, Filters{"brand": {"b"}}, true},
		{"blank values only", Source[item]{All: all}, Filters{"brand": {" "}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.src.Fetch(context.Background(), Query{Filters: tc.f})
			if tc.ok && err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrUnsupportedFilter) {
				t.Fatalf("err = %v; want ErrUnsupportedFilter", err)
			}
		})
	}
}

func TestController_UnsupportedFilterIsErrorState(t *testing.T) {
	c := New(Source[item]{All: func(ctx context.Context) ([]item, error) { return []item{{Name: "a"}}, nil }}, WithFilterDelay(0))
	defer c.Close()

	c.SetFilters(Filters{"brand": {"b1"}})
	s := waitFor(t, c, func(s State[item]) bool { return s.Committed })
	if !errors.Is(s.Err, ErrUnsupportedFilter) || s.Error == "" || len(s.Items) != 0 {
		t.Fatalf("state = %+v", s)
	}
}

func TestController_ErrorKeepsPreviousItems(t *testing.T) {
	g := newGatedSource()
	c := New(g.source(), WithKeywordDelay(0))
	defer c.Close()

	c.SetKeyword("ok")
	waitStarted(t, g, "ok")
	g.gate("ok") <- result{items: []item{{Name: "kept"}}}
	waitFor(t, c, func(s State[item]) bool { return s.Committed && !s.Loading })

	c.SetKeyword("bad")
	waitStarted(t, g, "bad")
	g.gate("bad") <- result{err: &transport.Error{Message: "Forbidden", Status: 403}}
	s := waitFor(t, c, func(s State[item]) bool { return s.Err != nil })

	if s.Error != "Forbidden" || s.ErrorStatus != 403 {
		t.Fatalf("error = %q/%d", s.Error, s.ErrorStatus)
	}
	if len(s.Items) != 1 || s.Items[0].Name != "kept" {
		t.Fatalf("items = %+v", s.Items)
	}
	if s.Loading {
		t.Fatalf("loading should be cleared on error")
	}
}

func TestController_PanicBecomesError(t *testing.T) {
	src := Source[item]{All: func(ctx context.Context) ([]item, error) { panic("adapter bug") }}
	c := New(src)
	defer c.Close()

	c.Refresh()
	s := waitFor(t, c, func(s State[item]) bool { return s.Committed })
	if s.Err == nil || s.Loading {
		t.Fatalf("expected committed error state, got %+v", s)
	}
}

func TestController_SubscribeVersionsIncrease(t *testing.T) {
	src := Source[item]{All: func(ctx context.Context) ([]item, error) { return []item{{Name: "a"}}, nil }}
	c := New(src)
	defer c.Close()

	var mu sync.Mutex
	var versions []uint64
	committed := make(chan struct{}, 1)
	unsub := c.Subscribe(func(s State[item]) {
		mu.Lock()
		versions = append(versions, s.Version)
		mu.Unlock()
		if s.Committed {
			committed <- struct{}{}
		}
	})
	defer unsub()

	c.Refresh()
	select {
	case <-committed:
	case <-time.After(time.Second):
		t.Fatalf("no committed notification")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(versions) < 2 {
		t.Fatalf("expected loading and committed notifications, got %v", versions)
	}
	seen := map[uint64]bool{}
	for _, v := range versions {
		if seen[v] {
			t.Fatalf("duplicate version %d in %v", v, versions)
		}
		seen[v] = true
	}
}

func TestController_EqualQueryIgnored(t *testing.T) {
	c := New(Source[item]{All: func(ctx context.Context) ([]item, error) { return nil, nil }}, WithKeywordDelay(time.Hour))
	defer c.Close()

	c.SetKeyword("  ")
	if s := c.Snapshot(); s.Version != 0 || s.Phase != PhaseIdle {
		t.Fatalf("blank keyword on a fresh controller should be a no-op: %+v", s)
	}
}

func TestController_ConcurrentKeywordAndFilters(t *testing.T) {
	for i := 0; i < 200; i++ {
		c := New(Source[item]{All: func(ctx context.Context) ([]item, error) { return nil, nil }},
			WithKeywordDelay(time.Hour), WithFilterDelay(time.Hour))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); c.SetKeyword("bolt") }()
		go func() { defer wg.Done(); c.SetFilters(Filters{FilterTags: {"t1"}}) }()
		wg.Wait()

		q := c.Snapshot().Query
		c.Close()
		if q.Keyword != "bolt" || !reflect.DeepEqual(q.Filters.Values(FilterTags), []string{"t1"}) {
			t.Fatalf("iteration %d lost an update: %+v", i, q)
		}
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := New(Source[item]{All: func(ctx context.Context) ([]item, error) { return nil, nil }}, WithName("products"))
	b := New(Source[item]{All: func(ctx context.Context) ([]item, error) { return nil, nil }}, WithName("expenses"))
	r.Register(a)
	r.Register(b)

	if got := r.Names(); !reflect.DeepEqual(got, []string{"expenses", "products"}) {
		t.Fatalf("names = %v", got)
	}
	if _, err := r.Get("nope"); !errors.Is(err, ErrUnknownList) {
		t.Fatalf("err = %v", err)
	}
	h, err := r.Get("products")
	if err != nil || h.Name() != "products" {
		t.Fatalf("get products: %v", err)
	}

	replacement := New(Source[item]{All: func(ctx context.Context) ([]item, error) { return nil, nil }}, WithName("products"))
	r.Register(replacement)
	a.SetKeyword("x")
	if a.Snapshot().Version != 0 {
		t.Fatalf("replaced controller should be closed")
	}

	views := r.Views()
	if len(views) != 2 || views[0].Name != "expenses" {
		t.Fatalf("views = %+v", views)
	}

	r.Close()
	if len(r.Names()) != 0 {
		t.Fatalf("registry should be empty after Close")
	}
}

func TestController_ViewPage(t *testing.T) {
	all := []item{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}, {Name: "e"}}
	c := New(Source[item]{All: func(ctx context.Context) ([]item, error) { return all, nil }}, WithName("products"))
	defer c.Close()

	c.Refresh()
	waitFor(t, c, func(s State[item]) bool { return s.Committed })

	cases := []struct {
		page, size int
		want       []string
	}{
		{1, 2, []string{"a", "b"}},
		{3, 2, []string{"e"}},
		{4, 2, []string{}},
		{0, 0, []string{"a"}},
	}
	for _, tc := range cases {
		v := c.ViewPage(tc.page, tc.size)
		s := v.State.(State[item])
		got := []string{}
		for _, it := range s.Items {
			got = append(got, it.Name)
		}
		if !reflect.DeepEqual(got, tc.want) || v.Total != 5 {
			t.Fatalf("page %d/%d = %v total %d; want %v total 5", tc.page, tc.size, got, v.Total, tc.want)
		}
	}
	if v := c.View(); v.Total != 5 || v.Page != 0 {
		t.Fatalf("unpaged view = %+v", v)
	}
}
