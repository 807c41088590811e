package listquery

import (
	"errors"
	"sort"
	"sync"
)

// ErrUnknownList is returned when a Registry has no list by that name.
var ErrUnknownList = errors.New("listquery: unknown list")

// View is the type-erased state of a list, as served to presentation code.
// Total is the number of committed items; when the view is paged, State
// holds only the requested window and Page/PageSize describe it.
type View struct {
	Name     string `json:"name"`
	State    any    `json:"state"`
	Total    int    `json:"total"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"pageSize,omitempty"`
}

// Handle is the type-erased surface of a Controller.
type Handle interface {
	Name() string
	SetQuery(q Query)
	Refresh()
	View() View
	ViewPage(page, pageSize int) View
	Close()
}

// View returns the controller's snapshot under its name.
func (c *Controller[T]) View() View {
	s := c.Snapshot()
	return View{Name: c.Name(), State: s, Total: len(s.Items)}
}

// ViewPage is View restricted to one 1-based page of items. A page past
// the end yields an empty item slice; page and pageSize below 1 are
// raised to 1.
func (c *Controller[T]) ViewPage(page, pageSize int) View {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	s := c.Snapshot()
	total := len(s.Items)
	lo := min((page-1)*pageSize, total)
	hi := min(lo+pageSize, total)
	s.Items = s.Items[lo:hi:hi]
	return View{Name: c.Name(), State: s, Total: total, Page: page, PageSize: pageSize}
}

var _ Handle = (*Controller[struct{}])(nil)

// Registry holds the controllers of all open list screens.
type Registry struct {
	mu    sync.RWMutex
	lists map[string]Handle
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{lists: map[string]Handle{}}
}

// Register adds h, closing and replacing any list with the same name.
func (r *Registry) Register(h Handle) {
	r.mu.Lock()
	old := r.lists[h.Name()]
	r.lists[h.Name()] = h
	r.mu.Unlock()
	if old != nil && old != h {
		old.Close()
	}
}

// Get looks up a list by name.
func (r *Registry) Get(name string) (Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.lists[name]
	if !ok {
		return nil, ErrUnknownList
	}
	return h, nil
}

// Names returns the registered list names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.lists))
	for n := range r.lists {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Views returns the state of every list, sorted by name.
func (r *Registry) Views() []View {
	names := r.Names()
	out := make([]View, 0, len(names))
	for _, n := range names {
		if h, err := r.Get(n); err == nil {
			out = append(out, h.View())
		}
	}
	return out
}

// Close tears down every list.
func (r *Registry) Close() {
	r.mu.Lock()
	lists := r.lists
	r.lists = map[string]Handle{}
	r.mu.Unlock()
	for _, h := range lists {
		h.Close()
	}
}
