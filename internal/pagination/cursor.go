// Package pagination drives multi-page list requests.
//
// A Cursor is a single-pass state machine. The caller asks it for the first
// request, fetches that page, feeds the page back and receives the new
// de-duplicated items plus the next request, until the cursor reports Done.
package pagination

// State is the cursor's position in its lifecycle.
type State int

const (
	StateStart State = iota
	StateInProgress
	StateDone
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateInProgress:
		return "in_progress"
	default:
		return "done"
	}
}

// Mode selects how the next page is addressed.
type Mode int

const (
	// ModeOffset advances an offset by the number of items received.
	ModeOffset Mode = iota
	// ModeToken follows the continuation token returned with each page.
	ModeToken
)

// Request addresses one page.
type Request struct {
	Offset int
	Limit  int
	Token  string // ModeToken only; empty for the first page
}

// Page is one fetched page.
type Page[T any] struct {
	Items     []T
	NextToken string
}

// Step is the cursor's answer to Next.
type Step[T any] struct {
	Items   []T      // new items from the page just consumed, in order
	Request *Request // next page to fetch; nil when Done
	Done    bool
}

// Cursor tracks pagination progress for one list call.
type Cursor[T any, K comparable] struct {
	mode     Mode
	limit    int
	identity func(T) K

	state   State
	offset  int
	token   string
	pending *Request
	count   int
	pages   int
	seen    map[K]struct{}
	tokens  map[string]struct{}
}

// NewCursor creates a cursor fetching limit items per page. identity keys
// items for de-duplication across pages.
func NewCursor[T any, K comparable](mode Mode, limit int, identity func(T) K) *Cursor[T, K] {
	if limit <= 0 {
		limit = 100
	}
	return &Cursor[T, K]{
		mode:     mode,
		limit:    limit,
		identity: identity,
		seen:     make(map[K]struct{}),
		tokens:   make(map[string]struct{}),
	}
}

// Next advances the cursor. The first call must pass nil and yields the
// first request. Later calls pass the page fetched for the last request.
// Passing nil while in progress repeats the pending request without
// advancing. Once Done, every call returns Done.
func (c *Cursor[T, K]) Next(prev *Page[T]) Step[T] {
	switch c.state {
	case StateDone:
		return Step[T]{Done: true}
	case StateStart:
		c.state = StateInProgress
		c.pending = &Request{Offset: 0, Limit: c.limit}
		return Step[T]{Request: c.pending}
	}

	if prev == nil {
		req := *c.pending
		return Step[T]{Request: &req}
	}

	c.pages++
	items := c.dedupe(prev.Items)
	c.count += len(items)
	c.offset += len(prev.Items)

	if c.finished(prev) {
		c.state = StateDone
		c.pending = nil
		return Step[T]{Items: items, Done: true}
	}

	c.pending = &Request{Offset: c.offset, Limit: c.limit, Token: c.token}
	return Step[T]{Items: items, Request: c.pending}
}

func (c *Cursor[T, K]) finished(prev *Page[T]) bool {
	if c.mode == ModeToken {
		if prev.NextToken == "" {
			return true
		}
		// A token seen before would loop forever.
		if _, dup := c.tokens[prev.NextToken]; dup {
			return true
		}
		c.tokens[prev.NextToken] = struct{}{}
		c.token = prev.NextToken
		return false
	}
	return len(prev.Items) < c.limit
}

func (c *Cursor[T, K]) dedupe(in []T) []T {
	out := make([]T, 0, len(in))
	for _, item := range in {
		if c.identity != nil {
			key := c.identity(item)
			if _, dup := c.seen[key]; dup {
				continue
			}
			c.seen[key] = struct{}{}
		}
		out = append(out, item)
	}
	return out
}

// State returns the current lifecycle state.
func (c *Cursor[T, K]) State() State { return c.state }

// Offset returns the number of raw items consumed so far.
func (c *Cursor[T, K]) Offset() int { return c.offset }

// Count returns the number of distinct items yielded so far.
func (c *Cursor[T, K]) Count() int { return c.count }

// Pages returns the number of pages consumed.
func (c *Cursor[T, K]) Pages() int { return c.pages }

// Limit returns the page size.
func (c *Cursor[T, K]) Limit() int { return c.limit }
