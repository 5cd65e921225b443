package pagination

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type build struct{ Number int }

func byNumber(b build) int { return b.Number }

func builds(from, n int) []build {
	out := make([]build, n)
	for i := range out {
		out[i] = build{Number: from + i}
	}
	return out
}

// drain feeds pages in order and collects every yielded item.
func drain(t *testing.T, c *Cursor[build, int], pages [][]build) ([]build, []Request) {
	t.Helper()
	var items []build
	var requests []Request

	step := c.Next(nil)
	for i := 0; !step.Done; i++ {
		require.NotNil(t, step.Request)
		requests = append(requests, *step.Request)
		require.Less(t, i, len(pages), "cursor asked for more pages than exist")
		step = c.Next(&Page[build]{Items: pages[i]})
		items = append(items, step.Items...)
	}
	return items, requests
}

func TestCursor_FullPagesThenShortPage(t *testing.T) {
	const n = 5
	c := NewCursor(ModeOffset, n, byNumber)
	pages := [][]build{builds(0, n), builds(n, n), builds(2*n, n), builds(3*n, 2)}

	items, requests := drain(t, c, pages)

	require.Len(t, items, 3*n+2)
	for i, b := range items {
		assert.Equal(t, i, b.Number)
	}
	assert.Equal(t, []Request{{0, n, ""}, {n, n, ""}, {2 * n, n, ""}, {3 * n, n, ""}}, requests)
	assert.Equal(t, StateDone, c.State())
	assert.Equal(t, 4, c.Pages())
	assert.Equal(t, 3*n+2, c.Count())
}

func TestCursor_EmptyLastPage(t *testing.T) {
	c := NewCursor(ModeOffset, 3, byNumber)
	items, requests := drain(t, c, [][]build{builds(0, 3), builds(3, 3), nil})
	assert.Len(t, items, 6)
	assert.Len(t, requests, 3)
}

func TestCursor_DeduplicatesAcrossPages(t *testing.T) {
	c := NewCursor(ModeOffset, 3, byNumber)
	// A new build shifted the window, so page two repeats build 2.
	pages := [][]build{
		{{0}, {1}, {2}},
		{{2}, {3}, {4}},
		{{5}},
	}
	items, requests := drain(t, c, pages)

	assert.Equal(t, []build{{0}, {1}, {2}, {3}, {4}, {5}}, items)
	// Offset follows raw items and never regresses.
	assert.Equal(t, []int{0, 3, 6}, []int{requests[0].Offset, requests[1].Offset, requests[2].Offset})
	assert.Equal(t, 7, c.Offset())
	assert.Equal(t, 6, c.Count())
}

func TestCursor_SinglePass(t *testing.T) {
	c := NewCursor(ModeOffset, 10, byNumber)
	c.Next(nil)
	step := c.Next(&Page[build]{Items: builds(0, 2)})
	require.True(t, step.Done)

	for range 3 {
		step = c.Next(&Page[build]{Items: builds(100, 10)})
		assert.True(t, step.Done)
		assert.Empty(t, step.Items)
		assert.Nil(t, step.Request)
	}
}

func TestCursor_NilPageRepeatsRequest(t *testing.T) {
	c := NewCursor(ModeOffset, 2, byNumber)
	first := c.Next(nil)
	c.Next(&Page[build]{Items: builds(0, 2)})

	again := c.Next(nil)
	require.NotNil(t, again.Request)
	assert.Equal(t, 2, again.Request.Offset)
	assert.NotEqual(t, first.Request.Offset, again.Request.Offset)
	assert.Equal(t, StateInProgress, c.State())
}

func TestCursor_TokenMode(t *testing.T) {
	c := NewCursor(ModeToken, 2, byNumber)

	step := c.Next(nil)
	assert.Empty(t, step.Request.Token)

	step = c.Next(&Page[build]{Items: builds(0, 2), NextToken: "t1"})
	require.False(t, step.Done)
	assert.Equal(t, "t1", step.Request.Token)

	step = c.Next(&Page[build]{Items: builds(2, 2), NextToken: "t2"})
	require.False(t, step.Done)
	assert.Equal(t, "t2", step.Request.Token)

	step = c.Next(&Page[build]{Items: builds(4, 1)})
	assert.True(t, step.Done)
	assert.Equal(t, 5, c.Count())
}

func TestCursor_RepeatedTokenStops(t *testing.T) {
	c := NewCursor(ModeToken, 2, byNumber)
	c.Next(nil)
	c.Next(&Page[build]{Items: builds(0, 2), NextToken: "same"})
	step := c.Next(&Page[build]{Items: builds(2, 2), NextToken: "same"})

	assert.True(t, step.Done)
	assert.Len(t, step.Items, 2)
}

func TestCursor_DefaultLimit(t *testing.T) {
	c := NewCursor[build, int](ModeOffset, 0, nil)
	assert.Equal(t, 100, c.Limit())
	step := c.Next(nil)
	assert.Equal(t, 100, step.Request.Limit)
}

func TestState_String(t *testing.T) {
	for s, want := range map[State]string{StateStart: "start", StateInProgress: "in_progress", StateDone: "done"} {
		assert.Equal(t, want, fmt.Sprint(s))
	}
}
