package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/jenkinsrest/internal/foundation/errors"
	"git.home.luguber.info/inful/jenkinsrest/internal/operation"
	"git.home.luguber.info/inful/jenkinsrest/internal/pagination"
	"git.home.luguber.info/inful/jenkinsrest/internal/retry"
	"git.home.luguber.info/inful/jenkinsrest/internal/transport"
)

type job struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func TestDo_DecodesJSON(t *testing.T) {
	exec := &scripted{outcomes: []outcome{{status: http.StatusOK, body: `{"name":"deploy","color":"blue"}`}}}
	o, _ := newTestOrchestrator(exec, retry.DefaultPolicy())

	res, err := Do[job](context.Background(), o, getJob, nil)
	require.NoError(t, err)
	assert.Equal(t, job{Name: "deploy", Color: "blue"}, res.Value)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, http.StatusOK, res.Status)
}

func TestDo_StringPassthrough(t *testing.T) {
	exec := &scripted{outcomes: []outcome{{status: http.StatusOK, body: "<project/>"}}}
	o, _ := newTestOrchestrator(exec, retry.DefaultPolicy())

	res, err := Do[string](context.Background(), o, operation.Get("job.config", "job/x/config.xml"), nil)
	require.NoError(t, err)
	assert.Equal(t, "<project/>", res.Value)
}

func TestDo_DecodeFailureIsUnknown(t *testing.T) {
	exec := &scripted{outcomes: []outcome{{status: http.StatusOK, body: `<html>not json</html>`}}}
	o, _ := newTestOrchestrator(exec, retry.DefaultPolicy())

	_, err := Do[job](context.Background(), o, getJob, nil)
	require.Error(t, err)
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, errors.KindUnknown, ce.Kind())
	assert.Equal(t, 1, ce.Attempts())
	assert.Equal(t, 1, exec.Calls())
}

func TestDo_EmptyBodyLeavesZero(t *testing.T) {
	exec := &scripted{outcomes: []outcome{status(http.StatusNoContent)}}
	o, _ := newTestOrchestrator(exec, retry.DefaultPolicy())

	res, err := Do[job](context.Background(), o, getJob, nil)
	require.NoError(t, err)
	assert.Equal(t, job{}, res.Value)
}

type buildRef struct {
	Number int `json:"number"`
}

type buildsPage struct {
	AllBuilds []buildRef `json:"allBuilds"`
}

// rangeCodec pages with a start/end query pair.
func rangeCodec() PageCodec[buildRef] {
	return PageCodec[buildRef]{
		Mode: pagination.ModeOffset,
		Apply: func(d operation.Descriptor, req pagination.Request) operation.Descriptor {
			return d.WithQuery("start", strconv.Itoa(req.Offset)).WithQuery("end", strconv.Itoa(req.Offset+req.Limit))
		},
		Decode: JSONPage(func(p buildsPage) []buildRef { return p.AllBuilds }),
	}
}

func buildServer(t *testing.T, total int, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		end, _ := strconv.Atoi(r.URL.Query().Get("end"))
		var page buildsPage
		for n := start; n < end && n < total; n++ {
			page.AllBuilds = append(page.AllBuilds, buildRef{Number: n})
		}
		_ = json.NewEncoder(w).Encode(page)
	}))
}

func TestFetchAll_PagesInOrder(t *testing.T) {
	const pageSize, tail = 4, 3
	var requests atomic.Int32
	srv := buildServer(t, 3*pageSize+tail, &requests)
	defer srv.Close()

	a, err := transport.New(transport.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	o := New(a, retry.DefaultPolicy(), WithPageSize(pageSize))

	d := operation.Get("job.builds", "job/x/api/json").Paginated()
	items, err := Collect(FetchAll(context.Background(), o, d, rangeCodec(), func(b buildRef) int { return b.Number }))
	require.NoError(t, err)

	require.Len(t, items, 3*pageSize+tail)
	for i, b := range items {
		assert.Equal(t, i, b.Number)
	}
	assert.Equal(t, int32(4), requests.Load())
}

func TestFetchAll_DeduplicatesOverlap(t *testing.T) {
	exec := &scripted{outcomes: []outcome{
		{status: 200, body: `{"allBuilds":[{"number":9},{"number":8}]}`},
		{status: 200, body: `{"allBuilds":[{"number":8},{"number":7}]}`},
		{status: 200, body: `{"allBuilds":[{"number":6}]}`},
	}}
	o, _ := newTestOrchestrator(exec, retry.DefaultPolicy(), WithPageSize(2))

	items, err := Collect(FetchAll(context.Background(), o, operation.Get("job.builds", "x").Paginated(), rangeCodec(),
		func(b buildRef) int { return b.Number }))
	require.NoError(t, err)
	assert.Equal(t, []buildRef{{9}, {8}, {7}, {6}}, items)
}

func TestFetchAll_StopsOnError(t *testing.T) {
	exec := &scripted{outcomes: []outcome{
		{status: 200, body: `{"allBuilds":[{"number":1},{"number":2}]}`},
		status(http.StatusNotFound),
	}}
	o, _ := newTestOrchestrator(exec, retry.DefaultPolicy(), WithPageSize(2))

	items, err := Collect(FetchAll(context.Background(), o, operation.Get("job.builds", "x").Paginated(), rangeCodec(),
		func(b buildRef) int { return b.Number }))
	require.Error(t, err)
	assert.True(t, errors.HasKind(err, errors.KindNotFound))
	assert.Len(t, items, 2)
	assert.Equal(t, 2, exec.Calls())
}

func TestFetchAll_EarlyBreakStopsRequests(t *testing.T) {
	var requests atomic.Int32
	srv := buildServer(t, 100, &requests)
	defer srv.Close()

	a, err := transport.New(transport.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	o := New(a, retry.DefaultPolicy(), WithPageSize(5))

	seen := 0
	for b, err := range FetchAll(context.Background(), o, operation.Get("job.builds", "x").Paginated(), rangeCodec(),
		func(b buildRef) int { return b.Number }) {
		require.NoError(t, err)
		seen++
		if b.Number == 6 {
			break
		}
	}
	assert.Equal(t, 7, seen)
	assert.Equal(t, int32(2), requests.Load())
}

func TestFetchAll_SharedRequestID(t *testing.T) {
	exec := &scripted{outcomes: []outcome{
		{status: 200, body: `{"allBuilds":[{"number":1}]}`},
	}}
	o, _ := newTestOrchestrator(exec, retry.DefaultPolicy(), WithPageSize(5))
	_, err := Collect(FetchAll(context.Background(), o, operation.Get("job.builds", "x").Paginated(), rangeCodec(),
		func(b buildRef) int { return b.Number }))
	require.NoError(t, err)
	require.Len(t, exec.ids, 1)
	assert.NotEmpty(t, exec.ids[0])
	assert.False(t, strings.Contains(exec.ids[0], " "))
	assert.Equal(t, "5", exec.descs[0].Query().Get("end"), fmt.Sprint(exec.descs[0]))
}

func TestFetchAll_RejectsPlainDescriptor(t *testing.T) {
	exec := &scripted{outcomes: []outcome{{status: 200, body: `{"allBuilds":[{"number":1}]}`}}}
	o, _ := newTestOrchestrator(exec, retry.DefaultPolicy())

	items, err := Collect(FetchAll(context.Background(), o, operation.Get("job.builds", "x"), rangeCodec(),
		func(b buildRef) int { return b.Number }))
	require.Error(t, err)
	assert.True(t, errors.HasKind(err, errors.KindInvalidRequest))
	assert.Empty(t, items)
	assert.Equal(t, 0, exec.Calls())
}

// slowPages returns one full page per call after a delay, forever.
type slowPages struct {
	delay time.Duration
	calls atomic.Int32
}

func (s *slowPages) Execute(ctx context.Context, _ operation.Descriptor, _ any) (*transport.RawResponse, error) {
	n := s.calls.Add(1)
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	body := fmt.Sprintf(`{"allBuilds":[{"number":%d}]}`, n)
	return &transport.RawResponse{Status: http.StatusOK, Header: http.Header{}, Body: []byte(body)}, nil
}

func TestFetchAll_TotalDeadlineBoundsWholeWalk(t *testing.T) {
	exec := &slowPages{delay: 60 * time.Millisecond}
	o, _ := newTestOrchestrator(exec, retry.DefaultPolicy(),
		WithPageSize(1), WithTotalDeadline(150*time.Millisecond))

	start := time.Now()
	items, err := Collect(FetchAll(context.Background(), o, operation.Get("job.builds", "x").Paginated(), rangeCodec(),
		func(b buildRef) int { return b.Number }))
	require.Error(t, err)
	assert.True(t, errors.HasKind(err, errors.KindTimeout), err.Error())
	assert.Less(t, len(items), 3)
	assert.Less(t, time.Since(start), time.Second)
}
