package operation

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/jenkinsrest/internal/foundation/errors"
)

func TestNew_IdempotencyFollowsMethod(t *testing.T) {
	tests := []struct {
		method string
		want   bool
	}{
		{http.MethodGet, true},
		{http.MethodHead, true},
		{http.MethodPut, true},
		{http.MethodDelete, true},
		{http.MethodPost, false},
		{"post", false},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			d := New("op", tt.method, "/x")
			assert.Equal(t, tt.want, d.IsIdempotent())
		})
	}
}

func TestDescriptor_WithMethodsDoNotMutate(t *testing.T) {
	base := Get("job.info", "job/{name}/api/json")
	bound := base.Bind("name", "foo").WithQuery("tree", "builds[number]").Expect(200).Paginated().Idempotent(false)

	_, ok := base.Param("name")
	assert.False(t, ok)
	assert.Empty(t, base.Query())
	assert.False(t, base.IsPaginated())
	assert.True(t, base.IsIdempotent())

	v, ok := bound.Param("name")
	require.True(t, ok)
	assert.Equal(t, "foo", v)
	assert.Equal(t, "builds[number]", bound.Query().Get("tree"))
	assert.True(t, bound.IsPaginated())
	assert.False(t, bound.IsIdempotent())

	// Mutating the returned query must not leak back.
	q := bound.Query()
	q.Set("tree", "other")
	assert.Equal(t, "builds[number]", bound.Query().Get("tree"))
}

func TestDescriptor_Path(t *testing.T) {
	tests := []struct {
		name     string
		template string
		params   map[string]string
		want     string
	}{
		{"no params", "api/json", nil, "api/json"},
		{"single param", "job/{name}/api/json", map[string]string{"name": "build me"}, "job/build%20me/api/json"},
		{"escaped slash", "job/{name}/api/json", map[string]string{"name": "a/b"}, "job/a%2Fb/api/json"},
		{"raw segments", "{folder...}/job/{name}/api/json", map[string]string{"folder": "job/team/job/infra", "name": "deploy"}, "job/team/job/infra/job/deploy/api/json"},
		{"two params", "job/{name}/{number}/stop", map[string]string{"name": "x", "number": "42"}, "job/x/42/stop"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Get("op", tt.template)
			for k, v := range tt.params {
				d = d.Bind(k, v)
			}
			got, err := d.Path()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescriptor_PathUnboundParam(t *testing.T) {
	_, err := Get("op", "job/{name}/api/json").Path()
	require.Error(t, err)
	assert.True(t, errors.HasKind(err, errors.KindInvalidRequest))

	_, err = Get("op", "job/{name/api/json").Bind("name", "x").Path()
	require.Error(t, err)
}

func TestDescriptor_IsExpected(t *testing.T) {
	d := Get("op", "x")
	assert.True(t, d.IsExpected(200))
	assert.True(t, d.IsExpected(204))
	assert.False(t, d.IsExpected(302))

	d = Post("op", "x").Expect(http.StatusCreated, http.StatusFound)
	assert.True(t, d.IsExpected(http.StatusFound))
	assert.False(t, d.IsExpected(http.StatusOK))
}
