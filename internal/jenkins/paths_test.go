package jenkins

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFolderPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"team", "job/team"},
		{"team/infra", "job/team/job/infra"},
		{"/team//infra/", "job/team/job/infra"},
		{"job/team/job/infra", "job/team/job/infra"},
		{"job/job", "job/job"},
		{"team/job/infra", "job/team/job/infra"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FolderPath(tt.in))
		})
	}
}

func TestJobPath(t *testing.T) {
	assert.Equal(t, "job/deploy", JobPath("", "deploy"))
	assert.Equal(t, "job/team/job/deploy", JobPath("team", "deploy"))
}

func TestTreeRange(t *testing.T) {
	assert.Equal(t, "allBuilds[number,url]{100,200}", TreeRange("allBuilds", "number,url", 100, 100))
}

func TestQueueIDFromLocation(t *testing.T) {
	id, ok := QueueIDFromLocation("http://ci.example.com/queue/item/42/")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, ok = QueueIDFromLocation("http://ci.example.com/queue/item/42")
	assert.False(t, ok)
	_, ok = QueueIDFromLocation("http://ci.example.com/job/deploy/")
	assert.False(t, ok)
}

func TestCatalogPaths(t *testing.T) {
	tests := []struct {
		name string
		path func() (string, error)
		want string
	}{
		{"job info in folder", JobInfoOp("team", "deploy").Path, "job/team/job/deploy/api/json"},
		{"last build info", BuildInfoOp("", "deploy", 0).Path, "job/deploy/lastBuild/api/json"},
		{"build info", BuildInfoOp("", "deploy", 7).Path, "job/deploy/7/api/json"},
		{"stop", StopBuildOp("team", "deploy", 7).Path, "job/team/job/deploy/7/stop"},
		{"create in root", CreateJobOp("", "deploy").Path, "createItem"},
		{"create in folder", CreateJobOp("team", "deploy").Path, "job/team/createItem"},
		{"progressive text", ProgressiveTextOp("", "deploy", 3, 0).Path, "job/deploy/3/logText/progressiveText"},
		{"job names are escaped", JobInfoOp("", "my job").Path, "job/my%20job/api/json"},
		{"token generation", GenerateTokenOp("alice").Path,
			"user/alice/descriptorByName/jenkins.security.ApiTokenProperty/generateNewToken"},
		{"anonymous user", CurrentUserOp("").Path, "me/api/json"},
		{"root", SystemInfoOp().Path, ""},
		{"quiet down", QuietDownOp().Path, "quietDown"},
		{"plugins", PluginsOp(0, "").Path, "pluginManager/api/json"},
		{"install plugin", InstallPluginOp().Path, "pluginManager/installNecessaryPlugins"},
		{"casc check", CheckCasCOp().Path, "configuration-as-code/check"},
		{"casc apply", ApplyCasCOp().Path, "configuration-as-code/apply"},
		{"revoke token", RevokeTokenOp("alice").Path,
			"user/alice/descriptorByName/jenkins.security.ApiTokenProperty/revoke"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.path()
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalogIdempotency(t *testing.T) {
	assert.True(t, JobInfoOp("", "x").IsIdempotent())
	assert.True(t, BuildsOp("", "x").IsPaginated())
	assert.False(t, TriggerBuildOp("", "x").IsIdempotent())
	assert.False(t, CancelQueueItemOp().IsIdempotent())
	assert.True(t, CancelQueueItemOp().IsExpected(404))
	assert.True(t, StopBuildOp("", "x", 1).IsExpected(302))
	assert.Equal(t, "2", PluginsOp(2, "plugins[shortName]").Query().Get("depth"))
	assert.Empty(t, PluginsOp(0, "").Query())
}
