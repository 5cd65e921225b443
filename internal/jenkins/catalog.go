package jenkins

import (
	"net/http"
	"slices"
	"strconv"

	"git.home.luguber.info/inful/jenkinsrest/internal/operation"
)

// actionStatuses are the outcomes of form-style actions. Jenkins answers
// most of them with a redirect to the affected page.
var actionStatuses = []int{http.StatusOK, http.StatusCreated, http.StatusNoContent, http.StatusFound, http.StatusSeeOther}

// BuildFields is the tree selection used for build listings.
const BuildFields = "number,url,result,building,timestamp,duration,displayName"

func jobOp(name, method, folder, job, suffix string) operation.Descriptor {
	return operation.New(name, method, "{job...}/"+suffix).Bind("job", JobPath(folder, job))
}

func buildOp(name, method, folder, job string, number int, suffix string) operation.Descriptor {
	return jobOp(name, method, folder, job, "{build}/"+suffix).Bind("build", buildRef(number))
}

// JobListOp lists the jobs of the root or of folder.
func JobListOp(folder string) operation.Descriptor {
	if p := FolderPath(folder); p != "" {
		return operation.Get("jobs.list", "{folder...}/api/json").Bind("folder", p)
	}
	return operation.Get("jobs.list", "api/json")
}

// JobInfoOp reads a job.
func JobInfoOp(folder, job string) operation.Descriptor {
	return jobOp("jobs.info", http.MethodGet, folder, job, "api/json")
}

// BuildInfoOp reads one build; number zero selects the last build.
func BuildInfoOp(folder, job string, number int) operation.Descriptor {
	return buildOp("jobs.build_info", http.MethodGet, folder, job, number, "api/json")
}

// BuildsOp lists every build of a job. It is paginated through the tree
// range of allBuilds.
func BuildsOp(folder, job string) operation.Descriptor {
	return jobOp("jobs.builds", http.MethodGet, folder, job, "api/json").Paginated()
}

// TriggerBuildOp starts a build. The queue item is named by the Location
// header.
func TriggerBuildOp(folder, job string) operation.Descriptor {
	return jobOp("jobs.build", http.MethodPost, folder, job, "build").Expect(http.StatusCreated)
}

// TriggerBuildWithParametersOp starts a parameterized build from a form
// body.
func TriggerBuildWithParametersOp(folder, job string) operation.Descriptor {
	return jobOp("jobs.build_with_parameters", http.MethodPost, folder, job, "buildWithParameters").
		Expect(http.StatusCreated)
}

// StopBuildOp aborts a running build. TermBuildOp and KillBuildOp escalate.
func StopBuildOp(folder, job string, number int) operation.Descriptor {
	return buildOp("jobs.stop", http.MethodPost, folder, job, number, "stop").Expect(actionStatuses...)
}

func TermBuildOp(folder, job string, number int) operation.Descriptor {
	return buildOp("jobs.term", http.MethodPost, folder, job, number, "term").Expect(actionStatuses...)
}

func KillBuildOp(folder, job string, number int) operation.Descriptor {
	return buildOp("jobs.kill", http.MethodPost, folder, job, number, "kill").Expect(actionStatuses...)
}

func EnableJobOp(folder, job string) operation.Descriptor {
	return jobOp("jobs.enable", http.MethodPost, folder, job, "enable").Expect(actionStatuses...)
}

func DisableJobOp(folder, job string) operation.Descriptor {
	return jobOp("jobs.disable", http.MethodPost, folder, job, "disable").Expect(actionStatuses...)
}

func DeleteJobOp(folder, job string) operation.Descriptor {
	return jobOp("jobs.delete", http.MethodPost, folder, job, "doDelete").Expect(actionStatuses...)
}

// CreateJobOp creates job from a config.xml body.
func CreateJobOp(folder, job string) operation.Descriptor {
	var d operation.Descriptor
	if p := FolderPath(folder); p != "" {
		d = operation.Post("jobs.create", "{folder...}/createItem").Bind("folder", p)
	} else {
		d = operation.Post("jobs.create", "createItem")
	}
	return d.WithQuery("name", job).WithContentType(operation.ContentXML).Expect(actionStatuses...)
}

func JobConfigOp(folder, job string) operation.Descriptor {
	return jobOp("jobs.config", http.MethodGet, folder, job, "config.xml").WithAccept(operation.ContentXML)
}

func UpdateJobConfigOp(folder, job string) operation.Descriptor {
	return jobOp("jobs.update_config", http.MethodPost, folder, job, "config.xml").
		WithContentType(operation.ContentXML).
		Expect(actionStatuses...)
}

func JobDescriptionOp(folder, job string) operation.Descriptor {
	return jobOp("jobs.description", http.MethodGet, folder, job, "description").WithAccept(operation.ContentText)
}

// SetJobDescriptionOp takes a form body with a description field.
func SetJobDescriptionOp(folder, job string) operation.Descriptor {
	return jobOp("jobs.set_description", http.MethodPost, folder, job, "description").Expect(actionStatuses...)
}

func RenameJobOp(folder, job, newName string) operation.Descriptor {
	return jobOp("jobs.rename", http.MethodPost, folder, job, "doRename").
		WithQuery("newName", newName).
		Expect(actionStatuses...)
}

func LastBuildNumberOp(folder, job string) operation.Descriptor {
	return jobOp("jobs.last_build_number", http.MethodGet, folder, job, "lastBuild/buildNumber").
		WithAccept(operation.ContentText)
}

func LastBuildTimestampOp(folder, job string) operation.Descriptor {
	return jobOp("jobs.last_build_timestamp", http.MethodGet, folder, job, "lastBuild/buildTimestamp").
		WithAccept(operation.ContentText)
}

// ProgressiveTextOp reads console output from byte offset start; number
// zero selects the last build.
func ProgressiveTextOp(folder, job string, number, start int) operation.Descriptor {
	return buildOp("jobs.progressive_text", http.MethodGet, folder, job, number, "logText/progressiveText").
		WithQuery("start", strconv.Itoa(start)).
		WithAccept(operation.ContentText)
}

func QueueOp() operation.Descriptor {
	return operation.Get("queue.list", "queue/api/json")
}

func QueueItemOp(id int64) operation.Descriptor {
	return operation.Get("queue.item", "queue/item/{id}/api/json").Bind("id", strconv.FormatInt(id, 10))
}

// CancelQueueItemOp takes a form body with the item id. Older controllers
// answer a successful cancel with 404 (JENKINS-21311), so it counts as
// success.
func CancelQueueItemOp() operation.Descriptor {
	return operation.Post("queue.cancel", "queue/cancelItem").Expect(slices.Concat(actionStatuses, []int{http.StatusNotFound})...)
}

// SystemInfoOp is a HEAD on the root; the answer is in the headers.
func SystemInfoOp() operation.Descriptor {
	return operation.New("system.info", http.MethodHead, "")
}

func QuietDownOp() operation.Descriptor {
	return operation.Post("system.quiet_down", "quietDown").Expect(actionStatuses...)
}

func CancelQuietDownOp() operation.Descriptor {
	return operation.Post("system.cancel_quiet_down", "cancelQuietDown").Expect(actionStatuses...)
}

// PluginsOp lists installed plugins. A zero depth and empty tree are
// omitted.
func PluginsOp(depth int, tree string) operation.Descriptor {
	d := operation.Get("plugins.list", "pluginManager/api/json")
	if depth > 0 {
		d = d.WithQuery("depth", strconv.Itoa(depth))
	}
	if tree != "" {
		d = d.WithQuery("tree", tree)
	}
	return d
}

// InstallPluginOp takes an XML install request body.
func InstallPluginOp() operation.Descriptor {
	return operation.Post("plugins.install", "pluginManager/installNecessaryPlugins").
		WithContentType(operation.ContentXML).
		Expect(actionStatuses...)
}

// CurrentUserOp reads the account named by user, or the caller's own
// account when user is empty.
func CurrentUserOp(user string) operation.Descriptor {
	if user == "" {
		return operation.Get("user.current", "me/api/json")
	}
	return operation.Get("user.current", "user/{user}/api/json").Bind("user", user)
}

const tokenDescriptor = "descriptorByName/jenkins.security.ApiTokenProperty/"

// GenerateTokenOp takes a form body with newTokenName.
func GenerateTokenOp(user string) operation.Descriptor {
	return operation.Post("user.generate_token", "user/{user}/"+tokenDescriptor+"generateNewToken").Bind("user", user)
}

// RevokeTokenOp takes a form body with tokenUuid.
func RevokeTokenOp(user string) operation.Descriptor {
	return operation.Post("user.revoke_token", "user/{user}/"+tokenDescriptor+"revoke").
		Bind("user", user).
		Expect(actionStatuses...)
}

func CheckCasCOp() operation.Descriptor {
	return operation.Post("casc.check", "configuration-as-code/check").
		WithContentType(operation.ContentText).
		Expect(actionStatuses...)
}

func ApplyCasCOp() operation.Descriptor {
	return operation.Post("casc.apply", "configuration-as-code/apply").
		WithContentType(operation.ContentText).
		Expect(actionStatuses...)
}

func OverallLoadOp() operation.Descriptor {
	return operation.Get("statistics.overall_load", "overallLoad/api/json").WithQuery("depth", "1")
}

// CrumbOp reads the CSRF crumb for the current session.
func CrumbOp() operation.Descriptor {
	return operation.Get("crumb.issue", "crumbIssuer/api/json")
}
