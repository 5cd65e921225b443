package jenkins

import "strconv"

// Job is an entry of a job listing.
type Job struct {
	Class string `json:"_class"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	Color string `json:"color"`
}

// JobList is the job listing of the root or a folder.
type JobList struct {
	Class string `json:"_class"`
	URL   string `json:"url"`
	Jobs  []Job  `json:"jobs"`
}

// BuildRef is a build as listed on its job.
type BuildRef struct {
	Number      int    `json:"number"`
	URL         string `json:"url"`
	Result      string `json:"result"`
	Building    bool   `json:"building"`
	Timestamp   int64  `json:"timestamp"`
	Duration    int64  `json:"duration"`
	DisplayName string `json:"displayName"`
}

// JobInfo describes a job.
type JobInfo struct {
	Name                string     `json:"name"`
	DisplayName         string     `json:"displayName"`
	FullName            string     `json:"fullName"`
	Description         string     `json:"description"`
	URL                 string     `json:"url"`
	Color               string     `json:"color"`
	Buildable           bool       `json:"buildable"`
	InQueue             bool       `json:"inQueue"`
	ConcurrentBuild     bool       `json:"concurrentBuild"`
	KeepDependencies    bool       `json:"keepDependencies"`
	NextBuildNumber     int        `json:"nextBuildNumber"`
	Builds              []BuildRef `json:"builds"`
	FirstBuild          *BuildRef  `json:"firstBuild"`
	LastBuild           *BuildRef  `json:"lastBuild"`
	LastCompletedBuild  *BuildRef  `json:"lastCompletedBuild"`
	LastFailedBuild     *BuildRef  `json:"lastFailedBuild"`
	LastStableBuild     *BuildRef  `json:"lastStableBuild"`
	LastSuccessfulBuild *BuildRef  `json:"lastSuccessfulBuild"`
	QueueItem           *QueueItem `json:"queueItem"`
}

// Artifact is a file archived by a build.
type Artifact struct {
	DisplayPath  string `json:"displayPath"`
	FileName     string `json:"fileName"`
	RelativePath string `json:"relativePath"`
}

// Culprit is a user whose change went into a build.
type Culprit struct {
	AbsoluteURL string `json:"absoluteUrl"`
	FullName    string `json:"fullName"`
}

// BuildInfo describes one build.
type BuildInfo struct {
	Number            int        `json:"number"`
	ID                string     `json:"id"`
	URL               string     `json:"url"`
	DisplayName       string     `json:"displayName"`
	FullDisplayName   string     `json:"fullDisplayName"`
	Description       string     `json:"description"`
	Result            string     `json:"result"`
	Building          bool       `json:"building"`
	InProgress        bool       `json:"inProgress"`
	KeepLog           bool       `json:"keepLog"`
	Duration          int64      `json:"duration"`
	EstimatedDuration int64      `json:"estimatedDuration"`
	Timestamp         int64      `json:"timestamp"`
	QueueID           int64      `json:"queueId"`
	BuiltOn           string     `json:"builtOn"`
	Artifacts         []Artifact `json:"artifacts"`
	Culprits          []Culprit  `json:"culprits"`
}

// Task is the job a queue item belongs to.
type Task struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Color string `json:"color"`
}

// Executable is the build a queue item turned into.
type Executable struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
}

// QueueItem is an entry of the build queue.
type QueueItem struct {
	ID           int64       `json:"id"`
	Blocked      bool        `json:"blocked"`
	Buildable    bool        `json:"buildable"`
	Stuck        bool        `json:"stuck"`
	Cancelled    bool        `json:"cancelled"`
	InQueueSince int64       `json:"inQueueSince"`
	Params       string      `json:"params"`
	Why          string      `json:"why"`
	URL          string      `json:"url"`
	Task         Task        `json:"task"`
	Executable   *Executable `json:"executable"`
}

// Queue is the build queue.
type Queue struct {
	Items []QueueItem `json:"items"`
}

// QueuedBuild is the outcome of triggering a build.
type QueuedBuild struct {
	QueueID  int64
	Location string
}

// Plugin is an installed plugin.
type Plugin struct {
	ShortName           string `json:"shortName"`
	LongName            string `json:"longName"`
	Version             string `json:"version"`
	URL                 string `json:"url"`
	Active              bool   `json:"active"`
	Enabled             bool   `json:"enabled"`
	Bundled             bool   `json:"bundled"`
	Pinned              bool   `json:"pinned"`
	Deleted             bool   `json:"deleted"`
	Downgradable        bool   `json:"downgradable"`
	HasUpdate           bool   `json:"hasUpdate"`
	BackupVersion       string `json:"backupVersion"`
	RequiredCoreVersion string `json:"requiredCoreVersion"`
}

// Plugins is the plugin manager listing.
type Plugins struct {
	Class   string   `json:"_class"`
	Plugins []Plugin `json:"plugins"`
}

// User is a Jenkins account.
type User struct {
	ID          string `json:"id"`
	FullName    string `json:"fullName"`
	Description string `json:"description"`
	AbsoluteURL string `json:"absoluteUrl"`
}

// APIToken is a freshly generated API token. The value cannot be read
// back later.
type APIToken struct {
	Name  string `json:"tokenName"`
	UUID  string `json:"tokenUuid"`
	Value string `json:"tokenValue"`
}

type apiTokenResponse struct {
	Status string   `json:"status"`
	Data   APIToken `json:"data"`
}

// SystemInfo is read from the controller's response headers.
type SystemInfo struct {
	HudsonVersion    string
	JenkinsVersion   string
	JenkinsSession   string
	InstanceIdentity string
	SSHEndpoint      string
	Server           string
}

// ProgressiveText is a chunk of console output.
type ProgressiveText struct {
	Text string
	// Size is the offset to request next, or -1 when the header is missing.
	Size        int
	HasMoreData bool
}

// LoadStatistic holds the sampled values of one load series keyed by
// timescale (sec10, min, hour).
type LoadStatistic map[string]float64

// Latest returns the shortest-timescale sample.
func (l LoadStatistic) Latest() float64 {
	for _, k := range []string{"sec10", "min", "hour"} {
		if v, ok := l[k]; ok {
			return v
		}
	}
	return 0
}

// OverallLoad is the controller's load statistics.
type OverallLoad struct {
	AvailableExecutors  LoadStatistic `json:"availableExecutors"`
	BusyExecutors       LoadStatistic `json:"busyExecutors"`
	ConnectingExecutors LoadStatistic `json:"connectingExecutors"`
	DefinedExecutors    LoadStatistic `json:"definedExecutors"`
	IdleExecutors       LoadStatistic `json:"idleExecutors"`
	OnlineExecutors     LoadStatistic `json:"onlineExecutors"`
	QueueLength         LoadStatistic `json:"queueLength"`
	TotalExecutors      LoadStatistic `json:"totalExecutors"`
	TotalQueueLength    LoadStatistic `json:"totalQueueLength"`
}

// loadSeries is one series as served at depth=1:
// {"hour":{"latest":1.5,"history":[...]},...}.
type loadSeries map[string]struct {
	Latest float64 `json:"latest"`
}

func (s loadSeries) statistic() LoadStatistic {
	out := make(LoadStatistic, len(s))
	for k, v := range s {
		out[k] = v.Latest
	}
	return out
}

type overallLoadResponse struct {
	AvailableExecutors  loadSeries `json:"availableExecutors"`
	BusyExecutors       loadSeries `json:"busyExecutors"`
	ConnectingExecutors loadSeries `json:"connectingExecutors"`
	DefinedExecutors    loadSeries `json:"definedExecutors"`
	IdleExecutors       loadSeries `json:"idleExecutors"`
	OnlineExecutors     loadSeries `json:"onlineExecutors"`
	QueueLength         loadSeries `json:"queueLength"`
	TotalExecutors      loadSeries `json:"totalExecutors"`
	TotalQueueLength    loadSeries `json:"totalQueueLength"`
}

func (r overallLoadResponse) load() OverallLoad {
	return OverallLoad{
		AvailableExecutors:  r.AvailableExecutors.statistic(),
		BusyExecutors:       r.BusyExecutors.statistic(),
		ConnectingExecutors: r.ConnectingExecutors.statistic(),
		DefinedExecutors:    r.DefinedExecutors.statistic(),
		IdleExecutors:       r.IdleExecutors.statistic(),
		OnlineExecutors:     r.OnlineExecutors.statistic(),
		QueueLength:         r.QueueLength.statistic(),
		TotalExecutors:      r.TotalExecutors.statistic(),
		TotalQueueLength:    r.TotalQueueLength.statistic(),
	}
}

// CasCResult is the controller's answer to a configuration-as-code check
// or apply.
type CasCResult struct {
	Status int
	Body   string
}

type crumbResponse struct {
	Field string `json:"crumbRequestField"`
	Crumb string `json:"crumb"`
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
