package jenkins

import (
	"context"
	"iter"
	"net/url"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/jenkinsrest/internal/classify"
	"git.home.luguber.info/inful/jenkinsrest/internal/foundation/errors"
	"git.home.luguber.info/inful/jenkinsrest/internal/operation"
	"git.home.luguber.info/inful/jenkinsrest/internal/orchestrator"
	"git.home.luguber.info/inful/jenkinsrest/internal/pagination"
)

// Jobs lists the jobs of the root, or of folder when it is not empty.
func (c *Client) Jobs(ctx context.Context, folder string) (JobList, error) {
	return do[JobList](ctx, c, JobListOp(folder), nil)
}

// JobInfo reads a job.
func (c *Client) JobInfo(ctx context.Context, folder, job string) (JobInfo, error) {
	return do[JobInfo](ctx, c, JobInfoOp(folder, job), nil)
}

// BuildInfo reads one build. Number zero selects the last build.
func (c *Client) BuildInfo(ctx context.Context, folder, job string, number int) (BuildInfo, error) {
	return do[BuildInfo](ctx, c, BuildInfoOp(folder, job, number), nil)
}

type allBuilds struct {
	AllBuilds []BuildRef `json:"allBuilds"`
}

// buildsCodec pages allBuilds with a tree range. Builds are listed newest
// first, so a build started during the walk shifts later pages by one;
// the cursor drops the repeated entry.
func buildsCodec() orchestrator.PageCodec[BuildRef] {
	return orchestrator.PageCodec[BuildRef]{
		Mode: pagination.ModeOffset,
		Apply: func(d operation.Descriptor, req pagination.Request) operation.Descriptor {
			return d.WithQuery("tree", TreeRange("allBuilds", BuildFields, req.Offset, req.Limit))
		},
		Decode: orchestrator.JSONPage(func(p allBuilds) []BuildRef { return p.AllBuilds }),
	}
}

// Builds lazily walks every build of a job, newest first.
func (c *Client) Builds(ctx context.Context, folder, job string) iter.Seq2[BuildRef, error] {
	return orchestrator.FetchAll(ctx, c.orch, BuildsOp(folder, job), buildsCodec(),
		func(b BuildRef) int { return b.Number })
}

// Build triggers a build and returns its queue item.
func (c *Client) Build(ctx context.Context, folder, job string) (QueuedBuild, error) {
	resp, err := c.orch.Invoke(ctx, TriggerBuildOp(folder, job), nil)
	if err != nil {
		return QueuedBuild{}, err
	}
	return queuedBuild(resp)
}

// BuildWithParameters triggers a parameterized build.
func (c *Client) BuildWithParameters(ctx context.Context, folder, job string, params map[string][]string) (QueuedBuild, error) {
	resp, err := c.orch.Invoke(ctx, TriggerBuildWithParametersOp(folder, job), url.Values(params))
	if err != nil {
		return QueuedBuild{}, err
	}
	return queuedBuild(resp)
}

func queuedBuild(resp *orchestrator.Response) (QueuedBuild, error) {
	location := resp.Header.Get("Location")
	id, ok := QueueIDFromLocation(location)
	if !ok {
		return QueuedBuild{}, errors.UnknownError("build was accepted without a queue location").
			WithStatus(resp.Status).
			WithContext("location", location).
			Build().
			WithAttempts(resp.Attempts)
	}
	return QueuedBuild{QueueID: id, Location: location}, nil
}

// Stop aborts a running build.
func (c *Client) Stop(ctx context.Context, folder, job string, number int) error {
	return c.action(ctx, StopBuildOp(folder, job, number), nil)
}

// Term terminates a build that ignored Stop.
func (c *Client) Term(ctx context.Context, folder, job string, number int) error {
	return c.action(ctx, TermBuildOp(folder, job, number), nil)
}

// Kill hard-kills a build that ignored Term.
func (c *Client) Kill(ctx context.Context, folder, job string, number int) error {
	return c.action(ctx, KillBuildOp(folder, job, number), nil)
}

func (c *Client) Enable(ctx context.Context, folder, job string) error {
	return c.action(ctx, EnableJobOp(folder, job), nil)
}

func (c *Client) Disable(ctx context.Context, folder, job string) error {
	return c.action(ctx, DisableJobOp(folder, job), nil)
}

func (c *Client) Delete(ctx context.Context, folder, job string) error {
	return c.action(ctx, DeleteJobOp(folder, job), nil)
}

// Create creates a job from its config.xml.
func (c *Client) Create(ctx context.Context, folder, job, configXML string) error {
	return c.action(ctx, CreateJobOp(folder, job), configXML)
}

// Config returns a job's config.xml.
func (c *Client) Config(ctx context.Context, folder, job string) (string, error) {
	return do[string](ctx, c, JobConfigOp(folder, job), nil)
}

// UpdateConfig replaces a job's config.xml.
func (c *Client) UpdateConfig(ctx context.Context, folder, job, configXML string) error {
	return c.action(ctx, UpdateJobConfigOp(folder, job), configXML)
}

func (c *Client) Description(ctx context.Context, folder, job string) (string, error) {
	return do[string](ctx, c, JobDescriptionOp(folder, job), nil)
}

func (c *Client) SetDescription(ctx context.Context, folder, job, description string) error {
	return c.action(ctx, SetJobDescriptionOp(folder, job), url.Values{"description": {description}})
}

func (c *Client) Rename(ctx context.Context, folder, job, newName string) error {
	return c.action(ctx, RenameJobOp(folder, job, newName), nil)
}

// LastBuildNumber returns the number of the job's last build.
func (c *Client) LastBuildNumber(ctx context.Context, folder, job string) (int, error) {
	res, err := orchestrator.Do[string](ctx, c.orch, LastBuildNumberOp(folder, job), nil)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(res.Value))
	if err != nil {
		return 0, classify.DecodeFailure(err, res.Status).WithAttempts(res.Attempts)
	}
	return n, nil
}

// LastBuildTimestamp returns the start time of the job's last build as
// formatted by the controller.
func (c *Client) LastBuildTimestamp(ctx context.Context, folder, job string) (string, error) {
	ts, err := do[string](ctx, c, LastBuildTimestampOp(folder, job), nil)
	return strings.TrimSpace(ts), err
}

// ProgressiveText reads console output of a build from byte offset start.
// Number zero selects the last build. Pass the returned Size as the next
// start while HasMoreData is set.
func (c *Client) ProgressiveText(ctx context.Context, folder, job string, number, start int) (ProgressiveText, error) {
	res, err := orchestrator.Do[string](ctx, c.orch, ProgressiveTextOp(folder, job, number, start), nil)
	if err != nil {
		return ProgressiveText{}, err
	}
	more, _ := strconv.ParseBool(res.Header.Get("X-More-Data"))
	return ProgressiveText{
		Text:        res.Value,
		Size:        atoiOr(res.Header.Get("X-Text-Size"), -1),
		HasMoreData: more,
	}, nil
}

func (c *Client) action(ctx context.Context, d operation.Descriptor, body any) error {
	_, err := c.orch.Invoke(ctx, d, body)
	return err
}
