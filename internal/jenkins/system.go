package jenkins

import (
	"context"
	"html"
	"net/url"
	"strconv"

	"git.home.luguber.info/inful/jenkinsrest/internal/foundation/errors"
	"git.home.luguber.info/inful/jenkinsrest/internal/operation"
	"git.home.luguber.info/inful/jenkinsrest/internal/orchestrator"
)

// Queue lists the build queue.
func (c *Client) Queue(ctx context.Context) ([]QueueItem, error) {
	q, err := do[Queue](ctx, c, QueueOp(), nil)
	return q.Items, err
}

// QueueItem reads one queue item. Once the build starts, Executable is set.
func (c *Client) QueueItem(ctx context.Context, id int64) (QueueItem, error) {
	return do[QueueItem](ctx, c, QueueItemOp(id), nil)
}

// CancelQueueItem removes an item from the queue.
func (c *Client) CancelQueueItem(ctx context.Context, id int64) error {
	return c.action(ctx, CancelQueueItemOp(), url.Values{"id": {strconv.FormatInt(id, 10)}})
}

// SystemInfo reads version and identity headers from the root page.
func (c *Client) SystemInfo(ctx context.Context) (SystemInfo, error) {
	resp, err := c.orch.Invoke(ctx, SystemInfoOp(), nil)
	if err != nil {
		return SystemInfo{}, err
	}
	h := resp.Header
	return SystemInfo{
		HudsonVersion:    h.Get("X-Hudson"),
		JenkinsVersion:   h.Get("X-Jenkins"),
		JenkinsSession:   h.Get("X-Jenkins-Session"),
		InstanceIdentity: h.Get("X-Instance-Identity"),
		SSHEndpoint:      h.Get("X-SSH-Endpoint"),
		Server:           h.Get("Server"),
	}, nil
}

// QuietDown stops the controller from starting new builds.
func (c *Client) QuietDown(ctx context.Context) error {
	return c.action(ctx, QuietDownOp(), nil)
}

func (c *Client) CancelQuietDown(ctx context.Context) error {
	return c.action(ctx, CancelQuietDownOp(), nil)
}

// Plugins lists installed plugins. depth and tree are passed through when
// set.
func (c *Client) Plugins(ctx context.Context, depth int, tree string) (Plugins, error) {
	return do[Plugins](ctx, c, PluginsOp(depth, tree), nil)
}

// InstallPlugin asks the controller to install a plugin given as
// "id@version" or "id".
func (c *Client) InstallPlugin(ctx context.Context, plugin string) error {
	payload := `<jenkins><install plugin="` + html.EscapeString(plugin) + `"/></jenkins>`
	return c.action(ctx, InstallPluginOp(), payload)
}

// CurrentUser reads the configured user's account, or the anonymous view
// of "me" without credentials.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	return do[User](ctx, c, CurrentUserOp(c.Identity()), nil)
}

// GenerateToken creates an API token for the configured user.
func (c *Client) GenerateToken(ctx context.Context, name string) (APIToken, error) {
	user, err := c.requireIdentity("generate an API token")
	if err != nil {
		return APIToken{}, err
	}
	res, err := orchestrator.Do[apiTokenResponse](ctx, c.orch, GenerateTokenOp(user), url.Values{"newTokenName": {name}})
	if err != nil {
		return APIToken{}, err
	}
	if res.Value.Status != "" && res.Value.Status != "ok" {
		return APIToken{}, errors.UnknownError("token generation was not accepted").
			WithStatus(res.Status).
			WithContext("status", res.Value.Status).
			Build().
			WithAttempts(res.Attempts)
	}
	return res.Value.Data, nil
}

// RevokeToken revokes one of the configured user's API tokens.
func (c *Client) RevokeToken(ctx context.Context, tokenUUID string) error {
	user, err := c.requireIdentity("revoke an API token")
	if err != nil {
		return err
	}
	return c.action(ctx, RevokeTokenOp(user), url.Values{"tokenUuid": {tokenUUID}})
}

func (c *Client) requireIdentity(action string) (string, error) {
	user := c.Identity()
	if user == "" {
		return "", errors.InvalidRequestError("a user is required to " + action).Build()
	}
	return user, nil
}

// CheckCasC validates a configuration-as-code YAML document without
// applying it.
func (c *Client) CheckCasC(ctx context.Context, document string) (CasCResult, error) {
	return c.casc(ctx, CheckCasCOp(), document)
}

// ApplyCasC applies a configuration-as-code YAML document.
func (c *Client) ApplyCasC(ctx context.Context, document string) (CasCResult, error) {
	return c.casc(ctx, ApplyCasCOp(), document)
}

func (c *Client) casc(ctx context.Context, d operation.Descriptor, document string) (CasCResult, error) {
	res, err := orchestrator.Do[string](ctx, c.orch, d, document)
	if err != nil {
		return CasCResult{}, err
	}
	return CasCResult{Status: res.Status, Body: res.Value}, nil
}

// OverallLoad reads the controller's load statistics.
func (c *Client) OverallLoad(ctx context.Context) (OverallLoad, error) {
	r, err := do[overallLoadResponse](ctx, c, OverallLoadOp(), nil)
	if err != nil {
		return OverallLoad{}, err
	}
	return r.load(), nil
}
