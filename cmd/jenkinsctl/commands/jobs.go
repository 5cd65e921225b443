package commands

import (
	"fmt"
	"io"
	"strings"

	"git.home.luguber.info/inful/jenkinsrest/internal/config"
	"git.home.luguber.info/inful/jenkinsrest/internal/foundation/errors"
	"git.home.luguber.info/inful/jenkinsrest/internal/jenkins"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	fmt.Fprintf(g.Out, "Writing configuration to %s\n", root.Config)
	return config.Init(root.Config, i.Force)
}

// JobsCmd implements the 'jobs' command.
type JobsCmd struct {
	Folder string `arg:"" optional:"" help:"Folder path such as team/infra"`
}

func (j *JobsCmd) Run(g *Global, root *CLI) error {
	c, err := g.client(root)
	if err != nil {
		return err
	}
	defer c.Close()

	list, err := c.Jobs(g.Ctx, j.Folder)
	if err != nil {
		return err
	}
	if root.JSON {
		return g.printJSON(list.Jobs)
	}
	return g.table("NAME\tSTATUS\tURL", func(w io.Writer) {
		for _, job := range list.Jobs {
			fmt.Fprintf(w, "%s\t%s\t%s\n", job.Name, colorStatus(job.Color), job.URL)
		}
	})
}

// JobCmd implements the 'job' command.
type JobCmd struct {
	Name   string `arg:"" help:"Job name"`
	Folder string `short:"f" help:"Folder path"`
}

func (j *JobCmd) Run(g *Global, root *CLI) error {
	c, err := g.client(root)
	if err != nil {
		return err
	}
	defer c.Close()

	info, err := c.JobInfo(g.Ctx, j.Folder, j.Name)
	if err != nil {
		return err
	}
	if root.JSON {
		return g.printJSON(info)
	}
	fmt.Fprintf(g.Out, "Name:        %s\n", info.FullName)
	fmt.Fprintf(g.Out, "Status:      %s\n", colorStatus(info.Color))
	fmt.Fprintf(g.Out, "Buildable:   %t\n", info.Buildable)
	fmt.Fprintf(g.Out, "In queue:    %t\n", info.InQueue)
	fmt.Fprintf(g.Out, "Next build:  %d\n", info.NextBuildNumber)
	if info.LastBuild != nil {
		fmt.Fprintf(g.Out, "Last build:  #%d\n", info.LastBuild.Number)
	}
	if info.Description != "" {
		fmt.Fprintf(g.Out, "Description: %s\n", info.Description)
	}
	return nil
}

// BuildsCmd implements the 'builds' command.
type BuildsCmd struct {
	Name   string `arg:"" help:"Job name"`
	Folder string `short:"f" help:"Folder path"`
	Limit  int    `short:"n" help:"Stop after this many builds (0 = all)" default:"0"`
}

func (b *BuildsCmd) Run(g *Global, root *CLI) error {
	c, err := g.client(root)
	if err != nil {
		return err
	}
	defer c.Close()

	var builds []buildRow
	for build, err := range c.Builds(g.Ctx, b.Folder, b.Name) {
		if err != nil {
			return err
		}
		builds = append(builds, buildRow{build.Number, resultOf(build.Result, build.Building), formatMillis(build.Timestamp)})
		if b.Limit > 0 && len(builds) >= b.Limit {
			break
		}
	}
	if root.JSON {
		return g.printJSON(builds)
	}
	return g.table("NUMBER\tRESULT\tSTARTED", func(w io.Writer) {
		for _, r := range builds {
			fmt.Fprintf(w, "%d\t%s\t%s\n", r.Number, r.Result, r.Started)
		}
	})
}

type buildRow struct {
	Number  int    `json:"number"`
	Result  string `json:"result"`
	Started string `json:"started"`
}

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Name   string   `arg:"" help:"Job name"`
	Folder string   `short:"f" help:"Folder path"`
	Param  []string `short:"p" help:"Build parameter as KEY=VALUE, repeatable"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	params, err := parseParams(b.Param)
	if err != nil {
		return err
	}
	c, err := g.client(root)
	if err != nil {
		return err
	}
	defer c.Close()

	var queued jenkins.QueuedBuild
	if len(params) > 0 {
		queued, err = c.BuildWithParameters(g.Ctx, b.Folder, b.Name, params)
	} else {
		queued, err = c.Build(g.Ctx, b.Folder, b.Name)
	}
	if err != nil {
		return err
	}
	if root.JSON {
		return g.printJSON(queuedBuild{queued.QueueID, queued.Location})
	}
	fmt.Fprintf(g.Out, "Queued as item %d\n", queued.QueueID)
	return nil
}

type queuedBuild struct {
	QueueID  int64  `json:"queue_id"`
	Location string `json:"location"`
}

func parseParams(raw []string) (map[string][]string, error) {
	params := make(map[string][]string, len(raw))
	for _, p := range raw {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, errors.InvalidRequestError("parameter must be KEY=VALUE").
				WithContext("param", p).
				Build()
		}
		params[k] = append(params[k], v)
	}
	return params, nil
}

// StopCmd implements the 'stop' command.
type StopCmd struct {
	Name   string `arg:"" help:"Job name"`
	Number int    `arg:"" help:"Build number"`
	Folder string `short:"f" help:"Folder path"`
	Mode   string `help:"How hard to stop: stop, term or kill" enum:"stop,term,kill" default:"stop"`
}

func (s *StopCmd) Run(g *Global, root *CLI) error {
	c, err := g.client(root)
	if err != nil {
		return err
	}
	defer c.Close()

	switch s.Mode {
	case "term":
		err = c.Term(g.Ctx, s.Folder, s.Name, s.Number)
	case "kill":
		err = c.Kill(g.Ctx, s.Folder, s.Name, s.Number)
	default:
		err = c.Stop(g.Ctx, s.Folder, s.Name, s.Number)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(g.Out, "Sent %s to %s #%d\n", s.Mode, s.Name, s.Number)
	return nil
}

// colorStatus turns a ball color into a readable status.
func colorStatus(color string) string {
	base, running := strings.CutSuffix(color, "_anime")
	status := map[string]string{
		"blue":     "success",
		"red":      "failed",
		"yellow":   "unstable",
		"aborted":  "aborted",
		"disabled": "disabled",
		"notbuilt": "not built",
		"grey":     "pending",
	}[base]
	if status == "" {
		status = base
	}
	if running {
		status += " (running)"
	}
	return status
}

func resultOf(result string, building bool) string {
	if building {
		return "RUNNING"
	}
	if result == "" {
		return "-"
	}
	return result
}
