package commands

import (
	"fmt"
	"io"
	"time"

	"git.home.luguber.info/inful/jenkinsrest/internal/jenkins"
)

// QueueCmd implements the 'queue' command.
type QueueCmd struct{}

func (q *QueueCmd) Run(g *Global, root *CLI) error {
	c, err := g.client(root)
	if err != nil {
		return err
	}
	defer c.Close()

	items, err := c.Queue(g.Ctx)
	if err != nil {
		return err
	}
	if root.JSON {
		return g.printJSON(items)
	}
	return g.table("ID\tJOB\tSINCE\tWHY", func(w io.Writer) {
		for _, it := range items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", it.ID, it.Task.Name, formatMillis(it.InQueueSince), it.Why)
		}
	})
}

// CancelCmd implements the 'cancel' command.
type CancelCmd struct {
	ID int64 `arg:"" help:"Queue item ID"`
}

func (cc *CancelCmd) Run(g *Global, root *CLI) error {
	c, err := g.client(root)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.CancelQueueItem(g.Ctx, cc.ID); err != nil {
		return err
	}
	fmt.Fprintf(g.Out, "Cancelled queue item %d\n", cc.ID)
	return nil
}

// SystemCmd implements the 'system' command.
type SystemCmd struct{}

type systemReport struct {
	Info jenkins.SystemInfo  `json:"info"`
	Load jenkins.OverallLoad `json:"load"`
}

func (s *SystemCmd) Run(g *Global, root *CLI) error {
	c, err := g.client(root)
	if err != nil {
		return err
	}
	defer c.Close()

	info, err := c.SystemInfo(g.Ctx)
	if err != nil {
		return err
	}
	load, err := c.OverallLoad(g.Ctx)
	if err != nil {
		return err
	}
	if root.JSON {
		return g.printJSON(systemReport{Info: info, Load: load})
	}
	fmt.Fprintf(g.Out, "URL:       %s\n", c.BaseURL())
	fmt.Fprintf(g.Out, "Version:   %s\n", info.JenkinsVersion)
	fmt.Fprintf(g.Out, "Server:    %s\n", info.Server)
	fmt.Fprintf(g.Out, "Executors: %.0f busy of %.0f\n", load.BusyExecutors.Latest(), load.TotalExecutors.Latest())
	fmt.Fprintf(g.Out, "Queue:     %.0f\n", load.QueueLength.Latest())
	return nil
}

// PluginsCmd implements the 'plugins' command.
type PluginsCmd struct {
	Updates bool `help:"Only show plugins with updates"`
}

func (p *PluginsCmd) Run(g *Global, root *CLI) error {
	c, err := g.client(root)
	if err != nil {
		return err
	}
	defer c.Close()

	plugins, err := c.Plugins(g.Ctx, 1, "")
	if err != nil {
		return err
	}
	list := plugins.Plugins
	if p.Updates {
		list = list[:0:0]
		for _, pl := range plugins.Plugins {
			if pl.HasUpdate {
				list = append(list, pl)
			}
		}
	}
	if root.JSON {
		return g.printJSON(list)
	}
	return g.table("NAME\tVERSION\tENABLED\tUPDATE", func(w io.Writer) {
		for _, pl := range list {
			fmt.Fprintf(w, "%s\t%s\t%t\t%t\n", pl.ShortName, pl.Version, pl.Enabled, pl.HasUpdate)
		}
	})
}

// WhoamiCmd implements the 'whoami' command.
type WhoamiCmd struct{}

func (w *WhoamiCmd) Run(g *Global, root *CLI) error {
	c, err := g.client(root)
	if err != nil {
		return err
	}
	defer c.Close()

	user, err := c.CurrentUser(g.Ctx)
	if err != nil {
		return err
	}
	if root.JSON {
		return g.printJSON(user)
	}
	fmt.Fprintf(g.Out, "%s (%s)\n", user.ID, user.FullName)
	return nil
}

// LogCmd implements the 'log' command.
type LogCmd struct {
	Name     string        `arg:"" help:"Job name"`
	Number   int           `arg:"" optional:"" help:"Build number (default: last build)"`
	Folder   string        `short:"f" help:"Folder path"`
	Follow   bool          `short:"F" help:"Keep printing output until the build finishes"`
	Interval time.Duration `help:"Poll interval when following" default:"2s"`
}

func (l *LogCmd) Run(g *Global, root *CLI) error {
	c, err := g.client(root)
	if err != nil {
		return err
	}
	defer c.Close()

	start := 0
	for {
		chunk, err := c.ProgressiveText(g.Ctx, l.Folder, l.Name, l.Number, start)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(g.Out, chunk.Text); err != nil {
			return err
		}
		if !l.Follow || !chunk.HasMoreData || chunk.Size < 0 {
			return nil
		}
		start = chunk.Size

		select {
		case <-g.Ctx.Done():
			return nil
		case <-time.After(l.Interval):
		}
	}
}
