// Command talentctl runs maintenance jobs against the talentmatch stores.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/app"
	"github.com/kailas-cloud/talentmatch/internal/config"
	"github.com/kailas-cloud/talentmatch/internal/domain"
	logpkg "github.com/kailas-cloud/talentmatch/internal/logger"
	"github.com/kailas-cloud/talentmatch/internal/metrics"
	"github.com/kailas-cloud/talentmatch/internal/usecase/maintenance"
	"github.com/kailas-cloud/talentmatch/internal/version"
)

type maintainer interface {
	EnsureIndexes(ctx context.Context) error
	SweepOrphans(ctx context.Context, dryRun bool) (maintenance.SweepReport, error)
	Reindex(ctx context.Context, kind domain.Kind) (maintenance.ReindexReport, error)
}

// opener builds the maintenance service and a cleanup func for one command run.
type opener func(c *cli.Context) (maintainer, func(), error)

func main() {
	if err := newApp(openMaintenance).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(open opener) *cli.App {
	return &cli.App{
		Name:    "talentctl",
		Usage:   "Maintenance for the talentmatch vector index and records",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "Environment whose config/<env>.yaml is loaded",
				EnvVars: []string{"ENV"},
				Value:   "local",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Explicit config file path (overrides --env)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "ensure-indexes",
				Usage: "Create every namespace index that does not exist yet",
				Action: func(c *cli.Context) error {
					return withMaintainer(c, open, func(m maintainer) error {
						if err := m.EnsureIndexes(c.Context); err != nil {
							return err
						}
						fmt.Fprintln(c.App.Writer, "indexes ready")
						return nil
					})
				},
			},
			{
				Name:  "sweep-orphans",
				Usage: "Delete vectors whose owning record no longer references them",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Report orphans without deleting them",
					},
				},
				Action: func(c *cli.Context) error {
					return withMaintainer(c, open, func(m maintainer) error {
						rep, err := m.SweepOrphans(c.Context, c.Bool("dry-run"))
						if err != nil {
							return err
						}
						printSweep(c, &rep)
						return nil
					})
				},
			},
			{
				Name:  "reindex",
				Usage: "Re-vectorize every record of one kind",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "kind",
						Aliases:  []string{"k"},
						Usage:    "Entity kind (candidate, project)",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					kind := domain.Kind(c.String("kind"))
					if !kind.Valid() {
						return fmt.Errorf("unknown kind %q (want candidate or project)", kind)
					}
					return withMaintainer(c, open, func(m maintainer) error {
						rep, err := m.Reindex(c.Context, kind)
						if err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "%s: total=%d reindexed=%d failed=%d\n",
							rep.Kind, rep.Total, rep.Reindexed, rep.Failed)
						if rep.Failed > 0 {
							return cli.Exit(fmt.Sprintf("%d records failed to reindex", rep.Failed), 2)
						}
						return nil
					})
				},
			},
		},
	}
}

func withMaintainer(c *cli.Context, open opener, fn func(m maintainer) error) error {
	m, cleanup, err := open(c)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(m)
}

func printSweep(c *cli.Context, rep *maintenance.SweepReport) {
	namespaces := make([]string, 0, len(rep.Orphans))
	for ns := range rep.Orphans {
		namespaces = append(namespaces, string(ns))
	}
	sort.Strings(namespaces)

	fmt.Fprintf(c.App.Writer, "scanned=%d recent=%d deleted=%d failed=%d dry_run=%t\n",
		rep.Scanned, rep.Recent, rep.Deleted, rep.Failed, rep.DryRun)
	for _, ns := range namespaces {
		fmt.Fprintf(c.App.Writer, "  %s: %d orphans\n", ns, rep.Orphans[domain.Subspace(ns)])
	}
}

func openMaintenance(c *cli.Context) (maintainer, func(), error) {
	var (
		cfg config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(c.String("env"))
	}
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Logging.Level
	if l := c.String("log-level"); l != "" {
		level = l
	}
	logger, err := logpkg.NewLogger(c.String("env"), level)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()

	a, err := app.Build(c.Context, &cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	cleanup := func() {
		a.Close()
		_ = logger.Sync()
	}
	logger.Debug("maintenance ready", zap.String("vector_index", cfg.VectorIndex.Driver))
	return a.Maintenance, cleanup, nil
}
