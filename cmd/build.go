package cmd

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/agentic-research/libcat/internal/catalog"
	"github.com/agentic-research/libcat/internal/config"
	"github.com/agentic-research/libcat/internal/github"
	"github.com/agentic-research/libcat/internal/ingest"
	"github.com/agentic-research/libcat/internal/metadata"
	"github.com/agentic-research/libcat/internal/run"
	"github.com/agentic-research/libcat/internal/sink"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Walk the repository and write <output>/<target>.json",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		logger := newLogger()

		ctrl, err := newController(cfg, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		_, err = ctrl.Run(ctx)
		return err
	},
}

func init() {
	buildCmd.Flags().StringP("output", "o", ".", "output directory, or s3+https://host/bucket/prefix")
	buildCmd.Flags().StringP("target", "t", "jsdelivr", "catalog name; written as <target>.json")
	_ = viper.BindPFlag("output", buildCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("target", buildCmd.Flags().Lookup("target"))

	rootCmd.AddCommand(buildCmd)
}

// newController wires the GitHub client, walker, builder and sinks for cfg.
func newController(cfg *config.Config, logger *log.Logger) (*run.Controller, error) {
	client := github.NewClient(
		github.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
		github.WithBaseURL(cfg.GitHub.APIURL),
		github.WithRawHost(cfg.RawHost()),
		github.WithRepo(cfg.GitHub.Owner, cfg.GitHub.Repo),
		github.WithRef(cfg.GitHub.Ref),
		github.WithToken(cfg.GitHub.Token),
		github.WithUserAgent(cfg.GitHub.UserAgent),
	)

	walker := ingest.NewWalker(client, cfg.Root, logger)
	walker.Concurrency = cfg.Concurrency.Subtrees

	builder := catalog.NewBuilder(client, metadata.NewINIParser(), cfg.RawBase(), logger)
	builder.MetadataFile = cfg.MetadataFile
	builder.Concurrency = cfg.Concurrency.Metadata

	out, err := sink.Open(cfg.Output)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", cfg.Output, err)
	}
	sinks := []sink.Sink{out}
	if cfg.Snapshot.SQLite != "" {
		sinks = append(sinks, sink.NewSnapshot(cfg.Snapshot.SQLite))
	}

	logger.Debug("run configured",
		"repo", cfg.GitHub.Owner+"/"+cfg.GitHub.Repo,
		"ref", cfg.GitHub.Ref,
		"root", cfg.Root,
		"sinks", len(sinks))
	return run.NewController(walker, builder, cfg.Target, logger, sinks...), nil
}
