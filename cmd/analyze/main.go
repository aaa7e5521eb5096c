package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agenthands/leafcheck/internal/config"
	"github.com/agenthands/leafcheck/internal/core"
	"github.com/agenthands/leafcheck/internal/core/model"
	"github.com/agenthands/leafcheck/internal/llm"
	"github.com/agenthands/leafcheck/internal/logging"
)

var (
	cfgPath string
	verbose bool
	remote  string
	enrich  bool
	timeout time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "analyze [flags] <image>",
	Short: "Diagnose the crop and disease in a leaf image",
	Long: `analyze runs the full diagnosis workflow on a local image: a description
model, two visual classifiers and the configured text models give their
opinions, and the accurate model arbitrates when they disagree.

With --remote the image is posted to a running leafcheck server instead.`,
	Args: cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadOrDefault(cfgPath)
		if err != nil {
			return err
		}
		cfg.ApplyEnv()

		logCfg := cfg.Log
		if verbose {
			logCfg.Level = "debug"
		}
		logger, err = logging.New(logCfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "config/config.toml", "path to the TOML config")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the description, opinions and conflict set")
	rootCmd.Flags().StringVarP(&remote, "remote", "r", "", "base URL of a running server, e.g. http://localhost:8000")
	rootCmd.Flags().BoolVar(&enrich, "enrich", false, "ask for causes and recommendations")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "give up on a --remote request after this long")
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))

	if remote != "" {
		client := &http.Client{Timeout: timeout}
		record, err := postImage(ctx, client, remote, filepath.Base(path), mimeType, data)
		if err != nil {
			return err
		}
		return printJSON(out, record)
	}

	image, err := model.NewImage(data, mimeType)
	if err != nil {
		return err
	}

	if enrich {
		cfg.Enrichment.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	diagnoser, closeClients, err := core.Build(ctx, cfg, llm.NewClient, core.WithLogger(logger))
	if err != nil {
		return err
	}
	defer closeClients()

	diag, err := diagnoser.Analyze(ctx, image)
	if err != nil {
		return err
	}

	if verbose {
		printTrace(out, diag)
	}
	return printJSON(out, diag.Record)
}

func printTrace(out io.Writer, diag *model.Diagnosis) {
	fmt.Fprintf(out, "Description:\n%s\n\n", diag.Description)
	fmt.Fprintln(out, "Opinions:")
	for _, op := range diag.Opinions {
		fmt.Fprintf(out, "  %-24s %s\n", op.Source, op.Text)
	}
	fmt.Fprintln(out, "\nConflict set:")
	for _, op := range diag.Conflicts {
		fmt.Fprintf(out, "  - %s\n", op.Text)
	}
	if diag.Arbitrated {
		fmt.Fprintf(out, "\nArbiter: %s\n\n", diag.Final)
	} else {
		fmt.Fprintln(out, "\nNo conflict, arbiter skipped.")
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
