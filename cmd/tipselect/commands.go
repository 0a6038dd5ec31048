package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/taxitip/config"
	"github.com/YuminosukeSato/taxitip/pkg/log"
	"github.com/YuminosukeSato/taxitip/tripdata"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// flags holds command-line overrides applied on top of the loaded config.
type flags struct {
	configPath string
	logLevel   string
	train      string
	holdout    string
	kind       string
	outDir     string
	folds      int
	workers    int
}

// session is the state shared by the subcommands of one invocation.
type session struct {
	cfg    *config.Config
	logger log.Logger
	runID  string
	out    io.Writer
}

func newRootCmd() *cobra.Command {
	var f flags
	var s session

	root := &cobra.Command{
		Use:           "tipselect",
		Short:         "Select a taxi tip regression model by penalized subset search",
		Long:          "tipselect cleans taxi trip files, searches predictor subsets by backward\nelimination, tunes the subset penalty by k-fold cross-validation and\nscores the chosen model on a holdout period.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return s.init(cmd, f)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "YAML config file")
	pf.StringVar(&f.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVar(&f.train, "train", "", "training period trip CSV")
	pf.StringVar(&f.holdout, "holdout", "", "holdout period trip CSV")
	pf.StringVar(&f.kind, "kind", "", "trip file layout (yellow or green)")
	pf.IntVar(&f.folds, "folds", 0, "number of cross-validation folds")
	pf.IntVar(&f.workers, "workers", 0, "folds evaluated concurrently")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Cross-validate, refit and score on the holdout period",
		RunE:  func(cmd *cobra.Command, args []string) error { return s.run(cmd.Context()) },
	}
	runCmd.Flags().StringVarP(&f.outDir, "out", "o", "", "report directory")

	cvCmd := &cobra.Command{
		Use:   "cv",
		Short: "Print the cross-validation table for the training period",
		RunE:  func(cmd *cobra.Command, args []string) error { return s.crossValidate(cmd.Context()) },
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show cleaning reports and design column summaries",
		RunE:  func(cmd *cobra.Command, args []string) error { return s.inspect() },
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tipselect %s\n", version)
		},
	}

	root.AddCommand(runCmd, cvCmd, inspectCmd, versionCmd)
	return root
}

// init loads the configuration, applies flag overrides and installs the
// process logger.
func (s *session) init(cmd *cobra.Command, f flags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if f.kind != "" {
		if err := applyKind(cfg, tripdata.Kind(strings.ToLower(f.kind))); err != nil {
			return err
		}
	}
	if f.train != "" {
		cfg.Data.Train = f.train
	}
	if f.holdout != "" {
		cfg.Data.Holdout = f.holdout
	}
	if f.outDir != "" {
		cfg.Report.Dir = f.outDir
	}
	if f.folds != 0 {
		cfg.Model.Folds = f.folds
	}
	if f.workers != 0 {
		cfg.Model.Workers = f.workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.cfg = cfg
	s.runID = uuid.NewString()
	s.out = cmd.OutOrStdout()
	logger, err := newLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	s.logger = logger.With(log.RunIDKey, s.runID)
	log.SetLogger(s.logger)
	if f.configPath != "" {
		s.logger.Debug("config loaded", log.ConfigPathKey, f.configPath)
	}
	return nil
}

// applyKind switches the taxi kind. Column names still at the previous
// kind's defaults follow the new kind; names set in YAML or the environment
// are kept.
func applyKind(cfg *config.Config, kind tripdata.Kind) error {
	cols, err := tripdata.ColumnsFor(kind)
	if err != nil {
		return err
	}
	if prev, err := tripdata.ColumnsFor(cfg.Data.Kind); err == nil && cfg.Columns == prev {
		cfg.Columns = cols
	}
	cfg.Data.Kind = kind
	return nil
}

func newLogger(cfg config.LoggingConfig, w io.Writer) (log.Logger, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}
	if cfg.Format == "slog" {
		return log.SetupLogger(w, level), nil
	}
	var provider log.LoggerProvider = log.NewZerologProvider(w, level, cfg.Format == "console")
	return provider.GetLoggerWithName("tipselect"), nil
}
