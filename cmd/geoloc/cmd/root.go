package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/loopercamera/4M/internal/app"
	"github.com/loopercamera/4M/internal/config"
	"github.com/loopercamera/4M/internal/logging"
)

var (
	cfgFile   string
	noColor   bool
	v         = config.New()
	settings  config.Config
	logger    = slog.Default()
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "geoloc",
	Short: "geoloc — Swiss location resolver for metadata records",
	Long: "Scans multilingual dataset titles, descriptions and publishers against a\n" +
		"gazetteer of Swiss place names and assigns one administrative location per record.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

// projectRoot returns the project root (cwd by default).
func projectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return dir
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default ./geoloc.yaml)")
	pf.BoolVar(&noColor, "no-color", false, "Disable colored output")
	pf.String("gazetteer", "", "Gazetteer file (JSON or YAML)")
	pf.String("labels", "", "Label table file (JSON or YAML)")
	pf.StringSlice("languages", nil, "Language priority, e.g. de,fr,en,it,rm")
	pf.Int("canton-level", 0, "Gazetteer level of canton entries")
	pf.Int("workers", 0, "Concurrent workers (0 = GOMAXPROCS)")
	pf.String("store", "", "Result store file (default .geoloc/results.db)")
	pf.String("encoding", "", "CSV input encoding (utf-8, windows-1252, iso-8859-1, ...)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: text or json")
	pf.String("log-file", "", "Log to a rotated file instead of stderr")

	bind(pf.Lookup("gazetteer"), config.KeyGazetteer)
	bind(pf.Lookup("labels"), config.KeyLabels)
	bind(pf.Lookup("languages"), config.KeyLanguages)
	bind(pf.Lookup("canton-level"), config.KeyCantonLevel)
	bind(pf.Lookup("workers"), config.KeyWorkers)
	bind(pf.Lookup("store"), config.KeyStorePath)
	bind(pf.Lookup("encoding"), config.KeyInputEncoding)
	bind(pf.Lookup("log-level"), config.KeyLogLevel)
	bind(pf.Lookup("log-format"), config.KeyLogFormat)
	bind(pf.Lookup("log-file"), config.KeyLogFile)

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(wipeCmd)
	rootCmd.AddCommand(configCmd)
}

// bind ties a flag to a config key. An unchanged flag never overrides the
// config file or environment.
func bind(f *pflag.Flag, key string) {
	if err := v.BindPFlag(key, f); err != nil {
		panic(err)
	}
}

// setup reads configuration and installs the logger before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.ReadFile(v, cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	settings = cfg

	l, closer, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	}, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	logger, logCloser = l, closer
	slog.SetDefault(l)
	return nil
}

// newApp builds the resolution stack from the loaded settings.
func newApp() (*app.App, error) {
	return app.New(app.Config{
		Settings:    settings,
		ProjectRoot: projectRoot(),
		Logger:      logger,
	})
}
