package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/filetube-go/internal/app"
	"github.com/yourusername/filetube-go/internal/domain"
	"github.com/yourusername/filetube-go/internal/infrastructure"
	"github.com/yourusername/filetube-go/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	configPath string
	verbose    bool
	rootCmd    = &cobra.Command{
		Use:           "filetube",
		Short:         "Filetube - harvest video links from documents and download them",
		Long:          `A command-line tool that scans PDF, text, CSV, spreadsheet and HTML documents for YouTube links and downloads each video at the requested quality.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default $HOME/.filetube/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show diagnostic logs")

	runCmd.Flags().StringP("output", "o", "", "Output folder (default from config)")
	runCmd.Flags().StringP("quality", "q", "", "Quality: highest or a resolution such as 720p")
	runCmd.Flags().IntP("jobs", "j", 0, "Concurrent downloads")
	watchCmd.Flags().StringP("output", "o", "", "Output folder (default from config)")
	watchCmd.Flags().StringP("quality", "q", "", "Quality: highest or a resolution such as 720p")
	historyCmd.Flags().IntP("limit", "n", 20, "Number of runs to show")
	showCmd.Flags().StringP("status", "s", "", "Filter outcomes by status (success, failed, skipped)")
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadServices loads configuration, applies flag overrides and wires the pipeline
func loadServices(override func(*domain.Config)) (*app.Services, error) {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(config)
	}

	// Console output belongs to the reporter; diagnostics go to stderr
	logConfig := logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	}
	if logConfig.OutputPath == "stdout" {
		logConfig.OutputPath = "stderr"
	}
	if !verbose {
		logConfig.Level = "warn"
	}
	log, err := logger.New(logConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return app.NewServices(config, log)
}

// runFlags applies -o, -q and -j to the download configuration
func runFlags(cmd *cobra.Command) func(*domain.Config) {
	return func(config *domain.Config) {
		if output, _ := cmd.Flags().GetString("output"); output != "" {
			config.Download.OutputDir = output
		}
		if quality, _ := cmd.Flags().GetString("quality"); quality != "" {
			config.Download.Quality = quality
		}
		if cmd.Flags().Lookup("jobs") != nil {
			if jobs, _ := cmd.Flags().GetInt("jobs"); jobs > 0 {
				config.Download.ConcurrentLimit = jobs
			}
		}
	}
}

func runParams(input string, config *domain.Config) domain.RunParams {
	return domain.RunParams{
		InputPath: input,
		OutputDir: config.Download.OutputDir,
		Quality:   config.Download.Quality,
	}
}

func newReporter(services *app.Services) *infrastructure.ConsoleReporter {
	progress := infrastructure.IsTerminal(os.Stdout) && services.Config.Download.ConcurrentLimit == 1
	return infrastructure.NewConsoleReporter(os.Stdout, services.MultiLogger.Download(), progress)
}

var runCmd = &cobra.Command{
	Use:   "run [path]",
	Short: "Download every video linked from a folder of documents or a single document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices(runFlags(cmd))
		if err != nil {
			return err
		}
		defer services.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := services.Runner.Run(ctx, runParams(args[0], services.Config), newReporter(services))
		if err != nil {
			return err
		}
		services.Notifier.NotifyRunFinished(result.Run, result.Summary)

		if result.Run.Status == domain.RunAborted {
			return errors.New("run aborted")
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [folder]",
	Short: "Process documents as they are dropped into a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices(runFlags(cmd))
		if err != nil {
			return err
		}
		defer services.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Watching %s (Ctrl+C to stop)\n", args[0])
		watcher := app.NewFolderWatcher(services.Runner, &services.Config.Watch, services.Logger)
		return watcher.Watch(ctx, runParams(args[0], services.Config), newReporter(services), func(result *domain.BatchResult) {
			services.Notifier.NotifyRunFinished(result.Run, result.Summary)
		})
	},
}

// historyRepository returns the run history or explains how to enable it
func historyRepository(services *app.Services) (domain.RunRepository, error) {
	if services.Repository == nil {
		return nil, errors.New("run history is disabled (set history.enabled: true)")
	}
	return services.Repository, nil
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices(nil)
		if err != nil {
			return err
		}
		defer services.Close()
		repo, err := historyRepository(services)
		if err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := repo.ListRuns(limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tINPUT\tOK\tFAILED\tSKIPPED")
		for _, run := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
				shortID(run.ID),
				run.StartedAt.Format(time.DateTime),
				run.Status,
				truncate(run.InputPath, 40),
				run.Succeeded,
				run.Failed,
				run.Skipped)
		}
		return w.Flush()
	},
}

var showCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show the outcomes of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices(nil)
		if err != nil {
			return err
		}
		defer services.Close()
		repo, err := historyRepository(services)
		if err != nil {
			return err
		}

		run, err := repo.FindRun(args[0])
		if err != nil {
			return err
		}
		status, _ := cmd.Flags().GetString("status")
		if status != "" && !domain.ValidateOutcomeStatus(domain.OutcomeStatus(status)) {
			return fmt.Errorf("invalid status %q", status)
		}
		outcomes, err := repo.ListOutcomes(run.ID, domain.OutcomeStatus(status))
		if err != nil {
			return err
		}

		fmt.Printf("Run Details:\n")
		fmt.Printf("  ID:       %s\n", run.ID)
		fmt.Printf("  Input:    %s\n", run.InputPath)
		fmt.Printf("  Output:   %s\n", run.OutputDir)
		fmt.Printf("  Quality:  %s\n", run.Quality)
		fmt.Printf("  Status:   %s\n", run.Status)
		fmt.Printf("  Started:  %s\n", run.StartedAt.Format(time.DateTime))
		fmt.Printf("  Duration: %s\n", run.Duration().Round(time.Second))
		fmt.Printf("  Outcomes: %d downloaded, %d failed, %d skipped\n\n", run.Succeeded, run.Failed, run.Skipped)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tSTATUS\tDOCUMENT\tLINK\tDETAIL")
		for _, o := range outcomes {
			detail := o.Reason
			if o.IsSuccess() {
				detail = fmt.Sprintf("%s [%s]", filepath.Base(o.FilePath), o.Resolution)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				o.Sequence,
				o.Status,
				filepath.Base(o.DocumentPath),
				o.Link,
				truncate(detail, 60))
		}
		return w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show download statistics across all runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices(nil)
		if err != nil {
			return err
		}
		defer services.Close()
		repo, err := historyRepository(services)
		if err != nil {
			return err
		}

		stats, err := repo.GetStats()
		if err != nil {
			return err
		}

		fmt.Println("Download Statistics:")
		fmt.Printf("  Runs:       %d\n", stats.Runs)
		fmt.Printf("  Links:      %d\n", stats.Total)
		fmt.Printf("  Downloaded: %d\n", stats.Succeeded)
		fmt.Printf("  Failed:     %d\n", stats.Failed)
		fmt.Printf("  Skipped:    %d\n", stats.Skipped)
		fmt.Printf("  Bytes:      %d\n", stats.Bytes)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with default values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			path = filepath.Join(home, ".filetube", "config.yaml")
		}

		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if err := app.SaveConfig(domain.DefaultConfig(), path); err != nil {
			return err
		}
		fmt.Printf("Config written to %s\n", path)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("filetube %s\n", version)
	},
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
