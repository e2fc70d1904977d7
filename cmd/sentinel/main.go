package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sentinel/internal/config"
	"sentinel/internal/dispatch"
	"sentinel/internal/interpret"
	"sentinel/internal/logging"
	"sentinel/internal/perception"
	"sentinel/internal/privacy"
	"sentinel/internal/server"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger

	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	privateStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	publicStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "sentinel - privacy-aware assistant command interpreter",
	Long: `sentinel turns natural-language instructions into validated assistant
actions. Sensitive instructions are interpreted by a local model chain
(ollama, llama.cpp, transformers); public ones may use a cloud endpoint
with sensitive values swapped for placeholders and restored afterwards.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		cfg.ApplyEnv()
		if verbose {
			cfg.Logging.Debug = true
		}
		if err := logging.Initialize(cfg.StateDir, cfg.Logging.Debug); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}

		zapConfig := zap.NewProductionConfig()
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

// app bundles the wired pipeline shared by the subcommands.
type app struct {
	classifier  *privacy.Classifier
	redactor    *privacy.Redactor
	sanitizer   *dispatch.Sanitizer
	interpreter *interpret.Interpreter
	dispatcher  *dispatch.Dispatcher
}

func buildApp() (*app, error) {
	classifier := privacy.NewClassifier()
	if cfg.Privacy.PatternFile != "" {
		if err := classifier.LoadPatternFile(cfg.Privacy.PatternFile); err != nil {
			logger.Warn("extra privacy patterns not loaded", zap.Error(err))
		}
	}
	redactor := privacy.NewRedactor(classifier)
	sanitizer := dispatch.NewSanitizer(redactor)
	validator := dispatch.NewValidator(sanitizer)

	router := perception.NewRouterFromConfig(&cfg)
	cloud := perception.NewCloudClientFromConfig(&cfg)
	records := perception.NewCallRecordStore()
	interpreter := interpret.NewInterpreter(
		classifier, privacy.NewVault(), router, cloud, validator, records)

	registry := newRegistry(interpreter)
	dispatcher := dispatch.NewDispatcher(registry, validator, sanitizer)

	return &app{
		classifier:  classifier,
		redactor:    redactor,
		sanitizer:   sanitizer,
		interpreter: interpreter,
		dispatcher:  dispatcher,
	}, nil
}

var runCmd = &cobra.Command{
	Use:   "run [instruction]",
	Short: "Interpret one instruction and print the validated actions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		instruction := joinArgs(args)
		result, err := a.interpreter.Interpret(cmd.Context(), instruction)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var completeMaxTokens int

var completeCmd = &cobra.Command{
	Use:   "complete [prompt]",
	Short: "Run a free-form completion with privacy routing",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		reply, err := a.interpreter.Complete(cmd.Context(), joinArgs(args), completeMaxTokens)
		if err != nil {
			return err
		}
		fmt.Println(reply)
		return nil
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify [text]",
	Short: "Report whether text would be allowed to leave the machine",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		label := a.classifier.Classify(joinArgs(args))
		rendered := publicStyle.Render(string(label))
		if label == privacy.LabelPrivate {
			rendered = privateStyle.Render(string(label))
		}
		fmt.Printf("%s %s\n", labelStyle.Render("classification:"), rendered)
		return nil
	},
}

var redactCmd = &cobra.Command{
	Use:   "redact [text]",
	Short: "Print text with sensitive lines replaced",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		fmt.Println(a.redactor.Redact(joinArgs(args)))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe the local model chain and report the active provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		router := a.interpreter.Router()
		if router.IsAvailable(cmd.Context()) {
			fmt.Printf("%s %s\n", labelStyle.Render("provider:"), router.Provider())
			fmt.Printf("%s %s\n", labelStyle.Render("model:"), router.Descriptor())
			return nil
		}
		fmt.Printf("%s %s\n", labelStyle.Render("local model:"), privateStyle.Render("unavailable"))
		fmt.Println(dimStyle.Render(router.AvailabilityMessage()))
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP assistant endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cfg.Privacy.WatchPatterns && cfg.Privacy.PatternFile != "" {
			watcher, err := privacy.NewPatternWatcher(cfg.Privacy.PatternFile, a.classifier)
			if err != nil {
				logger.Warn("pattern watcher disabled", zap.Error(err))
			} else {
				if err := watcher.Start(ctx); err != nil {
					logger.Warn("pattern watcher failed to start", zap.Error(err))
				} else {
					defer watcher.Stop()
				}
			}
		}

		srv := server.New(cfg.Server, a.interpreter, a.dispatcher, a.sanitizer)
		logger.Info("serving", zap.String("addr", cfg.Server.Addr))
		return srv.Serve(ctx)
	},
}

func joinArgs(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	joined := args[0]
	for _, arg := range args[1:] {
		joined += " " + arg
	}
	return joined
}

func printJSON(v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "sentinel.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	completeCmd.Flags().IntVar(&completeMaxTokens, "max-tokens", 256, "completion token budget")

	rootCmd.AddCommand(runCmd, completeCmd, classifyCmd, redactCmd, statusCmd, serveCmd)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, privateStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}
