package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"codewalk/internal/config"
	"codewalk/internal/crawler"
	"codewalk/internal/generator"
	"codewalk/internal/git"
	"codewalk/internal/include"
	"codewalk/internal/parser"
	"codewalk/internal/testreport"
	"codewalk/internal/watcher"
)

var (
	rootCmd = &cobra.Command{
		Use:           "codewalk",
		Short:         "Turn annotated example sources into tutorial documentation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	configPath string
	verbose    bool
	logger     *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "codewalk.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(watchCmd)
}

func initLogger() *zap.Logger {
	if logger != nil {
		return logger
	}
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger = l
	return logger
}

// initGenerator wires the full pipeline from configuration.
func initGenerator() (*generator.DocGenerator, *config.Config, error) {
	log := initLogger()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 1. Parser with the configured test sentinel
	p := parser.NewParser(log)
	p.Sentinel = cfg.Tests.Sentinel

	// 2. Include resolver rooted at the example directory
	resolver := include.NewResolver(cfg.Project.Examples, log)

	// 3. Renderer and test report
	renderer := generator.NewRenderer(resolver, cfg.Render.Language, log)
	report := testreport.Load(cfg.Tests.Report, log)

	gen := generator.NewDocGenerator(p, renderer, report, cfg.Project.Root, cfg.Render.Workers, log)
	return gen, cfg, nil
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render every example into the output directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, cfg, err := initGenerator()
		if err != nil {
			return err
		}

		fmt.Printf("🚀 Rendering examples from %s...\n", cfg.Project.Examples)
		stats, err := gen.GenerateDocs(cmd.Context(), cfg.Project.Examples, cfg.Output.Dir)
		if err != nil {
			return err
		}

		fmt.Printf("✅ %d documents generated in %s\n", stats.Rendered, cfg.Output.Dir)
		if stats.Failed > 0 {
			fmt.Printf("⚠️  %d examples failed to render:\n", stats.Failed)
			for _, f := range stats.Failures {
				fmt.Printf("  - %s: %v\n", f.Path, f.Err)
			}
		}
		return nil
	},
}

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Render a single example to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, cfg, err := initGenerator()
		if err != nil {
			return err
		}

		out, err := gen.RenderFile(args[0], cfg.Project.Examples)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Render a single example styled for the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, cfg, err := initGenerator()
		if err != nil {
			return err
		}

		out, err := gen.RenderFile(args[0], cfg.Project.Examples)
		if err != nil {
			return err
		}

		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			return err
		}
		styled, err := renderer.Render(out)
		if err != nil {
			return err
		}
		fmt.Print(styled)
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Re-render only the examples changed since HEAD",
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, cfg, err := initGenerator()
		if err != nil {
			return err
		}

		changed, err := git.GetChangedFiles("HEAD")
		if err != nil {
			return fmt.Errorf("failed to get git changes: %w", err)
		}

		examplesPrefix := filepath.Clean(cfg.Project.Examples) + string(filepath.Separator)
		updated := 0
		for _, path := range changed {
			if !crawler.IsSourceFile(path) || !strings.HasPrefix(filepath.Clean(path), examplesPrefix) {
				continue
			}
			if _, err := os.Stat(path); err != nil {
				continue // deleted files keep their stale doc until the next full generate
			}
			if err := gen.GenerateFile(path, cfg.Project.Examples, cfg.Output.Dir); err != nil {
				fmt.Printf("⚠️  %s: %v\n", path, err)
				continue
			}
			updated++
		}

		if updated == 0 {
			fmt.Println("✅ No changed examples.")
			return nil
		}
		fmt.Printf("✅ %d documents updated in %s\n", updated, cfg.Output.Dir)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the example directory and re-render on change",
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, cfg, err := initGenerator()
		if err != nil {
			return err
		}

		w, err := watcher.New(func(path string) {
			if err := gen.GenerateFile(path, cfg.Project.Examples, cfg.Output.Dir); err != nil {
				fmt.Printf("⚠️  %s: %v\n", path, err)
				return
			}
			fmt.Printf("📝 Updated %s\n", generator.OutputPath(path, cfg.Project.Examples, cfg.Output.Dir))
		}, initLogger())
		if err != nil {
			return err
		}
		defer w.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("👀 Watching %s (Ctrl-C to stop)...\n", cfg.Project.Examples)
		if err := w.Watch(ctx, cfg.Project.Examples); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}
