// Package main provides the market research CLI.
//
// Run with: go run ./cmd/cli create "chatbots" --search
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AlosedAG/market-creation/internal/app"
	"github.com/AlosedAG/market-creation/internal/config"
	"github.com/AlosedAG/market-creation/internal/engine"
	"github.com/AlosedAG/market-creation/internal/llm"
	"github.com/AlosedAG/market-creation/internal/scraper"
	"github.com/AlosedAG/market-creation/internal/service"
)

// globalOptions are the flags shared by every command.
type globalOptions struct {
	configPath string
	model      string
	pickModel  bool
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(describeError(err)))
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "market-cli",
		Short:         "LLM-assisted market research: taxonomies, competitors and product data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("MARKET_CONFIG_PATH"), "Path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.model, "model", "", "Model to use, overriding the config")
	root.PersistentFlags().BoolVar(&opts.pickModel, "pick-model", false, "Choose the model interactively from the provider's list")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug output")

	root.AddCommand(createCmd(opts))
	root.AddCommand(updateCmd(opts))
	root.AddCommand(modelsCmd(opts))
	root.AddCommand(callsCmd(opts))
	return root
}

func createCmd(opts *globalOptions) *cobra.Command {
	var search, export bool

	cmd := &cobra.Command{
		Use:   "create <topic>",
		Short: "Build a market taxonomy, optionally searching for current players",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.Join(args, " ")
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, subtleStyle.Render(fmt.Sprintf("Analyzing market: %s...", topic)))

				taxonomy, err := a.Creator.BuildTaxonomy(ctx, topic)
				if err != nil {
					return err
				}
				renderTaxonomy(out, taxonomy)

				if export {
					exp, err := a.Exporter()
					if err != nil {
						return err
					}
					path, err := exp.Taxonomy(topic, taxonomy)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, successStyle.Render("Saved "+path))
				}

				if !search {
					return nil
				}

				fmt.Fprintln(out)
				fmt.Fprintln(out, subtleStyle.Render("Searching for current players..."))
				competitors, err := a.Creator.FindCompetitors(ctx, topic, taxonomy.Divisions)
				if err != nil {
					return err
				}
				renderCompetitors(out, competitors)

				if export && len(competitors) > 0 {
					exp, err := a.Exporter()
					if err != nil {
						return err
					}
					path, err := exp.Competitors(topic, competitors)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, successStyle.Render("Saved "+path))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&search, "search", false, "Also search the web for current players")
	cmd.Flags().BoolVar(&export, "export", false, "Write results as CSV to the export directory")
	return cmd
}

func updateCmd(opts *globalOptions) *cobra.Command {
	var features []string
	var export bool

	cmd := &cobra.Command{
		Use:   "update <url>",
		Short: "Scrape a product page and extract structured market data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := args[0]
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, subtleStyle.Render(fmt.Sprintf("Analyzing page content from %s...", url)))

				product, err := a.Updater.UpdateCompany(ctx, url, features)
				if err != nil {
					return err
				}
				renderProduct(out, product)

				if export {
					exp, err := a.Exporter()
					if err != nil {
						return err
					}
					path, err := exp.Product(url, product)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, successStyle.Render("Saved "+path))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&features, "feature", nil,
		fmt.Sprintf("Feature to check for, repeatable (default %q)", strings.Join(service.DefaultFeatures, ", ")))
	cmd.Flags().BoolVar(&export, "export", false, "Write the record as CSV to the export directory")
	return cmd
}

func modelsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models available to your API key, cheapest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ranked, err := listModels(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			renderModels(cmd.OutOrStdout(), ranked)
			return nil
		},
	}
}

func callsCmd(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "calls",
		Short: "Summarize recorded task runs from the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				if a.Calls == nil {
					fmt.Fprintln(cmd.OutOrStdout(), warningStyle.Render("The audit log is disabled (storage.audit: false)."))
					return nil
				}
				summaries, err := a.Calls.Summarize(ctx)
				if err != nil {
					return err
				}
				recent, err := a.Calls.ListRecent(ctx, limit)
				if err != nil {
					return err
				}
				renderCalls(cmd.OutOrStdout(), summaries, recent)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "How many recent runs to show")
	return cmd
}

// setup loads configuration, creates the logger and resolves the credential
// and model, prompting on stdin where needed.
func setup(cmd *cobra.Command, opts *globalOptions) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := newLogger(cfg.Log.Level, opts.verbose)
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}

	in := bufio.NewReader(cmd.InOrStdin())
	if cfg.LLM.APIKey() == "" {
		key, err := promptAPIKey(in, cmd.ErrOrStderr(), cfg.LLM.Provider)
		if err != nil {
			return nil, nil, err
		}
		cfg.LLM.SetAPIKey(key)
	}

	if opts.model != "" {
		cfg.LLM.SetModel(opts.model)
	}

	if opts.pickModel && cmd.Name() != "models" {
		ranked, err := listModels(cmd.Context(), cfg)
		if err != nil {
			return nil, nil, err
		}
		out := cmd.ErrOrStderr()
		renderModels(out, ranked)
		choice, err := chooseModel(in, out, ranked)
		if err != nil {
			return nil, nil, err
		}
		cfg.LLM.SetModel(choice.Name)
		fmt.Fprintln(out, successStyle.Render("Selected "+choice.DisplayName))
	}

	return cfg, logger, nil
}

// withApp runs fn against a fully wired App and releases it afterwards.
func withApp(cmd *cobra.Command, opts *globalOptions, fn func(ctx context.Context, a *app.App) error) error {
	cfg, logger, err := setup(cmd, opts)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.New(cmd.Context(), cfg, app.Options{}, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(cmd.Context(), a)
}

func listModels(ctx context.Context, cfg *config.Config) ([]llm.RankedModel, error) {
	client, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	lister, ok := client.(llm.ModelLister)
	if !ok {
		return nil, fmt.Errorf("%s does not support listing models", client.ProviderName())
	}
	models, err := lister.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}

	if cfg.LLM.Provider != config.ProviderGemini {
		ranked := make([]llm.RankedModel, 0, len(models))
		for _, m := range models {
			ranked = append(ranked, llm.RankedModel{ModelInfo: m, Tier: llm.TierOther})
		}
		return ranked, nil
	}

	ranked := llm.RankModels(models)
	if len(ranked) == 0 {
		return nil, errors.New("no Gemini models available for this API key")
	}
	return ranked, nil
}

// newLogger builds a console logger. The CLI talks to the user through
// stdout, so the logger stays at warn unless asked for more.
func newLogger(level string, verbose bool) (*zap.Logger, error) {
	lc := zap.NewDevelopmentConfig()
	lvl := zapcore.WarnLevel
	if level != "" && level != "info" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		lvl = parsed
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	lc.Level = zap.NewAtomicLevelAt(lvl)
	return lc.Build()
}

// describeError turns the errors a research run commonly ends with into
// something a user can act on.
func describeError(err error) string {
	switch {
	case errors.Is(err, engine.ErrExhaustedRetries):
		return "Quota exhausted: the provider kept rejecting requests. Try again later or pick a Flash Lite model."
	case llm.IsTransient(err):
		return "The provider is rate limiting or overloaded. Try again later."
	case errors.Is(err, llm.ErrMissingAPIKey), errors.Is(err, errNoAPIKey):
		return "An API key is required. Set GEMINI_API_KEY (or the key for your provider) and retry."
	case errors.Is(err, scraper.ErrSiteUnreachable):
		return fmt.Sprintf("Could not load the page: %v", err)
	case errors.Is(err, engine.ErrMalformedResponse):
		return fmt.Sprintf("The model returned unusable output: %v", err)
	case errors.Is(err, service.ErrInvalidInput):
		return err.Error()
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	default:
		return fmt.Sprintf("error: %v", err)
	}
}
