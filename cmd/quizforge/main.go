package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zen-systems/quizforge/pkg/config"
	"github.com/zen-systems/quizforge/pkg/provider"
	"github.com/zen-systems/quizforge/pkg/registry"
)

var (
	configFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "quizforge",
		Short: "Quiz content generation backend over interchangeable AI providers",
		Long: `Quizforge generates quiz content by routing generation calls to
	interchangeable AI backends through a provider registry. Text providers
	produce questions and topics; image providers produce illustrations.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(providersCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(imagineCmd())
	rootCmd.AddCommand(validateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	return config.LoadDefault()
}

// buildRegistry wires configuration into adapters and registers them. This is
// the single composition point; nothing else constructs adapters.
func buildRegistry(cfg *config.Config) (*registry.Registry, error) {
	reg := registry.New(cfg)

	reg.RegisterText(provider.NewOpenAI(cfg.Provider("openai")))
	reg.RegisterText(provider.NewAnthropic(cfg.Provider("anthropic")))
	if googleCfg := cfg.Provider("google"); googleCfg.APIKey != "" {
		google, err := provider.NewGoogle(googleCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create google adapter: %w", err)
		}
		reg.RegisterText(google)
	}

	reg.RegisterImage(provider.NewSwarm(cfg.Provider("swarm")))
	reg.RegisterImage(provider.NewDallE(cfg.Provider("dalle")))

	return reg, nil
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List registered providers and their live availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			reg, err := buildRegistry(cfg)
			if err != nil {
				return err
			}

			infos := reg.ProviderInfo(cmd.Context())

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tKIND\tPRIORITY\tAVAILABLE\tMODELS")
			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\t%d\n",
					info.ID, info.Name, info.Kind, reg.Priority(info.ID), info.Available, info.ModelCount)
			}
			return w.Flush()
		},
	}
}

func modelsCmd() *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List advertised models across all providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			reg, err := buildRegistry(cfg)
			if err != nil {
				return err
			}

			var entries []registry.ModelEntry
			switch kindFlag {
			case "":
				entries = reg.AllModels()
			case string(provider.KindText), string(provider.KindImage):
				entries = reg.ModelsByKind(provider.Kind(kindFlag))
			default:
				return fmt.Errorf("unknown kind %q (want text or image)", kindFlag)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tKIND\tMODEL\tPRIORITY")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", e.Provider, e.Kind, e.Model.ID, e.Model.Priority)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "", "filter by kind (text or image)")
	return cmd
}

func askCmd() *cobra.Command {
	var providerFlag, modelFlag, systemFlag string
	var maxTokens int
	var temperature float64

	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Generate text through the selected provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			reg, err := buildRegistry(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			p, err := reg.SelectText(ctx, providerFlag)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Using provider %s\n", p.ID())

			req := provider.TextRequest{
				Model:  modelFlag,
				System: systemFlag,
				Prompt: args[0],
			}
			if cmd.Flags().Changed("max-tokens") {
				req.MaxTokens = &maxTokens
			}
			if cmd.Flags().Changed("temperature") {
				req.Temperature = &temperature
			}

			result, err := p.GenerateText(ctx, req)
			if err != nil {
				return err
			}
			fmt.Println(result.Artifact.Content)
			if verbose {
				fmt.Fprintf(os.Stderr, "finish=%s tokens=%d\n", result.FinishReason, result.Usage.TotalTokens)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&providerFlag, "provider", "", "preferred provider id")
	cmd.Flags().StringVar(&modelFlag, "model", "", "model override")
	cmd.Flags().StringVar(&systemFlag, "system", "", "system instruction")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "completion token limit")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "sampling temperature")
	return cmd
}

func imagineCmd() *cobra.Command {
	var providerFlag, modelFlag, negativeFlag string
	var width, height, steps, count int
	var seed int64

	cmd := &cobra.Command{
		Use:   "imagine [prompt]",
		Short: "Generate images through the selected provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			reg, err := buildRegistry(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			p, err := reg.SelectImage(ctx, providerFlag)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Using provider %s\n", p.ID())

			result, err := p.GenerateImage(ctx, provider.ImageRequest{
				Model:          modelFlag,
				Prompt:         args[0],
				NegativePrompt: negativeFlag,
				Count:          count,
				Width:          width,
				Height:         height,
				Steps:          steps,
				Seed:           seed,
			})
			if err != nil {
				return err
			}
			for _, asset := range result.Assets {
				fmt.Println(asset.URL)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&providerFlag, "provider", "", "preferred provider id")
	cmd.Flags().StringVar(&modelFlag, "model", "", "model override")
	cmd.Flags().StringVar(&negativeFlag, "negative", "", "negative prompt")
	cmd.Flags().IntVar(&width, "width", 0, "image width")
	cmd.Flags().IntVar(&height, "height", 0, "image height")
	cmd.Flags().IntVar(&steps, "steps", 0, "sampling steps")
	cmd.Flags().IntVar(&count, "count", 1, "number of images")
	cmd.Flags().Int64Var(&seed, "seed", 0, "generation seed (0 = random)")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("Configuration OK: %d providers, default text=%s, default image=%s, fallback=%t\n",
				len(cfg.Providers), cfg.Selection.DefaultText, cfg.Selection.DefaultImage, cfg.Selection.FallbackEnabled)
			return nil
		},
	}
}
