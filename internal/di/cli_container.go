package di

import (
	"flag"
	"os"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/config"
	"github.com/mikey/scamguard/internal/core"
	"github.com/mikey/scamguard/internal/factory"
	"github.com/mikey/scamguard/internal/logging"
	"github.com/mikey/scamguard/internal/ports"
	"github.com/mikey/scamguard/internal/scoring"
	"github.com/mikey/scamguard/internal/sender"
	"github.com/mikey/scamguard/internal/validation"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Message flags
	Type      string
	Sender    string
	InputFile string

	// Analysis flags
	RulesFile      string
	TrustedDomains string
	MaxBytes       int

	// Output flags
	JSONOutput bool
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	return parseFlags(flag.CommandLine, os.Args[1:])
}

func parseFlags(fs *flag.FlagSet, args []string) *CLIFlags {
	flags := &CLIFlags{}

	fs.StringVar(&flags.Type, "type", "email", "Message type (email, sms)")
	fs.StringVar(&flags.Sender, "sender", "", "Sender email address or phone number (taken from the From header for raw email when empty)")
	fs.StringVar(&flags.InputFile, "file", "", "Input message file (use stdin if not specified)")

	fs.StringVar(&flags.RulesFile, "rules", "", "YAML rule set overriding the built-in rules")
	fs.StringVar(&flags.TrustedDomains, "trusted", "", "Comma-separated list of trusted sender domains")
	fs.IntVar(&flags.MaxBytes, "max-bytes", 10000, "Maximum content size analysed")

	fs.BoolVar(&flags.JSONOutput, "json", false, "Print the analysis result as JSON")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging and content preview")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	_ = fs.Parse(args)
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", flags.ConfigFile))
			cfg.Set("filter.type", "cli")
			cfg.Set("cli.verbose", flags.Verbose)
			cfg.Set("cli.json", flags.JSONOutput)
			return cfg, nil
		}
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	if err := provideCore(container); err != nil {
		return nil, err
	}

	// The CLI never persists, publishes or authenticates
	if err := container.Provide(func(
		cfg *config.Config,
		engine *scoring.Engine,
		validator *validation.RequestValidator,
		checker *sender.Checker,
		processor core.ContentProcessor,
		logger *zap.Logger,
	) (*core.AnalysisService, error) {
		ac, err := cfg.GetAnalysis()
		if err != nil {
			return nil, err
		}
		return core.NewAnalysisService(
			engine,
			validator,
			nil,
			nil,
			nil,
			checker,
			processor,
			nil,
			logger,
			core.ServiceOptions{MaxContentBytes: ac.MaxContentBytes},
		), nil
	}); err != nil {
		return nil, err
	}

	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.FilterFactory) (ports.MessageFilter, error) {
		return f.CreateMessageFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	v.Set("filter.type", "cli")
	v.Set("cli.verbose", flags.Verbose)
	v.Set("cli.json", flags.JSONOutput)

	v.Set("analysis.rules_file", flags.RulesFile)
	if flags.MaxBytes > 0 {
		v.Set("analysis.max_content_bytes", flags.MaxBytes)
	}

	if flags.TrustedDomains != "" {
		domains := strings.Split(flags.TrustedDomains, ",")
		for i, domain := range domains {
			domains[i] = strings.TrimSpace(domain)
		}
		v.Set("analysis.trusted_domains", domains)
	}

	return config.NewFromViper(v)
}
