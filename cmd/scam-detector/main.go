package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/mikey/scamguard/internal/di"
	"github.com/mikey/scamguard/internal/ports"
	"github.com/mikey/scamguard/internal/scoring"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(flags *di.CLIFlags, logger *zap.Logger, messageFilter ports.MessageFilter, engine *scoring.Engine) error {
	defer logger.Sync()

	var input io.Reader = os.Stdin
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		input = file
		logger.Debug("Reading message from file", zap.String("file", flags.InputFile))
	} else {
		logger.Debug("Reading message from stdin")
	}

	raw, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	req, err := buildRequest(flags.Type, flags.Sender, raw)
	if err != nil {
		return err
	}

	if flags.Verbose && !flags.JSONOutput {
		printSignals(os.Stdout, engine.Signals(req.Content))
	}

	if _, err := messageFilter.ProcessMessage(context.Background(), req); err != nil {
		return err
	}
	return nil
}
