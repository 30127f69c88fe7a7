package main

import (
	"fmt"
	"os"

	"github.com/amirasaad/fxconverter/infra/initializer"
	"github.com/amirasaad/fxconverter/pkg/app"
	"github.com/amirasaad/fxconverter/pkg/config"
	convertersvc "github.com/amirasaad/fxconverter/pkg/service/converter"
	"github.com/fatih/color"
	"golang.org/x/term"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}

	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	logger := initializer.SetupLoggerTo(os.Stderr, cfg.Log)
	deps, err := initializer.InitializeDependenciesWithLogger(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	a, err := app.New(deps, cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer a.ConverterService.Shutdown()

	view, err := a.ConverterService.Mount(convertersvc.MountRequest{})
	if err != nil {
		return fmt.Errorf("failed to mount converter: %w", err)
	}

	return newShell(view, os.Stdout).run(os.Stdin)
}
