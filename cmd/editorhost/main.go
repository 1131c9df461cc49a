package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/editorhost/internal/host"
	"github.com/danmuck/editorhost/internal/launch"
	"github.com/danmuck/editorhost/internal/logging"
	"github.com/danmuck/editorhost/internal/supervisor"
	"github.com/danmuck/editorhost/internal/window"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "editorhost: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to editorhost.toml")
	role := flag.String("window", "editor", "window role when not launched by another window: editor|run-game|embedded-run-game|xr-run-game")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	intent, err := startIntent(*role, flag.Args())
	if err != nil {
		return err
	}
	log.Logger = logging.WithWindow("editorhost", string(intent.Window.Role))

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	var base []string
	if *configPath != "" {
		base = []string{"--config", *configPath}
	}

	svc, err := host.NewService(host.Options{
		Config: cfg,
		Window: intent.Window,
		Intent: intent,
		Supervisor: &supervisor.OS{
			Executable:  exe,
			PackageName: cfg.Host.PackageName,
			BaseArgs:    base,
		},
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return svc.Run(ctx)
}

// startIntent prefers the intent left by a launching window. A process started by hand
// builds one from its flags.
func startIntent(role string, args []string) (launch.Intent, error) {
	intent, err := launch.IntentFromEnv()
	if err == nil {
		return intent, nil
	}
	if !errors.Is(err, launch.ErrNoIntent) {
		return launch.Intent{}, err
	}
	desc, err := window.ParseRole(role)
	if err != nil {
		return launch.Intent{}, err
	}
	return launch.Intent{Window: desc, CommandLineParams: args}, nil
}
