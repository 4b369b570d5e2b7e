package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mir00r/airtraffic/internal/config"
	"github.com/mir00r/airtraffic/internal/control"
	"github.com/mir00r/airtraffic/pkg/logger"
)

const version = "1.0.0"

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: airtraffic [-config file] [-socket path] [-timeout d] <command> [args]")
	fmt.Fprintln(os.Stderr, "Commands:")
	for _, name := range commandNames() {
		fmt.Fprintf(os.Stderr, "  %-18s %s\n", name, commands[name].usage)
	}
	fmt.Fprintf(os.Stderr, "  %-18s %s\n", "serve", "run the HTTP gateway")
	fmt.Fprintf(os.Stderr, "  %-18s %s\n", "validate-config", "load and validate the configuration")
}

func main() {
	configFile := flag.String("config", "", "configuration file (defaults to $CONFIG_FILE)")
	socket := flag.String("socket", "", "control socket path, overrides configuration")
	timeout := flag.Duration("timeout", 0, "per-command timeout, overrides configuration")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *socket != "" {
		cfg.Socket.Path = *socket
	}
	if *timeout > 0 {
		cfg.Socket.CommandTimeout = *timeout
	}

	log, err := logger.New(cfg.ToLoggerConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "serve":
		err = runServe(ctx, cfg, log)
	case "validate-config":
		err = runConfigValidation(cfg, os.Stdout)
	default:
		err = runCommand(ctx, cfg.ToControlOptions(), log, args, os.Stdout)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// runCommand executes one control command on a fresh connection
func runCommand(ctx context.Context, opts control.Options, log *logger.Logger, args []string, out io.Writer) error {
	cmd, ok := commands[args[0]]
	if !ok {
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
	params := args[1:]
	if len(params) < cmd.minArgs || len(params) > cmd.maxArgs {
		return fmt.Errorf("usage: airtraffic %s %s", args[0], cmd.usage)
	}

	client, err := control.New(ctx, opts, log)
	if err != nil {
		return err
	}
	defer client.Close()

	return cmd.run(ctx, client, params, out)
}

func runConfigValidation(cfg *config.Config, out io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	fmt.Fprintln(out, "Configuration validation passed")
	fmt.Fprintf(out, "Socket: %s %s (policy %s)\n", cfg.Socket.Network, cfg.Socket.Path, cfg.Socket.Policy)
	fmt.Fprintf(out, "Command timeout: %s\n", cfg.Socket.CommandTimeout)
	fmt.Fprintf(out, "Gateway port: %d\n", cfg.Gateway.Port)
	fmt.Fprintf(out, "gRPC health port: %d\n", cfg.Gateway.GRPCHealthPort)
	fmt.Fprintf(out, "Rate limiting: %t\n", cfg.Gateway.RateLimit.Enabled)
	fmt.Fprintf(out, "Authentication: %t\n", cfg.Gateway.Auth.Enabled)
	return nil
}
