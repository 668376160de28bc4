// Command farmvoice-tui talks to the farm assistant from a terminal.
//
// Usage:
//
//	farmvoice-tui [flags]
//
// Flags:
//
//	-agent string      ElevenLabs agent id (overrides FARMVOICE_AGENT_ID)
//	-transport string  agent or recognition (overrides FARMVOICE_TRANSPORT)
//	-log string        Append logs to this file instead of discarding them
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"farmvoice/internal/bootstrap"
	"farmvoice/internal/config"
	"farmvoice/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "farmvoice-tui: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		agentID   = flag.String("agent", "", "ElevenLabs agent id")
		transport = flag.String("transport", "", "Transport: agent or recognition")
		logPath   = flag.String("log", "", "Log file (logs are discarded when empty)")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *agentID != "" {
		cfg.Agent.ID = strings.TrimSpace(*agentID)
	}
	switch strings.ToLower(strings.TrimSpace(*transport)) {
	case "":
	case config.TransportAgent, config.TransportRecognition:
		cfg.Agent.Transport = strings.ToLower(strings.TrimSpace(*transport))
	default:
		return fmt.Errorf("unknown transport %q", *transport)
	}

	var logOutput io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOutput = f
	}

	sink := tui.NewSink()
	services, err := bootstrap.BuildWithConfig(cfg, sink, logOutput)
	if err != nil {
		return err
	}

	model := tui.New(services.Session, sink, tui.SystemClipboard{}, cfg.Agent.ID)
	runErr := tui.Run(ctx, model)

	sink.Close()
	services.Session.Close()
	if runErr != nil {
		return fmt.Errorf("TUI: %w", runErr)
	}
	return nil
}
