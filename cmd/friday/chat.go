package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/go-friday-voice/internal/config"
	"github.com/example/go-friday-voice/internal/health"
	"github.com/example/go-friday-voice/internal/notify"
	"github.com/example/go-friday-voice/internal/orchestrator"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive speech session",
		Long: "Start an interactive speech session. Each line typed is spoken and kept\n" +
			"under the history directory. '/lang <code>' switches the language;\n" +
			"'quit', 'exit' or 'bye' end the session.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd)
		},
	}
}

func runChat(cmd *cobra.Command) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return chat(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func chat(ctx context.Context, cfg config.Config, in io.Reader, out, errOut io.Writer) error {
	svc, err := buildServices(cfg, errOut)
	if err != nil {
		return &orchestrator.FatalInitError{Err: err}
	}
	defer func() {
		if err := svc.Close(); err != nil {
			slog.Warn("close synthesis engine", "error", err)
		}
	}()

	var hs *health.Server
	if cfg.Server.GRPCAddr != "" {
		hs = health.New(cfg.Server.GRPCAddr, slog.Default())
		serveCtx, cancel := context.WithCancel(ctx)
		served := make(chan struct{})
		go func() {
			defer close(served)
			if err := hs.ListenAndServe(serveCtx); err != nil {
				slog.Error("health server stopped", "error", err)
			}
		}()
		defer func() {
			cancel()
			<-served
		}()
	}

	orch := orchestrator.New(svc.synth, svc.player, orchestrator.Options{
		Name:           cfg.Session.Name,
		Language:       cfg.Session.Language,
		PromptLanguage: cfg.Session.PromptLanguage,
		Messages: orchestrator.Messages{
			Start:            cfg.Session.StartMessage,
			Ready:            cfg.Session.ReadyMessage,
			Greeting:         cfg.Session.Greeting,
			Farewell:         cfg.Session.Farewell,
			LanguageSwitched: cfg.Session.LanguageSwitched,
		},
		StartupDelay: cfg.Startup.Delay,
		Input:        in,
		Output:       out,
		Notifier:     notify.New(cfg.Session.Name, cfg.Notify.Enabled, slog.Default()),
		Logger:       slog.Default(),
	})

	if err := orch.Startup(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	if hs != nil {
		hs.SetServing(true)
		defer hs.SetServing(false)
	}

	err = orch.Run(ctx)
	if errors.Is(err, context.Canceled) {
		_, _ = fmt.Fprintln(out)
		return nil
	}
	return err
}
