package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/mirbyte/androidArchiver/internal/config"
	"github.com/mirbyte/androidArchiver/internal/logger"
	"github.com/mirbyte/androidArchiver/pkg/adb"
	"github.com/mirbyte/androidArchiver/pkg/backup"
	"github.com/mirbyte/androidArchiver/pkg/ui"
)

const (
	exitFailed    = 1
	exitCancelled = 130
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	var (
		cfgPath string
		adbFlag string
	)

	cmd := &cobra.Command{
		Use:           "androidarchiver",
		Short:         "Back up an Android device to this machine over adb",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfgPath, adbFlag)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", config.DefaultPath(), "Path to the config file")
	cmd.Flags().StringVar(&adbFlag, "adb", "", "Path to the adb binary (overrides config and auto-detection)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, cmd); err != nil {
		if errors.Is(err, backup.ErrCancelled) || errors.Is(err, context.Canceled) {
			os.Exit(exitCancelled)
		}
		os.Exit(exitFailed)
	}
}

func run(ctx context.Context, cfgPath, adbFlag string) error {
	log := logger.NewFileLogger("android_archiver.log", "archiver")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if adbFlag != "" {
		cfg.ADBPath = adbFlag
	}

	adbPath, err := adb.LocateBinary(cfg.ADBPath)
	if err != nil {
		return err
	}
	log.Info().Str("adb", adbPath).Msg("using adb binary")

	client := adb.NewClient(adbPath, log)
	prompt := ui.NewConsolePrompter()
	prompt.Banner(version)

	engine := backup.NewEngine(client, prompt, prompt, cfg, log)

	session, err := engine.Prepare(ctx)
	if err != nil {
		return err
	}

	transferCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewTransferModel(engine.Device(), session.Target.Scope.String(),
		session.Target.DestinationPath, cancel)
	program := tea.NewProgram(model)

	type result struct {
		summary backup.Summary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		summary, err := engine.Transfer(transferCtx, session, func(s backup.ProgressSnapshot) {
			program.Send(ui.SnapshotMsg(s))
		})
		done <- result{summary, err}
		program.Send(ui.DoneMsg{Summary: summary})
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-done
		return fmt.Errorf("progress display: %w", err)
	}

	res := <-done
	prompt.ShowSummary(res.summary)
	if res.err != nil {
		return res.err
	}
	if res.summary.State == backup.SessionCancelled {
		return backup.ErrCancelled
	}
	return nil
}
