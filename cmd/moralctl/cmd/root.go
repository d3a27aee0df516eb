package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/moralgraph-backend/internal/app"
)

var deliberationFlag string

var rootCmd = &cobra.Command{
	Use:           "moralctl",
	Short:         "Operate moral graph deliberations: dedupe, hypothesize, summarize, draw",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&deliberationFlag, "deliberation", "d", "", "Deliberation id (or MORALGRAPH_DELIBERATION)")
}

// signalContext is canceled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// withCore opens the app core for the duration of fn.
func withCore(fn func(ctx context.Context, core *app.Core) error) error {
	ctx, cancel := signalContext()
	defer cancel()
	core, err := app.NewCore(ctx)
	if err != nil {
		return err
	}
	defer core.Close()
	return fn(ctx, core)
}

// deliberationID resolves the flag, then the environment.
func deliberationID() (uuid.UUID, error) {
	raw := strings.TrimSpace(deliberationFlag)
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("MORALGRAPH_DELIBERATION"))
	}
	if raw == "" {
		return uuid.Nil, fmt.Errorf("missing --deliberation (or set MORALGRAPH_DELIBERATION)")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid deliberation id %q: %w", raw, err)
	}
	return id, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// stderrReport prints step progress without polluting JSON on stdout.
func stderrReport(stage string, pct int, message string) {
	fmt.Fprintf(os.Stderr, "[%3d%%] %s %s\n", pct, stage, message)
}
