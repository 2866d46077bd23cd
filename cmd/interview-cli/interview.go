package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yourusername/interview-api/internal/candidateclient"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Upload a resume and start the interview",
	Long:  "Upload a PDF or text resume and answer six timed questions. Type /pause to pause; the session can be continued within 24 hours.",
	RunE:  runStart,
}

var continueCmd = &cobra.Command{
	Use:   "continue",
	Short: "Continue the saved interview",
	RunE:  runContinue,
}

var resumeFile string

func init() {
	startCmd.Flags().StringVarP(&resumeFile, "resume", "r", "", "Path to the resume file (PDF or text)")
	_ = startCmd.MarkFlagRequired("resume")

	rootCmd.AddCommand(startCmd, continueCmd)
}

func runStart(cmd *cobra.Command, _ []string) error {
	runner, err := newRunner(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return interrupted(cmd, runner.Start(ctx, resumeFile))
}

func runContinue(cmd *cobra.Command, _ []string) error {
	runner, err := newRunner(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resumed, err := runner.Continue(ctx)
	if err != nil {
		return interrupted(cmd, err)
	}
	if !resumed {
		fmt.Fprintln(cmd.OutOrStdout(), "No interview to continue. Run: interview-cli start --resume <file>")
	}
	return nil
}

func newRunner(cmd *cobra.Command) (*candidateclient.Runner, error) {
	store, err := newSessionStore()
	if err != nil {
		return nil, err
	}
	return candidateclient.NewRunner(newClient(), store, cmd.InOrStdin(), cmd.OutOrStdout(), candidateclient.RunnerOptions{}), nil
}

// interrupted превращает остановку по сигналу или конец ввода в подсказку о продолжении
func interrupted(cmd *cobra.Command, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, candidateclient.ErrInputClosed) {
		fmt.Fprintln(cmd.OutOrStdout(), "\nProgress saved. Run `interview-cli continue` within 24 hours to pick up where you left off.")
		return nil
	}
	return err
}
