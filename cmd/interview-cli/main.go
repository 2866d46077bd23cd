// Command interview-cli - терминальный клиент интервью для кандидата и интервьюера.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yourusername/interview-api/internal/candidateclient"
)

var rootCmd = &cobra.Command{
	Use:           "interview-cli",
	Short:         "Terminal client for the AI technical interview API",
	Long:          "interview-cli runs a timed technical interview against the interview API and gives interviewers a dashboard and exports.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	serverURL   string
	sessionPath string
	httpTimeout time.Duration
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("INTERVIEW_SERVER_URL", "http://localhost:8080"), "API server URL")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session-file", "", "Path to the saved session (default: user config dir)")
	rootCmd.PersistentFlags().DurationVar(&httpTimeout, "timeout", 90*time.Second, "HTTP request timeout")
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newClient() *candidateclient.Client {
	return candidateclient.NewClient(serverURL, httpTimeout)
}

func newSessionStore() (*candidateclient.SessionStore, error) {
	path := sessionPath
	if path == "" {
		var err error
		if path, err = candidateclient.DefaultSessionPath(); err != nil {
			return nil, err
		}
	}
	return candidateclient.NewSessionStore(path), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
