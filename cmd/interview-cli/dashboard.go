package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/interview-api/internal/domain/entity"
	"github.com/yourusername/interview-api/internal/handler/dto"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show candidates and interview statistics",
	RunE:  runDashboard,
}

var showCmd = &cobra.Command{
	Use:   "show <candidate-id>",
	Short: "Show a candidate's questions, answers and scores",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download candidates as CSV or Excel",
	RunE:  runExport,
}

var (
	exportFormat string
	exportOut    string
)

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "Export format: csv or xlsx")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output directory or file (default: server-provided file name in the current directory)")

	dashboardCmd.AddCommand(showCmd)
	rootCmd.AddCommand(dashboardCmd, exportCmd)
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	client := newClient()

	stats, err := client.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}
	candidates, err := client.ListCandidates(ctx)
	if err != nil {
		return fmt.Errorf("load candidates: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Candidates: %d  Completed: %d  Active: %d  Average score: %.1f\n\n",
		stats.TotalCandidates, stats.CompletedInterviews, stats.ActiveInterviews, stats.AverageScore)
	return printCandidates(out, candidates)
}

func printCandidates(out io.Writer, candidates []dto.CandidateListItem) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEMAIL\tSTATUS\tQUESTION\tSCORE\tSTARTED")
	for _, c := range candidates {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			orDash(c.Name), orDash(c.Email), c.Status, c.CurrentQuestionIndex, entity.TotalQuestions, score(c.Score),
			c.StartedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runShow(cmd *cobra.Command, args []string) error {
	detail, err := newClient().GetCandidateAnswers(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("load candidate %s: %w", args[0], err)
	}
	return printDetail(cmd.OutOrStdout(), detail)
}

func printDetail(out io.Writer, detail *dto.CandidateDetailResponse) error {
	c := detail.Candidate
	fmt.Fprintf(out, "%s <%s> %s\n", orDash(c.Name), orDash(c.Email), orDash(c.Phone))
	fmt.Fprintf(out, "Status: %s  Score: %s\n", c.Status, score(c.Score))
	if c.Summary != nil && *c.Summary != "" {
		fmt.Fprintf(out, "Summary: %s\n", *c.Summary)
	}

	for _, a := range detail.Answers {
		fmt.Fprintf(out, "\n%d/%d [%s] %s\n", a.QuestionIndex+1, entity.TotalQuestions, a.Difficulty, a.Question)
		if !a.Answered {
			fmt.Fprintln(out, "   (no answer yet)")
			continue
		}
		answer := a.Answer
		if answer == "" {
			answer = "-"
		}
		fmt.Fprintf(out, "   Answer: %s\n", answer)
		fmt.Fprintf(out, "   Score: %d/10  Time: %ds of %ds\n", *a.Score, *a.TimeSpent, a.TimeLimit)
	}
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	data, fileName, err := newClient().Export(context.Background(), exportFormat)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	target := fileName
	if exportOut != "" {
		target = exportOut
		if info, err := os.Stat(exportOut); err == nil && info.IsDir() {
			target = filepath.Join(exportOut, fileName)
		}
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", target, len(data))
	return nil
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func score(s *float64) string {
	if s == nil {
		return "-"
	}
	return strconv.FormatFloat(*s, 'f', 1, 64)
}
