package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spigell/career-coach/internal/client"
	"github.com/spigell/career-coach/internal/coach"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume.pdf]",
	Short: "Upload a PDF resume to the API and print its scores",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		analyze(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func analyze(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	path, err := resumePath(args)
	if err != nil {
		logger.Fatal("choosing a resume", zap.Error(err))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal("reading the resume", zap.Error(err))
	}

	analyzer := client.NewResumeAnalyzer(newAPI(logger, config.Client), logNotifier(logger), logger)

	// MIME type is sniffed from the content.
	if err := analyzer.Select(client.ResumeFile{Name: filepath.Base(path), Data: data}); err != nil {
		logger.Fatal("selecting the resume", zap.Error(err), zap.String("path", path))
	}

	result, err := analyzer.Analyze(ctx)
	if err != nil {
		logger.Fatal("analyzing the resume", zap.Error(err))
	}

	printAnalysis(result)
}

func resumePath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	pathPrompt := promptui.Prompt{
		Label: "Path to your resume (PDF)",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return fmt.Errorf("path is required")
			}
			return nil
		},
	}
	path, err := pathPrompt.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(path), nil
}

func printAnalysis(a client.Analysis) {
	if a.Fallback {
		fmt.Println("(analysis completed with backup system)")
	}

	fmt.Printf("Overall:    %3d  %s\n", a.OverallScore, a.OverallLabel())
	fmt.Printf("Contact:    %3d  %s\n", a.ContactScore, coach.ScoreLabel(a.ContactScore))
	fmt.Printf("Experience: %3d  %s\n", a.ExperienceScore, coach.ScoreLabel(a.ExperienceScore))

	if a.Summary != "" {
		fmt.Printf("\n%s\n", a.Summary)
	}

	printList("Strengths", a.Strengths)
	printList("Improvements", a.Improvements)
}

func printList(title string, items []string) {
	fmt.Printf("\n%s:\n", title)
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}
