package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spigell/career-coach/internal/client"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var roadmapCmd = &cobra.Command{
	Use:   "roadmap",
	Short: "Pick a role and build a learning roadmap through the API",
	Run: func(cmd *cobra.Command, _ []string) {
		roadmap(cmd)
	},
}

func init() {
	rootCmd.AddCommand(roadmapCmd)

	roadmapCmd.Flags().StringP("role", "r", "", "role slug or free-text role; skips the interactive prompt")
}

func roadmap(cmd *cobra.Command) {
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

	role, custom, err := chooseRole(cmd)
	if err != nil {
		logger.Fatal("choosing a role", zap.Error(err))
	}

	generator := client.NewRoadmapGenerator(newAPI(logger, config.Client), logNotifier(logger), logger)

	view, err := generator.Generate(ctx, role, custom)
	if err != nil {
		logger.Fatal("generating a roadmap", zap.Error(err))
	}

	printRoadmap(view)
}

// chooseRole returns the role selection and, for the custom entry, the
// free-text role.
func chooseRole(cmd *cobra.Command) (string, string, error) {
	if role, custom, ok := roleFromFlag(cmd.Flag("role").Value.String()); ok {
		return role, custom, nil
	}

	options := client.RoleOptions()
	labels := make([]string, 0, len(options))
	for _, opt := range options {
		labels = append(labels, opt.Label)
	}

	rolePrompt := promptui.Select{
		Label: "Choose a role",
		Items: labels,
	}

	idx, _, err := rolePrompt.Run()
	if err != nil {
		return "", "", err
	}

	selected := options[idx].Value
	if selected != client.RoleCustom {
		return selected, "", nil
	}

	customPrompt := promptui.Prompt{
		Label: "Enter a role",
	}
	custom, err := customPrompt.Run()
	if err != nil {
		return "", "", err
	}
	return selected, custom, nil
}

// roleFromFlag maps --role to a selection. Preset slugs select the preset;
// anything else is a custom role. ok is false for an empty flag.
func roleFromFlag(value string) (string, string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", "", false
	}
	for _, opt := range client.RoleOptions() {
		if opt.Value == value && opt.Value != client.RoleCustom {
			return value, "", true
		}
	}
	return client.RoleCustom, value, true
}

func printRoadmap(view client.RoadmapView) {
	fmt.Printf("%s\n%s\n\n", view.Roadmap.Title, view.Roadmap.Description)
	if view.Fallback {
		fmt.Println("(fallback roadmap)")
	}

	for _, node := range view.Graph.Nodes {
		fmt.Printf("[%s] %s (%s, %s)\n    %s\n",
			node.ID, node.Data.Title, node.Data.Category, node.Data.Duration, node.Data.Description,
		)
	}

	edges := make([]string, 0, len(view.Graph.Edges))
	for _, edge := range view.Graph.Edges {
		edges = append(edges, edge.Source+" -> "+edge.Target)
	}
	if len(edges) > 0 {
		fmt.Printf("\npath: %s\n", strings.Join(edges, ", "))
	}
}
