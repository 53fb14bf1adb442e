package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "Inspect the lesson catalog",
}

var lessonsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available lessons",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog(cmd)
		if err != nil {
			return err
		}

		fmt.Printf("%-12s  %-24s  %-6s  %s\n", "ID", "Title", "Steps", "Description")
		fmt.Println(strings.Repeat("─", 90))
		for _, lesson := range catalog.List() {
			fmt.Printf("%-12s  %-24s  %-6d  %s\n",
				lesson.ID, lesson.Title, len(lesson.Steps), lesson.Description)
		}
		return nil
	},
}

var lessonsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a lesson's full step plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog(cmd)
		if err != nil {
			return err
		}

		lesson, ok := catalog.Get(args[0])
		if !ok {
			return fmt.Errorf("lesson %q not found", args[0])
		}

		fmt.Printf("%s (%s)\n", lesson.Title, lesson.ID)
		if lesson.Description != "" {
			fmt.Println(lesson.Description)
		}
		fmt.Println()

		for i, step := range lesson.Steps {
			fmt.Printf("Step %d — %s\n", i+1, lesson.StepName(i))
			printList("  Goals:", step.Goals)
			printList("  Best practices:", step.BestPractices)
			printList("  Prompts:", step.PromptsForUser)
			fmt.Println()
		}
		return nil
	},
}

func printList(header string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Println(header)
	for _, item := range items {
		fmt.Printf("    - %s\n", item)
	}
}

func init() {
	lessonsCmd.AddCommand(lessonsListCmd)
	lessonsCmd.AddCommand(lessonsShowCmd)
}
