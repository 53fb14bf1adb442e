package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/alkhalifas/study-learn-chat-langgraph/internal/store"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show lesson activity statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEventRepo(cmd, func(ctx context.Context, repo store.EventRepo) error {
			stats, err := repo.LessonActivityStats(ctx)
			if err != nil {
				return fmt.Errorf("query lesson activity: %w", err)
			}

			if len(stats) == 0 {
				fmt.Println("No lesson activity recorded yet.")
				return nil
			}

			fmt.Println("Lesson Activity")
			fmt.Println(strings.Repeat("─", 72))
			fmt.Printf("%-16s  %8s  %8s  %10s  %10s  %9s\n",
				"Lesson", "Started", "Steps", "Completed", "Cancelled", "Exported")
			fmt.Println(strings.Repeat("─", 72))

			for _, st := range stats {
				fmt.Printf("%-16s  %8d  %8d  %10d  %10d  %9d\n",
					st.LessonID, st.Started, st.StepsSubmitted, st.Completed, st.Cancelled, st.Exported)
			}
			return nil
		})
	},
}
