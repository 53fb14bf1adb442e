package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/alkhalifas/study-learn-chat-langgraph/internal/config"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "studychat",
	Short: "Conversational study assistant in the terminal",
	Long: "StudyChat — terminal chat assistant that teaches structured methodologies\n" +
		"(DMAIC, 5S, 5 Whys) one step at a time and exports a summary slide deck\n" +
		"when a lesson is completed.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env supplies defaults; real environment variables win.
		if _, err := config.ApplyEnvFile(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides STUDYCHAT_DB)")
	rootCmd.PersistentFlags().String("lessons-dir", "", "Directory with additional lesson YAML files (overrides STUDYCHAT_LESSONS_DIR)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(lessonsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then STUDYCHAT_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// withEventRepo opens the event database and runs fn against its repo,
// closing the store afterwards. Shared by the inspection subcommands.
func withEventRepo(cmd *cobra.Command, fn func(ctx context.Context, repo store.EventRepo) error) error {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()
	return fn(cmd.Context(), s.EventRepo())
}

// resolveLessonsDir returns the external lesson directory, empty when
// only the built-in catalog should be used.
func resolveLessonsDir(cmd *cobra.Command) string {
	if d, _ := cmd.Flags().GetString("lessons-dir"); d != "" {
		return d
	}
	return os.Getenv("STUDYCHAT_LESSONS_DIR")
}
