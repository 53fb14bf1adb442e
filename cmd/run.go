package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/alkhalifas/study-learn-chat-langgraph/internal/app"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/config"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/export"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/lessons"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/llm"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/store"
	"github.com/alkhalifas/study-learn-chat-langgraph/internal/tutor"
	"github.com/spf13/cobra"
)

// chatCmd is an explicit alias for the default action.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

// runApp opens the store, builds the engine, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	eventRepo := st.EventRepo()

	catalog, err := loadCatalog(cmd)
	if err != nil {
		return err
	}

	provider, cfg, err := llm.NewProviderFromEnv(ctx, eventRepo)
	if err != nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
		fmt.Fprintln(os.Stderr, "Set STUDYCHAT_LLM_PROVIDER and the matching API key, or export OPENAI_API_KEY.")
		return err
	}

	exportDir := config.Getenv("STUDYCHAT_EXPORT_DIR", "exports")
	registry := export.NewRegistry()
	registry.Register("dmaic", export.NewSlideExporter(exportDir))

	engine := tutor.NewEngine(provider, catalog, registry, eventRepo, tutor.DefaultConfig())

	return app.Run(app.Options{
		Engine:       engine,
		Events:       eventRepo,
		ProviderName: cfg.Provider,
		ModelID:      provider.ModelID(),
	})
}

// loadCatalog builds the lesson catalog from the embedded lessons plus
// any external directory. External lessons override built-ins that share
// an ID.
func loadCatalog(cmd *cobra.Command) (*lessons.Catalog, error) {
	catalog := lessons.NewCatalog(os.Stderr)

	if _, err := catalog.LoadFS(lessons.Builtin(), "."); err != nil {
		return nil, fmt.Errorf("load built-in lessons: %w", err)
	}

	if dir := resolveLessonsDir(cmd); dir != "" {
		if _, err := catalog.LoadFS(os.DirFS(dir), "."); err != nil {
			return nil, fmt.Errorf("load lessons from %s: %w", dir, err)
		}
	}

	if catalog.Len() == 0 {
		return nil, errors.New("no lessons loaded")
	}
	return catalog, nil
}
