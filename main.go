package main

import (
	"os"

	"github.com/alkhalifas/study-learn-chat-langgraph/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
