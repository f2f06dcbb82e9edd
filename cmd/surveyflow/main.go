package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/solatis/surveyflow/cmd/surveyflow/cmd"
)

func main() {
	// .env is optional; SF_ variables from it feed config.LoadConfig.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("surveyflow: .env file not loaded", "error", err)
	}

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
