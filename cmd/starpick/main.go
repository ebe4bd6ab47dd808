// Command starpick measures source positions in astronomical images and
// collects them into an astrometric report.
package main

import (
	"log/slog"
	"os"

	"starpick/internal/cli"

	"github.com/joho/godotenv"
)

func main() {
	// A .env file in the working directory may carry STARPICK_* overrides.
	_ = godotenv.Load()

	level := slog.LevelInfo
	if os.Getenv("STARPICK_DEBUG") != "" {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if err := cli.NewRootCmd(log).Execute(); err != nil {
		os.Exit(1)
	}
}
