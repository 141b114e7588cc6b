package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/tillberg/autorestart"

	"github.com/voxlane/frontdesk/internal/cli"
)

func main() {
	// Credentials (OPENAI_API_KEY, TWILIO_*) are commonly kept in a local
	// .env during development. Missing file is fine.
	_ = godotenv.Load()

	go autorestart.RestartOnChange()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
