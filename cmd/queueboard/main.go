package main

import (
	"os"

	"github.com/soyeahso/queueboard/internal/cli"
	"github.com/tillberg/autorestart"
)

func main() {
	if os.Getenv("QUEUEBOARD_AUTORESTART") != "" {
		go autorestart.RestartOnChange()
	}

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
