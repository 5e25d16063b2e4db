package main

import (
	"fmt"
	"os"

	"github.com/wellora/wellora-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Start(); err != nil {
		a.Log.Error("Failed to start background triggers", "error", err)
		os.Exit(1)
	}
	if err := a.Run(); err != nil {
		a.Log.Warn("Server failed", "error", err)
	}
}
