package main

import (
	"log"

	"github.com/MrSnakeDoc/panelshop/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ panelshop failed to start: %v", err)
	}
}
