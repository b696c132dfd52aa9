//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"os"

	"gitlab.com/subshare/subshare/internal/bot"
	"gitlab.com/subshare/subshare/internal/models"
)

func main() {
	listings := []models.Listing{
		{Title: "NETFLIX PREMIUM"},
		{Title: "⭐ NETFLIX PADRÃO"},
		{Title: "DISNEY+"},
		{Title: "SPOTIFY FAMÍLIA"},
		{Title: "DEEZER"},
		{Title: "CANVA PRO"},
		{Title: "ALURA"},
	}

	chartData, err := bot.GenerateCatalogChart(listings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile("catalog.png", chartData, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Created catalog.png - Example catalog breakdown chart")
}
