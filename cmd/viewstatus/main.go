// Package main provides a small CLI that prints the collector's latest
// health report.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pribilofwx/forecastd/internal/health"
)

func main() {
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "/data"
	}

	body, err := os.ReadFile(filepath.Join(dataDir, health.ReportFileName))
	if err != nil {
		fmt.Println("No health report yet: the collector has not completed a cycle.")
		return
	}
	os.Stdout.Write(body)
}
