// Command liftlog-import converts a CSV exercise export into the JSON
// catalog embedded in the server binary (data/exercises.json).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/liftlog/internal/catalog"
)

func main() {
	inPath := flag.String("in", "", "path to CSV exercise export (required)")
	outPath := flag.String("out", "data/exercises.json", "output JSON path")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *inPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-import -in exercises.csv [-out data/exercises.json]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	in, err := os.Open(*inPath)
	if err != nil {
		log.Error("failed to open input", "path", *inPath, "error", err)
		os.Exit(1)
	}
	defer in.Close()

	entries, err := catalog.FromCSV(in)
	if err != nil {
		log.Error("conversion failed", "error", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		log.Error("no exercises found in input")
		os.Exit(1)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		log.Error("encoding failed", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outPath, append(data, '\n'), 0644); err != nil {
		log.Error("failed to write output", "path", *outPath, "error", err)
		os.Exit(1)
	}

	log.Info("catalog written", "exercises", len(entries), "path", *outPath)
}
