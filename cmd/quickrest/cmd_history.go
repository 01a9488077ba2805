package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/codellyson/quick-rest/internal/core/history"
)

func historyCmd() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	dbFlag := fs.String("db", defaultHistoryPath(), "History database path")
	limitFlag := fs.Int("limit", 20, "Maximum entries to list")
	searchFlag := fs.String("search", "", "Fuzzy-match URLs against this query")
	clearFlag := fs.Bool("clear", false, "Delete all history entries")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: quickrest history [flags]\n\n")
		fmt.Fprintf(os.Stderr, "List or search requests executed through the proxy.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	store, err := history.NewStore(*dbFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *clearFlag {
		if err := store.Clear(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("History cleared.")
		return
	}

	var entries []history.Entry
	if *searchFlag != "" {
		entries, err = store.Search(*searchFlag)
	} else {
		entries, err = store.List(*limitFlag, 0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(entries) == 0 {
		fmt.Println("No history entries.")
		return
	}

	for _, e := range entries {
		fmt.Printf("%s  %-7s %-3d %8s  %6s  %s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Method,
			e.StatusCode,
			e.Duration.Round(time.Millisecond),
			humanize.Bytes(uint64(e.Size)),
			e.URL,
		)
	}
}
