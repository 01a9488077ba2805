package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/codellyson/quick-rest/internal/relay"
)

func relayCmd() {
	fs := flag.NewFlagSet("relay", flag.ExitOnError)
	addrFlag := fs.String("addr", ":9210", "Address to listen on")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: quickrest relay [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Run the rendezvous/relay server peers pair through.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "relay: ", log.LstdFlags)
	srv := relay.New(logger)

	mux := http.NewServeMux()
	mux.Handle("/ws", srv)

	logger.Printf("listening on %s", *addrFlag)
	if err := http.ListenAndServe(*addrFlag, mux); err != nil {
		logger.Fatalf("serve: %v", err)
	}
}
