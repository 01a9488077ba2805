package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/atotto/clipboard"

	"github.com/codellyson/quick-rest/internal/config"
	"github.com/codellyson/quick-rest/internal/core/collection"
	"github.com/codellyson/quick-rest/internal/share"
)

func shareCmd() {
	fs := flag.NewFlagSet("share", flag.ExitOnError)
	nameFlag := fs.String("name", "", "Name of the saved request to share")
	idFlag := fs.String("id", "", "ID of the saved request to share")
	peerFlag := fs.String("peer", "", "Peer identity to embed for auto-connect")
	copyFlag := fs.Bool("copy", false, "Copy the link to the clipboard")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: quickrest share <collection.quickrest.yaml> [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Encode a saved request into a shareable link. Credentials are\n")
		fmt.Fprintf(os.Stderr, "stripped from the encoded document.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: collection file path is required\n\n")
		fs.Usage()
		os.Exit(2)
	}

	col, err := collection.LoadFromFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(col.Requests) == 0 {
		fmt.Fprintf(os.Stderr, "Error: collection has no requests\n")
		os.Exit(1)
	}

	saved := col.Requests[0]
	if *idFlag != "" {
		found := col.Find(*idFlag)
		if found == nil {
			fmt.Fprintf(os.Stderr, "Error: no request with id %q in collection\n", *idFlag)
			os.Exit(1)
		}
		saved = *found
	} else if *nameFlag != "" {
		found := false
		for _, s := range col.Requests {
			if s.Name == *nameFlag {
				saved = s
				found = true
				break
			}
		}
		if !found {
			fmt.Fprintf(os.Stderr, "Error: no request named %q in collection\n", *nameFlag)
			os.Exit(1)
		}
	}

	cfg := config.Load()
	link := share.Link(cfg.ShareBaseURL, share.Packet{Document: saved.Document}, *peerFlag)

	fmt.Println(link)
	if *copyFlag {
		if err := clipboard.WriteAll(link); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not copy to clipboard: %v\n", err)
		}
	}
}
