package main

import (
	"fmt"
	"os"
)

const version = "0.3.0"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "relay":
			relayCmd()
			return
		case "proxy":
			proxyCmd()
			return
		case "share":
			shareCmd()
			return
		case "save":
			saveCmd()
			return
		case "env":
			envCmd()
			return
		case "history":
			historyCmd()
			return
		case "version":
			fmt.Printf("quickrest %s\n", version)
			return
		case "help":
			printHelp()
			return
		}
	}
	printHelp()
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `quickrest - API testing client backend

Usage:
  quickrest <command> [flags]

Commands:
  relay      Run the peer rendezvous/relay server
  proxy      Run the CORS-bypass forwarding proxy
  share      Encode a saved request into a shareable link
  save       Save a request draft into a collection file
  env        List environments or mark one as active
  history    List or search executed requests
  version    Print the version
  help       Show this help

Run 'quickrest <command> -h' for command flags.
`)
}
