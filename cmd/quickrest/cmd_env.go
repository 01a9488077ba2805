package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/codellyson/quick-rest/internal/core/environment"
)

func envCmd() {
	fs := flag.NewFlagSet("env", flag.ExitOnError)
	fileFlag := fs.String("file", defaultEnvironmentsPath(), "Environments file")
	activateFlag := fs.String("activate", "", "Mark an environment as active")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: quickrest env [flags]\n\n")
		fmt.Fprintf(os.Stderr, "List environments, or mark one as active. The active environment's\n")
		fmt.Fprintf(os.Stderr, "variables are applied by the proxy unless overridden per request.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	envs, err := environment.Load(*fileFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *activateFlag != "" {
		if err := activateEnvironment(envs, *activateFlag, *fileFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Active environment: %s\n", *activateFlag)
		return
	}

	names := envs.Names()
	if len(names) == 0 {
		fmt.Println("No environments defined.")
		return
	}
	for _, name := range names {
		marker := " "
		if name == envs.Active {
			marker = "*"
		}
		fmt.Printf("%s %s (%d variables)\n", marker, name, len(envs.Variables(name)))
	}
}

// activateEnvironment sets the active environment and writes the file back.
func activateEnvironment(envs *environment.File, name, path string) error {
	found := false
	for _, known := range envs.Names() {
		if known == name {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown environment %q (have: %v)", name, envs.Names())
	}
	envs.Active = name
	return environment.Save(envs, path)
}
