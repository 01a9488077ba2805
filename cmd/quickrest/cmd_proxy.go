package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/codellyson/quick-rest/internal/config"
	"github.com/codellyson/quick-rest/internal/core/environment"
	"github.com/codellyson/quick-rest/internal/core/history"
	"github.com/codellyson/quick-rest/internal/proxy"
)

func proxyCmd() {
	fs := flag.NewFlagSet("proxy", flag.ExitOnError)
	addrFlag := fs.String("addr", ":9211", "Address to listen on")
	dbFlag := fs.String("db", defaultHistoryPath(), "History database path (empty to disable)")
	envsFlag := fs.String("envs", defaultEnvironmentsPath(), "Environments file")
	envFlag := fs.String("env", "", "Environment to apply (default: the file's active one)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: quickrest proxy [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Run the forwarding proxy the browser UI calls to bypass CORS.\n")
		fmt.Fprintf(os.Stderr, "Executed requests are recorded in the history database. Variables\n")
		fmt.Fprintf(os.Stderr, "from the selected environment resolve {{placeholders}} server-side;\n")
		fmt.Fprintf(os.Stderr, "variables sent with a request shadow them.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	cfg := config.Load()
	logger := log.New(os.Stderr, "proxy: ", log.LstdFlags)

	vars, envName, err := environmentVars(*envsFlag, *envFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if envName != "" {
		logger.Printf("using environment %q (%d variables)", envName, len(vars))
	}

	var hist *history.Store
	if *dbFlag != "" {
		var err error
		hist, err = history.NewStore(*dbFlag)
		if err != nil {
			logger.Fatalf("opening history: %v", err)
		}
		defer hist.Close()
	}

	mux := http.NewServeMux()
	mux.Handle("/api/proxy", proxy.NewHandler(cfg.ProxyTimeout, vars, hist, logger))

	logger.Printf("listening on %s", *addrFlag)
	if err := http.ListenAndServe(*addrFlag, mux); err != nil {
		logger.Fatalf("serve: %v", err)
	}
}

// environmentVars loads the variables of the named environment, or of the
// file's active one when name is empty. Returns the resolved environment name
// ("" when none applies).
func environmentVars(path, name string) (map[string]string, string, error) {
	envs, err := environment.Load(path)
	if err != nil {
		return nil, "", err
	}
	if name == "" {
		if envs.Active == "" {
			return nil, "", nil
		}
		return envs.ActiveVariables(), envs.Active, nil
	}
	for _, known := range envs.Names() {
		if known == name {
			return envs.Variables(name), name, nil
		}
	}
	return nil, "", fmt.Errorf("unknown environment %q (have: %v)", name, envs.Names())
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "quickrest-history.db"
	}
	dir := filepath.Join(home, ".local", "share", "quickrest")
	_ = os.MkdirAll(dir, 0o755)
	return filepath.Join(dir, "history.db")
}

func defaultEnvironmentsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "quickrest-environments.yaml"
	}
	dir := filepath.Join(home, ".config", "quickrest")
	return filepath.Join(dir, "environments.yaml")
}
