package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/FlowerRealm/oi-code-extension-sub002/internal/cli/command"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/cli/config"
	httpclient "github.com/FlowerRealm/oi-code-extension-sub002/internal/cli/http"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/cli/repl"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/cli/state"
)

const defaultConfigPath = "configs/cli.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	baseURL := flag.String("base", "", "Override base URL")
	timeout := flag.Duration("timeout", 0, "Override HTTP timeout (e.g. 30s)")
	statePath := flag.String("state", "", "Override preference state path")
	pretty := flag.Bool("pretty", false, "Pretty print JSON response")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		return
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if *statePath != "" {
		cfg.PrefStatePath = *statePath
	}
	if *pretty {
		trueValue := true
		cfg.PrettyJSON = &trueValue
	}

	prefs, err := state.Load(cfg.PrefStatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load preference state failed: %v\n", err)
		return
	}

	client := httpclient.New(cfg.BaseURL, cfg.Timeout)

	commands := command.Registry()
	session, err := repl.New(client, commands, &prefs, cfg.PrefStatePath, cfg.PrettyJSON != nil && *cfg.PrettyJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init repl failed: %v\n", err)
		return
	}
	defer session.Close()
	session.Run(context.Background())
}
