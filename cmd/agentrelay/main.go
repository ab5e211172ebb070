// Command agentrelay hosts the agent crew and drives the research,
// processing and reporting workflow against it.
//
// Usage:
//
//	agentrelay [-config file] serve
//	agentrelay [-config file] run <topic>
//	agentrelay [-config file] status
//	agentrelay [-config file] agents
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hupe1980/agentrelay"
	"github.com/hupe1980/agentrelay/config"
	"github.com/hupe1980/agentrelay/crew"
	"github.com/hupe1980/agentrelay/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("agentrelay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML configuration file")
	logLevel := fs.String("log-level", "", "override the configured log level")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: agentrelay [flags] serve | run <topic> | status | agents")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.ParseLevel(cfg.Log.Level),
		Format:    cfg.Log.Format,
		Output:    stderr,
		Component: "agentrelay",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd := fs.Arg(0); cmd {
	case "serve":
		return serve(ctx, cfg, logger, stderr)
	case "run":
		topic := strings.TrimSpace(strings.Join(fs.Args()[1:], " "))
		if topic == "" {
			fmt.Fprintln(stderr, "run: topic is required")
			return 2
		}
		relay := agentrelay.NewFromConfig(cfg, logger.WithComponent("workflow"))
		rep := relay.RunDetailed(ctx, topic)
		fmt.Fprintln(stdout, rep.Output)
		if rep.Failed() {
			return 1
		}
		return 0
	case "status":
		relay := agentrelay.NewFromConfig(cfg, logger.WithComponent("status"))
		code := 0
		for _, st := range relay.Status(ctx) {
			mark := "ok  "
			if !st.Reachable {
				mark = "FAIL"
				code = 1
			}
			fmt.Fprintf(stdout, "%s %-10s %-28s %s\n", mark, st.Stage, st.URL, st.Detail)
		}
		return code
	case "agents":
		relay := agentrelay.NewFromConfig(cfg, logger.WithComponent("directory"))
		for _, card := range relay.Agents(ctx) {
			fmt.Fprintf(stdout, "- %s: %s (%s)\n", card.Name, card.Description, card.URL)
			for _, s := range card.Skills {
				fmt.Fprintf(stdout, "    * %s [%s]\n", s.Name, strings.Join(s.Tags, ", "))
			}
		}
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	cfg := config.Load()
	return cfg, cfg.Validate()
}

func serve(ctx context.Context, cfg *config.Config, logger *logging.RelayLogger, stderr io.Writer) int {
	llm, err := agentrelay.NewModelFromConfig(cfg.Model)
	if err != nil {
		fmt.Fprintf(stderr, "model: %v\n", err)
		return 1
	}

	logger.Info("starting crew", "host", cfg.Host, "provider", llm.Info().Provider, "model", llm.Info().Name)

	if err := crew.Serve(ctx, crew.Members(cfg.Host), llm, func(o *crew.ServeOptions) {
		o.Logger = logger.WithComponent("crew")
	}); err != nil {
		fmt.Fprintf(stderr, "serve: %v\n", err)
		return 1
	}
	return 0
}
