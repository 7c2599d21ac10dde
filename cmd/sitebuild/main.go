package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuild/internal/config"
	"git.home.luguber.info/inful/sitebuild/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"sitebuild.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Content string `help:"Content directory (overrides config)"`
		Output  string `short:"o" help:"Output directory (overrides config)"`
	} `cmd:"" help:"Build the site once and exit"`

	Serve struct {
		Addr    string `help:"Listen address (overrides config)"`
		Content string `help:"Content directory (overrides config)"`
		Output  string `short:"o" help:"Output directory (overrides config)"`
	} `cmd:"" help:"Build continuously, watch for changes and serve a live preview"`

	Check struct {
		Content string `help:"Content directory (overrides config)"`
	} `cmd:"" help:"Validate content without writing artifacts; exit nonzero on findings"`

	Version struct{} `cmd:"" help:"Print version information and exit"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if ctx.Command() == "version" {
		fmt.Println(version.String())
		return
	}

	config.LoadDotEnv()
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	switch ctx.Command() {
	case "build":
		if err := runBuild(cfg); err != nil {
			slog.Error("build failed", "error", err)
			os.Exit(1)
		}
	case "serve":
		if err := runServe(cfg); err != nil {
			slog.Error("serve failed", "error", err)
			os.Exit(1)
		}
	case "check":
		findings, err := runCheck(cfg)
		if err != nil {
			slog.Error("check failed", "error", err)
			os.Exit(1)
		}
		if findings > 0 {
			slog.Error("check found issues", "count", findings)
			os.Exit(2)
		}
	default:
		slog.Error("unknown command", "command", ctx.Command())
		os.Exit(1)
	}
}

// loadConfig loads the file config and applies command line overrides. A
// missing config file is not an error; defaults plus flags take over.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if _, err := os.Stat(CLI.Config); err == nil {
		cfg, err = config.Load(CLI.Config)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default("docs", "site")
	}

	switch {
	case CLI.Build.Content != "":
		cfg.ContentDir = CLI.Build.Content
	case CLI.Serve.Content != "":
		cfg.ContentDir = CLI.Serve.Content
	case CLI.Check.Content != "":
		cfg.ContentDir = CLI.Check.Content
	}
	if CLI.Build.Output != "" {
		cfg.OutputDir = CLI.Build.Output
	}
	if CLI.Serve.Output != "" {
		cfg.OutputDir = CLI.Serve.Output
	}
	if CLI.Serve.Addr != "" {
		cfg.Serve.Addr = CLI.Serve.Addr
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
