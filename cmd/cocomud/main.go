// ABOUTME: Entry point for the cocomud command line client
// ABOUTME: Opens world sessions, manages settings, builds help and checks for updates

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/cocomud/cocomud/internal/client"
	"github.com/cocomud/cocomud/internal/config"
	"github.com/cocomud/cocomud/internal/engine"
	"github.com/cocomud/cocomud/internal/help"
	"github.com/cocomud/cocomud/internal/scripting"
	"github.com/cocomud/cocomud/internal/settings"
	"github.com/cocomud/cocomud/internal/store"
	"github.com/cocomud/cocomud/internal/update"
)

// Version is set at build time.
var version = "dev"

const banner = `
  ___ ___   ___ ___  _ __ ___  _   _  __| |
 / __/ _ \ / __/ _ \| '_ ' _ \| | | |/ _' |
| (_| (_) | (_| (_) | | | | | | |_| | (_| |
 \___\___/ \___\___/|_| |_| |_|\__,_|\__,_|
`

// getConfigPath returns the path to the config file.
// Priority: COCOMUD_CONFIG env var > ./cocomud.yaml
func getConfigPath() string {
	if envPath := os.Getenv("COCOMUD_CONFIG"); envPath != "" {
		return envPath
	}
	return "cocomud.yaml"
}

func usage() {
	fmt.Println("Usage: cocomud <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run <world>                        Connect to a world")
	fmt.Println("  worlds                             List configured worlds")
	fmt.Println("  help <name>                        Open a help document")
	fmt.Println("  docs <src> <dst>                   Build HTML help from Markdown")
	fmt.Println("  settings get <key>                 Show a setting and its level")
	fmt.Println("  settings set <level> <key> <value> Change a setting at one level")
	fmt.Println("  update [--check]                   Check for and download a newer build")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadOrDefault(getConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		os.Exit(1)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "run":
		err = runWorld(ctx, cfg, args)
	case "worlds":
		err = runWorlds(ctx, cfg)
	case "help":
		err = runHelp(ctx, cfg, args)
	case "docs":
		err = runDocs(args)
	case "settings":
		err = runSettings(ctx, cfg, args)
	case "update":
		err = runUpdate(ctx, cfg, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openBackend returns the configured settings backend and its cleanup function.
func openBackend(cfg *config.Config) (settings.Backend, func() error, error) {
	switch cfg.Settings.Backend {
	case config.BackendSQLite:
		s, err := store.NewSQLiteStore(cfg.Paths.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("opening settings database: %w", err)
		}
		return s, s.Close, nil
	default:
		return settings.NewFileBackend(cfg.Paths.Settings), func() error { return nil }, nil
	}
}

// openEngine builds and loads an engine with the configured worlds.
// The returned cleanup closes the engine and the settings backend.
func openEngine(ctx context.Context, cfg *config.Config) (*engine.Engine, func(), error) {
	backend, closeBackend, err := openBackend(cfg)
	if err != nil {
		return nil, nil, err
	}

	e, err := engine.New(engine.Config{
		LogDir:             cfg.Paths.Logs,
		DocDir:             cfg.Paths.Docs,
		Backend:            backend,
		NewClient:          client.Factory(nil),
		NewScriptingEngine: scripting.Factory,
		Console:            os.Stderr,
		Color:              cfg.Logging.Color,
	})
	if err != nil {
		_ = closeBackend()
		return nil, nil, fmt.Errorf("starting engine: %w", err)
	}

	cleanup := func() {
		if err := e.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: closing engine: %v\n", err)
		}
		if err := closeBackend(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: closing settings backend: %v\n", err)
		}
	}

	worlds, err := engine.LoadWorlds(cfg.Paths.Worlds)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("loading worlds: %w", err)
	}
	for _, w := range worlds {
		if err := e.AddWorld(w); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	if err := e.Load(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}

	return e, cleanup, nil
}

func runWorld(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cocomud run <world>")
	}

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	e, cleanup, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	w, ok := e.World(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", engine.ErrWorldNotFound, args[0])
	}

	c, err := e.Open(w.Hostname, w.Port, w)
	if err != nil {
		return fmt.Errorf("opening %s: %w", w.Name, err)
	}
	cl, ok := c.(*client.Client)
	if !ok {
		return fmt.Errorf("unexpected client type %T", c)
	}
	script, _ := w.ScriptingEngine().(*scripting.Engine)

	cl.OnLine(func(line string) {
		fmt.Println(line)
	})
	if err := cl.Connect(ctx); err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("Connected to %s (%s:%d)\n", w.Name, w.Hostname, w.Port)
	gray.Println("Lines starting with # run as Lua. Press Ctrl+C to quit.")

	go readInput(ctx, cl, script)

	select {
	case <-ctx.Done():
	case <-cl.Done():
		color.New(color.FgYellow).Println("Connection closed.")
	}
	return nil
}

// readInput forwards stdin to the world until ctx is done or stdin closes.
func readInput(ctx context.Context, cl *client.Client, script *scripting.Engine) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := scanner.Text()
		if code, ok := strings.CutPrefix(line, "#"); ok && script != nil {
			if err := script.Execute(code); err != nil {
				color.New(color.FgRed).Fprintf(os.Stderr, "%v\n", err)
			}
			continue
		}
		if err := cl.Send(ctx, line); err != nil {
			color.New(color.FgRed).Fprintf(os.Stderr, "%v\n", err)
			return
		}
	}
}

func runWorlds(ctx context.Context, cfg *config.Config) error {
	e, cleanup, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	worlds := e.Worlds()
	if len(worlds) == 0 {
		fmt.Println("No worlds configured")
		return nil
	}

	fmt.Printf("%-20s %-30s %-6s %s\n", "NAME", "HOST", "PORT", "CHARACTERS")
	for _, w := range worlds {
		fmt.Printf("%-20s %-30s %-6d %d\n", w.Name, w.Hostname, w.Port, len(w.Characters))
	}
	return nil
}

func runHelp(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cocomud help <name>")
	}

	e, cleanup, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if path, ok := e.Help().Resolve(args[0], e.Settings().Language()); ok {
		fmt.Println(path)
	} else {
		color.New(color.FgYellow).Printf("No help document named %q\n", args[0])
		return nil
	}
	e.OpenHelp(args[0])
	return nil
}

func runDocs(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: cocomud docs <src> <dst>")
	}
	n, err := help.Build(args[0], args[1])
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Printf("Built %d help documents into %s\n", n, args[1])
	return nil
}

func runSettings(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: cocomud settings get <key> | set <level> <key> <value>")
	}

	e, cleanup, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	s := e.Settings()

	switch args[0] {
	case "get":
		if len(args) != 2 {
			return fmt.Errorf("usage: cocomud settings get <key>")
		}
		value, level, err := s.Lookup(args[1])
		if err != nil {
			return err
		}
		source := "default"
		if level.Valid() {
			source = level.String()
		}
		fmt.Printf("%s = %v (%s)\n", args[1], value, source)
		return nil

	case "set":
		if len(args) != 4 {
			return fmt.Errorf("usage: cocomud settings set <level> <key> <value>")
		}
		level, err := settings.ParseLevel(args[1])
		if err != nil {
			return err
		}
		if err := s.Set(level, args[2], parseValue(args[3])); err != nil {
			return err
		}
		if err := s.Save(ctx, level); err != nil {
			return err
		}
		color.New(color.FgGreen).Printf("%s set at %s level\n", args[2], level)
		return nil

	default:
		return fmt.Errorf("unknown settings command: %s", args[0])
	}
}

// parseValue decodes a command line value as a YAML scalar so that
// "true" and "42" keep their types. Anything else stays a string.
func parseValue(raw string) any {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	switch v.(type) {
	case bool, int, float64, string:
		return v
	default:
		return raw
	}
}

func runUpdate(ctx context.Context, cfg *config.Config, args []string) error {
	if cfg.Update.URL == "" {
		return errors.New("update.url is not configured")
	}

	n := update.NewNotifier(nil)
	events, _ := n.Subscribe(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		printEvents(events)
	}()

	u := &update.Updater{
		Build:        cfg.Update.Build,
		Source:       newHTTPSource(cfg.Update.URL, cfg.Update.Dir),
		Notifier:     n,
		JustChecking: len(args) > 0 && args[0] == "--check",
	}
	build, err := u.Run(ctx)
	n.Close()
	<-done
	if err != nil {
		return err
	}
	if build > 0 && !u.JustChecking {
		fmt.Printf("Build %d saved in %s\n", build, cfg.Update.Dir)
	}
	return nil
}

// printEvents renders update events until ForceDestroy or the channel closes.
func printEvents(events <-chan update.Event) {
	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)
	for ev := range events {
		switch ev := ev.(type) {
		case update.TextUpdate:
			fmt.Println(ev.Text)
		case update.AvailableUpdate:
			green.Printf("Build %d is available\n", ev.Build)
		case update.GaugeUpdate:
			gray.Printf("  %3d%%\n", ev.Percent)
		case update.ForceDestroy:
			return
		}
	}
}
