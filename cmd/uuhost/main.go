// Command uuhost runs a core module against an in-memory host tree and
// prints the resulting tree.
//
// Usage:
//
//	uuhost run [-config file] [-mount key] [-output yaml|markup] <module.wasm>
//	uuhost schema
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uu-dev/uu-bridge/config"
	"github.com/uu-dev/uu-bridge/domain/entities"
	"github.com/uu-dev/uu-bridge/host"
	"github.com/uu-dev/uu-bridge/infrastructure/memtree"
	uulog "github.com/uu-dev/uu-bridge/log"
)

var errUsage = errors.New("usage: uuhost run [flags] <module.wasm> | uuhost schema")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "run":
		return runModule(ctx, args[1:], stdout, stderr)
	case "schema":
		data, err := config.Schema()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func runModule(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to configuration file (YAML, TOML or JSON)")
	mount := fs.String("mount", "", "Seed a <div> carrying this id for the core to adopt")
	output := fs.String("output", "yaml", "Tree output format (yaml, markup)")
	timeout := fs.Duration("timeout", 30*time.Second, "Abort the core after this long (0 disables)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}
	if *output != "yaml" && *output != "markup" {
		return fmt.Errorf("unknown output format %q", *output)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger, err := uulog.NewLogger(stderr, level, cfg.LogFormat)
	if err != nil {
		return err
	}

	wasm, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read module: %w", err)
	}

	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	exec, err := host.NewExecutor(host.WithConfig(cfg), host.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() { _ = exec.Close(context.Background()) }()

	tree := memtree.New()
	if *mount != "" {
		tree.Seed(nil, "div", entities.Attributes{memtree.KeyAttribute: entities.Value(*mount)})
	}

	session, err := exec.NewSession(ctx, tree)
	if err != nil {
		return err
	}
	defer func() { _ = session.Close(context.Background()) }()

	if err := session.Load(ctx, wasm); err != nil {
		return err
	}
	if err := session.Run(ctx); err != nil {
		return err
	}
	logger.InfoContext(ctx, "core finished", "mutations", tree.Counters().Total())

	if *output == "markup" {
		_, err = fmt.Fprintln(stdout, tree.Render())
		return err
	}
	data, err := tree.DumpYAML()
	if err != nil {
		return err
	}
	_, err = stdout.Write(data)
	return err
}
