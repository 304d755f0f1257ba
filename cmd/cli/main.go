package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/elibrary/internal/cli"
	"github.com/dmitrijs2005/elibrary/internal/config"
	"github.com/fatih/color"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	root := cli.NewRootCommand(ctx, func(out io.Writer) (*cli.App, error) {
		return cli.NewApp(ctx, cfg, os.Stdin, out)
	})
	if err := root.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "%v\n", err)
		stop()
		os.Exit(1)
	}
}
