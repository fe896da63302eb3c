package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"tokenizedCompare/internal/app"
	"tokenizedCompare/internal/cli"
	"tokenizedCompare/internal/config"
	"tokenizedCompare/internal/logger"
	"tokenizedCompare/internal/pools"
)

func main() {
	symbols := make([]string, 0, 16)
	for _, m := range pools.Reference() {
		symbols = append(symbols, m.Symbol)
	}
	cli.Completion(symbols).Complete("tokcmp")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	cli.Register(commander, load)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func load(ctx context.Context) (*cli.Env, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	// stderr keeps the report on stdout clean
	logger.InitializeWithWriter(cfg.LogLevel, os.Stderr)
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	env := &cli.Env{
		Compare:       a.Compare,
		Pools:         a.Pools,
		DefaultAmount: cfg.DefaultInvestment,
		DefaultPeriod: cfg.DefaultPeriod,
		Out:           os.Stdout,
		Style:         "auto",
	}
	return env, func() { _ = a.Close() }, nil
}
