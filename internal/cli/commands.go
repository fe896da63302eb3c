package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"tokenizedCompare/internal/compare"
	"tokenizedCompare/internal/finance"
	"tokenizedCompare/internal/pools"
)

type compareCmd struct {
	load   Loader
	amount float64
	period string
	json   bool
}

func (*compareCmd) Name() string     { return "compare" }
func (*compareCmd) Synopsis() string { return "compare holding a tokenized stock with the stock itself" }
func (*compareCmd) Usage() string {
	return `tokcmp compare [-amount <usd>] [-period <24h|7d|30d|3m|6m|1y>] [-json] <symbol>

  Prints the returns of holding the tokenized stock in its pool against
  holding the traditional stock over the period.
`
}

func (c *compareCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.amount, "amount", 0, "Investment in USD (defaults to DEFAULT_INVESTMENT)")
	f.StringVar(&c.period, "period", "", "Comparison period (defaults to DEFAULT_PERIOD)")
	f.BoolVar(&c.json, "json", false, "Print the comparison as JSON")
}

func (c *compareCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env, closeEnv, err := c.load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeEnv()

	req, err := env.request(f.Args(), c.amount, c.period)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	cmp, err := env.Compare.Compare(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFor(err)
	}
	if c.json {
		if err := env.printJSON(cmp); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	env.printMarkdown(cmp.Markdown(env.now()))
	return subcommands.ExitSuccess
}

type chartCmd struct {
	load   Loader
	amount float64
	period string
	output string
	width  int
	height int
}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "write the comparison chart as a PNG" }
func (*chartCmd) Usage() string {
	return `tokcmp chart [-amount <usd>] [-period <period>] [-o <file.png>] [-width n] [-height n] <symbol>

  Draws the traditional and tokenized value lines for the period.
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.amount, "amount", 0, "Investment in USD (defaults to DEFAULT_INVESTMENT)")
	f.StringVar(&c.period, "period", "", "Comparison period (defaults to DEFAULT_PERIOD)")
	f.StringVar(&c.output, "o", "", "Output file (defaults to <symbol>_<period>.png)")
	f.IntVar(&c.width, "width", 900, "Image width in pixels")
	f.IntVar(&c.height, "height", 500, "Image height in pixels")
}

func (c *chartCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env, closeEnv, err := c.load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeEnv()

	req, err := env.request(f.Args(), c.amount, c.period)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	cmp, err := env.Compare.Compare(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFor(err)
	}
	img, err := finance.MakeComparisonChart(cmp.Series, finance.ChartOptions{
		Symbol:     cmp.Symbol,
		Period:     cmp.Period,
		Investment: cmp.Investment,
		Width:      c.width,
		Height:     c.height,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	out := c.output
	if out == "" {
		out = fmt.Sprintf("%s_%s.png", cmp.Symbol, cmp.Period)
	}
	if err := os.WriteFile(out, img, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(env.Out, "%s\nwrote %s\n", cmp.Summary(), out)
	return subcommands.ExitSuccess
}

type poolsCmd struct {
	load Loader
	json bool
}

func (*poolsCmd) Name() string     { return "pools" }
func (*poolsCmd) Synopsis() string { return "list tokenized stock pools by TVL" }
func (*poolsCmd) Usage() string {
	return `tokcmp pools [-json]

  Lists the pools of the configured POOLS_SOURCE, largest TVL first.
`
}

func (c *poolsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "Print the pools as JSON")
}

func (c *poolsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	env, closeEnv, err := c.load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeEnv()

	list := env.Pools.All()
	pools.SortByTVL(list)
	if c.json {
		if err := env.printJSON(list); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	env.printMarkdown(compare.PoolsMarkdown(list, env.Pools.UpdatedAt()))
	return subcommands.ExitSuccess
}

// exitFor reports bad input as a usage error.
func exitFor(err error) subcommands.ExitStatus {
	var verr *compare.ValidationError
	if errors.As(err, &verr) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}
