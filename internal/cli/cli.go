// Package cli holds the tokcmp subcommands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"tokenizedCompare/internal/compare"
	"tokenizedCompare/internal/finance"
	"tokenizedCompare/internal/pools"
)

type Comparer interface {
	Compare(ctx context.Context, req compare.Request) (*compare.Comparison, error)
}

type PoolLister interface {
	All() []pools.PoolMetrics
	UpdatedAt() time.Time
}

// Env is what a command runs against.
type Env struct {
	Compare       Comparer
	Pools         PoolLister
	DefaultAmount float64
	DefaultPeriod finance.Period
	Out           io.Writer
	Style         string // glamour style name, "auto" to detect
	Now           func() time.Time
}

// Loader builds the Env on demand; close releases it.
type Loader func(ctx context.Context) (env *Env, close func(), err error)

// Register the subcommands.
func Register(c *subcommands.Commander, load Loader) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")
	c.Register(&compareCmd{load: load}, "comparison")
	c.Register(&chartCmd{load: load}, "comparison")
	c.Register(&poolsCmd{load: load}, "pools")
}

// Completion describes the command line for shell completion.
func Completion(symbols []string) *complete.Command {
	periods := make(predict.Set, len(finance.Periods))
	for i, p := range finance.Periods {
		periods[i] = string(p)
	}
	compareFlags := map[string]complete.Predictor{
		"amount": predict.Set{"100", "1000", "10000"},
		"period": periods,
	}
	return &complete.Command{
		Sub: map[string]*complete.Command{
			"compare": {
				Flags: withFlag(compareFlags, "json", predict.Nothing),
				Args:  predict.Set(symbols),
			},
			"chart": {
				Flags: withFlag(withFlag(withFlag(compareFlags, "o", predict.Files("*.png")), "width", predict.Nothing), "height", predict.Nothing),
				Args:  predict.Set(symbols),
			},
			"pools": {
				Flags: map[string]complete.Predictor{"json": predict.Nothing},
			},
			"help": {Args: predict.Set{"compare", "chart", "pools"}},
		},
	}
}

func withFlag(flags map[string]complete.Predictor, name string, p complete.Predictor) map[string]complete.Predictor {
	out := make(map[string]complete.Predictor, len(flags)+1)
	for k, v := range flags {
		out[k] = v
	}
	out[name] = p
	return out
}

func (e *Env) printMarkdown(md string) {
	var opt glamour.TermRendererOption
	switch e.Style {
	case "", "auto":
		opt = glamour.WithAutoStyle()
	default:
		opt = glamour.WithStandardStyle(e.Style)
	}
	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(100))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Fprint(e.Out, out)
			return
		}
	}
	fmt.Fprint(e.Out, md)
}

func (e *Env) printJSON(v any) error {
	enc := json.NewEncoder(e.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// request builds a comparison request from the flags and the symbol argument.
func (e *Env) request(args []string, amount float64, period string) (compare.Request, error) {
	if len(args) != 1 {
		return compare.Request{}, fmt.Errorf("expected one symbol, got %d arguments", len(args))
	}
	req := compare.Request{Symbol: strings.TrimSpace(args[0]), Amount: e.DefaultAmount, Period: e.DefaultPeriod}
	if amount != 0 {
		req.Amount = amount
	}
	if period != "" {
		req.Period = finance.Period(period)
		if p, ok := finance.ParsePeriod(period); ok {
			req.Period = p
		}
	}
	return req, nil
}
