package telegram

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tokenizedCompare/internal/compare"
	"tokenizedCompare/internal/finance"
	"tokenizedCompare/internal/marketdata"
	"tokenizedCompare/internal/pools"
)

var (
	// /compare SYMBOL [amount] [period]
	reCompare = regexp.MustCompile(`^/compare(?:@[\w_]+)?(?:\s+(.+))?$`)
	rePools   = regexp.MustCompile(`^/pools(?:@[\w_]+)?$`)
	reRefresh = regexp.MustCompile(`^/refresh(?:@[\w_]+)?$`)
	reExplain = regexp.MustCompile(`^/explain(?:@[\w_]+)?$`)
	reHelp    = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)
)

// Sender is satisfied by *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Comparer interface {
	Compare(ctx context.Context, req compare.Request) (*compare.Comparison, error)
}

type PoolStore interface {
	All() []pools.PoolMetrics
	Lookup(symbol string) (pools.PoolMetrics, bool)
	UpdatedAt() time.Time
	SourceName() string
	Refresh(ctx context.Context) ([]pools.PoolMetrics, error)
}

// Explainer turns a markdown report into prose.
type Explainer interface {
	Explain(ctx context.Context, report string) (string, error)
}

type Deps struct {
	Compare       Comparer
	Pools         PoolStore
	Explainer     Explainer // nil disables /explain
	DefaultPeriod finance.Period
	DefaultAmount float64
}

type Handlers struct {
	api  Sender
	deps Deps
	log  zerolog.Logger
	now  func() time.Time

	mu   sync.Mutex
	last map[int64]*compare.Comparison // latest comparison per chat
}

func NewHandlers(api Sender, deps Deps, log zerolog.Logger) *Handlers {
	return &Handlers{
		api:  api,
		deps: deps,
		log:  log,
		now:  time.Now,
		last: make(map[int64]*compare.Comparison),
	}
}

func (h *Handlers) HandleMessage(m *tgbotapi.Message) {
	txt := strings.TrimSpace(m.Text)
	chatID := m.Chat.ID
	switch {
	case reCompare.MatchString(txt):
		g := reCompare.FindStringSubmatch(txt)
		req, err := ParseCompareArgs(strings.Fields(g[1]), h.deps.DefaultAmount, h.deps.DefaultPeriod)
		if err != nil {
			h.reply(chatID, err.Error()+"\nUsage: /compare SYMBOL [amount] [period], e.g. /compare NVDAon 1000 30d")
			return
		}
		req.Symbol = h.resolveSymbol(req.Symbol)
		h.handleCompare(chatID, req)

	case rePools.MatchString(txt):
		h.reply(chatID, compare.PoolsMarkdown(h.deps.Pools.All(), h.deps.Pools.UpdatedAt()))

	case reRefresh.MatchString(txt):
		h.handleRefresh(chatID)

	case reExplain.MatchString(txt):
		h.handleExplain(chatID)

	case reHelp.MatchString(txt):
		h.handleHelp(chatID)
	}
}

// ParseCompareArgs reads SYMBOL followed by an optional amount and period, in
// either order. Missing values fall back to the defaults.
func ParseCompareArgs(args []string, defAmount float64, defPeriod finance.Period) (compare.Request, error) {
	req := compare.Request{Amount: defAmount, Period: defPeriod}
	if len(args) == 0 {
		return req, errors.New("missing symbol")
	}
	if len(args) > 3 {
		return req, errors.New("too many arguments")
	}
	req.Symbol = args[0]

	var haveAmount, havePeriod bool
	for _, a := range args[1:] {
		if p, ok := finance.ParsePeriod(a); ok && !havePeriod {
			req.Period, havePeriod = p, true
			continue
		}
		if v, err := pools.ParseCurrency(a); err == nil && !haveAmount {
			req.Amount, haveAmount = v, true
			continue
		}
		return req, fmt.Errorf("unrecognized argument %q", a)
	}
	return req, nil
}

// resolveSymbol accepts the plain stock ticker as well as the tokenized one.
func (h *Handlers) resolveSymbol(sym string) string {
	if _, ok := h.deps.Pools.Lookup(sym); ok {
		return sym
	}
	up := strings.ToUpper(sym)
	candidates := []string{finance.TraditionalToTokenized(up)}
	if base, ok := strings.CutSuffix(up, strings.ToUpper(finance.TokenizedSuffix)); ok && base != "" {
		candidates = append([]string{finance.TraditionalToTokenized(base)}, candidates...)
	}
	for _, tok := range candidates {
		if _, ok := h.deps.Pools.Lookup(tok); ok {
			return tok
		}
	}
	return sym
}

func (h *Handlers) handleCompare(chatID int64, req compare.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	c, err := h.deps.Compare.Compare(ctx, req)
	if err != nil {
		h.log.Warn().Err(err).Int64("chat_id", chatID).Str("symbol", req.Symbol).Msg("compare failed")
		h.reply(chatID, userMessage(req, err))
		return
	}
	h.mu.Lock()
	h.last[chatID] = c
	h.mu.Unlock()

	img, err := c.Chart()
	if err != nil {
		h.log.Warn().Err(err).Str("symbol", c.Symbol).Msg("chart failed")
		h.reply(chatID, c.Summary())
		return
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: c.Symbol + "_" + string(c.Period) + ".png", Bytes: img})
	photo.Caption = c.Summary()
	h.send(photo)
}

func userMessage(req compare.Request, err error) string {
	var verr *compare.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, marketdata.ErrRateLimited):
		return "Market data providers are rate limiting us, try again in a minute."
	case errors.Is(err, compare.ErrEmptySeries), errors.Is(err, marketdata.ErrNoData):
		return fmt.Sprintf("No price data for %s over %s.", finance.TokenizedToTraditional(req.Symbol), req.Period)
	default:
		return fmt.Sprintf("Couldn’t fetch prices for %s right now, try again later.", finance.TokenizedToTraditional(req.Symbol))
	}
}

func (h *Handlers) handleRefresh(chatID int64) {
	h.mu.Lock()
	var selected string
	if c := h.last[chatID]; c != nil {
		selected = c.Symbol
	}
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()
	list, err := h.deps.Pools.Refresh(ctx)
	if err != nil {
		h.log.Warn().Err(err).Int64("chat_id", chatID).Msg("pool refresh failed")
		h.reply(chatID, "Refresh failed, keeping the previous pools.")
		return
	}
	msg := fmt.Sprintf("Pools refreshed from %s: %d pools.", h.deps.Pools.SourceName(), len(list))
	if selected != "" {
		if _, ok := h.deps.Pools.Lookup(selected); !ok {
			h.mu.Lock()
			delete(h.last, chatID)
			h.mu.Unlock()
			msg += fmt.Sprintf("\n%s is no longer listed, pick another with /compare.", selected)
		}
	}
	h.reply(chatID, msg)
}

func (h *Handlers) handleExplain(chatID int64) {
	if h.deps.Explainer == nil {
		h.reply(chatID, "Explanations are not enabled on this bot.")
		return
	}
	h.mu.Lock()
	c := h.last[chatID]
	h.mu.Unlock()
	if c == nil {
		h.reply(chatID, "Run /compare first, then /explain.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()
	out, err := h.deps.Explainer.Explain(ctx, c.Markdown(h.now()))
	if err != nil {
		h.log.Warn().Err(err).Int64("chat_id", chatID).Msg("explain failed")
		h.reply(chatID, "Explain failed, try again later.")
		return
	}
	msg := tgbotapi.NewMessage(chatID, out)
	msg.ParseMode = "Markdown"
	h.send(msg)
}

func (h *Handlers) handleHelp(chatID int64) {
	periods := make([]string, len(finance.Periods))
	for i, p := range finance.Periods {
		periods[i] = string(p)
	}
	help := "Commands\n\n" +
		"- /compare SYMBOL [amount] [period] - Tokenized vs traditional holding, e.g. /compare NVDAon 1000 30d\n" +
		"- /pools - Tokenized stock pools by TVL\n" +
		"- /refresh - Reload pool metrics\n" +
		"- /explain - Plain-language explanation of your last comparison\n" +
		fmt.Sprintf("\nPeriods: %s. Default: %s %s.",
			strings.Join(periods, ", "), finance.FormatCurrency(h.deps.DefaultAmount), h.deps.DefaultPeriod)
	h.reply(chatID, help)
}

func (h *Handlers) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handlers) send(c tgbotapi.Chattable) {
	if _, err := h.api.Send(c); err != nil {
		h.log.Warn().Err(err).Msg("telegram send failed")
	}
}
