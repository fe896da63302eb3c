// Package app assembles the services from configuration.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"tokenizedCompare/internal/compare"
	"tokenizedCompare/internal/config"
	"tokenizedCompare/internal/httpx"
	"tokenizedCompare/internal/logger"
	"tokenizedCompare/internal/marketdata"
	"tokenizedCompare/internal/openai"
	"tokenizedCompare/internal/pools"
	"tokenizedCompare/internal/server"
	"tokenizedCompare/internal/storage"
	"tokenizedCompare/internal/telegram"
)

type App struct {
	Config    config.Config
	Pools     *pools.Store
	Market    *marketdata.Chain
	Compare   *compare.Service
	Explainer *openai.Explainer // nil without an OpenAI key

	db *sql.DB
}

// New builds the pool store, provider chain and comparison service. The first
// pool load happens here, so a broken source fails startup.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	client := httpx.New(cfg.HTTPTimeout, uint(cfg.FetchRetries), logger.GetForComponent("http_client"))

	a := &App{Config: cfg}
	source, err := a.poolSource(ctx, client)
	if err != nil {
		return nil, err
	}
	store, err := pools.Load(ctx, source, logger.GetForComponent("pools"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load pools: %w", err)
	}
	a.Pools = store

	a.Market = marketdata.NewChain(logger.GetForComponent("market_data"), Providers(cfg, client, logger.GetForComponent("market_data"))...)
	a.Compare = compare.NewService(a.Pools, a.Market, logger.GetForComponent("compare"))
	if cfg.OpenAIKey != "" {
		a.Explainer = openai.NewExplainer(cfg.OpenAIKey)
	}

	logger.Logger.Info().
		Str("pools", source.Name()).
		Int("pool_count", len(a.Pools.All())).
		Str("market", a.Market.Name()).
		Bool("explain", a.Explainer != nil).
		Msg("app initialized")
	return a, nil
}

func (a *App) poolSource(ctx context.Context, client *httpx.Client) (pools.Source, error) {
	switch a.Config.PoolsSource {
	case config.PoolsVaulto:
		return pools.NewVaultoSource(a.Config.VaultoAPIURL, client, logger.GetForComponent("pools")), nil
	case config.PoolsSQLite:
		db, err := storage.OpenSQLite(a.Config.DBPath)
		if err != nil {
			return nil, err
		}
		if err := storage.InitSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		s := storage.NewStore(db)
		seeded, err := s.SeedIfEmpty(ctx, pools.Reference())
		if err != nil {
			db.Close()
			return nil, err
		}
		logger.Logger.Info().Str("path", a.Config.DBPath).Bool("seeded", seeded).Msg("db: schema ensured (pool_metrics table)")
		a.db = db
		return s, nil
	default:
		return pools.ReferenceSource{}, nil
	}
}

// Providers builds the configured market data providers in order. Providers
// that need a key are skipped when it is missing.
func Providers(cfg config.Config, client *httpx.Client, log zerolog.Logger) []marketdata.Provider {
	var out []marketdata.Provider
	for _, name := range cfg.MarketProviders {
		switch name {
		case "yahoo":
			out = append(out, marketdata.NewYahoo(client, log))
		case "alphavantage":
			if cfg.AlphaVantageKey == "" {
				log.Info().Msg("alphavantage skipped: no ALPHA_VANTAGE_API_KEY")
				continue
			}
			out = append(out, marketdata.NewAlphaVantage(cfg.AlphaVantageKey, client, log))
		case "stockdata":
			if cfg.StockDataToken == "" {
				log.Info().Msg("stockdata skipped: no STOCKDATA_ORG_API_TOKEN")
				continue
			}
			out = append(out, marketdata.NewStockData(cfg.StockDataToken, client, log))
		}
	}
	return out
}

// Handler is the HTTP API, with the Telegram webhook when webhook is non-nil.
func (a *App) Handler(webhook http.HandlerFunc) http.Handler {
	return server.NewHTTPMux(server.API{
		Compare:       a.Compare,
		Pools:         a.Pools,
		Webhook:       webhook,
		DefaultPeriod: a.Config.DefaultPeriod,
		DefaultAmount: a.Config.DefaultInvestment,
		Log:           logger.GetForComponent("http"),
	})
}

// TelegramDeps hands the bot its collaborators.
func (a *App) TelegramDeps() telegram.Deps {
	deps := telegram.Deps{
		Compare:       a.Compare,
		Pools:         a.Pools,
		DefaultPeriod: a.Config.DefaultPeriod,
		DefaultAmount: a.Config.DefaultInvestment,
	}
	// a nil *Explainer in the interface would not read as disabled
	if a.Explainer != nil {
		deps.Explainer = a.Explainer
	}
	return deps
}

func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
