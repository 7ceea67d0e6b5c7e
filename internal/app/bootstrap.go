// Package app wires configuration, logging, persistence, and exchange
// connectivity into a ready-to-trade bot.
package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/domain"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/engine"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/exchange"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/infra"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/infra/binance"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/metrics"
	"github.com/Loki588/Laukik-Jadhav-Binance-Bot/internal/storage"
)

// Bot bundles the running application's components.
type Bot struct {
	Config  *infra.Config
	Client  exchange.Client
	Engine  *engine.Engine
	Journal *storage.Journal

	metricsSrv *http.Server
}

// Bootstrap performs the startup sequence: config, logger, journal,
// exchange client, and a connectivity ping. A failed ping is fatal and
// returns a SetupError; no strategy may start after one.
func Bootstrap(ctx context.Context, configPath string) (*Bot, error) {
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := infra.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	slog.Info("🚀 Bootstrapping strategy bot", "testnet", cfg.Exchange.Testnet)

	journal, err := storage.Open(cfg.Journal.Path)
	if err != nil {
		return nil, err
	}
	slog.Info("✅ Journal ready (WAL mode)", "path", cfg.Journal.Path)

	client := binance.NewClient(cfg)
	if err := client.Ping(ctx); err != nil {
		journal.Close()
		return nil, &domain.SetupError{Err: err}
	}
	slog.Info("✅ Exchange connectivity verified", "rest", cfg.Exchange.RestURL)

	eng := engine.New(client, engine.NewRegistry(), engine.Config{
		GridPollInterval: cfg.GridPollInterval(),
		OcoPollInterval:  cfg.OcoPollInterval(),
		Journal:          journal,
	})

	bot := &Bot{
		Config:  cfg,
		Client:  client,
		Engine:  eng,
		Journal: journal,
	}
	if addr := cfg.Metrics.ListenAddr; addr != "" {
		bot.metricsSrv = metrics.Serve(addr)
		slog.Info("✅ Metrics exposed", "addr", addr)
	}
	return bot, nil
}

// Close releases the bot's resources.
func (b *Bot) Close() {
	if b.metricsSrv != nil {
		b.metricsSrv.Close()
	}
	if b.Journal != nil {
		b.Journal.Close()
	}
}
