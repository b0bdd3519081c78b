package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	balancerepo "github.com/tolkvo/callengine/internal/adapter/driven/balance/memory"
	"github.com/tolkvo/callengine/internal/adapter/driven/gateway/ws"
	"github.com/tolkvo/callengine/internal/adapter/driven/media/pion"
	"github.com/tolkvo/callengine/internal/adapter/driven/media/sim"
	"github.com/tolkvo/callengine/internal/adapter/driven/pricing/httpfetch"
	"github.com/tolkvo/callengine/internal/adapter/driven/provision/local"
	settlementrepo "github.com/tolkvo/callengine/internal/adapter/driven/settlement/memory"
	handler "github.com/tolkvo/callengine/internal/adapter/driving/http"
	"github.com/tolkvo/callengine/internal/config"
	"github.com/tolkvo/callengine/internal/core/domain"
	"github.com/tolkvo/callengine/internal/core/port"
	"github.com/tolkvo/callengine/internal/core/service"
)

func main() {
	w := zerolog.ConsoleWriter{Out: os.Stdout}
	l := zerolog.New(w).With().Timestamp().Caller().Logger()

	cfg := config.Load()

	rules, err := loadPricing(cfg)
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to load pricing rules")
	}
	catalog := service.NewPricingCatalog(rules)
	l.Info().Int("rules", len(rules)).Msg("Pricing catalog loaded")

	balances := balancerepo.NewStore(cfg.DefaultBalance)
	history := settlementrepo.NewStore()
	provisioner := local.New(cfg.SignalBaseURL)
	hub := ws.NewHub()

	var transports port.TransportFactory
	switch cfg.Transport {
	case "native":
		transports = func() port.VideoTransport { return pion.New() }
	case "sim":
		transports = func() port.VideoTransport { return sim.New() }
	default:
		l.Fatal().Str("transport", cfg.Transport).Msg("Unknown transport backend")
	}
	l.Info().Str("transport", cfg.Transport).Msg("Media transport selected")

	manager := service.NewCallManager(catalog, balances, provisioner, transports, history, hub, service.SessionConfig{
		ConnectTimeout: cfg.ConnectTimeout,
		EndingTimeout:  cfg.EndingTimeout,
	})

	h := handler.NewHandler(manager, catalog, history, hub)

	go hub.Run()

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: h.NewRouter(),
	}

	go func() {
		l.Info().Str("addr", cfg.ListenAddr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	l.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	manager.Shutdown(ctx)

	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("Server forced to shutdown")
	}

	hub.Stop()
	l.Info().Msg("Server exited")
}

func loadPricing(cfg config.Config) ([]domain.PricingRule, error) {
	if cfg.PricingURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpfetch.New(cfg.PricingURL, cfg.PricingToken).FetchRules(ctx)
	}
	return demoPricing(), nil
}

// demoPricing mirrors the demo price table of the hosted backend.
func demoPricing() []domain.PricingRule {
	price := func(s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		if err != nil {
			panic(err)
		}
		return d
	}
	return []domain.PricingRule{
		{CallType: domain.CallTypeVoice, CallMode: domain.ModeAI, PricePerMinute: price("1.50"), MinimumChargeMinutes: 5},
		{CallType: domain.CallTypeVoice, CallMode: domain.ModeHumanInterpreter, PricePerMinute: price("6.00"), MinimumChargeMinutes: 5},
		{CallType: domain.CallTypeVideo, CallMode: domain.ModeAI, PricePerMinute: price("2.00"), MinimumChargeMinutes: 5},
		{CallType: domain.CallTypeVideo, CallMode: domain.ModeSignLanguage, PricePerMinute: price("3.00"), MinimumChargeMinutes: 5},
		{CallType: domain.CallTypeVideo, CallMode: domain.ModeHumanInterpreter, PricePerMinute: price("8.00"), MinimumChargeMinutes: 5},
	}
}
