package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ArowuTest/tonlotto-backend/api/routes"
	"github.com/ArowuTest/tonlotto-backend/internal/cache"
	"github.com/ArowuTest/tonlotto-backend/internal/config"
	"github.com/ArowuTest/tonlotto-backend/internal/finance"
	"github.com/ArowuTest/tonlotto-backend/internal/logger"
	"github.com/ArowuTest/tonlotto-backend/internal/metrics"
	"github.com/ArowuTest/tonlotto-backend/internal/middleware"
	"github.com/ArowuTest/tonlotto-backend/internal/repositories"
	"github.com/ArowuTest/tonlotto-backend/internal/repositories/memory"
	mongorepo "github.com/ArowuTest/tonlotto-backend/internal/repositories/mongodb"
	"github.com/ArowuTest/tonlotto-backend/internal/services"
	"github.com/ArowuTest/tonlotto-backend/pkg/mongodb"
	"github.com/ArowuTest/tonlotto-backend/pkg/tonapi"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// mockCollectionWallet receives payments when TON.MockAPI is set without a wallet.
const mockCollectionWallet = "0:0000000000000000000000000000000000000000000000000000000000000001"

type stores struct {
	tickets   repositories.TicketRepository
	draws     repositories.DrawRepository
	rollovers repositories.RolloverRepository
	admins    repositories.AdminUserRepository
}

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log, os.Stdout)
	slog.SetDefault(log)
	gin.SetMode(cfg.Server.Mode)

	ctx := context.Background()

	repos, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		log.Error("Failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStorage()

	balanceCache, closeCache := openBalanceCache(ctx, cfg.Redis, log)
	defer closeCache()

	shares, _ := cfg.Lottery.Shares()
	price, _ := cfg.Lottery.Price()
	discounts, _ := cfg.Lottery.Discounts()
	tolerance, _ := cfg.Verification.Tolerance()
	calc, err := finance.NewCalculator(shares)
	if err != nil {
		log.Error("Invalid revenue split", "error", err)
		os.Exit(1)
	}

	collection := cfg.TON.CollectionWallet
	if collection == "" {
		collection = mockCollectionWallet
	}
	chain, err := tonapi.NewClient(tonapi.Config{
		BaseURL:         cfg.TON.APIBaseURL,
		APIKey:          cfg.TON.APIKey,
		Timeout:         cfg.TON.Timeout,
		MockAPI:         cfg.TON.MockAPI,
		MockDestination: collection,
	})
	if err != nil {
		log.Error("Failed to create TON API client", "error", err)
		os.Exit(1)
	}
	if cfg.TON.MockAPI {
		log.Warn("TON API is mocked; every transaction hash verifies as paid", "wallet", collection)
	}

	m := metrics.New()
	rules := services.GameRules{NumbersPerTicket: cfg.Lottery.NumbersPerTicket, NumberRange: cfg.Lottery.NumberRange}

	verifier := services.NewVerificationService(chain, repos.tickets, services.VerifierConfig{
		CollectionWallet: collection,
		MinHashLength:    cfg.Verification.MinHashLength,
		AmountTolerance:  tolerance,
		ChainTimeout:     cfg.TON.Timeout,
		DedupFailOpen:    cfg.Verification.DedupFailOpen,
	}, m)
	svc := routes.Services{
		Verification: verifier,
		Tickets: services.NewTicketService(repos.tickets, repos.draws, verifier, services.TicketConfig{
			TicketPrice:           price,
			Discounts:             discounts,
			MaxTicketsPerPurchase: int64(cfg.Lottery.MaxTicketsPerPurchase),
			Rules:                 rules,
		}, m),
		Balances: services.NewBalanceService(chain, balanceCache, m),
		Draws: services.NewDrawService(repos.draws, repos.tickets, repos.rollovers, calc,
			services.DrawConfig{TicketPrice: price, Rules: rules, SettleGrace: cfg.Lottery.SettleGrace}),
		Auth: services.NewAuthService(repos.admins, cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiresIn)*time.Second),
	}
	if cfg.JWT.Secret == "" {
		log.Warn("JWT secret is empty; admin routes will refuse every request")
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	stopCleanup := make(chan struct{})
	limiter.StartCleanup(time.Minute, stopCleanup)
	defer close(stopCleanup)

	router := routes.SetupRouter(cfg, svc, m, limiter, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("Server starting", "port", cfg.Server.Port, "storage", cfg.Storage.Driver)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server exiting")
}

// openStorage returns the repositories for the configured driver and a func
// releasing their resources.
func openStorage(ctx context.Context, cfg *config.Config) (stores, func(), error) {
	if cfg.Storage.Driver == "memory" {
		slog.Warn("Using in-memory storage; data is lost on restart")
		return stores{
			tickets:   memory.NewTicketStore(),
			draws:     memory.NewDrawStore(),
			rollovers: memory.NewRolloverStore(),
			admins:    memory.NewAdminUserStore(),
		}, func() {}, nil
	}

	client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, cfg.MongoDB.ConnectTimeout)
	if err != nil {
		return stores{}, nil, err
	}
	closeFn := func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			slog.Error("Error disconnecting from MongoDB", "error", err)
		}
	}

	db := client.Database(cfg.MongoDB.Database)
	ictx, cancel := context.WithTimeout(ctx, cfg.MongoDB.ConnectTimeout)
	defer cancel()
	if err := mongorepo.EnsureIndexes(ictx, db); err != nil {
		closeFn()
		return stores{}, nil, err
	}

	return stores{
		tickets:   mongorepo.NewTicketRepository(db),
		draws:     mongorepo.NewDrawRepository(db),
		rollovers: mongorepo.NewRolloverRepository(db),
		admins:    mongorepo.NewAdminUserRepository(db),
	}, closeFn, nil
}

// openBalanceCache connects to redis when configured. An unreachable server
// disables caching rather than failing start-up.
func openBalanceCache(ctx context.Context, cfg config.RedisConfig, log *slog.Logger) (*cache.BalanceCache, func()) {
	if cfg.Addr == "" {
		return cache.NewBalanceCache(nil, 0), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		log.Warn("Redis unreachable, balance cache disabled", "addr", cfg.Addr, "error", err)
		_ = client.Close()
		return cache.NewBalanceCache(nil, 0), func() {}
	}

	log.Info("Balance cache enabled", "addr", cfg.Addr, "ttl", cfg.BalanceTTL)
	return cache.NewBalanceCache(client, cfg.BalanceTTL), func() { _ = client.Close() }
}
