package routes

import (
	"log/slog"
	"net/http"

	"github.com/ArowuTest/tonlotto-backend/internal/config"
	"github.com/ArowuTest/tonlotto-backend/internal/handlers"
	"github.com/ArowuTest/tonlotto-backend/internal/metrics"
	"github.com/ArowuTest/tonlotto-backend/internal/middleware"
	"github.com/ArowuTest/tonlotto-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Services bundles what the HTTP layer needs.
type Services struct {
	Tickets      services.TicketService
	Verification services.VerificationService
	Balances     services.BalanceService
	Draws        services.DrawService
	Auth         services.AuthService
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, svc Services, m *metrics.Metrics, limiter *middleware.RateLimiter, logger *slog.Logger) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.MetricsMiddleware(m))

	price, err := cfg.Lottery.Price()
	if err != nil {
		price = decimal.NewFromInt(1)
	}

	ticketHandler := handlers.NewTicketHandler(svc.Tickets, svc.Verification)
	balanceHandler := handlers.NewBalanceHandler(svc.Balances)
	lotteryHandler := handlers.NewLotteryHandler(svc.Draws, svc.Tickets, price)
	drawHandler := handlers.NewDrawHandler(svc.Draws)
	authHandler := handlers.NewAuthHandler(svc.Auth)

	router.GET("/metrics", gin.WrapH(m.Handler()))

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		user := api.Group("/user")
		user.Use(limiter.Handler())
		{
			user.GET("/balance/:walletAddress", balanceHandler.GetBalance)
			user.GET("/tickets/:walletAddress", ticketHandler.GetTicketsByWallet)
		}

		tickets := api.Group("/tickets")
		tickets.Use(limiter.Handler())
		{
			tickets.POST("/purchase", ticketHandler.PurchaseTickets)
			tickets.POST("/verify", ticketHandler.VerifyTransaction)
			tickets.GET("/used/:txHash", ticketHandler.IsTransactionUsed)
		}

		lottery := api.Group("/lottery")
		{
			lottery.GET("/current", lotteryHandler.CurrentDraw)
			lottery.GET("/draws", lotteryHandler.ListDraws)
			lottery.GET("/draws/:id", lotteryHandler.GetDraw)
			lottery.GET("/distribution", lotteryHandler.Distribution)
			lottery.GET("/quote", lotteryHandler.Quote)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/login", limiter.Handler(), authHandler.Login)

			protected := admin.Group("")
			protected.Use(middleware.JWTAuthMiddleware(cfg.JWT.Secret), middleware.RequireRole(services.RoleAdmin))
			{
				protected.POST("/draws", drawHandler.CreateDraw)
				protected.POST("/draws/:id/close", drawHandler.CloseDraw)
				protected.POST("/draws/:id/settle", drawHandler.SettleDraw)
			}
		}
	}

	return router
}
