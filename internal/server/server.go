package server

import (
	"time"

	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/audit"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/auth"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/config"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/coupon"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/idempotency"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/notification"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/payment"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/tournament"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/user"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	router      *gin.Engine
	db          *sqlx.DB
	config      *config.Config
	idempotency *idempotency.Store

	Tournaments tournament.Service
}

func New(db *sqlx.DB, cfg *config.Config, notifier *notification.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())

	auditor := audit.NewRecorder(db)
	bus := tournament.NewBus()
	idemStore := idempotency.NewStore(time.Duration(cfg.IdempotencyTTLSeconds) * time.Second)

	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo, cfg.JWTSecret)
	userHandler := user.NewHandler(userService, auditor)

	walletRepo := wallet.NewRepository(db)
	walletHandler := wallet.NewHandler(walletRepo, auditor)

	couponRepo := coupon.NewRepository(db, nil)
	couponHandler := coupon.NewHandler(couponRepo, auditor)

	tournamentRepo := tournament.NewRepository(db, nil)
	tournamentService := tournament.NewService(tournamentRepo, notifier, bus)
	tournamentHandler := tournament.NewHandler(tournamentService, bus, auditor)

	gateway := payment.NewRazorpayClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	paymentRepo := payment.NewRepository(db)
	paymentService := payment.NewService(paymentRepo, gateway, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret)
	paymentHandler := payment.NewHandler(paymentService)

	notificationHandler := notification.NewHandler(notification.NewRepository(db))
	auditHandler := audit.NewHandler(auditor)

	router.GET("/health", Health(notifier))
	router.GET("/metrics", Metrics())

	public := router.Group("/auth")
	public.Use(RateLimitMiddleware(5, 10))
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.Refresh)
	}

	// Gateway callbacks authenticate with an HMAC signature, not a token.
	router.POST("/payments/webhook", paymentHandler.Webhook)

	router.GET("/tournaments", tournamentHandler.List)
	router.GET("/tournaments/events", tournamentHandler.Events)
	router.GET("/tournaments/:id", tournamentHandler.Get)
	router.GET("/tournaments/:id/prizes", tournamentHandler.GetPrizes)
	router.GET("/tournaments/:id/results", tournamentHandler.GetResults)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware, idempotency.Middleware(idemStore))
	{
		protected.GET("/me", userHandler.GetMe)

		protected.POST("/tournaments", auth.RequireRole(auth.RoleHost, auth.RoleAdmin), tournamentHandler.Create)
		protected.POST("/tournaments/:id/join", tournamentHandler.Join)

		protected.GET("/wallet", walletHandler.GetWallet)
		protected.GET("/wallet/transactions", walletHandler.GetTransactions)
		protected.POST("/wallet/withdrawals", walletHandler.RequestWithdrawal)
		protected.GET("/wallet/withdrawals", walletHandler.MyWithdrawals)

		protected.POST("/coupons/redeem", couponHandler.Redeem)

		protected.POST("/payments/orders", paymentHandler.CreateOrder)
		protected.POST("/payments/verify", paymentHandler.Verify)

		protected.GET("/notifications", notificationHandler.List)
		protected.POST("/notifications/:id/read", notificationHandler.MarkRead)
	}

	staff := router.Group("/admin")
	staff.Use(authMiddleware, auth.RequireRole(auth.RoleHost, auth.RoleAdmin), idempotency.Middleware(idemStore))
	{
		staff.GET("/tournaments/:id/registrations", tournamentHandler.GetRegistrations)
		staff.POST("/tournaments/:id/results", tournamentHandler.DeclareResults)
		staff.POST("/tournaments/:id/cancel", tournamentHandler.Cancel)
		staff.POST("/tournaments/:id/live", tournamentHandler.GoLive)
		staff.POST("/tournaments/:id/room", tournamentHandler.PublishRoom)
	}

	admin := staff.Group("")
	admin.Use(auth.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/coupons", couponHandler.Create)
		admin.GET("/coupons", couponHandler.List)
		admin.PATCH("/coupons/:code", couponHandler.SetEnabled)

		admin.GET("/withdrawals", walletHandler.ListWithdrawals)
		admin.POST("/withdrawals/:withdrawalID", walletHandler.ReviewWithdrawal)
		admin.POST("/wallet/:direction", walletHandler.AdminAdjust)

		admin.POST("/users/:userID/ban", userHandler.SetBanned(userRepo))

		admin.GET("/audit", auditHandler.List)
	}

	return &Server{
		router:      router,
		db:          db,
		config:      cfg,
		idempotency: idemStore,
		Tournaments: tournamentService,
	}
}

func (s *Server) Start(port string) error {
	return s.router.Run(":" + port)
}

// Router exposes the engine for tests and for custom http.Server setups.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Close() {
	s.idempotency.Close()
}
