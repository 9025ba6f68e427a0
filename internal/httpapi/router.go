// Package httpapi assembles the gin router from the handler set.
package httpapi

import (
	"net/http"

	"github.com/cardverse/cardverse/internal/auction"
	"github.com/cardverse/cardverse/internal/balance"
	"github.com/cardverse/cardverse/internal/bid"
	"github.com/cardverse/cardverse/internal/config"
	"github.com/cardverse/cardverse/internal/events"
	"github.com/cardverse/cardverse/internal/httpapi/handlers"
	"github.com/cardverse/cardverse/internal/realtime"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps carries everything the router needs.
type Deps struct {
	DB       *gorm.DB
	Cfg      config.Config
	Bus      *events.Bus
	Hub      *realtime.Hub
	Auctions *auction.Service
	Repo     *auction.Repository
	Bids     *bid.Service
	Balances *balance.Service
}

// NewRouter builds the HTTP surface.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	authH := handlers.NewAuthHandler(d.DB, d.Cfg.JWT.Secret, d.Cfg.JWT.Expiry())
	mfaH := handlers.NewMFAHandler(d.DB)
	profileH := handlers.NewProfileHandler(d.DB, d.Balances)
	cardsH := handlers.NewCardsHandler(d.DB, d.Cfg.Uploads.Dir)
	setsH := handlers.NewSetsHandler(d.DB)
	auctionsH := handlers.NewAuctionsHandler(d.Auctions, d.Repo, d.Bids)
	balanceH := handlers.NewBalanceHandler(d.DB, d.Balances)
	paymentsH := handlers.NewPaymentsHandler(d.DB, d.Cfg.Payments.WebhookSecret)
	chatH := handlers.NewChatHandler(d.DB, d.Bus)
	statsH := handlers.NewStatsHandler(d.DB)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.Static("/uploads", d.Cfg.Uploads.Dir)

	api := r.Group("/api/v1")

	api.POST("/auth/register", authH.Register)
	api.POST("/auth/login", authH.Login)
	api.POST("/payments/webhook", paymentsH.Webhook)

	// Public reads. An optional token unlocks viewer-scoped annotations.
	public := api.Group("", handlers.OptionalAuth(d.Cfg.JWT.Secret))
	{
		public.GET("/cards", cardsH.List)
		public.GET("/cards/:id", cardsH.Get)
		public.GET("/locations", cardsH.Locations)
		public.GET("/sets", setsH.List)
		public.GET("/sets/:id", setsH.Get)
		public.GET("/auctions", auctionsH.List)
		public.GET("/auctions/bid-range", auctionsH.BidRange)
		public.GET("/auctions/:id", auctionsH.Get)
		public.GET("/auctions/:id/bids", auctionsH.Bids)
		public.GET("/users/:id", profileH.GetUser)
		public.GET("/stats/leaderboard", statsH.Leaderboard)
		public.GET("/ws", d.Hub.ServeWS)
	}

	authed := api.Group("", handlers.Auth(d.Cfg.JWT.Secret))
	{
		authed.GET("/profile", profileH.Me)
		authed.PATCH("/profile", profileH.UpdateMe)
		authed.POST("/mfa/prepare", mfaH.Prepare)
		authed.POST("/mfa/confirm", mfaH.Confirm)
		authed.POST("/mfa/disable", mfaH.Disable)

		authed.GET("/cards/mine", cardsH.Mine)

		authed.POST("/auctions", auctionsH.Create)
		authed.PATCH("/auctions/:id", auctionsH.Update)
		authed.DELETE("/auctions/:id", auctionsH.Remove)
		authed.POST("/auctions/:id/bids", auctionsH.CreateBid)

		authed.GET("/balance", balanceH.Summary)
		authed.GET("/balance/transfers", balanceH.Transfers)
		authed.POST("/payments", paymentsH.CreateIntent)
		authed.GET("/payments", paymentsH.List)

		authed.GET("/chat/conversations", chatH.ListConversations)
		authed.POST("/chat/conversations", chatH.OpenConversation)
		authed.GET("/chat/conversations/:id/messages", chatH.ListMessages)
		authed.POST("/chat/conversations/:id/messages", chatH.SendMessage)
	}

	admin := api.Group("/admin", handlers.Auth(d.Cfg.JWT.Secret), handlers.AdminOnly())
	{
		admin.POST("/cards", cardsH.Create)
		admin.PATCH("/cards/:id", cardsH.Update)
		admin.DELETE("/cards/:id", cardsH.Delete)
		admin.POST("/cards/:id/image", cardsH.UploadImage)
		admin.POST("/cards/:id/instances", cardsH.Mint)
		admin.POST("/sets", setsH.Create)
		admin.PATCH("/sets/:id", setsH.Update)
		admin.DELETE("/sets/:id", setsH.Delete)
		admin.PATCH("/users/:id/disabled", profileH.SetDisabled)
	}

	return r
}
