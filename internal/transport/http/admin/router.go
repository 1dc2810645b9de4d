package adminhttp

import (
	"context"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"predictbot/internal/engine"
	"predictbot/internal/store"
)

// Store is the slice of persistence the admin API reads. It is deliberately
// read-only: order and user mutation stays with the bot and the sync engine.
type Store interface {
	ListUsers(ctx context.Context) ([]store.UserRecord, error)
	ListOrders(ctx context.Context, userID int64, limit int) ([]store.OrderRecord, error)
}

// StatsProvider exposes sync cycle counters.
type StatsProvider interface {
	Stats() engine.StatsSnapshot
}

// HealthProvider contributes a sync-loop health string to /healthz.
type HealthProvider interface {
	HealthState() string
}

type Router struct {
	store Store
	stats StatsProvider
}

func NewRouter(st Store, stats StatsProvider) *Router {
	return &Router{store: st, stats: stats}
}

func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/orders", r.handleOrders)
	group.GET("/sync/stats", r.handleSyncStats)
	group.GET("/export/users.csv", r.handleExportUsers)
	group.GET("/export/orders.csv", r.handleExportOrders)
}

func (r *Router) handleOrders(c *gin.Context) {
	userID, _ := strconv.ParseInt(c.Query("user_id"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	orders, err := r.store.ListOrders(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderJSON(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out, "count": len(out)})
}

func (r *Router) handleSyncStats(c *gin.Context) {
	if r.stats == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sync stats unavailable"})
		return
	}
	c.JSON(http.StatusOK, r.stats.Stats())
}

func (r *Router) handleExportUsers(c *gin.Context) {
	users, err := r.store.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="users.csv"`)
	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"telegram_id", "username", "wallet_address", "created_at"})
	for _, u := range users {
		_ = w.Write([]string{
			strconv.FormatInt(u.TelegramID, 10),
			u.Username,
			u.WalletAddress,
			u.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
}

func (r *Router) handleExportOrders(c *gin.Context) {
	userID, _ := strconv.ParseInt(c.Query("user_id"), 10, 64)
	orders, err := r.store.ListOrders(c.Request.Context(), userID, 500)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="orders.csv"`)
	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{
		"local_id", "user_id", "order_hash", "exchange_id", "market_id", "market_title",
		"token_name", "side", "outcome", "current_price", "target_price", "offset_ticks",
		"amount", "threshold_cents", "status", "created_at", "updated_at",
	})
	for _, o := range orders {
		_ = w.Write([]string{
			o.LocalID,
			strconv.FormatInt(o.UserID, 10),
			o.OrderHash,
			o.ExchangeID,
			strconv.FormatInt(o.MarketID, 10),
			o.MarketTitle,
			o.TokenName,
			string(o.Side),
			string(o.Outcome),
			o.CurrentPrice.String(),
			o.TargetPrice.String(),
			strconv.Itoa(o.OffsetTicks),
			o.Amount.String(),
			o.ThresholdCents.String(),
			string(o.Status),
			o.CreatedAt.Format(time.RFC3339),
			o.UpdatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
}

func orderJSON(o store.OrderRecord) gin.H {
	return gin.H{
		"local_id":        o.LocalID,
		"user_id":         o.UserID,
		"order_hash":      o.OrderHash,
		"exchange_id":     o.ExchangeID,
		"market_id":       o.MarketID,
		"market_title":    o.MarketTitle,
		"market_slug":     o.MarketSlug,
		"token_name":      o.TokenName,
		"side":            o.Side,
		"outcome":         o.Outcome,
		"current_price":   o.CurrentPrice.String(),
		"target_price":    o.TargetPrice.String(),
		"offset_ticks":    o.OffsetTicks,
		"amount":          o.Amount.String(),
		"threshold_cents": o.ThresholdCents.String(),
		"status":          o.Status,
		"created_at":      o.CreatedAt.Format(time.RFC3339),
		"updated_at":      o.UpdatedAt.Format(time.RFC3339),
	}
}
