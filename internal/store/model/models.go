package model

import (
	"gorm.io/datatypes"
)

type UserModel struct {
	TelegramID    int64  `gorm:"column:telegram_id;primaryKey"`
	Username      string `gorm:"column:username"`
	WalletAddress string `gorm:"column:wallet_address"`
	APIKey        string `gorm:"column:api_key"`
	AuthToken     string `gorm:"column:auth_token"`
	Proxy         string `gorm:"column:proxy"`
	CreatedAtUnix int64  `gorm:"column:created_at"`
	UpdatedAtUnix int64  `gorm:"column:updated_at"`
}

func (UserModel) TableName() string { return "users" }

// Prices are stored as decimal strings so a round-trip through the database
// never loses the exact tick the exchange quoted.
type OrderModel struct {
	LocalID         string         `gorm:"column:local_id;primaryKey"`
	UserID          int64          `gorm:"column:user_id;index"`
	OrderHash       string         `gorm:"column:order_hash;index:idx_orders_user_hash"`
	ExchangeID      string         `gorm:"column:exchange_id"`
	MarketID        int64          `gorm:"column:market_id;index"`
	MarketTitle     string         `gorm:"column:market_title"`
	MarketSlug      string         `gorm:"column:market_slug"`
	TokenID         string         `gorm:"column:token_id"`
	TokenName       string         `gorm:"column:token_name"`
	Side            string         `gorm:"column:side"`
	Outcome         string         `gorm:"column:outcome"`
	CurrentPrice    string         `gorm:"column:current_price"`
	TargetPrice     string         `gorm:"column:target_price"`
	OffsetTicks     int            `gorm:"column:offset_ticks"`
	Amount          string         `gorm:"column:amount"`
	ThresholdCents  string         `gorm:"column:reposition_threshold_cents"`
	Status          string         `gorm:"column:status;index"`
	LastFillPayload datatypes.JSON `gorm:"column:last_fill_payload;type:TEXT"`
	CreatedAtUnix   int64          `gorm:"column:created_at"`
	UpdatedAtUnix   int64          `gorm:"column:updated_at"`
}

func (OrderModel) TableName() string { return "orders" }
