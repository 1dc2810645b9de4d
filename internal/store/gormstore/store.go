package gormstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"predictbot/internal/store"
	storemodel "predictbot/internal/store/model"
	"predictbot/internal/types"
)

type userModel = storemodel.UserModel
type orderModel = storemodel.OrderModel

// GormStore implements store.Store on Gorm + SQLite.
type GormStore struct {
	db *gorm.DB
}

var _ store.Store = (*GormStore)(nil)

// NewGormStore opens (or creates) the database at path and migrates the
// schema.
func NewGormStore(path string) (*GormStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: database path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&userModel{}, &orderModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: the sync loop writes while the admin HTTP server reads.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &GormStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *GormStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// --------------------------- UserStore ------------------------------------

func (s *GormStore) UpsertUser(ctx context.Context, rec store.UserRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	if rec.TelegramID <= 0 {
		return fmt.Errorf("telegram_id is required")
	}
	model := newUserModel(rec)
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "telegram_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "wallet_address", "api_key", "auth_token", "proxy", "updated_at",
			}),
		}).
		Create(&model).Error
}

func (s *GormStore) GetUser(ctx context.Context, telegramID int64) (store.UserRecord, error) {
	if s == nil || s.db == nil {
		return store.UserRecord{}, fmt.Errorf("gorm store not initialized")
	}
	var model userModel
	if err := s.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.UserRecord{}, store.ErrNotFound
		}
		return store.UserRecord{}, err
	}
	return userModelToRecord(model), nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]store.UserRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	var models []userModel
	if err := s.db.WithContext(ctx).Order("telegram_id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]store.UserRecord, 0, len(models))
	for _, m := range models {
		out = append(out, userModelToRecord(m))
	}
	return out, nil
}

func (s *GormStore) DeleteUser(ctx context.Context, telegramID int64) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	res := s.db.WithContext(ctx).Where("telegram_id = ?", telegramID).Delete(&userModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --------------------------- OrderStore -----------------------------------

func (s *GormStore) InsertOrder(ctx context.Context, rec store.OrderRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	if rec.UserID <= 0 {
		return fmt.Errorf("user_id is required")
	}
	if strings.TrimSpace(rec.OrderHash) == "" {
		return fmt.Errorf("order_hash is required")
	}
	model := newOrderModel(rec)
	return s.db.WithContext(ctx).Create(&model).Error
}

func (s *GormStore) GetOrder(ctx context.Context, localID string) (store.OrderRecord, error) {
	if s == nil || s.db == nil {
		return store.OrderRecord{}, fmt.Errorf("gorm store not initialized")
	}
	var model orderModel
	if err := s.db.WithContext(ctx).Where("local_id = ?", localID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.OrderRecord{}, store.ErrNotFound
		}
		return store.OrderRecord{}, err
	}
	return orderModelToRecord(model), nil
}

func (s *GormStore) GetOrderByHash(ctx context.Context, userID int64, hash string) (store.OrderRecord, error) {
	if s == nil || s.db == nil {
		return store.OrderRecord{}, fmt.Errorf("gorm store not initialized")
	}
	var model orderModel
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND order_hash = ?", userID, strings.TrimSpace(hash)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.OrderRecord{}, store.ErrNotFound
		}
		return store.OrderRecord{}, err
	}
	return orderModelToRecord(model), nil
}

func (s *GormStore) ListOpenOrders(ctx context.Context, userID int64) ([]store.OrderRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	var models []orderModel
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, string(types.OrderStatusOpen)).
		Order("created_at ASC, local_id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]store.OrderRecord, 0, len(models))
	for _, m := range models {
		out = append(out, orderModelToRecord(m))
	}
	return out, nil
}

func (s *GormStore) ListOrders(ctx context.Context, userID int64, limit int) ([]store.OrderRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := s.db.WithContext(ctx).Model(&orderModel{})
	if userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	var models []orderModel
	if err := query.Order("updated_at DESC, local_id DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]store.OrderRecord, 0, len(models))
	for _, m := range models {
		out = append(out, orderModelToRecord(m))
	}
	return out, nil
}

func (s *GormStore) UpdateOrderStatus(ctx context.Context, localID string, status types.OrderStatus, fillPayload []byte) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	payload := map[string]interface{}{
		"status":     string(status),
		"updated_at": time.Now().Unix(),
	}
	if len(fillPayload) > 0 {
		payload["last_fill_payload"] = datatypes.JSON(fillPayload)
	}
	res := s.db.WithContext(ctx).Model(&orderModel{}).
		Where("local_id = ?", localID).
		Updates(payload)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ApplyReposition swaps an order's exchange identity after cancel-and-replace.
// The whole patch lands in one UPDATE so a crash cannot leave the row pointing
// at the cancelled order with the new price.
func (s *GormStore) ApplyReposition(ctx context.Context, localID string, update store.RepositionUpdate) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	if strings.TrimSpace(update.NewOrderHash) == "" {
		return fmt.Errorf("new order hash is required")
	}
	res := s.db.WithContext(ctx).Model(&orderModel{}).
		Where("local_id = ?", localID).
		Updates(map[string]interface{}{
			"order_hash":    strings.TrimSpace(update.NewOrderHash),
			"exchange_id":   strings.TrimSpace(update.NewExchangeID),
			"current_price": update.NewMarketPrice.String(),
			"target_price":  update.NewTargetPrice.String(),
			"updated_at":    time.Now().Unix(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteOrder(ctx context.Context, localID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	res := s.db.WithContext(ctx).Where("local_id = ?", localID).Delete(&orderModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --------------------------- Model Helpers ---------------------------------

func newUserModel(rec store.UserRecord) userModel {
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	return userModel{
		TelegramID:    rec.TelegramID,
		Username:      strings.TrimSpace(rec.Username),
		WalletAddress: strings.TrimSpace(rec.WalletAddress),
		APIKey:        strings.TrimSpace(rec.APIKey),
		AuthToken:     strings.TrimSpace(rec.AuthToken),
		Proxy:         strings.TrimSpace(rec.Proxy),
		CreatedAtUnix: rec.CreatedAt.Unix(),
		UpdatedAtUnix: rec.UpdatedAt.Unix(),
	}
}

func userModelToRecord(m userModel) store.UserRecord {
	return store.UserRecord{
		TelegramID:    m.TelegramID,
		Username:      m.Username,
		WalletAddress: m.WalletAddress,
		APIKey:        m.APIKey,
		AuthToken:     m.AuthToken,
		Proxy:         m.Proxy,
		CreatedAt:     time.Unix(m.CreatedAtUnix, 0),
		UpdatedAt:     time.Unix(m.UpdatedAtUnix, 0),
	}
}

func newOrderModel(rec store.OrderRecord) orderModel {
	now := time.Now()
	if rec.LocalID == "" {
		rec.LocalID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	if rec.Status == "" {
		rec.Status = types.OrderStatusOpen
	}
	if rec.ThresholdCents.IsZero() {
		rec.ThresholdCents = decimal.New(5, -1)
	}
	return orderModel{
		LocalID:         rec.LocalID,
		UserID:          rec.UserID,
		OrderHash:       strings.TrimSpace(rec.OrderHash),
		ExchangeID:      strings.TrimSpace(rec.ExchangeID),
		MarketID:        rec.MarketID,
		MarketTitle:     strings.TrimSpace(rec.MarketTitle),
		MarketSlug:      strings.TrimSpace(rec.MarketSlug),
		TokenID:         strings.TrimSpace(rec.TokenID),
		TokenName:       strings.TrimSpace(rec.TokenName),
		Side:            string(rec.Side),
		Outcome:         string(rec.Outcome),
		CurrentPrice:    rec.CurrentPrice.String(),
		TargetPrice:     rec.TargetPrice.String(),
		OffsetTicks:     rec.OffsetTicks,
		Amount:          rec.Amount.String(),
		ThresholdCents:  rec.ThresholdCents.String(),
		Status:          string(rec.Status),
		LastFillPayload: datatypes.JSON(rec.LastFillPayload),
		CreatedAtUnix:   rec.CreatedAt.Unix(),
		UpdatedAtUnix:   rec.UpdatedAt.Unix(),
	}
}

func orderModelToRecord(m orderModel) store.OrderRecord {
	return store.OrderRecord{
		LocalID:         m.LocalID,
		UserID:          m.UserID,
		OrderHash:       m.OrderHash,
		ExchangeID:      m.ExchangeID,
		MarketID:        m.MarketID,
		MarketTitle:     m.MarketTitle,
		MarketSlug:      m.MarketSlug,
		TokenID:         m.TokenID,
		TokenName:       m.TokenName,
		Side:            types.Side(m.Side),
		Outcome:         types.Outcome(m.Outcome),
		CurrentPrice:    parseDecimal(m.CurrentPrice),
		TargetPrice:     parseDecimal(m.TargetPrice),
		OffsetTicks:     m.OffsetTicks,
		Amount:          parseDecimal(m.Amount),
		ThresholdCents:  parseDecimal(m.ThresholdCents),
		Status:          types.OrderStatus(m.Status),
		LastFillPayload: []byte(m.LastFillPayload),
		CreatedAt:       time.Unix(m.CreatedAtUnix, 0),
		UpdatedAt:       time.Unix(m.UpdatedAtUnix, 0),
	}
}

func parseDecimal(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}
