package repository

import (
	"context"
	"errors"
	"time"

	"tradejournal/internal/models"
)

var (
	ErrNotFound      = errors.New("repository: not found")
	ErrConflict      = errors.New("repository: conflict")
	ErrInvalidCursor = errors.New("repository: invalid cursor")
)

// TradeReader is the read side of the trade store.
type TradeReader interface {
	GetTrade(ctx context.Context, userID, tradeID string) (*models.Trade, error)
	// QueryTradesByUser pages through one user's trades ordered by trade id.
	// An empty NextCursor means the user has no more trades.
	QueryTradesByUser(ctx context.Context, userID, cursor string, limit int) (TradePage, error)
	// ScanTrades pages through the whole collection ordered by (user id, trade id).
	ScanTrades(ctx context.Context, params ScanParams) (TradePage, error)
}

// TradeWriter mutates trades. Every mutation also appends a trade_changes row in the same transaction.
type TradeWriter interface {
	InsertTrades(ctx context.Context, items []models.Trade) error
	UpdateTrade(ctx context.Context, item *models.Trade) error
	DeleteTrade(ctx context.Context, userID, tradeID string) error
	DeleteTrades(ctx context.Context, userID string, tradeIDs []string) ([]string, error)
	FindTradesByIdempotencyKey(ctx context.Context, userID, key string) ([]models.Trade, error)
	ListTrades(ctx context.Context, params ListTradesParams) (TradePage, error)
}

type TradeRepository interface {
	TradeReader
	TradeWriter
}

// StatsRepository is the per-user aggregate store. PutStats replaces the whole row.
type StatsRepository interface {
	GetStats(ctx context.Context, userID string) (*models.TradeStats, error)
	PutStats(ctx context.Context, item *models.TradeStats) error
	ListStatsUserIDs(ctx context.Context, cursor string, limit int) ([]string, string, error)
}

// ChangeRepository is the outbox view of the trade change feed.
type ChangeRepository interface {
	// ListPendingChanges returns unpublished, unparked rows with id > afterID in id order.
	ListPendingChanges(ctx context.Context, afterID uint64, limit int) ([]models.TradeChange, error)
	ListChangesByUser(ctx context.Context, userID string, since time.Time, limit int) ([]models.TradeChange, error)
	MarkChangesPublished(ctx context.Context, ids []uint64, at time.Time) error
	IncrementChangeAttempts(ctx context.Context, ids []uint64) error
	ParkChanges(ctx context.Context, ids []uint64, at time.Time) error
}

type AccountRepository interface {
	ListAccounts(ctx context.Context, userID string) ([]models.Account, error)
	GetAccount(ctx context.Context, userID, accountID string) (*models.Account, error)
	CreateAccount(ctx context.Context, item *models.Account) error
	UpdateAccount(ctx context.Context, item *models.Account) error
	UpdateAccountStatus(ctx context.Context, userID, accountID, status string) (*models.Account, error)
	DeleteAccount(ctx context.Context, userID, accountID string) error
}

type GoalRepository interface {
	ListGoals(ctx context.Context, params ListGoalsParams) ([]models.Goal, error)
	GetGoal(ctx context.Context, userID, goalID string) (*models.Goal, error)
	CreateGoal(ctx context.Context, item *models.Goal) error
	UpdateGoal(ctx context.Context, item *models.Goal) error
	DeleteGoal(ctx context.Context, userID, goalID string) error
}

type RuleRepository interface {
	ListRules(ctx context.Context, userID string) ([]models.Rule, error)
	GetRule(ctx context.Context, userID, ruleID string) (*models.Rule, error)
	CreateRule(ctx context.Context, item *models.Rule) error
	UpdateRule(ctx context.Context, item *models.Rule) error
	ToggleRule(ctx context.Context, userID, ruleID string) (*models.Rule, error)
	DeleteRule(ctx context.Context, userID, ruleID string) error
}

type SettingsRepository interface {
	UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error
	GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error)
	ListSystemSettings(ctx context.Context, params ListSystemSettingsParams) ([]models.SystemSetting, error)
}

// ProfileRepository stores per-user settings. UpdateProfile runs fn on the
// current row, or on a fresh default profile, and saves the result atomically.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, fn func(*models.UserProfile) error) (*models.UserProfile, error)
}

// Repository is everything the journal server needs from storage.
type Repository interface {
	TradeRepository
	StatsRepository
	ChangeRepository
	AccountRepository
	GoalRepository
	RuleRepository
	SettingsRepository
	ProfileRepository
	Ping(ctx context.Context) error
}

type TradePage struct {
	Items      []models.Trade
	NextCursor string
}

type ScanParams struct {
	Cursor string
	Limit  int
	// Fields restricts the selected columns. Empty selects every column.
	Fields []string
}

type ListTradesParams struct {
	UserID string
	// AccountID "" or "ALL" lists every account. Any other value also matches
	// trades recorded against the "-1" all-accounts id.
	AccountID string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Cursor    string
}

type ListGoalsParams struct {
	UserID    string
	AccountID string
	Period    string
}

type ListSystemSettingsParams struct {
	Prefix  *string
	Limit   int
	Offset  int
	OrderBy string
	Asc     *bool
}
