package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
	"tradejournal/internal/stats"
	"tradejournal/internal/storage"
)

const (
	defaultMaxBulk       = 50
	defaultMaxBulkDelete = 50
)

// ImageStore is the object store holding trade screenshots.
type ImageStore interface {
	Enabled() bool
	PresignPut(key, contentType string) (string, time.Time, error)
	PresignGet(key string) (string, error)
	RemoveTradeImages(ctx context.Context, userID, tradeID string) error
}

// TradeInput is the client payload for creating or updating a trade.
type TradeInput struct {
	Symbol   string           `json:"symbol"`
	Side     string           `json:"side"`
	Quantity *decimal.Decimal `json:"quantity"`

	OpenDate  *time.Time `json:"openDate"`
	CloseDate *time.Time `json:"closeDate"`

	EntryPrice      *decimal.Decimal `json:"entryPrice"`
	ExitPrice       *decimal.Decimal `json:"exitPrice"`
	StopLoss        *decimal.Decimal `json:"stopLoss"`
	TakeProfit      *decimal.Decimal `json:"takeProfit"`
	PnL             *decimal.Decimal `json:"pnl"`
	RiskRewardRatio *decimal.Decimal `json:"riskRewardRatio"`
	// ClearExitPrice reopens a closed trade: exit price, close date and P&L are removed.
	ClearExitPrice bool `json:"clearExitPrice"`

	SetupType       string `json:"setupType"`
	MarketCondition string `json:"marketCondition"`
	TradingSession  string `json:"tradingSession"`
	Outcome         string `json:"outcome"`
	Notes           string `json:"notes"`

	Tags          []string            `json:"tags"`
	Mistakes      []string            `json:"mistakes"`
	Lessons       []string            `json:"lessons"`
	NewsEvents    []string            `json:"newsEvents"`
	BrokenRuleIDs []string            `json:"brokenRuleIds"`
	Images        []models.Attachment `json:"images"`

	AccountIDs     []string `json:"accountIds"`
	IdempotencyKey string   `json:"idempotencyKey"`
}

// CreateResult holds the rows of one create. Replayed is set when an earlier
// request with the same idempotency key already created them.
type CreateResult struct {
	Trades   []models.Trade
	Replayed bool
}

type BulkSkip struct {
	Index   int    `json:"index"`
	TradeID string `json:"tradeId"`
	Reason  string `json:"reason"`
}

type BulkError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

type BulkResult struct {
	Created int            `json:"created"`
	Skipped []BulkSkip     `json:"skipped"`
	Errors  []BulkError    `json:"errors"`
	Items   []models.Trade `json:"items"`
}

// TradeService owns trade writes. Stats are not touched here: every write
// lands in the change feed and the stats processor picks it up.
type TradeService struct {
	Repo          repository.TradeRepository
	Images        ImageStore
	Logger        *zap.Logger
	MaxBulk       int
	MaxBulkDelete int
	NewID         func() string
	Now           func() time.Time
}

func (s *TradeService) Create(ctx context.Context, userID string, in TradeInput, idempotencyKey string) (CreateResult, error) {
	if s == nil || s.Repo == nil {
		return CreateResult{}, errors.New("trade service unavailable")
	}
	key := strings.TrimSpace(idempotencyKey)
	if key == "" {
		key = strings.TrimSpace(in.IdempotencyKey)
	}
	if err := validateTrade(userID, in); err != nil {
		return CreateResult{}, err
	}
	if key != "" {
		existing, err := s.Repo.FindTradesByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return CreateResult{}, err
		}
		if len(existing) > 0 {
			return CreateResult{Trades: existing, Replayed: true}, nil
		}
	}
	rows, err := s.buildRows(userID, in, key)
	if err != nil {
		return CreateResult{}, err
	}
	if err := s.Repo.InsertTrades(ctx, rows); err != nil {
		if errors.Is(err, repository.ErrConflict) && key != "" {
			// A concurrent request with the same key won the insert.
			existing, lookupErr := s.Repo.FindTradesByIdempotencyKey(ctx, userID, key)
			if lookupErr == nil && len(existing) > 0 {
				return CreateResult{Trades: existing, Replayed: true}, nil
			}
		}
		return CreateResult{}, err
	}
	s.logger().Info("trades created",
		zap.String("user_id", userID),
		zap.Int("count", len(rows)),
	)
	return CreateResult{Trades: rows}, nil
}

// CreateBulk creates up to MaxBulk trades. Items fail independently and are reported by index.
func (s *TradeService) CreateBulk(ctx context.Context, userID string, items []TradeInput) (BulkResult, error) {
	if s == nil || s.Repo == nil {
		return BulkResult{}, errors.New("trade service unavailable")
	}
	if len(items) == 0 {
		return BulkResult{}, invalid("items array empty")
	}
	if limit := s.maxBulk(); len(items) > limit {
		return BulkResult{}, invalid("too many items (max %d)", limit)
	}
	res := BulkResult{Skipped: []BulkSkip{}, Errors: []BulkError{}, Items: []models.Trade{}}
	for i, in := range items {
		out, err := s.Create(ctx, userID, in, "")
		switch {
		case err != nil:
			res.Errors = append(res.Errors, BulkError{Index: i, Message: err.Error()})
			s.logger().Warn("bulk item failed", zap.String("user_id", userID), zap.Int("index", i), zap.Error(err))
		case out.Replayed:
			res.Skipped = append(res.Skipped, BulkSkip{Index: i, TradeID: out.Trades[0].TradeID, Reason: "idempotent_duplicate"})
		default:
			res.Created += len(out.Trades)
			res.Items = append(res.Items, out.Trades...)
		}
	}
	s.logger().Info("bulk create complete",
		zap.String("user_id", userID),
		zap.Int("created", res.Created),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("errors", len(res.Errors)),
	)
	return res, nil
}

func (s *TradeService) Get(ctx context.Context, userID, tradeID string) (*models.Trade, error) {
	return s.Repo.GetTrade(ctx, userID, tradeID)
}

func (s *TradeService) List(ctx context.Context, params repository.ListTradesParams) (repository.TradePage, error) {
	if params.StartDate != nil && params.EndDate != nil && params.EndDate.Before(*params.StartDate) {
		return repository.TradePage{}, invalid("endDate before startDate")
	}
	return s.Repo.ListTrades(ctx, params)
}

// Update merges the non-empty fields of in into the stored trade.
func (s *TradeService) Update(ctx context.Context, userID, tradeID string, in TradeInput) (*models.Trade, error) {
	current, err := s.Repo.GetTrade(ctx, userID, tradeID)
	if err != nil {
		return nil, err
	}
	if err := checkImages(userID, in.Images); err != nil {
		return nil, err
	}
	next := *current
	if err := mergeTrade(&next, in); err != nil {
		return nil, err
	}
	if in.PnL == nil && (in.EntryPrice != nil || in.ExitPrice != nil || in.Quantity != nil || in.Side != "" || in.ClearExitPrice) {
		if pnl, ok := stats.TradePnL(next); ok {
			next.PnL = &pnl
		} else {
			next.PnL = nil
		}
	}
	next.UpdatedAt = s.now()
	if err := s.Repo.UpdateTrade(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// Delete removes the trade and then its stored screenshots.
func (s *TradeService) Delete(ctx context.Context, userID, tradeID string) error {
	if err := s.Repo.DeleteTrade(ctx, userID, tradeID); err != nil {
		return err
	}
	s.removeImages(ctx, userID, tradeID)
	return nil
}

// BulkDelete removes the listed trades that exist and returns their ids.
func (s *TradeService) BulkDelete(ctx context.Context, userID string, tradeIDs []string) ([]string, error) {
	ids := dedupe(tradeIDs)
	if len(ids) == 0 {
		return nil, invalid("tradeIds required")
	}
	if limit := s.maxBulkDelete(); len(ids) > limit {
		return nil, invalid("too many tradeIds (max %d)", limit)
	}
	deleted, err := s.Repo.DeleteTrades(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range deleted {
		s.removeImages(ctx, userID, id)
	}
	s.logger().Info("bulk delete complete",
		zap.String("user_id", userID),
		zap.Int("requested", len(ids)),
		zap.Int("deleted", len(deleted)),
	)
	return deleted, nil
}

func (s *TradeService) removeImages(ctx context.Context, userID, tradeID string) {
	if s.Images == nil {
		return
	}
	if err := s.Images.RemoveTradeImages(ctx, userID, tradeID); err != nil {
		s.logger().Warn("remove trade images failed",
			zap.String("user_id", userID),
			zap.String("trade_id", tradeID),
			zap.Error(err),
		)
	}
}

func (s *TradeService) buildRows(userID string, in TradeInput, key string) ([]models.Trade, error) {
	if err := checkImages(userID, in.Images); err != nil {
		return nil, err
	}
	accounts := dedupe(in.AccountIDs)
	if len(accounts) == 0 {
		accounts = []string{models.AllAccounts}
	}
	now := s.now()
	base := models.Trade{
		UserID:          userID,
		Symbol:          strings.TrimSpace(in.Symbol),
		Side:            strings.ToUpper(strings.TrimSpace(in.Side)),
		Quantity:        *in.Quantity,
		EntryPrice:      in.EntryPrice,
		ExitPrice:       in.ExitPrice,
		StopLoss:        in.StopLoss,
		TakeProfit:      in.TakeProfit,
		PnL:             in.PnL,
		RiskRewardRatio: in.RiskRewardRatio,
		OpenDate:        *in.OpenDate,
		CloseDate:       in.CloseDate,
		SetupType:       in.SetupType,
		MarketCondition: in.MarketCondition,
		TradingSession:  in.TradingSession,
		Outcome:         in.Outcome,
		Notes:           in.Notes,
		Tags:            jsonList(in.Tags),
		Mistakes:        jsonList(in.Mistakes),
		Lessons:         jsonList(in.Lessons),
		NewsEvents:      jsonList(in.NewsEvents),
		BrokenRuleIDs:   jsonList(in.BrokenRuleIDs),
		Images:          jsonList(in.Images),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if base.PnL == nil {
		if pnl, ok := stats.TradePnL(base); ok {
			base.PnL = &pnl
		}
	}
	if key != "" {
		base.IdempotencyKey = &key
	}
	rows := make([]models.Trade, 0, len(accounts))
	for _, accountID := range accounts {
		row := base
		row.TradeID = s.newID()
		row.AccountID = accountID
		rows = append(rows, row)
	}
	return rows, nil
}

func validateTrade(userID string, in TradeInput) error {
	var errs fieldErrors
	if strings.TrimSpace(userID) == "" {
		errs.add("userId", "required")
	}
	if strings.TrimSpace(in.Symbol) == "" {
		errs.add("symbol", "required")
	}
	switch strings.ToUpper(strings.TrimSpace(in.Side)) {
	case models.SideBuy, models.SideSell:
	case "":
		errs.add("side", "required")
	default:
		errs.add("side", "must be BUY or SELL")
	}
	if in.Quantity == nil {
		errs.add("quantity", "required")
	} else if !in.Quantity.IsPositive() {
		errs.add("quantity", "must be positive")
	}
	if in.OpenDate == nil || in.OpenDate.IsZero() {
		errs.add("openDate", "required")
	}
	if in.OpenDate != nil && in.CloseDate != nil && in.CloseDate.Before(*in.OpenDate) {
		errs.add("closeDate", "before openDate")
	}
	return errs.err("Invalid request body")
}

func mergeTrade(t *models.Trade, in TradeInput) error {
	var errs fieldErrors
	if v := strings.TrimSpace(in.Symbol); v != "" {
		t.Symbol = v
	}
	if v := strings.ToUpper(strings.TrimSpace(in.Side)); v != "" {
		if v != models.SideBuy && v != models.SideSell {
			errs.add("side", "must be BUY or SELL")
		}
		t.Side = v
	}
	if in.Quantity != nil {
		if !in.Quantity.IsPositive() {
			errs.add("quantity", "must be positive")
		}
		t.Quantity = *in.Quantity
	}
	if in.OpenDate != nil {
		t.OpenDate = *in.OpenDate
	}
	if in.CloseDate != nil {
		t.CloseDate = in.CloseDate
	}
	if t.CloseDate != nil && t.CloseDate.Before(t.OpenDate) {
		errs.add("closeDate", "before openDate")
	}
	setDecimal(&t.EntryPrice, in.EntryPrice)
	setDecimal(&t.ExitPrice, in.ExitPrice)
	if in.ClearExitPrice {
		if in.ExitPrice != nil {
			errs.add("exitPrice", "cannot be set together with clearExitPrice")
		}
		t.ExitPrice = nil
		t.CloseDate = nil
	}
	setDecimal(&t.StopLoss, in.StopLoss)
	setDecimal(&t.TakeProfit, in.TakeProfit)
	setDecimal(&t.PnL, in.PnL)
	setDecimal(&t.RiskRewardRatio, in.RiskRewardRatio)
	setString(&t.SetupType, in.SetupType)
	setString(&t.MarketCondition, in.MarketCondition)
	setString(&t.TradingSession, in.TradingSession)
	setString(&t.Outcome, in.Outcome)
	setString(&t.Notes, in.Notes)
	if in.Tags != nil {
		t.Tags = jsonList(in.Tags)
	}
	if in.Mistakes != nil {
		t.Mistakes = jsonList(in.Mistakes)
	}
	if in.Lessons != nil {
		t.Lessons = jsonList(in.Lessons)
	}
	if in.NewsEvents != nil {
		t.NewsEvents = jsonList(in.NewsEvents)
	}
	if in.BrokenRuleIDs != nil {
		t.BrokenRuleIDs = jsonList(in.BrokenRuleIDs)
	}
	if in.Images != nil {
		t.Images = jsonList(in.Images)
	}
	return errs.err("Invalid request body")
}

func checkImages(userID string, images []models.Attachment) error {
	var errs fieldErrors
	for i := range images {
		if !storage.UserOwnsKey(userID, images[i].Key) {
			errs.add("images", "key outside the user's image prefix")
			continue
		}
		if images[i].ID == "" {
			images[i].ID = uuid.NewString()
		}
	}
	return errs.err("Invalid request body")
}

func setDecimal(dst **decimal.Decimal, v *decimal.Decimal) {
	if v != nil {
		*dst = v
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func jsonList[T any](items []T) datatypes.JSON {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

func (s *TradeService) maxBulk() int {
	if s.MaxBulk > 0 {
		return s.MaxBulk
	}
	return defaultMaxBulk
}

func (s *TradeService) maxBulkDelete() int {
	if s.MaxBulkDelete > 0 {
		return s.MaxBulkDelete
	}
	return defaultMaxBulkDelete
}

func (s *TradeService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *TradeService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *TradeService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
