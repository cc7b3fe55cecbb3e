package gormrepository

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

func (s *Store) GetTrade(ctx context.Context, userID, tradeID string) (*models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, repository.ErrNotFound
	}
	var item models.Trade
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND trade_id = ?", userID, tradeID).
		First(&item).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *Store) QueryTradesByUser(ctx context.Context, userID, cursor string, limit int) (repository.TradePage, error) {
	if s == nil || s.db == nil {
		return repository.TradePage{}, nil
	}
	after, err := repository.DecodeCursor(cursor)
	if err != nil {
		return repository.TradePage{}, err
	}
	limit = normalizeLimit(limit, 200)
	query := s.db.WithContext(ctx).Model(&models.Trade{}).Where("user_id = ?", userID)
	if after.TradeID != "" {
		query = query.Where("trade_id > ?", after.TradeID)
	}
	var items []models.Trade
	if err := query.Order("trade_id asc").Limit(limit + 1).Find(&items).Error; err != nil {
		return repository.TradePage{}, err
	}
	return pageOf(items, limit, func(last models.Trade) repository.Cursor {
		return repository.Cursor{TradeID: last.TradeID}
	}), nil
}

func (s *Store) ScanTrades(ctx context.Context, params repository.ScanParams) (repository.TradePage, error) {
	if s == nil || s.db == nil {
		return repository.TradePage{}, nil
	}
	after, err := repository.DecodeCursor(params.Cursor)
	if err != nil {
		return repository.TradePage{}, err
	}
	limit := normalizeLimit(params.Limit, 1000)
	query := s.db.WithContext(ctx).Model(&models.Trade{})
	if fields := cleanStrings(params.Fields); len(fields) > 0 {
		query = query.Select(fields)
	}
	if after.UserID != "" {
		query = query.Where("user_id > ? OR (user_id = ? AND trade_id > ?)", after.UserID, after.UserID, after.TradeID)
	}
	var items []models.Trade
	if err := query.Order("user_id asc").Order("trade_id asc").Limit(limit + 1).Find(&items).Error; err != nil {
		return repository.TradePage{}, err
	}
	return pageOf(items, limit, func(last models.Trade) repository.Cursor {
		return repository.Cursor{UserID: last.UserID, TradeID: last.TradeID}
	}), nil
}

func (s *Store) ListTrades(ctx context.Context, params repository.ListTradesParams) (repository.TradePage, error) {
	if s == nil || s.db == nil {
		return repository.TradePage{}, nil
	}
	after, err := repository.DecodeCursor(params.Cursor)
	if err != nil {
		return repository.TradePage{}, err
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	query := s.db.WithContext(ctx).Model(&models.Trade{}).Where("user_id = ?", params.UserID)
	accountID := strings.TrimSpace(params.AccountID)
	if accountID != "" && !strings.EqualFold(accountID, "ALL") {
		query = query.Where("account_id IN ?", []string{accountID, models.AllAccounts})
	}
	if params.StartDate != nil {
		query = query.Where("open_date >= ?", params.StartDate.UTC())
	}
	if params.EndDate != nil {
		query = query.Where("open_date <= ?", params.EndDate.UTC())
	}
	if after.OpenDate != nil {
		at := after.OpenDate.UTC()
		query = query.Where("open_date < ? OR (open_date = ? AND trade_id < ?)", at, at, after.TradeID)
	}
	var items []models.Trade
	if err := query.Order("open_date desc").Order("trade_id desc").Limit(limit + 1).Find(&items).Error; err != nil {
		return repository.TradePage{}, err
	}
	return pageOf(items, limit, func(last models.Trade) repository.Cursor {
		at := last.OpenDate
		return repository.Cursor{TradeID: last.TradeID, OpenDate: &at}
	}), nil
}

func (s *Store) FindTradesByIdempotencyKey(ctx context.Context, userID, key string) ([]models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	var items []models.Trade
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		Order("trade_id asc").
		Find(&items).Error
	return items, err
}

func (s *Store) InsertTrades(ctx context.Context, items []models.Trade) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return translate(s.InTx(ctx, func(tx *gorm.DB) error {
		changes := make([]models.TradeChange, 0, len(items))
		for i := range items {
			items[i].OpenDate = items[i].OpenDate.UTC()
			change, err := s.changeRow(models.ChangeInsert, nil, models.ImageOf(items[i]))
			if err != nil {
				return err
			}
			changes = append(changes, change)
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		return tx.Create(&changes).Error
	}))
}

func (s *Store) UpdateTrade(ctx context.Context, item *models.Trade) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return translate(s.InTx(ctx, func(tx *gorm.DB) error {
		var existing models.Trade
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND trade_id = ?", item.UserID, item.TradeID).
			First(&existing).Error; err != nil {
			return err
		}
		item.CreatedAt = existing.CreatedAt
		item.IdempotencyKey = existing.IdempotencyKey
		item.OpenDate = item.OpenDate.UTC()
		if err := tx.Model(&models.Trade{}).
			Where("user_id = ? AND trade_id = ?", item.UserID, item.TradeID).
			Select("*").
			Omit("user_id", "trade_id", "created_at", "idempotency_key").
			Updates(item).Error; err != nil {
			return err
		}
		change, err := s.changeRow(models.ChangeModify, models.ImageOf(existing), models.ImageOf(*item))
		if err != nil {
			return err
		}
		return tx.Create(&change).Error
	}))
}

func (s *Store) DeleteTrade(ctx context.Context, userID, tradeID string) error {
	if s == nil || s.db == nil {
		return nil
	}
	deleted, err := s.DeleteTrades(ctx, userID, []string{tradeID})
	if err != nil {
		return err
	}
	if len(deleted) == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteTrades removes the listed trades and returns the ids that existed.
func (s *Store) DeleteTrades(ctx context.Context, userID string, tradeIDs []string) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	ids := cleanStrings(tradeIDs)
	if len(ids) == 0 {
		return nil, nil
	}
	var deleted []string
	err := s.InTx(ctx, func(tx *gorm.DB) error {
		var existing []models.Trade
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND trade_id IN ?", userID, ids).
			Find(&existing).Error; err != nil {
			return err
		}
		if len(existing) == 0 {
			return nil
		}
		changes := make([]models.TradeChange, 0, len(existing))
		deleted = make([]string, 0, len(existing))
		for _, item := range existing {
			change, err := s.changeRow(models.ChangeRemove, models.ImageOf(item), nil)
			if err != nil {
				return err
			}
			changes = append(changes, change)
			deleted = append(deleted, item.TradeID)
		}
		if err := tx.Where("user_id = ? AND trade_id IN ?", userID, deleted).Delete(&models.Trade{}).Error; err != nil {
			return err
		}
		return tx.Create(&changes).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return deleted, nil
}

func (s *Store) changeRow(event models.ChangeEvent, oldImage, newImage *models.TradeImage) (models.TradeChange, error) {
	change := models.TradeChange{
		EventID:   s.newEventID(),
		EventName: event,
		CreatedAt: time.Now().UTC(),
	}
	for _, img := range []*models.TradeImage{newImage, oldImage} {
		if img != nil {
			change.UserID = img.UserID
			change.TradeID = img.TradeID
			break
		}
	}
	var err error
	if change.OldImage, err = imageJSON(oldImage); err != nil {
		return change, err
	}
	if change.NewImage, err = imageJSON(newImage); err != nil {
		return change, err
	}
	return change, nil
}

func imageJSON(img *models.TradeImage) (datatypes.JSON, error) {
	if img == nil {
		return nil, nil
	}
	raw, err := json.Marshal(img)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func pageOf(items []models.Trade, limit int, cursorOf func(models.Trade) repository.Cursor) repository.TradePage {
	if len(items) <= limit {
		return repository.TradePage{Items: items}
	}
	items = items[:limit]
	return repository.TradePage{
		Items:      items,
		NextCursor: repository.EncodeCursor(cursorOf(items[len(items)-1])),
	}
}
