package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

const exportPageSize = 100

type exportRow struct {
	Symbol          string `csv:"Symbol"`
	Side            string `csv:"Direction"`
	Quantity        string `csv:"Quantity"`
	EntryPrice      string `csv:"Entry Price"`
	ExitPrice       string `csv:"Exit Price"`
	StopLoss        string `csv:"Stop Loss"`
	TakeProfit      string `csv:"Take Profit"`
	OpenDate        string `csv:"Open Date"`
	CloseDate       string `csv:"Close Date"`
	Outcome         string `csv:"Outcome"`
	PnL             string `csv:"PnL"`
	Account         string `csv:"Account"`
	Strategy        string `csv:"Strategy"`
	Session         string `csv:"Session"`
	MarketCondition string `csv:"Market Condition"`
	Tags            string `csv:"Tags"`
	Notes           string `csv:"Notes"`
}

// Export is a rendered download.
type Export struct {
	Body        []byte
	ContentType string
	Filename    string
	Count       int
}

// Export renders every trade of the user, newest first, as CSV or JSON.
func (s *TradeService) Export(ctx context.Context, userID, accountID, format string) (Export, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "json" {
		return Export{}, invalid("format must be csv or json")
	}
	var trades []models.Trade
	cursor := ""
	for {
		page, err := s.Repo.ListTrades(ctx, repository.ListTradesParams{
			UserID:    userID,
			AccountID: accountID,
			Limit:     exportPageSize,
			Cursor:    cursor,
		})
		if err != nil {
			return Export{}, err
		}
		trades = append(trades, page.Items...)
		if page.NextCursor == "" || page.NextCursor == cursor {
			break
		}
		cursor = page.NextCursor
	}

	day := s.now().Format("2006-01-02")
	if format == "json" {
		if trades == nil {
			trades = []models.Trade{}
		}
		body, err := json.MarshalIndent(trades, "", "  ")
		if err != nil {
			return Export{}, err
		}
		return Export{Body: body, ContentType: "application/json", Filename: "trades-" + day + ".json", Count: len(trades)}, nil
	}

	rows := make([]*exportRow, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, toExportRow(t))
	}
	body, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return Export{}, err
	}
	return Export{Body: body, ContentType: "text/csv", Filename: "trades-" + day + ".csv", Count: len(trades)}, nil
}

func toExportRow(t models.Trade) *exportRow {
	row := &exportRow{
		Symbol:          t.Symbol,
		Side:            t.Side,
		Quantity:        t.Quantity.String(),
		EntryPrice:      decString(t.EntryPrice),
		ExitPrice:       decString(t.ExitPrice),
		StopLoss:        decString(t.StopLoss),
		TakeProfit:      decString(t.TakeProfit),
		OpenDate:        t.OpenDate.UTC().Format(time.RFC3339),
		Outcome:         t.Outcome,
		PnL:             decString(t.PnL),
		Account:         t.AccountID,
		Strategy:        t.SetupType,
		Session:         t.TradingSession,
		MarketCondition: t.MarketCondition,
		Notes:           t.Notes,
	}
	if t.CloseDate != nil {
		row.CloseDate = t.CloseDate.UTC().Format(time.RFC3339)
	}
	var tags []string
	if len(t.Tags) > 0 && json.Unmarshal(t.Tags, &tags) == nil {
		row.Tags = strings.Join(tags, ";")
	}
	return row
}

func decString(v *decimal.Decimal) string {
	if v == nil {
		return ""
	}
	return v.String()
}
