package vision

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrNoArray = errors.New("model did not return a JSON array")

// ExtractedTrade is one row read from a broker screenshot.
type ExtractedTrade struct {
	Symbol     string           `json:"symbol"`
	Side       string           `json:"side"`
	Quantity   *decimal.Decimal `json:"quantity"`
	OpenDate   string           `json:"openDate"`
	CloseDate  string           `json:"closeDate"`
	EntryPrice *decimal.Decimal `json:"entryPrice"`
	ExitPrice  *decimal.Decimal `json:"exitPrice"`
	Fee        *decimal.Decimal `json:"fee"`
	Swap       *decimal.Decimal `json:"swap"`
	PnL        *decimal.Decimal `json:"pnl"`
}

var fence = regexp.MustCompile("(?is)```(?:json)?\\s*[\\r\\n]+(.*?)```")

// ExtractJSONArray pulls the first balanced JSON array out of model output,
// tolerating markdown fences and surrounding prose.
func ExtractJSONArray(raw string) (string, bool) {
	work := strings.TrimSpace(raw)
	if m := fence.FindStringSubmatch(work); m != nil {
		work = strings.TrimSpace(m[1])
	}
	if strings.HasPrefix(work, "[") && strings.HasSuffix(work, "]") {
		return work, true
	}
	open := strings.IndexByte(work, '[')
	if open < 0 {
		return "", false
	}
	depth := 0
	for i := open; i < len(work); i++ {
		switch work[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return work[open : i+1], true
			}
		}
	}
	return "", false
}

// ParseTrades decodes model output into rows. Rows without symbol, side or quantity are dropped.
func ParseTrades(raw string) ([]ExtractedTrade, error) {
	body, ok := ExtractJSONArray(raw)
	if !ok {
		return nil, ErrNoArray
	}
	var rows []ExtractedTrade
	if err := json.Unmarshal([]byte(body), &rows); err != nil {
		return nil, err
	}
	out := make([]ExtractedTrade, 0, len(rows))
	for _, row := range rows {
		row.Symbol = strings.TrimSpace(row.Symbol)
		row.Side = normalizeSide(row.Side)
		if row.Symbol == "" || row.Side == "" || row.Quantity == nil {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func normalizeSide(v string) string {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "BUY", "LONG":
		return "BUY"
	case "SELL", "SHORT":
		return "SELL"
	default:
		return ""
	}
}
