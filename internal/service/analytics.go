package service

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

const (
	AnalyticsHourly               = "hourly"
	AnalyticsDailyWinRate         = "daily-win-rate"
	AnalyticsSymbolDistribution   = "symbol-distribution"
	AnalyticsStrategyDistribution = "strategy-distribution"

	unknownStrategy = "Unknown"
)

var hundred = decimal.NewFromInt(100)

// AnalyticsService computes breakdowns over every trade of a user. Only the
// stored P&L counts; trades without one are skipped by the time breakdowns.
type AnalyticsService struct {
	Trades   repository.TradeReader
	PageSize int
}

type HourBucket struct {
	Hour     int             `json:"hour"`
	Count    int             `json:"count"`
	WinRate  decimal.Decimal `json:"winRate"`
	TotalPnL decimal.Decimal `json:"totalPnl"`
	AvgPnL   decimal.Decimal `json:"avgPnl"`
}

type HourlyStats struct {
	HourlyStats []HourBucket `json:"hourlyStats"`
	BestHour    *HourBucket  `json:"bestHour"`
	WorstHour   *HourBucket  `json:"worstHour"`
}

type DayBucket struct {
	Date     string          `json:"date"`
	Count    int             `json:"count"`
	Wins     int             `json:"wins"`
	Losses   int             `json:"losses"`
	WinRate  decimal.Decimal `json:"winRate"`
	TotalPnL decimal.Decimal `json:"totalPnl"`
}

type DailyWinRate struct {
	DailyWinRate   []DayBucket     `json:"dailyWinRate"`
	TotalDays      int             `json:"totalDays"`
	OverallWinRate decimal.Decimal `json:"overallWinRate"`
}

type SymbolBucket struct {
	Symbol   string          `json:"symbol"`
	Count    int             `json:"count"`
	WinRate  decimal.Decimal `json:"winRate"`
	TotalPnL decimal.Decimal `json:"totalPnl"`
	AvgPnL   decimal.Decimal `json:"avgPnl"`
}

type SymbolDistribution struct {
	Symbols        []SymbolBucket `json:"symbols"`
	TotalSymbols   int            `json:"totalSymbols"`
	MostTraded     *SymbolBucket  `json:"mostTraded"`
	MostProfitable *SymbolBucket  `json:"mostProfitable"`
}

type StrategyBucket struct {
	Strategy string          `json:"strategy"`
	Count    int             `json:"count"`
	WinRate  decimal.Decimal `json:"winRate"`
	TotalPnL decimal.Decimal `json:"totalPnl"`
	AvgPnL   decimal.Decimal `json:"avgPnl"`
}

type StrategyDistribution struct {
	Strategies      []StrategyBucket `json:"strategies"`
	TotalStrategies int              `json:"totalStrategies"`
	MostUsed        *StrategyBucket  `json:"mostUsed"`
	MostProfitable  *StrategyBucket  `json:"mostProfitable"`
}

// Compute dispatches on the analytics type. An empty type means hourly.
func (s *AnalyticsService) Compute(ctx context.Context, userID, kind string) (any, error) {
	switch kind {
	case "", AnalyticsHourly:
		return s.Hourly(ctx, userID)
	case AnalyticsDailyWinRate:
		return s.DailyWinRate(ctx, userID)
	case AnalyticsSymbolDistribution:
		return s.SymbolDistribution(ctx, userID)
	case AnalyticsStrategyDistribution:
		return s.StrategyDistribution(ctx, userID)
	default:
		return nil, invalid("Invalid analytics type. Use: hourly, daily-win-rate, symbol-distribution, or strategy-distribution")
	}
}

type tally struct {
	count int
	wins  int
	total decimal.Decimal
}

func (t *tally) add(pnl *decimal.Decimal) {
	t.count++
	if pnl == nil {
		return
	}
	t.total = t.total.Add(*pnl)
	if pnl.IsPositive() {
		t.wins++
	}
}

func (t tally) winRate() decimal.Decimal {
	return rate(t.wins, t.count)
}

func (t tally) avg() decimal.Decimal {
	if t.count == 0 {
		return decimal.Zero
	}
	return t.total.DivRound(decimal.NewFromInt(int64(t.count)), 8)
}

func rate(wins, count int) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(wins)).Mul(hundred).DivRound(decimal.NewFromInt(int64(count)), 2)
}

func hasPnL(t models.Trade) bool {
	return t.PnL != nil && !t.PnL.IsZero()
}

func (s *AnalyticsService) Hourly(ctx context.Context, userID string) (HourlyStats, error) {
	byHour := map[int]*tally{}
	err := s.each(ctx, userID, func(t models.Trade) {
		if t.OpenDate.IsZero() || !hasPnL(t) {
			return
		}
		h := t.OpenDate.UTC().Hour()
		if byHour[h] == nil {
			byHour[h] = &tally{}
		}
		byHour[h].add(t.PnL)
	})
	if err != nil {
		return HourlyStats{}, err
	}
	out := HourlyStats{HourlyStats: make([]HourBucket, 0, len(byHour))}
	for h, t := range byHour {
		out.HourlyStats = append(out.HourlyStats, HourBucket{
			Hour: h, Count: t.count, WinRate: t.winRate(), TotalPnL: t.total, AvgPnL: t.avg(),
		})
	}
	sort.Slice(out.HourlyStats, func(i, j int) bool { return out.HourlyStats[i].Hour < out.HourlyStats[j].Hour })
	for i := range out.HourlyStats {
		b := &out.HourlyStats[i]
		if out.BestHour == nil || b.TotalPnL.GreaterThan(out.BestHour.TotalPnL) {
			out.BestHour = b
		}
		if out.WorstHour == nil || b.TotalPnL.LessThan(out.WorstHour.TotalPnL) {
			out.WorstHour = b
		}
	}
	return out, nil
}

func (s *AnalyticsService) DailyWinRate(ctx context.Context, userID string) (DailyWinRate, error) {
	byDay := map[string]*tally{}
	err := s.each(ctx, userID, func(t models.Trade) {
		if t.OpenDate.IsZero() || !hasPnL(t) {
			return
		}
		day := t.OpenDate.UTC().Format("2006-01-02")
		if byDay[day] == nil {
			byDay[day] = &tally{}
		}
		byDay[day].add(t.PnL)
	})
	if err != nil {
		return DailyWinRate{}, err
	}
	out := DailyWinRate{DailyWinRate: make([]DayBucket, 0, len(byDay))}
	wins, count := 0, 0
	for day, t := range byDay {
		out.DailyWinRate = append(out.DailyWinRate, DayBucket{
			Date: day, Count: t.count, Wins: t.wins, Losses: t.count - t.wins,
			WinRate: t.winRate(), TotalPnL: t.total,
		})
		wins += t.wins
		count += t.count
	}
	sort.Slice(out.DailyWinRate, func(i, j int) bool { return out.DailyWinRate[i].Date < out.DailyWinRate[j].Date })
	out.TotalDays = len(out.DailyWinRate)
	out.OverallWinRate = rate(wins, count)
	return out, nil
}

func (s *AnalyticsService) SymbolDistribution(ctx context.Context, userID string) (SymbolDistribution, error) {
	bySymbol := map[string]*tally{}
	err := s.each(ctx, userID, func(t models.Trade) {
		if t.Symbol == "" {
			return
		}
		if bySymbol[t.Symbol] == nil {
			bySymbol[t.Symbol] = &tally{}
		}
		bySymbol[t.Symbol].add(t.PnL)
	})
	if err != nil {
		return SymbolDistribution{}, err
	}
	out := SymbolDistribution{Symbols: make([]SymbolBucket, 0, len(bySymbol))}
	for sym, t := range bySymbol {
		out.Symbols = append(out.Symbols, SymbolBucket{
			Symbol: sym, Count: t.count, WinRate: t.winRate(), TotalPnL: t.total, AvgPnL: t.avg(),
		})
	}
	sort.Slice(out.Symbols, func(i, j int) bool {
		a, b := out.Symbols[i], out.Symbols[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Symbol < b.Symbol
	})
	out.TotalSymbols = len(out.Symbols)
	for i := range out.Symbols {
		b := &out.Symbols[i]
		if i == 0 {
			out.MostTraded = b
		}
		if out.MostProfitable == nil || b.TotalPnL.GreaterThan(out.MostProfitable.TotalPnL) {
			out.MostProfitable = b
		}
	}
	return out, nil
}

func (s *AnalyticsService) StrategyDistribution(ctx context.Context, userID string) (StrategyDistribution, error) {
	byStrategy := map[string]*tally{}
	err := s.each(ctx, userID, func(t models.Trade) {
		name := t.SetupType
		if name == "" {
			name = unknownStrategy
		}
		if byStrategy[name] == nil {
			byStrategy[name] = &tally{}
		}
		byStrategy[name].add(t.PnL)
	})
	if err != nil {
		return StrategyDistribution{}, err
	}
	out := StrategyDistribution{Strategies: make([]StrategyBucket, 0, len(byStrategy))}
	for name, t := range byStrategy {
		out.Strategies = append(out.Strategies, StrategyBucket{
			Strategy: name, Count: t.count, WinRate: t.winRate(), TotalPnL: t.total, AvgPnL: t.avg(),
		})
	}
	sort.Slice(out.Strategies, func(i, j int) bool {
		a, b := out.Strategies[i], out.Strategies[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Strategy < b.Strategy
	})
	out.TotalStrategies = len(out.Strategies)
	for i := range out.Strategies {
		b := &out.Strategies[i]
		if i == 0 {
			out.MostUsed = b
		}
		if out.MostProfitable == nil || b.TotalPnL.GreaterThan(out.MostProfitable.TotalPnL) {
			out.MostProfitable = b
		}
	}
	return out, nil
}

func (s *AnalyticsService) each(ctx context.Context, userID string, fn func(models.Trade)) error {
	limit := s.PageSize
	if limit <= 0 {
		limit = 500
	}
	cursor := ""
	for {
		page, err := s.Trades.QueryTradesByUser(ctx, userID, cursor, limit)
		if err != nil {
			return err
		}
		for _, t := range page.Items {
			fn(t)
		}
		if page.NextCursor == "" {
			return nil
		}
		cursor = page.NextCursor
	}
}
