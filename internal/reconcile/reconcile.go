package reconcile

import (
	"context"
	"log/slog"
	"time"

	"capital_ledger/internal/domain"
	"capital_ledger/internal/repository"
)

// matchWindow is how far apart a cash-out and its bank settlement may be.
const matchWindow = 30 * 24 * time.Hour

type Match struct {
	Record      domain.CashOutRecord          `json:"record"`
	Transaction *domain.SettlementTransaction `json:"transaction"`
}

// Report is the reconciliation outcome. Owed records are cash-outs the game
// still expects to see settled; unexplained transactions have no cash-out
// behind them.
type Report struct {
	Matched     []Match                         `json:"matched"`
	Owed        []domain.CashOutRecord          `json:"owed"`
	Unexplained []*domain.SettlementTransaction `json:"unexplained"`
}

// Matcher pairs cash-out records with settlement transactions one-to-one.
type Matcher struct {
	players repository.PlayerRepository
	logger  *slog.Logger
}

func NewMatcher(players repository.PlayerRepository, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{players: players, logger: logger}
}

// Match walks the cash-out records in replay order. A candidate transaction
// must sit on the acting player's account, within the 30-day window, and
// settle exactly the cashed-out amount (one credit is one USD unit). Ties go
// to the closest date, then the first-encountered transaction. A matched
// transaction leaves the candidate pool.
func (m *Matcher) Match(ctx context.Context, records []domain.CashOutRecord, pool domain.SettlementPool) *Report {
	report := &Report{}
	taken := make(map[*domain.SettlementTransaction]struct{})

	for _, record := range records {
		player, err := m.players.GetByName(ctx, record.PlayerName)
		if err != nil || player.Account == "" {
			m.logger.Warn("Cash-out has no settleable account",
				slog.String("player", record.PlayerName),
				slog.String("record", record.ID))
			report.Owed = append(report.Owed, record)
			continue
		}

		best := m.findCandidate(record, player.Account, pool, taken)
		if best == nil {
			report.Owed = append(report.Owed, record)
			continue
		}

		taken[best] = struct{}{}
		report.Matched = append(report.Matched, Match{Record: record, Transaction: best})
	}

	for _, t := range pool {
		if _, ok := taken[t]; !ok {
			report.Unexplained = append(report.Unexplained, t)
		}
	}

	return report
}

func (m *Matcher) findCandidate(
	record domain.CashOutRecord,
	account string,
	pool domain.SettlementPool,
	taken map[*domain.SettlementTransaction]struct{},
) *domain.SettlementTransaction {
	var best *domain.SettlementTransaction
	var bestGap time.Duration

	for _, t := range pool {
		if _, ok := taken[t]; ok {
			continue
		}
		if t.Account != account || t.CostUSD != record.Amount {
			continue
		}
		gap := record.Date.Sub(t.Date)
		if gap < 0 {
			gap = -gap
		}
		if gap > matchWindow {
			continue
		}
		if best == nil || gap < bestGap {
			best = t
			bestGap = gap
		}
	}

	return best
}
