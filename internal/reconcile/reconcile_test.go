package reconcile

import (
	"context"
	"testing"
	"time"

	"capital_ledger/internal/domain"
	"capital_ledger/internal/repository/memory"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func matcherWithPlayer(t *testing.T) *Matcher {
	t.Helper()
	players := memory.NewPlayerRepository()
	player := domain.NewPlayer("SeanReardon", "Sean Reardon", date(2024, 1, 1)).WithAccount("ACC-001")
	if err := players.Save(context.Background(), player); err != nil {
		t.Fatalf("save player: %v", err)
	}
	return NewMatcher(players, nil)
}

func record(amount int64, d time.Time) domain.CashOutRecord {
	return domain.CashOutRecord{
		ID:         "rec-1",
		PlayerName: "SeanReardon",
		PlotName:   "Mamani",
		Date:       d,
		Amount:     amount,
	}
}

func TestMatcher_MatchesWithinWindow(t *testing.T) {
	m := matcherWithPlayer(t)
	txn := &domain.SettlementTransaction{Account: "ACC-001", Date: date(2024, 2, 20), CostUSD: 1000}

	report := m.Match(context.Background(),
		[]domain.CashOutRecord{record(1000, date(2024, 2, 1))},
		domain.SettlementPool{txn})

	if len(report.Matched) != 1 {
		t.Fatalf("expected 1 match, got %d (owed=%v)", len(report.Matched), report.Owed)
	}
	if report.Matched[0].Transaction != txn {
		t.Errorf("expected the 2024-02-20 transaction matched")
	}
	if len(report.Owed) != 0 || len(report.Unexplained) != 0 {
		t.Errorf("expected clean reconciliation, got owed=%v unexplained=%v", report.Owed, report.Unexplained)
	}
}

func TestMatcher_OutsideWindowIsUnexplained(t *testing.T) {
	m := matcherWithPlayer(t)
	txn := &domain.SettlementTransaction{Account: "ACC-001", Date: date(2024, 4, 1), CostUSD: 1000}

	report := m.Match(context.Background(),
		[]domain.CashOutRecord{record(1000, date(2024, 2, 1))},
		domain.SettlementPool{txn})

	if len(report.Matched) != 0 {
		t.Fatalf("expected no match outside the 30-day window, got %v", report.Matched)
	}
	if len(report.Owed) != 1 {
		t.Errorf("expected the cash-out reported as owed, got %v", report.Owed)
	}
	if len(report.Unexplained) != 1 || report.Unexplained[0] != txn {
		t.Errorf("expected the transaction reported as unexplained, got %v", report.Unexplained)
	}
}

func TestMatcher_AmountMustMatchExactly(t *testing.T) {
	m := matcherWithPlayer(t)
	txn := &domain.SettlementTransaction{Account: "ACC-001", Date: date(2024, 2, 5), CostUSD: 999}

	report := m.Match(context.Background(),
		[]domain.CashOutRecord{record(1000, date(2024, 2, 1))},
		domain.SettlementPool{txn})

	if len(report.Matched) != 0 {
		t.Errorf("expected no match for mismatched amount, got %v", report.Matched)
	}
}

func TestMatcher_OneToOne(t *testing.T) {
	m := matcherWithPlayer(t)
	txn := &domain.SettlementTransaction{Account: "ACC-001", Date: date(2024, 2, 5), CostUSD: 1000}
	records := []domain.CashOutRecord{
		record(1000, date(2024, 2, 1)),
		record(1000, date(2024, 2, 2)),
	}

	report := m.Match(context.Background(), records, domain.SettlementPool{txn})

	if len(report.Matched) != 1 {
		t.Fatalf("expected exactly 1 match, got %d", len(report.Matched))
	}
	if len(report.Owed) != 1 {
		t.Errorf("expected the second cash-out owed, got %v", report.Owed)
	}
}

func TestMatcher_ClosestDateWins(t *testing.T) {
	m := matcherWithPlayer(t)
	far := &domain.SettlementTransaction{Account: "ACC-001", Date: date(2024, 2, 25), CostUSD: 1000}
	near := &domain.SettlementTransaction{Account: "ACC-001", Date: date(2024, 2, 3), CostUSD: 1000}

	report := m.Match(context.Background(),
		[]domain.CashOutRecord{record(1000, date(2024, 2, 1))},
		domain.SettlementPool{far, near})

	if len(report.Matched) != 1 || report.Matched[0].Transaction != near {
		t.Fatalf("expected the closer transaction matched, got %+v", report.Matched)
	}
}

func TestMatcher_EqualGapTakesFirstEncountered(t *testing.T) {
	m := matcherWithPlayer(t)
	before := &domain.SettlementTransaction{Account: "ACC-001", Date: date(2024, 1, 30), CostUSD: 1000}
	after := &domain.SettlementTransaction{Account: "ACC-001", Date: date(2024, 2, 3), CostUSD: 1000}

	report := m.Match(context.Background(),
		[]domain.CashOutRecord{record(1000, date(2024, 2, 1))},
		domain.SettlementPool{before, after})

	if len(report.Matched) != 1 || report.Matched[0].Transaction != before {
		t.Fatalf("expected the first-encountered transaction on a tie, got %+v", report.Matched)
	}
}

func TestMatcher_PlayerWithoutAccountIsOwed(t *testing.T) {
	players := memory.NewPlayerRepository()
	_ = players.Save(context.Background(), domain.NewPlayer("NoAccount", "", date(2024, 1, 1)))
	m := NewMatcher(players, nil)

	rec := domain.CashOutRecord{ID: "r", PlayerName: "NoAccount", Date: date(2024, 2, 1), Amount: 100}
	report := m.Match(context.Background(), []domain.CashOutRecord{rec}, nil)

	if len(report.Owed) != 1 {
		t.Fatalf("expected the record owed, got %+v", report)
	}
}
