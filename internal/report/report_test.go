package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"capital_ledger/internal/domain"
	"capital_ledger/internal/reconcile"
	"capital_ledger/internal/validate"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWriteValidation_AllClear(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).WriteValidation(&validate.Report{})

	if !strings.Contains(buf.String(), "All validation checks passed.") {
		t.Errorf("expected all-clear line, got:\n%s", buf.String())
	}
}

func TestWriteValidation_ErrorsAndWarnings(t *testing.T) {
	batch := &domain.Batch{
		Players: []*domain.Player{
			domain.NewPlayer("dup", "Dup", date("2024-01-01")),
			domain.NewPlayer("dup", "Dup Again", date("2024-01-02")),
		},
	}
	rep := validate.NewBatchValidator().Validate(batch)

	var buf bytes.Buffer
	New(&buf).WriteValidation(rep)

	out := buf.String()
	if !strings.Contains(out, "VALIDATION ERRORS") {
		t.Errorf("expected errors section, got:\n%s", out)
	}
	if !strings.Contains(out, "dup") {
		t.Errorf("expected the entity named, got:\n%s", out)
	}
}

func TestWriteFinalState_SortsAndFormats(t *testing.T) {
	zed := domain.NewPlayer("zed", "Zed", date("2024-01-01"))
	zed.Credits = 250
	amy := domain.NewPlayer("amy", "Amy", date("2024-01-01"))
	amy.GrantCarry("delta", 2)

	plot := domain.NewPlot("delta", date("2024-01-05"), 10000, 1000, 0.2)
	plot.Ledger.Balance = 3000

	var buf bytes.Buffer
	New(&buf).WriteFinalState([]*domain.Player{zed, amy}, []*domain.Plot{plot})

	out := buf.String()
	amyAt := strings.Index(out, "Amy")
	zedAt := strings.Index(out, "Zed")
	if amyAt < 0 || zedAt < 0 || amyAt > zedAt {
		t.Errorf("expected players sorted by display name, got:\n%s", out)
	}
	if !strings.Contains(out, "Zed (zed): 250 credits") {
		t.Errorf("expected credit line, got:\n%s", out)
	}
	if !strings.Contains(out, "carry in hand: delta=2") {
		t.Errorf("expected carry pool line, got:\n%s", out)
	}
	if !strings.Contains(out, "balance=3000") {
		t.Errorf("expected ledger balance, got:\n%s", out)
	}
}

func TestWriteReconciliation_Counts(t *testing.T) {
	rep := &reconcile.Report{
		Owed: []domain.CashOutRecord{{
			PlayerName: "zed",
			PlotName:   "delta",
			Date:       date("2024-02-01"),
			Amount:     1000,
		}},
		Unexplained: []*domain.SettlementTransaction{{
			Account: "ACC-X",
			Date:    date("2024-03-01"),
			CostUSD: 500,
		}},
	}

	var buf bytes.Buffer
	New(&buf).WriteReconciliation(rep)

	out := buf.String()
	if !strings.Contains(out, "matched=0 owed=1 unexplained=1") {
		t.Errorf("expected counts line, got:\n%s", out)
	}
	if !strings.Contains(out, "OWED: zed is owed 1000 USD") {
		t.Errorf("expected owed line, got:\n%s", out)
	}
	if !strings.Contains(out, "UNEXPLAINED: ACC-X") {
		t.Errorf("expected unexplained line, got:\n%s", out)
	}
}

func TestWriteAccountBalances(t *testing.T) {
	pool := domain.SettlementPool{
		{Account: "ACC-B", Date: date("2024-01-01"), RevenueUSD: 900},
		{Account: "ACC-A", Date: date("2024-01-02"), CostUSD: 400},
		{Account: "ACC-A", Date: date("2024-01-03"), RevenueUSD: 100},
	}

	var buf bytes.Buffer
	New(&buf).WriteAccountBalances(pool)

	out := buf.String()
	aAt := strings.Index(out, "ACC-A")
	bAt := strings.Index(out, "ACC-B")
	if aAt < 0 || bAt < 0 || aAt > bAt {
		t.Errorf("expected accounts sorted, got:\n%s", out)
	}
	if !strings.Contains(out, "ACC-A: net -300 USD over 2 transaction(s)") {
		t.Errorf("expected net balance line, got:\n%s", out)
	}
}
