package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"capital_ledger/internal/domain"
	"capital_ledger/internal/reconcile"
	"capital_ledger/internal/replay"
	"capital_ledger/internal/validate"
)

const rule = "--------------------------------------------------------------------------------"

// Writer renders run results as plain text for the console.
type Writer struct {
	w io.Writer
}

func New(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (r *Writer) WriteValidation(rep *validate.Report) {
	if len(rep.Errors) > 0 {
		fmt.Fprintln(r.w, "VALIDATION ERRORS")
		fmt.Fprintln(r.w, rule)
		for _, issue := range rep.Errors {
			fmt.Fprintf(r.w, "  ERROR: %s\n", issue)
		}
	}
	if len(rep.Warnings) > 0 {
		fmt.Fprintln(r.w, "VALIDATION WARNINGS")
		fmt.Fprintln(r.w, rule)
		for _, issue := range rep.Warnings {
			fmt.Fprintf(r.w, "  WARNING: %s\n", issue)
		}
	}
	if rep.OK() && len(rep.Warnings) == 0 {
		fmt.Fprintln(r.w, "All validation checks passed.")
	}
}

func (r *Writer) WriteFinalState(players []*domain.Player, plots []*domain.Plot) {
	fmt.Fprintln(r.w, "FINAL STATE")
	fmt.Fprintln(r.w, rule)

	sorted := make([]*domain.Player, len(players))
	copy(sorted, players)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].DisplayName < sorted[j].DisplayName })

	fmt.Fprintln(r.w, "Players:")
	for _, p := range sorted {
		fmt.Fprintf(r.w, "  %s (%s): %d credits\n", p.DisplayName, p.Name, p.Credits)
		writePointMap(r.w, "carry in hand", p.CarryPointsInHand)
		writePointMap(r.w, "investor in hand", p.InvestorPointsInHand)
	}

	sortedPlots := make([]*domain.Plot, len(plots))
	copy(sortedPlots, plots)
	sort.Slice(sortedPlots, func(i, j int) bool { return sortedPlots[i].ProductName < sortedPlots[j].ProductName })

	fmt.Fprintln(r.w, "Plots:")
	for _, p := range sortedPlots {
		l := p.Ledger
		fmt.Fprintf(r.w, "  %s (started %s)\n", p.ProductName, p.StartedAt.Format("2006-01-02"))
		fmt.Fprintf(r.w, "    cost=%d ratio=%d hurdle_rate=%.1f%%\n", p.Cost, p.ConversionRatio, p.HurdleRate*100)
		fmt.Fprintf(r.w, "    balance=%d hurdle=%d solvency=%s\n", l.Balance, l.Hurdle, l.Solvency)
		fmt.Fprintf(r.w, "    investor_points=%d carry_points=%d paid_out_profit=%d\n",
			l.TotalInvestorPoints(), l.TotalCarryPoints(), l.PaidOutProfitTotal)
		writePointMap(r.w, "investor points", l.InvestorPoints)
		writePointMap(r.w, "carry points", l.CarryPoints)
	}
}

func (r *Writer) WriteFailures(failures []replay.MoveFailure) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintln(r.w, "REJECTED MOVES")
	fmt.Fprintln(r.w, rule)
	for _, f := range failures {
		fmt.Fprintf(r.w, "  %s\n", f)
	}
}

func (r *Writer) WriteReconciliation(rep *reconcile.Report) {
	fmt.Fprintln(r.w, "RECONCILIATION")
	fmt.Fprintln(r.w, rule)
	fmt.Fprintf(r.w, "  matched=%d owed=%d unexplained=%d\n",
		len(rep.Matched), len(rep.Owed), len(rep.Unexplained))

	for _, m := range rep.Matched {
		fmt.Fprintf(r.w, "  MATCHED: %s cashed out %d on %s; settled %s on %s\n",
			m.Record.PlayerName, m.Record.Amount, m.Record.Date.Format("2006-01-02"),
			m.Transaction.Account, m.Transaction.Date.Format("2006-01-02"))
	}
	for _, rec := range rep.Owed {
		fmt.Fprintf(r.w, "  OWED: %s is owed %d USD for the cash-out on %s (%s)\n",
			rec.PlayerName, rec.Amount, rec.Date.Format("2006-01-02"), rec.PlotName)
	}
	for _, t := range rep.Unexplained {
		fmt.Fprintf(r.w, "  UNEXPLAINED: %s on %s (cost=%d revenue=%d)\n",
			t.Account, t.Date.Format("2006-01-02"), t.CostUSD, t.RevenueUSD)
	}
}

func (r *Writer) WriteAccountBalances(pool domain.SettlementPool) {
	if len(pool) == 0 {
		return
	}
	fmt.Fprintln(r.w, "ACCOUNT BALANCES")
	fmt.Fprintln(r.w, rule)

	seen := make(map[string]struct{})
	var accounts []string
	for _, t := range pool {
		if _, ok := seen[t.Account]; !ok {
			seen[t.Account] = struct{}{}
			accounts = append(accounts, t.Account)
		}
	}
	sort.Strings(accounts)

	for _, account := range accounts {
		fmt.Fprintf(r.w, "  %s: net %d USD over %d transaction(s)\n",
			account, pool.AccountBalance(account), len(pool.ByAccount(account)))
	}
}

func writePointMap(w io.Writer, label string, points map[string]int64) {
	if len(points) == 0 {
		return
	}
	keys := make([]string, 0, len(points))
	for k, v := range points {
		if v != 0 {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, points[k]))
	}
	fmt.Fprintf(w, "    %s: %s\n", label, strings.Join(parts, " "))
}
