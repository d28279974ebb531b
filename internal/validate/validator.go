package validate

import (
	"fmt"

	"capital_ledger/internal/domain"
)

type IssueKind string

const (
	DuplicateIdentity   IssueKind = "duplicate_identity"
	DanglingReference   IssueKind = "dangling_reference"
	TemporalViolation   IssueKind = "temporal_violation"
	UnrecognizedAccount IssueKind = "unrecognized_account"
	MalformedDate       IssueKind = "malformed_date"
	NegativeAmount      IssueKind = "negative_amount"
	InvalidRatio        IssueKind = "invalid_ratio"
)

type Issue struct {
	Kind   IssueKind `json:"kind"`
	Entity string    `json:"entity"`
	Detail string    `json:"detail"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Kind, i.Entity, i.Detail)
}

// Report is the validation outcome for a whole batch. Any error blocks the
// replay; warnings do not.
type Report struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

func (r *Report) addError(kind IssueKind, entity, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{Kind: kind, Entity: entity, Detail: fmt.Sprintf(format, args...)})
}

func (r *Report) addWarning(kind IssueKind, entity, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{Kind: kind, Entity: entity, Detail: fmt.Sprintf(format, args...)})
}

// BatchValidator checks referential integrity, uniqueness and temporal
// constraints over a loaded batch before any replay. It reads the batch only;
// issues come out in batch order so repeated runs report identically.
type BatchValidator struct{}

func NewBatchValidator() *BatchValidator {
	return &BatchValidator{}
}

func (v *BatchValidator) Validate(batch *domain.Batch) *Report {
	report := &Report{}

	v.checkDates(batch, report)
	playerNames, playerAccounts := v.checkPlayers(batch, report)
	plotNames, plotAccounts := v.checkPlots(batch, report)
	v.checkMoves(batch, playerNames, plotNames, report)
	v.checkSettlements(batch, playerAccounts, plotAccounts, report)

	return report
}

func (v *BatchValidator) checkDates(batch *domain.Batch, report *Report) {
	for _, p := range batch.Players {
		if p.JoinedAt.IsZero() {
			report.addError(MalformedDate, "player "+p.Name, "join date is missing or unparseable")
		}
	}
	for _, p := range batch.Plots {
		if p.StartedAt.IsZero() {
			report.addError(MalformedDate, "plot "+p.ProductName, "start date is missing or unparseable")
		}
	}
	for _, m := range batch.Moves {
		if m.Date.IsZero() {
			report.addError(MalformedDate, "move "+m.PlayerName+"/"+m.PlotName, "date is missing or unparseable")
		}
	}
	for _, t := range batch.Settlements {
		if t.Date.IsZero() {
			report.addError(MalformedDate, "settlement "+t.Account, "date is missing or unparseable")
		}
	}
}

func (v *BatchValidator) checkPlayers(batch *domain.Batch, report *Report) (map[string]*domain.Player, map[string]struct{}) {
	players := make(map[string]*domain.Player, len(batch.Players))
	accounts := make(map[string]struct{})

	for _, p := range batch.Players {
		if _, seen := players[p.Name]; seen {
			report.addError(DuplicateIdentity, "player "+p.Name, "player name is not unique")
			continue
		}
		players[p.Name] = p

		if p.Account == "" {
			continue
		}
		if _, seen := accounts[p.Account]; seen {
			report.addError(DuplicateIdentity, "player "+p.Name, "account %q is shared by another player", p.Account)
			continue
		}
		accounts[p.Account] = struct{}{}
	}

	return players, accounts
}

func (v *BatchValidator) checkPlots(batch *domain.Batch, report *Report) (map[string]*domain.Plot, map[string]struct{}) {
	plots := make(map[string]*domain.Plot, len(batch.Plots))
	accounts := make(map[string]struct{})

	for _, p := range batch.Plots {
		if p.ProductName == "" {
			report.addError(DanglingReference, "plot", "plot is missing a product name")
			continue
		}
		if _, seen := plots[p.ProductName]; seen {
			report.addError(DuplicateIdentity, "plot "+p.ProductName, "product name is not unique")
			continue
		}
		plots[p.ProductName] = p

		if p.ConversionRatio <= 0 {
			report.addError(InvalidRatio, "plot "+p.ProductName,
				"conversion ratio must be positive, got %d", p.ConversionRatio)
		}

		if p.Account == "" {
			continue
		}
		if _, seen := accounts[p.Account]; seen {
			report.addError(DuplicateIdentity, "plot "+p.ProductName, "account %q is shared by another plot", p.Account)
			continue
		}
		accounts[p.Account] = struct{}{}
	}

	return plots, accounts
}

func (v *BatchValidator) checkMoves(batch *domain.Batch, players map[string]*domain.Player, plots map[string]*domain.Plot, report *Report) {
	for _, m := range batch.Moves {
		player, playerKnown := players[m.PlayerName]
		if !playerKnown {
			report.addError(DanglingReference, "move "+m.Ref(), "player %q does not exist", m.PlayerName)
		}
		plot, plotKnown := plots[m.PlotName]
		if !plotKnown {
			report.addError(DanglingReference, "move "+m.Ref(), "plot %q does not exist", m.PlotName)
		}

		if m.Push < 0 || m.Pull < 0 || m.BuyIn < 0 || m.CashOut < 0 {
			report.addWarning(NegativeAmount, "move "+m.Ref(), "move has negative magnitudes")
		}

		if m.Date.IsZero() {
			continue
		}
		if playerKnown && !player.JoinedAt.IsZero() && m.Date.Before(player.JoinedAt) {
			report.addError(TemporalViolation, "move "+m.Ref(),
				"move predates player %q joining on %s", m.PlayerName, player.JoinedAt.Format("2006-01-02"))
		}
		if plotKnown && !plot.StartedAt.IsZero() && m.Date.Before(plot.StartedAt) {
			report.addError(TemporalViolation, "move "+m.Ref(),
				"move predates plot %q starting on %s", m.PlotName, plot.StartedAt.Format("2006-01-02"))
		}
	}
}

func (v *BatchValidator) checkSettlements(batch *domain.Batch, playerAccounts, plotAccounts map[string]struct{}, report *Report) {
	for _, t := range batch.Settlements {
		entity := fmt.Sprintf("settlement %s/%s", t.Date.Format("2006-01-02"), t.Account)

		if t.Account != "" {
			_, isPlayer := playerAccounts[t.Account]
			_, isPlot := plotAccounts[t.Account]
			if !isPlayer && !isPlot {
				report.addWarning(UnrecognizedAccount, entity, "account %q belongs to no player or plot", t.Account)
			}
		}

		if t.CostUSD < 0 || t.RevenueUSD < 0 {
			report.addWarning(NegativeAmount, entity, "settlement has negative USD amounts")
		}
	}
}
