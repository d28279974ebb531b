package domain

import (
	"errors"
)

var (
	ErrInsufficientCarryPoints          = errors.New("insufficient carry points in hand")
	ErrInsufficientCommittedCarryPoints = errors.New("insufficient carry points on plot")
	ErrInsufficientCredits              = errors.New("insufficient credits")
	ErrFractionalConversion             = errors.New("buy-in is not an exact multiple of the conversion ratio")
	ErrInvalidConversionRatio           = errors.New("conversion ratio must be positive")
	ErrMalformedDate                    = errors.New("malformed date")
)

// ProfitPolicy reports whether a ledger that can pay its investors should
// start paying out profit. The exact trigger is not part of the game rules
// yet, so it is injected by the caller; a nil policy never fires.
type ProfitPolicy func(l *Ledger) bool

// Ledger tracks the financial state of a single plot: the credits committed
// via buy-ins, the per-player point maps and the hurdle owed to investors.
type Ledger struct {
	Balance            int64            `json:"balance"`
	InvestorPoints     map[string]int64 `json:"investor_points"`
	CarryPoints        map[string]int64 `json:"carry_points"`
	Hurdle             int64            `json:"hurdle"`
	PaidOutProfitTotal int64            `json:"paid_out_profit_total"`
	Solvency           SolvencyState    `json:"solvency_state"`
}

func NewLedger() *Ledger {
	return &Ledger{
		InvestorPoints: make(map[string]int64),
		CarryPoints:    make(map[string]int64),
		Solvency:       Underwater,
	}
}

func (l *Ledger) addInvestorPoints(playerName string, points, conversionRatio int64) {
	l.InvestorPoints[playerName] += points
	l.Hurdle = l.TotalInvestorPoints() * conversionRatio
}

func (l *Ledger) addCarryPoints(playerName string, points int64) {
	l.CarryPoints[playerName] += points
}

func (l *Ledger) TotalInvestorPoints() int64 {
	var total int64
	for _, points := range l.InvestorPoints {
		total += points
	}
	return total
}

func (l *Ledger) TotalCarryPoints() int64 {
	var total int64
	for _, points := range l.CarryPoints {
		total += points
	}
	return total
}

// RecomputeSolvency derives the solvency state from the current balance and
// hurdle. It is pure; callers assign the result after any balance-affecting
// operation.
func (l *Ledger) RecomputeSolvency(policy ProfitPolicy) SolvencyState {
	switch {
	case l.Balance < l.Hurdle:
		return Underwater
	case policy != nil && policy(l):
		return PayingProfit
	default:
		return PayingInvestors
	}
}
