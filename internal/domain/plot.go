package domain

import (
	"time"
)

type SolvencyState string

const (
	// Underwater means the ledger balance does not cover the hurdle.
	Underwater SolvencyState = "underwater"
	// PayingInvestors means the balance covers the hurdle but no profit
	// distribution condition has been met.
	PayingInvestors SolvencyState = "paying_investors"
	// PayingProfit means an injected profit policy has fired for the ledger.
	PayingProfit SolvencyState = "paying_profit"
)

type Plot struct {
	ProductName     string    `json:"product_name"`
	Story           string    `json:"story,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	Account         string    `json:"account,omitempty"`
	Cost            int64     `json:"cost"`
	ConversionRatio int64     `json:"conversion_ratio"`
	HurdleRate      float64   `json:"hurdle_rate"`

	Ledger *Ledger `json:"ledger"`
}

func NewPlot(productName string, startedAt time.Time, cost, conversionRatio int64, hurdleRate float64) *Plot {
	return &Plot{
		ProductName:     productName,
		StartedAt:       startedAt,
		Cost:            cost,
		ConversionRatio: conversionRatio,
		HurdleRate:      hurdleRate,
		Ledger:          NewLedger(),
	}
}

func (p *Plot) WithAccount(account string) *Plot {
	p.Account = account
	return p
}

func (p *Plot) WithStory(story string) *Plot {
	p.Story = story
	return p
}

// Push moves carry points from the player's hand pool onto the plot's ledger.
func (p *Plot) Push(player *Player, points int64) error {
	if player.CarryInHand(p.ProductName) < points {
		return ErrInsufficientCarryPoints
	}
	player.CarryPointsInHand[p.ProductName] -= points
	p.Ledger.addCarryPoints(player.Name, points)
	return nil
}

// Pull is the inverse of Push: carry points move from the plot's ledger back
// into the player's hand pool.
func (p *Plot) Pull(player *Player, points int64) error {
	if p.Ledger.CarryPoints[player.Name] < points {
		return ErrInsufficientCommittedCarryPoints
	}
	p.Ledger.addCarryPoints(player.Name, -points)
	player.GrantCarry(p.ProductName, points)
	return nil
}

// BuyIn converts player credits into investor points on the plot's ledger at
// the plot's conversion ratio. The amount must be an exact multiple of the
// ratio; partial points are rejected rather than truncated. The converted
// points are also spent from the player's hand pool, clamped at zero.
func (p *Plot) BuyIn(player *Player, credits int64) error {
	if p.ConversionRatio <= 0 {
		return ErrInvalidConversionRatio
	}
	if credits%p.ConversionRatio != 0 {
		return ErrFractionalConversion
	}
	if player.Credits < credits {
		return ErrInsufficientCredits
	}
	points := credits / p.ConversionRatio
	player.Credits -= credits
	player.SpendInvestorPoints(p.ProductName, points)
	p.Ledger.Balance += credits
	p.Ledger.addInvestorPoints(player.Name, points, p.ConversionRatio)
	return nil
}

// CashOut removes credits from the player permanently. The credits leave the
// game; the ledger balance is unaffected. Callers record the pending
// settlement separately.
func (p *Plot) CashOut(player *Player, credits int64) error {
	if player.Credits < credits {
		return ErrInsufficientCredits
	}
	player.Credits -= credits
	return nil
}
