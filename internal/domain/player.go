package domain

import (
	"time"
)

type Player struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
	Account     string    `json:"account,omitempty"`
	Email       string    `json:"email,omitempty"`

	Credits              int64            `json:"credits"`
	CarryPointsInHand    map[string]int64 `json:"carry_points_in_hand"`
	InvestorPointsInHand map[string]int64 `json:"investor_points_in_hand"`
}

func NewPlayer(name, displayName string, joinedAt time.Time) *Player {
	if displayName == "" {
		displayName = name
	}
	return &Player{
		Name:                 name,
		DisplayName:          displayName,
		JoinedAt:             joinedAt,
		CarryPointsInHand:    make(map[string]int64),
		InvestorPointsInHand: make(map[string]int64),
	}
}

func (p *Player) WithAccount(account string) *Player {
	p.Account = account
	return p
}

func (p *Player) WithEmail(email string) *Player {
	p.Email = email
	return p
}

// CarryInHand returns the carry points the player holds for the given plot.
func (p *Player) CarryInHand(plotName string) int64 {
	if p.CarryPointsInHand == nil {
		return 0
	}
	return p.CarryPointsInHand[plotName]
}

// GrantCarry adds carry points to the player's hand pool for the given plot.
func (p *Player) GrantCarry(plotName string, points int64) {
	if p.CarryPointsInHand == nil {
		p.CarryPointsInHand = make(map[string]int64)
	}
	p.CarryPointsInHand[plotName] += points
}

// InvestorInHand returns the investor points the player holds for the given
// plot.
func (p *Player) InvestorInHand(plotName string) int64 {
	if p.InvestorPointsInHand == nil {
		return 0
	}
	return p.InvestorPointsInHand[plotName]
}

// GrantInvestorPoints adds investor points to the player's hand pool for the
// given plot.
func (p *Player) GrantInvestorPoints(plotName string, points int64) {
	if p.InvestorPointsInHand == nil {
		p.InvestorPointsInHand = make(map[string]int64)
	}
	p.InvestorPointsInHand[plotName] += points
}

// SpendInvestorPoints deducts investor points from the hand pool, clamping at
// zero. A buy-in converting more points than the hand holds spends the whole
// pool rather than failing.
func (p *Player) SpendInvestorPoints(plotName string, points int64) {
	held := p.InvestorInHand(plotName)
	if points > held {
		points = held
	}
	if points > 0 {
		p.InvestorPointsInHand[plotName] -= points
	}
}
