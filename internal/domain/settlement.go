package domain

import (
	"time"
)

// SettlementTransaction is an external bank record tied to a player or plot
// account. Amounts are whole USD units; one credit settles as one USD unit.
type SettlementTransaction struct {
	Account    string    `json:"account"`
	Date       time.Time `json:"date"`
	CostUSD    int64     `json:"cost_usd"`
	RevenueUSD int64     `json:"revenue_usd"`
}

func (t *SettlementTransaction) NetUSD() int64 {
	return t.RevenueUSD - t.CostUSD
}

// SettlementPool is the set of settlement transactions accumulated during a
// replay run.
type SettlementPool []*SettlementTransaction

// AccountBalance returns the net USD total for the given account.
func (p SettlementPool) AccountBalance(account string) int64 {
	var balance int64
	for _, t := range p {
		if t.Account == account {
			balance += t.NetUSD()
		}
	}
	return balance
}

// ByAccount returns the pool's transactions for the given account, in pool
// order.
func (p SettlementPool) ByAccount(account string) []*SettlementTransaction {
	var result []*SettlementTransaction
	for _, t := range p {
		if t.Account == account {
			result = append(result, t)
		}
	}
	return result
}

// CashOutRecord is a pending settlement created when a cash-out replays. It
// waits in the reconciliation set until a matching bank transaction is found.
type CashOutRecord struct {
	ID         string    `json:"id"`
	PlayerName string    `json:"player"`
	PlotName   string    `json:"plot"`
	Date       time.Time `json:"date"`
	Amount     int64     `json:"amount"`
}
