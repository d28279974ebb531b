package domain

import (
	"fmt"
	"time"
)

// Move is a single dated player action against a plot. The four magnitudes
// are independent; a record may carry more than one non-zero magnitude and
// each is applied on its own, in the fixed order Pull, Push, BuyIn, CashOut.
type Move struct {
	Date       time.Time `json:"date"`
	PlayerName string    `json:"player"`
	PlotName   string    `json:"plot"`
	Push       int64     `json:"push"`
	Pull       int64     `json:"pull"`
	BuyIn      int64     `json:"buy_in"`
	CashOut    int64     `json:"cash_out"`
}

// Ref identifies the move in reports and failure records.
func (m *Move) Ref() string {
	return fmt.Sprintf("%s/%s/%s", m.Date.Format("2006-01-02"), m.PlayerName, m.PlotName)
}
