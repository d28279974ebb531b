package memory

import (
	"capital_ledger/internal/repository"
)

var (
	_ repository.PlayerRepository = (*PlayerRepository)(nil)
	_ repository.PlotRepository   = (*PlotRepository)(nil)
)
