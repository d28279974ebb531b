package repository

import (
	"context"
	"errors"

	"capital_ledger/internal/domain"
)

type PlayerRepository interface {
	Save(ctx context.Context, player *domain.Player) error
	GetByName(ctx context.Context, name string) (*domain.Player, error)
	GetByAccount(ctx context.Context, account string) (*domain.Player, error)
	GetAll(ctx context.Context) ([]*domain.Player, error)
}

type PlotRepository interface {
	Save(ctx context.Context, plot *domain.Plot) error
	GetByName(ctx context.Context, name string) (*domain.Plot, error)
	GetByAccount(ctx context.Context, account string) (*domain.Plot, error)
	GetAll(ctx context.Context) ([]*domain.Plot, error)
}

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
)
