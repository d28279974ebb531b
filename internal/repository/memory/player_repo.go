package memory

import (
	"context"
	"fmt"
	"sync"

	"capital_ledger/internal/domain"
	"capital_ledger/internal/repository"
)

type PlayerRepository struct {
	mu      sync.RWMutex
	players map[string]*domain.Player
	order   []string
}

func NewPlayerRepository() *PlayerRepository {
	return &PlayerRepository{
		players: make(map[string]*domain.Player),
	}
}

func (r *PlayerRepository) Save(ctx context.Context, player *domain.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.players[player.Name]; exists {
		return fmt.Errorf("%w: player %s", repository.ErrDuplicate, player.Name)
	}

	r.players[player.Name] = player
	r.order = append(r.order, player.Name)

	return nil
}

func (r *PlayerRepository) GetByName(ctx context.Context, name string) (*domain.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	player, exists := r.players[name]
	if !exists {
		return nil, fmt.Errorf("%w: player %s", repository.ErrNotFound, name)
	}
	return player, nil
}

func (r *PlayerRepository) GetByAccount(ctx context.Context, account string) (*domain.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if account != "" {
		for _, name := range r.order {
			if r.players[name].Account == account {
				return r.players[name], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: player account %s", repository.ErrNotFound, account)
}

func (r *PlayerRepository) GetAll(ctx context.Context) ([]*domain.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Player, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.players[name])
	}
	return result, nil
}
