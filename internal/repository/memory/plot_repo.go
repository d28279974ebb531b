package memory

import (
	"context"
	"fmt"
	"sync"

	"capital_ledger/internal/domain"
	"capital_ledger/internal/repository"
)

type PlotRepository struct {
	mu    sync.RWMutex
	plots map[string]*domain.Plot
	order []string
}

func NewPlotRepository() *PlotRepository {
	return &PlotRepository{
		plots: make(map[string]*domain.Plot),
	}
}

func (r *PlotRepository) Save(ctx context.Context, plot *domain.Plot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plots[plot.ProductName]; exists {
		return fmt.Errorf("%w: plot %s", repository.ErrDuplicate, plot.ProductName)
	}

	r.plots[plot.ProductName] = plot
	r.order = append(r.order, plot.ProductName)

	return nil
}

func (r *PlotRepository) GetByName(ctx context.Context, name string) (*domain.Plot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plot, exists := r.plots[name]
	if !exists {
		return nil, fmt.Errorf("%w: plot %s", repository.ErrNotFound, name)
	}
	return plot, nil
}

func (r *PlotRepository) GetByAccount(ctx context.Context, account string) (*domain.Plot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if account != "" {
		for _, name := range r.order {
			if r.plots[name].Account == account {
				return r.plots[name], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: plot account %s", repository.ErrNotFound, account)
}

func (r *PlotRepository) GetAll(ctx context.Context) ([]*domain.Plot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Plot, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.plots[name])
	}
	return result, nil
}
