package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"capital_ledger/internal/domain"
	"capital_ledger/internal/repository"
)

func TestPlayerRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewPlayerRepository()

	player := domain.NewPlayer("SeanReardon", "Sean Reardon", time.Now()).WithAccount("ACC-001")
	if err := repo.Save(ctx, player); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetByName(ctx, "SeanReardon")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != player {
		t.Errorf("expected same player instance back")
	}

	byAccount, err := repo.GetByAccount(ctx, "ACC-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byAccount != player {
		t.Errorf("expected account lookup to find the player")
	}
}

func TestPlayerRepository_DuplicateName(t *testing.T) {
	ctx := context.Background()
	repo := NewPlayerRepository()

	_ = repo.Save(ctx, domain.NewPlayer("SeanReardon", "", time.Now()))
	err := repo.Save(ctx, domain.NewPlayer("SeanReardon", "", time.Now()))

	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestPlayerRepository_GetAllKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewPlayerRepository()

	names := []string{"Charlie", "Alice", "Bob"}
	for _, name := range names {
		_ = repo.Save(ctx, domain.NewPlayer(name, "", time.Now()))
	}

	all, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 players, got %d", len(all))
	}
	for i, name := range names {
		if all[i].Name != name {
			t.Errorf("expected %s at position %d, got %s", name, i, all[i].Name)
		}
	}
}

func TestPlotRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewPlotRepository()

	plot := domain.NewPlot("Mamani", time.Now(), 10000, 1000, 0.05).WithAccount("ACC-100")
	if err := repo.Save(ctx, plot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetByName(ctx, "Mamani")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != plot {
		t.Errorf("expected same plot instance back")
	}

	if _, err := repo.GetByName(ctx, "Unknown"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPlotRepository_GetByAccount_EmptyAccountNeverMatches(t *testing.T) {
	ctx := context.Background()
	repo := NewPlotRepository()

	_ = repo.Save(ctx, domain.NewPlot("Mamani", time.Now(), 10000, 1000, 0))

	if _, err := repo.GetByAccount(ctx, ""); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty account, got %v", err)
	}
}
