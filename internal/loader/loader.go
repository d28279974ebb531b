package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"capital_ledger/internal/domain"
)

const (
	playersDir     = "Players"
	plotsDir       = "Plots"
	movesDir       = "Moves"
	settlementsDir = "BankTransactions"
)

// dateLayouts are the accepted record date formats; a date-only value lands
// on midnight so sub-day timestamps order ahead of or behind it naturally.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
}

// Loader reads the record directories under a root and produces a typed
// batch. It normalizes dates; everything downstream compares time.Time only.
// Records that fail to decode are skipped with a warning, since the validator
// judges the batch that actually loaded. An unparseable date is an error: a
// record with a broken date cannot be placed on a timeline at all.
type Loader struct {
	root   string
	logger *slog.Logger
}

func New(root string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{root: root, logger: logger}
}

type playerRecord struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	DateJoined  string `json:"date_joined"`
	Account     string `json:"account"`
	Email       string `json:"email"`
}

type plotRecord struct {
	ProductName     string  `json:"product_name"`
	Story           string  `json:"story"`
	Cost            int64   `json:"cost"`
	ConversionRatio int64   `json:"conversion_ratio"`
	HurdleRate      float64 `json:"hurdle_rate"`
	DateStarted     string  `json:"date_started"`
	Account         string  `json:"account"`
}

type moveRecord struct {
	Date    string `json:"date"`
	Player  string `json:"player"`
	Plot    string `json:"plot"`
	Push    int64  `json:"push"`
	Pull    int64  `json:"pull"`
	BuyIn   int64  `json:"buy_in"`
	CashOut int64  `json:"cash_out"`
}

type settlementRecord struct {
	Account string `json:"account"`
	Date    string `json:"date"`
	Cost    int64  `json:"cost"`
	Revenue int64  `json:"revenue"`
}

// Load reads all four record directories. Players and Moves directories may
// be missing entirely; an empty batch is the caller's problem to judge.
func (l *Loader) Load() (*domain.Batch, error) {
	batch := &domain.Batch{}

	err := l.loadDir(playersDir, func(path string, data []byte) error {
		var rec playerRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		joined, err := parseDate(rec.DateJoined)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		player := domain.NewPlayer(rec.Name, rec.DisplayName, joined).
			WithAccount(rec.Account).
			WithEmail(rec.Email)
		batch.Players = append(batch.Players, player)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = l.loadDir(plotsDir, func(path string, data []byte) error {
		var rec plotRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		started, err := parseDate(rec.DateStarted)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		plot := domain.NewPlot(rec.ProductName, started, rec.Cost, rec.ConversionRatio, rec.HurdleRate).
			WithAccount(rec.Account).
			WithStory(rec.Story)
		batch.Plots = append(batch.Plots, plot)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = l.loadDir(movesDir, func(path string, data []byte) error {
		var rec moveRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		moveDate, err := parseDate(rec.Date)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		batch.Moves = append(batch.Moves, &domain.Move{
			Date:       moveDate,
			PlayerName: rec.Player,
			PlotName:   rec.Plot,
			Push:       rec.Push,
			Pull:       rec.Pull,
			BuyIn:      rec.BuyIn,
			CashOut:    rec.CashOut,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = l.loadDir(settlementsDir, func(path string, data []byte) error {
		var rec settlementRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		txnDate, err := parseDate(rec.Date)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		batch.Settlements = append(batch.Settlements, &domain.SettlementTransaction{
			Account:    rec.Account,
			Date:       txnDate,
			CostUSD:    rec.Cost,
			RevenueUSD: rec.Revenue,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortBatch(batch)
	return batch, nil
}

// loadDir feeds every *.json file under dir to decode, in filename order. A
// missing directory is fine; a decode error is a skipped file; a date error
// from decode aborts the load.
func (l *Loader) loadDir(dir string, decode func(path string, data []byte) error) error {
	paths, err := filepath.Glob(filepath.Join(l.root, dir, "*.json"))
	if err != nil {
		return fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(paths)

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			l.logger.Warn("Skipping unreadable record",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		if err := decode(path, data); err != nil {
			if errors.Is(err, domain.ErrMalformedDate) {
				return err
			}
			l.logger.Warn("Skipping malformed record",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", domain.ErrMalformedDate)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", domain.ErrMalformedDate, s)
}

// sortBatch puts each record group in its canonical load order: players by
// join date, plots by start date, moves and settlements by date. This order
// is the timeline's same-category tie-break.
func sortBatch(batch *domain.Batch) {
	sort.SliceStable(batch.Players, func(i, j int) bool {
		return batch.Players[i].JoinedAt.Before(batch.Players[j].JoinedAt)
	})
	sort.SliceStable(batch.Plots, func(i, j int) bool {
		return batch.Plots[i].StartedAt.Before(batch.Plots[j].StartedAt)
	})
	sort.SliceStable(batch.Moves, func(i, j int) bool {
		return batch.Moves[i].Date.Before(batch.Moves[j].Date)
	})
	sort.SliceStable(batch.Settlements, func(i, j int) bool {
		return batch.Settlements[i].Date.Before(batch.Settlements[j].Date)
	})
}
