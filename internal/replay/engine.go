package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"capital_ledger/internal/domain"
	"capital_ledger/internal/repository"
	"capital_ledger/internal/timeline"
	"capital_ledger/pkg/metrics"
)

var ErrNoMoreEvents = errors.New("no more events")

// Banker resolves revenue for the plots on the table as the replay clock
// advances to a new calendar day. The revenue policy itself is not part of
// the replay rules; implementations may mutate plot ledgers and the engine
// recomputes solvency afterwards.
type Banker interface {
	ResolveRevenue(ctx context.Context, day time.Time, plots []*domain.Plot)
}

// MoveFailure records a rejected move sub-operation. The move's remaining
// sub-operations were skipped; the replay itself continued.
type MoveFailure struct {
	Move *domain.Move `json:"move"`
	Op   string       `json:"op"`
	Err  error        `json:"-"`
}

func (f MoveFailure) String() string {
	return fmt.Sprintf("move %s: %s: %v", f.Move.Ref(), f.Op, f.Err)
}

// EventDescriptor identifies the event a stepping driver is about to replay.
type EventDescriptor struct {
	Index int              `json:"index"`
	Total int              `json:"total"`
	Kind  domain.EventKind `json:"kind"`
	Date  time.Time        `json:"date"`
	Ref   string           `json:"ref"`
}

// EffectSummary describes what a single Advance did.
type EffectSummary struct {
	Index   int              `json:"index"`
	Kind    domain.EventKind `json:"kind"`
	Date    time.Time        `json:"date"`
	Detail  string           `json:"detail"`
	Failure *MoveFailure     `json:"failure,omitempty"`
}

// Engine drives the built timeline through the ledgers and player balances,
// one event at a time. It is the sole mutator of both; everything else reads.
// A single mutex serializes stepping, so concurrent drivers (the HTTP step
// endpoint) still replay events in timeline order.
type Engine struct {
	mu       sync.Mutex
	players  repository.PlayerRepository
	plots    repository.PlotRepository
	timeline *timeline.Timeline

	profit  domain.ProfitPolicy
	banker  Banker
	logger  *slog.Logger
	metrics *metrics.Collector

	idx         int
	setupDone   bool
	lastDay     time.Time
	cashOuts    []domain.CashOutRecord
	settlements domain.SettlementPool
	failures    []MoveFailure
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithProfitPolicy(policy domain.ProfitPolicy) Option {
	return func(e *Engine) {
		e.profit = policy
	}
}

func WithBanker(banker Banker) Option {
	return func(e *Engine) {
		e.banker = banker
	}
}

func WithMetrics(collector *metrics.Collector) Option {
	return func(e *Engine) {
		e.metrics = collector
	}
}

func NewEngine(
	players repository.PlayerRepository,
	plots repository.PlotRepository,
	tl *timeline.Timeline,
	opts ...Option,
) *Engine {
	e := &Engine{
		players:  players,
		plots:    plots,
		timeline: tl,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) HasNext() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasNext()
}

func (e *Engine) hasNext() bool {
	return e.idx < e.timeline.Len()
}

// Current describes the next event without replaying it.
func (e *Engine) Current() (EventDescriptor, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hasNext() {
		return EventDescriptor{}, false
	}
	ev := e.timeline.At(e.idx)
	return EventDescriptor{
		Index: e.idx,
		Total: e.timeline.Len(),
		Kind:  ev.Kind,
		Date:  ev.Date,
		Ref:   eventRef(ev),
	}, true
}

// Advance replays exactly one event. A returned error means the run contract
// was broken (an unvalidated batch slipped through); per-move failures are
// recorded on the summary instead and the replay stays usable.
func (e *Engine) Advance(ctx context.Context) (*EffectSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hasNext() {
		return nil, ErrNoMoreEvents
	}

	ev := e.timeline.At(e.idx)
	summary := &EffectSummary{Index: e.idx, Kind: ev.Kind, Date: ev.Date}

	if err := e.resolveDay(ctx, ev.Date); err != nil {
		return nil, err
	}

	switch ev.Kind {
	case domain.KindPlayerJoined:
		if err := e.players.Save(ctx, ev.Player); err != nil {
			return nil, fmt.Errorf("register player %s: %w", ev.Player.Name, err)
		}
		summary.Detail = fmt.Sprintf("player %s joined", ev.Player.Name)

	case domain.KindPlotOpened:
		if err := e.plots.Save(ctx, ev.Plot); err != nil {
			return nil, fmt.Errorf("register plot %s: %w", ev.Plot.ProductName, err)
		}
		summary.Detail = fmt.Sprintf("plot %s opened", ev.Plot.ProductName)

	case domain.KindMoveApplied:
		if !e.setupDone {
			e.grantInitialHands()
			e.setupDone = true
		}
		if err := e.applyMove(ctx, ev.Move, summary); err != nil {
			return nil, err
		}

	case domain.KindSettlementRecorded:
		e.settlements = append(e.settlements, ev.Settlement)
		summary.Detail = fmt.Sprintf("settlement %s recorded", ev.Settlement.Account)

	default:
		return nil, fmt.Errorf("unknown event kind: %s", ev.Kind)
	}

	e.metrics.RecordEvent(string(ev.Kind))
	e.idx++

	return summary, nil
}

// Run replays the remaining timeline to completion.
func (e *Engine) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := e.Advance(ctx); err != nil {
			if errors.Is(err, ErrNoMoreEvents) {
				return nil
			}
			return err
		}
	}
}

func (e *Engine) CashOuts() []domain.CashOutRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cashOuts
}

func (e *Engine) Settlements() domain.SettlementPool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settlements
}

func (e *Engine) Failures() []MoveFailure {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failures
}

// initialInvestorPoints is the investor-point hand a player starts with per
// plot; buy-ins spend it down.
const initialInvestorPoints = 10

// grantInitialHands runs the one-time setup once every player and plot of the
// run is known: each plot grants each player a single carry point and the
// starting investor-point hand.
func (e *Engine) grantInitialHands() {
	var players []*domain.Player
	var plots []*domain.Plot
	for _, ev := range e.timeline.Events() {
		switch ev.Kind {
		case domain.KindPlayerJoined:
			players = append(players, ev.Player)
		case domain.KindPlotOpened:
			plots = append(plots, ev.Plot)
		}
	}

	for _, player := range players {
		for _, plot := range plots {
			player.GrantCarry(plot.ProductName, 1)
			player.GrantInvestorPoints(plot.ProductName, initialInvestorPoints)
		}
	}

	e.logger.Info("Initial point hands granted",
		slog.Int("players", len(players)),
		slog.Int("plots", len(plots)))
}

// resolveDay gives the banker hook a chance to resolve revenue whenever the
// replay clock reaches a new calendar day, before that day's events apply.
func (e *Engine) resolveDay(ctx context.Context, eventDate time.Time) error {
	day := time.Date(eventDate.Year(), eventDate.Month(), eventDate.Day(), 0, 0, 0, 0, eventDate.Location())
	if day.Equal(e.lastDay) {
		return nil
	}
	e.lastDay = day

	if e.banker == nil {
		return nil
	}

	plots, err := e.plots.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("resolve day %s: %w", day.Format("2006-01-02"), err)
	}
	e.banker.ResolveRevenue(ctx, day, plots)
	for _, plot := range plots {
		plot.Ledger.Solvency = plot.Ledger.RecomputeSolvency(e.profit)
		e.metrics.SetLedgerBalance(plot.ProductName, plot.Ledger.Balance)
	}
	return nil
}

func (e *Engine) applyMove(ctx context.Context, m *domain.Move, summary *EffectSummary) error {
	player, err := e.players.GetByName(ctx, m.PlayerName)
	if err != nil {
		return fmt.Errorf("replay move %s: %w", m.Ref(), err)
	}
	plot, err := e.plots.GetByName(ctx, m.PlotName)
	if err != nil {
		return fmt.Errorf("replay move %s: %w", m.Ref(), err)
	}

	// Fixed sub-operation order.
	subOps := []struct {
		name   string
		amount int64
		apply  func(*domain.Player, int64) error
	}{
		{"pull", m.Pull, plot.Pull},
		{"push", m.Push, plot.Push},
		{"buy_in", m.BuyIn, plot.BuyIn},
		{"cash_out", m.CashOut, plot.CashOut},
	}

	var applied []string
	for _, op := range subOps {
		if op.amount <= 0 {
			continue
		}

		if err := op.apply(player, op.amount); err != nil {
			failure := MoveFailure{Move: m, Op: op.name, Err: err}
			e.failures = append(e.failures, failure)
			summary.Failure = &failure
			e.metrics.RecordMoveFailure(failureReason(err))
			e.logger.Warn("Move sub-operation rejected",
				slog.String("move", m.Ref()),
				slog.String("op", op.name),
				slog.String("error", err.Error()))
			break
		}
		applied = append(applied, fmt.Sprintf("%s=%d", op.name, op.amount))

		switch op.name {
		case "buy_in":
			plot.Ledger.Solvency = plot.Ledger.RecomputeSolvency(e.profit)
			e.metrics.SetLedgerBalance(plot.ProductName, plot.Ledger.Balance)
		case "cash_out":
			e.cashOuts = append(e.cashOuts, domain.CashOutRecord{
				ID:         uuid.NewString(),
				PlayerName: m.PlayerName,
				PlotName:   m.PlotName,
				Date:       m.Date,
				Amount:     op.amount,
			})
		}
		e.metrics.SetPlayerCredits(player.Name, player.Credits)
	}

	if len(applied) == 0 && summary.Failure == nil {
		summary.Detail = fmt.Sprintf("move %s: nothing to apply", m.Ref())
		return nil
	}
	summary.Detail = fmt.Sprintf("move %s: %v", m.Ref(), applied)
	return nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientCarryPoints):
		return "insufficient_carry_points"
	case errors.Is(err, domain.ErrInsufficientCommittedCarryPoints):
		return "insufficient_committed_carry_points"
	case errors.Is(err, domain.ErrInsufficientCredits):
		return "insufficient_credits"
	case errors.Is(err, domain.ErrFractionalConversion):
		return "fractional_conversion_rejected"
	case errors.Is(err, domain.ErrInvalidConversionRatio):
		return "invalid_conversion_ratio"
	default:
		return "unknown"
	}
}

func eventRef(ev domain.TimelineEvent) string {
	switch ev.Kind {
	case domain.KindPlayerJoined:
		return ev.Player.Name
	case domain.KindPlotOpened:
		return ev.Plot.ProductName
	case domain.KindMoveApplied:
		return ev.Move.Ref()
	case domain.KindSettlementRecorded:
		return ev.Settlement.Account
	default:
		return ""
	}
}
