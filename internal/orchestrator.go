package internal

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aureonlabs/rotor/config"
	"github.com/aureonlabs/rotor/internal/domain"
	"github.com/aureonlabs/rotor/internal/services/liquidity"
	"github.com/aureonlabs/rotor/internal/services/repatriation"
	"github.com/aureonlabs/rotor/internal/services/rotation"
	"github.com/aureonlabs/rotor/internal/services/scanner"
)

type rotatorService interface {
	Rotate(ctx context.Context, pair domain.Pair) (domain.RotationReport, error)
}

type repatriatorService interface {
	ConvertBack(ctx context.Context, retain bool) error
}

type scannerService interface {
	Scan(ctx context.Context, universe []domain.Pair, spend decimal.Decimal) ([]domain.Pair, error)
}

type eventSink interface {
	Append(event domain.RotationEvent) error
}

// Orchestrator walks the configured universe in order, rotating capital
// through one symbol at a time, and repatriates whatever quote is left when
// the run ends. A failure on one symbol never stops the run.
type Orchestrator struct {
	conf        config.Config
	rotator     rotatorService
	repatriator repatriatorService
	scanner     scannerService
	journal     eventSink
	l           *zap.Logger
}

// NewOrchestrator wires the full rotation engine for one agent against the
// platform client.
func NewOrchestrator(l *zap.Logger, conf config.Config, client any, journal eventSink) (*Orchestrator, error) {
	if l == nil {
		l = zap.NewNop()
	}

	boundary, err := newExchange(conf, client, l)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create execution boundary")
	}

	reservePair := domain.Pair{Base: conf.ReserveAsset, Quote: conf.QuoteAsset}
	guarantor := liquidity.NewGuarantor(l, boundary, reservePair, conf.DryRun)

	return &Orchestrator{
		conf: conf,
		rotator: rotation.NewRotator(l, boundary, guarantor,
			conf.SpendPerSymbol, conf.TakeProfit, conf.StopLoss,
			conf.MaxHold, conf.PollInterval, conf.WaitForFunds),
		repatriator: repatriation.NewRepatriator(l, boundary, reservePair),
		scanner:     scanner.NewScanner(l, boundary),
		journal:     journal,
		l:           l,
	}, nil
}

// Run executes rotations until the configured budget is spent or ctx is
// cancelled, then converts the remaining quote back into the reserve asset.
func (o *Orchestrator) Run(ctx context.Context) error {
	universe, err := o.scanner.Scan(ctx, o.conf.Universe, o.conf.SpendPerSymbol)
	if err != nil {
		return errors.Wrap(err, "universe scan failed")
	}
	o.l.Info("universe scanned",
		zap.Int("configured", len(o.conf.Universe)),
		zap.Int("viable", len(universe)),
		zap.Int("max_rotations", o.conf.MaxRotations))

	rotations := 0
loop:
	for rotations < o.conf.MaxRotations {
		for _, pair := range universe {
			if rotations >= o.conf.MaxRotations {
				break loop
			}
			if ctx.Err() != nil {
				break loop
			}
			rotations++

			o.record(domain.RotationEvent{
				Timestamp: time.Now().UTC(),
				Pair:      pair.String(),
				Stage:     "started",
			})

			report, err := o.rotator.Rotate(ctx, pair)
			if err != nil {
				// the symbol is abandoned, the run continues
				o.l.Error("rotation failed",
					zap.String("pair", pair.String()),
					zap.Error(err))
				o.record(domain.RotationEvent{
					Timestamp: time.Now().UTC(),
					Pair:      pair.String(),
					Stage:     "finished",
					Outcome:   string(domain.OutcomeFailed),
					Detail:    err.Error(),
				})
				continue
			}
			o.record(reportEvent(report))
		}
	}

	// repatriation runs even when every rotation failed; leftover quote
	// should not sit idle
	repatCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		repatCtx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
	}
	if err := o.repatriator.ConvertBack(repatCtx, o.conf.RetainReserve); err != nil {
		o.l.Error("repatriation failed", zap.Error(err))
		o.record(domain.RotationEvent{
			Timestamp: time.Now().UTC(),
			Pair:      o.conf.ReserveAsset + "_" + o.conf.QuoteAsset,
			Stage:     "repatriation",
			Outcome:   string(domain.OutcomeFailed),
			Detail:    err.Error(),
		})
	} else {
		o.record(domain.RotationEvent{
			Timestamp: time.Now().UTC(),
			Pair:      o.conf.ReserveAsset + "_" + o.conf.QuoteAsset,
			Stage:     "repatriation",
			Outcome:   string(domain.OutcomeCompleted),
		})
	}

	o.l.Info("run finished", zap.Int("rotations", rotations))
	return ctx.Err()
}

func (o *Orchestrator) record(event domain.RotationEvent) {
	if o.journal == nil {
		return
	}
	if err := o.journal.Append(event); err != nil {
		o.l.Warn("failed to journal rotation event", zap.Error(err))
	}
}

func reportEvent(report domain.RotationReport) domain.RotationEvent {
	event := domain.RotationEvent{
		Timestamp: time.Now().UTC(),
		Pair:      report.Pair.String(),
		Stage:     "finished",
		Outcome:   string(report.Outcome),
		Reason:    string(report.ExitReason),
	}
	if report.Outcome == domain.OutcomeCompleted {
		event.Price = report.ExitPrice.String()
		event.BaseQty = report.BaseQty.String()
		event.QuoteAmount = report.QuoteSpent.String()
	}
	return event
}
