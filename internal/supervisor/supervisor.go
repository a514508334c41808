// Package supervisor owns the lifecycle of the configured agents: staggered
// startup, shared cancellation, and collection of the first fatal error.
package supervisor

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Agent is one independently running rotation engine.
type Agent interface {
	Run(ctx context.Context) error
}

type handle struct {
	name  string
	agent Agent
	delay time.Duration
}

// Supervisor runs agents concurrently. A fatal agent error cancels the
// context shared by all agents.
type Supervisor struct {
	handles []handle
	l       *zap.Logger
}

func New(l *zap.Logger) *Supervisor {
	if l == nil {
		l = zap.NewNop()
	}
	return &Supervisor{l: l}
}

// Add registers an agent. delay postpones its start so agents sharing a
// venue do not hit it at the same instant.
func (s *Supervisor) Add(name string, agent Agent, delay time.Duration) {
	s.handles = append(s.handles, handle{name: name, agent: agent, delay: delay})
}

// Run starts every registered agent and blocks until all of them return.
// The first fatal error cancels the rest.
func (s *Supervisor) Run(ctx context.Context) error {
	if len(s.handles) == 0 {
		return errors.New("no agents registered")
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, h := range s.handles {
		h := h
		g.Go(func() error {
			if h.delay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(h.delay):
				}
			}

			s.l.Info("agent started", zap.String("agent", h.name))
			err := h.agent.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				s.l.Error("agent failed", zap.String("agent", h.name), zap.Error(err))
				return errors.Wrapf(err, "agent %s", h.name)
			}
			s.l.Info("agent finished", zap.String("agent", h.name))
			return nil
		})
	}
	return g.Wait()
}
