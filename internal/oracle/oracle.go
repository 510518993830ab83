package oracle

import (
	"context"
)

// AuthorizationOracle decides whether a gauge is still eligible to receive
// emissions. Deposits into a deauthorized gauge are rejected; withdrawals and
// claims are never blocked by the oracle.
type AuthorizationOracle interface {
	// IsAlive reports whether the gauge identified by address is authorized.
	IsAlive(ctx context.Context, gauge string) (bool, error)
}

// Static is a fixed-answer oracle, used in tests and when no external oracle
// endpoint is configured.
type Static struct {
	alive bool
}

// NewStatic returns an oracle that always answers alive.
func NewStatic(alive bool) *Static {
	return &Static{alive: alive}
}

// IsAlive implements AuthorizationOracle.
func (s *Static) IsAlive(ctx context.Context, gauge string) (bool, error) {
	return s.alive, nil
}

// SetAlive flips the oracle's answer. Handy for exercising deauthorization.
func (s *Static) SetAlive(alive bool) {
	s.alive = alive
}
