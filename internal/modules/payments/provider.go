package payments

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

type CheckResult struct {
	Found         bool
	TransactionID string
	Amount        int64
}

// BankProvider abstracts the external transaction feed the auto-poll path
// probes when no webhook has arrived. The reconciliation algorithm never
// depends on a particular implementation.
type BankProvider interface {
	Name() string
	// CheckTransaction looks for a transfer carrying the given memo with
	// the given amount.
	CheckTransaction(ctx context.Context, memo string, amount int64) (CheckResult, error)
}

// SimulatedProvider stands in for a real bank integration in this
// deployment: each probe succeeds with a fixed probability after a short
// delay.
type SimulatedProvider struct {
	SuccessRate float64
	Delay       time.Duration
	rnd         *rand.Rand
}

func NewSimulatedProvider() *SimulatedProvider {
	return &SimulatedProvider{
		SuccessRate: 0.3,
		Delay:       500 * time.Millisecond,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *SimulatedProvider) Name() string { return "simulated" }

func (p *SimulatedProvider) CheckTransaction(ctx context.Context, memo string, amount int64) (CheckResult, error) {
	if p.Delay > 0 {
		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return CheckResult{}, ctx.Err()
		}
	}

	roll := rand.Float64()
	if p.rnd != nil {
		roll = p.rnd.Float64()
	}
	if roll >= p.SuccessRate {
		return CheckResult{}, nil
	}

	return CheckResult{
		Found:         true,
		TransactionID: "SIM-" + uuid.NewString(),
		Amount:        amount,
	}, nil
}
