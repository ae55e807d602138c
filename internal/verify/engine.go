// Package verify orchestrates DNS verification for sending domains. An
// engine run fires the four mechanism probes concurrently, waits for all of
// them, and commits the aggregate result in a single registry write.
package verify

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ignite/domain-manager/internal/dnsprobe"
	"github.com/ignite/domain-manager/internal/domain"
	"github.com/ignite/domain-manager/internal/pkg/distlock"
	"github.com/ignite/domain-manager/internal/pkg/logger"
)

// Store is the registry surface the engine needs.
type Store interface {
	Get(ctx context.Context, teamID, id uuid.UUID) (*domain.Domain, error)
	ApplyVerification(ctx context.Context, id uuid.UUID, res domain.VerificationResult, status domain.Status, healthScore, attempts int) error
}

// Prober runs the individual mechanism checks.
type Prober interface {
	ProbeMX(ctx context.Context, name string) dnsprobe.Result
	ProbeSPF(ctx context.Context, name string) dnsprobe.Result
	ProbeDKIM(ctx context.Context, name, selector string) dnsprobe.Result
	ProbeDMARC(ctx context.Context, name string) dnsprobe.Result
}

// Engine runs verification for domains. Runs for the same domain are
// serialized; runs for different domains proceed in parallel.
type Engine struct {
	store       Store
	prober      Prober
	locks       *distlock.Factory
	maxAttempts int

	mu       sync.Mutex
	inFlight map[uuid.UUID]*sync.Mutex
}

// New creates a verification engine. locks may be nil, in which case only
// in-process serialization applies.
func New(store Store, prober Prober, locks *distlock.Factory, maxAttempts int) *Engine {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Engine{
		store:       store,
		prober:      prober,
		locks:       locks,
		maxAttempts: maxAttempts,
		inFlight:    make(map[uuid.UUID]*sync.Mutex),
	}
}

// Verify runs all four probes for the domain and commits the merged result.
// Probes fail independently: a missing DKIM record never blocks the MX, SPF,
// or DMARC checks. If every probe fails at the transport level the run is
// treated as a verifier outage, nothing is committed, and
// domain.ErrResolverUnavailable is returned.
func (e *Engine) Verify(ctx context.Context, teamID, id uuid.UUID) (domain.VerificationResult, error) {
	lock := e.domainLock(id)
	lock.Lock()
	defer lock.Unlock()

	if e.locks != nil {
		dl := e.locks.Lock(fmt.Sprintf("verify:%s", id))
		acquired, err := dl.Acquire(ctx)
		if err != nil {
			logger.Warn("distributed lock unavailable, proceeding with local lock", "domain_id", id.String(), "error", err.Error())
		} else if !acquired {
			return domain.VerificationResult{}, fmt.Errorf("verification already in progress for domain %s", id)
		} else {
			defer func() {
				if err := dl.Release(context.WithoutCancel(ctx)); err != nil {
					logger.Warn("failed to release verification lock", "domain_id", id.String(), "error", err.Error())
				}
			}()
		}
	}

	d, err := e.store.Get(ctx, teamID, id)
	if err != nil {
		return domain.VerificationResult{}, err
	}

	var mx, spf, dkim, dmarc dnsprobe.Result
	var wg sync.WaitGroup
	wg.Add(4)
	go func() { defer wg.Done(); mx = e.prober.ProbeMX(ctx, d.Name) }()
	go func() { defer wg.Done(); spf = e.prober.ProbeSPF(ctx, d.Name) }()
	go func() { defer wg.Done(); dkim = e.prober.ProbeDKIM(ctx, d.Name, d.DKIMSelector) }()
	go func() { defer wg.Done(); dmarc = e.prober.ProbeDMARC(ctx, d.Name) }()
	wg.Wait()

	if transportWideOutage(mx, spf, dkim, dmarc) {
		logger.Error("resolver unreachable for all probes", "domain", d.Name, "error", firstErr(mx, spf, dkim, dmarc).Error())
		return domain.VerificationResult{}, domain.ErrResolverUnavailable
	}

	res := domain.NewVerificationResult(d.Name,
		mx.Verified(), spf.Verified(), dkim.Verified(), dmarc.Verified())

	attempts := d.VerifyAttempts + 1
	status := domain.DeriveStatus(res.MXVerified, res.SPFValid, res.DKIMValid, res.DMARCValid, attempts, e.maxAttempts)
	score := domain.HealthScore(res.MXVerified, res.SPFValid, res.DKIMValid, res.DMARCValid, d.BounceRate)

	if err := e.store.ApplyVerification(ctx, id, res, status, score, attempts); err != nil {
		return domain.VerificationResult{}, err
	}

	logger.Info("verification completed",
		"domain", d.Name,
		"status", string(status),
		"all_verified", res.AllVerified,
		"attempt", attempts,
	)
	return res, nil
}

func (e *Engine) domainLock(id uuid.UUID) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.inFlight[id]
	if !ok {
		m = &sync.Mutex{}
		e.inFlight[id] = m
	}
	return m
}

func transportWideOutage(results ...dnsprobe.Result) bool {
	for _, r := range results {
		if r.Outcome != dnsprobe.TransportError {
			return false
		}
	}
	return true
}

func firstErr(results ...dnsprobe.Result) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return fmt.Errorf("unknown transport failure")
}
