package verify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/ignite/domain-manager/internal/dnsprobe"
	"github.com/ignite/domain-manager/internal/domain"
)

type fakeStore struct {
	mu      sync.Mutex
	domains map[uuid.UUID]*domain.Domain

	applied   []domain.VerificationResult
	statuses  []domain.Status
	scores    []int
	attempts  []int
	applyErr  error
	applyCall int32
}

func newFakeStore(d *domain.Domain) *fakeStore {
	return &fakeStore{domains: map[uuid.UUID]*domain.Domain{d.ID: d}}
}

func (s *fakeStore) Get(_ context.Context, teamID, id uuid.UUID) (*domain.Domain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.domains[id]
	if !ok || d.TeamID != teamID {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *fakeStore) ApplyVerification(_ context.Context, id uuid.UUID, res domain.VerificationResult, status domain.Status, score, attempts int) error {
	atomic.AddInt32(&s.applyCall, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return s.applyErr
	}
	d, ok := s.domains[id]
	if !ok {
		return domain.ErrNotFound
	}
	d.MXVerified = res.MXVerified
	d.SPFVerified = res.SPFValid
	d.DKIMVerified = res.DKIMValid
	d.DMARCVerified = res.DMARCValid
	d.Status = status
	d.HealthScore = score
	d.VerifyAttempts = attempts
	s.applied = append(s.applied, res)
	s.statuses = append(s.statuses, status)
	s.scores = append(s.scores, score)
	s.attempts = append(s.attempts, attempts)
	return nil
}

type fakeProber struct {
	mx, spf, dkim, dmarc dnsprobe.Result

	// tracks concurrent probe batches to observe serialization
	active  int32
	maxSeen int32
	block   chan struct{}
}

func (p *fakeProber) enter() {
	n := atomic.AddInt32(&p.active, 1)
	for {
		max := atomic.LoadInt32(&p.maxSeen)
		if n <= max || atomic.CompareAndSwapInt32(&p.maxSeen, max, n) {
			break
		}
	}
	if p.block != nil {
		<-p.block
	}
}

func (p *fakeProber) exit() { atomic.AddInt32(&p.active, -1) }

func (p *fakeProber) ProbeMX(context.Context, string) dnsprobe.Result {
	p.enter()
	defer p.exit()
	return p.mx
}
func (p *fakeProber) ProbeSPF(context.Context, string) dnsprobe.Result    { return p.spf }
func (p *fakeProber) ProbeDKIM(context.Context, string, string) dnsprobe.Result {
	return p.dkim
}
func (p *fakeProber) ProbeDMARC(context.Context, string) dnsprobe.Result { return p.dmarc }

func found() dnsprobe.Result  { return dnsprobe.Result{Outcome: dnsprobe.Found} }
func absent() dnsprobe.Result { return dnsprobe.Result{Outcome: dnsprobe.Absent} }
func transport() dnsprobe.Result {
	return dnsprobe.Result{Outcome: dnsprobe.TransportError, Err: errors.New("connection refused")}
}

func pendingDomain() *domain.Domain {
	return &domain.Domain{
		ID:           uuid.New(),
		TeamID:       uuid.New(),
		Name:         "example.com",
		Status:       domain.StatusPending,
		DKIMSelector: "mail",
	}
}

func TestVerifyAllPass(t *testing.T) {
	d := pendingDomain()
	store := newFakeStore(d)
	prober := &fakeProber{mx: found(), spf: found(), dkim: found(), dmarc: found()}
	engine := New(store, prober, nil, 5)

	res, err := engine.Verify(context.Background(), d.TeamID, d.ID)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !res.AllVerified {
		t.Error("Verify() all_verified = false, want true")
	}
	if store.statuses[0] != domain.StatusVerified {
		t.Errorf("status = %q, want verified", store.statuses[0])
	}
	if store.scores[0] != 100 {
		t.Errorf("health score = %d, want 100", store.scores[0])
	}
	if store.attempts[0] != 1 {
		t.Errorf("attempts = %d, want 1", store.attempts[0])
	}
}

func TestVerifyProbesAreIndependent(t *testing.T) {
	d := pendingDomain()
	store := newFakeStore(d)
	// DKIM record missing: the other three mechanisms still evaluate.
	prober := &fakeProber{mx: found(), spf: found(), dkim: absent(), dmarc: found()}
	engine := New(store, prober, nil, 5)

	res, err := engine.Verify(context.Background(), d.TeamID, d.ID)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if res.AllVerified {
		t.Error("all_verified = true with absent DKIM, want false")
	}
	if !res.MXVerified || !res.SPFValid || !res.DMARCValid {
		t.Errorf("independent probes lost: %+v", res)
	}
	if store.statuses[0] != domain.StatusVerifying {
		t.Errorf("status = %q, want verifying while attempts remain", store.statuses[0])
	}
}

func TestVerifyFailsAfterMaxAttempts(t *testing.T) {
	d := pendingDomain()
	store := newFakeStore(d)
	prober := &fakeProber{mx: found(), spf: absent(), dkim: absent(), dmarc: absent()}
	engine := New(store, prober, nil, 3)

	for i := 0; i < 3; i++ {
		if _, err := engine.Verify(context.Background(), d.TeamID, d.ID); err != nil {
			t.Fatalf("Verify() run %d error = %v", i+1, err)
		}
	}

	if got := store.statuses[0]; got != domain.StatusVerifying {
		t.Errorf("first attempt status = %q, want verifying", got)
	}
	if got := store.statuses[2]; got != domain.StatusFailed {
		t.Errorf("final attempt status = %q, want failed", got)
	}
	if got := store.attempts[2]; got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestVerifyTransportWideOutage(t *testing.T) {
	d := pendingDomain()
	store := newFakeStore(d)
	prober := &fakeProber{mx: transport(), spf: transport(), dkim: transport(), dmarc: transport()}
	engine := New(store, prober, nil, 5)

	_, err := engine.Verify(context.Background(), d.TeamID, d.ID)
	if !errors.Is(err, domain.ErrResolverUnavailable) {
		t.Fatalf("Verify() error = %v, want ErrResolverUnavailable", err)
	}
	if atomic.LoadInt32(&store.applyCall) != 0 {
		t.Error("outage run must not commit a result")
	}
	if store.domains[d.ID].VerifyAttempts != 0 {
		t.Error("outage run must not consume an attempt")
	}
}

func TestVerifyPartialTransportErrorStillCommits(t *testing.T) {
	d := pendingDomain()
	store := newFakeStore(d)
	// One probe hit a broken resolver path; the rest answered. The run
	// completes and the failing mechanism is recorded unverified.
	prober := &fakeProber{mx: transport(), spf: found(), dkim: found(), dmarc: found()}
	engine := New(store, prober, nil, 5)

	res, err := engine.Verify(context.Background(), d.TeamID, d.ID)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if res.MXVerified {
		t.Error("transport-errored probe should record unverified")
	}
	if !res.SPFValid || !res.DKIMValid || !res.DMARCValid {
		t.Errorf("answered probes lost: %+v", res)
	}
}

func TestVerifyUnknownDomain(t *testing.T) {
	d := pendingDomain()
	store := newFakeStore(d)
	engine := New(store, &fakeProber{}, nil, 5)

	_, err := engine.Verify(context.Background(), d.TeamID, uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Verify() error = %v, want ErrNotFound", err)
	}
}

func TestVerifySerializedPerDomain(t *testing.T) {
	d := pendingDomain()
	store := newFakeStore(d)
	prober := &fakeProber{
		mx: found(), spf: found(), dkim: found(), dmarc: found(),
		block: make(chan struct{}),
	}
	engine := New(store, prober, nil, 5)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			engine.Verify(context.Background(), d.TeamID, d.ID)
		}()
	}
	close(prober.block)
	wg.Wait()

	if max := atomic.LoadInt32(&prober.maxSeen); max > 1 {
		t.Errorf("observed %d concurrent probe batches for one domain, want at most 1", max)
	}
	if got := atomic.LoadInt32(&store.applyCall); got != 4 {
		t.Errorf("commits = %d, want 4 (serialized, not dropped)", got)
	}
}
