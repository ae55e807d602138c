// Package registry is the authoritative store of sending domains, their
// verification and warmup state, and team ownership.
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/domain-manager/internal/domain"
)

const domainColumns = `id, team_id, domain_name, status,
	mx_verified, spf_verified, dkim_verified, dmarc_verified,
	dkim_selector, daily_send_limit, sent_today,
	warmup_enabled, warmup_day, health_score, bounce_rate,
	zone_id, verify_attempts, dns_records, created_at, updated_at`

// Store provides database operations for sending domains.
type Store struct {
	db              *sql.DB
	defaultSelector string
}

// NewStore creates a registry store. defaultSelector is used when a create
// request does not supply a DKIM selector.
func NewStore(db *sql.DB, defaultSelector string) *Store {
	if defaultSelector == "" {
		defaultSelector = "mail"
	}
	return &Store{db: db, defaultSelector: defaultSelector}
}

// Create registers a new sending domain for a team. The name is normalized
// (lowercase, punycode) and validated against RFC 1035 label rules; the
// expected DNS record set, including a fresh DKIM key pair, is synthesized
// deterministically and stored with the row. Uniqueness is enforced
// atomically with the insert: a name collision returns ErrDuplicateDomain
// and leaves the registry unchanged.
func (s *Store) Create(ctx context.Context, teamID uuid.UUID, name, selector string) (*domain.Domain, error) {
	normalized, err := domain.NormalizeName(name)
	if err != nil {
		return nil, err
	}

	selector = strings.TrimSpace(strings.ToLower(selector))
	if selector == "" {
		selector = s.defaultSelector
	}

	dkimPublic, dkimPrivate, err := generateDKIMKeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate DKIM key pair: %w", err)
	}

	records := domain.ExpectedRecords(normalized, selector, dkimPublic)
	now := time.Now().UTC()

	d := &domain.Domain{
		ID:             uuid.New(),
		TeamID:         teamID,
		Name:           normalized,
		Status:         domain.StatusPending,
		DKIMSelector:   selector,
		DKIMPrivateKey: dkimPrivate,
		WarmupEnabled:  true,
		Records:        records,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// ON CONFLICT DO NOTHING keeps the uniqueness check atomic with the
	// insert; zero rows affected means another row already owns the name.
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO sending_domains (id, team_id, domain_name, status,
			dkim_selector, dkim_private_key, warmup_enabled, dns_records,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (domain_name) DO NOTHING
	`, d.ID, d.TeamID, d.Name, d.Status, d.DKIMSelector, d.DKIMPrivateKey,
		d.WarmupEnabled, records, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create domain: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check insert result: %w", err)
	}
	if rows == 0 {
		return nil, &domain.ValidationError{
			Reason: fmt.Sprintf("domain %s is already registered", normalized),
			Err:    domain.ErrDuplicateDomain,
		}
	}

	return d, nil
}

// Get returns a team's domain by id.
func (s *Store) Get(ctx context.Context, teamID, id uuid.UUID) (*domain.Domain, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+domainColumns+`
		FROM sending_domains WHERE id = $1 AND team_id = $2
	`, id, teamID)
	return scanDomain(row)
}

// GetByID returns a domain by id without team scoping. Used by the
// verification engine and the warmup scheduler, which operate across teams.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*domain.Domain, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+domainColumns+`
		FROM sending_domains WHERE id = $1
	`, id)
	return scanDomain(row)
}

// List returns all of a team's domains, newest first.
func (s *Store) List(ctx context.Context, teamID uuid.UUID) ([]*domain.Domain, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+domainColumns+`
		FROM sending_domains WHERE team_id = $1
		ORDER BY created_at DESC
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query domains: %w", err)
	}
	defer rows.Close()

	var domains []*domain.Domain
	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

// ListVerified returns every verified domain across all teams. Used by the
// warmup sweep.
func (s *Store) ListVerified(ctx context.Context) ([]*domain.Domain, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+domainColumns+`
		FROM sending_domains WHERE status = 'verified'
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query verified domains: %w", err)
	}
	defer rows.Close()

	var domains []*domain.Domain
	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

// Delete removes a team's domain and returns the external zone id that was
// associated with it, if any, so the caller can release the zone best-effort.
func (s *Store) Delete(ctx context.Context, teamID, id uuid.UUID) (zoneID string, err error) {
	var zone sql.NullString
	err = s.db.QueryRowContext(ctx, `
		DELETE FROM sending_domains WHERE id = $1 AND team_id = $2
		RETURNING zone_id
	`, id, teamID).Scan(&zone)
	if err == sql.ErrNoRows {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to delete domain: %w", err)
	}
	return zone.String, nil
}

// ApplyVerification folds a completed verification run into the domain row:
// the four booleans, the derived status and health score, the attempt
// counter, and updated_at. Committed as one statement under the engine's
// per-domain lock so out-of-order probe completions can never interleave.
func (s *Store) ApplyVerification(ctx context.Context, id uuid.UUID, res domain.VerificationResult, status domain.Status, healthScore, attempts int) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sending_domains
		SET mx_verified = $1, spf_verified = $2, dkim_verified = $3, dmarc_verified = $4,
		    status = $5, health_score = $6, verify_attempts = $7, updated_at = $8
		WHERE id = $9
	`, res.MXVerified, res.SPFValid, res.DKIMValid, res.DMARCValid,
		status, healthScore, attempts, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to apply verification: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RecordSend adds count to the domain's sent-today counter and returns the
// new value. Limit enforcement belongs to the send path; this only keeps
// the authoritative count.
func (s *Store) RecordSend(ctx context.Context, teamID, id uuid.UUID, count int) (int, error) {
	var sent int
	err := s.db.QueryRowContext(ctx, `
		UPDATE sending_domains
		SET sent_today = sent_today + $1, updated_at = NOW()
		WHERE id = $2 AND team_id = $3
		RETURNING sent_today
	`, count, id, teamID).Scan(&sent)
	if err == sql.ErrNoRows {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to record sends: %w", err)
	}
	return sent, nil
}

// SetZoneID attaches an external hosted-zone reference to a domain.
func (s *Store) SetZoneID(ctx context.Context, id uuid.UUID, zoneID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sending_domains SET zone_id = $1, updated_at = NOW() WHERE id = $2
	`, zoneID, id)
	if err != nil {
		return fmt.Errorf("failed to set zone id: %w", err)
	}
	return nil
}

// AdvanceWarmup moves a warming domain to newDay with the corresponding
// limit, at most once per calendar day. boundary is the current date in the
// scheduler's timezone ("2006-01-02"); the SQL guard makes repeated sweeps
// within the same day no-ops, and the limit never decreases once set.
// Returns true if the row advanced.
func (s *Store) AdvanceWarmup(ctx context.Context, id uuid.UUID, newDay, newLimit int, boundary string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sending_domains
		SET warmup_day = $1,
		    daily_send_limit = GREATEST(daily_send_limit, $2),
		    last_warmup_advance = $3,
		    updated_at = NOW()
		WHERE id = $4 AND status = 'verified' AND warmup_enabled = true
		  AND (last_warmup_advance IS NULL OR last_warmup_advance < $3)
	`, newDay, newLimit, boundary, id)
	if err != nil {
		return false, fmt.Errorf("failed to advance warmup: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check warmup advance: %w", err)
	}
	return n > 0, nil
}

// ResetSentToday zeroes the sent-today counter, at most once per boundary
// date. Missed sweeps catch up on the next run without compounding: the
// guard compares dates, not elapsed cycles. Returns true if the row reset.
func (s *Store) ResetSentToday(ctx context.Context, id uuid.UUID, boundary string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sending_domains
		SET sent_today = 0, last_sent_reset = $1, updated_at = NOW()
		WHERE id = $2
		  AND (last_sent_reset IS NULL OR last_sent_reset < $1)
	`, boundary, id)
	if err != nil {
		return false, fmt.Errorf("failed to reset sent_today: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check sent_today reset: %w", err)
	}
	return n > 0, nil
}

// PauseWarmup disables warmup for a domain, freezing warmup_day and leaving
// daily_send_limit at its current value as the fixed operator limit.
func (s *Store) PauseWarmup(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sending_domains SET warmup_enabled = false, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to pause warmup: %w", err)
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDomain(row rowScanner) (*domain.Domain, error) {
	var d domain.Domain
	var selector, zoneID sql.NullString
	var records domain.DNSRecords

	err := row.Scan(
		&d.ID, &d.TeamID, &d.Name, &d.Status,
		&d.MXVerified, &d.SPFVerified, &d.DKIMVerified, &d.DMARCVerified,
		&selector, &d.DailySendLimit, &d.SentToday,
		&d.WarmupEnabled, &d.WarmupDay, &d.HealthScore, &d.BounceRate,
		&zoneID, &d.VerifyAttempts, &records, &d.CreatedAt, &d.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan domain: %w", err)
	}

	d.DKIMSelector = selector.String
	d.ZoneID = zoneID.String
	d.Records = records
	return &d, nil
}
