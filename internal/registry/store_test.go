package registry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/ignite/domain-manager/internal/domain"
)

func TestStoreCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	store := NewStore(db, "mail")
	teamID := uuid.New()

	t.Run("successful create", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO sending_domains").
			WillReturnResult(sqlmock.NewResult(0, 1))

		d, err := store.Create(context.Background(), teamID, "Example.COM", "")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		if d.Name != "example.com" {
			t.Errorf("Create() name = %q, want example.com (normalized)", d.Name)
		}
		if d.Status != domain.StatusPending {
			t.Errorf("Create() status = %q, want pending", d.Status)
		}
		if d.MXVerified || d.SPFVerified || d.DKIMVerified || d.DMARCVerified {
			t.Error("Create() verification booleans should start false")
		}
		if d.DKIMSelector != "mail" {
			t.Errorf("Create() selector = %q, want default 'mail'", d.DKIMSelector)
		}
		if !d.WarmupEnabled {
			t.Error("Create() warmup should be enabled by default")
		}
		if len(d.Records) != 4 {
			t.Fatalf("Create() synthesized %d records, want 4", len(d.Records))
		}
		if d.DKIMPrivateKey == "" {
			t.Error("Create() should generate a DKIM private key")
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		// ON CONFLICT DO NOTHING: zero rows affected signals the collision.
		mock.ExpectExec("INSERT INTO sending_domains").
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := store.Create(context.Background(), teamID, "taken.example.com", "s1")
		if !errors.Is(err, domain.ErrDuplicateDomain) {
			t.Errorf("Create() error = %v, want ErrDuplicateDomain", err)
		}
		if !domain.IsValidation(err) {
			t.Error("duplicate create should be a ValidationError")
		}
	})

	t.Run("invalid name rejected before any query", func(t *testing.T) {
		_, err := store.Create(context.Background(), teamID, "not_a_domain", "")
		if !domain.IsValidation(err) {
			t.Errorf("Create() error = %v, want ValidationError", err)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %s", err)
	}
}

func domainRows(d *domain.Domain) *sqlmock.Rows {
	recordsJSON, _ := d.Records.Value()
	rows := sqlmock.NewRows([]string{
		"id", "team_id", "domain_name", "status",
		"mx_verified", "spf_verified", "dkim_verified", "dmarc_verified",
		"dkim_selector", "daily_send_limit", "sent_today",
		"warmup_enabled", "warmup_day", "health_score", "bounce_rate",
		"zone_id", "verify_attempts", "dns_records", "created_at", "updated_at",
	})
	rows.AddRow(
		d.ID, d.TeamID, d.Name, d.Status,
		d.MXVerified, d.SPFVerified, d.DKIMVerified, d.DMARCVerified,
		d.DKIMSelector, d.DailySendLimit, d.SentToday,
		d.WarmupEnabled, d.WarmupDay, d.HealthScore, d.BounceRate,
		d.ZoneID, d.VerifyAttempts, recordsJSON, d.CreatedAt, d.UpdatedAt,
	)
	return rows
}

func sampleDomain() *domain.Domain {
	return &domain.Domain{
		ID:            uuid.New(),
		TeamID:        uuid.New(),
		Name:          "example.com",
		Status:        domain.StatusVerified,
		MXVerified:    true,
		SPFVerified:   true,
		DKIMVerified:  true,
		DMARCVerified: true,
		DKIMSelector:  "mail",
		WarmupEnabled: true,
		HealthScore:   100,
		Records:       domain.ExpectedRecords("example.com", "mail", "pub"),
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
}

func TestStoreGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	store := NewStore(db, "mail")
	want := sampleDomain()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM sending_domains WHERE id").
			WithArgs(want.ID, want.TeamID).
			WillReturnRows(domainRows(want))

		got, err := store.Get(context.Background(), want.TeamID, want.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Name != want.Name || got.Status != want.Status {
			t.Errorf("Get() = %q/%q, want %q/%q", got.Name, got.Status, want.Name, want.Status)
		}
		if len(got.Records) != 4 {
			t.Errorf("Get() records = %d, want 4", len(got.Records))
		}
	})

	t.Run("not found", func(t *testing.T) {
		missing := uuid.New()
		mock.ExpectQuery("SELECT (.+) FROM sending_domains WHERE id").
			WithArgs(missing, want.TeamID).
			WillReturnError(sql.ErrNoRows)

		_, err := store.Get(context.Background(), want.TeamID, missing)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %s", err)
	}
}

func TestStoreDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	store := NewStore(db, "mail")
	teamID := uuid.New()
	id := uuid.New()

	t.Run("returns zone id for cleanup", func(t *testing.T) {
		mock.ExpectQuery("DELETE FROM sending_domains").
			WithArgs(id, teamID).
			WillReturnRows(sqlmock.NewRows([]string{"zone_id"}).AddRow("Z123ABC"))

		zone, err := store.Delete(context.Background(), teamID, id)
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if zone != "Z123ABC" {
			t.Errorf("Delete() zone = %q, want Z123ABC", zone)
		}
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("DELETE FROM sending_domains").
			WithArgs(id, teamID).
			WillReturnError(sql.ErrNoRows)

		_, err := store.Delete(context.Background(), teamID, id)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Delete() error = %v, want ErrNotFound", err)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %s", err)
	}
}

func TestStoreApplyVerification(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	store := NewStore(db, "mail")
	id := uuid.New()
	res := domain.NewVerificationResult("example.com", true, true, false, true)

	mock.ExpectExec("UPDATE sending_domains").
		WithArgs(true, true, false, true, domain.StatusVerifying, 75, 2, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.ApplyVerification(context.Background(), id, res, domain.StatusVerifying, 75, 2); err != nil {
		t.Fatalf("ApplyVerification() error = %v", err)
	}

	t.Run("unknown id", func(t *testing.T) {
		mock.ExpectExec("UPDATE sending_domains").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.ApplyVerification(context.Background(), uuid.New(), res, domain.StatusVerifying, 75, 1)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("ApplyVerification() error = %v, want ErrNotFound", err)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %s", err)
	}
}

func TestStoreWarmupGuards(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	store := NewStore(db, "mail")
	id := uuid.New()

	t.Run("advance applies once per boundary", func(t *testing.T) {
		mock.ExpectExec("UPDATE sending_domains").
			WithArgs(1, 50, "2026-08-31", id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		advanced, err := store.AdvanceWarmup(context.Background(), id, 1, 50, "2026-08-31")
		if err != nil {
			t.Fatalf("AdvanceWarmup() error = %v", err)
		}
		if !advanced {
			t.Error("AdvanceWarmup() = false, want true on first advance")
		}

		// Second sweep the same day: the date guard matches no rows.
		mock.ExpectExec("UPDATE sending_domains").
			WithArgs(2, 50, "2026-08-31", id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		advanced, err = store.AdvanceWarmup(context.Background(), id, 2, 50, "2026-08-31")
		if err != nil {
			t.Fatalf("AdvanceWarmup() error = %v", err)
		}
		if advanced {
			t.Error("AdvanceWarmup() = true on same-day repeat, want false")
		}
	})

	t.Run("reset applies once per boundary", func(t *testing.T) {
		mock.ExpectExec("UPDATE sending_domains").
			WithArgs("2026-08-31", id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		reset, err := store.ResetSentToday(context.Background(), id, "2026-08-31")
		if err != nil {
			t.Fatalf("ResetSentToday() error = %v", err)
		}
		if !reset {
			t.Error("ResetSentToday() = false, want true on first reset")
		}

		mock.ExpectExec("UPDATE sending_domains").
			WithArgs("2026-08-31", id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		reset, err = store.ResetSentToday(context.Background(), id, "2026-08-31")
		if err != nil {
			t.Fatalf("ResetSentToday() error = %v", err)
		}
		if reset {
			t.Error("ResetSentToday() = true on same-day repeat, want false")
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %s", err)
	}
}

func TestStoreRecordSend(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	store := NewStore(db, "mail")
	teamID := uuid.New()
	id := uuid.New()

	mock.ExpectQuery("UPDATE sending_domains").
		WithArgs(25, id, teamID).
		WillReturnRows(sqlmock.NewRows([]string{"sent_today"}).AddRow(125))

	sent, err := store.RecordSend(context.Background(), teamID, id, 25)
	if err != nil {
		t.Fatalf("RecordSend() error = %v", err)
	}
	if sent != 125 {
		t.Errorf("RecordSend() = %d, want 125", sent)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %s", err)
	}
}

func TestGenerateDKIMKeyPair(t *testing.T) {
	pub, priv, err := generateDKIMKeyPair()
	if err != nil {
		t.Fatalf("generateDKIMKeyPair() error = %v", err)
	}
	if pub == "" {
		t.Error("public key is empty")
	}
	if priv == "" || !strings.Contains(priv, "RSA PRIVATE KEY") {
		t.Error("private key should be PEM-encoded")
	}
}
