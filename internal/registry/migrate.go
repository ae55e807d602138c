package registry

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is the registry's table set. Applied at startup; every statement is
// idempotent so repeated boots are safe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS sending_domains (
		id UUID PRIMARY KEY,
		team_id UUID NOT NULL,
		domain_name TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'pending',
		mx_verified BOOLEAN NOT NULL DEFAULT false,
		spf_verified BOOLEAN NOT NULL DEFAULT false,
		dkim_verified BOOLEAN NOT NULL DEFAULT false,
		dmarc_verified BOOLEAN NOT NULL DEFAULT false,
		dkim_selector TEXT,
		dkim_private_key TEXT,
		daily_send_limit INTEGER NOT NULL DEFAULT 0,
		sent_today INTEGER NOT NULL DEFAULT 0,
		warmup_enabled BOOLEAN NOT NULL DEFAULT true,
		warmup_day INTEGER NOT NULL DEFAULT 0,
		health_score INTEGER NOT NULL DEFAULT 0,
		bounce_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		zone_id TEXT,
		verify_attempts INTEGER NOT NULL DEFAULT 0,
		dns_records JSONB NOT NULL DEFAULT '[]',
		last_warmup_advance DATE,
		last_sent_reset DATE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sending_domains_team ON sending_domains (team_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sending_domains_status ON sending_domains (status)`,
}

// Migrate applies the registry schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply registry schema: %w", err)
		}
	}
	return nil
}
