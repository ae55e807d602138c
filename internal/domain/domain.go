package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/idna"
)

// Status is the lifecycle state of a sending domain.
type Status string

const (
	StatusPending   Status = "pending"   // created, verification never attempted
	StatusVerifying Status = "verifying" // attempted, not yet fully verified, retries remain
	StatusVerified  Status = "verified"  // all four mechanisms verified
	StatusFailed    Status = "failed"    // attempted maxAttempts times without full verification
)

// Domain is a sending identity owned by at most one team.
type Domain struct {
	ID     uuid.UUID `json:"id"`
	TeamID uuid.UUID `json:"team_id"`
	Name   string    `json:"domain_name"`
	Status Status    `json:"status"`

	MXVerified    bool `json:"mx_verified"`
	SPFVerified   bool `json:"spf_verified"`
	DKIMVerified  bool `json:"dkim_verified"`
	DMARCVerified bool `json:"dmarc_verified"`

	DKIMSelector   string `json:"dkim_selector,omitempty"`
	DKIMPrivateKey string `json:"-"` // PEM, never serialized to API responses

	DailySendLimit int  `json:"daily_send_limit"`
	SentToday      int  `json:"sent_today"`
	WarmupEnabled  bool `json:"warmup_enabled"`
	WarmupDay      int  `json:"warmup_day"`

	HealthScore int     `json:"health_score"`
	BounceRate  float64 `json:"bounce_rate"`

	ZoneID string `json:"zone_id,omitempty"` // external hosted-zone reference, optional

	// Records is the synthesized advisory record set. Served by the
	// dns-records endpoint, not inlined in domain listings.
	Records DNSRecords `json:"-"`

	VerifyAttempts int       `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AllVerified reports whether all four DNS mechanisms are verified.
func (d *Domain) AllVerified() bool {
	return d.MXVerified && d.SPFVerified && d.DKIMVerified && d.DMARCVerified
}

// DeriveStatus maps the four verification booleans and the attempt counter to
// a lifecycle status. Status is always recomputed through this function, never
// flipped ad hoc, so the "verified ⇔ all four booleans" invariant holds by
// construction.
func DeriveStatus(mx, spf, dkim, dmarc bool, attempts, maxAttempts int) Status {
	if mx && spf && dkim && dmarc {
		return StatusVerified
	}
	if attempts == 0 {
		return StatusPending
	}
	if maxAttempts > 0 && attempts >= maxAttempts {
		return StatusFailed
	}
	return StatusVerifying
}

// NormalizeName lowercases a domain name and converts Unicode labels to their
// punycode (ASCII) form. The returned name has no trailing dot.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
	if name == "" {
		return "", &ValidationError{Reason: "domain name cannot be empty"}
	}
	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return "", &ValidationError{Reason: fmt.Sprintf("invalid domain name %q: %v", name, err)}
	}
	if err := ValidateName(ascii); err != nil {
		return "", err
	}
	return ascii, nil
}

// ValidateName checks an already-ASCII domain name against RFC 1035 label
// rules: 253 chars total, at least two labels, each label 1-63 chars of
// [a-z0-9-] not starting or ending with a hyphen.
func ValidateName(name string) error {
	if len(name) > 253 {
		return &ValidationError{Reason: "domain name too long (max 253 characters)"}
	}
	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return &ValidationError{Reason: "domain name must contain at least one dot"}
	}
	for _, label := range labels {
		if len(label) == 0 {
			return &ValidationError{Reason: "domain name contains an empty label"}
		}
		if len(label) > 63 {
			return &ValidationError{Reason: fmt.Sprintf("label %q too long (max 63 characters)", label)}
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return &ValidationError{Reason: fmt.Sprintf("label %q cannot start or end with a hyphen", label)}
		}
		for _, c := range label {
			if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-') {
				return &ValidationError{Reason: fmt.Sprintf("invalid character %q in domain name", c)}
			}
		}
	}
	return nil
}
