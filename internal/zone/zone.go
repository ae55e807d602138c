// Package zone manages external DNS hosted zones for sending domains. Zone
// resources are best-effort: the registry record is the source of truth and
// registry operations are never blocked by a zone failure.
package zone

import "context"

// Manager provisions and releases hosted zones.
type Manager interface {
	// Create provisions a hosted zone for the domain and returns its id.
	Create(ctx context.Context, domainName string) (string, error)
	// Release deletes the hosted zone. Callers treat failures as
	// log-and-continue.
	Release(ctx context.Context, zoneID string) error
}

// Noop is used when external zone management is disabled.
type Noop struct{}

func (Noop) Create(context.Context, string) (string, error) { return "", nil }
func (Noop) Release(context.Context, string) error          { return nil }
