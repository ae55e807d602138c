// Package api exposes the domain management REST surface consumed by the
// client layer. Response shapes are stable; downstream pages bind to the
// exact field names.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/domain-manager/internal/domain"
	"github.com/ignite/domain-manager/internal/registrar"
	"github.com/ignite/domain-manager/internal/zone"
)

// DomainStore is the registry surface the handlers need.
type DomainStore interface {
	Create(ctx context.Context, teamID uuid.UUID, name, selector string) (*domain.Domain, error)
	Get(ctx context.Context, teamID, id uuid.UUID) (*domain.Domain, error)
	List(ctx context.Context, teamID uuid.UUID) ([]*domain.Domain, error)
	Delete(ctx context.Context, teamID, id uuid.UUID) (string, error)
	RecordSend(ctx context.Context, teamID, id uuid.UUID, count int) (int, error)
	SetZoneID(ctx context.Context, id uuid.UUID, zoneID string) error
}

// Verifier runs domain verification.
type Verifier interface {
	Verify(ctx context.Context, teamID, id uuid.UUID) (domain.VerificationResult, error)
}

// Registrar searches and purchases domains.
type Registrar interface {
	Search(ctx context.Context, keyword string, tlds []string) ([]registrar.SearchResult, error)
	Purchase(ctx context.Context, name string, years int, nameservers []string) (*registrar.PurchaseResult, error)
}

// Server wires the handlers to their collaborators and owns the HTTP
// listener lifecycle.
type Server struct {
	store     DomainStore
	verifier  Verifier
	registrar Registrar
	zones     zone.Manager

	httpServer *http.Server
}

// NewServer creates an API server. registrar may be nil when purchasing is
// disabled; zones may be nil when external zone management is disabled.
func NewServer(store DomainStore, verifier Verifier, reg Registrar, zones zone.Manager) *Server {
	if zones == nil {
		zones = zone.Noop{}
	}
	return &Server{
		store:     store,
		verifier:  verifier,
		registrar: reg,
		zones:     zones,
	}
}

// Start begins listening on the given address. Blocks until the listener
// fails or Shutdown is called.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
