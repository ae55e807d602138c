package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ignite/domain-manager/internal/domain"
	"github.com/ignite/domain-manager/internal/pkg/httputil"
	"github.com/ignite/domain-manager/internal/pkg/logger"
)

type createDomainRequest struct {
	DomainName string `json:"domain_name"`
	Selector   string `json:"selector,omitempty"`
}

type createDomainResponse struct {
	DomainID   uuid.UUID         `json:"domain_id"`
	DomainName string            `json:"domain_name"`
	Records    domain.DNSRecords `json:"records"`
}

type dnsRecordsResponse struct {
	DomainID   uuid.UUID         `json:"domain_id"`
	DomainName string            `json:"domain_name"`
	Records    domain.DNSRecords `json:"records"`
}

type healthDetails struct {
	MX    bool `json:"mx"`
	SPF   bool `json:"spf"`
	DKIM  bool `json:"dkim"`
	DMARC bool `json:"dmarc"`
}

type domainHealthResponse struct {
	DomainID    uuid.UUID     `json:"domain_id"`
	HealthScore int           `json:"health_score"`
	Status      string        `json:"status"`
	AllVerified bool          `json:"all_verified"`
	Details     healthDetails `json:"details"`
}

type searchDomainsRequest struct {
	Keyword string   `json:"keyword"`
	TLDs    []string `json:"tlds,omitempty"`
}

type purchaseDomainRequest struct {
	Domain      string   `json:"domain"`
	Years       int      `json:"years,omitempty"`
	Nameservers []string `json:"nameservers,omitempty"`
}

type recordSendRequest struct {
	Count int `json:"count"`
}

type recordSendResponse struct {
	DomainID  uuid.UUID `json:"domain_id"`
	SentToday int       `json:"sent_today"`
}

func (s *Server) handleListDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := s.store.List(r.Context(), teamFromContext(r.Context()))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if domains == nil {
		domains = []*domain.Domain{}
	}
	httputil.OK(w, domains)
}

func (s *Server) handleGetDomain(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	d, err := s.store.Get(r.Context(), teamFromContext(r.Context()), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	httputil.OK(w, d)
}

func (s *Server) handleCreateDomain(w http.ResponseWriter, r *http.Request) {
	var req createDomainRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.DomainName == "" {
		httputil.BadRequest(w, "missing_domain_name", "domain_name is required")
		return
	}

	d, err := s.store.Create(r.Context(), teamFromContext(r.Context()), req.DomainName, req.Selector)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	// Zone provisioning is best-effort: a provider failure never rolls back
	// the registry record.
	if zoneID, err := s.zones.Create(r.Context(), d.Name); err != nil {
		logger.Warn("zone provisioning failed", "domain", d.Name, "error", err.Error())
	} else if zoneID != "" {
		if err := s.store.SetZoneID(r.Context(), d.ID, zoneID); err != nil {
			logger.Warn("failed to record zone id", "domain", d.Name, "error", err.Error())
		}
	}

	httputil.Created(w, createDomainResponse{
		DomainID:   d.ID,
		DomainName: d.Name,
		Records:    d.Records,
	})
}

func (s *Server) handleDeleteDomain(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	zoneID, err := s.store.Delete(r.Context(), teamFromContext(r.Context()), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	// The registry record is already gone; zone cleanup failures are logged
	// and never surfaced to the caller.
	if zoneID != "" {
		if err := s.zones.Release(r.Context(), zoneID); err != nil {
			logger.Warn("zone release failed, external resource orphaned",
				"domain_id", id.String(),
				"zone_id", zoneID,
				"error", err.Error(),
			)
		}
	}

	httputil.NoContent(w)
}

func (s *Server) handleVerifyDomain(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	res, err := s.verifier.Verify(r.Context(), teamFromContext(r.Context()), id)
	if err != nil {
		if errors.Is(err, domain.ErrResolverUnavailable) {
			httputil.Error(w, http.StatusServiceUnavailable, "resolver_unavailable", err.Error())
			return
		}
		writeDomainErr(w, err)
		return
	}
	httputil.OK(w, res)
}

func (s *Server) handleGetDNSRecords(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	d, err := s.store.Get(r.Context(), teamFromContext(r.Context()), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	httputil.OK(w, dnsRecordsResponse{
		DomainID:   d.ID,
		DomainName: d.Name,
		Records:    d.Records,
	})
}

func (s *Server) handleGetDomainHealth(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	d, err := s.store.Get(r.Context(), teamFromContext(r.Context()), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	httputil.OK(w, domainHealthResponse{
		DomainID:    d.ID,
		HealthScore: d.HealthScore,
		Status:      domain.HealthBucket(d.HealthScore),
		AllVerified: d.AllVerified(),
		Details: healthDetails{
			MX:    d.MXVerified,
			SPF:   d.SPFVerified,
			DKIM:  d.DKIMVerified,
			DMARC: d.DMARCVerified,
		},
	})
}

func (s *Server) handleSearchDomains(w http.ResponseWriter, r *http.Request) {
	if s.registrar == nil {
		httputil.Error(w, http.StatusNotImplemented, "registrar_disabled", "domain purchasing is not enabled")
		return
	}
	var req searchDomainsRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Keyword == "" {
		httputil.BadRequest(w, "missing_keyword", "keyword is required")
		return
	}

	results, err := s.registrar.Search(r.Context(), req.Keyword, req.TLDs)
	if err != nil {
		writeRegistrarErr(w, err)
		return
	}
	httputil.OK(w, map[string]any{"results": results})
}

func (s *Server) handlePurchaseDomain(w http.ResponseWriter, r *http.Request) {
	if s.registrar == nil {
		httputil.Error(w, http.StatusNotImplemented, "registrar_disabled", "domain purchasing is not enabled")
		return
	}
	var req purchaseDomainRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Domain == "" {
		httputil.BadRequest(w, "missing_domain", "domain is required")
		return
	}

	res, err := s.registrar.Purchase(r.Context(), req.Domain, req.Years, req.Nameservers)
	if err != nil {
		if errors.Is(err, domain.ErrPurchaseAmbiguous) {
			httputil.Error(w, http.StatusGatewayTimeout, "purchase_ambiguous", err.Error())
			return
		}
		writeRegistrarErr(w, err)
		return
	}
	httputil.OK(w, res)
}

func (s *Server) handleRecordSend(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req recordSendRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Count <= 0 {
		httputil.BadRequest(w, "invalid_count", "count must be positive")
		return
	}

	sent, err := s.store.RecordSend(r.Context(), teamFromContext(r.Context()), id, req.Count)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	httputil.OK(w, recordSendResponse{DomainID: id, SentToday: sent})
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.BadRequest(w, "invalid_id", "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func writeDomainErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		httputil.NotFound(w, "domain not found")
	case errors.Is(err, domain.ErrDuplicateDomain):
		httputil.Conflict(w, "duplicate_domain", err.Error())
	case domain.IsValidation(err):
		httputil.BadRequest(w, "validation", err.Error())
	default:
		httputil.InternalError(w, err)
	}
}

func writeRegistrarErr(w http.ResponseWriter, err error) {
	var re *domain.RegistrarError
	if errors.As(err, &re) {
		httputil.BadGateway(w, "registrar_error", re.Error())
		return
	}
	httputil.InternalError(w, err)
}
