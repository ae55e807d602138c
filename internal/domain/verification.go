package domain

// VerificationResult is a point-in-time verification report. It is ephemeral:
// never persisted as its own entity, only folded into the Domain's booleans
// and timestamp. The JSON field names are part of the client contract.
type VerificationResult struct {
	Domain      string `json:"domain"`
	MXVerified  bool   `json:"mx_verified"`
	SPFValid    bool   `json:"spf_valid"`
	DKIMValid   bool   `json:"dkim_valid"`
	DMARCValid  bool   `json:"dmarc_valid"`
	AllVerified bool   `json:"all_verified"`
}

// NewVerificationResult builds a result with the aggregate derived from the
// four mechanisms.
func NewVerificationResult(name string, mx, spf, dkim, dmarc bool) VerificationResult {
	return VerificationResult{
		Domain:      name,
		MXVerified:  mx,
		SPFValid:    spf,
		DKIMValid:   dkim,
		DMARCValid:  dmarc,
		AllVerified: mx && spf && dkim && dmarc,
	}
}
