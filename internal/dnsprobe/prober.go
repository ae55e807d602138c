// Package dnsprobe issues the DNS queries behind domain verification and
// classifies each answer as found, absent, or a transport failure.
//
// The distinction matters: NXDOMAIN and lookup timeouts mean "the domain
// owner has not published the record" (absent), while a resolver that cannot
// be reached says nothing about the domain at all (transport error). The
// verification engine treats the two very differently.
package dnsprobe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Outcome classifies a single probe.
type Outcome int

const (
	// Found means the expected record was present and well-formed.
	Found Outcome = iota
	// Absent means the record is missing, malformed, or the name does not
	// exist. Timeouts count as absent, not as hangs.
	Absent
	// TransportError means the resolver itself was unreachable; the probe
	// says nothing about the domain.
	TransportError
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case Absent:
		return "absent"
	default:
		return "transport_error"
	}
}

// Result is the outcome of one probe, with the underlying error for
// transport failures.
type Result struct {
	Outcome Outcome
	Err     error
}

// Verified reports whether the probe found the expected record.
func (r Result) Verified() bool { return r.Outcome == Found }

// Resolver is the subset of net.Resolver the prober needs. Tests substitute
// a fake; production uses *net.Resolver.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// Prober runs individual DNS probes with a bounded per-probe timeout.
type Prober struct {
	resolver Resolver
	timeout  time.Duration
}

// New creates a Prober. resolverAddr is an optional "host:port" of a
// specific recursive resolver; empty uses the system resolver.
func New(resolverAddr string, timeout time.Duration) *Prober {
	r := &net.Resolver{}
	if resolverAddr != "" {
		r = &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
				d := net.Dialer{Timeout: timeout}
				return d.DialContext(ctx, network, resolverAddr)
			},
		}
	}
	return &Prober{resolver: r, timeout: timeout}
}

// NewWithResolver creates a Prober around an explicit resolver (tests).
func NewWithResolver(r Resolver, timeout time.Duration) *Prober {
	return &Prober{resolver: r, timeout: timeout}
}

// ProbeMX checks for at least one valid MX record at the domain.
func (p *Prober) ProbeMX(ctx context.Context, name string) Result {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	records, err := p.resolver.LookupMX(ctx, name)
	if err != nil {
		return classify(err)
	}
	for _, mx := range records {
		if mx != nil && mx.Host != "" && mx.Host != "." {
			return Result{Outcome: Found}
		}
	}
	return Result{Outcome: Absent}
}

// ProbeSPF checks the TXT records at the bare domain for exactly one SPF
// record. Multiple SPF records is itself a failure per the standard's
// single-record rule.
func (p *Prober) ProbeSPF(ctx context.Context, name string) Result {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	records, err := p.resolver.LookupTXT(ctx, name)
	if err != nil {
		return classify(err)
	}
	count := 0
	for _, txt := range records {
		if strings.HasPrefix(strings.TrimSpace(strings.ToLower(txt)), "v=spf1") {
			count++
		}
	}
	if count == 1 {
		return Result{Outcome: Found}
	}
	return Result{Outcome: Absent}
}

// ProbeDKIM checks <selector>._domainkey.<domain> for a TXT record carrying
// a v=DKIM1 tag and a non-empty public-key (p=) tag.
func (p *Prober) ProbeDKIM(ctx context.Context, name, selector string) Result {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	host := fmt.Sprintf("%s._domainkey.%s", selector, name)
	records, err := p.resolver.LookupTXT(ctx, host)
	if err != nil {
		return classify(err)
	}
	for _, txt := range records {
		if dkimRecordValid(txt) {
			return Result{Outcome: Found}
		}
	}
	return Result{Outcome: Absent}
}

// ProbeDMARC checks _dmarc.<domain> for a TXT record beginning with v=DMARC1.
func (p *Prober) ProbeDMARC(ctx context.Context, name string) Result {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	records, err := p.resolver.LookupTXT(ctx, "_dmarc."+name)
	if err != nil {
		return classify(err)
	}
	for _, txt := range records {
		if strings.HasPrefix(strings.TrimSpace(txt), "v=DMARC1") {
			return Result{Outcome: Found}
		}
	}
	return Result{Outcome: Absent}
}

// dkimRecordValid checks a TXT record for the v=DKIM1 tag and a non-empty
// p= tag. Tag order is not significant per the DKIM spec.
func dkimRecordValid(txt string) bool {
	hasVersion := false
	hasKey := false
	for _, tag := range strings.Split(txt, ";") {
		tag = strings.TrimSpace(tag)
		switch {
		case tag == "v=DKIM1":
			hasVersion = true
		case strings.HasPrefix(tag, "p="):
			hasKey = len(strings.TrimSpace(strings.TrimPrefix(tag, "p="))) > 0
		}
	}
	return hasVersion && hasKey
}

// classify maps lookup errors onto probe outcomes. NXDOMAIN, empty answers
// and timeouts are "absent"; anything else means the resolver path itself
// failed.
func classify(err error) Result {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsNotFound || dnsErr.IsTimeout {
			return Result{Outcome: Absent}
		}
		return Result{Outcome: TransportError, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Result{Outcome: Absent}
	}
	return Result{Outcome: TransportError, Err: err}
}
