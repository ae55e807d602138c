package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Record types the registry synthesizes.
const (
	RecordMX    = "MX"
	RecordTXT   = "TXT"
	RecordCNAME = "CNAME"
)

// DefaultRecordTTL is the TTL advised for all synthesized records.
const DefaultRecordTTL = 3600

// DNSRecord is an advisory record the domain owner is expected to publish.
// The field shape is fixed for client compatibility; Priority is only
// meaningful for MX records and stays null otherwise.
type DNSRecord struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Value    string `json:"value"`
	Priority *int   `json:"priority"`
	TTL      int    `json:"ttl"`
}

// DNSRecords is stored as a jsonb column on the domain row.
type DNSRecords []DNSRecord

// Scan implements sql.Scanner for DNSRecords.
func (d *DNSRecords) Scan(value interface{}) error {
	if value == nil {
		*d = DNSRecords{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan type %T into DNSRecords", value)
	}
	return json.Unmarshal(b, d)
}

// Value implements driver.Valuer for DNSRecords.
func (d DNSRecords) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// ExpectedRecords synthesizes the four records a sending domain must publish:
// one MX, one SPF TXT, one DKIM TXT carrying the generated public key, and
// one DMARC TXT. The set is deterministic given (name, selector, dkimPublicKey)
// so repeated regeneration yields identical records.
func ExpectedRecords(name, selector, dkimPublicKey string) DNSRecords {
	mxPriority := 10
	return DNSRecords{
		{
			Type:     RecordMX,
			Name:     name,
			Value:    "mx." + name,
			Priority: &mxPriority,
			TTL:      DefaultRecordTTL,
		},
		{
			Type:  RecordTXT,
			Name:  name,
			Value: "v=spf1 mx include:_spf.ignitemail.io ~all",
			TTL:   DefaultRecordTTL,
		},
		{
			Type:  RecordTXT,
			Name:  fmt.Sprintf("%s._domainkey.%s", selector, name),
			Value: fmt.Sprintf("v=DKIM1; k=rsa; p=%s", dkimPublicKey),
			TTL:   DefaultRecordTTL,
		},
		{
			Type:  RecordTXT,
			Name:  "_dmarc." + name,
			Value: fmt.Sprintf("v=DMARC1; p=none; rua=mailto:dmarc@%s", name),
			TTL:   DefaultRecordTTL,
		},
	}
}
