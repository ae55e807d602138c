package registrar

// SearchResult is one availability row from the provider.
type SearchResult struct {
	Domain    string  `json:"domain"`
	Available bool    `json:"available"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
}

// PurchaseResult is the provider's purchase outcome. An unavailable or
// rejected domain comes back with Success=false and a populated Error, not a
// transport failure.
type PurchaseResult struct {
	Success       bool   `json:"success"`
	OrderID       string `json:"order_id,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	Domain        string `json:"domain"`
	Error         string `json:"error,omitempty"`
}

type searchRequest struct {
	Keyword string   `json:"keyword"`
	TLDs    []string `json:"tlds"`
}

type purchaseRequest struct {
	Domain      string   `json:"domain"`
	Years       int      `json:"years"`
	Nameservers []string `json:"nameservers,omitempty"`
}

type providerError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
