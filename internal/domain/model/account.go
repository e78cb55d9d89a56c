package model

// Account is a financial account under a contact. Classification,
// currency and payment terms are fixed by configuration; at most one is
// created per new contact but an existing contact may already carry one.
type Account struct {
	ID               string `json:"id"`
	ClassificationID string `json:"classification_id,omitempty"`
	CurrencyCode     string `json:"currency_code,omitempty"`
	IsPrimary        bool   `json:"is_primary,omitempty"`
}

// AccountPage is the CRM listing envelope for contact accounts.
type AccountPage struct {
	Content []Account `json:"content"`
}

// Payment is a financial transaction created against an account. The
// reference string is caller-supplied; amount and currency are baked into
// configuration.
type Payment struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency_code"`
	Reference string `json:"reference"`
}

// JournalEntry is a manual credit entry against an account, used by the
// initial-credit variant of the provisioning flow.
type JournalEntry struct {
	ID       string `json:"id"`
	Action   string `json:"action"`
	Amount   string `json:"amount"`
	Currency string `json:"currency_code"`
	Entity   string `json:"entity"`
	EntityID string `json:"entity_id"`
	Notes    string `json:"notes"`
}
