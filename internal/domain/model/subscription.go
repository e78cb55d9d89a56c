package model

// SubscriptionState is the CRM subscription state enumeration. Anything
// outside the three named values is carried through untouched.
type SubscriptionState string

const (
	SubscriptionStateActive   SubscriptionState = "ACTIVE"
	SubscriptionStateInactive SubscriptionState = "INACTIVE"
	SubscriptionStateChurned  SubscriptionState = "CHURNED"
)

// Subscription belongs to an account. A contact's "current" subscription
// is the first entry of the CRM listing.
type Subscription struct {
	ID        string            `json:"id"`
	AccountID string            `json:"account_id,omitempty"`
	State     SubscriptionState `json:"state"`
}

// SubscriptionPage is the CRM listing envelope for contact subscriptions.
type SubscriptionPage struct {
	Content []Subscription `json:"content"`
}

// Service is a CRM service record under a contact; device assignment is
// keyed by the first service's id.
type Service struct {
	ID string `json:"id"`
}

// ServicePage is the CRM listing envelope for contact services.
type ServicePage struct {
	Content []Service `json:"content"`
}

// SubscriptionSummary is the flattened view the orchestrator branches on.
// SubscriptionID is empty when the contact has no subscription at all.
type SubscriptionSummary struct {
	SubscriptionID string
	State          SubscriptionState
	DeviceIDs      []DeviceRef
	CustomFields   map[string]any
	FirstName      string
	LastName       string
	Number         string
}

// Subscribed reports whether the summary's state counts as an active
// subscription.
func (s SubscriptionSummary) Subscribed() bool {
	return s.State == SubscriptionStateActive
}

// HasSubscription reports whether the CRM returned any subscription.
func (s SubscriptionSummary) HasSubscription() bool {
	return s.SubscriptionID != ""
}
