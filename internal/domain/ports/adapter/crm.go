package adapter

import (
	"context"

	"ott-subscription-gateway/internal/domain/model"
)

// CRMGateway is the hex port for the external CRM. Every method issues a
// single REST call bounded by an operation-specific timeout; failures are
// normalized into *domain.Error by the implementation. The CRM owns all
// entity identity and lifecycle; callers re-fetch rather than cache.
type CRMGateway interface {
	// SearchContacts looks contacts up by exact phone number. Listing
	// order is CRM-determined and authoritative.
	SearchContacts(ctx context.Context, phoneNumber string) ([]model.Contact, error)

	// CreateContact provisions a new contact from name parts and number.
	CreateContact(ctx context.Context, person model.PersonName, number string) (*model.Contact, error)

	// ContactTags lists the tags attached to a contact.
	ContactTags(ctx context.Context, contactID string) ([]model.Tag, error)

	// RegisterTags attaches the given tag ids to a contact and returns the
	// contact's resulting tag set as reported by the CRM.
	RegisterTags(ctx context.Context, contactID string, tagIDs []string) ([]model.Tag, error)

	// RegisterDevice creates a device for the contact with a freshly
	// generated serial number and the configured product id.
	RegisterDevice(ctx context.Context, contactID string) (*model.Device, error)

	// ContactAccounts lists the contact's financial accounts.
	ContactAccounts(ctx context.Context, contactID string) ([]model.Account, error)

	// CreateAccount opens an account under the contact with the configured
	// classification, currency and payment terms.
	CreateAccount(ctx context.Context, contactID string) (*model.Account, error)

	// CreatePayment records a payment against the account carrying the
	// caller-supplied reference and the configured amount/currency.
	CreatePayment(ctx context.Context, contactID, accountID, reference string) (*model.Payment, error)

	// CreateJournalEntry credits the account with the fixed initial amount.
	CreateJournalEntry(ctx context.Context, contactID, accountID string) (*model.JournalEntry, error)

	// CreateSubscription creates a subscription on the account. On a CRM
	// rejection of the primary price-terms id whose message contains
	// "Invalid value", it retries once with the configured fallback id.
	CreateSubscription(ctx context.Context, contactID, accountID string) (*model.Subscription, error)

	// ContactSubscriptions lists the contact's subscriptions, first entry
	// being the current one.
	ContactSubscriptions(ctx context.Context, contactID string) ([]model.Subscription, error)

	// AllowedDevices lists device ids the CRM permits for a subscription.
	AllowedDevices(ctx context.Context, subscriptionID string) ([]model.AllowedDevice, error)

	// AddSubscriptionDevice registers a device against the subscription.
	AddSubscriptionDevice(ctx context.Context, subscriptionID string, device model.DeviceRef) (added bool, err error)

	// ContactServices lists the contact's services.
	ContactServices(ctx context.Context, contactID string) ([]model.Service, error)

	// AssignServiceDevices enables the given devices on a service.
	AssignServiceDevices(ctx context.Context, serviceID string, devices []model.DeviceRef) ([]model.DeviceRef, error)

	// SubscriptionDevices fetches the subscription's devices including
	// custom fields.
	SubscriptionDevices(ctx context.Context, subscriptionID string) (*model.SubscriptionDevicePage, error)
}
