// File: internal/usecase/mocks_test.go
package usecase_test

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"ott-subscription-gateway/internal/domain/model"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// mockCRM is an in-memory CRM gateway. Every method records its name so
// tests can assert the exact call sequence; behavior is overridable per
// method through the Func hooks, with benign defaults otherwise.
type mockCRM struct {
	mu    sync.Mutex
	calls []string

	SearchContactsFunc       func(phone string) ([]model.Contact, error)
	CreateContactFunc        func(person model.PersonName, number string) (*model.Contact, error)
	ContactTagsFunc          func(contactID string) ([]model.Tag, error)
	RegisterTagsFunc         func(contactID string, tagIDs []string) ([]model.Tag, error)
	RegisterDeviceFunc       func(contactID string) (*model.Device, error)
	ContactAccountsFunc      func(contactID string) ([]model.Account, error)
	CreateAccountFunc        func(contactID string) (*model.Account, error)
	CreatePaymentFunc        func(contactID, accountID, reference string) (*model.Payment, error)
	CreateJournalEntryFunc   func(contactID, accountID string) (*model.JournalEntry, error)
	CreateSubscriptionFunc   func(contactID, accountID string) (*model.Subscription, error)
	ContactSubscriptionsFunc func(contactID string) ([]model.Subscription, error)
	AllowedDevicesFunc       func(subscriptionID string) ([]model.AllowedDevice, error)
	AddSubscriptionDevFunc   func(subscriptionID string, device model.DeviceRef) (bool, error)
	ContactServicesFunc      func(contactID string) ([]model.Service, error)
	AssignServiceDevsFunc    func(serviceID string, devices []model.DeviceRef) ([]model.DeviceRef, error)
	SubscriptionDevicesFunc  func(subscriptionID string) (*model.SubscriptionDevicePage, error)
}

func newMockCRM() *mockCRM { return &mockCRM{} }

func (m *mockCRM) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

// Calls returns a copy of the recorded call sequence.
func (m *mockCRM) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// MutationCalls filters the sequence down to CRM-mutating operations.
func (m *mockCRM) MutationCalls() []string {
	var out []string
	for _, c := range m.Calls() {
		switch c {
		case "CreateContact", "RegisterTags", "RegisterDevice", "CreateAccount",
			"CreatePayment", "CreateJournalEntry", "CreateSubscription",
			"AddSubscriptionDevice", "AssignServiceDevices":
			out = append(out, c)
		}
	}
	return out
}

func (m *mockCRM) SearchContacts(_ context.Context, phone string) ([]model.Contact, error) {
	m.record("SearchContacts")
	if m.SearchContactsFunc != nil {
		return m.SearchContactsFunc(phone)
	}
	return nil, nil
}

func (m *mockCRM) CreateContact(_ context.Context, person model.PersonName, number string) (*model.Contact, error) {
	m.record("CreateContact")
	if m.CreateContactFunc != nil {
		return m.CreateContactFunc(person, number)
	}
	return &model.Contact{ID: "contact-1", PersonName: &person, Phone: &model.Phone{Number: number}}, nil
}

func (m *mockCRM) ContactTags(_ context.Context, contactID string) ([]model.Tag, error) {
	m.record("ContactTags")
	if m.ContactTagsFunc != nil {
		return m.ContactTagsFunc(contactID)
	}
	return nil, nil
}

func (m *mockCRM) RegisterTags(_ context.Context, contactID string, tagIDs []string) ([]model.Tag, error) {
	m.record("RegisterTags")
	if m.RegisterTagsFunc != nil {
		return m.RegisterTagsFunc(contactID, tagIDs)
	}
	return []model.Tag{{ID: tagIDs[0], Name: model.OTTTagName}}, nil
}

func (m *mockCRM) RegisterDevice(_ context.Context, contactID string) (*model.Device, error) {
	m.record("RegisterDevice")
	if m.RegisterDeviceFunc != nil {
		return m.RegisterDeviceFunc(contactID)
	}
	return &model.Device{ID: "device-1", ContactID: contactID}, nil
}

func (m *mockCRM) ContactAccounts(_ context.Context, contactID string) ([]model.Account, error) {
	m.record("ContactAccounts")
	if m.ContactAccountsFunc != nil {
		return m.ContactAccountsFunc(contactID)
	}
	return nil, nil
}

func (m *mockCRM) CreateAccount(_ context.Context, contactID string) (*model.Account, error) {
	m.record("CreateAccount")
	if m.CreateAccountFunc != nil {
		return m.CreateAccountFunc(contactID)
	}
	return &model.Account{ID: "account-1"}, nil
}

func (m *mockCRM) CreatePayment(_ context.Context, contactID, accountID, reference string) (*model.Payment, error) {
	m.record("CreatePayment")
	if m.CreatePaymentFunc != nil {
		return m.CreatePaymentFunc(contactID, accountID, reference)
	}
	return &model.Payment{ID: "payment-1", AccountID: accountID, Reference: reference}, nil
}

func (m *mockCRM) CreateJournalEntry(_ context.Context, contactID, accountID string) (*model.JournalEntry, error) {
	m.record("CreateJournalEntry")
	if m.CreateJournalEntryFunc != nil {
		return m.CreateJournalEntryFunc(contactID, accountID)
	}
	return &model.JournalEntry{ID: "journal-1", EntityID: accountID}, nil
}

func (m *mockCRM) CreateSubscription(_ context.Context, contactID, accountID string) (*model.Subscription, error) {
	m.record("CreateSubscription")
	if m.CreateSubscriptionFunc != nil {
		return m.CreateSubscriptionFunc(contactID, accountID)
	}
	return &model.Subscription{ID: "sub-1", AccountID: accountID}, nil
}

func (m *mockCRM) ContactSubscriptions(_ context.Context, contactID string) ([]model.Subscription, error) {
	m.record("ContactSubscriptions")
	if m.ContactSubscriptionsFunc != nil {
		return m.ContactSubscriptionsFunc(contactID)
	}
	return nil, nil
}

func (m *mockCRM) AllowedDevices(_ context.Context, subscriptionID string) ([]model.AllowedDevice, error) {
	m.record("AllowedDevices")
	if m.AllowedDevicesFunc != nil {
		return m.AllowedDevicesFunc(subscriptionID)
	}
	return nil, nil
}

func (m *mockCRM) AddSubscriptionDevice(_ context.Context, subscriptionID string, device model.DeviceRef) (bool, error) {
	m.record("AddSubscriptionDevice")
	if m.AddSubscriptionDevFunc != nil {
		return m.AddSubscriptionDevFunc(subscriptionID, device)
	}
	return false, nil
}

func (m *mockCRM) ContactServices(_ context.Context, contactID string) ([]model.Service, error) {
	m.record("ContactServices")
	if m.ContactServicesFunc != nil {
		return m.ContactServicesFunc(contactID)
	}
	return nil, nil
}

func (m *mockCRM) AssignServiceDevices(_ context.Context, serviceID string, devices []model.DeviceRef) ([]model.DeviceRef, error) {
	m.record("AssignServiceDevices")
	if m.AssignServiceDevsFunc != nil {
		return m.AssignServiceDevsFunc(serviceID, devices)
	}
	return devices, nil
}

func (m *mockCRM) SubscriptionDevices(_ context.Context, subscriptionID string) (*model.SubscriptionDevicePage, error) {
	m.record("SubscriptionDevices")
	if m.SubscriptionDevicesFunc != nil {
		return m.SubscriptionDevicesFunc(subscriptionID)
	}
	return &model.SubscriptionDevicePage{}, nil
}
