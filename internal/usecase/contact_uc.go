// File: internal/usecase/contact_uc.go
package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ott-subscription-gateway/internal/domain"
	"ott-subscription-gateway/internal/domain/model"
	"ott-subscription-gateway/internal/domain/ports/adapter"
	"ott-subscription-gateway/internal/infra/logging"
)

// ResolutionState is the outcome of resolving a phone number against the CRM.
type ResolutionState int

const (
	// StateNotFound: no contact matches the number.
	StateNotFound ResolutionState = iota
	// StateIneligible: a contact exists but lacks the required tag.
	StateIneligible
	// StateEligible: contact exists and carries the tag; Summary holds the
	// current subscription view.
	StateEligible
)

// ContactState is the resolver output the orchestrator branches on.
type ContactState struct {
	State     ResolutionState
	ContactID string
	Summary   model.SubscriptionSummary
}

// CustomerDetails is the read-only lookup view for the customer endpoint.
type CustomerDetails struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Tag        string `json:"tag"`
	Number     string `json:"number"`
	Subscribed bool   `json:"subscribed"`
}

// ContactResolver answers "does this number belong to a tagged contact,
// and what is its current subscription" questions against the CRM.
type ContactResolver struct {
	crm adapter.CRMGateway
	log *zerolog.Logger
}

func NewContactResolver(crm adapter.CRMGateway, logger *zerolog.Logger) *ContactResolver {
	return &ContactResolver{crm: crm, log: logger}
}

// Resolve classifies the phone number. Only the first CRM match is
// considered; listing order is authoritative. CRM errors propagate
// unchanged to the caller.
func (r *ContactResolver) Resolve(ctx context.Context, phoneNumber string, person model.PersonName) (*ContactState, error) {
	contacts, err := r.crm.SearchContacts(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return &ContactState{State: StateNotFound}, nil
	}

	contactID := contacts[0].ID
	ctx = logging.WithContactID(ctx, contactID)

	tags, err := r.crm.ContactTags(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if !hasOTTTag(tags) {
		return &ContactState{State: StateIneligible, ContactID: contactID}, nil
	}

	summary, err := r.SubscriptionDetails(ctx, contactID, person, phoneNumber)
	if err != nil {
		return nil, err
	}
	return &ContactState{State: StateEligible, ContactID: contactID, Summary: summary}, nil
}

// Lookup serves the read-only customer endpoint. Unlike Resolve it never
// runs the device chain, and a failing subscriptions fetch is logged and
// treated as "not subscribed" rather than aborting the lookup.
func (r *ContactResolver) Lookup(ctx context.Context, phoneNumber string) (*CustomerDetails, error) {
	contacts, err := r.crm.SearchContacts(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, domain.ErrContactNotFound
	}

	contact := contacts[0]
	ctx = logging.WithContactID(ctx, contact.ID)

	tags, err := r.crm.ContactTags(ctx, contact.ID)
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("failed to fetch contact tags")
		return nil, err
	}
	if !hasOTTTag(tags) {
		return nil, domain.ErrTagMissing
	}

	details := &CustomerDetails{
		ID:     uuid.NewString(),
		Name:   contact.Name,
		Tag:    model.OTTTagName,
		Number: phoneNumber,
	}

	subs, err := r.crm.ContactSubscriptions(ctx, contact.ID)
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("failed to fetch subscriptions during lookup")
		return details, nil
	}
	if len(subs) > 0 {
		details.Subscribed = subs[0].State == model.SubscriptionStateActive
	}
	return details, nil
}

// SubscriptionDetails fetches the contact's current subscription (first
// CRM entry) and, when one exists, re-runs the device enablement chain:
// allowed devices are fetched, the first is registered against the
// subscription, and all are enabled on the contact's first service, which
// in turn pulls custom fields. The chain mutates CRM device state on what
// is otherwise a read path; callers rely on that behavior.
func (r *ContactResolver) SubscriptionDetails(ctx context.Context, contactID string, person model.PersonName, number string) (model.SubscriptionSummary, error) {
	summary := model.SubscriptionSummary{
		FirstName: person.FirstName,
		LastName:  person.LastName,
		Number:    number,
	}

	subs, err := r.crm.ContactSubscriptions(ctx, contactID)
	if err != nil {
		return summary, err
	}
	if len(subs) == 0 {
		return summary, nil
	}

	summary.SubscriptionID = subs[0].ID
	summary.State = subs[0].State

	assignment, err := r.provisionDevices(ctx, contactID, subs[0].ID)
	if err != nil {
		return summary, err
	}
	summary.DeviceIDs = assignment.DeviceIDs
	summary.CustomFields = assignment.CustomFields
	return summary, nil
}

// provisionDevices walks the allowed-devices / register / enable chain.
// Each step short-circuits to an empty assignment when the CRM returns
// nothing to act on.
func (r *ContactResolver) provisionDevices(ctx context.Context, contactID, subscriptionID string) (model.DeviceAssignment, error) {
	var out model.DeviceAssignment

	allowed, err := r.crm.AllowedDevices(ctx, subscriptionID)
	if err != nil {
		return out, err
	}
	if len(allowed) == 0 {
		return out, nil
	}

	refs := make([]model.DeviceRef, len(allowed))
	for i, a := range allowed {
		refs[i] = model.DeviceRef{DeviceID: a.Device.ID}
	}
	if len(refs) > 1 {
		logging.With(ctx, r.log).Warn().Int("count", len(refs)).
			Msg("multiple allowed devices; registering first only")
	}

	added, err := r.crm.AddSubscriptionDevice(ctx, subscriptionID, refs[0])
	if err != nil {
		return out, err
	}
	if !added {
		return out, nil
	}

	services, err := r.crm.ContactServices(ctx, contactID)
	if err != nil {
		return out, err
	}
	if len(services) == 0 {
		return out, nil
	}

	assigned, err := r.crm.AssignServiceDevices(ctx, services[0].ID, refs)
	if err != nil {
		return out, err
	}
	out.DeviceIDs = assigned

	devices, err := r.crm.SubscriptionDevices(ctx, subscriptionID)
	if err != nil {
		return out, err
	}
	if devices != nil {
		out.CustomFields = devices.CustomFields
	}
	return out, nil
}

func hasOTTTag(tags []model.Tag) bool {
	for _, t := range tags {
		if t.Name == model.OTTTagName {
			return true
		}
	}
	return false
}
