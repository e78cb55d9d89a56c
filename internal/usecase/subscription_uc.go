// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ott-subscription-gateway/internal/config"
	"ott-subscription-gateway/internal/domain"
	"ott-subscription-gateway/internal/domain/model"
	"ott-subscription-gateway/internal/domain/ports/adapter"
	"ott-subscription-gateway/internal/infra/logging"
	"ott-subscription-gateway/internal/infra/metrics"
)

const pipelineOp = "Subscription process"

// SubscribeRequest is the validated inbound subscribe payload.
type SubscribeRequest struct {
	FirstName  string
	LastName   string
	Number     string
	PaymentRef string
}

// SubscriberData is the normalized data block of a successful outcome.
type SubscriberData struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstname"`
	LastName   string `json:"lastname"`
	Tag        string `json:"tag"`
	Number     string `json:"number"`
	Subscribed bool   `json:"subscribed"`
}

// Outcome is a terminal orchestration result: the HTTP status to emit
// plus the envelope fields.
type Outcome struct {
	Code    int
	Message string
	Data    *SubscriberData
}

// SubscriptionUseCase is the provisioning state machine. Given a resolved
// contact state it runs one of the pipelines below, each a strict
// sequence of CRM calls with no compensation on failure:
//
//   - no contact          -> full pipeline: contact, tag, device, account,
//     payment, subscription, detail fetch (outer deadline applies)
//   - untagged contact    -> 409, no mutation
//   - active subscription -> 200, no mutation (idempotent)
//   - INACTIVE            -> reuse account, payment ("re-activated")
//   - CHURNED             -> reuse account, payment, new subscription
//   - anything else       -> device, account, payment, subscription
type SubscriptionUseCase struct {
	crm      adapter.CRMGateway
	resolver *ContactResolver
	cfg      config.CRMConfig
	log      *zerolog.Logger
}

func NewSubscriptionUseCase(crm adapter.CRMGateway, resolver *ContactResolver, cfg config.CRMConfig, logger *zerolog.Logger) *SubscriptionUseCase {
	return &SubscriptionUseCase{crm: crm, resolver: resolver, cfg: cfg, log: logger}
}

// Subscribe resolves the contact and runs the matching pipeline. Mutating
// pipelines abort on the first failed step; completed CRM side effects
// stay in place.
func (uc *SubscriptionUseCase) Subscribe(ctx context.Context, req SubscribeRequest) (*Outcome, error) {
	defer logging.TraceDuration(uc.log, "SubscriptionUC.Subscribe")()
	ctx = logging.WithPhone(ctx, req.Number)
	person := model.PersonName{FirstName: req.FirstName, LastName: req.LastName}

	state, err := uc.resolver.Resolve(ctx, req.Number, person)
	if err != nil {
		metrics.IncProvisioning("failed")
		return nil, err
	}

	switch state.State {
	case StateIneligible:
		metrics.IncProvisioning("rejected")
		return &Outcome{
			Code:    http.StatusConflict,
			Message: "Dhiraagu OTT tag not found for contact",
		}, nil

	case StateEligible:
		if state.Summary.Subscribed() {
			metrics.IncProvisioning("already_active")
			return &Outcome{
				Code:    http.StatusOK,
				Message: "success",
				Data:    dataFrom(state.Summary, model.OTTTagName, true),
			}, nil
		}
		return uc.resubscribe(ctx, state, req)

	default: // StateNotFound
		logging.With(ctx, uc.log).Info().Msg("contact not found, proceeding with contact creation")
		return uc.provisionNewContact(ctx, req)
	}
}

// provisionNewContact is the full pipeline for an unknown number, bounded
// as a whole by the configured pipeline deadline in addition to the
// per-call budgets. The deadline cancels the context handed to the steps,
// so an in-flight CRM call is aborted rather than left racing.
func (uc *SubscriptionUseCase) provisionNewContact(ctx context.Context, req SubscribeRequest) (*Outcome, error) {
	pctx, cancel := context.WithTimeout(ctx, uc.cfg.PipelineTimeout)
	defer cancel()

	type result struct {
		out *Outcome
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := uc.runNewContactPipeline(pctx, req)
		done <- result{out, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			metrics.IncProvisioning("failed")
			return nil, res.err
		}
		metrics.IncProvisioning("new_contact")
		return res.out, nil
	case <-pctx.Done():
		metrics.IncProvisioning("failed")
		return nil, domain.NewTimeout(pipelineOp, uc.cfg.PipelineTimeout)
	}
}

func (uc *SubscriptionUseCase) runNewContactPipeline(ctx context.Context, req SubscribeRequest) (*Outcome, error) {
	person := model.PersonName{FirstName: req.FirstName, LastName: req.LastName}

	contact, err := uc.crm.CreateContact(ctx, person, req.Number)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithContactID(ctx, contact.ID)

	tags, err := uc.crm.RegisterTags(ctx, contact.ID, []string{uc.cfg.DefaultTagID})
	if err != nil {
		return nil, err
	}
	tagName := model.OTTTagName
	for _, t := range tags {
		if t.ID == uc.cfg.DefaultTagID && t.Name != "" {
			tagName = t.Name
		}
	}

	if _, err := uc.crm.RegisterDevice(ctx, contact.ID); err != nil {
		return nil, err
	}

	account, err := uc.crm.CreateAccount(ctx, contact.ID)
	if err != nil {
		return nil, err
	}

	if uc.cfg.InitialCredit {
		if _, err := uc.crm.CreateJournalEntry(ctx, contact.ID, account.ID); err != nil {
			return nil, err
		}
	}

	if _, err := uc.crm.CreatePayment(ctx, contact.ID, account.ID, req.PaymentRef); err != nil {
		return nil, err
	}

	if _, err := uc.crm.CreateSubscription(ctx, contact.ID, account.ID); err != nil {
		return nil, err
	}

	summary, err := uc.resolver.SubscriptionDetails(ctx, contact.ID, person, req.Number)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Code:    http.StatusCreated,
		Message: "success",
		Data:    dataFrom(summary, tagName, summary.HasSubscription()),
	}, nil
}

// resubscribe handles an eligible contact whose current subscription is
// not active: INACTIVE gets a reactivation charge, CHURNED gets a charge
// plus a fresh subscription, anything else (including no subscription at
// all) gets the device/account/payment/subscription sequence.
func (uc *SubscriptionUseCase) resubscribe(ctx context.Context, state *ContactState, req SubscribeRequest) (*Outcome, error) {
	ctx = logging.WithContactID(ctx, state.ContactID)
	person := model.PersonName{FirstName: req.FirstName, LastName: req.LastName}

	switch state.Summary.State {
	case model.SubscriptionStateInactive:
		account, err := uc.fetchOrCreateAccount(ctx, state.ContactID)
		if err != nil {
			metrics.IncProvisioning("failed")
			return nil, err
		}
		if _, err := uc.crm.CreatePayment(ctx, state.ContactID, account.ID, req.PaymentRef); err != nil {
			metrics.IncProvisioning("failed")
			return nil, err
		}
		metrics.IncProvisioning("reactivated")
		return &Outcome{
			Code:    http.StatusOK,
			Message: "subscription re-activated",
			Data:    dataFrom(state.Summary, model.OTTTagName, true),
		}, nil

	case model.SubscriptionStateChurned:
		account, err := uc.fetchOrCreateAccount(ctx, state.ContactID)
		if err != nil {
			metrics.IncProvisioning("failed")
			return nil, err
		}
		if _, err := uc.crm.CreatePayment(ctx, state.ContactID, account.ID, req.PaymentRef); err != nil {
			metrics.IncProvisioning("failed")
			return nil, err
		}
		if _, err := uc.crm.CreateSubscription(ctx, state.ContactID, account.ID); err != nil {
			metrics.IncProvisioning("failed")
			return nil, err
		}
		summary, err := uc.resolver.SubscriptionDetails(ctx, state.ContactID, person, req.Number)
		if err != nil {
			metrics.IncProvisioning("failed")
			return nil, err
		}
		metrics.IncProvisioning("recreated")
		return &Outcome{
			Code:    http.StatusCreated,
			Message: "success",
			Data:    dataFrom(summary, model.OTTTagName, summary.HasSubscription()),
		}, nil

	default:
		if _, err := uc.crm.RegisterDevice(ctx, state.ContactID); err != nil {
			metrics.IncProvisioning("failed")
			return nil, err
		}
		account, err := uc.fetchOrCreateAccount(ctx, state.ContactID)
		if err != nil {
			metrics.IncProvisioning("failed")
			return nil, err
		}
		if _, err := uc.crm.CreatePayment(ctx, state.ContactID, account.ID, req.PaymentRef); err != nil {
			metrics.IncProvisioning("failed")
			return nil, err
		}
		if _, err := uc.crm.CreateSubscription(ctx, state.ContactID, account.ID); err != nil {
			metrics.IncProvisioning("failed")
			return nil, err
		}
		summary, err := uc.resolver.SubscriptionDetails(ctx, state.ContactID, person, req.Number)
		if err != nil {
			metrics.IncProvisioning("failed")
			return nil, err
		}
		metrics.IncProvisioning("provisioned")
		return &Outcome{
			Code:    http.StatusCreated,
			Message: "success",
			Data:    dataFrom(summary, model.OTTTagName, summary.HasSubscription()),
		}, nil
	}
}

// fetchOrCreateAccount reuses the contact's first existing account and
// creates one only when none exists.
func (uc *SubscriptionUseCase) fetchOrCreateAccount(ctx context.Context, contactID string) (*model.Account, error) {
	accounts, err := uc.crm.ContactAccounts(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if len(accounts) > 0 {
		return &accounts[0], nil
	}
	return uc.crm.CreateAccount(ctx, contactID)
}

func dataFrom(summary model.SubscriptionSummary, tag string, subscribed bool) *SubscriberData {
	return &SubscriberData{
		ID:         uuid.NewString(),
		FirstName:  summary.FirstName,
		LastName:   summary.LastName,
		Tag:        tag,
		Number:     summary.Number,
		Subscribed: subscribed,
	}
}
