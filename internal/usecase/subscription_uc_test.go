//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"ott-subscription-gateway/internal/config"
	"ott-subscription-gateway/internal/domain"
	"ott-subscription-gateway/internal/domain/model"
	"ott-subscription-gateway/internal/usecase"
)

func testCRMConfig() config.CRMConfig {
	return config.CRMConfig{
		BaseURL:          "http://crm.local",
		APIKey:           "key",
		DefaultTagID:     "tag-ott",
		DeviceProductID:  "prod-device",
		ClassificationID: "class-1",
		CurrencyCode:     "MVR",
		PaymentTermsID:   "terms-1",
		PriceTermsID:     "price-1",
		PriceTermsID2:    "price-2",
		ServiceProductID: "prod-service",
		PaymentAmount:    "35.00",
		CallTimeout:      2 * time.Second,
		ContactTimeout:   5 * time.Second,
		PipelineTimeout:  14 * time.Second,
	}
}

func newSubscriptionUC(crm *mockCRM, cfg config.CRMConfig) *usecase.SubscriptionUseCase {
	logger := newTestLogger()
	resolver := usecase.NewContactResolver(crm, logger)
	return usecase.NewSubscriptionUseCase(crm, resolver, cfg, logger)
}

func subscribeReq() usecase.SubscribeRequest {
	return usecase.SubscribeRequest{
		FirstName:  "Ali",
		LastName:   "Didi",
		Number:     "7771234",
		PaymentRef: "PR1",
	}
}

func TestSubscribe_NewContactPipeline(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown number runs the full pipeline in order", func(t *testing.T) {
		// --- Arrange ---
		crm := newMockCRM()
		uc := newSubscriptionUC(crm, testCRMConfig())

		// --- Act ---
		out, err := uc.Subscribe(ctx, subscribeReq())

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if out.Code != http.StatusCreated {
			t.Errorf("expected 201, got %d", out.Code)
		}
		want := []string{
			"SearchContacts",
			"CreateContact",
			"RegisterTags",
			"RegisterDevice",
			"CreateAccount",
			"CreatePayment",
			"CreateSubscription",
			"ContactSubscriptions",
		}
		if got := crm.Calls(); !reflect.DeepEqual(got, want) {
			t.Errorf("call order mismatch:\n got  %v\n want %v", got, want)
		}
		if out.Data == nil {
			t.Fatal("expected data block")
		}
		if out.Data.FirstName != "Ali" || out.Data.LastName != "Didi" {
			t.Errorf("unexpected name parts: %+v", out.Data)
		}
		if out.Data.Tag != model.OTTTagName {
			t.Errorf("expected tag %q, got %q", model.OTTTagName, out.Data.Tag)
		}
		if out.Data.Number != "7771234" {
			t.Errorf("unexpected number %q", out.Data.Number)
		}
		if out.Data.ID == "" {
			t.Error("expected a fresh identifier in data.id")
		}
	})

	t.Run("initial credit variant inserts a journal entry after the account", func(t *testing.T) {
		crm := newMockCRM()
		cfg := testCRMConfig()
		cfg.InitialCredit = true
		uc := newSubscriptionUC(crm, cfg)

		if _, err := uc.Subscribe(ctx, subscribeReq()); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		want := []string{
			"SearchContacts",
			"CreateContact",
			"RegisterTags",
			"RegisterDevice",
			"CreateAccount",
			"CreateJournalEntry",
			"CreatePayment",
			"CreateSubscription",
			"ContactSubscriptions",
		}
		if got := crm.Calls(); !reflect.DeepEqual(got, want) {
			t.Errorf("call order mismatch:\n got  %v\n want %v", got, want)
		}
	})

	t.Run("a failed step aborts the rest of the pipeline", func(t *testing.T) {
		crm := newMockCRM()
		crm.CreateAccountFunc = func(string) (*model.Account, error) {
			return nil, domain.NewCRMFailure("Account creation", "boom", 500)
		}
		uc := newSubscriptionUC(crm, testCRMConfig())

		_, err := uc.Subscribe(ctx, subscribeReq())

		if err == nil {
			t.Fatal("expected error")
		}
		for _, c := range crm.Calls() {
			if c == "CreatePayment" || c == "CreateSubscription" {
				t.Errorf("step %s must not run after account creation failed", c)
			}
		}
	})

	t.Run("pipeline deadline fires independently of per-call budgets", func(t *testing.T) {
		crm := newMockCRM()
		crm.CreateContactFunc = func(person model.PersonName, number string) (*model.Contact, error) {
			time.Sleep(80 * time.Millisecond)
			return &model.Contact{ID: "contact-1"}, nil
		}
		cfg := testCRMConfig()
		cfg.PipelineTimeout = 20 * time.Millisecond
		uc := newSubscriptionUC(crm, cfg)

		_, err := uc.Subscribe(ctx, subscribeReq())

		var de *domain.Error
		if !errors.As(err, &de) {
			t.Fatalf("expected *domain.Error, got %v", err)
		}
		if de.Kind != domain.KindTimeout {
			t.Errorf("expected timeout kind, got %s", de.Kind)
		}
		if de.Message != "Subscription process timed out after 20ms" {
			t.Errorf("unexpected message %q", de.Message)
		}
	})
}

func TestSubscribe_ExistingContact(t *testing.T) {
	ctx := context.Background()

	withContact := func(crm *mockCRM, tagged bool) {
		crm.SearchContactsFunc = func(string) ([]model.Contact, error) {
			return []model.Contact{{ID: "contact-9", Name: "Ali Didi"}}, nil
		}
		if tagged {
			crm.ContactTagsFunc = func(string) ([]model.Tag, error) {
				return []model.Tag{{ID: "tag-ott", Name: model.OTTTagName}}, nil
			}
		}
	}

	t.Run("contact without the tag is rejected with 409 and zero mutations", func(t *testing.T) {
		crm := newMockCRM()
		withContact(crm, false)
		crm.ContactTagsFunc = func(string) ([]model.Tag, error) {
			return []model.Tag{{ID: "t1", Name: "Some Other Tag"}}, nil
		}
		uc := newSubscriptionUC(crm, testCRMConfig())

		out, err := uc.Subscribe(ctx, subscribeReq())

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if out.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", out.Code)
		}
		if muts := crm.MutationCalls(); len(muts) != 0 {
			t.Errorf("expected zero CRM mutations, got %v", muts)
		}
	})

	t.Run("active subscription short-circuits with 200 and no new provisioning", func(t *testing.T) {
		crm := newMockCRM()
		withContact(crm, true)
		crm.ContactSubscriptionsFunc = func(string) ([]model.Subscription, error) {
			return []model.Subscription{{ID: "sub-9", State: model.SubscriptionStateActive}}, nil
		}
		uc := newSubscriptionUC(crm, testCRMConfig())

		for i := 0; i < 2; i++ {
			out, err := uc.Subscribe(ctx, subscribeReq())
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if out.Code != http.StatusOK {
				t.Errorf("expected 200, got %d", out.Code)
			}
			if out.Data == nil || !out.Data.Subscribed {
				t.Errorf("expected subscribed=true, got %+v", out.Data)
			}
		}
		for _, c := range crm.MutationCalls() {
			if c != "AddSubscriptionDevice" && c != "AssignServiceDevices" {
				t.Errorf("unexpected mutation %s on idempotent path", c)
			}
		}
	})

	t.Run("INACTIVE subscription reuses the account and charges a reactivation payment", func(t *testing.T) {
		crm := newMockCRM()
		withContact(crm, true)
		crm.ContactSubscriptionsFunc = func(string) ([]model.Subscription, error) {
			return []model.Subscription{{ID: "sub-9", State: model.SubscriptionStateInactive}}, nil
		}
		crm.ContactAccountsFunc = func(string) ([]model.Account, error) {
			return []model.Account{{ID: "account-9"}}, nil
		}
		var paidAccount string
		crm.CreatePaymentFunc = func(_, accountID, ref string) (*model.Payment, error) {
			paidAccount = accountID
			return &model.Payment{ID: "pay-1", AccountID: accountID, Reference: ref}, nil
		}
		uc := newSubscriptionUC(crm, testCRMConfig())

		out, err := uc.Subscribe(ctx, subscribeReq())

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if out.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", out.Code)
		}
		if paidAccount != "account-9" {
			t.Errorf("expected payment on the existing account, got %q", paidAccount)
		}
		for _, c := range crm.Calls() {
			if c == "CreateAccount" || c == "CreateSubscription" {
				t.Errorf("reactivation must not run %s", c)
			}
		}
	})

	t.Run("CHURNED subscription gets a payment and a fresh subscription", func(t *testing.T) {
		crm := newMockCRM()
		withContact(crm, true)
		crm.ContactSubscriptionsFunc = func(string) ([]model.Subscription, error) {
			return []model.Subscription{{ID: "sub-old", State: model.SubscriptionStateChurned}}, nil
		}
		crm.ContactAccountsFunc = func(string) ([]model.Account, error) {
			return []model.Account{{ID: "account-9"}}, nil
		}
		uc := newSubscriptionUC(crm, testCRMConfig())

		out, err := uc.Subscribe(ctx, subscribeReq())

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if out.Code != http.StatusCreated {
			t.Errorf("expected 201, got %d", out.Code)
		}
		muts := crm.MutationCalls()
		if !reflect.DeepEqual(muts, []string{"CreatePayment", "CreateSubscription"}) {
			t.Errorf("unexpected mutation sequence %v", muts)
		}
	})

	t.Run("any other non-active state provisions device, account, payment, subscription", func(t *testing.T) {
		crm := newMockCRM()
		withContact(crm, true)
		crm.ContactSubscriptionsFunc = func(string) ([]model.Subscription, error) {
			return []model.Subscription{{ID: "sub-x", State: "SUSPENDED"}}, nil
		}
		uc := newSubscriptionUC(crm, testCRMConfig())

		out, err := uc.Subscribe(ctx, subscribeReq())

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if out.Code != http.StatusCreated {
			t.Errorf("expected 201, got %d", out.Code)
		}
		muts := crm.MutationCalls()
		want := []string{"RegisterDevice", "CreateAccount", "CreatePayment", "CreateSubscription"}
		if !reflect.DeepEqual(muts, want) {
			t.Errorf("unexpected mutation sequence:\n got  %v\n want %v", muts, want)
		}
	})

	t.Run("eligible contact with no subscription at all takes the same branch", func(t *testing.T) {
		crm := newMockCRM()
		withContact(crm, true)
		uc := newSubscriptionUC(crm, testCRMConfig())

		out, err := uc.Subscribe(ctx, subscribeReq())

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if out.Code != http.StatusCreated {
			t.Errorf("expected 201, got %d", out.Code)
		}
		muts := crm.MutationCalls()
		want := []string{"RegisterDevice", "CreateAccount", "CreatePayment", "CreateSubscription"}
		if !reflect.DeepEqual(muts, want) {
			t.Errorf("unexpected mutation sequence:\n got  %v\n want %v", muts, want)
		}
	})
}
