// Package crm is the typed HTTP client for the external CRM. Every
// operation issues one REST call bounded by an operation-specific budget
// and normalizes failures into *domain.Error.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ott-subscription-gateway/internal/config"
	"ott-subscription-gateway/internal/domain"
	"ott-subscription-gateway/internal/domain/model"
	"ott-subscription-gateway/internal/infra/metrics"
)

// Operation names surface in error messages and metrics labels.
const (
	opContactSearch      = "Contacts fetching"
	opContactCreation    = "Contact creation"
	opTagsFetch          = "Tags fetching"
	opTagRegistration    = "Tag registration"
	opDeviceRegistration = "Device registration"
	opAccountsFetch      = "Accounts fetching"
	opAccountCreation    = "Account creation"
	opPaymentCreation    = "Payment creation"
	opJournalCreation    = "Journal entry creation"
	opSubCreation        = "Subscription creation"
	opSubFetch           = "Subscription fetching"
	opAllowedDevices     = "Allowed devices fetching"
	opSubDeviceAdd       = "Subscription device addition"
	opServicesFetch      = "Services fetching for device assignment"
	opDeviceAssignment   = "Device assignment"
	opCustomFields       = "Custom fields fetching"
)

// Client implements adapter.CRMGateway against a configured base URL.
type Client struct {
	cfg    config.CRMConfig
	client *http.Client
	log    *zerolog.Logger
}

// NewClient constructs the CRM client from explicit configuration. The
// http.Client carries no timeout of its own; budgets are applied per call
// through the request context so a fired deadline also aborts the socket.
func NewClient(cfg config.CRMConfig, logger *zerolog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{},
		log:    logger,
	}
}

// crmEnvelope is the minimal shape shared by CRM error bodies.
type crmEnvelope struct {
	Message string `json:"message"`
	Error   bool   `json:"error"`
}

// do performs one CRM call: request build, send, decode, error
// normalization. A deadline overrun anywhere in that span yields a
// Timeout error naming the operation and its budget.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any, budget time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &domain.Error{Op: op, Message: fmt.Sprintf("%s: marshal request: %v", op, err)}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &domain.Error{Op: op, Message: fmt.Sprintf("%s: build request: %v", op, err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api_key", c.cfg.APIKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			metrics.ObserveCRMCall(op, "timeout", ms(start))
			return domain.NewTimeout(op, budget)
		}
		metrics.ObserveCRMCall(op, "failed", ms(start))
		return &domain.Error{Op: op, Message: fmt.Sprintf("%s: %v", op, err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			metrics.ObserveCRMCall(op, "timeout", ms(start))
			return domain.NewTimeout(op, budget)
		}
		metrics.ObserveCRMCall(op, "failed", ms(start))
		return &domain.Error{Op: op, Message: fmt.Sprintf("%s: read response: %v", op, err)}
	}

	var env crmEnvelope
	_ = json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || env.Error {
		metrics.ObserveCRMCall(op, "failed", ms(start))
		c.log.Warn().Str("operation", op).Int("status", resp.StatusCode).
			Str("crm_message", env.Message).Msg("crm call failed")
		return domain.NewCRMFailure(op, env.Message, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			metrics.ObserveCRMCall(op, "failed", ms(start))
			return &domain.Error{Op: op, Message: fmt.Sprintf("%s: decode response: %v", op, err)}
		}
	}
	metrics.ObserveCRMCall(op, "ok", ms(start))
	return nil
}

func ms(start time.Time) float64 {
	return float64(time.Since(start).Milliseconds())
}

// asFetchFailure reclassifies a CRM operation failure as a fetch failure.
// The classification reads (contact search, tags fetch) surface as 500 to
// callers; the provisioning operations keep their 400 mapping.
func asFetchFailure(err error) error {
	var de *domain.Error
	if errors.As(err, &de) && de.Kind == domain.KindCRMOperationFailed {
		return domain.NewCRMFetchFailure(de.Op, de.CRMMessage, de.Status)
	}
	return err
}

func (c *Client) SearchContacts(ctx context.Context, phoneNumber string) ([]model.Contact, error) {
	q := url.Values{"phone_number": {phoneNumber}}
	var page model.ContactPage
	if err := c.do(ctx, opContactSearch, http.MethodGet, "/contacts", q, nil, &page, c.cfg.CallTimeout); err != nil {
		return nil, asFetchFailure(err)
	}
	return page.Content, nil
}

func (c *Client) CreateContact(ctx context.Context, person model.PersonName, number string) (*model.Contact, error) {
	payload := map[string]any{
		"person_name": person,
		"phone":       model.Phone{Number: number},
	}
	var contact model.Contact
	if err := c.do(ctx, opContactCreation, http.MethodPost, "/contacts", nil, payload, &contact, c.cfg.ContactTimeout); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (c *Client) ContactTags(ctx context.Context, contactID string) ([]model.Tag, error) {
	var page model.TagPage
	if err := c.do(ctx, opTagsFetch, http.MethodGet, "/contacts/"+contactID+"/tags", nil, nil, &page, c.cfg.CallTimeout); err != nil {
		return nil, asFetchFailure(err)
	}
	return page.Content, nil
}

func (c *Client) RegisterTags(ctx context.Context, contactID string, tagIDs []string) ([]model.Tag, error) {
	payload := map[string][]string{"tags": tagIDs}
	var page model.TagPage
	if err := c.do(ctx, opTagRegistration, http.MethodPut, "/contacts/"+contactID+"/tags", nil, payload, &page, c.cfg.CallTimeout); err != nil {
		return nil, err
	}
	return page.Content, nil
}

func (c *Client) RegisterDevice(ctx context.Context, contactID string) (*model.Device, error) {
	payload := map[string]any{
		"serial_number": uuid.NewString(),
		"electronic_id": nil,
		"contact_id":    contactID,
		"product_id":    c.cfg.DeviceProductID,
	}
	var device model.Device
	if err := c.do(ctx, opDeviceRegistration, http.MethodPost, "/devices", nil, payload, &device, c.cfg.CallTimeout); err != nil {
		return nil, err
	}
	return &device, nil
}

func (c *Client) ContactAccounts(ctx context.Context, contactID string) ([]model.Account, error) {
	var page model.AccountPage
	if err := c.do(ctx, opAccountsFetch, http.MethodGet, "/contacts/"+contactID+"/accounts", nil, nil, &page, c.cfg.CallTimeout); err != nil {
		return nil, err
	}
	return page.Content, nil
}

func (c *Client) CreateAccount(ctx context.Context, contactID string) (*model.Account, error) {
	payload := map[string]any{
		"classification_id": c.cfg.ClassificationID,
		"credit_limit":      "",
		"currency_code":     c.cfg.CurrencyCode,
		"is_primary":        false,
		"payment_terms_id":  c.cfg.PaymentTermsID,
	}
	var account model.Account
	if err := c.do(ctx, opAccountCreation, http.MethodPost, "/contacts/"+contactID+"/accounts", nil, payload, &account, c.cfg.CallTimeout); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *Client) CreatePayment(ctx context.Context, contactID, accountID, reference string) (*model.Payment, error) {
	payload := map[string]any{
		"account_id":    accountID,
		"amount":        c.cfg.PaymentAmount,
		"currency_code": c.cfg.CurrencyCode,
		"reference":     reference,
	}
	var payment model.Payment
	if err := c.do(ctx, opPaymentCreation, http.MethodPost, "/contacts/"+contactID+"/payments", nil, payload, &payment, c.cfg.CallTimeout); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (c *Client) CreateJournalEntry(ctx context.Context, contactID, accountID string) (*model.JournalEntry, error) {
	payload := map[string]any{
		"action":        "CREDIT",
		"amount":        c.cfg.InitialCreditAmount,
		"currency_code": c.cfg.CurrencyCode,
		"entity":        "ACCOUNT",
		"entity_id":     accountID,
		"notes":         "Initial credit for new subscription",
	}
	var entry model.JournalEntry
	if err := c.do(ctx, opJournalCreation, http.MethodPost, "/contacts/"+contactID+"/journals", nil, payload, &entry, c.cfg.CallTimeout); err != nil {
		return nil, err
	}
	return &entry, nil
}

// CreateSubscription posts the service with the primary price-terms id
// and retries exactly once with the fallback id when the CRM rejects the
// primary with a message containing "Invalid value". Any other failure
// propagates without retry.
func (c *Client) CreateSubscription(ctx context.Context, contactID, accountID string) (*model.Subscription, error) {
	sub, err := c.postSubscription(ctx, contactID, accountID, c.cfg.PriceTermsID)
	if err == nil {
		return sub, nil
	}
	if isInvalidPriceTerms(err) {
		c.log.Warn().Str("contact_id", contactID).
			Msg("primary price_terms_id rejected, retrying with fallback id")
		return c.postSubscription(ctx, contactID, accountID, c.cfg.PriceTermsID2)
	}
	return nil, err
}

func (c *Client) postSubscription(ctx context.Context, contactID, accountID, priceTermsID string) (*model.Subscription, error) {
	payload := map[string]any{
		"account_id":     accountID,
		"scheduled_date": nil,
		"services": []map[string]any{{
			"price_terms_id": priceTermsID,
			"product_id":     c.cfg.ServiceProductID,
			"quantity":       1,
		}},
	}
	var sub model.Subscription
	if err := c.do(ctx, opSubCreation, http.MethodPost, "/contacts/"+contactID+"/services", nil, payload, &sub, c.cfg.CallTimeout); err != nil {
		return nil, err
	}
	return &sub, nil
}

func isInvalidPriceTerms(err error) bool {
	var de *domain.Error
	if !errors.As(err, &de) {
		return false
	}
	return de.Kind == domain.KindCRMOperationFailed &&
		strings.Contains(de.CRMMessage, "Invalid value")
}

func (c *Client) ContactSubscriptions(ctx context.Context, contactID string) ([]model.Subscription, error) {
	q := url.Values{
		"size":                 {"100"},
		"page":                 {"1"},
		"include_terms":        {"true"},
		"include_billing_info": {"true"},
		"include_future_info":  {"true"},
	}
	var page model.SubscriptionPage
	if err := c.do(ctx, opSubFetch, http.MethodGet, "/contacts/"+contactID+"/subscriptions", q, nil, &page, c.cfg.CallTimeout); err != nil {
		return nil, err
	}
	return page.Content, nil
}

func (c *Client) AllowedDevices(ctx context.Context, subscriptionID string) ([]model.AllowedDevice, error) {
	q := url.Values{"size": {"50"}, "page": {"1"}, "search_value": {""}}
	var page model.AllowedDevicePage
	if err := c.do(ctx, opAllowedDevices, http.MethodGet, "/subscriptions/"+subscriptionID+"/allowed_devices", q, nil, &page, c.cfg.CallTimeout); err != nil {
		return nil, err
	}
	return page.Content, nil
}

func (c *Client) AddSubscriptionDevice(ctx context.Context, subscriptionID string, device model.DeviceRef) (bool, error) {
	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, opSubDeviceAdd, http.MethodPost, "/subscriptions/"+subscriptionID+"/devices", nil, device, &created, c.cfg.CallTimeout); err != nil {
		return false, err
	}
	return created.ID != "", nil
}

func (c *Client) ContactServices(ctx context.Context, contactID string) ([]model.Service, error) {
	var page model.ServicePage
	if err := c.do(ctx, opServicesFetch, http.MethodGet, "/contacts/"+contactID+"/services", nil, nil, &page, c.cfg.CallTimeout); err != nil {
		return nil, err
	}
	return page.Content, nil
}

func (c *Client) AssignServiceDevices(ctx context.Context, serviceID string, devices []model.DeviceRef) ([]model.DeviceRef, error) {
	enabled := make([]model.DeviceRef, len(devices))
	for i, d := range devices {
		d.Action = "ENABLE"
		enabled[i] = d
	}
	var assigned []model.DeviceRef
	if err := c.do(ctx, opDeviceAssignment, http.MethodPost, "/services/"+serviceID+"/devices", nil, enabled, &assigned, c.cfg.CallTimeout); err != nil {
		return nil, err
	}
	return assigned, nil
}

func (c *Client) SubscriptionDevices(ctx context.Context, subscriptionID string) (*model.SubscriptionDevicePage, error) {
	q := url.Values{
		"include_total":         {"true"},
		"include_custom_fields": {"true"},
		"size":                  {"5"},
		"page":                  {"1"},
	}
	var page model.SubscriptionDevicePage
	if err := c.do(ctx, opCustomFields, http.MethodGet, "/subscriptions/"+subscriptionID+"/devices", q, nil, &page, c.cfg.CallTimeout); err != nil {
		return nil, err
	}
	return &page, nil
}
