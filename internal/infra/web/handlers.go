package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ott-subscription-gateway/internal/domain"
	"ott-subscription-gateway/internal/infra/hitlog"
	"ott-subscription-gateway/internal/infra/logging"
	"ott-subscription-gateway/internal/usecase"
)

// subscribeRequest accepts both the flat payload and the legacy nested
// shape; the flat fields win when both are present.
type subscribeRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Number     string `json:"number"`
	PaymentRef string `json:"payment_ref"`

	PersonName *struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"person_name"`
	Phone *struct {
		Number string `json:"number"`
	} `json:"phone"`
}

func (r *subscribeRequest) normalize() usecase.SubscribeRequest {
	out := usecase.SubscribeRequest{
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Number:     r.Number,
		PaymentRef: r.PaymentRef,
	}
	if out.FirstName == "" && r.PersonName != nil {
		out.FirstName = r.PersonName.FirstName
		out.LastName = r.PersonName.LastName
	}
	if out.Number == "" && r.Phone != nil {
		out.Number = r.Phone.Number
	}
	return out
}

func (s *Server) subscribeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var body subscribeRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, domain.NewValidation("Request body is required"))
			return
		}
		req := body.normalize()
		if req.FirstName == "" || req.Number == "" {
			writeError(w, domain.NewValidation("First name and phone number are required"))
			return
		}

		outcome, err := s.subUC.Subscribe(ctx, req)
		if err != nil {
			logging.With(ctx, s.log).Error().Err(err).Msg("subscription process error")
			writeError(w, err)
			return
		}
		writeEnvelope(w, outcome.Code, outcome.Message, outcome.Data)
	}
}

func (s *Server) customerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		number := chi.URLParam(r, "phone_number")
		if number == "" {
			number = r.URL.Query().Get("phone_number")
		}
		if number == "" {
			writeError(w, domain.NewValidation("Phone number is required"))
			return
		}
		ctx = logging.WithPhone(ctx, number)

		details, err := s.resolver.Lookup(ctx, number)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrContactNotFound):
				writeEnvelope(w, http.StatusNotFound, "No contacts found for the given phone number", nil)
			case errors.Is(err, domain.ErrTagMissing):
				writeEnvelope(w, http.StatusNotFound, "Customer not found", nil)
			default:
				logging.With(ctx, s.log).Error().Err(err).Msg("customer lookup failed")
				writeEnvelope(w, http.StatusInternalServerError, "Internal server error", nil)
			}
			return
		}
		writeEnvelope(w, http.StatusOK, "success", details)
	}
}

// logsHandler summarizes historical API hits grouped by time bucket.
// Example: /api/logs?groupBy=day&startDate=2025-08-01&endDate=2025-08-31
func (s *Server) logsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupBy := r.URL.Query().Get("groupBy")
		if groupBy == "" {
			groupBy = hitlog.GroupByDay
		}
		startDate := r.URL.Query().Get("startDate")
		endDate := r.URL.Query().Get("endDate")

		start, err := parseDate(startDate, false)
		if err != nil {
			writeError(w, domain.NewValidation("startDate must be YYYY-MM-DD"))
			return
		}
		end, err := parseDate(endDate, true)
		if err != nil {
			writeError(w, domain.NewValidation("endDate must be YYYY-MM-DD"))
			return
		}

		summary, err := s.hits.Summarize(groupBy, start, end)
		if err != nil {
			logging.With(r.Context(), s.log).Error().Err(err).Msg("failed to summarize hit log")
			writeEnvelope(w, http.StatusInternalServerError, "Internal server error", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			GroupBy   string         `json:"groupBy"`
			StartDate string         `json:"startDate,omitempty"`
			EndDate   string         `json:"endDate,omitempty"`
			Summary   hitlog.Summary `json:"summary"`
		}{groupBy, startDate, endDate, summary})
	}
}

// parseDate accepts YYYY-MM-DD or RFC3339. An end date given without a
// time component covers the whole day.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		ts = ts.Add(24*time.Hour - time.Nanosecond)
	}
	return ts, nil
}
