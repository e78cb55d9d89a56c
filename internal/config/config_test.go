//go:build !integration

// File: internal/config/config_test.go
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validYAML = `
server:
  port: 8080
auth:
  api_key: "inbound-key"
  bearer_token: "inbound-token"
crm:
  base_url: "https://crm.example.com/api"
  api_key: "crm-key"
  default_tag_id: "tag-1"
  device_product_id: "prod-dev"
  classification_id: "class-1"
  currency_code: "MVR"
  payment_terms_id: "pt-1"
  price_terms_id: "price-1"
  price_terms_id_second: "price-2"
  service_product_id: "prod-svc"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("loads file and fills defaults", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, validYAML), false)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.Server.Port != 8080 {
			t.Errorf("port = %d, want 8080", cfg.Server.Port)
		}
		if cfg.CRM.CallTimeout != 2*time.Second {
			t.Errorf("call timeout = %v, want 2s", cfg.CRM.CallTimeout)
		}
		if cfg.CRM.ContactTimeout != 5*time.Second {
			t.Errorf("contact timeout = %v, want 5s", cfg.CRM.ContactTimeout)
		}
		if cfg.CRM.PipelineTimeout != 14*time.Second {
			t.Errorf("pipeline timeout = %v, want 14s", cfg.CRM.PipelineTimeout)
		}
		if cfg.CRM.PaymentAmount != "35.00" {
			t.Errorf("payment amount = %q, want 35.00", cfg.CRM.PaymentAmount)
		}
		if cfg.CRM.InitialCredit {
			t.Error("initial credit must default off")
		}
	})

	t.Run("environment overrides file values", func(t *testing.T) {
		t.Setenv("CRM_BASE_URL", "https://override.example.com")
		t.Setenv("PORT", "9090")
		t.Setenv("INITIAL_CREDIT", "true")

		cfg, err := LoadConfig(writeConfig(t, validYAML), false)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.CRM.BaseURL != "https://override.example.com" {
			t.Errorf("base url = %q, want env override", cfg.CRM.BaseURL)
		}
		if cfg.Server.Port != 9090 {
			t.Errorf("port = %d, want 9090", cfg.Server.Port)
		}
		if !cfg.CRM.InitialCredit {
			t.Error("INITIAL_CREDIT=true must enable initial credit")
		}
	})

	t.Run("missing required field fails", func(t *testing.T) {
		body := strings.Replace(validYAML, `price_terms_id_second: "price-2"`, "", 1)
		_, err := LoadConfig(writeConfig(t, body), false)
		if err == nil {
			t.Fatal("expected validation error")
		}
		if !errors.Is(err, errRequired) {
			t.Errorf("error = %v, want required-field error", err)
		}
		if !strings.Contains(err.Error(), "crm.price_terms_id_second") {
			t.Errorf("error %q must name the missing field", err)
		}
	})

	t.Run("missing file is tolerated when env is complete", func(t *testing.T) {
		t.Setenv("CRM_BASE_URL", "https://crm.example.com/api")
		t.Setenv("CRM_API_KEY", "crm-key")
		t.Setenv("DEFAULT_TAG_ID", "tag-1")
		t.Setenv("DEVICE_PRODUCT_ID", "prod-dev")
		t.Setenv("CLASSIFICATION_ID", "class-1")
		t.Setenv("CURRENCY_CODE", "MVR")
		t.Setenv("PAYMENT_TERMS_ID", "pt-1")
		t.Setenv("PRICE_TERMS_ID", "price-1")
		t.Setenv("PRICE_TERMS_ID_SECOND", "price-2")
		t.Setenv("SERVICE_PRODUCT_ID", "prod-svc")
		t.Setenv("DHIRAAGU_API_KEY", "inbound-key")
		t.Setenv("BEARER_TOKEN", "inbound-token")

		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), true)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if !cfg.Runtime.Dev {
			t.Error("dev flag must be carried into runtime config")
		}
		if cfg.Server.Port != 3000 {
			t.Errorf("port = %d, want default 3000", cfg.Server.Port)
		}
	})

	t.Run("malformed yaml fails", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "server: [not: a map"), false)
		if err == nil {
			t.Fatal("expected parse error")
		}
	})
}
