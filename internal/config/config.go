// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

// AuthConfig holds the inbound credentials: a static API key expected in
// the x-api-key header and a static bearer token.
type AuthConfig struct {
	APIKey      string `yaml:"api_key"`
	BearerToken string `yaml:"bearer_token"`
}

// CRMConfig carries everything needed to talk to the CRM plus the fixed
// provisioning identifiers its business objects require. All fields are
// required unless noted; values can be overridden from the environment.
type CRMConfig struct {
	BaseURL          string `yaml:"base_url"`
	APIKey           string `yaml:"api_key"`
	DefaultTagID     string `yaml:"default_tag_id"`
	DeviceProductID  string `yaml:"device_product_id"`
	ClassificationID string `yaml:"classification_id"`
	CurrencyCode     string `yaml:"currency_code"`
	PaymentTermsID   string `yaml:"payment_terms_id"`
	PriceTermsID     string `yaml:"price_terms_id"`
	PriceTermsID2    string `yaml:"price_terms_id_second"`
	ServiceProductID string `yaml:"service_product_id"`

	PaymentAmount string `yaml:"payment_amount"` // fixed charge, e.g. "35.00"

	// InitialCredit enables the journal-entry variant of the provisioning
	// pipeline (a fixed CREDIT after account creation).
	InitialCredit       bool   `yaml:"initial_credit"`
	InitialCreditAmount string `yaml:"initial_credit_amount"`

	// Call budgets. Zero means the defaults below.
	CallTimeout     time.Duration `yaml:"call_timeout"`     // single-resource ops
	ContactTimeout  time.Duration `yaml:"contact_timeout"`  // contact creation
	PipelineTimeout time.Duration `yaml:"pipeline_timeout"` // full provisioning run
}

type HitLogConfig struct {
	Dir string `yaml:"dir"`
}

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Auth   AuthConfig   `yaml:"auth"`
	CRM    CRMConfig    `yaml:"crm"`
	HitLog HitLogConfig `yaml:"hitlog"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file, applies environment overrides, fills
// defaults and validates required fields. The result is an explicit struct
// handed to constructors; nothing reads configuration ambiently.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
			// env-only deployments carry no config file at all
		} else if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HitLog.Dir == "" {
		cfg.HitLog.Dir = "logs"
	}
	if cfg.CRM.CallTimeout <= 0 {
		cfg.CRM.CallTimeout = 2 * time.Second
	}
	if cfg.CRM.ContactTimeout <= 0 {
		cfg.CRM.ContactTimeout = 5 * time.Second
	}
	if cfg.CRM.PipelineTimeout <= 0 {
		cfg.CRM.PipelineTimeout = 14 * time.Second
	}
	if cfg.CRM.PaymentAmount == "" {
		cfg.CRM.PaymentAmount = "35.00"
	}
	if cfg.CRM.InitialCreditAmount == "" {
		cfg.CRM.InitialCreditAmount = "35.00"
	}

	// Minimal validation: absence of any CRM identifier fails fast rather
	// than surfacing as CRM-side 4xx at request time.
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func (c *Config) validate() error {
	required := map[string]string{
		"crm.base_url":              c.CRM.BaseURL,
		"crm.api_key":               c.CRM.APIKey,
		"crm.default_tag_id":        c.CRM.DefaultTagID,
		"crm.device_product_id":     c.CRM.DeviceProductID,
		"crm.classification_id":     c.CRM.ClassificationID,
		"crm.currency_code":         c.CRM.CurrencyCode,
		"crm.payment_terms_id":      c.CRM.PaymentTermsID,
		"crm.price_terms_id":        c.CRM.PriceTermsID,
		"crm.price_terms_id_second": c.CRM.PriceTermsID2,
		"crm.service_product_id":    c.CRM.ServiceProductID,
		"auth.api_key":              c.Auth.APIKey,
		"auth.bearer_token":         c.Auth.BearerToken,
	}
	for name, v := range required {
		if v == "" {
			return fmt.Errorf("%w: %s", errRequired, name)
		}
	}
	return nil
}

var errRequired = errors.New("config field is required")

// applyEnv overlays environment variables onto the file values.
func (c *Config) applyEnv() {
	envStr := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envStr(&c.CRM.BaseURL, "CRM_BASE_URL")
	envStr(&c.CRM.APIKey, "CRM_API_KEY")
	envStr(&c.CRM.DefaultTagID, "DEFAULT_TAG_ID")
	envStr(&c.CRM.DeviceProductID, "DEVICE_PRODUCT_ID")
	envStr(&c.CRM.ClassificationID, "CLASSIFICATION_ID")
	envStr(&c.CRM.CurrencyCode, "CURRENCY_CODE")
	envStr(&c.CRM.PaymentTermsID, "PAYMENT_TERMS_ID")
	envStr(&c.CRM.PriceTermsID, "PRICE_TERMS_ID")
	envStr(&c.CRM.PriceTermsID2, "PRICE_TERMS_ID_SECOND")
	envStr(&c.CRM.ServiceProductID, "SERVICE_PRODUCT_ID")
	envStr(&c.CRM.PaymentAmount, "PAYMENT_AMOUNT")
	envStr(&c.Auth.APIKey, "DHIRAAGU_API_KEY")
	envStr(&c.Auth.BearerToken, "BEARER_TOKEN")
	envStr(&c.Log.Level, "LOG_LEVEL")
	envStr(&c.HitLog.Dir, "HITLOG_DIR")
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("INITIAL_CREDIT"); v != "" {
		c.CRM.InitialCredit = v == "1" || v == "true"
	}
}
