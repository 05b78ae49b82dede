// Package payments talks to Stripe: shared payment token lookups for
// token-protocol checkouts and signature verification for Stripe-signed
// webhooks.
package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"

	"commerce-unify/internal/model"
)

// tokenStatusActive is the only SPT status that allows a checkout.
const tokenStatusActive = "active"

// errTokenInactive is the client-visible reason for every unusable token.
const errTokenInactive = "Shared Payment Token is not active"

// SharedPaymentToken is a granted shared payment token as returned by Stripe.
type SharedPaymentToken struct {
	stripe.APIResource
	ID     string `json:"id"`
	Object string `json:"object"`
	Status string `json:"status"`
}

// Config configures the Stripe client.
type Config struct {
	APIKey  string
	BaseURL string         // overrides api.stripe.com, used by tests
	Backend stripe.Backend // overrides the HTTP backend entirely
	Logger  *slog.Logger
}

// StripeClient verifies shared payment tokens.
type StripeClient struct {
	apiKey  string
	backend stripe.Backend
}

// NewStripeClient creates a client. An empty API key is accepted; every
// verification then fails with a ConfigurationError.
func NewStripeClient(cfg Config) *StripeClient {
	backend := cfg.Backend
	if backend == nil {
		logger := cfg.Logger
		if logger == nil {
			logger = slog.Default()
		}
		bc := &stripe.BackendConfig{
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     &slogLeveledLogger{logger: logger},
		}
		if cfg.BaseURL != "" {
			bc.URL = stripe.String(cfg.BaseURL)
		}
		backend = stripe.GetBackendWithConfig(stripe.APIBackend, bc)
	}
	return &StripeClient{apiKey: cfg.APIKey, backend: backend}
}

// VerifySharedPaymentToken fetches the token and requires status "active".
func (c *StripeClient) VerifySharedPaymentToken(ctx context.Context, token string) (*SharedPaymentToken, error) {
	if c.apiKey == "" {
		return nil, model.NewConfigurationError("STRIPE_API_KEY is not configured")
	}
	if token == "" {
		return nil, model.NewPaymentError(errTokenInactive)
	}

	path := "/v1/shared_payment/granted_tokens/" + url.PathEscape(token)
	spt := &SharedPaymentToken{}
	err := c.backend.Call(http.MethodGet, path, c.apiKey, &stripe.Params{Context: ctx}, spt)
	if err != nil {
		return nil, classifyError(err)
	}
	if spt.Status != tokenStatusActive {
		return nil, model.NewPaymentError(errTokenInactive)
	}
	return spt, nil
}

// classifyError maps Stripe failures: an unknown or rejected token is a
// payment error, anything else means Stripe could not answer.
func classifyError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.Code == stripe.ErrorCodeResourceMissing ||
			stripeErr.HTTPStatusCode == http.StatusNotFound {
			return model.NewPaymentError(errTokenInactive)
		}
	}
	return model.NewIntegrationError("Stripe", err)
}

// ConstructEvent verifies a Stripe-Signature header over payload and decodes
// the event. The event's API version is not checked against the library's.
func ConstructEvent(payload []byte, signatureHeader, secret string) (stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("verifying stripe event: %w", err)
	}
	return event, nil
}

// slogLeveledLogger routes stripe-go's internal logging into slog.
type slogLeveledLogger struct {
	logger *slog.Logger
}

func (l *slogLeveledLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}

func (l *slogLeveledLogger) Infof(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}

func (l *slogLeveledLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}

func (l *slogLeveledLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...), slog.String("component", "stripe"))
}
