package stripe

import (
	"context"
	"testing"

	"github.com/lessonfolio/lessonfolio-backend/pkg/config"
)

func TestNewClientRejectsMismatchedKeyEnv(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.StripeConfig
	}{
		{
			name: "live key in test env",
			cfg:  config.StripeConfig{APIKey: "sk_live_abc", WebhookSecret: "whsec_x", Env: "test"},
		},
		{
			name: "test key in live env",
			cfg:  config.StripeConfig{APIKey: "sk_test_abc", WebhookSecret: "whsec_x", Env: "live"},
		},
		{
			name: "unknown env",
			cfg:  config.StripeConfig{APIKey: "sk_test_abc", WebhookSecret: "whsec_x", Env: "staging"},
		},
		{
			name: "missing api key",
			cfg:  config.StripeConfig{WebhookSecret: "whsec_x", Env: "test"},
		},
		{
			name: "missing webhook secret",
			cfg:  config.StripeConfig{APIKey: "sk_test_abc", Env: "test"},
		},
	}

	for _, tt := range tests {
		if _, err := NewClient(context.Background(), tt.cfg, nil); err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
	}
}

func TestNewClientAcceptsTestKey(t *testing.T) {
	client, err := NewClient(context.Background(), config.StripeConfig{
		APIKey:        "sk_test_abc",
		WebhookSecret: "whsec_x",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Environment() != "test" {
		t.Fatalf("expected test env, got %q", client.Environment())
	}
	if client.SigningSecret() != "whsec_x" {
		t.Fatalf("unexpected signing secret")
	}
	if client.API() == nil {
		t.Fatalf("expected api client")
	}
}
