package dispatch

import (
	"errors"
	"testing"

	"relaybot/internal/domain"
)

func TestResolveOverrideWins(t *testing.T) {
	r := NewResolver("Default", "https://hooks.example.com/default", domain.PolicyMap{
		"Acme": {Endpoint: "https://hooks.example.com/acme"},
	})

	url, err := r.Resolve("Acme")
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://hooks.example.com/acme" {
		t.Errorf("expected override, got %s", url)
	}
}

func TestResolveFallsBackToCategoryDefault(t *testing.T) {
	r := NewResolver("Default", "https://hooks.example.com/default", domain.PolicyMap{
		"Acme": {AllowAllChannels: true},
	})

	url, err := r.Resolve("Acme")
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://hooks.example.com/default" {
		t.Errorf("expected category default, got %s", url)
	}
}

func TestResolveUnknownTenant(t *testing.T) {
	r := NewResolver("Default", "https://hooks.example.com/default", domain.PolicyMap{})

	_, err := r.Resolve("Nobody")
	if !errors.Is(err, domain.ErrEndpointNotConfigured) {
		t.Errorf("expected ErrEndpointNotConfigured, got %v", err)
	}
}

func TestResolveNoEndpointAnywhere(t *testing.T) {
	r := NewResolver("Default", "", domain.PolicyMap{
		"Acme": {AllowAllChannels: true},
	})

	_, err := r.Resolve("Acme")
	if !errors.Is(err, domain.ErrEndpointNotConfigured) {
		t.Errorf("expected ErrEndpointNotConfigured, got %v", err)
	}
}
