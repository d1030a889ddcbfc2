package dispatch

import (
	"fmt"

	"relaybot/internal/domain"
)

// Resolver maps a tenant to the webhook endpoint for one category. A tenant
// override wins over the category default. Resolution is side-effect-free
// and safe to call from concurrent dispatches.
type Resolver struct {
	category        string
	defaultEndpoint string
	policies        domain.PolicyMap
}

func NewResolver(category, defaultEndpoint string, policies domain.PolicyMap) *Resolver {
	return &Resolver{
		category:        category,
		defaultEndpoint: defaultEndpoint,
		policies:        policies,
	}
}

// Resolve returns the webhook URL for the tenant. Tenants absent from the
// policy map, and tenants with neither an override nor a category default,
// fail with domain.ErrEndpointNotConfigured.
func (r *Resolver) Resolve(tenant string) (string, error) {
	pol, ok := r.policies[tenant]
	if !ok {
		return "", fmt.Errorf("%s/%s: %w", r.category, tenant, domain.ErrEndpointNotConfigured)
	}
	if pol.Endpoint != "" {
		return pol.Endpoint, nil
	}
	if r.defaultEndpoint != "" {
		return r.defaultEndpoint, nil
	}
	return "", fmt.Errorf("%s/%s: %w", r.category, tenant, domain.ErrEndpointNotConfigured)
}
