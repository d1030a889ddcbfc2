package domain

// ChannelRef identifies an allowed channel by id, name, or both.
type ChannelRef struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// TenantPolicy is one tenant's entry in a category's allow-list.
// Policies are loaded once at startup and never mutated afterwards.
type TenantPolicy struct {
	AllowAllChannels bool         `json:"allowAllChannels" yaml:"allowAllChannels"`
	Channels         []ChannelRef `json:"channels,omitempty" yaml:"channels,omitempty"`
	// Endpoint overrides the category default webhook URL for this tenant.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// PolicyMap maps tenant display name to its policy for one category.
type PolicyMap map[string]TenantPolicy
