package parser

import (
	"log/slog"

	"relaybot/internal/domain"
)

// Filter decides whether an event's tenant/channel pair is allowed for one
// category. Unknown tenants fail closed; direct messages arrive under
// domain.DirectMessageTenant and are therefore filtered out unless someone
// deliberately configures that name.
type Filter struct {
	category string
	policies domain.PolicyMap
	logger   *slog.Logger
}

func NewFilter(category string, policies domain.PolicyMap, logger *slog.Logger) *Filter {
	return &Filter{category: category, policies: policies, logger: logger}
}

// Allowed reports whether the channel passes the tenant's allow-list.
// A channel matches by exact id or exact name: renamed channels with a
// stable id still pass, as do recreated channels that kept their name.
func (f *Filter) Allowed(tenant, channelID, channelName string) bool {
	pol, ok := f.policies[tenant]
	if !ok {
		f.logger.Debug("tenant not in allow-list",
			"category", f.category,
			"tenant", tenant,
		)
		return false
	}

	if pol.AllowAllChannels {
		return true
	}

	for _, ch := range pol.Channels {
		if (ch.ID != "" && ch.ID == channelID) || (ch.Name != "" && ch.Name == channelName) {
			return true
		}
	}

	f.logger.Debug("channel not allowed for tenant",
		"category", f.category,
		"tenant", tenant,
		"channel", channelName,
		"channel_id", channelID,
	)
	return false
}
