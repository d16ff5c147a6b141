package usecase

import (
	"fmt"

	"github.com/omnicart/channelbridge/internal/core/domain"
	"github.com/omnicart/channelbridge/internal/core/ports"
)

// ChannelRegistry resolves channel ids to configuration and channel names to
// their operation implementations. Populated at startup, read-only during
// dispatch, safe for concurrent readers without locking.
type ChannelRegistry struct {
	configs map[string]domain.ChannelConfig
	ops     map[domain.ChannelName]ports.ChannelOperations
}

func NewChannelRegistry() *ChannelRegistry {
	return &ChannelRegistry{
		configs: make(map[string]domain.ChannelConfig),
		ops:     make(map[domain.ChannelName]ports.ChannelOperations),
	}
}

// RegisterChannel adds a channel configuration. Later registrations with the
// same id win; configuration is expected to be loaded once.
func (r *ChannelRegistry) RegisterChannel(cfg domain.ChannelConfig) {
	r.configs[cfg.ID] = cfg
}

// RegisterOperations binds a channel name to its operation implementation.
func (r *ChannelRegistry) RegisterOperations(name domain.ChannelName, ops ports.ChannelOperations) {
	r.ops[name] = ops
}

// Lookup resolves a channel id. A missing id is a normal, expected outcome.
func (r *ChannelRegistry) Lookup(channelID string) (domain.ChannelConfig, bool) {
	cfg, ok := r.configs[channelID]
	return cfg, ok
}

// Operations resolves a channel name to its implementation.
func (r *ChannelRegistry) Operations(name domain.ChannelName) (ports.ChannelOperations, bool) {
	ops, ok := r.ops[name]
	return ops, ok
}

// Validate detects configuration errors at startup: every registered channel
// must use a supported name and have an operations implementation bound, so
// an unregistered combination can never surface at dispatch time.
func (r *ChannelRegistry) Validate() error {
	if len(r.configs) == 0 {
		return fmt.Errorf("no channels configured")
	}
	for id, cfg := range r.configs {
		if !cfg.Name.Valid() {
			return fmt.Errorf("channel %s: unsupported channel name %q", id, cfg.Name)
		}
		if _, ok := r.ops[cfg.Name]; !ok {
			return fmt.Errorf("channel %s: no operations registered for %q", id, cfg.Name)
		}
	}
	return nil
}
