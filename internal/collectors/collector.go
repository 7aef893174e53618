package collectors

import (
	"context"
	"fmt"
	"sync"

	"github.com/totalaudio/tracker-backend-go/internal/core/analytics"
)

// Collector fetches one platform's raw campaign metrics. Implementations own
// their transport (platform API, export feed, simulator); the normalizer
// only cares about the RawPayload shape they return.
type Collector interface {
	Platform() analytics.Platform
	Collect(ctx context.Context, campaignID string) (analytics.RawPayload, error)
}

// Registry holds the collector for each enabled platform. It is
// constructor-injected wherever collectors are consumed so independent
// service instances never share collector state.
type Registry struct {
	collectors map[analytics.Platform]Collector
	mu         sync.RWMutex
}

// NewRegistry creates an empty collector registry.
func NewRegistry() *Registry {
	return &Registry{collectors: make(map[analytics.Platform]Collector)}
}

// Register adds or replaces the collector for its platform.
func (r *Registry) Register(c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectors[c.Platform()] = c
}

// Get returns the collector for a platform.
func (r *Registry) Get(platform analytics.Platform) (Collector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.collectors[platform]
	if !ok {
		return nil, fmt.Errorf("no collector registered for platform %s", platform)
	}
	return c, nil
}

// Platforms lists every platform with a registered collector.
func (r *Registry) Platforms() []analytics.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()

	platforms := make([]analytics.Platform, 0, len(r.collectors))
	for _, p := range analytics.AllPlatforms {
		if _, ok := r.collectors[p]; ok {
			platforms = append(platforms, p)
		}
	}
	return platforms
}
