package decoder

import (
	"sync"

	"netflow9-collector/pkg/types"
)

// TemplateCache stores template definitions learned from Template FlowSets,
// keyed by (source ID, template ID). Two exporters may use the same template
// ID for different layouts, so entries are namespaced per source.
//
// The cache is safe for concurrent use. Installed templates are immutable;
// readers never observe a half-installed definition.
type TemplateCache struct {
	mu        sync.RWMutex
	templates map[uint32]map[uint16]*types.TemplateRecord
}

// NewTemplateCache creates an empty cache
func NewTemplateCache() *TemplateCache {
	return &TemplateCache{
		templates: make(map[uint32]map[uint16]*types.TemplateRecord),
	}
}

// Put installs a template under (sourceID, template.TemplateID), replacing
// any prior definition. Late-arriving redefinitions are honored; the RFC's
// template-refresh semantic is exporter-initiated.
func (c *TemplateCache) Put(sourceID uint32, template *types.TemplateRecord) {
	stored := template.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()

	byID := c.templates[sourceID]
	if byID == nil {
		byID = make(map[uint16]*types.TemplateRecord)
		c.templates[sourceID] = byID
	}
	byID[stored.TemplateID] = stored
}

// Get returns the current template for (sourceID, templateID). A miss is an
// expected, recoverable condition, not an error: data can legally arrive
// before its template. The returned template is shared and must not be
// modified.
func (c *TemplateCache) Get(sourceID uint32, templateID uint16) (*types.TemplateRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	template, ok := c.templates[sourceID][templateID]
	return template, ok
}

// Snapshot returns a point-in-time deep copy of the cache contents, keyed
// source ID -> template ID. The copy shares no state with the cache.
func (c *TemplateCache) Snapshot() map[uint32]map[uint16]types.TemplateRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[uint32]map[uint16]types.TemplateRecord, len(c.templates))
	for sourceID, byID := range c.templates {
		inner := make(map[uint16]types.TemplateRecord, len(byID))
		for id, template := range byID {
			inner[id] = *template.Clone()
		}
		out[sourceID] = inner
	}
	return out
}

// Len returns the total number of cached templates across all sources
func (c *TemplateCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, byID := range c.templates {
		n += len(byID)
	}
	return n
}

// Sources returns the number of distinct source IDs with cached templates
func (c *TemplateCache) Sources() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.templates)
}

// Clear drops all entries
func (c *TemplateCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.templates = make(map[uint32]map[uint16]*types.TemplateRecord)
}
