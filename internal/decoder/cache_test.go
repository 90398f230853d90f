package decoder

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netflow9-collector/pkg/types"
)

func makeTemplate(id uint16, fields ...types.TemplateField) *types.TemplateRecord {
	return &types.TemplateRecord{TemplateID: id, Fields: fields}
}

func TestCachePutGet(t *testing.T) {
	c := NewTemplateCache()

	_, ok := c.Get(1, 256)
	assert.False(t, ok)

	c.Put(1, makeTemplate(256, types.TemplateField{Type: 8, Length: 4}))

	got, ok := c.Get(1, 256)
	require.True(t, ok)
	assert.Equal(t, uint16(256), got.TemplateID)
	assert.Equal(t, 4, got.RecordLength())

	// Same template ID under a different source is a separate entry
	_, ok = c.Get(2, 256)
	assert.False(t, ok)
}

func TestCacheOverwrite(t *testing.T) {
	c := NewTemplateCache()
	c.Put(1, makeTemplate(256, types.TemplateField{Type: 8, Length: 4}))
	c.Put(1, makeTemplate(256, types.TemplateField{Type: 4, Length: 1}, types.TemplateField{Type: 7, Length: 2}))

	got, ok := c.Get(1, 256)
	require.True(t, ok)
	assert.Len(t, got.Fields, 2)
	assert.Equal(t, 3, got.RecordLength())
	assert.Equal(t, 1, c.Len())
}

func TestCachePutCopies(t *testing.T) {
	c := NewTemplateCache()
	tmpl := makeTemplate(256, types.TemplateField{Type: 8, Length: 4})
	c.Put(1, tmpl)

	// Mutating the caller's template must not reach the cache
	tmpl.Fields[0] = types.TemplateField{Type: 12, Length: 4}

	got, _ := c.Get(1, 256)
	assert.Equal(t, uint16(8), got.Fields[0].Type)
}

func TestCacheSnapshot(t *testing.T) {
	c := NewTemplateCache()
	c.Put(1, makeTemplate(256, types.TemplateField{Type: 8, Length: 4}))
	c.Put(1, makeTemplate(257, types.TemplateField{Type: 12, Length: 4}))
	c.Put(2, makeTemplate(256, types.TemplateField{Type: 4, Length: 1}))

	snap := c.Snapshot()
	require.Len(t, snap, 2)
	assert.Len(t, snap[1], 2)
	assert.Len(t, snap[2], 1)

	// The snapshot is detached from later cache changes
	c.Put(1, makeTemplate(258, types.TemplateField{Type: 1, Length: 4}))
	c.Clear()
	assert.Len(t, snap[1], 2)
	assert.Equal(t, uint16(8), snap[1][256].Fields[0].Type)
}

func TestCacheClear(t *testing.T) {
	c := NewTemplateCache()
	c.Put(1, makeTemplate(256, types.TemplateField{Type: 8, Length: 4}))
	c.Put(2, makeTemplate(300, types.TemplateField{Type: 1, Length: 4}))
	require.Equal(t, 2, c.Len())
	require.Equal(t, 2, c.Sources())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, c.Sources())
	_, ok := c.Get(1, 256)
	assert.False(t, ok)
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewTemplateCache()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(source uint32) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				id := uint16(256 + j%16)
				c.Put(source, makeTemplate(id, types.TemplateField{Type: 8, Length: 4}))
				if got, ok := c.Get(source, id); ok {
					// Never observe a half-installed template
					if got.RecordLength() != 4 {
						panic(fmt.Sprintf("torn read: %+v", got))
					}
				}
				if j%50 == 0 {
					c.Snapshot()
				}
			}
		}(uint32(i))
	}
	wg.Wait()

	assert.Equal(t, 8*16, c.Len())
	assert.Equal(t, 8, c.Sources())
}
