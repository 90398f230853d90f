package export

import (
	"encoding/json"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netflow9-collector/internal/decoder"
	"netflow9-collector/pkg/types"
)

func samplePacket() types.Packet {
	header := types.PacketHeader{
		Version:        9,
		Count:          2,
		SysUptimeMs:    10000,
		UnixSeconds:    1597284894,
		SequenceNumber: 1,
		SourceID:       7,
		Timestamp:      time.Unix(1597284894, 0).UTC(),
	}
	tmpl := &types.TemplateRecord{
		TemplateID: 256,
		Fields:     []types.TemplateField{{Type: 8, Length: 4}, {Type: 4, Length: 1}},
	}
	values := types.NewFieldMap()
	values.Set("Src IP", "192.168.1.100")
	values.Set("Protocol", "6")
	data := &types.DataRecord{TemplateID: 256, Values: values}

	return types.Packet{
		Header:   header,
		Records:  []types.Record{&header, tmpl, data},
		Exporter: net.ParseIP("10.1.1.1"),
	}
}

func TestBuildDocument(t *testing.T) {
	cache := decoder.NewTemplateCache()
	cache.Put(7, &types.TemplateRecord{
		TemplateID: 256,
		Fields:     []types.TemplateField{{Type: 8, Length: 4}, {Type: 4, Length: 1}},
	})

	now := time.Date(2020, 8, 13, 2, 15, 0, 0, time.UTC)
	doc := Build([]types.Packet{samplePacket()}, cache, now)

	assert.Equal(t, 9, doc.Version)
	assert.Equal(t, "2020-08-13T02:15:00Z", doc.ExportTime)
	require.Len(t, doc.Packets, 1)

	p := doc.Packets[0]
	assert.Equal(t, uint32(7), p.SourceID)
	assert.Equal(t, uint32(1), p.SequenceNumber)
	assert.Equal(t, "10.1.1.1", p.Exporter)
	require.Len(t, p.FlowSets, 2)
	assert.Len(t, p.FlowSets[0].Templates, 1)
	assert.Len(t, p.FlowSets[1].Records, 1)

	tmpl, ok := doc.Templates["7"]["256"]
	require.True(t, ok)
	assert.Equal(t, uint16(256), tmpl.TemplateID)
	assert.Equal(t, []FieldJSON{{Type: 8, Length: 4}, {Type: 4, Length: 1}}, tmpl.Fields)
}

func TestDocumentJSONShape(t *testing.T) {
	cache := decoder.NewTemplateCache()
	doc := Build([]types.Packet{samplePacket()}, cache, time.Unix(1597285000, 0))

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	s := string(data)

	assert.Contains(t, s, `"version":9`)
	assert.Contains(t, s, `"exportTime":`)
	assert.Contains(t, s, `"flowSets":`)
	// Record keys keep template field order
	assert.Less(t, strings.Index(s, `"Src IP"`), strings.Index(s, `"Protocol"`))

	var round map[string]any
	require.NoError(t, json.Unmarshal(data, &round))
	assert.Contains(t, round, "templates")
	assert.Contains(t, round, "packets")
}

func TestWriteFile(t *testing.T) {
	cache := decoder.NewTemplateCache()
	doc := Build(nil, cache, time.Unix(1597285000, 0))

	path := t.TempDir() + "/export.json"
	require.NoError(t, WriteFile(doc, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var round Document
	require.NoError(t, json.Unmarshal(data, &round))
	assert.Equal(t, 9, round.Version)
}
