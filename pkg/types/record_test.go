package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldMapOrder(t *testing.T) {
	m := NewFieldMap()
	m.Set("Src IP", "192.168.1.100")
	m.Set("Dst IP", "10.0.0.50")
	m.Set("Protocol", "6")

	assert.Equal(t, []string{"Src IP", "Dst IP", "Protocol"}, m.Keys())
	assert.Equal(t, 3, m.Len())

	// Updating keeps the original position
	m.Set("Src IP", "172.16.0.1")
	assert.Equal(t, []string{"Src IP", "Dst IP", "Protocol"}, m.Keys())
	v, ok := m.Get("Src IP")
	require.True(t, ok)
	assert.Equal(t, "172.16.0.1", v)

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestFieldMapJSON(t *testing.T) {
	m := NewFieldMap()
	m.Set("Zulu", "1")
	m.Set("Alpha", "2")
	m.Set("Mike", "3")

	data, err := json.Marshal(m)
	require.NoError(t, err)
	// Insertion order survives marshalling, not lexical order
	assert.Equal(t, `{"Zulu":"1","Alpha":"2","Mike":"3"}`, string(data))

	empty := NewFieldMap()
	data, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestTemplateRecordLength(t *testing.T) {
	tmpl := &TemplateRecord{
		TemplateID: 256,
		Fields: []TemplateField{
			{Type: 8, Length: 4},
			{Type: 12, Length: 4},
			{Type: 4, Length: 1},
		},
	}
	assert.Equal(t, 9, tmpl.RecordLength())

	empty := &TemplateRecord{TemplateID: 300}
	assert.Equal(t, 0, empty.RecordLength())
}

func TestTemplateClone(t *testing.T) {
	tmpl := &TemplateRecord{TemplateID: 256, Fields: []TemplateField{{Type: 8, Length: 4}}}
	clone := tmpl.Clone()

	clone.Fields[0].Type = 12
	assert.Equal(t, uint16(8), tmpl.Fields[0].Type)
}

func TestPacketAccessors(t *testing.T) {
	header := PacketHeader{Version: 9, SourceID: 7}
	tmpl := &TemplateRecord{TemplateID: 256}
	data := &DataRecord{TemplateID: 256, Values: NewFieldMap()}

	p := Packet{
		Header:  header,
		Records: []Record{&header, tmpl, data, data},
	}

	assert.Len(t, p.Templates(), 1)
	assert.Len(t, p.DataRecords(), 2)
}

func TestRecordKinds(t *testing.T) {
	assert.Equal(t, KindHeader, (&PacketHeader{}).Kind())
	assert.Equal(t, KindTemplate, (&TemplateRecord{}).Kind())
	assert.Equal(t, KindData, (&DataRecord{}).Kind())
	assert.Equal(t, "Header", KindHeader.String())
}

func TestBootTime(t *testing.T) {
	h := PacketHeader{
		SysUptimeMs: 10000,
		Timestamp:   time.Unix(1597284894, 0).UTC(),
	}
	assert.Equal(t, time.Unix(1597284884, 0).UTC(), h.BootTime())
}

func TestErrorKindStrings(t *testing.T) {
	assert.Equal(t, "Truncated", Truncated.String())
	assert.Equal(t, "UnknownTemplate", UnknownTemplate.String())
	assert.Equal(t, "FieldLength", FieldLength.String())

	d := Diagnostic{Kind: UnknownTemplate, Offset: 24, Message: "no template 256 cached for source 0"}
	assert.Contains(t, d.String(), "UnknownTemplate")
	assert.Contains(t, d.String(), "24")
}
