package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Record is any entry produced by decoding a NetFlow v9 datagram: the packet
// header, a template definition, or a data record. Entries appear in wire
// order.
type Record interface {
	Kind() RecordKind
}

// RecordKind discriminates the Record implementations
type RecordKind int

const (
	KindHeader RecordKind = iota
	KindTemplate
	KindData
)

func (k RecordKind) String() string {
	switch k {
	case KindHeader:
		return "Header"
	case KindTemplate:
		return "Template"
	case KindData:
		return "Data"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// PacketHeader is the fixed 20-byte header of a NetFlow v9 datagram
type PacketHeader struct {
	Version        uint16
	Count          uint16
	SysUptimeMs    uint32
	UnixSeconds    uint32
	SequenceNumber uint32
	SourceID       uint32
	Timestamp      time.Time
}

func (h *PacketHeader) Kind() RecordKind { return KindHeader }

// BootTime derives the exporter's boot time from uptime and wall clock
func (h *PacketHeader) BootTime() time.Time {
	return h.Timestamp.Add(-time.Duration(h.SysUptimeMs) * time.Millisecond)
}

// TemplateField is one (type, length) entry of a template definition
type TemplateField struct {
	Type   uint16
	Length uint16
}

// TemplateRecord is an exporter-issued schema for data records. Field order
// is significant: it dictates wire order in data records citing this
// template.
type TemplateRecord struct {
	TemplateID uint16
	Fields     []TemplateField
}

func (t *TemplateRecord) Kind() RecordKind { return KindTemplate }

// RecordLength returns the stride of one data record in bytes
func (t *TemplateRecord) RecordLength() int {
	length := 0
	for _, f := range t.Fields {
		length += int(f.Length)
	}
	return length
}

// Clone returns a deep copy that shares no state with the receiver
func (t *TemplateRecord) Clone() *TemplateRecord {
	fields := make([]TemplateField, len(t.Fields))
	copy(fields, t.Fields)
	return &TemplateRecord{TemplateID: t.TemplateID, Fields: fields}
}

// DataRecord is one decoded flow record. Values preserves the template's
// field order.
type DataRecord struct {
	TemplateID uint16
	Values     *FieldMap
}

func (r *DataRecord) Kind() RecordKind { return KindData }

// FieldMap is a string-to-string mapping that remembers insertion order.
// JSON marshalling emits keys in that order.
type FieldMap struct {
	keys   []string
	values map[string]string
}

// NewFieldMap creates an empty FieldMap
func NewFieldMap() *FieldMap {
	return &FieldMap{values: make(map[string]string)}
}

// Set inserts or updates a key. First insertion fixes the key's position.
func (m *FieldMap) Set(key, value string) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key
func (m *FieldMap) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order
func (m *FieldMap) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Len returns the number of entries
func (m *FieldMap) Len() int {
	return len(m.keys)
}

// MarshalJSON emits the entries as a JSON object in insertion order
func (m *FieldMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Packet groups everything decoded from one datagram together with receive
// metadata. Records holds the decoded sequence in wire order, starting with
// the packet header; Header repeats the header for direct access.
type Packet struct {
	Header     PacketHeader
	Records    []Record
	Exporter   net.IP
	ReceivedAt time.Time
}

// DataRecords returns only the data records of the packet
func (p *Packet) DataRecords() []*DataRecord {
	var out []*DataRecord
	for _, r := range p.Records {
		if dr, ok := r.(*DataRecord); ok {
			out = append(out, dr)
		}
	}
	return out
}

// Templates returns only the template records of the packet
func (p *Packet) Templates() []*TemplateRecord {
	var out []*TemplateRecord
	for _, r := range p.Records {
		if tr, ok := r.(*TemplateRecord); ok {
			out = append(out, tr)
		}
	}
	return out
}
