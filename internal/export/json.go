package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"netflow9-collector/internal/decoder"
	"netflow9-collector/pkg/types"
)

// Document is the JSON shape consumed by the dashboard: the decoded packets
// with their FlowSets, plus a snapshot of every learned template.
type Document struct {
	Version    int                                `json:"version"`
	ExportTime string                             `json:"exportTime"`
	Packets    []PacketJSON                       `json:"packets"`
	Templates  map[string]map[string]TemplateJSON `json:"templates"`
}

// PacketJSON mirrors one decoded datagram
type PacketJSON struct {
	Count          uint16        `json:"count"`
	SysUptimeMs    uint32        `json:"sysUptimeMs"`
	UnixSeconds    uint32        `json:"unixSeconds"`
	SequenceNumber uint32        `json:"sequenceNumber"`
	SourceID       uint32        `json:"sourceId"`
	Timestamp      string        `json:"timestamp"`
	Exporter       string        `json:"exporter,omitempty"`
	FlowSets       []FlowSetJSON `json:"flowSets"`
}

// FlowSetJSON carries either templates or data records, never both
type FlowSetJSON struct {
	Templates []TemplateJSON    `json:"templates,omitempty"`
	Records   []*types.FieldMap `json:"records,omitempty"`
}

// TemplateJSON is one template definition
type TemplateJSON struct {
	TemplateID uint16      `json:"TemplateId"`
	Fields     []FieldJSON `json:"Fields"`
}

// FieldJSON is one (type, length) template entry
type FieldJSON struct {
	Type   uint16 `json:"Type"`
	Length uint16 `json:"Length"`
}

func templateJSON(t *types.TemplateRecord) TemplateJSON {
	fields := make([]FieldJSON, len(t.Fields))
	for i, f := range t.Fields {
		fields[i] = FieldJSON{Type: f.Type, Length: f.Length}
	}
	return TemplateJSON{TemplateID: t.TemplateID, Fields: fields}
}

// packetJSON regroups a packet's flat record sequence into flowSets: one
// group per run of templates, one group per run of data records sharing a
// template ID. This mirrors the wire layout closely enough for the
// dashboard.
func packetJSON(p types.Packet) PacketJSON {
	out := PacketJSON{
		Count:          p.Header.Count,
		SysUptimeMs:    p.Header.SysUptimeMs,
		UnixSeconds:    p.Header.UnixSeconds,
		SequenceNumber: p.Header.SequenceNumber,
		SourceID:       p.Header.SourceID,
		Timestamp:      p.Header.Timestamp.UTC().Format(time.RFC3339),
	}
	if p.Exporter != nil {
		out.Exporter = p.Exporter.String()
	}

	var current *FlowSetJSON
	currentTemplateID := uint16(0)
	for _, r := range p.Records {
		switch rec := r.(type) {
		case *types.TemplateRecord:
			if current == nil || current.Records != nil {
				out.FlowSets = append(out.FlowSets, FlowSetJSON{})
				current = &out.FlowSets[len(out.FlowSets)-1]
			}
			current.Templates = append(current.Templates, templateJSON(rec))
		case *types.DataRecord:
			if current == nil || current.Templates != nil || currentTemplateID != rec.TemplateID {
				out.FlowSets = append(out.FlowSets, FlowSetJSON{})
				current = &out.FlowSets[len(out.FlowSets)-1]
				currentTemplateID = rec.TemplateID
			}
			current.Records = append(current.Records, rec.Values)
		}
	}
	return out
}

// Build assembles the export document from decoded packets and the
// template cache. now stamps exportTime.
func Build(packets []types.Packet, cache *decoder.TemplateCache, now time.Time) Document {
	doc := Document{
		Version:    decoder.Version,
		ExportTime: now.UTC().Format(time.RFC3339),
		Packets:    make([]PacketJSON, 0, len(packets)),
		Templates:  make(map[string]map[string]TemplateJSON),
	}

	for _, p := range packets {
		doc.Packets = append(doc.Packets, packetJSON(p))
	}

	for sourceID, byID := range cache.Snapshot() {
		inner := make(map[string]TemplateJSON, len(byID))
		for id, tmpl := range byID {
			inner[fmt.Sprintf("%d", id)] = templateJSON(&tmpl)
		}
		doc.Templates[fmt.Sprintf("%d", sourceID)] = inner
	}

	return doc
}

// WriteFile marshals the document, indented, to path
func WriteFile(doc Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}
