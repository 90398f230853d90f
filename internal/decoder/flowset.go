package decoder

import (
	"fmt"

	"netflow9-collector/pkg/types"
)

// FlowSet IDs 0 and 1 carry template definitions; 2-255 are reserved;
// anything >= 256 is a Data FlowSet and doubles as the template ID it uses.
const (
	flowSetTemplate        = 0
	flowSetOptionsTemplate = 1
	minDataFlowSetID       = 256
)

// decodeFlowSet decodes one complete FlowSet. data starts at the 4-byte
// FlowSet header and has already been bounded to the declared length by the
// packet walker. baseOffset is the FlowSet's position in the datagram, used
// for diagnostics only.
//
// Template FlowSets install their templates into the cache as a side effect
// and emit them; Data FlowSets emit data records. Options-Template and
// reserved FlowSets are skipped without error.
func (d *Decoder) decodeFlowSet(data []byte, sourceID uint32, baseOffset int) ([]types.Record, []types.Diagnostic) {
	r := NewReader(data)
	flowSetID, err := r.Uint16()
	if err != nil {
		return nil, nil
	}
	if _, err := r.Uint16(); err != nil { // length, already validated
		return nil, nil
	}
	content := data[flowSetHeaderSize:]

	switch {
	case flowSetID == flowSetTemplate:
		return d.decodeTemplates(content, sourceID)
	case flowSetID == flowSetOptionsTemplate:
		// Options templates are recognized but not decoded
		flowSetsDecoded.WithLabelValues("options-template").Inc()
		return nil, nil
	case flowSetID < minDataFlowSetID:
		// Reserved range
		flowSetsDecoded.WithLabelValues("reserved").Inc()
		return nil, nil
	default:
		return d.decodeDataFlowSet(content, sourceID, flowSetID, baseOffset)
	}
}

// decodeTemplates walks the template records packed back-to-back inside one
// Template FlowSet. A partial trailing record ends the FlowSet without
// error.
func (d *Decoder) decodeTemplates(content []byte, sourceID uint32) ([]types.Record, []types.Diagnostic) {
	var records []types.Record
	r := NewReader(content)

	for r.Remaining() >= 4 {
		templateID, _ := r.Uint16()
		fieldCount, _ := r.Uint16()

		if r.Remaining() < int(fieldCount)*4 {
			// Partial trailing tuple, exporter padded or lied about the count
			break
		}

		template := &types.TemplateRecord{
			TemplateID: templateID,
			Fields:     make([]types.TemplateField, fieldCount),
		}
		for i := 0; i < int(fieldCount); i++ {
			fieldType, _ := r.Uint16()
			fieldLength, _ := r.Uint16()
			template.Fields[i] = types.TemplateField{Type: fieldType, Length: fieldLength}
		}

		d.cache.Put(sourceID, template)
		records = append(records, template)
		templatesLearned.Inc()
	}

	flowSetsDecoded.WithLabelValues("template").Inc()
	return records, nil
}

// decodeDataFlowSet decodes the fixed-stride records of one Data FlowSet
// using the exporter's cached template. Trailing bytes smaller than one
// stride are padding.
func (d *Decoder) decodeDataFlowSet(content []byte, sourceID uint32, templateID uint16, baseOffset int) ([]types.Record, []types.Diagnostic) {
	template, ok := d.cache.Get(sourceID, templateID)
	if !ok {
		unknownTemplates.Inc()
		return nil, []types.Diagnostic{{
			Kind:       types.UnknownTemplate,
			Offset:     baseOffset,
			SourceID:   sourceID,
			TemplateID: templateID,
			Message:    fmt.Sprintf("no template %d cached for source %d", templateID, sourceID),
		}}
	}

	recordLength := template.RecordLength()
	if recordLength == 0 {
		return nil, []types.Diagnostic{{
			Kind:       types.InvalidTemplate,
			Offset:     baseOffset,
			SourceID:   sourceID,
			TemplateID: templateID,
			Message:    fmt.Sprintf("template %d for source %d has zero record length", templateID, sourceID),
		}}
	}

	var records []types.Record
	r := NewReader(content)
	for r.Remaining() >= recordLength {
		values := types.NewFieldMap()
		for _, field := range template.Fields {
			// Bounded by the stride check above, cannot fail
			raw, _ := r.Bytes(int(field.Length))
			key, value := DecodeField(field.Type, raw)
			values.Set(key, value)
		}
		records = append(records, &types.DataRecord{
			TemplateID: templateID,
			Values:     values,
		})
	}

	flowSetsDecoded.WithLabelValues("data").Inc()
	recordsDecoded.Add(float64(len(records)))
	return records, nil
}
