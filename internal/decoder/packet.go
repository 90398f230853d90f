package decoder

import (
	"encoding/binary"
	"fmt"
	"time"

	"netflow9-collector/pkg/types"
)

const (
	// Version is the only NetFlow version this decoder accepts
	Version = 9

	headerSize        = 20
	flowSetHeaderSize = 4
)

// Decoder turns raw NetFlow v9 datagram bodies into typed records. It is
// synchronous and pure with respect to its input: decoded values are owned,
// no reference to the input slice survives a Decode call, and the template
// cache is the only shared state. One cache may back any number of Decoder
// instances across goroutines.
type Decoder struct {
	cache *TemplateCache
}

// New creates a Decoder backed by cache
func New(cache *TemplateCache) *Decoder {
	return &Decoder{cache: cache}
}

// Cache returns the template cache backing this decoder
func (d *Decoder) Cache() *TemplateCache {
	return d.cache
}

// IsV9 reports whether data plausibly starts a NetFlow v9 datagram. This is
// the cheap gate for rejecting foreign traffic before a full decode.
func IsV9(data []byte) bool {
	return len(data) >= headerSize && binary.BigEndian.Uint16(data[0:2]) == Version
}

// Decode decodes one complete NetFlow v9 datagram body.
//
// On success the first record is always the PacketHeader, followed by the
// templates and data records of each FlowSet in wire order. Recoverable
// problems (unknown templates, truncation, malformed FlowSets) are reported
// as diagnostics next to whatever was decoded before them; an invalid
// header rejects the whole packet. Decode never panics on any input.
func (d *Decoder) Decode(data []byte) ([]types.Record, []types.Diagnostic) {
	header, diag := decodeHeader(data)
	if diag != nil {
		packetsDecoded.WithLabelValues("rejected").Inc()
		return nil, []types.Diagnostic{*diag}
	}

	records := []types.Record{header}
	var diags []types.Diagnostic

	// The header's count field is advisory only: exporters disagree on
	// whether it counts FlowSets or individual records, so the walk is
	// driven purely by the length fields.
	offset := headerSize
	for len(data)-offset >= flowSetHeaderSize {
		length := int(binary.BigEndian.Uint16(data[offset+2 : offset+4]))

		if length < flowSetHeaderSize {
			diags = append(diags, types.Diagnostic{
				Kind:     types.MalformedFlowSet,
				Offset:   offset,
				SourceID: header.SourceID,
				Message:  fmt.Sprintf("flowset declares length %d, need at least %d", length, flowSetHeaderSize),
			})
			break
		}
		if length > len(data)-offset {
			diags = append(diags, types.Diagnostic{
				Kind:     types.Truncated,
				Offset:   offset,
				SourceID: header.SourceID,
				Message:  fmt.Sprintf("flowset declares length %d but only %d bytes remain", length, len(data)-offset),
			})
			break
		}

		fsRecords, fsDiags := d.decodeFlowSet(data[offset:offset+length], header.SourceID, offset)
		records = append(records, fsRecords...)
		diags = append(diags, fsDiags...)

		offset += length
	}
	// Fewer than 4 trailing bytes are padding and discarded

	packetsDecoded.WithLabelValues("ok").Inc()
	return records, diags
}

// decodeHeader decodes and validates the 20-byte packet header. count == 0
// is treated as malformed.
func decodeHeader(data []byte) (*types.PacketHeader, *types.Diagnostic) {
	r := NewReader(data)

	version, err := r.Uint16()
	if err != nil {
		return nil, &types.Diagnostic{
			Kind:    types.InvalidHeader,
			Message: fmt.Sprintf("packet too short for header: %d bytes", len(data)),
		}
	}
	if version != Version {
		return nil, &types.Diagnostic{
			Kind:    types.InvalidHeader,
			Message: fmt.Sprintf("version %d, want %d", version, Version),
		}
	}
	if len(data) < headerSize {
		return nil, &types.Diagnostic{
			Kind:    types.InvalidHeader,
			Message: fmt.Sprintf("packet too short for header: %d bytes", len(data)),
		}
	}

	count, _ := r.Uint16()
	sysUptime, _ := r.Uint32()
	unixSecs, _ := r.Uint32()
	sequence, _ := r.Uint32()
	sourceID, _ := r.Uint32()

	if count == 0 {
		return nil, &types.Diagnostic{
			Kind:     types.InvalidHeader,
			SourceID: sourceID,
			Message:  "header count is zero",
		}
	}

	return &types.PacketHeader{
		Version:        version,
		Count:          count,
		SysUptimeMs:    sysUptime,
		UnixSeconds:    unixSecs,
		SequenceNumber: sequence,
		SourceID:       sourceID,
		Timestamp:      time.Unix(int64(unixSecs), 0).UTC(),
	}, nil
}
