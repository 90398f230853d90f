package decoder

import (
	"encoding/binary"
	"fmt"
	"time"
)

// NetFlow v9 field type IDs (RFC 3954 / Cisco field catalog)
const (
	NF9_IN_BYTES           = 1
	NF9_IN_PKTS            = 2
	NF9_PROTOCOL           = 4
	NF9_SRC_TOS            = 5
	NF9_TCP_FLAGS          = 6
	NF9_L4_SRC_PORT        = 7
	NF9_IPV4_SRC_ADDR      = 8
	NF9_SRC_MASK           = 9
	NF9_INPUT_SNMP         = 10
	NF9_L4_DST_PORT        = 11
	NF9_IPV4_DST_ADDR      = 12
	NF9_DST_MASK           = 13
	NF9_OUTPUT_SNMP        = 14
	NF9_IPV4_NEXT_HOP      = 15
	NF9_SRC_MAC           = 21
	NF9_DST_MAC           = 22
	NF9_FLOW_START        = 34
	NF9_FLOW_END          = 35
	NF9_FLOW_START_SYSUP  = 56
	NF9_FLOW_END_SYSUP    = 57
	NF9_FLOW_START_UNIX   = 80
	NF9_FLOW_END_UNIX     = 81
	NF9_POST_NAT_SRC_ADDR = 225
	NF9_POST_NAT_DST_ADDR = 226
	NF9_POST_NAT_SRC_PORT = 227
	NF9_POST_NAT_DST_PORT = 228
)

// valueFormat decodes one field's bytes into its textual form. The slice is
// guaranteed to match the catalog width when called.
type valueFormat func(b []byte) string

// fieldSpec binds a field type to its output key, canonical wire width and
// decoding rule. Fields arriving with any other width fall back to hex.
type fieldSpec struct {
	key    string
	length int
	format valueFormat
}

func formatUint8(b []byte) string  { return fmt.Sprintf("%d", b[0]) }
func formatUint16(b []byte) string { return fmt.Sprintf("%d", binary.BigEndian.Uint16(b)) }
func formatUint32(b []byte) string { return fmt.Sprintf("%d", binary.BigEndian.Uint32(b)) }

func formatIPv4(b []byte) string {
	s, _ := ToIPv4(b)
	return s
}

func formatMAC(b []byte) string {
	s, _ := ToMAC(b)
	return s
}

// formatUnixMillis renders an 8-byte milliseconds-since-epoch timestamp as
// ISO-8601 UTC
func formatUnixMillis(b []byte) string {
	ms := binary.BigEndian.Uint64(b)
	return time.UnixMilli(int64(ms)).UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

var fieldCatalog = map[uint16]fieldSpec{
	NF9_IN_BYTES:          {"Bytes", 4, formatUint32},
	NF9_IN_PKTS:           {"Packets", 4, formatUint32},
	NF9_PROTOCOL:          {"Protocol", 1, formatUint8},
	NF9_SRC_TOS:           {"TOS", 1, formatUint8},
	NF9_TCP_FLAGS:         {"TCP Flags", 1, formatUint8},
	NF9_L4_SRC_PORT:       {"Src Port", 2, formatUint16},
	NF9_IPV4_SRC_ADDR:     {"Src IP", 4, formatIPv4},
	NF9_SRC_MASK:          {"Src Mask", 1, formatUint8},
	NF9_INPUT_SNMP:        {"Input IF", 4, formatUint32},
	NF9_L4_DST_PORT:       {"Dst Port", 2, formatUint16},
	NF9_IPV4_DST_ADDR:     {"Dst IP", 4, formatIPv4},
	NF9_DST_MASK:          {"Dst Mask", 1, formatUint8},
	NF9_OUTPUT_SNMP:       {"Output IF", 4, formatUint32},
	NF9_IPV4_NEXT_HOP:     {"Next Hop", 4, formatIPv4},
	NF9_SRC_MAC:           {"Src MAC", 6, formatMAC},
	NF9_DST_MAC:           {"Dst MAC", 6, formatMAC},
	NF9_FLOW_START:        {"Start Time", 4, formatUint32},
	NF9_FLOW_END:          {"End Time", 4, formatUint32},
	NF9_FLOW_START_SYSUP:  {"Flow Start SysUp", 4, formatUint32},
	NF9_FLOW_END_SYSUP:    {"Flow End SysUp", 4, formatUint32},
	NF9_FLOW_START_UNIX:   {"Flow Start Unix", 8, formatUnixMillis},
	NF9_FLOW_END_UNIX:     {"Flow End Unix", 8, formatUnixMillis},
	NF9_POST_NAT_SRC_ADDR: {"Post-NAT Src IP", 4, formatIPv4},
	NF9_POST_NAT_DST_ADDR: {"Post-NAT Dst IP", 4, formatIPv4},
	NF9_POST_NAT_SRC_PORT: {"Post-NAT Src Port", 2, formatUint16},
	NF9_POST_NAT_DST_PORT: {"Post-NAT Dst Port", 2, formatUint16},
}

// FieldKey returns the canonical output key for a field type. Types outside
// the catalog get a generated Field_<type> key.
func FieldKey(fieldType uint16) string {
	if spec, ok := fieldCatalog[fieldType]; ok {
		return spec.key
	}
	return fmt.Sprintf("Field_%d", fieldType)
}

// DecodeField turns a field's raw bytes into its output key and value.
// Unknown types and width mismatches degrade to hex; a zero-width field
// yields an empty value. Decoding a field never fails.
func DecodeField(fieldType uint16, data []byte) (key, value string) {
	key = FieldKey(fieldType)
	if len(data) == 0 {
		return key, ""
	}
	spec, ok := fieldCatalog[fieldType]
	if !ok || len(data) != spec.length {
		return key, ToHex(data)
	}
	return key, spec.format(data)
}
