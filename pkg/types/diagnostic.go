package types

import "fmt"

// ErrorKind classifies the failure modes of the decoder
type ErrorKind int

const (
	// Truncated means fewer bytes were present than a declared structure
	// requires. Decoding of the packet stops.
	Truncated ErrorKind = iota

	// InvalidHeader means version != 9 or count == 0. The packet is
	// rejected.
	InvalidHeader

	// MalformedFlowSet means a FlowSet declared a length < 4. There is no
	// way to resynchronize, so the packet is abandoned.
	MalformedFlowSet

	// UnknownTemplate means a Data FlowSet referenced a template the cache
	// has not seen. Expected at cold start and after loss; the FlowSet is
	// skipped.
	UnknownTemplate

	// InvalidTemplate means a cached template has a record length of zero.
	// The FlowSet is skipped.
	InvalidTemplate

	// FieldLength means a fixed-width formatter was handed a mis-sized
	// slice; the field falls back to hex.
	FieldLength
)

func (k ErrorKind) String() string {
	switch k {
	case Truncated:
		return "Truncated"
	case InvalidHeader:
		return "InvalidHeader"
	case MalformedFlowSet:
		return "MalformedFlowSet"
	case UnknownTemplate:
		return "UnknownTemplate"
	case InvalidTemplate:
		return "InvalidTemplate"
	case FieldLength:
		return "FieldLength"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Diagnostic reports a recoverable problem encountered while decoding one
// datagram. Diagnostics accompany the decoded records; they are warnings,
// not fatal errors.
type Diagnostic struct {
	Kind       ErrorKind
	Offset     int
	SourceID   uint32
	TemplateID uint16
	Message    string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s at offset %d: %s", d.Kind, d.Offset, d.Message)
}
