package api

import (
	"time"

	"netflow9-collector/internal/export"
	"netflow9-collector/pkg/types"
)

// RecordResponse is a single decoded data record for /api/v1/records
type RecordResponse struct {
	TemplateID uint16          `json:"templateId"`
	Values     *types.FieldMap `json:"values"`
}

// RecordsResponse is the answer for /api/v1/records
type RecordsResponse struct {
	Records   []RecordResponse `json:"records"`
	Total     uint64           `json:"total"`
	Returned  int              `json:"returned"`
	Generated time.Time        `json:"generated"`
	Filter    string           `json:"filter,omitempty"`
}

// TemplatesResponse is the answer for /api/v1/templates: the cache
// snapshot in the export document's shape
type TemplatesResponse struct {
	Templates map[string]map[string]export.TemplateJSON `json:"templates"`
	Generated time.Time                                 `json:"generated"`
}

// StatsResponse is the answer for /api/v1/stats
type StatsResponse struct {
	TotalPackets     uint64    `json:"totalPackets"`
	TotalRecords     uint64    `json:"totalRecords"`
	TotalBytes       uint64    `json:"totalBytes"`
	TotalTemplates   uint64    `json:"totalTemplates"`
	InvalidPackets   uint64    `json:"invalidPackets"`
	UnknownTemplates uint64    `json:"unknownTemplates"`
	TruncatedPackets uint64    `json:"truncatedPackets"`
	SequenceGaps     uint64    `json:"sequenceGaps"`
	RecordsPerSecond float64   `json:"recordsPerSecond"`
	UniqueSources    int       `json:"uniqueSources"`
	CurrentRecords   int       `json:"currentRecords"`
	CachedTemplates  int       `json:"cachedTemplates"`
	Generated        time.Time `json:"generated"`
}

// ErrorResponse is returned on failures
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
