package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"netflow9-collector/internal/decoder"
	"netflow9-collector/internal/export"
	"netflow9-collector/internal/store"
)

const defaultRecordLimit = 500

// Handlers serves the dashboard's JSON endpoints from the record store and
// the template cache
type Handlers struct {
	store *store.RecordStore
	cache *decoder.TemplateCache
	log   *zap.Logger
}

// NewHandlers creates the handler set
func NewHandlers(recordStore *store.RecordStore, cache *decoder.TemplateCache, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{store: recordStore, cache: cache, log: log}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Warn("failed to encode response", zap.Error(err))
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, ErrorResponse{Error: msg, Code: status})
}

// HandlePackets serves the full export document: decoded packets plus the
// template snapshot
func (h *Handlers) HandlePackets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	count := 100
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "invalid count")
			return
		}
		count = n
	}

	doc := export.Build(h.store.RecentPackets(count), h.cache, time.Now())
	h.writeJSON(w, http.StatusOK, doc)
}

// HandleRecords serves recent data records, optionally filtered with
// ?filter=key=value terms
func (h *Handlers) HandleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := defaultRecordLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	filterExpr := r.URL.Query().Get("filter")

	records := h.store.QueryRecords(store.ParseFilter(filterExpr), limit)
	resp := RecordsResponse{
		Records:   make([]RecordResponse, 0, len(records)),
		Total:     h.store.Stats().TotalRecords,
		Returned:  len(records),
		Generated: time.Now(),
		Filter:    filterExpr,
	}
	for _, rec := range records {
		resp.Records = append(resp.Records, RecordResponse{TemplateID: rec.TemplateID, Values: rec.Values})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleTemplates serves the template cache snapshot
func (h *Handlers) HandleTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	doc := export.Build(nil, h.cache, time.Now())
	h.writeJSON(w, http.StatusOK, TemplatesResponse{
		Templates: doc.Templates,
		Generated: time.Now(),
	})
}

// HandleStats serves collector statistics
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats := h.store.Stats()
	h.writeJSON(w, http.StatusOK, StatsResponse{
		TotalPackets:     stats.TotalPackets,
		TotalRecords:     stats.TotalRecords,
		TotalBytes:       stats.TotalBytes,
		TotalTemplates:   stats.TotalTemplates,
		InvalidPackets:   stats.InvalidPackets,
		UnknownTemplates: stats.UnknownTemplates,
		TruncatedPackets: stats.TruncatedPackets,
		SequenceGaps:     stats.SequenceGaps,
		RecordsPerSecond: stats.RecordsPerSecond(),
		UniqueSources:    stats.UniqueSources,
		CurrentRecords:   stats.CurrentRecords,
		CachedTemplates:  h.cache.Len(),
		Generated:        time.Now(),
	})
}
