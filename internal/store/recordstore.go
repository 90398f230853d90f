package store

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"netflow9-collector/pkg/types"
)

// Filter matches data records by their decoded field values. Terms are
// ANDed; a term matches when the record's value for the key contains the
// wanted substring (case-insensitive). An empty filter matches everything.
type Filter struct {
	terms []filterTerm
}

type filterTerm struct {
	key   string
	value string
}

// ParseFilter parses expressions of the form "key=value key=value ...".
// Keys are the canonical field keys with spaces collapsed, matched
// case-insensitively ("srcip" matches "Src IP").
func ParseFilter(s string) Filter {
	var f Filter
	for _, tok := range strings.Fields(s) {
		k, v, ok := strings.Cut(tok, "=")
		if !ok || k == "" || v == "" {
			continue
		}
		f.terms = append(f.terms, filterTerm{key: normalizeKey(k), value: strings.ToLower(v)})
	}
	return f
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.ReplaceAll(k, " ", ""))
}

// IsEmpty reports whether the filter has no terms
func (f *Filter) IsEmpty() bool {
	return len(f.terms) == 0
}

// Matches reports whether a data record satisfies every term
func (f *Filter) Matches(r *types.DataRecord) bool {
	for _, term := range f.terms {
		matched := false
		for _, key := range r.Values.Keys() {
			if normalizeKey(key) != term.key {
				continue
			}
			v, _ := r.Values.Get(key)
			if strings.Contains(strings.ToLower(v), term.value) {
				matched = true
			}
			break
		}
		if !matched {
			return false
		}
	}
	return true
}

// Stats summarizes everything the store has seen
type Stats struct {
	TotalPackets     uint64
	TotalRecords     uint64
	TotalBytes       uint64
	TotalTemplates   uint64
	InvalidPackets   uint64
	UnknownTemplates uint64
	TruncatedPackets uint64
	SequenceGaps     uint64
	UniqueSources    int
	CurrentRecords   int
	StartedAt        time.Time
}

// RecordsPerSecond is the average data-record rate since the store started
func (s Stats) RecordsPerSecond() float64 {
	elapsed := time.Since(s.StartedAt).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.TotalRecords) / elapsed
}

// sourceState tracks per-exporter sequence continuity
type sourceState struct {
	lastSequence uint32
	seen         bool
}

// RecordStore keeps decoded packets in memory for the API and the display.
// It holds at most maxRecords data records; when the cap is exceeded the
// oldest packets are evicted whole. Safe for concurrent use.
type RecordStore struct {
	mu         sync.RWMutex
	packets    []types.Packet
	maxRecords int
	records    int
	stats      Stats
	sources    map[uint32]*sourceState
}

const DefaultMaxRecords = 100000

// New creates a store capped at maxRecords data records
func New(maxRecords int) *RecordStore {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	return &RecordStore{
		maxRecords: maxRecords,
		sources:    map[uint32]*sourceState{},
		stats:      Stats{StartedAt: time.Now()},
	}
}

// Add ingests one decoded packet and its diagnostics
func (s *RecordStore) Add(pkt types.Packet, diags []types.Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.TotalPackets++

	state := s.sources[pkt.Header.SourceID]
	if state == nil {
		state = &sourceState{}
		s.sources[pkt.Header.SourceID] = state
	}
	// Sequence numbers increase per exporter; a jump means loss upstream
	if state.seen && pkt.Header.SequenceNumber != state.lastSequence+1 {
		s.stats.SequenceGaps++
	}
	state.lastSequence = pkt.Header.SequenceNumber
	state.seen = true

	n := 0
	for _, r := range pkt.Records {
		switch rec := r.(type) {
		case *types.TemplateRecord:
			s.stats.TotalTemplates++
		case *types.DataRecord:
			s.stats.TotalRecords++
			n++
			if v, ok := rec.Values.Get("Bytes"); ok {
				if b, err := strconv.ParseUint(v, 10, 64); err == nil {
					s.stats.TotalBytes += b
				}
			}
		}
	}
	for _, d := range diags {
		switch d.Kind {
		case types.UnknownTemplate:
			s.stats.UnknownTemplates++
		case types.Truncated:
			s.stats.TruncatedPackets++
		}
	}

	s.packets = append(s.packets, pkt)
	s.records += n
	s.evict()
}

// AddInvalid counts a datagram the decoder rejected outright
func (s *RecordStore) AddInvalid() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.InvalidPackets++
}

// evict drops the oldest packets until the record cap holds. Caller must
// hold the write lock.
func (s *RecordStore) evict() {
	i := 0
	for s.records > s.maxRecords && i < len(s.packets) {
		for _, r := range s.packets[i].Records {
			if r.Kind() == types.KindData {
				s.records--
			}
		}
		i++
	}
	if i > 0 {
		s.packets = append([]types.Packet(nil), s.packets[i:]...)
	}
}

// RecentPackets returns up to count packets, newest last
func (s *RecordStore) RecentPackets(count int) []types.Packet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if count > 0 && len(s.packets) > count {
		start = len(s.packets) - count
	}
	out := make([]types.Packet, len(s.packets)-start)
	copy(out, s.packets[start:])
	return out
}

// QueryRecords returns up to limit data records matching filter, newest
// first. A limit of 0 means no limit.
func (s *RecordStore) QueryRecords(filter Filter, limit int) []*types.DataRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.DataRecord
	for i := len(s.packets) - 1; i >= 0; i-- {
		for _, dr := range s.packets[i].DataRecords() {
			if !filter.IsEmpty() && !filter.Matches(dr) {
				continue
			}
			out = append(out, dr)
			if limit > 0 && len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// Stats returns a copy of the current statistics
func (s *RecordStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := s.stats
	stats.UniqueSources = len(s.sources)
	stats.CurrentRecords = s.records
	return stats
}

// PacketCount returns the number of retained packets
func (s *RecordStore) PacketCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.packets)
}

// Clear drops all retained packets but keeps cumulative statistics
func (s *RecordStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packets = nil
	s.records = 0
}
