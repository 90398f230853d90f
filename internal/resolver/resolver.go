package resolver

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
)

// Resolver turns exporter addresses into display names via cached reverse
// DNS. Regular DNS is tried first, then mDNS for hosts without PTR records
// (home routers rarely have one).
type Resolver struct {
	mu      sync.RWMutex
	cache   map[string]cacheEntry
	enabled bool
	timeout time.Duration
	maxAge  time.Duration
}

type cacheEntry struct {
	hostname  string
	timestamp time.Time
	notFound  bool
}

// New creates a new resolver
func New() *Resolver {
	return &Resolver{
		cache:   make(map[string]cacheEntry),
		enabled: true,
		timeout: 500 * time.Millisecond,
		maxAge:  5 * time.Minute,
	}
}

// SetEnabled enables or disables DNS resolution
func (r *Resolver) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
}

// Resolve returns the hostname for an IP address. Cache misses resolve in
// the background; until then the IP string is returned.
func (r *Resolver) Resolve(ip net.IP) string {
	if ip == nil {
		return ""
	}
	ipStr := ip.String()

	r.mu.RLock()
	enabled := r.enabled
	entry, ok := r.cache[ipStr]
	r.mu.RUnlock()

	if !enabled {
		return ipStr
	}
	if ok && time.Since(entry.timestamp) < r.maxAge {
		if entry.notFound {
			return ipStr
		}
		return entry.hostname
	}

	go r.lookup(ipStr)
	return ipStr
}

// ResolveSync resolves immediately. It blocks for the system lookup and, if
// that finds nothing, the mDNS query, each bounded by the resolver timeout.
func (r *Resolver) ResolveSync(ip net.IP) string {
	if ip == nil {
		return ""
	}
	ipStr := ip.String()

	r.mu.RLock()
	enabled := r.enabled
	entry, ok := r.cache[ipStr]
	r.mu.RUnlock()

	if !enabled {
		return ipStr
	}
	if ok && time.Since(entry.timestamp) < r.maxAge {
		if entry.notFound {
			return ipStr
		}
		return entry.hostname
	}

	return r.lookup(ipStr)
}

// reverseIPv4 creates the reverse DNS name for an IPv4 address
func reverseIPv4(ip net.IP) string {
	ip = ip.To4()
	if ip == nil {
		return ""
	}
	return fmt.Sprintf("%d.%d.%d.%d.in-addr.arpa.", ip[3], ip[2], ip[1], ip[0])
}

// lookupMDNS tries to resolve an IP address via multicast DNS
func (r *Resolver) lookupMDNS(ipStr string) string {
	ip := net.ParseIP(ipStr)
	if ip == nil || ip.To4() == nil {
		return ""
	}

	msg := new(dns.Msg)
	msg.SetQuestion(reverseIPv4(ip), dns.TypePTR)
	msg.RecursionDesired = false

	client := &dns.Client{
		Net:     "udp",
		Timeout: r.timeout,
	}

	response, _, err := client.Exchange(msg, "224.0.0.251:5353")
	if err != nil {
		return ""
	}

	for _, answer := range response.Answer {
		if ptr, ok := answer.(*dns.PTR); ok {
			return strings.TrimSuffix(ptr.Ptr, ".")
		}
	}
	return ""
}

func (r *Resolver) lookup(ipStr string) string {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	var hostname string
	found := false

	if names, err := net.DefaultResolver.LookupAddr(ctx, ipStr); err == nil && len(names) > 0 {
		hostname = strings.TrimSuffix(names[0], ".")
		found = hostname != ""
	}

	if !found {
		if mdnsHostname := r.lookupMDNS(ipStr); mdnsHostname != "" {
			hostname = mdnsHostname
			found = true
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !found {
		r.cache[ipStr] = cacheEntry{hostname: ipStr, timestamp: time.Now(), notFound: true}
		return ipStr
	}
	r.cache[ipStr] = cacheEntry{hostname: hostname, timestamp: time.Now()}
	return hostname
}

// CacheSize returns the number of cached entries
func (r *Resolver) CacheSize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

// Clear drops all cached entries
func (r *Resolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]cacheEntry)
}
