package rules

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ReasonBlocklisted is reported by BlocklistRule. It is not part of Default.
const ReasonBlocklisted = "Host on local blocklist"

// BlocklistRule flags URLs whose host appears in a locally maintained list.
//
// Domain entries match the host itself and every subdomain of the
// registrable domain they name. IP entries are kept as /24 (IPv4) or /64
// (IPv6) prefixes, so one noisy address covers its neighbours.
//
// The list is read once at construction; nothing is fetched remotely.
type BlocklistRule struct {
	Domains  map[string]bool
	Prefixes map[string]bool
}

// NewBlocklistRule builds a rule from domain and IP entries.
func NewBlocklistRule(entries []string) *BlocklistRule {
	b := &BlocklistRule{Domains: make(map[string]bool), Prefixes: make(map[string]bool)}
	for _, e := range entries {
		b.add(e)
	}
	return b
}

// LoadBlocklistRule reads entries from a file.
//
// Format:
//   - One domain, IP or CIDR per line
//   - Lines starting with # are ignored
//   - Anything after the first whitespace is ignored ("1.2.3.4\t5")
func LoadBlocklistRule(path string) (*BlocklistRule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open blocklist: %w", err)
	}
	defer f.Close()
	return ReadBlocklistRule(f)
}

// ReadBlocklistRule reads entries from r in the LoadBlocklistRule format.
func ReadBlocklistRule(r io.Reader) (*BlocklistRule, error) {
	b := NewBlocklistRule(nil)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		b.add(strings.Fields(line)[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read blocklist: %w", err)
	}
	return b, nil
}

func (b *BlocklistRule) add(entry string) {
	entry = strings.ToLower(strings.TrimSpace(entry))
	switch {
	case entry == "":
	case strings.Contains(entry, "/"):
		if _, n, err := net.ParseCIDR(entry); err == nil {
			b.Prefixes[n.String()] = true
		}
	case net.ParseIP(entry) != nil:
		b.Prefixes[maskIPToPrefix(entry)] = true
	default:
		b.Domains[strings.TrimSuffix(entry, ".")] = true
	}
}

// Len returns the number of distinct entries.
func (b *BlocklistRule) Len() int {
	return len(b.Domains) + len(b.Prefixes)
}

func (b *BlocklistRule) Name() string {
	return "blocklist"
}

func (b *BlocklistRule) Description() string {
	return ReasonBlocklisted
}

func (b *BlocklistRule) Match(target Target) bool {
	host := hostOf(target.Lower)
	if host == "" {
		return false
	}
	if net.ParseIP(host) != nil {
		return b.Prefixes[maskIPToPrefix(host)]
	}
	if b.Domains[host] {
		return true
	}
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return b.Domains[etld1]
	}
	return false
}

// hostOf extracts the host from a URL that may lack a scheme.
func hostOf(raw string) string {
	if !strings.Contains(raw, "://") {
		raw = "//" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(u.Hostname(), ".")
}

// maskIPToPrefix masks an IP address to its /24 (IPv4) or /64 (IPv6) prefix.
func maskIPToPrefix(ipStr string) string {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}
	if v4 := ip.To4(); v4 != nil {
		return v4.Mask(net.CIDRMask(24, 32)).String() + "/24"
	}
	return ip.Mask(net.CIDRMask(64, 128)).String() + "/64"
}
