package engine

import (
	"net"
	"net/url"
	"strings"

	"github.com/gokaycavdar/go-urlguard/pkg/models"
	"golang.org/x/net/publicsuffix"
)

// HostResolver adds offline metadata for IP-literal hosts.
// geoip.Service implements it.
type HostResolver interface {
	ResolveIP(ip string) (country string, asn uint, org string, err error)
}

// describeHost parses rawURL into informational host metadata. URLs without
// a scheme are parsed as if they had one so "example.com/x" still yields a
// host. Returns nil when no host can be found.
func describeHost(rawURL string, resolver HostResolver) *models.HostInfo {
	raw := strings.TrimSpace(rawURL)
	if !strings.Contains(raw, "://") {
		raw = "//" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return nil
	}

	host := strings.ToLower(u.Hostname())
	info := &models.HostInfo{
		Scheme: strings.ToLower(u.Scheme),
		Host:   host,
	}

	if ip := net.ParseIP(host); ip != nil {
		info.IsIP = true
		if resolver != nil {
			if country, asn, org, rerr := resolver.ResolveIP(host); rerr == nil {
				info.Country = country
				info.ASN = asn
				info.Organization = org
			}
		}
		return info
	}

	if etld1, perr := publicsuffix.EffectiveTLDPlusOne(host); perr == nil {
		info.RegistrableDomain = etld1
	}
	return info
}
