package models

// HostInfo describes the host part of an analyzed URL.
// Country, ASN and Organization are only filled for IP-literal hosts when a
// GeoIP database is configured.
type HostInfo struct {
	Scheme            string `json:"scheme,omitempty" yaml:"scheme,omitempty"`
	Host              string `json:"host,omitempty" yaml:"host,omitempty"`
	RegistrableDomain string `json:"registrable_domain,omitempty" yaml:"registrable_domain,omitempty"`
	IsIP              bool   `json:"is_ip" yaml:"is_ip"`
	Country           string `json:"country,omitempty" yaml:"country,omitempty"`
	ASN               uint   `json:"asn,omitempty" yaml:"asn,omitempty"`
	Organization      string `json:"organization,omitempty" yaml:"organization,omitempty"`
}
