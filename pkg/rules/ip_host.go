package rules

import "regexp"

// dottedQuad matches four 1-3 digit groups anywhere in the text. Octets are
// not range-checked: "999.999.999.999" matches too.
var dottedQuad = regexp.MustCompile(`[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}`)

// IPAddressRule flags URLs that embed an IPv4-like address.
type IPAddressRule struct {
	pattern *regexp.Regexp
}

func NewIPAddressRule() *IPAddressRule {
	return &IPAddressRule{pattern: dottedQuad}
}

func (i *IPAddressRule) Name() string {
	return "ip-address-host"
}

func (i *IPAddressRule) Description() string {
	return ReasonIPAddress
}

func (i *IPAddressRule) Match(target Target) bool {
	return i.pattern.MatchString(target.Lower)
}
