package rules

import (
	"strings"

	"github.com/gokaycavdar/go-urlguard/pkg/models"
)

const httpsPrefix = "https://"

// HTTPSRule flags URLs that do not start with the https:// scheme prefix.
// A missing scheme is verifiable without any lookup, so the rule also forces
// the SSL certificate check to fail regardless of its draw.
type HTTPSRule struct{}

func NewHTTPSRule() *HTTPSRule {
	return &HTTPSRule{}
}

func (h *HTTPSRule) Name() string {
	return "non-https"
}

func (h *HTTPSRule) Description() string {
	return ReasonNonHTTPS
}

func (h *HTTPSRule) Match(target Target) bool {
	return !strings.HasPrefix(target.Lower, httpsPrefix)
}

func (h *HTTPSRule) OverrideChecks(outcomes models.CheckOutcome) {
	outcomes[models.CheckSSLCertificate] = false
}
