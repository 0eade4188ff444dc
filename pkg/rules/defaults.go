package rules

// Risk factor texts reported by the built-in rules.
const (
	ReasonShortenedURL     = "Shortened URL - potential redirect risk"
	ReasonNonHTTPS         = "Non-HTTPS connection"
	ReasonIPAddress        = "IP address instead of domain name"
	ReasonPhishingKeywords = "Potential phishing keywords detected"
	ReasonUrgency          = "Suspicious urgency indicators"
)

// Default returns the built-in rules in reporting order.
func Default() []Rule {
	return []Rule{
		ShortenedURLRule(),
		NewHTTPSRule(),
		NewIPAddressRule(),
		PhishingKeywordRule(),
		UrgencyRule(),
	}
}
