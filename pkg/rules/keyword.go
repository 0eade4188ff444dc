package rules

// KeywordRule flags a URL whose lower-cased text contains any of its keywords.
// Matching is plain substring search, so "t.co" also hits "t.com".
type KeywordRule struct {
	ID       string
	Reason   string
	Keywords []string
}

// NewKeywordRule builds a substring rule. Keywords must be lower-case.
func NewKeywordRule(id, reason string, keywords ...string) *KeywordRule {
	return &KeywordRule{ID: id, Reason: reason, Keywords: keywords}
}

func (k *KeywordRule) Name() string {
	return k.ID
}

func (k *KeywordRule) Description() string {
	return k.Reason
}

func (k *KeywordRule) Match(target Target) bool {
	return containsAny(target.Lower, k.Keywords)
}

// ShortenedURLRule flags well-known link shorteners.
func ShortenedURLRule() *KeywordRule {
	return NewKeywordRule("shortened-url", ReasonShortenedURL, "bit.ly", "tinyurl", "t.co")
}

// PhishingKeywordRule flags credential-harvesting vocabulary.
func PhishingKeywordRule() *KeywordRule {
	return NewKeywordRule("phishing-keywords", ReasonPhishingKeywords, "login", "signin", "verify")
}

// UrgencyRule flags pressure tactics in the path or query.
func UrgencyRule() *KeywordRule {
	return NewKeywordRule("urgency-indicators", ReasonUrgency, "urgent", "click-now", "limited-time")
}
