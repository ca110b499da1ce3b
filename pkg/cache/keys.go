package cache

import "strings"

// Keyer builds cache keys for analysis responses.
type Keyer interface {
	// AnalysisKey identifies the response of endpoint to body.
	AnalysisKey(endpoint string, body []byte) string
}

// DefaultKeyer produces "analysis:<endpoint>:<sha256(body)>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// AnalysisKey implements [Keyer].
func (DefaultKeyer) AnalysisKey(endpoint string, body []byte) string {
	return "analysis:" + strings.TrimPrefix(endpoint, "/") + ":" + Hash(body)
}

// ScopedKeyer prefixes another keyer's keys. The analysis client scopes
// keys by backend URL so that switching backends never serves another
// service's answers.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (the default keyer when nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// AnalysisKey implements [Keyer].
func (k *ScopedKeyer) AnalysisKey(endpoint string, body []byte) string {
	return k.prefix + k.inner.AnalysisKey(endpoint, body)
}
