package registries

// Normalizer rewrites a raw URI into its canonical form for a given scheme
// (e.g. collapsing "HTTP://Example.com" to "http://example.com").
type Normalizer func(raw string) (string, error)

// ProtocolRegistry resolves a URI scheme to its normalizer, falling back to
// a generic pass-through normalizer when the scheme is unregistered.
type ProtocolRegistry = Registry[Normalizer]

// NewProtocolRegistry builds a protocol registry with an identity
// normalizer registered as the fallback.
func NewProtocolRegistry(diag Diagnostics) *ProtocolRegistry {
	r := New[Normalizer]("protocol", diag)
	r.Register("_identity", func(raw string) (string, error) { return raw, nil })
	r.SetFallback("_identity")
	return r
}
