package filterchain

import "context"

type metadataKey struct{}

// Metadata provides a transport agnostic way to pass metadata alongside requests, without it being part of the
// request type itself. It aligns to the interface of Go's default HTTP header type for convenience.
type Metadata map[string][]string

// NewMetadata creates a metadata struct from a map of strings.
func NewMetadata(data map[string]string) Metadata {
	meta := make(Metadata, len(data))
	for k, v := range data {
		meta[k] = []string{v}
	}
	return meta
}

// Get returns the first value associated with key, or "" if there is none.
func (m Metadata) Get(key string) string {
	if vs := m[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Set replaces any values associated with key with value.
func (m Metadata) Set(key, value string) {
	m[key] = []string{value}
}

// AppendMetadataToContext returns a context carrying md on top of any metadata already present. Keys in md replace
// existing keys; neither the existing metadata nor md is modified.
func AppendMetadataToContext(ctx context.Context, md Metadata) context.Context {
	existing := MetadataFromContext(ctx)
	merged := make(Metadata, len(existing)+len(md))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range md {
		merged[k] = v
	}
	return context.WithValue(ctx, metadataKey{}, merged)
}

// MetadataFromContext retrieves the metadata from the context.
func MetadataFromContext(ctx context.Context) Metadata {
	meta, ok := ctx.Value(metadataKey{}).(Metadata)
	if !ok {
		return Metadata{}
	}
	return meta
}
