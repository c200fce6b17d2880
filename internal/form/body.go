package form

import (
	"net/url"

	"github.com/GriffinCanCode/webclient/internal/infrastructure/logging"
)

// Kind tells the executor how to encode a Body on the wire.
type Kind int

const (
	// URLEncoded is application/x-www-form-urlencoded.
	URLEncoded Kind = iota
	// Multipart is multipart/form-data.
	Multipart
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case URLEncoded:
		return "urlencoded"
	case Multipart:
		return "multipart"
	default:
		return "unknown"
	}
}

// File is a binary part of a multipart body.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Content     []byte
}

// Body is a serialized argument map.
type Body struct {
	Kind   Kind
	Fields map[string]string
	Files  []File
}

// Values returns the text fields as url.Values.
func (b *Body) Values() url.Values {
	v := make(url.Values, len(b.Fields))
	for k, s := range b.Fields {
		v.Set(k, s)
	}
	return v
}

// Encode renders the text fields as a URL-encoded string with sorted keys.
func (b *Body) Encode() string {
	return b.Values().Encode()
}

// Size is the approximate payload size in bytes.
func (b *Body) Size() int {
	n := 0
	for k, v := range b.Fields {
		n += len(k) + len(v)
	}
	for _, f := range b.Files {
		n += len(f.Field) + len(f.Filename) + len(f.Content)
	}
	return n
}

// Redacted returns the text fields with the token masked, for logging.
func (b *Body) Redacted() map[string]string {
	out := make(map[string]string, len(b.Fields))
	for k, v := range b.Fields {
		if k == TokenField && v != "" {
			out[k] = logging.Mask(v)
			continue
		}
		out[k] = v
	}
	return out
}
