package attachment

import (
	"context"
	"fmt"
	"mime"
	"strings"
)

// Part is a single email attachment awaiting text extraction.
type Part struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Extractor turns one attachment format (PDF, HTML, etc.) into plain text.
type Extractor interface {
	ContentType() string
	Extract(ctx context.Context, part Part) (string, error)
}

// Registry keeps a mapping from media types to their extractors.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry builds a registry with the given extractors.
func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{extractors: map[string]Extractor{}}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Register adds or replaces an extractor implementation.
func (r *Registry) Register(extractor Extractor) {
	if r.extractors == nil {
		r.extractors = map[string]Extractor{}
	}
	r.extractors[normalize(extractor.ContentType())] = extractor
}

// Resolve returns the extractor for a content type, ignoring parameters such as charset.
func (r *Registry) Resolve(contentType string) (Extractor, error) {
	if extractor, ok := r.extractors[normalize(contentType)]; ok {
		return extractor, nil
	}
	return nil, fmt.Errorf("no extractor registered for %s", contentType)
}

// Supports reports whether a content type can be extracted.
func (r *Registry) Supports(contentType string) bool {
	_, ok := r.extractors[normalize(contentType)]
	return ok
}

func normalize(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
