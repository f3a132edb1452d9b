package serp

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrRateLimited is returned when the provider answers HTTP 429.
	ErrRateLimited = errors.New("serp: rate limited")
	// ErrMalformedResponse is returned when the response body is not the expected JSON.
	ErrMalformedResponse = errors.New("serp: malformed response")
)

// StatusError reports a non-2xx answer other than 429.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("serp: unexpected status %d", e.StatusCode)
}

// Query is a free-text search restricted to a single site.
type Query struct {
	Terms string
	// Site is the FQDN results must come from. Empty means unrestricted.
	Site string
}

// Snippet is one search hit: an HTML-formatted excerpt and its source link.
type Snippet struct {
	HTML string `json:"htmlSnippet"`
	Link string `json:"link"`
}

// Response carries the provider's total hit estimate and its returned items, in order.
type Response struct {
	TotalResults int64
	Items        []Snippet
}

// Provider abstracts a search engine that can run site-restricted queries.
// Implementations may use official APIs or other mechanisms.
type Provider interface {
	Search(ctx context.Context, q Query) (*Response, error)
}
