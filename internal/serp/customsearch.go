package serp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/FranksOps/jast/pkg/httpclient"
)

// DefaultEndpoint is the Google Programmable Search JSON API.
const DefaultEndpoint = "https://www.googleapis.com/customsearch/v1"

// CustomSearchConfig configures a CustomSearch provider.
type CustomSearchConfig struct {
	Endpoint string
	APIKey   string
	CX       string
	Client   *httpclient.Client
}

// CustomSearch implements Provider against the Google Programmable Search API.
type CustomSearch struct {
	endpoint string
	apiKey   string
	cx       string
	client   *httpclient.Client
}

var _ Provider = (*CustomSearch)(nil)

// NewCustomSearch validates cfg and returns a provider.
func NewCustomSearch(cfg CustomSearchConfig) (*CustomSearch, error) {
	if cfg.APIKey == "" || cfg.CX == "" {
		return nil, errors.New("serp: api key and cx are required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("serp: endpoint: %w", err)
	}
	if cfg.Client == nil {
		c, err := httpclient.New(httpclient.Config{})
		if err != nil {
			return nil, fmt.Errorf("serp: %w", err)
		}
		cfg.Client = c
	}
	return &CustomSearch{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		cx:       cfg.CX,
		client:   cfg.Client,
	}, nil
}

type customSearchResponse struct {
	SearchInformation *struct {
		TotalResults totalResults `json:"totalResults"`
	} `json:"searchInformation"`
	Items []Snippet `json:"items"`
}

// totalResults is sent by the API as a decimal string; bare numbers are accepted too.
type totalResults int64

func (t *totalResults) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		*t = 0
		return nil
	}
	*t = totalResults(n)
	return nil
}

// RequestURL builds the GET URL for q.
func (c *CustomSearch) RequestURL(q Query) string {
	v := url.Values{}
	v.Set("key", c.apiKey)
	v.Set("cx", c.cx)
	v.Set("q", q.Terms)
	if q.Site != "" {
		v.Set("siteSearch", q.Site)
	}
	sep := "?"
	if strings.Contains(c.endpoint, "?") {
		sep = "&"
	}
	return c.endpoint + sep + v.Encode()
}

// Search runs one site-restricted query.
func (c *CustomSearch) Search(ctx context.Context, q Query) (*Response, error) {
	resp, err := c.client.Get(ctx, c.RequestURL(q))
	if err != nil {
		return nil, fmt.Errorf("serp: request: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var body customSearchResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	out := &Response{Items: body.Items}
	if body.SearchInformation != nil {
		out.TotalResults = int64(body.SearchInformation.TotalResults)
	}
	return out, nil
}
