package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/graphsim/fuzzygraph/pkg/cache"
	"github.com/graphsim/fuzzygraph/pkg/errors"
	"github.com/graphsim/fuzzygraph/pkg/fuzzy"
	"github.com/graphsim/fuzzygraph/pkg/graph"
	"github.com/graphsim/fuzzygraph/pkg/httputil"
	"github.com/graphsim/fuzzygraph/pkg/observability"
)

// Endpoints of the analysis service.
const (
	EndpointTwinWidth   = "/get-tw"
	EndpointIsomorphism = "/check-isomorphism"
	EndpointSimilarity  = "/get-similarity"
)

// DefaultBaseURL is the public deployment of the analysis service.
const DefaultBaseURL = "https://graph-sim.onrender.com"

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 8 << 20
)

// Options configures [NewClient]. Zero fields take defaults.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Retry      httputil.Policy
	Cache      cache.Cache
	CacheTTL   time.Duration
	// Refresh skips cache reads; fresh responses are still stored.
	Refresh bool
	Logger  *log.Logger
}

// Client calls the analysis service.
type Client struct {
	base    *url.URL
	http    *http.Client
	retry   httputil.Policy
	cache   cache.Cache
	keys    cache.Keyer
	ttl     time.Duration
	refresh bool
	logger  *log.Logger
}

// NewClient validates the base URL and builds a client.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if err := errors.ValidateURL(opts.BaseURL); err != nil {
		return nil, err
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "backend url")
	}

	if opts.HTTPClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		opts.HTTPClient = &http.Client{Timeout: timeout}
	}
	if opts.Retry.Attempts <= 0 {
		opts.Retry = httputil.DefaultPolicy
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &Client{
		base:    base,
		http:    opts.HTTPClient,
		retry:   opts.Retry,
		cache:   opts.Cache,
		keys:    cache.NewScopedKeyer(nil, cache.Hash([]byte(base.String()))[:12]+":"),
		ttl:     opts.CacheTTL,
		refresh: opts.Refresh,
		logger:  opts.Logger,
	}, nil
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string { return c.base.String() }

// =============================================================================
// Requests
// =============================================================================

// TwinWidthResult is the answer of /get-tw.
type TwinWidthResult struct {
	Value Value `json:"tw"`
	// Sequences lists the optimal contraction orders, each a list of merged
	// node pairs. Empty when the service sent none.
	Sequences [][][2]string `json:"sequence,omitempty"`
}

type twinWidthResponse struct {
	TW       Value           `json:"tw"`
	Sequence json.RawMessage `json:"sequence"`
}

// ComputeTwinWidth requests the twin-width of d under t.
func (c *Client) ComputeTwinWidth(ctx context.Context, d graph.GraphData, t fuzzy.TNorm) (*TwinWidthResult, error) {
	if !t.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "unknown t-norm %q", string(t))
	}
	var resp twinWidthResponse
	if err := c.post(ctx, EndpointTwinWidth, d.WithTNorm(t), &resp); err != nil {
		return nil, err
	}

	out := &TwinWidthResult{Value: resp.TW}
	if len(resp.Sequence) > 0 {
		var seq [][][2]string
		if err := json.Unmarshal(resp.Sequence, &seq); err == nil {
			out.Sequences = seq
		} else {
			c.logger.Debug("ignoring malformed contraction sequence", "err", err)
		}
	}
	return out, nil
}

// Isomorphism is the answer of /check-isomorphism.
type Isomorphism struct {
	Isomorphic bool `json:"isomorphic"`
	// Mappings maps left node names to right node names, one map per
	// isomorphism. Nil when the graphs are not isomorphic.
	Mappings []map[string]string `json:"mappings,omitempty"`
}

type pairRequest struct {
	Graph1 graph.GraphData `json:"graph1"`
	Graph2 graph.GraphData `json:"graph2"`
	TNorm  fuzzy.TNorm     `json:"tnorm,omitempty"`
}

// CheckIsomorphism asks whether left and right are isomorphic.
func (c *Client) CheckIsomorphism(ctx context.Context, left, right graph.GraphData) (*Isomorphism, error) {
	var resp Isomorphism
	req := pairRequest{Graph1: left.WithTNorm(""), Graph2: right.WithTNorm("")}
	if err := c.post(ctx, EndpointIsomorphism, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Isomorphic {
		resp.Mappings = nil
	}
	return &resp, nil
}

type similarityResponse struct {
	Similarity Value `json:"similarity"`
}

// ComputeSimilarity requests the similarity of left and right under t.
func (c *Client) ComputeSimilarity(ctx context.Context, left, right graph.GraphData, t fuzzy.TNorm) (Value, error) {
	if !t.Valid() {
		return Undefined, errors.New(errors.ErrCodeInvalidArgument, "unknown t-norm %q", string(t))
	}
	var resp similarityResponse
	req := pairRequest{Graph1: left.WithTNorm(""), Graph2: right.WithTNorm(""), TNorm: t}
	if err := c.post(ctx, EndpointSimilarity, req, &resp); err != nil {
		return Undefined, err
	}
	return resp.Similarity, nil
}

// =============================================================================
// Transport
// =============================================================================

// post sends payload to endpoint and decodes the answer into out, going
// through the cache and the retry policy.
func (c *Client) post(ctx context.Context, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode %s request", endpoint)
	}
	key := c.keys.AnalysisKey(endpoint, body)

	if !c.refresh {
		if raw, ok, err := c.cache.Get(ctx, key); err != nil {
			c.logger.Warn("cache read failed", "endpoint", endpoint, "err", err)
		} else if ok && decode(raw, out) == nil {
			observability.Cache().OnCacheHit(ctx, endpoint)
			c.logger.Debug("cache hit", "endpoint", endpoint)
			return nil
		}
		observability.Cache().OnCacheMiss(ctx, endpoint)
	}

	var raw []byte
	err = c.retry.Do(ctx, func() error {
		var err error
		raw, err = c.doRequest(ctx, endpoint, body)
		return err
	})
	if err != nil {
		return unwrapRetryable(err)
	}
	if err := decode(raw, out); err != nil {
		return errors.TransportFailure(endpoint, err, "decode response")
	}

	if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("cache write failed", "endpoint", endpoint, "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, endpoint, len(raw))
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	u := c.base.JoinPath(endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, errors.TransportFailure(endpoint, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodPost, u.Host, u.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodPost, u.Host, u.Path, err)
		if ctx.Err() != nil {
			return nil, errors.TransportFailure(endpoint, ctx.Err(), "request cancelled")
		}
		return nil, httputil.Retryable(errors.TransportFailure(endpoint, err, "request failed"))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	hooks.OnResponse(ctx, http.MethodPost, u.Host, u.Path, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, httputil.Retryable(errors.TransportFailure(endpoint, err, "read response"))
	}
	c.logger.Debug("analysis response", "endpoint", endpoint, "status", resp.StatusCode, "bytes", len(raw))

	if err := checkStatus(endpoint, resp.StatusCode, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func checkStatus(endpoint string, code int, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}
	err := errors.Transport(endpoint, code, errorMessage(body))
	if code >= 500 || code == http.StatusTooManyRequests {
		return httputil.Retryable(err)
	}
	return err
}

// errorMessage extracts {"error": "..."} from a failure body, falling back
// to the first line of text.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	msg, _, _ := strings.Cut(strings.TrimSpace(string(body)), "\n")
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// decode unmarshals a response body. An empty body decodes to the zero
// value, which the service uses to signal an empty graph.
func decode(raw []byte, out any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func unwrapRetryable(err error) error {
	var re *httputil.RetryableError
	if errors.As(err, &re) {
		return re.Err
	}
	return err
}
