package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var (
	// ErrAuthentication is returned when no access token could be obtained.
	ErrAuthentication = errors.New("paypal: authentication failed")
	// ErrRequest is returned when the subscription request could not complete.
	ErrRequest = errors.New("paypal: request failed")
)

const defaultTimeout = 20 * time.Second

// APIError is a non-2xx answer from the provider. Body is kept verbatim.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal: status %d: %s", e.StatusCode, e.Body)
}

type Options struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	// HTTPClient overrides the transport; its Timeout is replaced by Timeout.
	HTTPClient *http.Client
}

// Client talks to the provider's OAuth and subscriptions endpoints.
type Client struct {
	baseURL    string
	creds      *clientcredentials.Config
	httpClient *http.Client
}

func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" || opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, errors.New("paypal: base url, client id and client secret are required")
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("paypal: invalid base url: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc := &http.Client{Timeout: timeout}
	if opts.HTTPClient != nil {
		cp := *opts.HTTPClient
		cp.Timeout = timeout
		hc = &cp
	}
	return &Client{
		baseURL: base,
		creds: &clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     base + "/v1/oauth2/token",
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		httpClient: hc,
	}, nil
}

// AccessToken fetches a new client-credentials token. Tokens are not cached:
// each call hits the token endpoint.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.creds.Token(ctx)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return "", fmt.Errorf("%w: %w", ErrAuthentication, &APIError{StatusCode: re.Response.StatusCode, Body: string(re.Body)})
		}
		return "", fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access_token", ErrAuthentication)
	}
	return tok.AccessToken, nil
}

// GetSubscription retrieves a subscription by id using accessToken.
func (c *Client) GetSubscription(ctx context.Context, accessToken, subscriptionID string) (*Subscription, error) {
	if subscriptionID == "" {
		return nil, fmt.Errorf("%w: empty subscription id", ErrRequest)
	}
	endpoint := c.baseURL + "/v1/billing/subscriptions/" + url.PathEscape(subscriptionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrRequest, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var sub Subscription
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, fmt.Errorf("%w: decode subscription: %w", ErrRequest, err)
	}
	sub.Raw = json.RawMessage(body)
	return &sub, nil
}
