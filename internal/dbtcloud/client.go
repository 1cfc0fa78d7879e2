package dbtcloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"meshdrop/pkg/errors"
)

// DefaultBasePath is the API prefix every call is made under.
const DefaultBasePath = "/api/v3/"

// DefaultHost is the multi-tenant dbt Cloud host.
const DefaultHost = "cloud.getdbt.com"

const defaultTimeout = 60 * time.Second

// ClientConfig is everything a Client needs, fixed at construction.
type ClientConfig struct {
	// Host is the dbt Cloud host, with or without a scheme. Defaults to https.
	Host string
	// Token is a service token sent as a bearer credential.
	Token string
	// BasePath defaults to DefaultBasePath.
	BasePath string
	// HTTPClient defaults to a client with a 60 second timeout.
	HTTPClient *http.Client
	UserAgent  string
}

// Client talks to the dbt Cloud administrative API. Every method performs
// exactly one HTTP request.
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a client bound to cfg
func NewClient(cfg ClientConfig) (*Client, error) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		return nil, errors.RequiredFieldError("host")
	}
	if cfg.Token == "" {
		return nil, errors.RequiredFieldError("token")
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	host = strings.TrimRight(host, "/")

	basePath := cfg.BasePath
	if basePath == "" {
		basePath = DefaultBasePath
	}
	basePath = "/" + strings.Trim(basePath, "/") + "/"

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		baseURL:    host + basePath,
		token:      cfg.Token,
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
	}, nil
}

// BaseURL returns the URL every request path is resolved against
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListProjects lists every project visible to the service token
func (c *Client) ListProjects(ctx context.Context, accountID int64) (*Response, error) {
	return c.do(ctx, http.MethodGet, fmt.Sprintf("accounts/%d/projects/", accountID), nil)
}

// CreateConnection creates an account-level warehouse connection
func (c *Client) CreateConnection(ctx context.Context, accountID int64, payload ConnectionRequest) (*Response, error) {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("accounts/%d/connections/", accountID), payload)
}

// CreateProject creates a project
func (c *Client) CreateProject(ctx context.Context, accountID int64, payload ProjectRequest) (*Response, error) {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("accounts/%d/projects/", accountID), payload)
}

// UpdateProject re-submits a project body. This is how a repository gets
// attached to a project.
func (c *Client) UpdateProject(ctx context.Context, accountID, projectID int64, payload ProjectRequest) (*Response, error) {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("accounts/%d/projects/%d/", accountID, projectID), payload)
}

// CreateManagedRepository creates a repository hosted by dbt Cloud
func (c *Client) CreateManagedRepository(ctx context.Context, accountID, projectID int64, payload RepositoryRequest) (*Response, error) {
	return c.do(ctx, http.MethodPost,
		fmt.Sprintf("accounts/%d/projects/%d/managed-repositories/", accountID, projectID), payload)
}

// CreateCredentials creates warehouse credentials for a project
func (c *Client) CreateCredentials(ctx context.Context, accountID, projectID int64, payload CredentialsRequest) (*Response, error) {
	return c.do(ctx, http.MethodPost,
		fmt.Sprintf("accounts/%d/projects/%d/credentials/", accountID, projectID), payload)
}

// CreateEnvironment creates a development or deployment environment
func (c *Client) CreateEnvironment(ctx context.Context, accountID, projectID int64, payload EnvironmentRequest) (*Response, error) {
	return c.do(ctx, http.MethodPost,
		fmt.Sprintf("accounts/%d/projects/%d/environments/", accountID, projectID), payload)
}

// do sends one request and decodes the envelope. HTTP error statuses are not
// errors here; callers classify the envelope with ValidateResponse.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (*Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "Failed to encode request body").
				WithContext("path", path)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRemoteTransport, "Failed to build request").
			WithContext("path", path)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRemoteTransport, fmt.Sprintf("%s %s failed", method, path)).
			WithContext("path", path).
			WithSuggestions("Check the dbt Cloud host and your network connection")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRemoteTransport, "Failed to read response").
			WithContext("path", path)
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRemoteResponseMalformed,
			fmt.Sprintf("Unexpected response from %s %s (HTTP %d): %s", method, path, resp.StatusCode, truncate(raw, 300))).
			WithContext("path", path).
			WithContext("http_status", resp.StatusCode)
	}
	out.HTTPStatus = resp.StatusCode
	return &out, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
