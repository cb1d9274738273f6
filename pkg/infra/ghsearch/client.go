package ghsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v53/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starwatch/pkg/domain/interfaces"
	"github.com/secmon-lab/starwatch/pkg/domain/model"
	"github.com/secmon-lab/starwatch/pkg/domain/types"
	"github.com/secmon-lab/starwatch/pkg/utils/safe"
	"golang.org/x/oauth2"
)

const (
	defaultEndpoint  = "https://api.github.com/graphql"
	defaultUserAgent = "starwatch"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements interfaces.SearchClient over the GitHub GraphQL API.
// Single repository lookups go through the REST API instead; they are not
// search traffic and do not consume the GraphQL budget.
type Client struct {
	httpClient HTTPClient
	rest       *github.Client
	endpoint   string
}

var _ interfaces.SearchClient = (*Client)(nil)

type Option func(*Client)

// WithEndpoint overrides the GraphQL endpoint, mainly for tests.
func WithEndpoint(url string) Option {
	return func(x *Client) {
		x.endpoint = url
	}
}

func WithHTTPClient(client HTTPClient) Option {
	return func(x *Client) {
		x.httpClient = client
	}
}

func WithRESTClient(client *github.Client) Option {
	return func(x *Client) {
		x.rest = client
	}
}

func New(ctx context.Context, token types.GitHubToken, options ...Option) *Client {
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: string(token),
	}))

	client := &Client{
		httpClient: hc,
		rest:       github.NewClient(hc),
		endpoint:   defaultEndpoint,
	}

	for _, opt := range options {
		opt(client)
	}

	return client
}

type rateLimitBlock struct {
	Limit     int       `json:"limit"`
	Cost      int       `json:"cost"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}

func (x *rateLimitBlock) quota() *model.RateQuota {
	if x == nil {
		return nil
	}
	return &model.RateQuota{
		Cost:      x.Cost,
		Remaining: x.Remaining,
		Limit:     x.Limit,
		ResetAt:   x.ResetAt,
	}
}

type repositoryNode struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
	StargazerCount int    `json:"stargazerCount"`
	URL            string `json:"url"`
}

func (x *repositoryNode) model() *model.Repository {
	return &model.Repository{
		ID:    types.RepoID(x.ID),
		Owner: x.Owner.Login,
		Name:  x.Name,
		Stars: x.StargazerCount,
		URL:   x.URL,
	}
}

type gqlError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (x *Client) post(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to marshal graphql request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.endpoint, bytes.NewReader(body))
	if err != nil {
		return goerr.Wrap(err, "failed to create graphql request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(types.ErrTransient, "graphql request failed", goerr.V("cause", err.Error()))
	}
	defer safe.Close(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return goerr.Wrap(types.ErrTransient, "failed to read graphql response")
	}

	if err := classifyStatus(resp.StatusCode, raw); err != nil {
		return err
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []gqlError      `json:"errors"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return goerr.Wrap(err, "failed to unmarshal graphql response",
			goerr.V("body", string(raw)))
	}

	if len(envelope.Errors) > 0 {
		for _, e := range envelope.Errors {
			if e.Type == "RATE_LIMITED" {
				return goerr.Wrap(types.ErrQuotaExhausted, e.Message)
			}
		}
		return goerr.New("graphql query failed", goerr.V("errors", envelope.Errors))
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return goerr.Wrap(err, "failed to unmarshal graphql data",
			goerr.V("body", string(raw)))
	}

	return nil
}

// classifyStatus maps HTTP status codes onto the retry taxonomy: 5xx is
// transient, primary rate limiting waits for reset, secondary rate limiting
// backs off.
func classifyStatus(code int, body []byte) error {
	if code == http.StatusOK {
		return nil
	}

	text := strings.ToLower(string(body))
	switch {
	case code >= 500:
		return goerr.Wrap(types.ErrTransient, "server error", goerr.V("status", code))

	case code == http.StatusTooManyRequests:
		return goerr.Wrap(types.ErrThrottled, "secondary rate limit", goerr.V("status", code))

	case code == http.StatusForbidden && (strings.Contains(text, "secondary rate limit") || strings.Contains(text, "abuse")):
		return goerr.Wrap(types.ErrThrottled, "secondary rate limit", goerr.V("status", code))

	case code == http.StatusForbidden && strings.Contains(text, "rate limit"):
		return goerr.Wrap(types.ErrQuotaExhausted, "rate limit exceeded", goerr.V("status", code))

	default:
		return goerr.New("unexpected api response",
			goerr.V("status", code), goerr.V("body", string(body)))
	}
}

// Count implements interfaces.SearchClient.
func (x *Client) Count(ctx context.Context, query string) (int, *model.RateQuota, error) {
	var data struct {
		RateLimit *rateLimitBlock `json:"rateLimit"`
		Search    struct {
			RepositoryCount int `json:"repositoryCount"`
		} `json:"search"`
	}

	if err := x.post(ctx, countQuery, map[string]any{"q": query}, &data); err != nil {
		return 0, nil, goerr.Wrap(err, "failed to count repositories", goerr.V("query", query))
	}

	return data.Search.RepositoryCount, data.RateLimit.quota(), nil
}

// Search implements interfaces.SearchClient.
func (x *Client) Search(ctx context.Context, query, cursor string) (*model.SearchPage, error) {
	variables := map[string]any{"q": query}
	if cursor != "" {
		variables["cursor"] = cursor
	}

	var data struct {
		RateLimit *rateLimitBlock `json:"rateLimit"`
		Search    struct {
			RepositoryCount int `json:"repositoryCount"`
			PageInfo        struct {
				EndCursor   string `json:"endCursor"`
				HasNextPage bool   `json:"hasNextPage"`
			} `json:"pageInfo"`
			Nodes []*repositoryNode `json:"nodes"`
		} `json:"search"`
	}

	if err := x.post(ctx, searchQuery, variables, &data); err != nil {
		return nil, goerr.Wrap(err, "failed to search repositories", goerr.V("query", query))
	}

	page := &model.SearchPage{
		TotalCount:  data.Search.RepositoryCount,
		EndCursor:   data.Search.PageInfo.EndCursor,
		HasNextPage: data.Search.PageInfo.HasNextPage,
		Quota:       data.RateLimit.quota(),
	}
	for _, node := range data.Search.Nodes {
		if node == nil {
			continue
		}
		page.Repositories = append(page.Repositories, node.model())
	}

	return page, nil
}

// GetRepository implements interfaces.SearchClient.
func (x *Client) GetRepository(ctx context.Context, owner, name string) (*model.Repository, error) {
	repo, _, err := x.rest.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get repository",
			goerr.V("owner", owner), goerr.V("name", name))
	}

	return &model.Repository{
		ID:    types.RepoID(repo.GetNodeID()),
		Owner: repo.GetOwner().GetLogin(),
		Name:  repo.GetName(),
		Stars: repo.GetStargazersCount(),
		URL:   repo.GetHTMLURL(),
	}, nil
}

// RateLimit implements interfaces.SearchClient.
func (x *Client) RateLimit(ctx context.Context) (*model.RateQuota, error) {
	var data struct {
		RateLimit *rateLimitBlock `json:"rateLimit"`
	}

	if err := x.post(ctx, rateLimitQuery, nil, &data); err != nil {
		return nil, goerr.Wrap(err, "failed to get rate limit")
	}

	return data.RateLimit.quota(), nil
}
