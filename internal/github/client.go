package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/BetterCallFirewall/Sentinel/internal/models"
	"github.com/google/go-github/v77/github"
	"golang.org/x/oauth2"
)

type Client struct {
	Owner  string
	Name   string
	github *github.Client
}

// NewClient creates a client for repo ("owner/name").
// An empty token makes unauthenticated calls; httpClient may be nil.
func NewClient(ctx context.Context, token string, repo string, httpClient *http.Client) (*Client, error) {
	owner, name, err := ParseRepository(repo)
	if err != nil {
		return nil, err
	}

	if token != "" {
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}

	return &Client{Owner: owner, Name: name, github: github.NewClient(httpClient)}, nil
}

// ParseRepository splits "owner/name", also accepting a github.com URL
func ParseRepository(repo string) (string, string, error) {
	trimmed := strings.TrimSpace(repo)
	trimmed = strings.TrimPrefix(trimmed, "https://")
	trimmed = strings.TrimPrefix(trimmed, "http://")
	trimmed = strings.TrimPrefix(trimmed, "github.com/")
	trimmed = strings.TrimSuffix(strings.TrimSuffix(trimmed, "/"), ".git")

	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q, expected owner/name", repo)
	}
	return parts[0], parts[1], nil
}

// FullName returns "owner/name"
func (c *Client) FullName() string {
	return c.Owner + "/" + c.Name
}

// Fetcher pulls repository files for the New Analysis form
type Fetcher struct {
	Token      string
	HTTPClient *http.Client
	Options    FetchOptions
}

// Fetch returns the files under dir of repo at ref
func (f *Fetcher) Fetch(ctx context.Context, repo, dir, ref string) ([]models.SourceFile, error) {
	client, err := NewClient(ctx, f.Token, repo, f.HTTPClient)
	if err != nil {
		return nil, err
	}
	opts := f.Options
	opts.Ref = ref
	return client.FetchFiles(ctx, dir, opts)
}
