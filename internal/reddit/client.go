package reddit

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"

	"fewknow/internal/api"
	"fewknow/internal/logger"
)

const (
	defaultAuthURL = "https://www.reddit.com"
	defaultAPIURL  = "https://oauth.reddit.com"
)

// Client is a minimal Reddit API client using the script-app OAuth
// client_credentials flow.
type Client struct {
	client    *api.Client
	authURL   string
	apiURL    string
	clientID  string
	secret    string
	userAgent string
	token     string
}

// NewClient creates a Reddit client from environment credentials.
// All three values are required: discussion collection has no
// anonymous fallback.
func NewClient(timeout time.Duration) (*Client, error) {
	clientID := os.Getenv("REDDIT_CLIENT_ID")
	secret := os.Getenv("REDDIT_CLIENT_SECRET")
	userAgent := os.Getenv("REDDIT_USER_AGENT")
	if clientID == "" || secret == "" || userAgent == "" {
		return nil, fmt.Errorf("reddit credentials not configured: set REDDIT_CLIENT_ID, REDDIT_CLIENT_SECRET and REDDIT_USER_AGENT")
	}

	return &Client{
		client: api.NewClient(
			api.WithTimeout(timeout),
			api.WithLogging(true),
		),
		authURL:   defaultAuthURL,
		apiURL:    defaultAPIURL,
		clientID:  clientID,
		secret:    secret,
		userAgent: userAgent,
	}, nil
}

func (c *Client) basicAuth() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.clientID+":"+c.secret))
}

// Authenticate obtains an application-only access token.
func (c *Client) Authenticate(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	resp, err := c.client.POSTForm(ctx, c.authURL+"/api/v1/access_token", form, map[string]string{
		"Authorization": c.basicAuth(),
		"User-Agent":    c.userAgent,
	})
	if err != nil {
		return fmt.Errorf("reddit authentication failed: %w", err)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := resp.ParseJSON(&tok); err != nil {
		return err
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("reddit authentication returned empty token")
	}

	c.token = tok.AccessToken
	logger.Info(ctx, "Reddit authenticated", "expires_in", tok.ExpiresIn)
	return nil
}

// Revoke invalidates the access token. Best effort: failures are
// logged and swallowed.
func (c *Client) Revoke(ctx context.Context) {
	if c.token == "" {
		return
	}

	form := url.Values{}
	form.Set("token", c.token)
	form.Set("token_type_hint", "access_token")

	_, err := c.client.POSTForm(ctx, c.authURL+"/api/v1/revoke_token", form, map[string]string{
		"Authorization": c.basicAuth(),
		"User-Agent":    c.userAgent,
	})
	if err != nil {
		logger.Warn(ctx, "Failed to revoke reddit token", "error", err.Error())
	}
	c.token = ""
}

func (c *Client) apiHeaders() map[string]string {
	return map[string]string{
		"Authorization": "bearer " + c.token,
		"User-Agent":    c.userAgent,
	}
}

// Thing is Reddit's kind/data envelope.
type Thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type listing struct {
	Data struct {
		Children []Thing `json:"children"`
	} `json:"data"`
}

type submissionData struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Permalink   string  `json:"permalink"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
}

type commentData struct {
	Body       string          `json:"body"`
	Score      int             `json:"score"`
	Author     string          `json:"author"`
	Permalink  string          `json:"permalink"`
	CreatedUTC float64         `json:"created_utc"`
	Replies    json.RawMessage `json:"replies"`
}

// Search runs a subreddit-restricted search and returns the matching
// submissions.
func (c *Client) Search(ctx context.Context, subreddit, query, window string, limit int) ([]submissionData, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("restrict_sr", "1")
	q.Set("sort", "relevance")
	q.Set("t", window)
	q.Set("limit", fmt.Sprintf("%d", limit))

	u := fmt.Sprintf("%s/r/%s/search?%s", c.apiURL, url.PathEscape(subreddit), q.Encode())
	resp, err := c.client.GET(ctx, u, c.apiHeaders())
	if err != nil {
		return nil, fmt.Errorf("reddit search failed in r/%s: %w", subreddit, err)
	}

	var l listing
	if err := resp.ParseJSON(&l); err != nil {
		return nil, err
	}

	subs := make([]submissionData, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		var s submissionData
		if err := json.Unmarshal(child.Data, &s); err != nil {
			continue
		}
		subs = append(subs, s)
	}
	return subs, nil
}

// Comments fetches the top-level comment forest for a submission.
func (c *Client) Comments(ctx context.Context, submissionID string) ([]Thing, error) {
	u := fmt.Sprintf("%s/comments/%s?limit=100&depth=10", c.apiURL, url.PathEscape(submissionID))
	resp, err := c.client.GET(ctx, u, c.apiHeaders())
	if err != nil {
		return nil, fmt.Errorf("reddit comments fetch failed for %s: %w", submissionID, err)
	}

	// The endpoint returns [submission listing, comment listing].
	var listings []listing
	if err := resp.ParseJSON(&listings); err != nil {
		return nil, err
	}
	if len(listings) < 2 {
		return nil, nil
	}
	return listings[1].Data.Children, nil
}
