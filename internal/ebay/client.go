// Package ebay holds the taxonomy client used to resolve scraped category
// names into eBay category ids for the bulk-upload CSV. Authentication is
// the OAuth client-credentials flow; no user consent is involved because
// the taxonomy API only needs the application scope.
package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

const (
	SandboxAPIBaseURL    = "https://api.sandbox.ebay.com"
	SandboxTokenURL      = "https://api.sandbox.ebay.com/identity/v1/oauth2/token"
	ProductionAPIBaseURL = "https://api.ebay.com"
	ProductionTokenURL   = "https://api.ebay.com/identity/v1/oauth2/token"

	// US marketplace category tree.
	defaultCategoryTreeID = "0"
)

// Client is the eBay taxonomy API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	treeID     string
}

// NewClient builds a Client whose underlying transport refreshes the
// application token automatically.
func NewClient(clientID, clientSecret string, sandbox bool) *Client {
	tokenURL := ProductionTokenURL
	baseURL := ProductionAPIBaseURL
	if sandbox {
		tokenURL = SandboxTokenURL
		baseURL = SandboxAPIBaseURL
	}

	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       []string{"https://api.ebay.com/oauth/api_scope"},
	}

	httpClient := cfg.Client(context.Background())
	httpClient.Timeout = 30 * time.Second

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		treeID:     defaultCategoryTreeID,
	}
}

type suggestionResponse struct {
	CategorySuggestions []struct {
		Category struct {
			CategoryID   string `json:"categoryId"`
			CategoryName string `json:"categoryName"`
		} `json:"category"`
	} `json:"categorySuggestions"`
}

// SuggestCategory returns the best-matching leaf category id for a free
// text category name. An empty id with nil error means eBay had no
// suggestion; callers then keep their default.
func (c *Client) SuggestCategory(ctx context.Context, query string) (string, error) {
	endpoint := fmt.Sprintf(
		"%s/commerce/taxonomy/v1/category_tree/%s/get_category_suggestions?q=%s",
		c.baseURL, c.treeID, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("taxonomy api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("taxonomy api status %d", resp.StatusCode)
	}

	var body suggestionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode taxonomy response: %w", err)
	}
	if len(body.CategorySuggestions) == 0 {
		return "", nil
	}
	return body.CategorySuggestions[0].Category.CategoryID, nil
}
