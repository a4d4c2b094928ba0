package contentful

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/types"
)

// maxPageSize is the largest page the Management API returns.
const maxPageSize = 1000

// EnvironmentItem is one element of the environments collection.
type EnvironmentItem struct {
	Name string `json:"name"`
	Sys  struct {
		ID                 string       `json:"id"`
		Type               string       `json:"type"`
		Version            int          `json:"version,omitempty"`
		Aliases            []types.Link `json:"aliases,omitempty"`
		AliasedEnvironment *types.Link  `json:"aliasedEnvironment,omitempty"`
	} `json:"sys"`
}

// AliasIDs returns the ids of the aliases pointing at this environment.
func (e EnvironmentItem) AliasIDs() []string {
	ids := make([]string, 0, len(e.Sys.Aliases))
	for _, alias := range e.Sys.Aliases {
		if alias.Sys.ID != "" {
			ids = append(ids, alias.Sys.ID)
		}
	}
	return ids
}

type collection[T any] struct {
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
	Items []T `json:"items"`
}

// ListEnvironments returns every environment of a space.
func (c *Client) ListEnvironments(ctx context.Context, spaceID string) ([]EnvironmentItem, error) {
	apiURL := fmt.Sprintf("%s/spaces/%s/environments", c.BaseURL, url.PathEscape(spaceID))

	body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("list environments: %w", err)
	}

	var result collection[EnvironmentItem]
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse environments response: %w", err)
	}
	return result.Items, nil
}

// GetEnvironment fetches one environment. Alias ids resolve to the
// environment they point at.
func (c *Client) GetEnvironment(ctx context.Context, spaceID, environmentID string) (*EnvironmentItem, error) {
	apiURL := fmt.Sprintf("%s/spaces/%s/environments/%s",
		c.BaseURL, url.PathEscape(spaceID), url.PathEscape(environmentID))

	body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("get environment %s: %w", environmentID, err)
	}

	var env EnvironmentItem
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parse environment response: %w", err)
	}
	return &env, nil
}

// Environment is a handle on one environment of a space. It satisfies
// closure.Environment.
type Environment struct {
	client        *Client
	SpaceID       string
	EnvironmentID string
}

// Environment returns a handle for spaceID/environmentID. No request is made.
func (c *Client) Environment(spaceID, environmentID string) *Environment {
	return &Environment{client: c, SpaceID: spaceID, EnvironmentID: environmentID}
}

// Verify checks that the space and then the environment exist, so a wrong id
// is reported as such rather than as every entry being missing.
func (e *Environment) Verify(ctx context.Context) error {
	if _, err := e.client.GetSpace(ctx, e.SpaceID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: %q: %w", ErrSpaceNotFound, e.SpaceID, err)
		}
		return err
	}
	if _, err := e.client.GetEnvironment(ctx, e.SpaceID, e.EnvironmentID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: %q in space %q: %w", ErrEnvironmentNotFound, e.EnvironmentID, e.SpaceID, err)
		}
		return err
	}
	return nil
}

func (e *Environment) baseURL() string {
	return fmt.Sprintf("%s/spaces/%s/environments/%s",
		e.client.BaseURL, url.PathEscape(e.SpaceID), url.PathEscape(e.EnvironmentID))
}

// GetEntry fetches one entry. A missing entry yields an error matching ErrNotFound.
func (e *Environment) GetEntry(ctx context.Context, id string) (*types.Entry, error) {
	body, err := e.client.doRequest(ctx, http.MethodGet, e.baseURL()+"/entries/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", id, err)
	}

	var entry types.Entry
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, fmt.Errorf("parse entry response: %w", err)
	}
	return &entry, nil
}

// GetAsset fetches one asset. A missing asset yields an error matching ErrNotFound.
func (e *Environment) GetAsset(ctx context.Context, id string) (*types.Asset, error) {
	body, err := e.client.doRequest(ctx, http.MethodGet, e.baseURL()+"/assets/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("get asset %s: %w", id, err)
	}

	var asset types.Asset
	if err := json.Unmarshal(body, &asset); err != nil {
		return nil, fmt.Errorf("parse asset response: %w", err)
	}
	return &asset, nil
}

// EntryQuery narrows ListEntries.
type EntryQuery struct {
	ContentType string
	// PageSize defaults to the API maximum.
	PageSize int
}

// ListEntries returns every entry matching q, handling pagination.
func (e *Environment) ListEntries(ctx context.Context, q EntryQuery) ([]*types.Entry, error) {
	limit := q.PageSize
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}

	var all []*types.Entry
	skip := 0
	for {
		params := url.Values{
			"skip":  {strconv.Itoa(skip)},
			"limit": {strconv.Itoa(limit)},
			"order": {"sys.createdAt"},
		}
		if q.ContentType != "" {
			params.Set("content_type", q.ContentType)
		}

		body, err := e.client.doRequest(ctx, http.MethodGet, e.baseURL()+"/entries?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("list entries: %w", err)
		}

		var page collection[*types.Entry]
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("parse entries response: %w", err)
		}

		all = append(all, page.Items...)

		if len(page.Items) == 0 || skip+len(page.Items) >= page.Total {
			break
		}
		skip += len(page.Items)
	}
	return all, nil
}
