// Package rates proxies a USD-based currency feed, trimmed to the currencies the
// shop displays.
package rates

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/wilde-art/framecart/api/web"
	"github.com/wilde-art/framecart/api/weberr"
	"github.com/wilde-art/framecart/config"
)

const base = "usd"

// maxBody caps the upstream document; the full feed is a few kilobytes.
const maxBody = 1 << 20

type Client struct {
	http       *http.Client
	url        string
	currencies []string
}

func New(cfg config.Rates) *Client {
	cur := make([]string, len(cfg.Currencies))
	for i, c := range cfg.Currencies {
		cur[i] = strings.ToLower(strings.TrimSpace(c))
	}

	return &Client{
		http:       &http.Client{Timeout: cfg.Timeout},
		url:        cfg.URL,
		currencies: cur,
	}
}

// Fetch returns the upstream document with every rate under "usd" removed
// except the configured currencies. Other top-level keys pass through.
func (c *Client) Fetch(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching exchange rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching exchange rates: upstream answered %s", resp.Status)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading exchange rates: %w", err)
	}

	doc := gjson.ParseBytes(b)
	if !gjson.ValidBytes(b) || !doc.IsObject() {
		return nil, errors.New("exchange rates: upstream sent malformed JSON")
	}

	out := map[string]any{}
	doc.ForEach(func(key, value gjson.Result) bool {
		if key.String() != base {
			out[key.String()] = value.Value()
			return true
		}

		rates := map[string]any{}
		for _, cur := range c.currencies {
			if r := value.Get(cur); r.Exists() {
				rates[cur] = r.Value()
			}
		}
		out[base] = rates
		return true
	})

	return out, nil
}

func HandleShow(c *Client) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		all, err := c.Fetch(ctx)
		if err != nil {
			return weberr.Rejected(err)
		}

		return web.Respond(ctx, w, all, http.StatusOK)
	}
}
