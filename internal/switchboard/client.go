// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package switchboard is the optional external configuration-service
// callback fired on switch join (§1, §6, §9.3): one GET with basic-form
// credentials, fire-and-forget, failure logged and ignored.
package switchboard

import (
	"fmt"
	"net/http"
	"time"

	"github.com/yaoyj11/plexus/internal/config"
	"github.com/yaoyj11/plexus/internal/logging"
)

// Client issues the switch-join notification GET against
// switchboard.state_url.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	log        *logging.Logger
}

// New builds a Client from configuration, or nil if the switchboard is
// not enabled (§9.3: the body of the response is discarded either way).
func New(cfg *config.SwitchboardConfig) *Client {
	if cfg == nil || !cfg.Enabled() {
		return nil
	}
	return &Client{
		baseURL:  cfg.StateURL,
		username: cfg.Username,
		password: string(cfg.Password),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		log: logging.WithComponent("switchboard"),
	}
}

// NotifySwitchJoin issues the GET for dpID. Any failure (network,
// non-2xx) is logged and otherwise ignored (§7 "External-service
// failure").
func (c *Client) NotifySwitchJoin(dpID uint64) {
	url := fmt.Sprintf("%s?switch_id=%016x", c.baseURL, dpID)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		c.log.Warn("failed to build switchboard request", "error", err)
		return
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("switchboard callback failed", "dp_id", fmt.Sprintf("%016x", dpID), "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.log.Warn("switchboard callback returned non-success", "dp_id", fmt.Sprintf("%016x", dpID), "status", resp.StatusCode)
		return
	}
	c.log.Debug("switchboard callback succeeded", "dp_id", fmt.Sprintf("%016x", dpID))
}
