// Package notify pages a Slack channel when the Event Bus publishes
// system.error or system.backpressure to the global room — the two event
// kinds spec §5 singles out as needing attention outside the UI.
package notify

import (
	"context"
	"fmt"
	"time"

	goslack "github.com/slack-go/slack"
)

// Client is a thin wrapper around the slack-go SDK.
type Client struct {
	api       *goslack.Client
	channelID string
}

// NewClient creates a new Slack API client.
func NewClient(token, channelID string) *Client {
	return &Client{api: goslack.New(token), channelID: channelID}
}

// NewClientWithAPIURL creates a Slack API client that targets a custom API
// URL. Useful for testing with a mock server.
func NewClientWithAPIURL(token, channelID, apiURL string) *Client {
	return &Client{api: goslack.New(token, goslack.OptionAPIURL(apiURL)), channelID: channelID}
}

// PostMessage sends a message to the configured channel.
func (c *Client) PostMessage(ctx context.Context, blocks []goslack.Block, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, _, err := c.api.PostMessageContext(ctx, c.channelID, goslack.MsgOptionBlocks(blocks...))
	if err != nil {
		return fmt.Errorf("chat.postMessage failed: %w", err)
	}
	return nil
}
