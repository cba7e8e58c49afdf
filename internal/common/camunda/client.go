// internal/common/camunda/client.go

// Package camunda wraps the Zeebe gRPC client: connection setup with a
// reachability check, and per-task job worker registration.
package camunda

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Client holds the shared Zeebe connection every worker registers on.
type Client struct {
	client zbc.Client
}

// NewClient connects to the broker and verifies reachability with a topology
// request before returning, so startup retry loops see connection failures
// immediately instead of at first job poll.
func NewClient(gatewayAddress string, connectTimeout time.Duration) (*Client, error) {
	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         gatewayAddress,
		UsePlaintextConnection: true, // Set to false and configure TLS in production
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if _, err := zeebeClient.NewTopologyCommand().Send(ctx); err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", gatewayAddress, err)
	}

	return &Client{client: zeebeClient}, nil
}

// GetClient returns the raw Zeebe client for worker registration.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	return c.client.Close()
}
