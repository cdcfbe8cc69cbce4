package apiclient

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	apitypes "github.com/Alia5/lwclone/apitypes"
)

// Client provides a high-level interface to the lwclone API, handling request
// formatting, response parsing, and error handling.
type Client struct{ transport *Transport }

// New constructs a high-level API client using the internal low-level Transport.
// The addr parameter specifies the TCP address (host:port) of the API server.
func New(addr string) *Client { return &Client{transport: NewTransport(addr)} }

// NewWithPassword constructs a client that authenticates with the given password.
func NewWithPassword(addr, password string) *Client {
	return &Client{transport: NewTransportWithPassword(addr, password)}
}

// NewWithConfig constructs a client with custom transport timeouts.
func NewWithConfig(addr string, cfg *Config) *Client {
	return &Client{transport: NewTransportWithConfig(addr, cfg)}
}

// WithTransport constructs a Client using a custom Transport implementation.
// This is primarily useful for testing.
func WithTransport(t *Transport) *Client { return &Client{transport: t} }

// Ping returns the version of the server and the device it emulates.
func (c *Client) Ping() (*apitypes.PingResponse, error) {
	return c.PingCtx(context.Background())
}

// PingCtx is the context-aware version of Ping.
func (c *Client) PingCtx(ctx context.Context) (*apitypes.PingResponse, error) {
	const path = "ping"
	raw, err := c.transport.DoCtx(ctx, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.PingResponse](raw)
}

// LEDs returns the state of every LED channel.
func (c *Client) LEDs() (*apitypes.LEDsResponse, error) {
	return c.LEDsCtx(context.Background())
}

func (c *Client) LEDsCtx(ctx context.Context) (*apitypes.LEDsResponse, error) {
	const path = "leds"
	raw, err := c.transport.DoCtx(ctx, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.LEDsResponse](raw)
}

// Inputs returns the state and key tables of every panel input.
func (c *Client) Inputs() (*apitypes.InputsResponse, error) {
	return c.InputsCtx(context.Background())
}

func (c *Client) InputsCtx(ctx context.Context) (*apitypes.InputsResponse, error) {
	const path = "inputs"
	raw, err := c.transport.DoCtx(ctx, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.InputsResponse](raw)
}

// Press drives an input, given by index or name, to its pressed level.
func (c *Client) Press(input string) (*apitypes.InputSetResponse, error) {
	return c.PressCtx(context.Background(), input)
}

func (c *Client) PressCtx(ctx context.Context, input string) (*apitypes.InputSetResponse, error) {
	return c.setInput(ctx, "inputs/{index}/press", input)
}

// Release drives an input back to its released level.
func (c *Client) Release(input string) (*apitypes.InputSetResponse, error) {
	return c.ReleaseCtx(context.Background(), input)
}

func (c *Client) ReleaseCtx(ctx context.Context, input string) (*apitypes.InputSetResponse, error) {
	return c.setInput(ctx, "inputs/{index}/release", input)
}

func (c *Client) setInput(ctx context.Context, path, input string) (*apitypes.InputSetResponse, error) {
	if input == "" {
		return nil, errors.New("input must not be empty")
	}
	raw, err := c.transport.DoCtx(ctx, path, nil, map[string]string{"index": input})
	if err != nil {
		return nil, err
	}
	return parse[apitypes.InputSetResponse](raw)
}

// Command sends one 8-byte host command.
func (c *Client) Command(cmd []byte) (*apitypes.CommandResponse, error) {
	return c.CommandCtx(context.Background(), cmd)
}

func (c *Client) CommandCtx(ctx context.Context, cmd []byte) (*apitypes.CommandResponse, error) {
	const path = "command"
	raw, err := c.transport.DoCtx(ctx, path, hex.EncodeToString(cmd), nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.CommandResponse](raw)
}

// Stats returns the device counters.
func (c *Client) Stats() (*apitypes.StatsResponse, error) {
	return c.StatsCtx(context.Background())
}

func (c *Client) StatsCtx(ctx context.Context) (*apitypes.StatsResponse, error) {
	const path = "stats"
	raw, err := c.transport.DoCtx(ctx, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.StatsResponse](raw)
}

func parse[T any](data string) (*T, error) {
	if data == "" {
		return nil, errors.New("empty response")
	}
	var problem apitypes.ApiError
	if err := json.Unmarshal([]byte(data), &problem); err == nil && (problem.Status != 0 || problem.Title != "") {
		return nil, &problem
	}
	var out T
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &out, nil
}
