package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Unjam.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Run requests a recovery run and waits for the outcome.
func (c *Client) Run(source string) (*RunResponse, error) {
	var resp RunResponse
	if err := c.client.Call("Unjam.Run", RunRequest{Source: source}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CooldownReset clears the active cooldown.
func (c *Client) CooldownReset() (*CooldownResetResponse, error) {
	var resp CooldownResetResponse
	if err := c.client.Call("Unjam.CooldownReset", CooldownResetRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CooldownApply starts a fresh cooldown immediately.
func (c *Client) CooldownApply() (*CooldownApplyResponse, error) {
	var resp CooldownApplyResponse
	if err := c.client.Call("Unjam.CooldownApply", CooldownApplyRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History returns recent finished runs, newest first.
func (c *Client) History(limit int) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.client.Call("Unjam.History", HistoryRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
