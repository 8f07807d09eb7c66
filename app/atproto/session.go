package atproto

import (
	"context"
	"fmt"
)

// CreateSession authenticates against the PDS with an identifier and an app
// password (com.atproto.server.createSession).
func (c *Client) CreateSession(ctx context.Context, identifier, password string) (*Session, error) {
	var session Session
	var apiErr xrpcError

	resp, err := c.resty.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"identifier": identifier,
			"password":   password,
		}).
		SetResult(&session).
		SetError(&apiErr).
		Post(c.xrpcURL("com.atproto.server.createSession"))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if resp.IsError() {
		return nil, apiError("createSession", resp, &apiErr)
	}

	return &session, nil
}

// RefreshSession rotates the access token using the refresh JWT
// (com.atproto.server.refreshSession).
func (c *Client) RefreshSession(ctx context.Context, refreshJwt string) (*Session, error) {
	var session Session
	var apiErr xrpcError

	resp, err := c.resty.R().
		SetContext(ctx).
		SetAuthToken(refreshJwt).
		SetResult(&session).
		SetError(&apiErr).
		Post(c.xrpcURL("com.atproto.server.refreshSession"))
	if err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	if resp.IsError() {
		return nil, apiError("refreshSession", resp, &apiErr)
	}

	return &session, nil
}
