package atproto

import (
	"context"
	"fmt"
	"strings"
)

// ResolveHandle resolves a handle (e.g. "alice.bsky.social") to its DID via
// com.atproto.identity.resolveHandle. Identifiers that are already DIDs are
// returned as-is.
func (c *Client) ResolveHandle(ctx context.Context, handle string) (string, error) {
	if strings.HasPrefix(handle, "did:") {
		return handle, nil
	}

	var result struct {
		DID string `json:"did"`
	}
	var apiErr xrpcError

	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParam("handle", handle).
		SetResult(&result).
		SetError(&apiErr).
		Get(c.xrpcURL("com.atproto.identity.resolveHandle"))
	if err != nil {
		return "", fmt.Errorf("failed to resolve handle: %w", err)
	}
	if resp.IsError() {
		return "", apiError("resolveHandle", resp, &apiErr)
	}
	if result.DID == "" {
		return "", fmt.Errorf("empty DID for handle %s", handle)
	}

	return result.DID, nil
}

// ResolveDIDDocument fetches the DID document from the PLC directory and
// returns the PDS service endpoint declared in it. Used to route record
// operations to the user's own PDS instead of the configured default.
func (c *Client) ResolveDIDDocument(ctx context.Context, did string) (string, error) {
	var doc struct {
		Service []struct {
			ID              string `json:"id"`
			Type            string `json:"type"`
			ServiceEndpoint string `json:"serviceEndpoint"`
		} `json:"service"`
	}

	resp, err := c.resty.R().
		SetContext(ctx).
		SetResult(&doc).
		Get(c.plcURL + "/" + did)
	if err != nil {
		return "", fmt.Errorf("failed to fetch DID document: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("DID document fetch failed: %s", resp.Status())
	}

	for _, svc := range doc.Service {
		if svc.ID == "#atproto_pds" || svc.Type == "AtprotoPersonalDataServer" {
			return svc.ServiceEndpoint, nil
		}
	}

	return "", fmt.Errorf("no PDS endpoint in DID document for %s", did)
}
