package atproto

import (
	"context"
	"fmt"
	"strconv"
)

// CreateRecord writes a new record into the user's repository
// (com.atproto.repo.createRecord). An empty rkey lets the PDS assign one.
func (c *Client) CreateRecord(ctx context.Context, accessJwt, did, collection, rkey string, value map[string]interface{}) (*Record, error) {
	body := map[string]interface{}{
		"repo":       did,
		"collection": collection,
		"record":     value,
	}
	if rkey != "" {
		body["rkey"] = rkey
	}

	var result struct {
		URI string `json:"uri"`
		CID string `json:"cid"`
	}
	var apiErr xrpcError

	resp, err := c.resty.R().
		SetContext(ctx).
		SetAuthToken(accessJwt).
		SetBody(body).
		SetResult(&result).
		SetError(&apiErr).
		Post(c.xrpcURL("com.atproto.repo.createRecord"))
	if err != nil {
		return nil, fmt.Errorf("failed to create record: %w", err)
	}
	if resp.IsError() {
		return nil, apiError("createRecord", resp, &apiErr)
	}

	return &Record{URI: result.URI, CID: result.CID, Value: value}, nil
}

// PutRecord replaces a record at a known rkey (com.atproto.repo.putRecord).
func (c *Client) PutRecord(ctx context.Context, accessJwt, did, collection, rkey string, value map[string]interface{}) (*Record, error) {
	var result struct {
		URI string `json:"uri"`
		CID string `json:"cid"`
	}
	var apiErr xrpcError

	resp, err := c.resty.R().
		SetContext(ctx).
		SetAuthToken(accessJwt).
		SetBody(map[string]interface{}{
			"repo":       did,
			"collection": collection,
			"rkey":       rkey,
			"record":     value,
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post(c.xrpcURL("com.atproto.repo.putRecord"))
	if err != nil {
		return nil, fmt.Errorf("failed to put record: %w", err)
	}
	if resp.IsError() {
		return nil, apiError("putRecord", resp, &apiErr)
	}

	return &Record{URI: result.URI, CID: result.CID, Value: value}, nil
}

// DeleteRecord removes a record (com.atproto.repo.deleteRecord).
func (c *Client) DeleteRecord(ctx context.Context, accessJwt, did, collection, rkey string) error {
	var apiErr xrpcError

	resp, err := c.resty.R().
		SetContext(ctx).
		SetAuthToken(accessJwt).
		SetBody(map[string]interface{}{
			"repo":       did,
			"collection": collection,
			"rkey":       rkey,
		}).
		SetError(&apiErr).
		Post(c.xrpcURL("com.atproto.repo.deleteRecord"))
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if resp.IsError() {
		return apiError("deleteRecord", resp, &apiErr)
	}

	return nil
}

// GetRecord fetches a single record without authentication
// (com.atproto.repo.getRecord).
func (c *Client) GetRecord(ctx context.Context, did, collection, rkey string) (*Record, error) {
	var record Record
	var apiErr xrpcError

	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"repo":       did,
			"collection": collection,
			"rkey":       rkey,
		}).
		SetResult(&record).
		SetError(&apiErr).
		Get(c.xrpcURL("com.atproto.repo.getRecord"))
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	if resp.StatusCode() == 400 && apiErr.Error == "RecordNotFound" {
		return nil, nil
	}
	if resp.IsError() {
		return nil, apiError("getRecord", resp, &apiErr)
	}

	return &record, nil
}

// ListRecords pages through a collection in the user's repository
// (com.atproto.repo.listRecords).
func (c *Client) ListRecords(ctx context.Context, did, collection, cursor string, limit int) (*RecordList, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	params := map[string]string{
		"repo":       did,
		"collection": collection,
		"limit":      strconv.Itoa(limit),
	}
	if cursor != "" {
		params["cursor"] = cursor
	}

	var list RecordList
	var apiErr xrpcError

	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&list).
		SetError(&apiErr).
		Get(c.xrpcURL("com.atproto.repo.listRecords"))
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	if resp.IsError() {
		return nil, apiError("listRecords", resp, &apiErr)
	}

	return &list, nil
}
