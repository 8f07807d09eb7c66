package atproto

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

var _ ClientInterface = (*Client)(nil)

// Client talks XRPC to a PDS and to the PLC directory.
type Client struct {
	pdsURL string
	plcURL string
	resty  *resty.Client
}

// xrpcError is the standard ATProto error envelope.
type xrpcError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewClient(pdsURL, plcURL, userAgent string) *Client {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", userAgent)
	client.SetRetryCount(2)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		// Retry upstream hiccups, never client errors
		return r.StatusCode() >= 500 || r.StatusCode() == http.StatusTooManyRequests
	})

	return &Client{
		pdsURL: pdsURL,
		plcURL: plcURL,
		resty:  client,
	}
}

func (c *Client) xrpcURL(method string) string {
	return c.pdsURL + "/xrpc/" + method
}

// apiError turns a non-2xx XRPC response into a wrapped error carrying the
// upstream error code when the body could be decoded.
func apiError(method string, resp *resty.Response, envelope *xrpcError) error {
	if envelope != nil && envelope.Error != "" {
		return fmt.Errorf("%s failed: %s (%s): %s", method, resp.Status(), envelope.Error, envelope.Message)
	}
	return fmt.Errorf("%s failed: %s", method, resp.Status())
}
