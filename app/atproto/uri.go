package atproto

import (
	"fmt"
	"strings"
)

// BuildURI composes an at:// URI from its parts.
func BuildURI(did, collection, rkey string) string {
	return fmt.Sprintf("at://%s/%s/%s", did, collection, rkey)
}

// ParseURI splits an at:// URI into DID, collection NSID and record key.
func ParseURI(uri string) (did, collection, rkey string, err error) {
	rest, ok := strings.CutPrefix(uri, "at://")
	if !ok {
		return "", "", "", fmt.Errorf("not an at:// URI: %s", uri)
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("malformed at:// URI: %s", uri)
	}
	if !strings.HasPrefix(parts[0], "did:") {
		return "", "", "", fmt.Errorf("at:// URI authority must be a DID: %s", uri)
	}

	return parts[0], parts[1], parts[2], nil
}
