package atproto

import "context"

// Session holds the PDS credentials returned by
// com.atproto.server.createSession / refreshSession.
type Session struct {
	DID        string `json:"did"`
	Handle     string `json:"handle"`
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
}

// Record is a single record returned from a repository.
type Record struct {
	URI   string                 `json:"uri"`
	CID   string                 `json:"cid"`
	Value map[string]interface{} `json:"value"`
}

// RecordList is a page of records from com.atproto.repo.listRecords.
type RecordList struct {
	Records []Record `json:"records"`
	Cursor  string   `json:"cursor"`
}

type ClientInterface interface {
	ResolveHandle(ctx context.Context, handle string) (string, error)
	ResolveDIDDocument(ctx context.Context, did string) (string, error)
	CreateSession(ctx context.Context, identifier, password string) (*Session, error)
	RefreshSession(ctx context.Context, refreshJwt string) (*Session, error)

	CreateRecord(ctx context.Context, accessJwt, did, collection, rkey string, value map[string]interface{}) (*Record, error)
	PutRecord(ctx context.Context, accessJwt, did, collection, rkey string, value map[string]interface{}) (*Record, error)
	DeleteRecord(ctx context.Context, accessJwt, did, collection, rkey string) error
	GetRecord(ctx context.Context, did, collection, rkey string) (*Record, error)
	ListRecords(ctx context.Context, did, collection, cursor string, limit int) (*RecordList, error)
}
