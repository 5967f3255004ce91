package repository

import "context"

// CachedReplay is the part of a succeeded idempotency record needed to replay it
type CachedReplay struct {
	RequestHash  string
	ResponseCode int
	ResponseBody []byte
	ResourceType string
	ResourceID   string
}

// ReplayCache is a read-through accelerator for succeeded records. The idempotency
// store stays the source of truth; a miss or an error falls back to it.
type ReplayCache interface {
	Get(ctx context.Context, scope, key string) (*CachedReplay, error)
	Put(ctx context.Context, scope, key string, replay *CachedReplay) error
}
