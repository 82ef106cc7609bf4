package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// BytesCache stores raw bytes with a TTL. A zero TTL never expires.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Key joins parts with ':' after the prefix.
func Key(prefix string, parts ...interface{}) string {
	var sb strings.Builder
	sb.WriteString(prefix)
	for _, p := range parts {
		sb.WriteByte(':')
		fmt.Fprint(&sb, p)
	}
	return sb.String()
}

// Noop never stores anything.
type Noop struct{}

func (Noop) GetBytes(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (Noop) SetBytes(context.Context, string, []byte, time.Duration) error { return nil }

func (Noop) Close() error { return nil }
