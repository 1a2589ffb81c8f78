// Package transport delivers encoded fail notifications to the collector.
package transport

import (
	"context"
)

// Poster sends an encoded notification body to a path on the collector.
type Poster interface {
	Post(ctx context.Context, path string, body []byte) error
}

// PosterFunc adapts a function to Poster.
type PosterFunc func(ctx context.Context, path string, body []byte) error

func (f PosterFunc) Post(ctx context.Context, path string, body []byte) error {
	return f(ctx, path, body)
}
