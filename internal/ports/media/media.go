package media

import "context"

// Store turns raw image bytes into a stable, publicly fetchable URL.
type Store interface {
	Upload(ctx context.Context, data []byte) (string, error)
	// Remove deletes an upload that ended up unused. Removing a missing URL is not an error.
	Remove(ctx context.Context, url string) error
}
