// Package guard holds the ownership rules for graph mutations.
package guard

import (
	"github.com/gofrs/uuid"

	"gramly/internal/core/post"
)

// CanDelete reports whether principal owns p. Ids are compared as typed UUIDs.
func CanDelete(principal uuid.UUID, p *post.Post) bool {
	return p != nil && principal != uuid.Nil && p.AuthorID == principal
}
