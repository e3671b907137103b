package comment

import (
	"time"

	"github.com/gofrs/uuid"
)

// Comment belongs to exactly one post; PostID and AuthorID never change after creation.
type Comment struct {
	ID        uuid.UUID `gorm:"primary_key;type:char(36)"`
	PostID    uuid.UUID `gorm:"type:char(36);not null;index"`
	AuthorID  uuid.UUID `gorm:"type:char(36);not null"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index"`
}
