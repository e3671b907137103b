package desync

import (
	"time"

	"github.com/gofrs/uuid"
)

// Target is the store a pending repair writes to.
type Target string

const (
	TargetUser     Target = "user"
	TargetPost     Target = "post"
	TargetComments Target = "comments"
)

// Action is the idempotent write to replay.
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
	// ActionPurge deletes every comment of the post in OwnerID.
	ActionPurge Action = "purge"
)

// Inverse returns the action that undoes a set write.
func (a Action) Inverse() Action {
	switch a {
	case ActionAdd:
		return ActionRemove
	case ActionRemove:
		return ActionAdd
	}
	return a
}

const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Entry records a secondary write that failed after its primary write succeeded.
type Entry struct {
	ID          uuid.UUID  `gorm:"primary_key;type:char(36)"`
	Operation   string     `gorm:"type:varchar(32);not null"`
	Target      Target     `gorm:"type:varchar(16);not null"`
	Set         string     `gorm:"type:varchar(32)"`
	OwnerID     uuid.UUID  `gorm:"type:char(36);not null"`
	MemberID    uuid.UUID  `gorm:"type:char(36)"`
	Action      Action     `gorm:"type:varchar(16);not null"`
	Status      string     `gorm:"type:varchar(20);not null;index:idx_desync_status_created,priority:1"`
	Attempts    int        `gorm:"not null;default:0"`
	LastError   string     `gorm:"type:text"`
	CreatedAt   time.Time  `gorm:"index:idx_desync_status_created,priority:2"`
	ProcessedAt *time.Time `gorm:"index"`
}

func (Entry) TableName() string { return "desync_entries" }
