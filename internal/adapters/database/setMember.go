package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gramly/internal/core/comment"
	"gramly/internal/core/desync"
	"gramly/internal/core/post"
	"gramly/internal/core/user"
	"gramly/internal/ports"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SetMember is one id inside a relationship set owned by a user or a post.
// Seq keeps insertion order so ordered sets (posts, comments) read back the way they were written.
type SetMember struct {
	Seq       uint64    `gorm:"primaryKey;autoIncrement"`
	OwnerID   uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_set_member,priority:1"`
	SetName   string    `gorm:"type:varchar(16);not null;uniqueIndex:idx_set_member,priority:2"`
	MemberID  uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_set_member,priority:3"`
	CreatedAt time.Time
}

func (SetMember) TableName() string { return "set_members" }

// Migrate creates or updates every table the gorm adapters use.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&user.User{},
		&post.Post{},
		&comment.Comment{},
		&SetMember{},
		&desync.Entry{},
	)
}

// addMember inserts the member only while the owner row exists. The existence check and the insert
// are one statement, so a row cannot land after a concurrent delete of the owner has cleared its sets.
// An existing row is kept as is.
func addMember(ctx context.Context, db *gorm.DB, owner any, ownerID uuid.UUID, set string, member uuid.UUID) error {
	table, err := tableOf(db, owner)
	if err != nil {
		return err
	}

	res := db.WithContext(ctx).Exec(
		"INSERT INTO set_members (owner_id, set_name, member_id, created_at) "+
			"SELECT ?, ?, ?, ? FROM DUAL WHERE EXISTS (SELECT 1 FROM ? WHERE id = ?) "+
			"ON DUPLICATE KEY UPDATE seq = seq",
		ownerID, set, member, time.Now().UTC(), clause.Table{Name: table}, ownerID,
	)
	if res.Error != nil {
		return fmt.Errorf("add %s member: %w", set, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// Nothing inserted: either the member was already there or the owner is gone.
	return ensureOwner(ctx, db, owner, ownerID)
}

func removeMember(ctx context.Context, db *gorm.DB, owner any, ownerID uuid.UUID, set string, member uuid.UUID) error {
	if err := ensureOwner(ctx, db, owner, ownerID); err != nil {
		return err
	}

	if err := db.WithContext(ctx).
		Where("owner_id = ? AND set_name = ? AND member_id = ?", ownerID, set, member).
		Delete(&SetMember{}).Error; err != nil {
		return fmt.Errorf("remove %s member: %w", set, err)
	}
	return nil
}

func ensureOwner(ctx context.Context, db *gorm.DB, owner any, ownerID uuid.UUID) error {
	var count int64
	if err := db.WithContext(ctx).Model(owner).Where("id = ?", ownerID).Count(&count).Error; err != nil {
		return fmt.Errorf("check owner: %w", err)
	}
	if count == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func tableOf(db *gorm.DB, model any) (string, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return "", fmt.Errorf("resolve table: %w", err)
	}
	return stmt.Schema.Table, nil
}

// loadMembers returns owner id -> set name -> members, in insertion order.
func loadMembers(ctx context.Context, db *gorm.DB, ownerIDs []uuid.UUID) (map[uuid.UUID]map[string][]uuid.UUID, error) {
	out := make(map[uuid.UUID]map[string][]uuid.UUID, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return out, nil
	}

	var rows []SetMember
	if err := db.WithContext(ctx).
		Where("owner_id IN ?", ownerIDs).
		Order("seq ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load set members: %w", err)
	}

	for _, r := range rows {
		sets, ok := out[r.OwnerID]
		if !ok {
			sets = make(map[string][]uuid.UUID)
			out[r.OwnerID] = sets
		}
		sets[r.SetName] = append(sets[r.SetName], r.MemberID)
	}
	return out, nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ports.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ports.ErrDuplicate
	}
	return err
}
