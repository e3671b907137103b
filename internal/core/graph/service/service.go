package graphapp

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"gramly/internal/core/apperror"
	commentEntity "gramly/internal/core/comment"
	"gramly/internal/core/desync"
	"gramly/internal/core/guard"
	postEntity "gramly/internal/core/post"
	userEntity "gramly/internal/core/user"
	"gramly/internal/metrics"
	"gramly/internal/ports"
	commentPort "gramly/internal/ports/comment"
	desyncPort "gramly/internal/ports/desync"
	postPort "gramly/internal/ports/post"
	userPort "gramly/internal/ports/user"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	opCreatePost       = "create_post"
	opDeletePost       = "delete_post"
	opToggleLike       = "toggle_like"
	opToggleDislike    = "toggle_dislike"
	opAddComment       = "add_comment"
	opToggleBookmark   = "toggle_bookmark"
	opFollowOrUnfollow = "follow_or_unfollow"
)

type BookmarkState string

const (
	BookmarkSaved   BookmarkState = "saved"
	BookmarkUnsaved BookmarkState = "unsaved"
)

type FollowState string

const (
	Followed   FollowState = "followed"
	Unfollowed FollowState = "unfollowed"
)

// GraphService applies every mutation that touches more than one denormalized collection.
//
// There is no transaction and no in-process lock around a mutation. Each write is a set-add,
// set-remove or delete issued directly against a store, so retries and concurrent callers
// commute. When a secondary write fails after the primary one succeeded, the call still
// succeeds and the gap is reported through the warning log, the desync metric and the journal.
type GraphService struct {
	UserRepository    userPort.UserRepository
	PostRepository    postPort.PostRepository
	CommentRepository commentPort.CommentRepository
	Journal           desyncPort.Journal // optional
	Metrics           *metrics.Collector // optional
	Logger            *zap.Logger

	now func() time.Time
}

func NewGraphService(
	userRepo userPort.UserRepository,
	postRepo postPort.PostRepository,
	commentRepo commentPort.CommentRepository,
	journal desyncPort.Journal,
	collector *metrics.Collector,
	logger *zap.Logger,
) *GraphService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphService{
		UserRepository:    userRepo,
		PostRepository:    postRepo,
		CommentRepository: commentRepo,
		Journal:           journal,
		Metrics:           collector,
		Logger:            logger,
		now:               time.Now,
	}
}

// WithClock replaces the creation timestamp source.
func (s *GraphService) WithClock(now func() time.Time) *GraphService {
	s.now = now
	return s
}

// CreatePost creates a post owned by principal and appends it to the principal's posts.
func (s *GraphService) CreatePost(ctx context.Context, principal uuid.UUID, caption, imageURL string) (*postEntity.Post, error) {
	if strings.TrimSpace(imageURL) == "" {
		return nil, s.fail(opCreatePost, apperror.Validation("image required"))
	}

	p := &postEntity.Post{
		ID:        uuid.Must(uuid.NewV4()),
		AuthorID:  principal,
		Caption:   caption,
		Image:     imageURL,
		Likes:     []uuid.UUID{},
		Comments:  []uuid.UUID{},
		CreatedAt: s.now().UTC(),
	}

	created, err := s.PostRepository.Create(ctx, p)
	if err != nil {
		return nil, s.fail(opCreatePost, apperror.Store("create post", err))
	}

	if err := s.UserRepository.AddToSet(ctx, principal, userEntity.SetPosts, created.ID); err != nil {
		s.reportDesync(ctx, &desync.Entry{
			Operation: opCreatePost,
			Target:    desync.TargetUser,
			Set:       string(userEntity.SetPosts),
			OwnerID:   principal,
			MemberID:  created.ID,
			Action:    desync.ActionAdd,
		}, err)
	}

	s.succeed(opCreatePost)
	return created, nil
}

// DeletePost removes an owned post, then its comments, then the owner's reference to it.
func (s *GraphService) DeletePost(ctx context.Context, principal, postID uuid.UUID) error {
	p, err := s.PostRepository.FindByID(ctx, postID)
	if err != nil {
		return s.fail(opDeletePost, storeError("find post", err, "post not found"))
	}
	if !guard.CanDelete(principal, p) {
		return s.fail(opDeletePost, apperror.Authorization("you are not authorized to delete this post"))
	}

	// Order: post, its comments, the author's reference.
	if err := s.PostRepository.Delete(ctx, postID); err != nil {
		return s.fail(opDeletePost, storeError("delete post", err, "post not found"))
	}

	if n, err := s.CommentRepository.DeleteByPostID(ctx, postID); err != nil {
		s.reportDesync(ctx, &desync.Entry{
			Operation: opDeletePost,
			Target:    desync.TargetComments,
			OwnerID:   postID,
			Action:    desync.ActionPurge,
		}, err)
	} else {
		s.Logger.Debug("cascade deleted comments", zap.String("postID", postID.String()), zap.Int64("count", n))
	}

	if err := s.UserRepository.RemoveFromSet(ctx, p.AuthorID, userEntity.SetPosts, postID); err != nil {
		s.reportDesync(ctx, &desync.Entry{
			Operation: opDeletePost,
			Target:    desync.TargetUser,
			Set:       string(userEntity.SetPosts),
			OwnerID:   p.AuthorID,
			MemberID:  postID,
			Action:    desync.ActionRemove,
		}, err)
	}

	s.succeed(opDeletePost)
	return nil
}

// ToggleLike adds principal to the post's likes. Repeating it changes nothing.
func (s *GraphService) ToggleLike(ctx context.Context, principal, postID uuid.UUID) (*postEntity.Post, error) {
	return s.like(ctx, opToggleLike, principal, postID)
}

// ToggleDislike has the same observable effect as ToggleLike: the principal is added to likes.
func (s *GraphService) ToggleDislike(ctx context.Context, principal, postID uuid.UUID) (*postEntity.Post, error) {
	return s.like(ctx, opToggleDislike, principal, postID)
}

func (s *GraphService) like(ctx context.Context, op string, principal, postID uuid.UUID) (*postEntity.Post, error) {
	p, err := s.PostRepository.FindByID(ctx, postID)
	if err != nil {
		return nil, s.fail(op, storeError("find post", err, "post not found"))
	}

	if err := s.PostRepository.AddToSet(ctx, postID, postEntity.SetLikes, principal); err != nil {
		return nil, s.fail(op, storeError("add like", err, "post not found"))
	}

	if !slices.Contains(p.Likes, principal) {
		p.Likes = append(p.Likes, principal)
	}

	s.succeed(op)
	return p, nil
}

// AddComment creates a comment on an existing post and appends it to the post's comments.
func (s *GraphService) AddComment(ctx context.Context, principal, postID uuid.UUID, text string) (*commentEntity.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, s.fail(opAddComment, apperror.Validation("text is required"))
	}

	if _, err := s.PostRepository.FindByID(ctx, postID); err != nil {
		return nil, s.fail(opAddComment, storeError("find post", err, "post not found"))
	}

	c := &commentEntity.Comment{
		ID:        uuid.Must(uuid.NewV4()),
		PostID:    postID,
		AuthorID:  principal,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}

	created, err := s.CommentRepository.Create(ctx, c)
	if err != nil {
		return nil, s.fail(opAddComment, apperror.Store("create comment", err))
	}

	if err := s.PostRepository.AddToSet(ctx, postID, postEntity.SetComments, created.ID); err != nil {
		s.reportDesync(ctx, &desync.Entry{
			Operation: opAddComment,
			Target:    desync.TargetPost,
			Set:       string(postEntity.SetComments),
			OwnerID:   postID,
			MemberID:  created.ID,
			Action:    desync.ActionAdd,
		}, err)
	}

	s.succeed(opAddComment)
	return created, nil
}

// ToggleBookmark saves the post for principal, or removes it when it is already saved.
func (s *GraphService) ToggleBookmark(ctx context.Context, principal, postID uuid.UUID) (BookmarkState, error) {
	if _, err := s.PostRepository.FindByID(ctx, postID); err != nil {
		return "", s.fail(opToggleBookmark, storeError("find post", err, "post not found"))
	}

	u, err := s.UserRepository.FindByID(ctx, principal)
	if err != nil {
		return "", s.fail(opToggleBookmark, storeError("find user", err, "user not found"))
	}

	if slices.Contains(u.Bookmarks, postID) {
		if err := s.UserRepository.RemoveFromSet(ctx, principal, userEntity.SetBookmarks, postID); err != nil {
			return "", s.fail(opToggleBookmark, storeError("remove bookmark", err, "user not found"))
		}
		s.succeed(opToggleBookmark)
		return BookmarkUnsaved, nil
	}

	if err := s.UserRepository.AddToSet(ctx, principal, userEntity.SetBookmarks, postID); err != nil {
		return "", s.fail(opToggleBookmark, storeError("add bookmark", err, "user not found"))
	}
	s.succeed(opToggleBookmark)
	return BookmarkSaved, nil
}

type setWrite func(ctx context.Context, id uuid.UUID, set userEntity.Set, member uuid.UUID) error

// FollowOrUnfollow flips the follow relation from principal to target. Both sides are written
// concurrently and the call waits for both before answering.
func (s *GraphService) FollowOrUnfollow(ctx context.Context, principal, targetID uuid.UUID) (FollowState, error) {
	if principal == targetID {
		return "", s.fail(opFollowOrUnfollow, apperror.Validation("cannot follow/unfollow yourself"))
	}

	u, err := s.UserRepository.FindByID(ctx, principal)
	if err != nil {
		return "", s.fail(opFollowOrUnfollow, storeError("find user", err, "user not found"))
	}
	if _, err := s.UserRepository.FindByID(ctx, targetID); err != nil {
		return "", s.fail(opFollowOrUnfollow, storeError("find user", err, "user not found"))
	}

	var (
		write  setWrite = s.UserRepository.AddToSet
		action          = desync.ActionAdd
		state           = Followed
	)
	if slices.Contains(u.Following, targetID) {
		write, action, state = s.UserRepository.RemoveFromSet, desync.ActionRemove, Unfollowed
	}

	var primaryErr, secondaryErr error
	var g errgroup.Group
	g.Go(func() error {
		primaryErr = write(ctx, principal, userEntity.SetFollowing, targetID)
		return primaryErr
	})
	g.Go(func() error {
		secondaryErr = write(ctx, targetID, userEntity.SetFollowers, principal)
		return secondaryErr
	})
	_ = g.Wait()

	if primaryErr != nil {
		if secondaryErr == nil {
			// The caller is told the call failed, so the repair undoes the half that landed.
			s.reportDesync(ctx, &desync.Entry{
				Operation: opFollowOrUnfollow,
				Target:    desync.TargetUser,
				Set:       string(userEntity.SetFollowers),
				OwnerID:   targetID,
				MemberID:  principal,
				Action:    action.Inverse(),
			}, primaryErr)
		}
		return "", s.fail(opFollowOrUnfollow, storeError("update following", primaryErr, "user not found"))
	}

	if secondaryErr != nil {
		s.reportDesync(ctx, &desync.Entry{
			Operation: opFollowOrUnfollow,
			Target:    desync.TargetUser,
			Set:       string(userEntity.SetFollowers),
			OwnerID:   targetID,
			MemberID:  principal,
			Action:    action,
		}, secondaryErr)
	}

	s.succeed(opFollowOrUnfollow)
	return state, nil
}

// reportDesync makes a failed secondary write visible. It never fails the surrounding call.
func (s *GraphService) reportDesync(ctx context.Context, entry *desync.Entry, cause error) {
	s.Logger.Warn("secondary write failed, denormalized state is out of sync",
		zap.String("operation", entry.Operation),
		zap.String("target", string(entry.Target)),
		zap.String("set", entry.Set),
		zap.String("ownerID", entry.OwnerID.String()),
		zap.String("memberID", entry.MemberID.String()),
		zap.String("action", string(entry.Action)),
		zap.Error(cause),
	)
	s.Metrics.Desync(entry.Operation, entry.Set)

	if s.Journal == nil {
		return
	}
	entry.LastError = cause.Error()
	if err := s.Journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		s.Logger.Error("could not record desync entry",
			zap.String("operation", entry.Operation),
			zap.String("ownerID", entry.OwnerID.String()),
			zap.Error(err),
		)
	}
}

func (s *GraphService) fail(op string, err error) error {
	s.Metrics.Mutation(op, string(apperror.KindOf(err)))
	if apperror.Is(err, apperror.KindStore) {
		s.Logger.Error("graph mutation failed", zap.String("operation", op), zap.Error(err))
	}
	return err
}

func (s *GraphService) succeed(op string) {
	s.Metrics.Mutation(op, "ok")
}

// storeError maps a missing entity to NotFound and everything else to a store failure.
func storeError(op string, err error, notFound string) error {
	if errors.Is(err, ports.ErrNotFound) {
		return apperror.NotFound(notFound)
	}
	return apperror.Store(op, err)
}
