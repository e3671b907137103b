package feedapp

import (
	"context"
	"errors"
	"sort"

	"gramly/internal/core/apperror"
	commentEntity "gramly/internal/core/comment"
	postEntity "gramly/internal/core/post"
	"gramly/internal/ports"
	commentPort "gramly/internal/ports/comment"
	postPort "gramly/internal/ports/post"
	userPort "gramly/internal/ports/user"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// FeedService builds the read models for posts and comments. It never writes.
type FeedService struct {
	PostRepository    postPort.PostRepository
	CommentRepository commentPort.CommentRepository
	UserRepository    userPort.UserRepository
	Cache             userPort.SummaryCache // nil disables caching
	Logger            *zap.Logger
}

func NewFeedService(
	postRepo postPort.PostRepository,
	commentRepo commentPort.CommentRepository,
	userRepo userPort.UserRepository,
	cache userPort.SummaryCache,
	logger *zap.Logger,
) *FeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedService{
		PostRepository:    postRepo,
		CommentRepository: commentRepo,
		UserRepository:    userRepo,
		Cache:             cache,
		Logger:            logger,
	}
}

// ListAll returns every post newest first, with authors and comments resolved.
func (s *FeedService) ListAll(ctx context.Context) ([]*postPort.PostDTO, error) {
	return s.list(ctx, postPort.PostFilter{})
}

// ListByAuthor returns the posts of one user newest first.
func (s *FeedService) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*postPort.PostDTO, error) {
	return s.list(ctx, postPort.PostFilter{AuthorID: &authorID})
}

// GetComments returns the comments of a post in the order they were written.
func (s *FeedService) GetComments(ctx context.Context, postID uuid.UUID) ([]*commentPort.CommentDTO, error) {
	if _, err := s.PostRepository.FindByID(ctx, postID); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperror.NotFound("post not found")
		}
		return nil, apperror.Store("find post", err)
	}

	comments, err := s.CommentRepository.FindByPostID(ctx, postID)
	if err != nil {
		return nil, apperror.Store("find comments", err)
	}

	authorIDs := make([]uuid.UUID, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.AuthorID)
	}
	authors, err := s.summaries(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]*commentPort.CommentDTO, 0, len(comments))
	for _, c := range comments {
		dto := commentPort.ToCommentDTO(c)
		dto.Author = authors[c.AuthorID]
		out = append(out, dto)
	}
	return out, nil
}

// PostView renders a single post the way the feed does.
func (s *FeedService) PostView(ctx context.Context, p *postEntity.Post) (*postPort.PostDTO, error) {
	var comments []*commentEntity.Comment
	if len(p.Comments) > 0 {
		found, err := s.CommentRepository.FindByIDs(ctx, p.Comments)
		if err != nil {
			return nil, apperror.Store("find comments", err)
		}
		comments = newestFirst(found)
	}

	authorIDs := []uuid.UUID{p.AuthorID}
	for _, c := range comments {
		authorIDs = append(authorIDs, c.AuthorID)
	}
	authors, err := s.summaries(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	return s.render(p, comments, authors), nil
}

// CommentView renders a single comment with its author.
func (s *FeedService) CommentView(ctx context.Context, c *commentEntity.Comment) (*commentPort.CommentDTO, error) {
	authors, err := s.summaries(ctx, []uuid.UUID{c.AuthorID})
	if err != nil {
		return nil, err
	}
	dto := commentPort.ToCommentDTO(c)
	dto.Author = authors[c.AuthorID]
	return dto, nil
}

func (s *FeedService) list(ctx context.Context, filter postPort.PostFilter) ([]*postPort.PostDTO, error) {
	posts, err := s.PostRepository.Find(ctx, filter)
	if err != nil {
		return nil, apperror.Store("find posts", err)
	}

	commentsByPost := make(map[uuid.UUID][]*commentEntity.Comment, len(posts))
	authorIDs := make([]uuid.UUID, 0, len(posts))
	for _, p := range posts {
		authorIDs = append(authorIDs, p.AuthorID)
		if len(p.Comments) == 0 {
			continue
		}

		comments, err := s.CommentRepository.FindByIDs(ctx, p.Comments)
		if err != nil {
			return nil, apperror.Store("find comments", err)
		}
		comments = newestFirst(comments)
		commentsByPost[p.ID] = comments
		for _, c := range comments {
			authorIDs = append(authorIDs, c.AuthorID)
		}
	}

	authors, err := s.summaries(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]*postPort.PostDTO, 0, len(posts))
	for _, p := range posts {
		out = append(out, s.render(p, commentsByPost[p.ID], authors))
	}
	return out, nil
}

func (s *FeedService) render(p *postEntity.Post, comments []*commentEntity.Comment, authors map[uuid.UUID]*userPort.SummaryDTO) *postPort.PostDTO {
	dto := postPort.ToPostDTO(p)
	dto.Author = authors[p.AuthorID]
	dto.Comments = make([]*commentPort.CommentDTO, 0, len(comments))
	for _, c := range comments {
		cd := commentPort.ToCommentDTO(c)
		cd.Author = authors[c.AuthorID]
		dto.Comments = append(dto.Comments, cd)
	}
	return dto
}

// summaries resolves author summaries in one batch, reading through the cache when there is one.
// Ids with no user behind them are absent from the result.
func (s *FeedService) summaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*userPort.SummaryDTO, error) {
	ids = unique(ids)
	out := make(map[uuid.UUID]*userPort.SummaryDTO, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	missing := ids
	if s.Cache != nil {
		var hits map[uuid.UUID]*userPort.SummaryDTO
		hits, missing = s.Cache.Get(ctx, ids)
		for id, summary := range hits {
			out[id] = summary
		}
		if len(missing) == 0 {
			return out, nil
		}
	}

	users, err := s.UserRepository.FindByIDs(ctx, missing)
	if err != nil {
		return nil, apperror.Store("find authors", err)
	}

	fetched := make([]*userPort.SummaryDTO, 0, len(users))
	for _, u := range users {
		summary := userPort.ToSummaryDTO(u)
		out[u.ID] = summary
		fetched = append(fetched, summary)
	}
	if s.Cache != nil && len(fetched) > 0 {
		s.Cache.Set(ctx, fetched...)
	}

	if skipped := len(missing) - len(users); skipped > 0 {
		s.Logger.Debug("authors not found while assembling feed", zap.Int("count", skipped))
	}
	return out, nil
}

func newestFirst(comments []*commentEntity.Comment) []*commentEntity.Comment {
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
	return comments
}

func unique(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
