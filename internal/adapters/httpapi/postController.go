package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"gramly/internal/core/apperror"
	graphapp "gramly/internal/core/graph/service"
	postEntity "gramly/internal/core/post"
	commentPort "gramly/internal/ports/comment"
	postPort "gramly/internal/ports/post"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type PostController struct {
	gc    GraphUseCase
	fc    FeedUseCase
	media MediaUploader
}

func NewPostController(gc GraphUseCase, fc FeedUseCase, media MediaUploader) *PostController {
	return &PostController{gc: gc, fc: fc, media: media}
}

func (ctl *PostController) CreatePost(c *gin.Context) {
	me, ok := principal(c)
	if !ok {
		return
	}

	image, err := readImage(c, "image")
	if err != nil {
		respondError(c, err)
		return
	}
	if len(image) == 0 {
		respondError(c, apperror.Validation("image required"))
		return
	}

	url, err := ctl.media.Upload(c.Request.Context(), image)
	if err != nil {
		respondError(c, err)
		return
	}

	p, err := ctl.gc.CreatePost(c.Request.Context(), me, c.PostForm("caption"), url)
	if err != nil {
		if rmErr := ctl.media.Remove(context.WithoutCancel(c.Request.Context()), url); rmErr != nil {
			_ = c.Error(fmt.Errorf("orphaned upload %s: %w", url, rmErr))
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "New post added", "post": ctl.postView(c, p)})
}

func (ctl *PostController) ListAll(c *gin.Context) {
	posts, err := ctl.fc.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Posts fetched successfully", "posts": posts})
}

func (ctl *PostController) ListMine(c *gin.Context) {
	me, ok := principal(c)
	if !ok {
		return
	}
	posts, err := ctl.fc.ListByAuthor(c.Request.Context(), me)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User posts fetched successfully", "posts": posts})
}

func (ctl *PostController) Like(c *gin.Context) {
	ctl.like(c, ctl.gc.ToggleLike, "Post liked")
}

func (ctl *PostController) Dislike(c *gin.Context) {
	ctl.like(c, ctl.gc.ToggleDislike, "Post disliked")
}

func (ctl *PostController) like(c *gin.Context, toggle func(context.Context, uuid.UUID, uuid.UUID) (*postEntity.Post, error), message string) {
	me, ok := principal(c)
	if !ok {
		return
	}
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	p, err := toggle(c.Request.Context(), me, postID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "post": postPort.ToPostDTO(p)})
}

func (ctl *PostController) AddComment(c *gin.Context) {
	me, ok := principal(c)
	if !ok {
		return
	}
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperror.Validation("text is required"))
		return
	}

	cm, err := ctl.gc.AddComment(c.Request.Context(), me, postID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := ctl.fc.CommentView(c.Request.Context(), cm)
	if err != nil {
		// The comment exists; answer without its author rather than fail the write.
		_ = c.Error(err)
		view = commentPort.ToCommentDTO(cm)
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Comment Added", "comment": view})
}

func (ctl *PostController) GetComments(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	comments, err := ctl.fc.GetComments(c.Request.Context(), postID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Comments fetched successfully", "comments": comments})
}

func (ctl *PostController) DeletePost(c *gin.Context) {
	me, ok := principal(c)
	if !ok {
		return
	}
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := ctl.gc.DeletePost(c.Request.Context(), me, postID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Post deleted"})
}

func (ctl *PostController) Bookmark(c *gin.Context) {
	me, ok := principal(c)
	if !ok {
		return
	}
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	state, err := ctl.gc.ToggleBookmark(c.Request.Context(), me, postID)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Post bookmarked"
	if state == graphapp.BookmarkUnsaved {
		message = "Post removed from bookmark"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "type": state})
}

// postView resolves the author of a post that was just written, falling back to the bare post.
func (ctl *PostController) postView(c *gin.Context, p *postEntity.Post) *postPort.PostDTO {
	view, err := ctl.fc.PostView(c.Request.Context(), p)
	if err != nil {
		_ = c.Error(err)
		return postPort.ToPostDTO(p)
	}
	return view
}
