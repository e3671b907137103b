package httpapi

import (
	"context"
	"net/http"

	"gramly/internal/adapters/httpapi/middleware"
	commentEntity "gramly/internal/core/comment"
	graphapp "gramly/internal/core/graph/service"
	postEntity "gramly/internal/core/post"
	userapp "gramly/internal/core/user/service"
	"gramly/internal/metrics"
	commentPort "gramly/internal/ports/comment"
	postPort "gramly/internal/ports/post"
	userPort "gramly/internal/ports/user"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// UserUseCase is the inbound port the user routes depend on.
type UserUseCase interface {
	RegisterUser(ctx context.Context, fullName, email, password string) (*userPort.UserDTO, error)
	LoginUser(ctx context.Context, email, password string) (*userPort.LoginResponse, error)
	ParseToken(token string) (uuid.UUID, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*userPort.UserDTO, error)
	EditProfile(ctx context.Context, principal uuid.UUID, in userapp.EditProfileInput) (*userPort.UserDTO, error)
	SuggestedUsers(ctx context.Context, principal uuid.UUID) ([]*userPort.UserDTO, error)
}

// GraphUseCase covers every mutation that spans more than one collection.
type GraphUseCase interface {
	CreatePost(ctx context.Context, principal uuid.UUID, caption, imageURL string) (*postEntity.Post, error)
	DeletePost(ctx context.Context, principal, postID uuid.UUID) error
	ToggleLike(ctx context.Context, principal, postID uuid.UUID) (*postEntity.Post, error)
	ToggleDislike(ctx context.Context, principal, postID uuid.UUID) (*postEntity.Post, error)
	AddComment(ctx context.Context, principal, postID uuid.UUID, text string) (*commentEntity.Comment, error)
	ToggleBookmark(ctx context.Context, principal, postID uuid.UUID) (graphapp.BookmarkState, error)
	FollowOrUnfollow(ctx context.Context, principal, targetID uuid.UUID) (graphapp.FollowState, error)
}

type FeedUseCase interface {
	ListAll(ctx context.Context) ([]*postPort.PostDTO, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*postPort.PostDTO, error)
	GetComments(ctx context.Context, postID uuid.UUID) ([]*commentPort.CommentDTO, error)
	PostView(ctx context.Context, p *postEntity.Post) (*postPort.PostDTO, error)
	CommentView(ctx context.Context, c *commentEntity.Comment) (*commentPort.CommentDTO, error)
}

// MediaUploader stores an uploaded image and returns its URL.
type MediaUploader interface {
	Upload(ctx context.Context, data []byte) (string, error)
	Remove(ctx context.Context, url string) error
}

type RouterOptions struct {
	Logger       *zap.Logger
	Metrics      *metrics.Collector
	MediaDir     string // served under /media when set
	CORSOrigin   string
	CookieSecure bool
}

// SetupRoutes only wires routes; the use cases are built by the caller.
// Unknown JSON fields are rejected only when the caller sets binding.EnableDecoderDisallowUnknownFields.
func SetupRoutes(
	userUC UserUseCase,
	graphUC GraphUseCase,
	feedUC FeedUseCase,
	media MediaUploader,
	opts RouterOptions,
) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.ZapLogger(opts.Logger),
		middleware.Metrics(opts.Metrics),
		middleware.CORS(opts.CORSOrigin),
	)

	uc := NewUserController(userUC, graphUC, opts.CookieSecure)
	pc := NewPostController(graphUC, feedUC, media)
	auth := middleware.JWTAuthMiddleware(userUC)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	if opts.MediaDir != "" {
		r.Static("/media", opts.MediaDir)
	}

	v1 := r.Group("/api/v1")

	users := v1.Group("/user")
	users.POST("/register", uc.RegisterUser)
	users.POST("/login", uc.LoginUser)
	users.GET("/logout", uc.Logout)
	users.GET("/:id/profile", auth, uc.GetProfile)
	users.POST("/profile/edit", auth, uc.EditProfile)
	users.GET("/suggest", auth, uc.SuggestedUsers)
	users.POST("/followorunfollow/:id", auth, uc.FollowOrUnfollow)

	posts := v1.Group("/post", auth)
	posts.POST("/addnewpost", pc.CreatePost)
	posts.GET("/all", pc.ListAll)
	posts.GET("/userpost/all", pc.ListMine)
	posts.GET("/:id/like", pc.Like)
	posts.GET("/:id/dislike", pc.Dislike)
	posts.POST("/:id/comment", pc.AddComment)
	posts.GET("/:id/comment/all", pc.GetComments)
	posts.DELETE("/delete/:id", pc.DeletePost)
	posts.GET("/:id/bookmark", pc.Bookmark)

	return r
}
