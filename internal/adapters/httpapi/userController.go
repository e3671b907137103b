package httpapi

import (
	"net/http"

	"gramly/internal/adapters/httpapi/middleware"
	graphapp "gramly/internal/core/graph/service"
	userapp "gramly/internal/core/user/service"

	"github.com/gin-gonic/gin"
)

const tokenMaxAge = 24 * 60 * 60

type UserController struct {
	uc           UserUseCase
	gc           GraphUseCase
	cookieSecure bool
}

func NewUserController(uc UserUseCase, gc GraphUseCase, cookieSecure bool) *UserController {
	return &UserController{uc: uc, gc: gc, cookieSecure: cookieSecure}
}

func (ctl *UserController) RegisterUser(c *gin.Context) {
	var req struct {
		FullName string `json:"fullName" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	u, err := ctl.uc.RegisterUser(c.Request.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "User registered successfully", "user": u})
}

func (ctl *UserController) LoginUser(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	res, err := ctl.uc.LoginUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.TokenCookie, res.Token, tokenMaxAge, "/", "", ctl.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Welcome back " + res.User.FullName,
		"token":     res.Token,
		"expiresAt": res.ExpiresAt,
		"user":      res.User,
	})
}

func (ctl *UserController) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", ctl.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logout Successfully!"})
}

func (ctl *UserController) GetProfile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := ctl.uc.GetProfile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User fetched successfully", "user": u})
}

func (ctl *UserController) EditProfile(c *gin.Context) {
	me, ok := principal(c)
	if !ok {
		return
	}

	var in userapp.EditProfileInput
	if bio, ok := c.GetPostForm("bio"); ok {
		in.Bio = &bio
	}
	if gender, ok := c.GetPostForm("gender"); ok {
		in.Gender = &gender
	}
	picture, err := readImage(c, "profilePicture")
	if err != nil {
		respondError(c, err)
		return
	}
	in.Picture = picture

	u, err := ctl.uc.EditProfile(c.Request.Context(), me, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User updated successfully", "user": u})
}

func (ctl *UserController) SuggestedUsers(c *gin.Context) {
	me, ok := principal(c)
	if !ok {
		return
	}
	users, err := ctl.uc.SuggestedUsers(c.Request.Context(), me)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}

func (ctl *UserController) FollowOrUnfollow(c *gin.Context) {
	me, ok := principal(c)
	if !ok {
		return
	}
	target, ok := pathID(c, "id")
	if !ok {
		return
	}

	state, err := ctl.gc.FollowOrUnfollow(c.Request.Context(), me, target)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Followed successfully"
	if state == graphapp.Unfollowed {
		message = "Unfollowed successfully"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "state": state})
}
