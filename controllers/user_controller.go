package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/sharehub/services"
	"github.com/cppla/sharehub/storage"
	"github.com/cppla/sharehub/utils"
)

// UserController exposes public profiles, profile edits and bookmarks.
type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

// GetProfile returns a public profile with the user's posts.
func (u *UserController) GetProfile(ctx *gin.Context) {
	user, posts, err := u.users.Profile(ctx.Request.Context(), ctx.Param("username"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"user": publicUser(user), "posts": posts})
}

// UpdateProfile changes the caller's bio. Other fields are ignored.
func (u *UserController) UpdateProfile(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req struct {
		Bio *string `json:"bio"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "Invalid request payload")
		return
	}

	updated, err := u.users.UpdateBio(ctx.Request.Context(), user.ID, req.Bio)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"user": gin.H{
		"id":       updated.ID,
		"username": updated.Username,
		"bio":      updated.Bio,
	}})
}

// UploadProfilePicture stores the "profilePicture" file part and returns its URL.
func (u *UserController) UploadProfilePicture(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	var upload *storage.Upload
	if fh, err := ctx.FormFile("profilePicture"); err == nil {
		up := storage.FromFileHeader(fh)
		upload = &up
	}

	url, err := u.users.SetProfilePicture(ctx.Request.Context(), user.ID, upload)
	if err != nil {
		respondError(ctx, err)
		return
	}
	// cached list pages embed each author's picture
	utils.InvalidateByPrefix(postListCachePrefix)
	utils.Success(ctx, gin.H{"profilePicture": url})
}

// ToggleBookmark adds or removes a post from the caller's bookmarks.
func (u *UserController) ToggleBookmark(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	bookmarked, err := u.users.ToggleBookmark(ctx.Request.Context(), user.ID, ctx.Param("postId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"bookmarked": bookmarked})
}

// ListBookmarks returns the caller's bookmarked posts in bookmark order.
func (u *UserController) ListBookmarks(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	posts, err := u.users.Bookmarks(ctx.Request.Context(), user.ID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"bookmarks": posts})
}
