package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/sharehub/services"
	"github.com/cppla/sharehub/utils"
)

// CommentController exposes comment listing, creation, deletion and likes.
type CommentController struct {
	comments *services.CommentService
}

func NewCommentController(comments *services.CommentService) *CommentController {
	return &CommentController{comments: comments}
}

// ListComments returns every comment of a post, newest first.
func (c *CommentController) ListComments(ctx *gin.Context) {
	comments, err := c.comments.List(ctx.Request.Context(), ctx.Param("postId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"comments": comments})
}

// CreateComment adds a comment to an existing post.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req struct {
		PostID string `json:"postId" binding:"required"`
		Text   string `json:"text"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "Invalid request payload")
		return
	}

	comment, err := c.comments.Create(ctx.Request.Context(), user, req.PostID, req.Text)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Created(ctx, gin.H{"comment": comment})
}

// DeleteComment removes a comment written by the caller.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	if err := c.comments.Delete(ctx.Request.Context(), ctx.Param("id"), user.ID); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "Comment deleted"})
}

// ToggleLike likes or unlikes a comment for the caller.
func (c *CommentController) ToggleLike(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	comment, liked, err := c.comments.ToggleLike(ctx.Request.Context(), ctx.Param("id"), user.ID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"comment": comment, "liked": liked})
}
