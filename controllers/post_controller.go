package controllers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/sharehub/services"
	"github.com/cppla/sharehub/storage"
	"github.com/cppla/sharehub/utils"
)

const postListCachePrefix = "cache:posts:list:"

// PostController exposes post CRUD, likes and search.
type PostController struct {
	posts       *services.PostService
	maxPageSize int
	cacheTTL    time.Duration
}

// NewPostController creates a new PostController instance.
func NewPostController(posts *services.PostService, maxPageSize int, cacheTTL time.Duration) *PostController {
	return &PostController{posts: posts, maxPageSize: maxPageSize, cacheTTL: cacheTTL}
}

type createPostRequest struct {
	Title       string   `json:"title" form:"title"`
	Description string   `json:"description" form:"description"`
	Content     string   `json:"content" form:"content"`
	Category    string   `json:"category" form:"category"`
	Tags        []string `json:"tags" form:"-"`
}

// ListPosts returns one newest-first page. Pages are cached in Redis when it is configured.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, limit := parsePagination(ctx.Query("page"), ctx.Query("limit"), p.maxPageSize)

	cacheKey := fmt.Sprintf("%spage=%d:limit=%d", postListCachePrefix, page, limit)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
		return
	}

	result, err := p.posts.List(ctx.Request.Context(), page, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.CacheSetJSON(cacheKey, result, p.cacheTTL)
	utils.Success(ctx, result)
}

// GetPost returns a single post and counts the view.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, err := p.posts.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// CreatePost accepts a multipart form with up to five "media" files, or a plain JSON body.
func (p *PostController) CreatePost(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req createPostRequest
	var uploads []storage.Upload
	if ctx.ContentType() == gin.MIMEJSON {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			utils.Error(ctx, http.StatusBadRequest, "Invalid request payload")
			return
		}
	} else {
		req.Title = ctx.PostForm("title")
		req.Description = ctx.PostForm("description")
		req.Content = ctx.PostForm("content")
		req.Category = ctx.PostForm("category")
		req.Tags = parseTags(ctx.PostForm("tags"))
		if form, err := ctx.MultipartForm(); err == nil {
			uploads = toUploads(form.File["media"])
		} else if err != http.ErrNotMultipart {
			utils.Error(ctx, http.StatusBadRequest, "Invalid multipart form")
			return
		}
	}

	post, err := p.posts.Create(ctx.Request.Context(), user, services.PostInput{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Category:    req.Category,
		Tags:        req.Tags,
	}, uploads)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.InvalidateByPrefix(postListCachePrefix)
	utils.Created(ctx, gin.H{"post": post})
}

// UpdatePost merges title, description, content, category and tags. Other fields are ignored.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	var patch services.PostPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "Invalid request payload")
		return
	}

	post, err := p.posts.Update(ctx.Request.Context(), ctx.Param("id"), user.ID, patch)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.InvalidateByPrefix(postListCachePrefix)
	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost removes a post owned by the caller.
func (p *PostController) DeletePost(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	if err := p.posts.Delete(ctx.Request.Context(), ctx.Param("id"), user.ID); err != nil {
		respondError(ctx, err)
		return
	}
	utils.InvalidateByPrefix(postListCachePrefix)
	utils.Success(ctx, gin.H{"message": "Post deleted"})
}

// ToggleLike likes or unlikes a post for the caller.
func (p *PostController) ToggleLike(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	post, liked, err := p.posts.ToggleLike(ctx.Request.Context(), ctx.Param("id"), user.ID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.InvalidateByPrefix(postListCachePrefix)
	utils.Success(ctx, gin.H{"post": post, "liked": liked})
}

// SearchPosts matches ?q= against post text and ?category= exactly.
func (p *PostController) SearchPosts(ctx *gin.Context) {
	posts, err := p.posts.Search(ctx.Request.Context(), ctx.Query("q"), ctx.Query("category"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"posts": posts})
}

func toUploads(headers []*multipart.FileHeader) []storage.Upload {
	uploads := make([]storage.Upload, 0, len(headers))
	for _, fh := range headers {
		if fh == nil || strings.TrimSpace(fh.Filename) == "" {
			continue
		}
		uploads = append(uploads, storage.FromFileHeader(fh))
	}
	return uploads
}
