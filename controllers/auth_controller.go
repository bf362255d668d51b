package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cppla/sharehub/middleware"
	"github.com/cppla/sharehub/models"
	"github.com/cppla/sharehub/services"
	"github.com/cppla/sharehub/utils"
)

const oauthStateTTL = 10 * time.Minute

// AuthController handles registration, login, logout and OAuth flows.
type AuthController struct {
	auth      *services.AuthService
	providers map[string]*services.OAuthProvider
}

// NewAuthController creates a new AuthController; providers may be empty.
func NewAuthController(auth *services.AuthService, providers map[string]*services.OAuthProvider) *AuthController {
	return &AuthController{auth: auth, providers: providers}
}

// Register handles local account registration with bcrypt hashing.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=3,max=30"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "Invalid registration data", err.Error())
		return
	}

	user, token, err := a.auth.Register(ctx.Request.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Created(ctx, gin.H{"token": token, "user": sanitizeUserResponse(user)})
}

// Login verifies user credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "Invalid credentials")
		return
	}

	user, token, err := a.auth.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"token": token, "user": sanitizeUserResponse(user)})
}

// Me returns the authenticated identity.
func (a *AuthController) Me(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, gin.H{"user": sanitizeUserResponse(user)})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	if err := a.auth.Logout(token); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "Logged out"})
}

// OAuthRedirect returns the provider's authorization URL with a fresh single-use state.
func (a *AuthController) OAuthRedirect(ctx *gin.Context) {
	provider, ok := a.provider(ctx)
	if !ok {
		return
	}
	state := uuid.NewString()
	utils.SaveState(state, provider.Name, oauthStateTTL)
	utils.Success(ctx, gin.H{"authorizationUrl": provider.AuthCodeURL(state), "state": state})
}

// OAuthCallback checks the state, exchanges the code and signs the user in.
func (a *AuthController) OAuthCallback(ctx *gin.Context) {
	code, state := ctx.Query("code"), ctx.Query("state")
	if code == "" || state == "" {
		utils.Error(ctx, http.StatusBadRequest, "Missing code or state")
		return
	}
	provider, ok := a.provider(ctx)
	if !ok {
		return
	}
	if !utils.ConsumeState(state, provider.Name) {
		utils.Error(ctx, http.StatusBadRequest, "Invalid or expired state")
		return
	}
	profile, err := provider.Exchange(ctx.Request.Context(), code)
	if err != nil {
		respondError(ctx, err)
		return
	}
	user, token, err := a.auth.OAuthLogin(ctx.Request.Context(), *profile)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"token": token, "user": sanitizeUserResponse(user)})
}

func (a *AuthController) provider(ctx *gin.Context) (*services.OAuthProvider, bool) {
	name := strings.ToLower(ctx.Param("provider"))
	p, ok := a.providers[name]
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, "OAuth provider not available: "+name)
	}
	return p, ok
}

// sanitizeUserResponse is the identity as seen by its owner.
func sanitizeUserResponse(user *models.User) gin.H {
	return gin.H{
		"id":             user.ID,
		"username":       user.Username,
		"email":          user.Email,
		"bio":            user.Bio,
		"profilePicture": user.ProfilePicture,
		"bookmarks":      user.Bookmarks,
		"createdAt":      user.CreatedAt,
	}
}

// publicUser is the identity as seen by anyone.
func publicUser(user *models.User) gin.H {
	return gin.H{
		"id":             user.ID,
		"username":       user.Username,
		"bio":            user.Bio,
		"profilePicture": user.ProfilePicture,
		"createdAt":      user.CreatedAt,
	}
}
