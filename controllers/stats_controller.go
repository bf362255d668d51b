package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/sharehub/services"
	"github.com/cppla/sharehub/utils"
)

// StatsController provides site statistics.
type StatsController struct {
	users *services.UserService
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(users *services.UserService) *StatsController {
	return &StatsController{users: users}
}

// GetStats returns user, post and comment counts.
func (s *StatsController) GetStats(ctx *gin.Context) {
	stats, err := s.users.Stats(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, stats)
}
