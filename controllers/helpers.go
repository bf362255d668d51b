package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/cppla/sharehub/middleware"
	"github.com/cppla/sharehub/models"
	"github.com/cppla/sharehub/services"
	"github.com/cppla/sharehub/utils"
)

// parsePagination falls back to page 1 and limit 10 for missing, non-numeric or non-positive
// values. A positive maxLimit caps the page size.
func parsePagination(pageStr, limitStr string, maxLimit int) (int, int) {
	page := 1
	limit := 10
	if p, err := strconv.Atoi(strings.TrimSpace(pageStr)); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(strings.TrimSpace(limitStr)); err == nil && l > 0 {
		limit = l
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// currentUser returns the identity set by middleware.AuthRequired, answering 401 when absent.
func currentUser(ctx *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return user, true
}

// respondError maps a service error kind to its status code.
func respondError(ctx *gin.Context, err error) {
	var se *services.Error
	if !errors.As(err, &se) {
		se = services.ErrServer(err)
	}
	switch se.Kind {
	case services.KindValidation:
		utils.Error(ctx, http.StatusBadRequest, se.Message)
	case services.KindUnauthenticated:
		utils.Error(ctx, http.StatusUnauthorized, se.Message)
	case services.KindForbidden:
		utils.Error(ctx, http.StatusForbidden, se.Message)
	case services.KindNotFound:
		utils.Error(ctx, http.StatusNotFound, se.Message)
	default:
		detail := ""
		if se.Err != nil {
			detail = se.Err.Error()
		}
		utils.Logger.Error("request failed",
			zap.String("path", ctx.Request.URL.Path),
			zap.Error(se.Err),
		)
		utils.Error(ctx, http.StatusInternalServerError, se.Message, detail)
	}
}

// parseTags accepts a JSON array string or a comma separated list.
func parseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err == nil {
			return tags
		}
	}
	return strings.Split(raw, ",")
}
