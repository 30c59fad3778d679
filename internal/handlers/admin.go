package handlers

import (
	"net/http"
	"strconv"

	"agora/internal/models"
	"agora/internal/services"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	admin *services.AdminService
	stats *services.StatsService
}

func NewAdminHandler(admin *services.AdminService, stats *services.StatsService) *AdminHandler {
	return &AdminHandler{admin: admin, stats: stats}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.admin.ListUsers(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// SetRole 修改用户角色：?role=user|moderator|admin
func (h *AdminHandler) SetRole(c *gin.Context) {
	user, err := h.admin.SetRole(c.Request.Context(), currentUser(c), c.Param("id"), models.Role(c.Query("role")))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// SetBanned 封禁/解封：?banned=true|false
func (h *AdminHandler) SetBanned(c *gin.Context) {
	banned, err := strconv.ParseBool(c.DefaultQuery("banned", "true"))
	if err != nil {
		RespondError(c, services.Invalid("banned must be a boolean"))
		return
	}
	user, err := h.admin.SetBanned(c.Request.Context(), currentUser(c), c.Param("id"), banned)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Admin(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
