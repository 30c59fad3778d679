package handlers

import (
	"log"
	"net/http"
	"strconv"

	"agora/internal/models"
	"agora/internal/services"
	"agora/internal/utils"

	"github.com/gin-gonic/gin"
)

type IdeaHandler struct {
	ideas   *services.IdeaService
	uploads *services.Uploader
}

func NewIdeaHandler(ideas *services.IdeaService, uploads *services.Uploader) *IdeaHandler {
	return &IdeaHandler{ideas: ideas, uploads: uploads}
}

// List 支持 search/tag/category/status 过滤，sort=recent|top|active
func (h *IdeaHandler) List(c *gin.Context) {
	page, perPage := utils.PageParams(c.Query("page"), c.Query("per_page"), services.DefaultPerPage, services.MaxPerPage)
	filter := services.IdeaFilter{
		Search:     c.Query("search"),
		Tag:        c.Query("tag"),
		CategoryID: c.Query("category"),
		Status:     models.IdeaStatus(c.Query("status")),
		Sort:       services.ParseIdeaSort(c.Query("sort")),
		Page:       page,
		PerPage:    perPage,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		RespondError(c, services.Invalid("invalid status"))
		return
	}

	ideas, total, err := h.ideas.List(c.Request.Context(), filter)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.Header("X-Total-Count", strconv.Itoa(total))
	c.JSON(http.StatusOK, ideas)
}

func (h *IdeaHandler) Get(c *gin.Context) {
	idea, err := h.ideas.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, idea)
}

func (h *IdeaHandler) Create(c *gin.Context) {
	var req services.IdeaInput
	if !bindJSON(c, &req) {
		return
	}
	idea, err := h.ideas.Create(c.Request.Context(), currentUser(c), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, idea)
}

func (h *IdeaHandler) Update(c *gin.Context) {
	var req services.IdeaInput
	if !bindJSON(c, &req) {
		return
	}
	idea, err := h.ideas.Update(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, idea)
}

type statusRequest struct {
	Status models.IdeaStatus `json:"status"`
}

// UpdateStatus accepts the status in the body or as ?status=.
func (h *IdeaHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if c.Request.ContentLength > 0 {
		if !bindJSON(c, &req) {
			return
		}
	}
	if req.Status == "" {
		req.Status = models.IdeaStatus(c.Query("status"))
	}
	idea, err := h.ideas.SetStatus(c.Request.Context(), currentUser(c), c.Param("id"), req.Status)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, idea)
}

func (h *IdeaHandler) Delete(c *gin.Context) {
	if err := h.ideas.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AddAttachment stores the multipart "file" field and attaches it.
func (h *IdeaHandler) AddAttachment(c *gin.Context) {
	user := currentUser(c)
	ideaID := c.Param("id")

	// 先校验权限，避免无主文件
	idea, err := h.ideas.Get(c.Request.Context(), ideaID)
	if err != nil {
		RespondError(c, err)
		return
	}
	if !services.CanModify(user, idea.AuthorID) {
		RespondError(c, services.ErrForbidden)
		return
	}

	attachment, ok := storeUpload(c, h.uploads)
	if !ok {
		return
	}
	idea, err = h.ideas.Attach(c.Request.Context(), user, ideaID, attachment)
	if err != nil {
		if rmErr := h.uploads.Remove(c.Request.Context(), attachment.Name); rmErr != nil {
			log.Printf("Failed to remove orphaned upload %s: %v", attachment.Name, rmErr)
		}
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, idea)
}
