package handlers

import (
	"net/http"

	"agora/internal/services"

	"github.com/gin-gonic/gin"
)

type PollHandler struct {
	polls *services.PollService
}

func NewPollHandler(polls *services.PollService) *PollHandler {
	return &PollHandler{polls: polls}
}

func (h *PollHandler) List(c *gin.Context) {
	polls, err := h.polls.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, polls)
}

func (h *PollHandler) Get(c *gin.Context) {
	poll, err := h.polls.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, poll)
}

func (h *PollHandler) Create(c *gin.Context) {
	var req services.PollInput
	if !bindJSON(c, &req) {
		return
	}
	poll, err := h.polls.Create(c.Request.Context(), currentUser(c), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, poll)
}

func (h *PollHandler) Delete(c *gin.Context) {
	if err := h.polls.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
