package handlers

import (
	"net/http"

	"agora/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	votes *services.VoteService
}

func NewVoteHandler(votes *services.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

type ideaVoteRequest struct {
	Action services.VoteAction `json:"action"`
}

type pollVoteRequest struct {
	Option string `json:"option"`
}

// VoteIdea handles up/down/remove on an idea
func (h *VoteHandler) VoteIdea(c *gin.Context) {
	var req ideaVoteRequest
	if !bindJSON(c, &req) {
		return
	}
	user := currentUser(c)
	idea, err := h.votes.VoteIdea(c.Request.Context(), user, c.Param("id"), req.Action)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"votes_up":   idea.VotesUp,
		"votes_down": idea.VotesDown,
		"user_vote":  idea.UserVotes.Data()[user.ID],
	})
}

func (h *VoteHandler) VotePoll(c *gin.Context) {
	var req pollVoteRequest
	if !bindJSON(c, &req) {
		return
	}
	poll, err := h.votes.VotePoll(c.Request.Context(), currentUser(c), c.Param("id"), req.Option)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, poll)
}
