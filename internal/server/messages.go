package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	messagedomain "github.com/canteenhq/canteend/internal/message/domain"
)

func parseID(c *gin.Context, name string) (snowflake.ID, bool) {
	raw, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return 0, false
	}
	return snowflake.ID(raw), true
}

// GetProcessingStates returns the persisted state transitions of one message
// run in insertion order, for operator replay.
func (s *Server) GetProcessingStates(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	states, err := s.messages.ListStates(c.Request.Context(), s.db, id)
	if err != nil {
		s.log.Error("list states failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": states})
}

// RequeueMessage clears the processed flag so the intake loop picks the
// message up again on its next cycle.
func (s *Server) RequeueMessage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	err := s.messages.Requeue(c.Request.Context(), s.db, id)
	if errors.Is(err, messagedomain.ErrMessageNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "message_not_found"})
		return
	}
	if err != nil {
		s.log.Error("requeue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
