package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type effectiveMonthQuery struct {
	Year  int `form:"year" binding:"required"`
	Month int `form:"month" binding:"required"`
}

type effectiveCell struct {
	Day    string `json:"day"`
	MealID int64  `json:"meal_id"`
	Status string `json:"status"`
}

// GetEffectiveMonth resolves one target's month across the group hierarchy.
// Cells without ledger activity are omitted; the UI renders them as present.
func (s *Server) GetEffectiveMonth(c *gin.Context) {
	target, ok := parseID(c, "target")
	if !ok {
		return
	}
	var query effectiveMonthQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_query"})
		return
	}
	if query.Month < 1 || query.Month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_month"})
		return
	}

	statuses, err := s.resolver.MonthStatuses(c.Request.Context(), s.db, target, query.Year, time.Month(query.Month))
	if err != nil {
		s.log.Error("month resolution failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}

	cells := make([]effectiveCell, len(statuses))
	for i, status := range statuses {
		cells[i] = effectiveCell{
			Day:    status.Day.Format("2006-01-02"),
			MealID: int64(status.MealID),
			Status: string(status.Status),
		}
	}
	c.JSON(http.StatusOK, gin.H{"data": cells})
}
