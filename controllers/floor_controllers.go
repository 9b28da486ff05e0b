package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-floor/services"
	"github.com/yeremiapane/restaurant-floor/utils"
)

type FloorController struct {
	Floor *services.Floor
}

func NewFloorController(floor *services.Floor) *FloorController {
	return &FloorController{Floor: floor}
}

// GetSummary -> dashboard counts for today
func (fc *FloorController) GetSummary(c *gin.Context) {
	summary := fc.Floor.Summary(time.Now())
	utils.RespondJSON(c, http.StatusOK, "Floor summary", gin.H{
		"summary":         summary,
		"revenue_display": utils.FormatCurrencyIDR(summary.RevenueToday),
	})
}

// CheckFloor -> cross-entity consistency report
func (fc *FloorController) CheckFloor(c *gin.Context) {
	violations := fc.Floor.CheckInvariants()
	if len(violations) == 0 {
		utils.RespondJSON(c, http.StatusOK, "Floor is consistent", []services.Violation{})
		return
	}
	utils.InfoLogger.Warnf("floor check found %d inconsistencies", len(violations))
	utils.RespondJSON(c, http.StatusOK, fmt.Sprintf("Floor has %d inconsistencies", len(violations)), violations)
}

// ReloadFloor -> re-reads every store from the database
func (fc *FloorController) ReloadFloor(c *gin.Context) {
	if err := fc.Floor.Reload(c.Request.Context(), actorFrom(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Floor reloaded", nil)
}
