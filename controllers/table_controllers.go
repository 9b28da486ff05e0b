package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/services"
	"github.com/yeremiapane/restaurant-floor/utils"
)

type TableController struct {
	Floor *services.Floor
}

func NewTableController(floor *services.Floor) *TableController {
	return &TableController{Floor: floor}
}

// GetAllTables -> every table, ordered by id
func (tc *TableController) GetAllTables(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "List of tables", tc.Floor.Tables())
}

func (tc *TableController) GetTable(c *gin.Context) {
	id, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	table, err := tc.Floor.Table(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// CreateTable -> adds a table numbered after the highest existing one
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		Capacity int `json:"capacity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Floor.AddTable(c.Request.Context(), actorFrom(c), req.Capacity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

func (tc *TableController) DeleteTable(c *gin.Context) {
	id, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	if err := tc.Floor.DeleteTable(c.Request.Context(), actorFrom(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table deleted successfully", nil)
}

// UpdateTableStatus -> manual toggle between available and reserved
func (tc *TableController) UpdateTableStatus(c *gin.Context) {
	id, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	var body struct {
		Status models.TableStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Floor.SetTableStatus(c.Request.Context(), actorFrom(c), id, body.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table status updated", table)
}

func (tc *TableController) MergeTables(c *gin.Context) {
	var body struct {
		TableIDs []uint `json:"table_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	primary, err := tc.Floor.MergeTables(c.Request.Context(), actorFrom(c), body.TableIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Tables merged", primary)
}

func (tc *TableController) UnmergeTables(c *gin.Context) {
	id, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	res, err := tc.Floor.UnmergeTables(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Tables unmerged", res)
}

func (tc *TableController) SplitTable(c *gin.Context) {
	id, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	var body struct {
		Capacity int `json:"capacity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	res, err := tc.Floor.SplitTable(c.Request.Context(), actorFrom(c), id, body.Capacity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table split", res)
}

// GetTableOrders -> orders of a table; ?active=true returns only the seated one
func (tc *TableController) GetTableOrders(c *gin.Context) {
	id, ok := paramID(c, "table_id")
	if !ok {
		return
	}

	if c.Query("active") == "true" {
		order, err := tc.Floor.ActiveOrder(id)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Active order", order)
		return
	}

	orders, err := tc.Floor.OrdersForTable(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

func (tc *TableController) GetTableHistory(c *gin.Context) {
	id, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	history, err := tc.Floor.History(c.Request.Context(), models.EntityTable, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Status history", history)
}
