package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/services"
	"github.com/yeremiapane/restaurant-floor/utils"
)

type OrderController struct {
	Floor *services.Floor
}

func NewOrderController(floor *services.Floor) *OrderController {
	return &OrderController{Floor: floor}
}

// GetAllOrders -> optional ?status= and ?table_id= filters
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	filter := services.OrderFilter{Status: models.OrderStatus(c.Query("status"))}
	if raw := c.Query("table_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		tableID := uint(id)
		filter.TableID = &tableID
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", oc.Floor.Orders(filter))
}

func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	order, err := oc.Floor.Order(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// CreateOrder -> dine-in when table_id is given, takeaway otherwise
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req services.NewOrder
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	res, err := oc.Floor.PlaceOrder(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created successfully", res)
}

func (oc *OrderController) AddItems(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	var body struct {
		Items []services.ItemRequest `json:"items" binding:"required,dive"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Floor.AddItems(c.Request.Context(), actorFrom(c), id, body.Items)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Items added", order)
}

// AdjustItem -> changes a line's quantity by delta; reaching zero removes it
func (oc *OrderController) AdjustItem(c *gin.Context) {
	orderID, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	itemID, ok := paramID(c, "item_id")
	if !ok {
		return
	}
	var body struct {
		Delta int `json:"delta"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Floor.AdjustItem(c.Request.Context(), actorFrom(c), orderID, itemID, body.Delta)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item updated", order)
}

func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	var body struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Floor.AdvanceOrder(c.Request.Context(), actorFrom(c), id, body.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

func (oc *OrderController) CancelOrder(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	res, err := oc.Floor.CancelOrder(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, withWarnings("Order cancelled", res.Warnings), res)
}

func (oc *OrderController) GetOrderHistory(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	history, err := oc.Floor.History(c.Request.Context(), models.EntityOrder, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Status history", history)
}

func withWarnings(message string, warnings []string) string {
	if len(warnings) == 0 {
		return message
	}
	return message + " with warnings"
}
