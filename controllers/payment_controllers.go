package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-floor/services"
	"github.com/yeremiapane/restaurant-floor/utils"
)

type PaymentController struct {
	Floor *services.Floor
}

func NewPaymentController(floor *services.Floor) *PaymentController {
	return &PaymentController{Floor: floor}
}

// GetAllPayments
func (pc *PaymentController) GetAllPayments(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "All payments", pc.Floor.Payments())
}

// CreatePayment -> settles an order in full and frees its table
func (pc *PaymentController) CreatePayment(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	var req services.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	res, err := pc.Floor.Pay(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, withWarnings("Payment recorded", res.Warnings), res)
}

func (pc *PaymentController) GetOrderPayment(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	payment, err := pc.Floor.PaymentForOrder(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment detail", payment)
}
