package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-floor/apperror"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/utils"
)

// actorFrom reads the identity the auth middleware put on the context.
func actorFrom(c *gin.Context) models.Actor {
	return models.Actor{
		UserID: c.GetUint("user_id"),
		Role:   c.GetString("role"),
	}
}

// paramID parses a numeric path parameter, answering 400 when it is not one.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

// respondServiceError maps an error from the floor to its HTTP answer.
func respondServiceError(c *gin.Context, err error) {
	fields := logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}

	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		utils.RespondError(c, http.StatusBadRequest, err)
	case apperror.KindConflict:
		utils.RespondErrorData(c, http.StatusConflict, err, apperror.CurrentOf(err))
	case apperror.KindNotFound:
		utils.RespondError(c, http.StatusNotFound, err)
	case apperror.KindForbidden:
		utils.RespondError(c, http.StatusForbidden, err)
	case apperror.KindState:
		utils.ErrorLogger.WithFields(fields).Errorf("illegal transition: %v", err)
		utils.RespondError(c, http.StatusUnprocessableEntity, errors.New("this action is not allowed in the current state"))
	case apperror.KindUnavailable:
		utils.ErrorLogger.WithFields(fields).Errorf("store unavailable: %v", err)
		c.Header("Retry-After", "1")
		utils.RespondError(c, http.StatusServiceUnavailable, errors.New("store unavailable, please retry"))
	case apperror.KindReconciliation:
		utils.ErrorLogger.WithFields(fields).Errorf("reconciliation needed: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
	default:
		utils.ErrorLogger.WithFields(fields).Errorf("unexpected error: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
	}
}
