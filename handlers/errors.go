package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"gift_with_purchase/services"

	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrGiftRuleNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrLineItemNotFound),
		errors.Is(err, services.ErrPurchasableNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrOrderCompleted),
		errors.Is(err, services.ErrGiftLineItemReadOnly):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidQty),
		errors.Is(err, services.ErrGiftRuleNameRequired),
		errors.Is(err, services.ErrGiftPurchasableNeeded),
		errors.Is(err, services.ErrGiftQtyTooSmall),
		errors.Is(err, services.ErrInvalidDateRange),
		errors.Is(err, services.ErrInvalidSubtotalRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
