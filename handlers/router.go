package handlers

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 設置贈品規則與購物車路由
func RegisterRoutes(r *gin.Engine, giftRuleHandler *GiftRuleHandler, cartHandler *CartHandler, jwtSecret []byte) {
	api := r.Group("")
	api.Use(SessionMiddleware(jwtSecret))

	giftRuleRoutes := api.Group("/gift-rules")
	giftRuleRoutes.Use(RequireAdmin())
	{
		giftRuleRoutes.GET("", giftRuleHandler.ListGiftRules)
		giftRuleRoutes.POST("", giftRuleHandler.CreateGiftRule)
		giftRuleRoutes.POST("/reorder", giftRuleHandler.ReorderGiftRules)
		giftRuleRoutes.POST("/status", giftRuleHandler.UpdateStatus)
		giftRuleRoutes.GET("/:id", giftRuleHandler.GetGiftRule)
		giftRuleRoutes.PUT("/:id", giftRuleHandler.UpdateGiftRule)
		giftRuleRoutes.DELETE("/:id", giftRuleHandler.DeleteGiftRule)
	}

	cartRoutes := api.Group("/carts")
	{
		cartRoutes.POST("", cartHandler.CreateCart)
		cartRoutes.GET("/:id", cartHandler.GetCart)
		cartRoutes.POST("/:id/items", cartHandler.AddItem)
		cartRoutes.PATCH("/:id/items/:itemId", cartHandler.UpdateItem)
		cartRoutes.DELETE("/:id/items/:itemId", cartHandler.RemoveItem)
		cartRoutes.POST("/:id/complete", cartHandler.CompleteOrder)
	}
}
