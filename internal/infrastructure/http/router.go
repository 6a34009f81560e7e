package httpapi

import "github.com/gin-gonic/gin"

func NewRouter(handler *PaymentHandler) *gin.Engine {
	router := gin.Default()

	router.POST("/payments/:id/confirm", handler.Confirm)
	router.GET("/payments/:id/can-confirm", handler.CanConfirm)
	router.POST("/payments/:id/validate", handler.ValidateTransition)
	router.GET("/payments/:id/expiration", handler.Expiration)

	router.POST("/orders/:team_id/:order_id/confirm", handler.ConfirmByOrder)
	router.POST("/external/:payment_id/confirm", handler.ConfirmByExternalID)

	router.GET("/confirmable", handler.ConfirmablePayments)
	router.GET("/expiring", handler.ExpiringPayments)
	router.GET("/expired", handler.ExpiredPayments)
	router.POST("/expire", handler.ExpirePayments)

	router.POST("/queue/items", handler.Enqueue)
	router.GET("/queue/stats", handler.QueueStats)

	router.GET("/stats", handler.Stats)

	return router
}
