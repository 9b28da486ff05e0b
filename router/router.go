package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-floor/controllers"
	"github.com/yeremiapane/restaurant-floor/kds"
	"github.com/yeremiapane/restaurant-floor/middlewares"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/services"
)

type Deps struct {
	Floor   *services.Floor
	Catalog controllers.MenuReader
	Hub     *kds.Hub

	JWTSecret      []byte
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

func SetupRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Apply security middlewares
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(deps.CORSOrigins))
	if deps.RateLimitRPS > 0 {
		r.Use(middlewares.NewRateLimiter(deps.RateLimitRPS, deps.RateLimitBurst).RateLimit())
	}

	tableCtrl := controllers.NewTableController(deps.Floor)
	orderCtrl := controllers.NewOrderController(deps.Floor)
	paymentCtrl := controllers.NewPaymentController(deps.Floor)
	floorCtrl := controllers.NewFloorController(deps.Floor)
	menuCtrl := controllers.NewMenuController(deps.Catalog)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware(deps.JWTSecret))

	// MENU (read only, maintained by the back office)
	auth.GET("/menus", menuCtrl.GetAllMenus)
	auth.GET("/menus/:menu_id", menuCtrl.GetMenuByID)

	// TABLES
	auth.GET("/tables", tableCtrl.GetAllTables)
	auth.POST("/tables", tableCtrl.CreateTable)
	auth.POST("/tables/merge", tableCtrl.MergeTables)
	auth.GET("/tables/:table_id", tableCtrl.GetTable)
	auth.DELETE("/tables/:table_id", tableCtrl.DeleteTable)
	auth.PATCH("/tables/:table_id/status", tableCtrl.UpdateTableStatus)
	auth.POST("/tables/:table_id/split", tableCtrl.SplitTable)
	auth.POST("/tables/:table_id/unmerge", tableCtrl.UnmergeTables)
	auth.GET("/tables/:table_id/orders", tableCtrl.GetTableOrders)
	auth.GET("/tables/:table_id/history", tableCtrl.GetTableHistory)

	// ORDERS
	auth.GET("/orders", orderCtrl.GetAllOrders)
	auth.POST("/orders", orderCtrl.CreateOrder)
	auth.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	auth.POST("/orders/:order_id/items", orderCtrl.AddItems)
	auth.PATCH("/orders/:order_id/items/:item_id", orderCtrl.AdjustItem)
	auth.PATCH("/orders/:order_id/status", orderCtrl.UpdateOrderStatus)
	auth.POST("/orders/:order_id/cancel", orderCtrl.CancelOrder)
	auth.GET("/orders/:order_id/history", orderCtrl.GetOrderHistory)
	auth.GET("/orders/:order_id/payment", paymentCtrl.GetOrderPayment)

	// PAYMENTS
	auth.GET("/payments", paymentCtrl.GetAllPayments)
	payGroup := auth.Group("/orders/:order_id/payments")
	payGroup.Use(
		middlewares.PaymentSecurityHeaders(),
		middlewares.PaymentRateLimiter(5, 10),
		middlewares.LogPaymentRequest(),
	)
	{
		payGroup.POST("", paymentCtrl.CreatePayment)
	}

	// FLOOR
	auth.GET("/floor/summary", floorCtrl.GetSummary)
	auth.GET("/floor/check", middlewares.RoleCheck(models.RoleStaff), floorCtrl.CheckFloor)
	auth.POST("/floor/reload", middlewares.RoleCheck(), floorCtrl.ReloadFloor)
	if deps.Hub != nil {
		auth.GET("/floor/ws", deps.Hub.Handler)
	}

	return r
}
