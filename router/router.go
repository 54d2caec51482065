package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tablemate/dinein-backend/config"
	"github.com/tablemate/dinein-backend/controllers"
	"github.com/tablemate/dinein-backend/events"
	"github.com/tablemate/dinein-backend/middlewares"
)

func SetupRouter(db *gorm.DB, hub *events.Hub, cfg config.Config, limiter *middlewares.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(limiter.RateLimit())

	userCtrl := controllers.NewUserController(db, cfg)
	menuCtrl := controllers.NewMenuController(db)
	cartCtrl := controllers.NewCartController(db)
	orderCtrl := controllers.NewOrderController(db, hub)
	wsCtrl := controllers.NewWSController(hub)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	public := r.Group("/api/user")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}
	if cfg.AllowGuestOrders {
		r.POST("/api/user/guest", userCtrl.GuestSession)
	}

	r.GET("/api/menu/list", menuCtrl.GetAllMenus)
	r.GET("/api/menu/:menu_id", menuCtrl.GetMenuByID)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/api")
	auth.Use(middlewares.AuthMiddleware(cfg.AllowGuestOrders))

	auth.GET("/user/profile", userCtrl.GetProfile)

	// CART (owner: customer or guest)
	auth.POST("/cart/get", cartCtrl.GetCart)
	auth.POST("/cart/add", cartCtrl.AddToCart)
	auth.POST("/cart/remove", cartCtrl.RemoveFromCart)
	auth.POST("/cart/clear", cartCtrl.ClearCart)
	auth.POST("/cart/merge", cartCtrl.MergeCart)

	// ORDERS (owner)
	auth.POST("/order/place", orderCtrl.PlaceOrder)
	auth.GET("/order/outstanding", orderCtrl.GetOutstanding)
	auth.POST("/order/payrequest", orderCtrl.RequestPay)
	auth.GET("/order/user", orderCtrl.UserOrders)
	auth.GET("/order/user/by-date", orderCtrl.UserOrders)

	// ORDERS (admin/staff)
	staff := auth.Group("/order")
	staff.Use(middlewares.RequireRoles("admin", "staff", "kitchen"))
	{
		staff.GET("/list", orderCtrl.ListOrders)
		staff.POST("/updatestatus", orderCtrl.UpdateStatus)
	}
	admin := auth.Group("/order")
	admin.Use(middlewares.RequireRoles("admin", "staff"))
	{
		admin.POST("/markpaid", orderCtrl.MarkPaid)
		admin.POST("/merge", orderCtrl.MergeSession)
		admin.POST("/verify", orderCtrl.VerifyOrder)
	}

	// MENUS (admin)
	menuAdmin := auth.Group("/menu")
	menuAdmin.Use(middlewares.RequireRoles("admin"))
	{
		menuAdmin.POST("", menuCtrl.CreateMenu)
		menuAdmin.PATCH("/:menu_id", menuCtrl.UpdateMenu)
	}

	// Dynamic route last so it cannot shadow the fixed order routes.
	auth.GET("/order/:order_id", orderCtrl.GetOrderByID)

	// ----------------------------------------------------------------
	//                      EVENT SUBSCRIPTION
	// ----------------------------------------------------------------
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware(cfg.AllowGuestOrders))
	{
		wsGroup.GET("", wsCtrl.Subscribe)
	}

	return r
}
