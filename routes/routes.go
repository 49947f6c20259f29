package routes

import (
	"github.com/gin-gonic/gin"

	"pos-service/controllers"
)

// Controllers groups every handler the router exposes.
type Controllers struct {
	Products     *controllers.ProductController
	Listing      *controllers.ListingStreamHandler
	BulkImport   *controllers.BulkImportHandler
	Sale         *controllers.SaleController
	Transactions *controllers.TransactionController
	Dashboard    *controllers.DashboardController
	Auth         *controllers.AuthController
}

// RegisterRoutes mounts all authenticated routes behind authMiddleware.
func RegisterRoutes(r *gin.Engine, authMiddleware gin.HandlerFunc, ctl Controllers) {
	api := r.Group("/", authMiddleware)

	authRoutes := api.Group("/auth")
	{
		authRoutes.GET("/me", ctl.Auth.Me)
		authRoutes.POST("/signout", ctl.Auth.SignOut)
	}

	productRoutes := api.Group("/products")
	{
		productRoutes.GET("", ctl.Products.GetProducts)
		productRoutes.GET("/stream", ctl.Listing.Stream)
		productRoutes.POST("", ctl.Products.CreateProduct)
		productRoutes.POST("/import", ctl.BulkImport.ImportProducts)
		productRoutes.GET("/import/state", ctl.BulkImport.GetImportState)
		productRoutes.DELETE("/import/state", ctl.BulkImport.DismissImportState)
		productRoutes.GET("/:id", ctl.Products.GetProductByID)
		productRoutes.PUT("/:id", ctl.Products.UpdateProduct)
		productRoutes.DELETE("/:id", ctl.Products.DeleteProduct)
	}

	saleRoutes := api.Group("/sale")
	{
		saleRoutes.GET("", ctl.Sale.GetCart)
		saleRoutes.POST("/select", ctl.Sale.SelectProduct)
		saleRoutes.POST("/quantity/increment", ctl.Sale.IncrementQuantity)
		saleRoutes.POST("/quantity/decrement", ctl.Sale.DecrementQuantity)
		saleRoutes.POST("/items", ctl.Sale.AddItem)
		saleRoutes.DELETE("/items/:index", ctl.Sale.RemoveItem)
		saleRoutes.POST("/checkout", ctl.Sale.Checkout)
	}

	api.GET("/transactions", ctl.Transactions.GetTransactions)
	api.GET("/dashboard", ctl.Dashboard.GetSummary)
}
