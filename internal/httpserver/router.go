package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jsalmeida/ecommerce-api/internal/middleware"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	UserHandler    *UserHTTP
	CatalogHandler *CatalogHTTP
	CartHandler    *CartHTTP
	SessionAuth    *middleware.SessionAuth
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "API up") })
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	requireSession := d.SessionAuth.RequireSession

	e.POST("/login", d.AuthHandler.Login)
	e.POST("/logout", d.AuthHandler.Logout, requireSession)

	users := e.Group("/api/user")
	users.POST("/add", d.UserHandler.AddUser)
	users.DELETE("/delete/:id", d.UserHandler.DeleteUser, requireSession)
	users.PUT("/update/:id", d.UserHandler.UpdateUser, requireSession)

	products := e.Group("/api/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/search", d.CatalogHandler.SearchProducts)
	products.GET("/:id", d.CatalogHandler.GetProduct)
	products.POST("/add", d.CatalogHandler.AddProduct, requireSession)
	products.PUT("/update/:id", d.CatalogHandler.UpdateProduct, requireSession)
	products.DELETE("/delete/:id", d.CatalogHandler.DeleteProduct, requireSession)

	cart := e.Group("/api/cart", requireSession)
	cart.GET("", d.CartHandler.ViewCart)
	cart.POST("/add/:productId", d.CartHandler.AddToCart)
	cart.DELETE("/remove/:productId", d.CartHandler.RemoveFromCart)
	cart.POST("/checkout", d.CartHandler.Checkout)
}
