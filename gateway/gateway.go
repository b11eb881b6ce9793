package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/pizzashop/pkg/auth"
	"github.com/example/pizzashop/pkg/cart"
	"github.com/example/pizzashop/pkg/config"
	"github.com/example/pizzashop/pkg/fault"
	"github.com/example/pizzashop/pkg/models"
	"github.com/example/pizzashop/pkg/order"
	"github.com/example/pizzashop/pkg/session"
)

// Gateway is the storefront's only external boundary: a JSON HTTP surface
// for the browser UI.
type Gateway struct {
	config   *config.Config
	logger   *zap.Logger
	router   *gin.Engine
	sess     *session.Context
	auth     *auth.Service
	cart     *cart.Cart
	placer   *order.Placer
	observer *order.Observer
	applier  *order.Applier
}

func New(cfg *config.Config, logger *zap.Logger, sess *session.Context, authSvc *auth.Service,
	c *cart.Cart, placer *order.Placer, observer *order.Observer, applier *order.Applier) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	return &Gateway{
		config:   cfg,
		logger:   logger,
		router:   router,
		sess:     sess,
		auth:     authSvc,
		cart:     c,
		placer:   placer,
		observer: observer,
		applier:  applier,
	}
}

func (g *Gateway) SetupRoutes() {
	// Health check
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := g.router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/signup", g.signUp)
			authGroup.POST("/signin", g.signIn)
			authGroup.POST("/admin", g.signInAsAdmin)
			authGroup.POST("/signout", g.signOut)
			authGroup.GET("/me", g.me)
		}

		v1.GET("/catalog/toppings", g.listToppings)

		cartGroup := v1.Group("/cart")
		{
			cartGroup.GET("", g.getCart)
			cartGroup.POST("/items", g.addCartItem)
			cartGroup.DELETE("/items/:index", g.removeCartItem)
			cartGroup.DELETE("", g.clearCart)
		}

		v1.POST("/orders", g.placeOrder)
		v1.GET("/orders", g.listOwnOrders)

		adminGroup := v1.Group("/admin", g.requireAdmin)
		{
			adminGroup.GET("/orders", g.listAllOrders)
			adminGroup.POST("/orders/status", g.updateOrderStatus)
		}
	}
}

func (g *Gateway) Start() error {
	addr := fmt.Sprintf("%s:%d", g.config.Server.Host, g.config.Server.Port)
	g.logger.Info("Gateway starting", zap.String("address", addr))
	return g.router.Run(addr)
}

// Router exposes the configured engine for tests.
func (g *Gateway) Router() http.Handler {
	return g.router
}

type credentialsRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName"`
}

func (g *Gateway) signUp(c *gin.Context) {
	var req credentialsRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	identity, err := g.auth.SignUp(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		g.renderAuthError(c, err)
		return
	}
	c.JSON(http.StatusCreated, identity)
}

func (g *Gateway) signIn(c *gin.Context) {
	var req credentialsRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	identity, err := g.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		g.renderAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, identity)
}

func (g *Gateway) signInAsAdmin(c *gin.Context) {
	identity, err := g.auth.SignInAsAdmin(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, identity)
}

func (g *Gateway) signOut(c *gin.Context) {
	if err := g.auth.SignOut(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (g *Gateway) me(c *gin.Context) {
	identity := g.sess.Identity()
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}
	c.JSON(http.StatusOK, identity)
}

func (g *Gateway) listToppings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"toppings": models.Toppings()})
}

func (g *Gateway) getCart(c *gin.Context) {
	items := g.cart.Items()
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": models.CartTotal(items),
	})
}

type addItemRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       int64          `json:"price"`
	Toppings    map[string]int `json:"toppings"`
}

func (g *Gateway) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var item models.CartItem
	if req.Name == "" {
		// A bare topping selection is a custom pizza priced from the catalog.
		item = models.NewCustomPizza(req.Toppings, time.Now())
	} else {
		item = models.CartItem{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Toppings:    req.Toppings,
		}
	}

	if err := g.cart.AddItem(c.Request.Context(), item); err != nil {
		if errors.Is(err, fault.ErrUnauthenticated) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "please sign in first"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"items": g.cart.Items(), "total": g.cart.Total()})
}

func (g *Gateway) removeCartItem(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
		return
	}
	g.cart.RemoveItem(c.Request.Context(), index)
	c.JSON(http.StatusOK, gin.H{"items": g.cart.Items(), "total": g.cart.Total()})
}

func (g *Gateway) clearCart(c *gin.Context) {
	g.cart.Clear(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (g *Gateway) placeOrder(c *gin.Context) {
	orderID, err := g.placer.Place(c.Request.Context(), g.sess.Identity(), g.cart.Items())
	if err != nil {
		switch {
		case errors.Is(err, fault.ErrUnauthenticated):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "please sign in first"})
		case errors.Is(err, fault.ErrEmptyCart):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "cart is empty"})
		case errors.Is(err, fault.ErrRemoteWrite):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"orderId": orderID})
}

func (g *Gateway) listOwnOrders(c *gin.Context) {
	orders := g.observer.Own()
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": len(orders)})
}

func (g *Gateway) requireAdmin(c *gin.Context) {
	identity := g.sess.Identity()
	if identity == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}
	if !identity.IsAdmin() {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return
	}
	c.Next()
}

func (g *Gateway) listAllOrders(c *gin.Context) {
	orders := g.observer.All()
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": len(orders)})
}

type statusRequest struct {
	DocumentPath string `json:"documentPath" binding:"required"`
	Status       string `json:"status" binding:"required"`
}

func (g *Gateway) updateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var target *models.Order
	for _, ord := range g.observer.All() {
		if ord.DocPath == req.DocumentPath {
			o := ord
			target = &o
			break
		}
	}
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}

	if err := g.applier.Transition(c.Request.Context(), *target, req.Status); err != nil {
		switch {
		case errors.Is(err, fault.ErrNotPending):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, fault.ErrMissingReference):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, fault.ErrRemoteWrite):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (g *Gateway) renderAuthError(c *gin.Context, err error) {
	switch fault.AuthKindOf(err) {
	case fault.AuthInvalidEmail, fault.AuthWeakPassword:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case fault.AuthEmailInUse:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case fault.AuthUserNotFound, fault.AuthWrongPassword:
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
