package api

import (
	log "github.com/sirupsen/logrus"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/service/orders"
	"github.com/vladislavdragonenkov/storefront/internal/service/payment"
)

// Server собирает HTTP-слой магазина поверх сервисов жизненного цикла заказа.
type Server struct {
	cart        *cart.Manager
	checkout    *checkout.Coordinator
	payments    *payment.Processor
	queries     *orders.Queries
	catalog     *catalog.Service
	identity    domain.IdentityProvider
	idempotency domain.IdempotencyRepository
	logger      *log.Entry
}

// NewServer создаёт HTTP-сервер. idempotency может быть nil — тогда
// заголовок Idempotency-Key игнорируется.
func NewServer(
	cartManager *cart.Manager,
	checkoutCoordinator *checkout.Coordinator,
	paymentProcessor *payment.Processor,
	orderQueries *orders.Queries,
	catalogService *catalog.Service,
	identity domain.IdentityProvider,
	idempotency domain.IdempotencyRepository,
	logger *log.Entry,
) *Server {
	if logger == nil {
		logger = log.WithField("component", "http_server")
	}
	return &Server{
		cart:        cartManager,
		checkout:    checkoutCoordinator,
		payments:    paymentProcessor,
		queries:     orderQueries,
		catalog:     catalogService,
		identity:    identity,
		idempotency: idempotency,
		logger:      logger,
	}
}

// Routes возвращает роутер со всеми эндпоинтами магазина.
func (s *Server) Routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger))

	authorized := router.Group("/", s.authMiddleware())

	authorized.GET("/products", s.listProducts)
	authorized.GET("/products/:product_id", s.getProduct)

	authorized.GET("/cart", s.getCart)
	authorized.POST("/cart/add", s.addItem)
	authorized.POST("/checkout", s.idempotencyMiddleware(), s.checkoutCart)
	authorized.POST("/payments/:order_id", s.idempotencyMiddleware(), s.payOrder)

	authorized.GET("/orders/me", s.listMyOrders)
	authorized.GET("/orders/:order_id", s.getOrder)
	authorized.GET("/orders/:order_id/timeline", s.getTimeline)

	admin := authorized.Group("/admin", requireAdmin())
	admin.GET("/orders", s.listAllOrders)
	admin.POST("/products", s.createProduct)
	admin.PUT("/products/:product_id", s.updateProduct)

	return router
}
