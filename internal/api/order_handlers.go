package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func (s *Server) getCart(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		writeError(c, domain.ErrUnauthorized)
		return
	}

	order, err := s.cart.ActiveCart(c.Request.Context(), user)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (s *Server) addItem(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		writeError(c, domain.ErrUnauthorized)
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	order, err := s.cart.AddItem(c.Request.Context(), user, req.ProductID, req.Qty)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (s *Server) checkoutCart(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		writeError(c, domain.ErrUnauthorized)
		return
	}

	order, err := s.checkout.Checkout(c.Request.Context(), user)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (s *Server) payOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		writeError(c, domain.ErrUnauthorized)
		return
	}

	order, reference, err := s.payments.Pay(c.Request.Context(), user, c.Param("order_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentResponse{Order: toOrderResponse(order), Reference: reference})
}

func (s *Server) listMyOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		writeError(c, domain.ErrUnauthorized)
		return
	}

	result, err := s.queries.ListMine(c.Request.Context(), user)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponses(result))
}

func (s *Server) getOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		writeError(c, domain.ErrUnauthorized)
		return
	}

	order, err := s.queries.Get(c.Request.Context(), user, c.Param("order_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (s *Server) getTimeline(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		writeError(c, domain.ErrUnauthorized)
		return
	}

	events, err := s.queries.Timeline(c.Request.Context(), user, c.Param("order_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTimelineResponses(events))
}

func (s *Server) listAllOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		writeError(c, domain.ErrUnauthorized)
		return
	}

	result, err := s.queries.ListAll(c.Request.Context(), user)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponses(result))
}
