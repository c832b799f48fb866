package server

import (
	"net/http"
	"time"

	ledgerdomain "github.com/brightstack/coursekart/internal/ledger/domain"
	settlementdomain "github.com/brightstack/coursekart/internal/settlement/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type orderResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toOrderResponse(order *ledgerdomain.Order) orderResponse {
	resp := orderResponse{
		ID:        order.ID.String(),
		ProductID: order.ProductID.String(),
		Amount:    order.Amount,
		Currency:  order.Currency,
		Status:    order.Status,
		CreatedAt: order.CreatedAt,
	}
	if order.TransactionID != nil {
		resp.TransactionID = *order.TransactionID
	}
	return resp
}

type initiateOrderRequest struct {
	ProductID string `json:"product_id"`
}

func (s *Server) InitiateOrder(c *gin.Context) {
	var req initiateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	productID, err := parseProductID(req.ProductID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	intent, err := s.settlementSvc.InitiatePurchase(c.Request.Context(), currentPrincipal(c), productID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"checkout": intent})
}

func (s *Server) ClaimFreeOrder(c *gin.Context) {
	var req initiateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	productID, err := parseProductID(req.ProductID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	order, err := s.settlementSvc.ClaimFreeItem(c.Request.Context(), currentPrincipal(c), productID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "order": toOrderResponse(order)})
}

type confirmOrderRequest struct {
	ProductID     string `json:"product_id"`
	RemoteOrderID string `json:"remote_order_id"`
	PaymentID     string `json:"payment_id"`
	Signature     string `json:"signature"`
}

func (s *Server) ConfirmOrder(c *gin.Context) {
	var req confirmOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	productID, err := parseProductID(req.ProductID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	order, err := s.settlementSvc.ConfirmPurchase(c.Request.Context(), currentPrincipal(c), productID, settlementdomain.Confirmation{
		RemoteOrderID: req.RemoteOrderID,
		PaymentID:     req.PaymentID,
		Signature:     req.Signature,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "order": toOrderResponse(order)})
}

func (s *Server) ListOrders(c *gin.Context) {
	orders, err := s.settlementSvc.ListPurchases(c.Request.Context(), currentPrincipal(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

func parseProductID(raw string) (snowflake.ID, error) {
	if raw == "" {
		return 0, newValidationError("product_id", "invalid_product_id", "product id is required")
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, newValidationError("product_id", "invalid_product_id", "invalid product id")
	}
	return id, nil
}
