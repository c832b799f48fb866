package server

import (
	"net/http"
	"strings"

	catalogdomain "github.com/brightstack/coursekart/internal/catalog/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListProducts(c *gin.Context) {
	principal := currentPrincipal(c)

	req := catalogdomain.ListRequest{
		Category: strings.TrimSpace(c.Query("category")),
		Search:   strings.TrimSpace(c.Query("search")),
		SortBy:   c.DefaultQuery("sort_by", "created_at"),
		OrderBy:  c.DefaultQuery("order_by", "desc"),
	}
	// Admins may ask for archived products too.
	if principal.IsAdmin() && c.Query("include_all") == "true" {
		req.IncludeAll = true
	}

	products, err := s.catalogSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (s *Server) GetProduct(c *gin.Context) {
	product, err := s.catalogSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !product.Active && !currentPrincipal(c).IsAdmin() {
		AbortWithError(c, catalogdomain.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (s *Server) CreateProduct(c *gin.Context) {
	var req catalogdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	product, err := s.catalogSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"product": product})
}

func (s *Server) UpdateProduct(c *gin.Context) {
	var req catalogdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	product, err := s.catalogSvc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (s *Server) ArchiveProduct(c *gin.Context) {
	if err := s.catalogSvc.Archive(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
