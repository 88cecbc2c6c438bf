package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chaintrack/backend/internal/ledger"
	"github.com/chaintrack/backend/internal/model"
	"github.com/chaintrack/backend/internal/repository"
	"github.com/chaintrack/backend/internal/service"
	"github.com/chaintrack/backend/internal/store"
)

// ProductController handles HTTP requests for product operations.
type ProductController struct {
	productService *service.ProductService
}

// NewProductController creates a new ProductController with the given product service.
func NewProductController(productService *service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// RegisterProductRequest represents the request body for registering a product.
type RegisterProductRequest struct {
	Name         string `json:"name" binding:"required"`
	Manufacturer string `json:"manufacturer" binding:"required"`
	Origin       string `json:"origin" binding:"required"`
	Description  string `json:"description"`
}

// ProductResponse represents the response body for a mirrored product.
type ProductResponse struct {
	DocumentID   string `json:"document_id"`
	LedgerID     string `json:"ledger_id"`
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	Origin       string `json:"origin"`
	Description  string `json:"description"`
	Status       string `json:"status"`
	OwnerAddress string `json:"owner_address"`
	DataHash     string `json:"data_hash"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// RegisterProductResponse carries the mirrored product plus its on-chain receipt.
type RegisterProductResponse struct {
	Product     ProductResponse `json:"product"`
	TxHash      string          `json:"tx_hash"`
	BlockNumber uint64          `json:"block_number"`
	GasUsed     uint64          `json:"gas_used"`
	Mirrored    bool            `json:"mirrored"`
}

// RegisterProduct handles the HTTP POST request for registering a new product.
func (pc *ProductController) RegisterProduct(c *gin.Context) {
	var req RegisterProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := pc.productService.Register(c.Request.Context(), service.RegisterInput{
		Name:         req.Name,
		Manufacturer: req.Manufacturer,
		Origin:       req.Origin,
		Description:  req.Description,
	})
	if err != nil {
		respondError(c, err, "failed to register product")
		return
	}

	c.JSON(http.StatusCreated, RegisterProductResponse{
		Product:     toProductResponse(result.Product),
		TxHash:      result.TxHash,
		BlockNumber: result.BlockNumber,
		GasUsed:     result.GasUsed,
		Mirrored:    result.Mirrored,
	})
}

// ProductViewResponse represents the merged ledger + store read model.
type ProductViewResponse struct {
	ProductResponse

	BlockchainDataAvailable bool   `json:"blockchain_data_available"`
	IsVerified              bool   `json:"is_verified"`
	ComputedHash            string `json:"computed_hash"`
	LedgerDataHash          string `json:"ledger_data_hash,omitempty"`
	CreateTime              string `json:"create_time,omitempty"`
	UpdateTime              string `json:"update_time,omitempty"`
}

// GetProduct handles the HTTP GET request for fetching a product by ledger id.
func (pc *ProductController) GetProduct(c *gin.Context) {
	view, err := pc.productService.Fetch(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to fetch product")
		return
	}

	c.JSON(http.StatusOK, toProductViewResponse(view))
}

// TransferProductRequest represents the request body for an ownership transfer.
type TransferProductRequest struct {
	To string `json:"to" binding:"required"`
}

// TransferProduct handles the HTTP POST request for transferring ownership.
func (pc *ProductController) TransferProduct(c *gin.Context) {
	var req TransferProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := pc.productService.Transfer(c.Request.Context(), c.Param("id"), req.To)
	if err != nil {
		respondError(c, err, "failed to transfer product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tx_hash":   result.TxHash,
		"new_owner": result.NewOwner,
		"mirrored":  result.Mirrored,
	})
}

// UpdateProductRequest represents the request body for a field-merge update.
type UpdateProductRequest struct {
	Name         *string `json:"name"`
	Manufacturer *string `json:"manufacturer"`
	Origin       *string `json:"origin"`
	Description  *string `json:"description"`
	Status       *string `json:"status"`
}

// UpdateProduct handles the HTTP PATCH request for updating product fields.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := pc.productService.Update(c.Request.Context(), c.Param("id"), service.UpdateInput{
		Name:         req.Name,
		Manufacturer: req.Manufacturer,
		Origin:       req.Origin,
		Description:  req.Description,
		Status:       req.Status,
	})
	if err != nil {
		respondError(c, err, "failed to update product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tx_hash":   result.TxHash,
		"data_hash": result.DataHash,
		"mirrored":  result.Mirrored,
	})
}

// VerifyProduct handles the HTTP GET request for public hash verification.
func (pc *ProductController) VerifyProduct(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}

	result, err := pc.productService.Verify(c.Request.Context(), id, c.Query("hash"))
	if err != nil {
		respondError(c, err, "failed to verify product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ledger_id":                 result.LedgerID,
		"computed_hash":             result.ComputedHash,
		"ledger_data_hash":          result.LedgerDataHash,
		"blockchain_data_available": result.BlockchainDataAvailable,
		"matches_store":             result.MatchesStore,
		"matches_ledger":            result.MatchesLedger,
	})
}

// ListProductsRequest represents the query parameters for listing products.
type ListProductsRequest struct {
	Limit  int32  `form:"limit"`
	Token  string `form:"token"`
	Status string `form:"status"`
	Owner  string `form:"owner"`
}

// ListProductsResponse represents the response body for listing products.
type ListProductsResponse struct {
	Products      []ProductResponse `json:"products"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

// ListProducts handles the HTTP GET request for listing products with pagination.
func (pc *ProductController) ListProducts(c *gin.Context) {
	var req ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := repository.NewQuery()
	if req.Status != "" {
		query.With(repository.StatusField, req.Status)
	}
	if req.Owner != "" {
		query.With(repository.OwnerAddressField, req.Owner)
	}
	if err := query.ApplyPagination(req.Limit, req.Token); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	products, err := pc.productService.List(c.Request.Context(), *query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}

	var productResponses []ProductResponse
	for _, product := range products {
		productResponses = append(productResponses, toProductResponse(product))
	}

	response := ListProductsResponse{
		Products: productResponses,
	}

	// Generate next page token if we have results
	if len(products) > 0 {
		lastProduct := products[len(products)-1]
		paginator := repository.Paginator{
			LastID:        lastProduct.DocumentID,
			LastCreatedAt: lastProduct.CreatedAt,
		}
		response.NextPageToken = paginator.Encode()
	}

	c.JSON(http.StatusOK, response)
}

func toProductResponse(product *model.Product) ProductResponse {
	return ProductResponse{
		DocumentID:   product.DocumentID.String(),
		LedgerID:     product.LedgerID,
		Name:         product.Name,
		Manufacturer: product.Manufacturer,
		Origin:       product.Origin,
		Description:  product.Description,
		Status:       string(product.Status),
		OwnerAddress: product.OwnerAddress,
		DataHash:     product.DataHash,
		CreatedAt:    product.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:    product.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toProductViewResponse(view *model.ProductView) ProductViewResponse {
	return ProductViewResponse{
		ProductResponse:         toProductResponse(&view.Product),
		BlockchainDataAvailable: view.BlockchainDataAvailable,
		IsVerified:              view.IsVerified,
		ComputedHash:            view.ComputedHash,
		LedgerDataHash:          view.LedgerDataHash,
		CreateTime:              view.CreateTime,
		UpdateTime:              view.UpdateTime,
	}
}

// respondError maps service errors onto HTTP statuses. Validation problems are
// the client's fault, missing records are 404, an unreachable ledger node is
// reported as 503 so callers can retry.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound), errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.Is(err, ledger.ErrUnavailable), errors.Is(err, ledger.ErrNotConnected):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ledger unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
