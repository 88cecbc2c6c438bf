package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chaintrack/backend/internal/ledger"
	"github.com/chaintrack/backend/internal/model"
)

// HistoryScanner scans the ledger for historical product registrations.
type HistoryScanner interface {
	Scan(ctx context.Context, windowDays int) ([]model.TransactionEntry, error)
}

// ChainReader exposes the read-only contract calls served directly over HTTP.
type ChainReader interface {
	HasRole(ctx context.Context, account, role string) (bool, error)
	GetAgreement(ctx context.Context, id string) (*ledger.Agreement, error)
}

// ChainController handles HTTP requests answered straight from the ledger.
type ChainController struct {
	scanner HistoryScanner
	reader  ChainReader
}

// NewChainController creates a new ChainController.
func NewChainController(scanner HistoryScanner, reader ChainReader) *ChainController {
	return &ChainController{
		scanner: scanner,
		reader:  reader,
	}
}

// TransactionResponse represents one historical registration event.
type TransactionResponse struct {
	TxHash      string `json:"tx_hash"`
	LedgerID    string `json:"ledger_id"`
	Owner       string `json:"owner"`
	Sender      string `json:"sender"`
	BlockNumber uint64 `json:"block_number"`
	Timestamp   string `json:"timestamp"`
	FeeWei      string `json:"fee_wei"`
	ProductName string `json:"product_name,omitempty"`
	Status      string `json:"status,omitempty"`
}

// ListTransactions handles the HTTP GET request for the transaction history.
func (cc *ChainController) ListTransactions(c *gin.Context) {
	days := 1
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	entries, err := cc.scanner.Scan(c.Request.Context(), days)
	if err != nil {
		respondError(c, err, "failed to scan transactions")
		return
	}

	responses := make([]TransactionResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, TransactionResponse{
			TxHash:      entry.TxHash,
			LedgerID:    entry.LedgerID,
			Owner:       entry.Owner,
			Sender:      entry.Sender,
			BlockNumber: entry.BlockNumber,
			Timestamp:   entry.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			FeeWei:      entry.FeeWei,
			ProductName: entry.ProductName,
			Status:      entry.Status,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": responses,
		"days":         days,
	})
}

// GetRole handles the HTTP GET request for an account role check.
func (cc *ChainController) GetRole(c *gin.Context) {
	account := c.Param("address")
	role := c.Param("role")

	granted, err := cc.reader.HasRole(c.Request.Context(), account, role)
	if err != nil {
		respondError(c, err, "failed to check role")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account": account,
		"role":    role,
		"granted": granted,
	})
}

// GetAgreement handles the HTTP GET request for a supply agreement.
func (cc *ChainController) GetAgreement(c *gin.Context) {
	agreement, err := cc.reader.GetAgreement(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to fetch agreement")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         agreement.ID,
		"product_id": agreement.ProductID,
		"buyer":      agreement.Buyer,
		"seller":     agreement.Seller,
		"terms":      agreement.Terms,
		"created_at": agreement.CreatedAt,
		"active":     agreement.Active,
	})
}
