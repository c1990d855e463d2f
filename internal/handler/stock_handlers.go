package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"stockboard/internal/ingest"
	"stockboard/internal/repository"
	"stockboard/internal/service"
)

type StockHandler struct {
	stockService *service.StockService
	logger       *logrus.Logger
	debug        bool
}

// NewStockHandler builds the HTTP handlers. With debug enabled, failure
// responses carry the underlying error text in a "detail" field; without
// it clients only see the stable code and message while the full chain
// goes to the logs.
func NewStockHandler(stockService *service.StockService, logger *logrus.Logger, debug bool) *StockHandler {
	return &StockHandler{
		stockService: stockService,
		logger:       logger,
		debug:        debug,
	}
}

// Upload handles POST /api/stocks/upload: one multipart "file" field
// containing delimited daily price data.
func (h *StockHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "No file uploaded", "error": "no_file"})
		return
	}

	if err := h.stockService.ValidateUploadType(fh.Filename, fh.Header.Get("Content-Type")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"msg":   "Only CSV and TXT files are allowed",
			"error": "unsupported_file_type",
		})
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	result, err := h.stockService.ImportUpload(c.Request.Context(), fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"msg":     "Stock data uploaded successfully",
		"count":   result.Count,
		"details": result.Stocks,
	})
}

// List handles GET /api/stocks.
func (h *StockHandler) List(c *gin.Context) {
	stocks, err := h.stockService.GetStocks(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stocks)
}

// Get handles GET /api/stocks/:symbol.
func (h *StockHandler) Get(c *gin.Context) {
	stock, err := h.stockService.GetStock(c.Request.Context(), c.Param("symbol"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"msg": "Stock not found", "error": "not_found"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stock)
}

// Health handles GET /healthz.
func (h *StockHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *StockHandler) fail(c *gin.Context, err error) {
	h.logger.WithError(err).Error("Upload pipeline failed")

	body := gin.H{"msg": "Upload failed", "error": errorCode(err)}
	if h.debug {
		body["detail"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}

// errorCode maps pipeline errors to stable client-facing codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, ingest.ErrMalformedRow):
		return "malformed_row"
	case errors.Is(err, ingest.ErrSourceRead):
		return "source_read"
	case errors.Is(err, ingest.ErrPersistence):
		return "persistence"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "internal"
	}
}
