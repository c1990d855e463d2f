// Package service drives the upload pipeline and the read paths over the
// stock repository. The upload flow is a single sequential pipeline per
// request: receive file -> parse -> aggregate -> upsert, with the
// temporary file removed on every exit path.
package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"stockboard/internal/ingest"
	"stockboard/internal/model"
	"stockboard/internal/repository"
)

// UploadResult reports what an upload persisted. On a mid-loop
// persistence failure it still carries the entities stored before the
// failure, so callers can surface partial progress instead of silently
// losing it.
type UploadResult struct {
	Count  int            `json:"count"`
	Stocks []*model.Stock `json:"details"`
}

type StockService struct {
	repo      repository.StockRepository
	logger    *logrus.Logger
	uploadDir string
	timeout   time.Duration
	extract   ingest.SymbolExtractor
}

// NewStockService wires the upload orchestrator. uploadDir must already
// exist; it is created once during startup, never per request. A zero
// timeout disables the per-upload deadline. A nil extract falls back to
// the single-symbol default.
func NewStockService(repo repository.StockRepository, logger *logrus.Logger, uploadDir string, timeout time.Duration, extract ingest.SymbolExtractor) *StockService {
	if extract == nil {
		extract = ingest.DefaultSymbol
	}
	return &StockService{
		repo:      repo,
		logger:    logger,
		uploadDir: uploadDir,
		timeout:   timeout,
		extract:   extract,
	}
}

// ValidateUploadType checks extension and content type before anything
// is written to disk. Only .csv and .txt files (or text/csv uploads)
// are accepted.
func (s *StockService) ValidateUploadType(filename, contentType string) error {
	if contentType == "text/csv" {
		return nil
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return nil
	}
	return &ingest.StageError{Stage: ingest.StageReceive, Err: ingest.ErrUnsupportedFileType}
}

// ImportUpload runs the whole pipeline for one uploaded file and returns
// the persisted entities. The upload is written to a uniquely named
// temporary file first, which is deleted before returning regardless of
// outcome, including timeout expiry.
func (s *StockService) ImportUpload(ctx context.Context, filename, contentType string, src io.Reader) (*UploadResult, error) {
	if err := s.ValidateUploadType(filename, contentType); err != nil {
		return nil, err
	}

	tmpPath, err := s.saveUpload(filename, src)
	if err != nil {
		return nil, &ingest.StageError{Stage: ingest.StageReceive, Err: err}
	}
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			s.logger.WithError(err).WithField("path", tmpPath).Warn("Failed to remove temp upload")
		}
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	stocks, err := s.parseFile(ctx, tmpPath)
	if err != nil {
		return nil, err
	}

	return s.persist(ctx, filename, stocks)
}

// saveUpload writes the stream to a uniquely named file under uploadDir.
// Timestamp plus a UUID keeps concurrent uploads of the same file from
// colliding.
func (s *StockService) saveUpload(filename string, src io.Reader) (string, error) {
	name := fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), uuid.NewString(), filepath.Base(filename))
	tmpPath := filepath.Join(s.uploadDir, name)

	dst, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ingest.ErrSourceRead, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: %v", ingest.ErrSourceRead, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: %v", ingest.ErrSourceRead, err)
	}
	return tmpPath, nil
}

func (s *StockService) parseFile(ctx context.Context, path string) ([]*model.Stock, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ingest.StageError{
			Stage: ingest.StageParse,
			Err:   fmt.Errorf("%w: %v", ingest.ErrSourceRead, err),
		}
	}
	defer f.Close()

	agg := ingest.NewAggregator(s.extract, ingest.NewNormalizer())
	rows := 0

	err = ingest.NewParser().Parse(f, func(row ingest.Row) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		agg.Add(row)
		rows++
		return nil
	})
	if err != nil {
		return nil, &ingest.StageError{Stage: ingest.StageParse, Err: err}
	}

	s.logger.WithFields(logrus.Fields{"rows": rows, "entities": len(agg.Stocks())}).Info("Parsed upload")
	return agg.Stocks(), nil
}

// persist upserts each entity in order. The first failure stops the
// loop, but entities already written stay in the result so the caller
// sees exactly what reached the store.
func (s *StockService) persist(ctx context.Context, filename string, stocks []*model.Stock) (*UploadResult, error) {
	stored := make([]*model.Stock, 0, len(stocks))
	for _, st := range stocks {
		saved, err := s.repo.Upsert(ctx, st)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"file":   filename,
				"symbol": st.Symbol,
			}).Error("Stock upsert failed")
			return &UploadResult{Count: len(stored), Stocks: stored}, &ingest.StageError{
				Stage: ingest.StagePersist,
				Err:   fmt.Errorf("%w: symbol %s: %v", ingest.ErrPersistence, st.Symbol, err),
			}
		}
		stored = append(stored, saved)
	}

	s.logger.WithFields(logrus.Fields{"file": filename, "count": len(stored)}).Info("Stock data uploaded")
	return &UploadResult{Count: len(stored), Stocks: stored}, nil
}

// GetStocks returns every stored stock.
func (s *StockService) GetStocks(ctx context.Context) ([]model.Stock, error) {
	return s.repo.List(ctx)
}

// GetStock returns one stock by symbol, or repository.ErrNotFound.
func (s *StockService) GetStock(ctx context.Context, symbol string) (*model.Stock, error) {
	return s.repo.FindBySymbol(ctx, symbol)
}
