package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stockboard/internal/model"
)

// ErrNotFound is returned when no stock exists for a symbol.
var ErrNotFound = errors.New("stock not found")

// StockRepository is the persistence contract for stock entities. The
// store behaves like a document store keyed by symbol: Upsert replaces
// the whole record, including the price history, and is safe under
// concurrent writes to different symbols.
type StockRepository interface {
	// Upsert inserts the stock or replaces the existing record with the
	// same symbol, and returns the row as stored.
	Upsert(ctx context.Context, stock *model.Stock) (*model.Stock, error)

	// List returns all stored stocks ordered by symbol.
	List(ctx context.Context) ([]model.Stock, error)

	// FindBySymbol returns the stock for a symbol, or ErrNotFound.
	FindBySymbol(ctx context.Context, symbol string) (*model.Stock, error)
}

type gormStockRepository struct {
	db *gorm.DB
}

func NewGormStockRepository(db *gorm.DB) StockRepository {
	return &gormStockRepository{db: db}
}

func (r *gormStockRepository) Upsert(ctx context.Context, stock *model.Stock) (*model.Stock, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}},
			UpdateAll: true,
		}).
		Create(stock).Error
	if err != nil {
		return nil, err
	}

	// Re-read so the caller gets exactly what is now stored.
	return r.FindBySymbol(ctx, stock.Symbol)
}

func (r *gormStockRepository) List(ctx context.Context) ([]model.Stock, error) {
	var stocks []model.Stock
	err := r.db.WithContext(ctx).Order("symbol").Find(&stocks).Error
	if err != nil {
		return nil, err
	}
	return stocks, nil
}

func (r *gormStockRepository) FindBySymbol(ctx context.Context, symbol string) (*model.Stock, error) {
	var stock model.Stock
	err := r.db.WithContext(ctx).First(&stock, "symbol = ?", symbol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &stock, nil
}
