package repository

import (
	"context"

	"pasarbuku/internal/domain/entity"
)

type BookRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Book, error)
	UpdateSaleStatus(ctx context.Context, id, saleStatus string) error
}
