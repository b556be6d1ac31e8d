package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"pasarbuku/internal/domain/entity"
	"pasarbuku/internal/domain/repository"
	"pasarbuku/pkg/errors"
)

type firestoreBookRepository struct {
	client *firestore.Client
}

func NewFirestoreBookRepository(client *firestore.Client) repository.BookRepository {
	return &firestoreBookRepository{
		client: client,
	}
}

func (r *firestoreBookRepository) GetByID(ctx context.Context, id string) (*entity.Book, error) {
	doc, err := r.client.Collection("books").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Book", nil)
		}
		return nil, errors.Internal("Failed to get book", err)
	}

	var book entity.Book
	if err := doc.DataTo(&book); err != nil {
		return nil, errors.Internal("Failed to parse book data", err)
	}

	return &book, nil
}

func (r *firestoreBookRepository) UpdateSaleStatus(ctx context.Context, id, saleStatus string) error {
	_, err := r.client.Collection("books").Doc(id).Update(ctx, []firestore.Update{
		{Path: "saleStatus", Value: saleStatus},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Book", nil)
		}
		return errors.Internal("Failed to update book sale status", err)
	}

	return nil
}
