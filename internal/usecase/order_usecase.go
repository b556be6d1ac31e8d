package usecase

import (
	"context"
	"log"

	"pasarbuku/internal/domain/entity"
	"pasarbuku/internal/domain/repository"
	"pasarbuku/internal/infrastructure/ratelimit"
	"pasarbuku/pkg/errors"
)

type OrderUseCase struct {
	orderRepo   repository.OrderRepository
	bookRepo    repository.BookRepository
	chatUseCase *ChatUseCase
	rateLimiter *ratelimit.RateLimiter
}

func NewOrderUseCase(
	orderRepo repository.OrderRepository,
	bookRepo repository.BookRepository,
	chatUseCase *ChatUseCase,
) *OrderUseCase {
	return &OrderUseCase{
		orderRepo:   orderRepo,
		bookRepo:    bookRepo,
		chatUseCase: chatUseCase,
		rateLimiter: chatUseCase.rateLimiter,
	}
}

// CreateOrder records a purchase request for a book and opens the buyer-seller
// negotiation room. The room and both memberships are created as soon as the
// order exists; this is the only place rooms come from.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, buyerID, bookID string) (*entity.Order, error) {
	allowed, waitTime := uc.rateLimiter.Allow(buyerID, "create_order")
	if !allowed {
		log.Printf("CreateOrder Rate Limited: User %s must wait %v", buyerID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before placing another order", waitTime)
	}

	book, err := uc.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		log.Printf("CreateOrder Error: Book %s not found: %v", bookID, err)
		return nil, err
	}

	if book.SellerID == buyerID {
		log.Printf("CreateOrder Error: User %s attempted to order their own book %s", buyerID, bookID)
		return nil, errors.BadRequest("You cannot order your own book", nil)
	}

	if book.SaleStatus != entity.BookForSale {
		return nil, errors.Conflict("Book is not for sale")
	}

	order := &entity.Order{
		BookID:   bookID,
		BuyerID:  buyerID,
		SellerID: book.SellerID,
		Status:   entity.OrderPending,
	}

	if err := uc.orderRepo.Create(ctx, order); err != nil {
		log.Printf("CreateOrder Error: Failed to create order for book %s: %v", bookID, err)
		return nil, err
	}

	if _, err := uc.chatUseCase.CreateRoomForOrder(ctx, order); err != nil {
		log.Printf("CreateOrder Error: Failed to create chat room for order %s: %v", order.ID, err)
		return nil, err
	}

	if err := uc.bookRepo.UpdateSaleStatus(ctx, bookID, entity.BookReserved); err != nil {
		log.Printf("CreateOrder Warning: Failed to reserve book %s: %v", bookID, err)
	}

	return order, nil
}

// UpdateOrderStatus lets the seller approve or cancel an order. The book's
// sale status follows the decision.
func (uc *OrderUseCase) UpdateOrderStatus(ctx context.Context, orderID, sellerID, status string) (*entity.Order, error) {
	order, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		log.Printf("UpdateOrderStatus Error: Order %s not found: %v", orderID, err)
		return nil, err
	}

	if order.SellerID != sellerID {
		return nil, errors.Forbidden("Only the seller can change this order", nil)
	}

	if status != entity.OrderApproved && status != entity.OrderCancelled {
		return nil, errors.BadRequest("Status must be APPROVED or CANCELLED", nil)
	}

	order.Status = status
	if err := uc.orderRepo.Update(ctx, order); err != nil {
		log.Printf("UpdateOrderStatus Error: Failed to update order %s: %v", orderID, err)
		return nil, err
	}

	bookStatus := entity.BookForSale
	if status == entity.OrderApproved {
		bookStatus = entity.BookSold
	}
	if err := uc.bookRepo.UpdateSaleStatus(ctx, order.BookID, bookStatus); err != nil {
		log.Printf("UpdateOrderStatus Warning: Failed to update book %s status: %v", order.BookID, err)
	}

	return order, nil
}
