package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasarbuku/internal/domain/entity"
	"pasarbuku/pkg/errors"
)

type fakeOrderRepository struct {
	mu     sync.Mutex
	orders map[string]*entity.Order
}

func newFakeOrderRepository() *fakeOrderRepository {
	return &fakeOrderRepository{orders: make(map[string]*entity.Order)}
}

func (f *fakeOrderRepository) Create(ctx context.Context, order *entity.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order.ID = fmt.Sprintf("order-%d", len(f.orders)+1)
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, errors.NotFound("Order", nil)
	}
	return order, nil
}

func (f *fakeOrderRepository) Update(ctx context.Context, order *entity.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[order.ID]; !ok {
		return errors.NotFound("Order", nil)
	}
	f.orders[order.ID] = order
	return nil
}

func newTestOrderUseCase(t *testing.T) (*OrderUseCase, *fakeChatRepository, *fakeBookRepository) {
	t.Helper()

	chatRepo := newFakeChatRepository()
	userRepo := &fakeUserRepository{users: map[string]*entity.User{
		"buyer":  {ID: "buyer", Name: "Kim"},
		"seller": {ID: "seller", Name: "Lee"},
	}}
	bookRepo := &fakeBookRepository{books: map[string]*entity.Book{
		"book-1": {ID: "book-1", Title: "Clean Architecture", SellerID: "seller", SaleStatus: entity.BookForSale},
	}}

	chatUseCase := NewChatUseCase(chatRepo, userRepo, bookRepo, newFakeBroadcaster())
	orderUseCase := NewOrderUseCase(newFakeOrderRepository(), bookRepo, chatUseCase)
	return orderUseCase, chatRepo, bookRepo
}

func TestCreateOrderOpensChatRoom(t *testing.T) {
	uc, chatRepo, bookRepo := newTestOrderUseCase(t)

	ctx := context.Background()
	order, err := uc.CreateOrder(ctx, "buyer", "book-1")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderPending, order.Status)
	assert.Equal(t, "seller", order.SellerID)

	room, err := chatRepo.GetRoomByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "buyer", room.BuyerID)
	assert.Equal(t, "seller", room.SellerID)
	assert.ElementsMatch(t, []string{"buyer", "seller"}, room.Participants)

	book, err := bookRepo.GetByID(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, entity.BookReserved, book.SaleStatus)
}

func TestCreateOrderRejectsOwnBook(t *testing.T) {
	uc, _, _ := newTestOrderUseCase(t)

	_, err := uc.CreateOrder(context.Background(), "seller", "book-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestCreateOrderRejectsReservedBook(t *testing.T) {
	uc, _, _ := newTestOrderUseCase(t)

	ctx := context.Background()
	_, err := uc.CreateOrder(ctx, "buyer", "book-1")
	require.NoError(t, err)

	_, err = uc.CreateOrder(ctx, "buyer", "book-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "CONFLICT"))
}

func TestCreateOrderUnknownBook(t *testing.T) {
	uc, _, _ := newTestOrderUseCase(t)

	_, err := uc.CreateOrder(context.Background(), "buyer", "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestUpdateOrderStatusApprove(t *testing.T) {
	uc, _, bookRepo := newTestOrderUseCase(t)

	ctx := context.Background()
	order, err := uc.CreateOrder(ctx, "buyer", "book-1")
	require.NoError(t, err)

	updated, err := uc.UpdateOrderStatus(ctx, order.ID, "seller", entity.OrderApproved)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderApproved, updated.Status)

	book, err := bookRepo.GetByID(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, entity.BookSold, book.SaleStatus)
}

func TestUpdateOrderStatusCancelRestoresBook(t *testing.T) {
	uc, _, bookRepo := newTestOrderUseCase(t)

	ctx := context.Background()
	order, err := uc.CreateOrder(ctx, "buyer", "book-1")
	require.NoError(t, err)

	updated, err := uc.UpdateOrderStatus(ctx, order.ID, "seller", entity.OrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCancelled, updated.Status)

	book, err := bookRepo.GetByID(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, entity.BookForSale, book.SaleStatus)
}

func TestUpdateOrderStatusSellerOnly(t *testing.T) {
	uc, _, _ := newTestOrderUseCase(t)

	ctx := context.Background()
	order, err := uc.CreateOrder(ctx, "buyer", "book-1")
	require.NoError(t, err)

	_, err = uc.UpdateOrderStatus(ctx, order.ID, "buyer", entity.OrderApproved)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	uc, _, _ := newTestOrderUseCase(t)

	ctx := context.Background()
	order, err := uc.CreateOrder(ctx, "buyer", "book-1")
	require.NoError(t, err)

	_, err = uc.UpdateOrderStatus(ctx, order.ID, "seller", "SHIPPED")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}
