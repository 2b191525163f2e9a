package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	statuses := []domain.OrderStatus{
		domain.OrderStatusCart,
		domain.OrderStatusPendingPayment,
		domain.OrderStatusPaid,
		domain.OrderStatusCancelled,
	}

	allowed := map[domain.OrderStatus]map[domain.OrderStatus]bool{
		domain.OrderStatusCart:           {domain.OrderStatusPendingPayment: true},
		domain.OrderStatusPendingPayment: {domain.OrderStatusPaid: true, domain.OrderStatusCancelled: true},
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[from][to]
			if got := from.CanTransitionTo(to); got != want {
				t.Fatalf("transition %s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	if domain.OrderStatusCart.Terminal() || domain.OrderStatusPendingPayment.Terminal() {
		t.Fatal("cart and pending_payment must not be terminal")
	}
	if !domain.OrderStatusPaid.Terminal() || !domain.OrderStatusCancelled.Terminal() {
		t.Fatal("paid and cancelled must be terminal")
	}
}

func TestOrder_ValidateInvariants(t *testing.T) {
	now := time.Now().UTC()
	order := domain.Order{
		ID:         "order-1",
		UserID:     "user-1",
		Status:     domain.OrderStatusCart,
		TotalMinor: 300,
		Items: []domain.OrderItem{
			{ID: "item-1", ProductID: "product-1", Qty: 3, PriceMinor: 100, CreatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no invariant violations, got %v", errs)
	}

	order.TotalMinor = 250
	errs := order.ValidateInvariants()
	if len(errs) != 1 || !errors.Is(errs[0], domain.ErrTotalMismatch) {
		t.Fatalf("expected total mismatch, got %v", errs)
	}
}

func TestOrder_ValidateInvariants_DuplicateProduct(t *testing.T) {
	now := time.Now().UTC()
	order := domain.Order{
		ID:         "order-1",
		UserID:     "user-1",
		Status:     domain.OrderStatusCart,
		TotalMinor: 200,
		Items: []domain.OrderItem{
			{ID: "item-1", ProductID: "product-1", Qty: 1, PriceMinor: 100, CreatedAt: now},
			{ID: "item-2", ProductID: "product-1", Qty: 1, PriceMinor: 100, CreatedAt: now},
		},
	}

	found := false
	for _, err := range order.ValidateInvariants() {
		if errors.Is(err, domain.ErrItemDuplicated) {
			found = true
		}
	}
	if !found {
		t.Fatal("expected duplicated item violation")
	}
}

func TestInsufficientStockError(t *testing.T) {
	err := domain.NewInsufficientStockError("product-1", "Keyboard", 3, 2)

	if !domain.IsInsufficientStock(err) {
		t.Fatal("expected errors.Is match for ErrInsufficientStock")
	}

	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatal("expected errors.As match for *InsufficientStockError")
	}
	if stockErr.ProductName != "Keyboard" || stockErr.Requested != 3 || stockErr.Available != 2 {
		t.Fatalf("unexpected error details: %+v", stockErr)
	}
}
