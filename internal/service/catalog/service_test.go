package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func newCatalogService() *Service {
	return NewService(memory.NewProductRepository(memory.NewStore()), nil)
}

func TestService_CreateAssignsID(t *testing.T) {
	svc := newCatalogService()
	admin := domain.User{ID: "root", Admin: true}

	created, err := svc.Create(context.Background(), admin, domain.Product{
		Name:       "Keyboard",
		PriceMinor: 4990,
		Stock:      10,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Keyboard", created.Name)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
}

func TestService_CreateRejectsNonAdmin(t *testing.T) {
	svc := newCatalogService()

	_, err := svc.Create(context.Background(), domain.User{ID: "alice"}, domain.Product{
		Name:       "Keyboard",
		PriceMinor: 4990,
	})
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestService_CreateValidates(t *testing.T) {
	svc := newCatalogService()
	admin := domain.User{ID: "root", Admin: true}

	_, err := svc.Create(context.Background(), admin, domain.Product{PriceMinor: 100})
	require.ErrorIs(t, err, domain.ErrProductNameRequired)

	_, err = svc.Create(context.Background(), admin, domain.Product{Name: "X", PriceMinor: -1})
	require.ErrorIs(t, err, domain.ErrProductPriceNegative)

	_, err = svc.Create(context.Background(), admin, domain.Product{Name: "X", PriceMinor: 1, Stock: -1})
	require.ErrorIs(t, err, domain.ErrProductStockNegative)
}

func TestService_UpdateUnknownProduct(t *testing.T) {
	svc := newCatalogService()
	admin := domain.User{ID: "root", Admin: true}

	_, err := svc.Update(context.Background(), admin, domain.Product{
		ID:         "missing",
		Name:       "Keyboard",
		PriceMinor: 4990,
	})
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestService_ListSortedByName(t *testing.T) {
	svc := newCatalogService()
	admin := domain.User{ID: "root", Admin: true}

	for _, name := range []string{"Mouse", "Keyboard", "Webcam"} {
		_, err := svc.Create(context.Background(), admin, domain.Product{
			Name:       name,
			PriceMinor: 1000,
			Stock:      1,
		})
		require.NoError(t, err)
	}

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "Keyboard", list[0].Name)
	require.Equal(t, "Mouse", list[1].Name)
	require.Equal(t, "Webcam", list[2].Name)
}
