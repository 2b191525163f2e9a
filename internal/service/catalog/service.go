package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Service управляет каталогом товаров. Чтение доступно всем,
// изменение — только администратору.
type Service struct {
	products domain.ProductRepository
	logger   *log.Entry
}

// NewService создаёт сервис каталога.
func NewService(products domain.ProductRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "catalog")
	}
	return &Service{
		products: products,
		logger:   logger,
	}
}

// Create добавляет товар в каталог.
func (s *Service) Create(ctx context.Context, user domain.User, product domain.Product) (domain.Product, error) {
	if !user.Admin {
		return domain.Product{}, domain.ErrForbidden
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if errs := product.Validate(); len(errs) > 0 {
		return domain.Product{}, errors.Join(errs...)
	}
	if err := s.products.Create(product); err != nil {
		return domain.Product{}, err
	}

	s.logger.WithFields(log.Fields{
		"product_id": product.ID,
		"name":       product.Name,
	}).Info("product created")

	return s.products.Get(product.ID)
}

// Update изменяет товар, включая цену и остаток. Открытые корзины
// цен не пересчитывают: позиции держат снимок цены на момент добавления.
func (s *Service) Update(ctx context.Context, user domain.User, product domain.Product) (domain.Product, error) {
	if !user.Admin {
		return domain.Product{}, domain.ErrForbidden
	}
	if errs := product.Validate(); len(errs) > 0 {
		return domain.Product{}, errors.Join(errs...)
	}
	if err := s.products.Update(product); err != nil {
		return domain.Product{}, err
	}

	s.logger.WithField("product_id", product.ID).Info("product updated")

	return s.products.Get(product.ID)
}

// Get возвращает товар по идентификатору.
func (s *Service) Get(ctx context.Context, productID string) (domain.Product, error) {
	return s.products.Get(productID)
}

// List возвращает каталог, отсортированный по имени.
func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.products.List()
}
