package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	appledger "github.com/shirin/backend/internal/application/ledger"
	"github.com/shirin/backend/internal/domain/ledger"
	"github.com/shirin/backend/internal/domain/sales"
	"github.com/shirin/backend/internal/domain/shared"
)

// SalesService drives the sale lifecycle. Shipping a sale debits its
// products FIFO and fixes the per-item COGS inside one transaction with
// the status change; returns compensate shipped sales with new
// movements instead of reversing old ones.
type SalesService struct {
	scope          appledger.TransactionScope
	saleRepo       sales.SaleRepository
	returnRepo     sales.ReturnRepository
	eventPublisher shared.EventPublisher
}

// NewSalesService creates a new SalesService
func NewSalesService(
	scope appledger.TransactionScope,
	saleRepo sales.SaleRepository,
	returnRepo sales.ReturnRepository,
) *SalesService {
	return &SalesService{
		scope:      scope,
		saleRepo:   saleRepo,
		returnRepo: returnRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *SalesService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *SalesService) publishDomainEvents(ctx context.Context, root shared.AggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	events := root.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	root.ClearDomainEvents()
}

// CreateSale creates a draft sale with its initial items
func (s *SalesService) CreateSale(ctx context.Context, req CreateSaleRequest) (*SaleResponse, error) {
	saleDate := req.SaleDate
	if saleDate.IsZero() {
		saleDate = time.Now()
	}

	var sale *sales.Sale
	err := s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		saleNumber, err := repos.Sales().GenerateSaleNumber(ctx)
		if err != nil {
			return err
		}

		sale, err = sales.NewSale(req.BranchID, saleNumber, req.CustomerName, saleDate, req.CreatedBy)
		if err != nil {
			return err
		}
		if req.CustomerID != nil {
			sale.WithCustomerID(*req.CustomerID)
		}
		if req.Note != "" {
			sale.Note = req.Note
		}
		for _, item := range req.Items {
			if err := sale.AddItem(item.ProductID, item.ProductName, item.Unit, item.Quantity, item.UnitPriceTJS); err != nil {
				return err
			}
		}
		return repos.Sales().Create(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, sale)
	response := ToSaleResponse(sale)
	return &response, nil
}

// AddItem adds a product line to a draft sale
func (s *SalesService) AddItem(ctx context.Context, saleID uuid.UUID, req SaleItemRequest) (*SaleResponse, error) {
	return s.mutateSale(ctx, saleID, func(sale *sales.Sale) error {
		return sale.AddItem(req.ProductID, req.ProductName, req.Unit, req.Quantity, req.UnitPriceTJS)
	})
}

// RemoveItem removes a product line from a draft sale
func (s *SalesService) RemoveItem(ctx context.Context, saleID, productID uuid.UUID) (*SaleResponse, error) {
	return s.mutateSale(ctx, saleID, func(sale *sales.Sale) error {
		return sale.RemoveItem(productID)
	})
}

// Confirm locks the item list and makes the sale eligible for payments
// and shipment
func (s *SalesService) Confirm(ctx context.Context, saleID uuid.UUID) (*SaleResponse, error) {
	var sale *sales.Sale
	err := s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		var err error
		sale, err = repos.Sales().FindByID(ctx, saleID)
		if err != nil {
			return err
		}
		if err := repos.Sales().UpdateStatus(ctx, saleID,
			sales.SaleStatusDraft, sales.SaleStatusConfirmed); err != nil {
			return err
		}
		if err := sale.Confirm(); err != nil {
			return err
		}
		return repos.Sales().Save(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, sale)
	response := ToSaleResponse(sale)
	return &response, nil
}

// Ship debits every item of a confirmed sale from stock, fixes the
// per-item COGS from the FIFO walk and marks the sale shipped. The
// compare-and-set makes a double submit lose instead of shipping twice.
func (s *SalesService) Ship(ctx context.Context, saleID uuid.UUID, operatorID *uuid.UUID) (*SaleResponse, error) {
	var sale *sales.Sale
	err := s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		var err error
		sale, err = repos.Sales().FindByID(ctx, saleID)
		if err != nil {
			return err
		}
		if err := repos.Sales().UpdateStatus(ctx, saleID,
			sales.SaleStatusConfirmed, sales.SaleStatusShipped); err != nil {
			return err
		}

		for i := range sale.Items {
			item := &sale.Items[i]
			result, err := repos.Ledger().Post(ctx, ledger.PostRequest{
				BranchID:   sale.BranchID,
				ItemID:     item.ProductID,
				Kind:       ledger.ItemKindProduct,
				Type:       ledger.MovementTypeSaleShipment,
				Quantity:   item.Quantity.Neg(),
				Unit:       item.Unit,
				Reference:  ledger.Reference{Type: ledger.ReferenceTypeSale, ID: sale.ID},
				OperatorID: operatorID,
			})
			if err != nil {
				return err
			}
			if err := sale.RecordItemCOGS(item.ProductID, result.Plan.UnitCostUSD, result.Plan.UnitCostTJS); err != nil {
				return err
			}
		}

		if err := sale.MarkShipped(); err != nil {
			return err
		}
		return repos.Sales().Save(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, sale)
	response := ToSaleResponse(sale)
	return &response, nil
}

// Cancel abandons a sale that has not shipped and has no payments
func (s *SalesService) Cancel(ctx context.Context, saleID uuid.UUID, reason string) (*SaleResponse, error) {
	var sale *sales.Sale
	err := s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		var err error
		sale, err = repos.Sales().FindByID(ctx, saleID)
		if err != nil {
			return err
		}
		if err := repos.Sales().UpdateStatus(ctx, saleID,
			sale.Status, sales.SaleStatusCancelled); err != nil {
			return err
		}
		if err := sale.Cancel(reason); err != nil {
			return err
		}
		return repos.Sales().Save(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, sale)
	response := ToSaleResponse(sale)
	return &response, nil
}

// AddPayment records money received against a confirmed or shipped sale
func (s *SalesService) AddPayment(ctx context.Context, saleID uuid.UUID, req AddPaymentRequest) (*SaleResponse, error) {
	return s.mutateSale(ctx, saleID, func(sale *sales.Sale) error {
		_, err := sale.AddPayment(req.AmountTJS, req.Method, req.ReceivedBy, req.Note)
		return err
	})
}

// RemovePayment deletes a mistakenly recorded payment
func (s *SalesService) RemovePayment(ctx context.Context, saleID, paymentID uuid.UUID) (*SaleResponse, error) {
	return s.mutateSale(ctx, saleID, func(sale *sales.Sale) error {
		return sale.RemovePayment(paymentID)
	})
}

// mutateSale loads a sale, applies a change and saves it in one
// transaction
func (s *SalesService) mutateSale(ctx context.Context, saleID uuid.UUID, fn func(sale *sales.Sale) error) (*SaleResponse, error) {
	var sale *sales.Sale
	err := s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		var err error
		sale, err = repos.Sales().FindByID(ctx, saleID)
		if err != nil {
			return err
		}
		if err := fn(sale); err != nil {
			return err
		}
		return repos.Sales().Save(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// CreateReturn records products coming back against a shipped sale.
// Stock-returning lines re-enter as new lots at the original COGS
// basis; scrapped lines only produce the return document.
func (s *SalesService) CreateReturn(ctx context.Context, saleID uuid.UUID, req CreateReturnRequest) (*ReturnResponse, error) {
	requested := make([]sales.ReturnRequestItem, len(req.Items))
	for i, item := range req.Items {
		requested[i] = sales.ReturnRequestItem{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			ReturnToStock: item.ReturnToStock,
		}
	}

	var ret *sales.SaleReturn
	err := s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		sale, err := repos.Sales().FindByID(ctx, saleID)
		if err != nil {
			return err
		}
		previouslyReturned, err := repos.Returns().SumReturnedBySale(ctx, saleID)
		if err != nil {
			return err
		}
		returnNumber, err := repos.Returns().GenerateReturnNumber(ctx)
		if err != nil {
			return err
		}

		ret, err = sales.NewSaleReturn(sale, returnNumber, requested, previouslyReturned, req.Reason, req.CreatedBy)
		if err != nil {
			return err
		}
		if err := repos.Returns().Create(ctx, ret); err != nil {
			return err
		}

		for _, item := range ret.StockItems() {
			_, err := repos.Ledger().Post(ctx, ledger.PostRequest{
				BranchID:  ret.BranchID,
				ItemID:    item.ProductID,
				Kind:      ledger.ItemKindProduct,
				Type:      ledger.MovementTypeSaleReturn,
				Quantity:  item.Quantity,
				Unit:      item.Unit,
				Reference: ledger.Reference{Type: ledger.ReferenceTypeSaleReturn, ID: ret.ID},
				Lot: &ledger.LotBasis{
					Origin:      ledger.LotOriginSaleReturn,
					ProducedAt:  ret.ReturnedAt,
					UnitCostUSD: item.UnitCostUSD,
					UnitCostTJS: item.UnitCostTJS,
				},
				OperatorID: &req.CreatedBy,
				Reason:     req.Reason,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, ret)
	response := ToReturnResponse(ret)
	return &response, nil
}

// GetSale retrieves a sale by ID
func (s *SalesService) GetSale(ctx context.Context, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// ListSales retrieves sales with filtering and pagination
func (s *SalesService) ListSales(ctx context.Context, filter shared.Filter) ([]SaleResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	items, err := s.saleRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.saleRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToSaleResponses(items), total, nil
}

// GetReturn retrieves a sale return by ID
func (s *SalesService) GetReturn(ctx context.Context, returnID uuid.UUID) (*ReturnResponse, error) {
	ret, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return nil, err
	}
	response := ToReturnResponse(ret)
	return &response, nil
}

// ListReturnsBySale retrieves every return recorded against a sale
func (s *SalesService) ListReturnsBySale(ctx context.Context, saleID uuid.UUID) ([]ReturnResponse, error) {
	items, err := s.returnRepo.FindBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return ToReturnResponses(items), nil
}
