package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aquaflow/aquaflow-api/internal/models"
	"github.com/aquaflow/aquaflow-api/pkg/export"
	appErrors "github.com/aquaflow/aquaflow-api/pkg/errors"
)

type leakReader interface {
	GetByID(ctx context.Context, id string) (*models.Leak, error)
}

type plumberReader interface {
	GetByID(ctx context.Context, id string) (*models.Plumber, error)
}

type invoiceRenderer interface {
	Render(inv export.Invoice) ([]byte, error)
}

// InvoiceService produces PDF receipts for completed service requests.
type InvoiceService struct {
	requests serviceRequestStore
	leaks    leakReader
	plumbers plumberReader
	renderer invoiceRenderer
	currency string
	logger   *zap.Logger
}

// NewInvoiceService constructs InvoiceService.
func NewInvoiceService(requests serviceRequestStore, leaks leakReader, plumbers plumberReader, renderer invoiceRenderer, currency string, logger *zap.Logger) *InvoiceService {
	if currency == "" {
		currency = "USD"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{requests: requests, leaks: leaks, plumbers: plumbers, renderer: renderer, currency: currency, logger: logger}
}

// Generate renders the receipt. The work must at least be completed so
// the bill is final.
func (s *InvoiceService) Generate(ctx context.Context, serviceID string) ([]byte, error) {
	request, err := s.requests.GetByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	switch request.Status {
	case models.StatusWorkCompleted, models.StatusVerified, models.StatusClosed:
	default:
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrPreconditionFailed, "invoice available after work completion"), map[string]interface{}{
			"current_status": request.Status,
		})
	}

	invoice := export.Invoice{
		RequestID: request.RequestID,
		Address:   request.Location.Address,
		IssuedAt:  time.Now().UTC(),
		Total:     request.Pricing.TotalAmount,
		Currency:  s.currency,
	}
	if leak, err := s.leaks.GetByID(ctx, request.LeakID); err == nil {
		invoice.LeakTitle = leak.Title
	}
	if request.AssignedPlumber != nil {
		if plumber, err := s.plumbers.GetByID(ctx, *request.AssignedPlumber); err == nil {
			invoice.PlumberName = plumber.Name
			invoice.BusinessName = plumber.BusinessName
		}
	}

	if !request.Pricing.LaborCost.IsZero() {
		invoice.Lines = append(invoice.Lines, export.InvoiceLine{
			Description: "Labor",
			Amount:      request.Pricing.LaborCost,
		})
	}
	for _, item := range request.WorkDetails.MaterialsUsed {
		invoice.Lines = append(invoice.Lines, export.InvoiceLine{
			Description: item.Item,
			Quantity:    item.Quantity,
			Amount:      item.Cost,
		})
	}
	if request.Pricing.MaterialsCost.IsPositive() && len(request.WorkDetails.MaterialsUsed) == 0 {
		invoice.Lines = append(invoice.Lines, export.InvoiceLine{
			Description: "Materials",
			Amount:      request.Pricing.MaterialsCost,
		})
	}
	for _, charge := range request.Pricing.AdditionalCharges {
		invoice.Lines = append(invoice.Lines, export.InvoiceLine{
			Description: charge.Description,
			Amount:      charge.Amount,
		})
	}

	payload, err := s.renderer.Render(invoice)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render invoice")
	}
	return payload, nil
}
