package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aquaflow/aquaflow-api/internal/models"
	appErrors "github.com/aquaflow/aquaflow-api/pkg/errors"
)

// RecordPaymentRequest marks a service request as paid.
type RecordPaymentRequest struct {
	Method        models.PaymentMethod `json:"method" validate:"required"`
	TransactionID string               `json:"transaction_id"`
}

// RefundRequest reverses a completed payment on a cancelled request.
type RefundRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// PaymentService maintains the payment sub-record the lifecycle gates on.
// Charging itself happens outside; this service records outcomes.
type PaymentService struct {
	requests  serviceRequestStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs PaymentService.
func NewPaymentService(requests serviceRequestStore, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{requests: requests, validator: validate, logger: logger}
}

// Record marks the bill as settled. The work must be completed or
// verified, and the bill must not already be paid.
func (s *PaymentService) Record(ctx context.Context, serviceID string, req RecordPaymentRequest) (*models.ServiceRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	switch req.Method {
	case models.PayCash, models.PayCard, models.PayDigitalWallet, models.PayCompanyAccount:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown payment method")
	}

	request, err := s.requests.GetByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.StatusWorkCompleted && request.Status != models.StatusVerified {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrPreconditionFailed, "work must be completed before payment"), map[string]interface{}{
			"current_status": request.Status,
		})
	}
	if request.Payment.Status == models.PaymentCompleted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "payment already recorded")
	}
	if request.Pricing.TotalAmount.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "nothing to pay, pricing is empty")
	}

	now := time.Now().UTC()
	request.Payment = models.PaymentRecord{
		Method:        req.Method,
		Status:        models.PaymentCompleted,
		TransactionID: req.TransactionID,
		PaidAt:        &now,
	}
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, err
	}
	s.logger.Info("payment recorded",
		zap.String("service_id", request.ID),
		zap.String("method", string(req.Method)),
		zap.String("amount", request.Pricing.TotalAmount.String()))
	return request, nil
}

// Refund reverses a settled payment on a cancelled request and flips the
// cancellation's refund flag.
func (s *PaymentService) Refund(ctx context.Context, serviceID string, req RefundRequest) (*models.ServiceRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid refund payload")
	}
	request, err := s.requests.GetByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.StatusCancelled {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrPreconditionFailed, "only cancelled requests can be refunded"), map[string]interface{}{
			"current_status": request.Status,
		})
	}
	if request.Payment.Status != models.PaymentCompleted {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no completed payment to refund")
	}

	now := time.Now().UTC()
	request.Payment.Status = models.PaymentRefunded
	request.Payment.RefundedAt = &now
	request.Payment.RefundReason = req.Reason
	request.Cancellation.RefundIssued = true
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, err
	}
	s.logger.Info("payment refunded",
		zap.String("service_id", request.ID),
		zap.String("reason", req.Reason))
	return request, nil
}
