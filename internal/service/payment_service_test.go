package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquaflow/aquaflow-api/internal/models"
	appErrors "github.com/aquaflow/aquaflow-api/pkg/errors"
)

func paidRequest(t *testing.T, status models.ServiceStatus) *models.ServiceRequest {
	t.Helper()
	request := requestInStatus(status, "plm-1")
	request.Pricing = models.ServicePricing{LaborCost: mustDecimal(t, "120.00")}
	request.Pricing.Recalculate()
	return request
}

func TestRecordPaymentHappyPath(t *testing.T) {
	requests := &mockRequestStore{requests: map[string]*models.ServiceRequest{}}
	request := paidRequest(t, models.StatusWorkCompleted)
	requests.requests[request.ID] = request
	svc := NewPaymentService(requests, nil, nil)

	updated, err := svc.Record(context.Background(), "svc-1", RecordPaymentRequest{
		Method:        models.PayCard,
		TransactionID: "txn-42",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, updated.Payment.Status)
	assert.Equal(t, "txn-42", updated.Payment.TransactionID)
	require.NotNil(t, updated.Payment.PaidAt)
}

func TestRecordPaymentRequiresCompletedWork(t *testing.T) {
	requests := &mockRequestStore{requests: map[string]*models.ServiceRequest{}}
	request := paidRequest(t, models.StatusWorkInProgress)
	requests.requests[request.ID] = request
	svc := NewPaymentService(requests, nil, nil)

	_, err := svc.Record(context.Background(), "svc-1", RecordPaymentRequest{Method: models.PayCash})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestRecordPaymentRejectsDoublePayment(t *testing.T) {
	requests := &mockRequestStore{requests: map[string]*models.ServiceRequest{}}
	request := paidRequest(t, models.StatusVerified)
	request.Payment.Status = models.PaymentCompleted
	requests.requests[request.ID] = request
	svc := NewPaymentService(requests, nil, nil)

	_, err := svc.Record(context.Background(), "svc-1", RecordPaymentRequest{Method: models.PayCash})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRefundOnlyAfterCancellation(t *testing.T) {
	requests := &mockRequestStore{requests: map[string]*models.ServiceRequest{}}
	request := paidRequest(t, models.StatusVerified)
	request.Payment.Status = models.PaymentCompleted
	requests.requests[request.ID] = request
	svc := NewPaymentService(requests, nil, nil)

	_, err := svc.Refund(context.Background(), "svc-1", RefundRequest{Reason: "duplicate"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestRefundFlipsCancellationFlag(t *testing.T) {
	requests := &mockRequestStore{requests: map[string]*models.ServiceRequest{}}
	request := paidRequest(t, models.StatusCancelled)
	request.Payment.Status = models.PaymentCompleted
	request.Cancellation = models.Cancellation{Cancelled: true}
	requests.requests[request.ID] = request
	svc := NewPaymentService(requests, nil, nil)

	updated, err := svc.Refund(context.Background(), "svc-1", RefundRequest{Reason: "work never started"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, updated.Payment.Status)
	assert.True(t, updated.Cancellation.RefundIssued)
	require.NotNil(t, updated.Payment.RefundedAt)
}
