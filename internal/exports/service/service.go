package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"coachdesk_backend/internal/exports/transport"
	clientsrepo "coachdesk_backend/internal/clients/repository"
	paymentsrepo "coachdesk_backend/internal/payments/repository"
	"coachdesk_backend/internal/storage"
	"coachdesk_backend/platform/apperr"
	"coachdesk_backend/platform/logger"
)

const (
	contentTypeCSV = "text/csv"
	dateLayout     = "2006-01-02"
)

// ClientSource is the slice of the clients repository exports read from.
type ClientSource interface {
	List(ctx context.Context, params clientsrepo.ListParams) ([]clientsrepo.Client, error)
}

// PaymentSource is the slice of the payments repository exports read from.
type PaymentSource interface {
	ListAll(ctx context.Context) ([]paymentsrepo.Payment, error)
}

// Service streams CSV snapshots of clients and payments to object storage
// and hands back presigned download URLs.
type Service struct {
	clients  ClientSource
	payments PaymentSource
	store    storage.ObjectStore
	bucket   string
	log      *logger.Logger
	now      func() time.Time
}

// New creates a new exports service. store may be nil when object storage is
// not configured; exports then report a validation error.
func New(clients ClientSource, payments PaymentSource, store storage.ObjectStore, bucket string, log *logger.Logger) *Service {
	return &Service{clients: clients, payments: payments, store: store, bucket: bucket, log: log, now: time.Now}
}

// ExportClients uploads a CSV snapshot of every client record.
func (s *Service) ExportClients(ctx context.Context) (transport.ExportResponse, error) {
	if s.store == nil {
		return transport.ExportResponse{}, apperr.Validation("object storage is not configured")
	}

	clients, err := s.clients.List(ctx, clientsrepo.ListParams{})
	if err != nil {
		return transport.ExportResponse{}, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{
		"id", "first_name", "last_name", "email", "phone", "lifecycle_state",
		"estimated_mrr_cents", "lifetime_revenue_cents",
		"program_start_date", "program_end_date", "program_duration_days",
		"stripe_customer_id", "created_at",
	}
	if err := w.Write(header); err != nil {
		return transport.ExportResponse{}, fmt.Errorf("write csv header: %w", err)
	}
	for _, c := range clients {
		row := []string{
			c.ID.String(), c.FirstName, c.LastName,
			stringOrEmpty(c.Email), stringOrEmpty(c.Phone), c.LifecycleState,
			strconv.FormatInt(c.EstimatedMRRCents, 10),
			strconv.FormatInt(c.LifetimeRevenueCents, 10),
			dateOrEmpty(c.ProgramStartDate), dateOrEmpty(c.ProgramEndDate),
			intOrEmpty(c.ProgramDurationDays),
			stringOrEmpty(c.StripeCustomerID),
			c.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return transport.ExportResponse{}, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return transport.ExportResponse{}, fmt.Errorf("flush csv: %w", err)
	}

	return s.upload(ctx, "clients", &buf, len(clients))
}

// ExportPayments uploads a CSV snapshot of every payment record.
func (s *Service) ExportPayments(ctx context.Context) (transport.ExportResponse, error) {
	if s.store == nil {
		return transport.ExportResponse{}, apperr.Validation("object storage is not configured")
	}

	payments, err := s.payments.ListAll(ctx)
	if err != nil {
		return transport.ExportResponse{}, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{
		"id", "stripe_payment_id", "stripe_customer_id", "client_id",
		"amount_cents", "currency", "status", "subscription_id", "paid_at",
	}
	if err := w.Write(header); err != nil {
		return transport.ExportResponse{}, fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range payments {
		clientID := ""
		if p.ClientID != nil {
			clientID = p.ClientID.String()
		}
		row := []string{
			p.ID.String(),
			stringOrEmpty(p.StripePaymentID), stringOrEmpty(p.StripeCustomerID), clientID,
			strconv.FormatInt(p.AmountCents, 10), p.Currency, p.Status,
			stringOrEmpty(p.SubscriptionID),
			p.PaidAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return transport.ExportResponse{}, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return transport.ExportResponse{}, fmt.Errorf("flush csv: %w", err)
	}

	return s.upload(ctx, "payments", &buf, len(payments))
}

func (s *Service) upload(ctx context.Context, kind string, buf *bytes.Buffer, rows int) (transport.ExportResponse, error) {
	fileName := fmt.Sprintf("%s_%s.csv", kind, s.now().UTC().Format("20060102T150405Z"))
	size := int64(buf.Len())

	fileKey, err := s.store.UploadFile(ctx, s.bucket, kind, fileName, contentTypeCSV, buf, size)
	if err != nil {
		return transport.ExportResponse{}, err
	}

	presigned, err := s.store.GenerateDownloadURL(ctx, s.bucket, fileKey)
	if err != nil {
		return transport.ExportResponse{}, err
	}

	s.log.Info("export uploaded", "kind", kind, "key", fileKey, "rows", rows)
	return transport.ExportResponse{
		ObjectKey:   fileKey,
		DownloadURL: presigned.URL,
		ExpiresAt:   presigned.ExpiresAt,
		RowCount:    rows,
	}, nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func intOrEmpty(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}
