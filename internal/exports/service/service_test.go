package service

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	clientsrepo "coachdesk_backend/internal/clients/repository"
	paymentsrepo "coachdesk_backend/internal/payments/repository"
	"coachdesk_backend/internal/storage"
	"coachdesk_backend/platform/apperr"
	"coachdesk_backend/platform/logger"
)

type memoryStore struct {
	objects map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string]string)}
}

func (m *memoryStore) EnsureBucketExists(context.Context, string) error { return nil }

func (m *memoryStore) UploadFile(_ context.Context, _, folder, fileName, _ string, reader io.Reader, _ int64) (string, error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	key := folder + "/" + fileName
	m.objects[key] = string(body)
	return key, nil
}

func (m *memoryStore) GenerateDownloadURL(_ context.Context, _, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{
		URL:       "https://storage.local/" + fileKey,
		FileKey:   fileKey,
		ExpiresAt: time.Now().Add(storage.PresignedURLTTL),
	}, nil
}

func (m *memoryStore) DeleteObject(_ context.Context, _, fileKey string) error {
	delete(m.objects, fileKey)
	return nil
}

type staticClients struct {
	clients []clientsrepo.Client
}

func (s staticClients) List(context.Context, clientsrepo.ListParams) ([]clientsrepo.Client, error) {
	return s.clients, nil
}

type staticPayments struct {
	payments []paymentsrepo.Payment
}

func (s staticPayments) ListAll(context.Context) ([]paymentsrepo.Payment, error) {
	return s.payments, nil
}

func TestExportClientsWritesCSV(t *testing.T) {
	email := "ada@example.com"
	clients := []clientsrepo.Client{
		{
			ID:             uuid.New(),
			FirstName:      "Ada",
			LastName:       "Lovelace",
			Email:          &email,
			LifecycleState: "active",
			CreatedAt:      time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:             uuid.New(),
			FirstName:      "Solo",
			LifecycleState: "cold_lead",
			CreatedAt:      time.Date(2026, time.January, 6, 0, 0, 0, 0, time.UTC),
		},
	}
	store := newMemoryStore()
	svc := New(staticClients{clients}, staticPayments{}, store, "exports", logger.New("test"))

	resp, err := svc.ExportClients(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if resp.RowCount != 2 {
		t.Errorf("row count = %d, want 2", resp.RowCount)
	}
	if !strings.HasPrefix(resp.DownloadURL, "https://storage.local/clients/") {
		t.Errorf("download url = %s", resp.DownloadURL)
	}

	body, ok := store.objects[resp.ObjectKey]
	if !ok {
		t.Fatalf("object %s was not uploaded", resp.ObjectKey)
	}
	records, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("csv rows = %d, want header + 2", len(records))
	}
	if records[0][0] != "id" || records[1][1] != "Ada" {
		t.Errorf("unexpected csv layout: %v", records[:2])
	}
	// Nil fields serialize as empty cells, not "nil".
	if records[2][3] != "" {
		t.Errorf("missing email must be empty, got %q", records[2][3])
	}
}

func TestExportPaymentsWritesCSV(t *testing.T) {
	paymentID := "ch_1"
	payments := []paymentsrepo.Payment{
		{
			ID:              uuid.New(),
			StripePaymentID: &paymentID,
			AmountCents:     5000,
			Currency:        "usd",
			Status:          paymentsrepo.StatusSucceeded,
			PaidAt:          time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	store := newMemoryStore()
	svc := New(staticClients{}, staticPayments{payments}, store, "exports", logger.New("test"))

	resp, err := svc.ExportPayments(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if resp.RowCount != 1 {
		t.Errorf("row count = %d, want 1", resp.RowCount)
	}

	body := store.objects[resp.ObjectKey]
	records, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 2 || records[1][1] != "ch_1" || records[1][4] != "5000" {
		t.Errorf("unexpected csv content: %v", records)
	}
}

func TestExportWithoutStorageConfigured(t *testing.T) {
	svc := New(staticClients{}, staticPayments{}, nil, "exports", logger.New("test"))

	if _, err := svc.ExportClients(context.Background()); apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
