package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestIdempotencyRepository_PostgresCreateAndReplay(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	repo := NewIdempotencyRepository(store)

	record, err := repo.CreateProcessing("key-1", "hash-1", time.Time{})
	if err != nil {
		t.Fatalf("create processing: %v", err)
	}
	if record.Status != domain.IdempotencyStatusProcessing {
		t.Fatalf("expected processing status, got %s", record.Status)
	}

	// Повтор того же запроса возвращает существующую запись.
	replay, err := repo.CreateProcessing("key-1", "hash-1", time.Time{})
	if !errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists) {
		t.Fatalf("expected ErrIdempotencyKeyAlreadyExists, got %v", err)
	}
	if replay.Key != "key-1" {
		t.Fatalf("unexpected replay record: %+v", replay)
	}

	// Тот же ключ с другим телом запроса отклоняется.
	if _, err := repo.CreateProcessing("key-1", "hash-2", time.Time{}); !errors.Is(err, domain.ErrIdempotencyHashMismatch) {
		t.Fatalf("expected ErrIdempotencyHashMismatch, got %v", err)
	}

	if err := repo.MarkDone("key-1", []byte(`{"order_id":"order-1"}`), 200); err != nil {
		t.Fatalf("mark done: %v", err)
	}

	done, err := repo.Get("key-1")
	if err != nil {
		t.Fatalf("get done record: %v", err)
	}
	if done.Status != domain.IdempotencyStatusDone || done.HTTPStatus != 200 {
		t.Fatalf("unexpected done record: %+v", done)
	}
	if string(done.ResponseBody) != `{"order_id":"order-1"}` {
		t.Fatalf("unexpected stored response: %s", done.ResponseBody)
	}

	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
		t.Fatalf("expected ErrIdempotencyKeyNotFound, got %v", err)
	}
}

func TestIdempotencyRepository_PostgresDeleteExpired(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	repo := NewIdempotencyRepository(store)

	now := time.Now().UTC()
	if _, err := repo.CreateProcessing("expired-1", "hash", now.Add(-time.Hour)); err != nil {
		t.Fatalf("create expired-1: %v", err)
	}
	if _, err := repo.CreateProcessing("expired-2", "hash", now.Add(-time.Minute)); err != nil {
		t.Fatalf("create expired-2: %v", err)
	}
	if _, err := repo.CreateProcessing("alive", "hash", now.Add(time.Hour)); err != nil {
		t.Fatalf("create alive: %v", err)
	}

	removed, err := repo.DeleteExpired(now, 10)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed keys, got %d", removed)
	}

	if _, err := repo.Get("alive"); err != nil {
		t.Fatalf("alive key must survive cleanup: %v", err)
	}
}
