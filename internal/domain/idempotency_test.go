package domain

import (
	"net/http"
	"testing"
	"time"
)

func TestIdempotency_KeyIsScopedToUserAndOperation(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	exp := time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)
	rec := func(id, user, scope string) *Idempotency {
		return &Idempotency{
			ID: id, UserID: user, Scope: scope, Key: "retry-7",
			ResourceID: "r-" + id, Status: http.StatusCreated, ExpiresAt: exp,
		}
	}

	inserts := []struct {
		rec    *Idempotency
		unique bool
	}{
		{rec("1", "b1", "POST /api/v1/rfq"), true},
		{rec("2", "b1", "POST /api/v1/rfq"), false},
		{rec("3", "b2", "POST /api/v1/rfq"), true},
		{rec("4", "b1", "POST /api/v1/rfq/:id/quotations"), true},
	}
	for _, in := range inserts {
		err := db.Create(in.rec).Error
		if in.unique && err != nil {
			t.Fatalf("insert %s: %v", in.rec.ID, err)
		}
		if !in.unique && err == nil {
			t.Fatalf("insert %s: want unique violation on (user_id, scope, key)", in.rec.ID)
		}
	}

	var got Idempotency
	if err := db.Take(&got, "id = ?", "1").Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.CreatedAt.IsZero() {
		t.Errorf("CreatedAt not filled on insert")
	}
	if !got.ExpiresAt.Equal(exp) || got.ResourceID != "r-1" {
		t.Errorf("row = %+v", got)
	}
}
