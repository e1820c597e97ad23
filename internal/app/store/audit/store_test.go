package audit_test

import (
	"testing"

	"github.com/dalemusser/kilntrack/internal/app/store/audit"
	"github.com/dalemusser/kilntrack/internal/testutil"
)

func TestStore_LogAndQueryByPiece(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, ev := range []audit.Event{
		{Category: audit.CategoryLifecycle, EventType: audit.EventPieceSubmitted, PieceID: 1, Success: true},
		{Category: audit.CategoryLifecycle, EventType: audit.EventPieceSubmitted, PieceID: 2, Success: true},
		{Category: audit.CategoryLifecycle, EventType: audit.EventPieceFired, PieceID: 1, Success: true},
	} {
		if err := store.Log(ctx, ev); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	events, err := store.Query(ctx, audit.QueryFilter{PieceID: 1})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].EventType != audit.EventPieceSubmitted || events[1].EventType != audit.EventPieceFired {
		t.Errorf("unexpected order: %s, %s", events[0].EventType, events[1].EventType)
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestStore_QueryByType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_ = store.Log(ctx, audit.Event{Category: audit.CategoryLifecycle, EventType: audit.EventActionStaged, PieceID: 3})
	_ = store.Log(ctx, audit.Event{Category: audit.CategoryLifecycle, EventType: audit.EventActionCancelled, PieceID: 3})

	events, err := store.Query(ctx, audit.QueryFilter{EventType: audit.EventActionCancelled})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 || events[0].PieceID != 3 {
		t.Errorf("got %+v", events)
	}
}

func TestStore_QueryEmpty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	events, err := store.Query(ctx, audit.QueryFilter{PieceID: 404})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if events == nil || len(events) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", events)
	}
}
