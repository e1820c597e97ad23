package piecestore_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	piecestore "github.com/dalemusser/kilntrack/internal/app/store/pieces"
	"github.com/dalemusser/kilntrack/internal/domain/errs"
	"github.com/dalemusser/kilntrack/internal/domain/models"
	"github.com/dalemusser/kilntrack/internal/testutil"
)

// runStoreSuite exercises the Store contract against one backend. Every
// backend test file calls it with its own constructor.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) piecestore.Store) {
	t.Run("CreateDefaults", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := testutil.TestContext()
		defer cancel()

		p, err := store.Create(ctx, testutil.PieceInput("Bowl", "a@x.com"))
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if p.ID == 0 {
			t.Error("expected ID to be assigned")
		}
		if p.Status != models.PieceStatusPending {
			t.Errorf("Status: got %q, want %q", p.Status, models.PieceStatusPending)
		}
		if p.FiredDate != nil {
			t.Error("expected FiredDate to be unset on a pending piece")
		}
		if p.FiringType != models.DefaultFiringType {
			t.Errorf("FiringType: got %q, want %q", p.FiringType, models.DefaultFiringType)
		}
		if p.Priority != models.PriorityNormal {
			t.Errorf("Priority: got %q, want %q", p.Priority, models.PriorityNormal)
		}
		if p.CreatedAt.IsZero() {
			t.Error("expected CreatedAt to be set")
		}
		if p.Description != "" || p.ImageURL != "" || p.ClayType != "" || p.GlazeType != "" {
			t.Errorf("expected empty optional fields, got %+v", p)
		}
	})

	t.Run("CreateKeepsProvidedFields", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := testutil.TestContext()
		defer cancel()

		desired := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
		in := testutil.PieceInput("Vase", "b@x.com")
		in.ClayType = "Grès"
		in.FiringType = "Raku"
		in.Priority = models.PriorityUrgent
		in.DesiredDate = &desired
		in.SubmittedBy.FirstName = "Bea"

		created, err := store.Create(ctx, in)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		got, err := store.Get(ctx, created.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.ClayType != "Grès" || got.FiringType != "Raku" || got.Priority != models.PriorityUrgent {
			t.Errorf("fields not persisted: %+v", got)
		}
		if got.DesiredDate == nil || !got.DesiredDate.Equal(desired) {
			t.Errorf("DesiredDate: got %v, want %v", got.DesiredDate, desired)
		}
		if got.SubmittedBy.FirstName != "Bea" {
			t.Errorf("SubmittedBy.FirstName: got %q, want %q", got.SubmittedBy.FirstName, "Bea")
		}
	})

	t.Run("CreateUniqueIDs", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := testutil.TestContext()
		defer cancel()

		seen := map[int64]bool{}
		for i := 0; i < 20; i++ {
			p, err := store.Create(ctx, testutil.PieceInput("Cup", "a@x.com"))
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			if seen[p.ID] {
				t.Fatalf("duplicate id %d", p.ID)
			}
			seen[p.ID] = true
		}
	})

	t.Run("CreateValidation", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := testutil.TestContext()
		defer cancel()

		if _, err := store.Create(ctx, testutil.PieceInput("Bowl", "a@x.com")); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		bad := []models.PieceInput{
			testutil.PieceInput("", "a@x.com"),
			testutil.PieceInput("   ", "a@x.com"),
			testutil.PieceInput("Bowl", ""),
			{Title: "Bowl", SubmittedBy: models.Submitter{Email: "a@x.com"}, Priority: "Whenever"},
		}
		for _, in := range bad {
			_, err := store.Create(ctx, in)
			if !errors.Is(err, errs.ErrValidation) {
				t.Errorf("Create(%+v): got %v, want ValidationError", in, err)
			}
		}

		all, err := store.List(ctx, "")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("store changed by failed creates: got %d pieces, want 1", len(all))
		}
	})

	t.Run("MarkFiredOnce", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := testutil.TestContext()
		defer cancel()

		p, err := store.Create(ctx, testutil.PieceInput("Bowl", "a@x.com"))
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		fired, err := store.MarkFired(ctx, p.ID)
		if err != nil {
			t.Fatalf("MarkFired failed: %v", err)
		}
		if fired.Status != models.PieceStatusFired {
			t.Errorf("Status: got %q, want %q", fired.Status, models.PieceStatusFired)
		}
		if fired.FiredDate == nil {
			t.Fatal("expected FiredDate to be set")
		}
		if fired.FiredDate.Before(fired.CreatedAt) {
			t.Errorf("FiredDate %v is before CreatedAt %v", fired.FiredDate, fired.CreatedAt)
		}

		_, err = store.MarkFired(ctx, p.ID)
		if !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("second MarkFired: got %v, want NotFoundError", err)
		}
	})

	t.Run("MarkFiredUnknown", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := testutil.TestContext()
		defer cancel()

		_, err := store.MarkFired(ctx, 12345)
		var nf *errs.NotFoundError
		if !errors.As(err, &nf) || nf.ID != 12345 {
			t.Errorf("got %v, want NotFoundError for id 12345", err)
		}
	})

	t.Run("MarkFiredMovesToHistory", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := testutil.TestContext()
		defer cancel()

		keep, _ := store.Create(ctx, testutil.PieceInput("Plate", "a@x.com"))
		p, _ := store.Create(ctx, testutil.PieceInput("Bowl", "a@x.com"))

		if _, err := store.MarkFired(ctx, p.ID); err != nil {
			t.Fatalf("MarkFired failed: %v", err)
		}

		pending, err := store.List(ctx, "a@x.com")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(pending) != 1 || pending[0].ID != keep.ID {
			t.Errorf("pending after fire: got %v, want only %d", ids(pending), keep.ID)
		}

		history, err := store.ListFired(ctx, "a@x.com")
		if err != nil {
			t.Fatalf("ListFired failed: %v", err)
		}
		if len(history) != 1 || history[0].ID != p.ID {
			t.Fatalf("history: got %v, want [%d]", ids(history), p.ID)
		}
		if history[0].Status != models.PieceStatusFired || history[0].FiredDate == nil {
			t.Errorf("history entry not fired: %+v", history[0])
		}

		got, err := store.Get(ctx, p.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !got.IsFired() {
			t.Errorf("Get after fire: status %q", got.Status)
		}
	})

	t.Run("ListByOwner", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := testutil.TestContext()
		defer cancel()

		owners := []string{"a@x.com", "b@x.com", "a@x.com", "c@x.com", "a@x.com"}
		for _, email := range owners {
			if _, err := store.Create(ctx, testutil.PieceInput("Piece", email)); err != nil {
				t.Fatalf("Create failed: %v", err)
			}
		}

		all, err := store.List(ctx, "")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		mine, err := store.List(ctx, "a@x.com")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}

		var want []int64
		for _, p := range all {
			if p.SubmittedBy.Email == "a@x.com" {
				want = append(want, p.ID)
			}
		}
		got := ids(mine)
		if len(got) != len(want) || len(got) != 3 {
			t.Fatalf("owner subset: got %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("owner subset[%d]: got %d, want %d", i, got[i], want[i])
			}
		}

		none, err := store.List(ctx, "nobody@x.com")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if none == nil || len(none) != 0 {
			t.Errorf("unknown owner: got %v, want empty non-nil slice", none)
		}
	})

	t.Run("ListInsertionOrder", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := testutil.TestContext()
		defer cancel()

		var created []int64
		for _, title := range []string{"one", "two", "three"} {
			p, err := store.Create(ctx, testutil.PieceInput(title, "a@x.com"))
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			created = append(created, p.ID)
		}

		all, err := store.List(ctx, "")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		got := ids(all)
		for i := range created {
			if got[i] != created[i] {
				t.Fatalf("order: got %v, want %v", got, created)
			}
		}
	})

	t.Run("GetUnknown", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := testutil.TestContext()
		defer cancel()

		if _, err := store.Get(ctx, 99); !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("got %v, want NotFoundError", err)
		}
	})

	t.Run("ConcurrentMarkFired", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := testutil.TestContext()
		defer cancel()

		p, err := store.Create(ctx, testutil.PieceInput("Bowl", "a@x.com"))
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		const callers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.MarkFired(context.Background(), p.ID)
				if err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
				} else if !errors.Is(err, errs.ErrNotFound) {
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		if successes != 1 {
			t.Errorf("successful MarkFired calls: got %d, want 1", successes)
		}
		history, _ := store.ListFired(ctx, "")
		if len(history) != 1 {
			t.Errorf("history length: got %d, want 1", len(history))
		}
	})

	t.Run("FiredDateNotBeforeCreatedWhenClockStepsBack", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := testutil.TestContext()
		defer cancel()

		clocked, ok := store.(interface{ SetClock(func() time.Time) })
		if !ok {
			t.Fatalf("%T has no SetClock", store)
		}
		created := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
		clocked.SetClock(func() time.Time { return created })

		p, err := store.Create(ctx, testutil.PieceInput("Bowl", "a@x.com"))
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		clocked.SetClock(func() time.Time { return created.Add(-time.Hour) })
		fired, err := store.MarkFired(ctx, p.ID)
		if err != nil {
			t.Fatalf("MarkFired failed: %v", err)
		}
		if fired.FiredDate == nil {
			t.Fatal("expected FiredDate to be set")
		}
		if fired.FiredDate.Before(fired.CreatedAt) {
			t.Errorf("FiredDate %v is before CreatedAt %v", fired.FiredDate, fired.CreatedAt)
		}
		if !fired.FiredDate.Equal(created) {
			t.Errorf("FiredDate: got %v, want clamped to %v", fired.FiredDate, created)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := testutil.TestContext()
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})
}

func ids(list []models.Piece) []int64 {
	out := make([]int64, 0, len(list))
	for _, p := range list {
		out = append(out, p.ID)
	}
	return out
}
