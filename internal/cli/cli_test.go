package cli_test

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/kilntrack/internal/app/features/pieces"
	piecestore "github.com/dalemusser/kilntrack/internal/app/store/pieces"
	"github.com/dalemusser/kilntrack/internal/app/system/lifecycle"
	"github.com/dalemusser/kilntrack/internal/cli"
	"github.com/dalemusser/kilntrack/internal/domain/errs"
	"github.com/dalemusser/kilntrack/internal/testutil"
	"github.com/fatih/color"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func init() {
	color.NoColor = true
}

func newServer(t *testing.T) (*httptest.Server, *piecestore.Memory) {
	t.Helper()
	store := piecestore.NewMemory()
	lc := lifecycle.New(store, nil, nil, zap.NewNop(), lifecycle.Config{})
	h := pieces.NewHandler(store, lc, nil, zap.NewNop())

	r := chi.NewRouter()
	r.Mount("/pieces", pieces.Routes(h))
	r.Mount("/actions", pieces.ActionRoutes(h))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, store
}

func run(t *testing.T, server, stdin string, args ...string) (string, error) {
	t.Helper()
	root := cli.NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--server", server}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	root := cli.NewRootCmd("test")
	want := map[string]bool{"list": false, "history": false, "queue": false, "stats": false, "submit": false, "fire": false}
	for _, sub := range root.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
			if sub.Short == "" {
				t.Errorf("%s should have a Short description", sub.Name())
			}
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestSubmit_ConfirmYes(t *testing.T) {
	srv, store := newServer(t)

	out, err := run(t, srv.URL, "y\n", "submit", "--title", "Bowl", "--email", "a@x.com", "--date", "2030-01-15")
	if err != nil {
		t.Fatalf("submit: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Submit this piece? [y/N]") {
		t.Errorf("expected confirmation prompt, got:\n%s", out)
	}
	if !strings.Contains(out, "submitted") {
		t.Errorf("expected submitted message, got:\n%s", out)
	}

	list, _ := store.List(context.Background(), "a@x.com")
	if len(list) != 1 || list[0].Title != "Bowl" {
		t.Fatalf("unexpected store contents %+v", list)
	}
}

func TestSubmit_DeclineCancels(t *testing.T) {
	srv, store := newServer(t)

	out, err := run(t, srv.URL, "n\n", "submit", "--title", "Bowl", "--email", "a@x.com")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !strings.Contains(out, "Cancelled") {
		t.Errorf("expected cancel message, got:\n%s", out)
	}
	if list, _ := store.List(context.Background(), ""); len(list) != 0 {
		t.Errorf("declined submission must not be stored, got %d", len(list))
	}
}

func TestSubmit_EmptyInputDeclines(t *testing.T) {
	srv, store := newServer(t)

	if _, err := run(t, srv.URL, "", "submit", "--title", "Bowl", "--email", "a@x.com"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if list, _ := store.List(context.Background(), ""); len(list) != 0 {
		t.Error("no answer must count as no")
	}
}

func TestSubmit_ValidationError(t *testing.T) {
	srv, _ := newServer(t)

	_, err := run(t, srv.URL, "", "submit", "--email", "a@x.com")
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("got %v, want validation error", err)
	}
	if msg := cli.Describe(err); !strings.Contains(msg, "title") {
		t.Errorf("Describe = %q", msg)
	}
}

func TestFire_WithYes(t *testing.T) {
	srv, store := newServer(t)
	p := testutil.NewFixtures(t, store).CreatePiece(context.Background(), "Bowl", "a@x.com")

	out, err := run(t, srv.URL, "", "fire", "--yes", itoa(p.ID))
	if err != nil {
		t.Fatalf("fire: %v\n%s", err, out)
	}
	if strings.Contains(out, "[y/N]") {
		t.Error("--yes must skip the prompt")
	}
	if !strings.Contains(out, "fired on") {
		t.Errorf("expected fired message, got:\n%s", out)
	}
	history, _ := store.ListFired(context.Background(), "")
	if len(history) != 1 || history[0].ID != p.ID {
		t.Errorf("unexpected history %+v", history)
	}

	out, err = run(t, srv.URL, "", "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "Bowl") || !strings.Contains(out, "Prêt") {
		t.Errorf("history output:\n%s", out)
	}
}

func TestFire_DeclineLeavesPending(t *testing.T) {
	srv, store := newServer(t)
	p := testutil.NewFixtures(t, store).CreatePiece(context.Background(), "Bowl", "a@x.com")

	if _, err := run(t, srv.URL, "no\n", "fire", itoa(p.ID)); err != nil {
		t.Fatalf("fire: %v", err)
	}
	got, _ := store.Get(context.Background(), p.ID)
	if !got.IsPending() {
		t.Error("declined fire must leave the piece pending")
	}
}

func TestFire_NotFound(t *testing.T) {
	srv, _ := newServer(t)

	_, err := run(t, srv.URL, "", "fire", "--yes", "999")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("got %v, want not found", err)
	}
	if _, err := run(t, srv.URL, "", "fire", "abc"); err == nil {
		t.Error("non-numeric id should fail")
	}
}

func TestListQueueStats(t *testing.T) {
	srv, store := newServer(t)
	f := testutil.NewFixtures(t, store)
	ctx := context.Background()
	f.CreatePiece(ctx, "Bowl", "a@x.com")
	f.CreatePieceDueIn(ctx, "Vase", "b@x.com", 24*time.Hour)

	out, err := run(t, srv.URL, "", "list", "--user", "a@x.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Bowl") || strings.Contains(out, "Vase") {
		t.Errorf("list output:\n%s", out)
	}

	out, err = run(t, srv.URL, "", "queue", "--sort", "urgency")
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if !strings.Contains(out, "URGENT") || strings.Index(out, "Vase") > strings.Index(out, "Bowl") {
		t.Errorf("queue output:\n%s", out)
	}

	out, err = run(t, srv.URL, "", "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "Pending: 2") || !strings.Contains(out, "Fired:   0") {
		t.Errorf("stats output:\n%s", out)
	}
}

func TestTransportErrorIsReported(t *testing.T) {
	srv, _ := newServer(t)
	url := srv.URL
	srv.Close()

	_, err := run(t, url, "", "list")
	if !errors.Is(err, errs.ErrTransport) {
		t.Fatalf("got %v, want transport error", err)
	}
	if msg := cli.Describe(err); !strings.HasPrefix(msg, "cannot reach the kilntrack server") {
		t.Errorf("Describe = %q", msg)
	}
}

func TestExecute_ExitCode(t *testing.T) {
	srv, _ := newServer(t)
	url := srv.URL
	srv.Close()

	root := cli.NewRootCmd("test")
	var errOut bytes.Buffer
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&errOut)
	root.SetArgs([]string{"--server", url, "stats"})

	if code := cli.Execute(root); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(errOut.String(), "cannot reach") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
