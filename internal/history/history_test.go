package history

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/tcb-dev/claudebridge/internal/models"
)

func openTestStore(t *testing.T, maxRounds int) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"), maxRounds)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRollingEviction(t *testing.T) {
	t.Parallel()

	const maxRounds = 3
	store := openTestStore(t, maxRounds)
	ctx := context.Background()

	// 2*maxRounds+2 appends must leave exactly 2*maxRounds turns with the
	// oldest two gone.
	total := 2*maxRounds + 2
	for i := 0; i < total; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		if err := store.Append(ctx, "chat1", role, fmt.Sprintf("turn %d", i)); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	turns, err := store.Read(ctx, "chat1")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(turns) != 2*maxRounds {
		t.Fatalf("expected %d turns, got %d", 2*maxRounds, len(turns))
	}
	if turns[0].Content != "turn 2" {
		t.Fatalf("oldest turns not evicted first, head is %q", turns[0].Content)
	}
	if turns[len(turns)-1].Content != fmt.Sprintf("turn %d", total-1) {
		t.Fatalf("newest turn missing, tail is %q", turns[len(turns)-1].Content)
	}
}

func TestClearThenAppendRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTestStore(t, 10)
	ctx := context.Background()

	if err := store.Append(ctx, "chat1", models.RoleUser, "old"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Clear(ctx, "chat1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := store.Append(ctx, "chat1", models.RoleUser, "A"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	turns, err := store.Read(ctx, "chat1")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(turns) != 1 || turns[0].Content != "A" || turns[0].Role != models.RoleUser {
		t.Fatalf("expected exactly [A], got %+v", turns)
	}
}

func TestReloadReproducesSequence(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := Open(path, 10)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	want := []string{"hello", "hi there", "how are you"}
	roles := []models.Role{models.RoleUser, models.RoleAssistant, models.RoleUser}
	for i, content := range want {
		if err := store.Append(ctx, "chat1", roles[i], content); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	store.Close()

	reopened, err := Open(path, 10)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	turns, err := reopened.Read(ctx, "chat1")
	if err != nil {
		t.Fatalf("Read after reopen: %v", err)
	}
	if len(turns) != len(want) {
		t.Fatalf("expected %d turns after reload, got %d", len(want), len(turns))
	}
	for i, turn := range turns {
		if turn.Content != want[i] || turn.Role != roles[i] {
			t.Fatalf("turn %d mismatch: %+v", i, turn)
		}
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	t.Parallel()

	store := openTestStore(t, 10)
	ctx := context.Background()

	if err := store.Append(ctx, "chatA", models.RoleUser, "for A"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Append(ctx, "chatB", models.RoleUser, "for B"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Clear(ctx, "chatA"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	turns, err := store.Read(ctx, "chatB")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(turns) != 1 || turns[0].Content != "for B" {
		t.Fatalf("clearing chatA disturbed chatB: %+v", turns)
	}
}

func TestConcurrentAppendsSameSession(t *testing.T) {
	t.Parallel()

	const maxRounds = 50
	store := openTestStore(t, maxRounds)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Append(ctx, "chat1", models.RoleUser, fmt.Sprintf("msg %d", i))
		}(i)
	}
	wg.Wait()

	n, err := store.Len(ctx, "chat1")
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 20 {
		t.Fatalf("expected 20 turns after concurrent appends, got %d", n)
	}
}
