package memory

import (
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "memory_test.db")
	s, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore(%q): %v", dbPath, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDefaultProjectCreated(t *testing.T) {
	s := testStore(t)

	if s.DefaultProjectID() == 0 {
		t.Fatal("expected a default project id")
	}

	p, err := s.GetProject(s.DefaultProjectID())
	if err != nil {
		t.Fatalf("GetProject(default): %v", err)
	}
	if p.Name != DefaultProjectName {
		t.Errorf("default project name = %q, want %q", p.Name, DefaultProjectName)
	}
}

func TestAddAndRecent(t *testing.T) {
	s := testStore(t)

	for _, content := range []string{"one", "two", "three", "four"} {
		if err := s.AddMessage("user", content, 0); err != nil {
			t.Fatalf("AddMessage(%q): %v", content, err)
		}
	}

	got, err := s.Recent(3, 0)
	if err != nil {
		t.Fatalf("Recent(): %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent(3) returned %d messages, want 3", len(got))
	}

	// Oldest first, last three only.
	want := []string{"two", "three", "four"}
	for i, m := range got {
		if m.Content != want[i] {
			t.Errorf("Recent()[%d] = %q, want %q", i, m.Content, want[i])
		}
	}
}

func TestRecentScopedToProject(t *testing.T) {
	s := testStore(t)

	other, err := s.CreateProject("Biology", "", "")
	if err != nil {
		t.Fatalf("CreateProject(): %v", err)
	}

	if err := s.AddMessage("user", "default scope", 0); err != nil {
		t.Fatal(err)
	}
	if err := s.AddMessage("user", "biology scope", other); err != nil {
		t.Fatal(err)
	}

	got, err := s.Recent(10, other)
	if err != nil {
		t.Fatalf("Recent(): %v", err)
	}
	if len(got) != 1 || got[0].Content != "biology scope" {
		t.Errorf("Recent(other) = %+v, want only the biology message", got)
	}
}

func TestEmptyContentPermitted(t *testing.T) {
	s := testStore(t)

	if err := s.AddMessage("assistant", "", 0); err != nil {
		t.Fatalf("AddMessage with empty content: %v", err)
	}
	count, err := s.CountMessages(0)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("CountMessages() = %d, want 1", count)
	}
}

func TestSearch(t *testing.T) {
	s := testStore(t)

	for _, content := range []string{
		"the midterm is on friday",
		"dinner plans tonight",
		"study for the Midterm exam",
	} {
		if err := s.AddMessage("user", content, 0); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Search("midterm", 10, 0)
	if err != nil {
		t.Fatalf("Search(): %v", err)
	}
	// LIKE matching is case-insensitive for ASCII.
	if len(got) != 2 {
		t.Fatalf("Search(midterm) returned %d results, want 2", len(got))
	}
	// Newest first.
	if got[0].Content != "study for the Midterm exam" {
		t.Errorf("Search()[0] = %q, want newest match first", got[0].Content)
	}
}

func TestSearchScoped(t *testing.T) {
	s := testStore(t)

	other, err := s.CreateProject("History", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddMessage("user", "midterm in default", 0); err != nil {
		t.Fatal(err)
	}
	if err := s.AddMessage("user", "midterm in history", other); err != nil {
		t.Fatal(err)
	}

	got, err := s.Search("midterm", 10, other)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Content != "midterm in history" {
		t.Errorf("scoped Search() = %+v, want only the history match", got)
	}
}

func TestClearMessages(t *testing.T) {
	s := testStore(t)

	other, err := s.CreateProject("Chem", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddMessage("user", "keep me", other); err != nil {
		t.Fatal(err)
	}
	if err := s.AddMessage("user", "clear me", 0); err != nil {
		t.Fatal(err)
	}

	if err := s.ClearMessages(0); err != nil {
		t.Fatalf("ClearMessages(): %v", err)
	}

	count, err := s.CountMessages(0)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("CountMessages(default) = %d after clear, want 0", count)
	}

	otherCount, err := s.CountMessages(other)
	if err != nil {
		t.Fatal(err)
	}
	if otherCount != 1 {
		t.Errorf("CountMessages(other) = %d, want 1 (unaffected)", otherCount)
	}
}

func TestDigest(t *testing.T) {
	s := testStore(t)

	digest, err := s.Digest(7, 0)
	if err != nil {
		t.Fatal(err)
	}
	if digest != "" {
		t.Errorf("Digest() on empty store = %q, want empty", digest)
	}

	if err := s.AddMessage("user", "hello", 0); err != nil {
		t.Fatal(err)
	}
	if err := s.AddMessage("assistant", "hi", 0); err != nil {
		t.Fatal(err)
	}

	digest, err = s.Digest(7, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := "Last 7 days: 2 messages (1 from user)"
	if digest != want {
		t.Errorf("Digest() = %q, want %q", digest, want)
	}
}
