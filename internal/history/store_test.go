package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "history.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestAddAndRecent(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		err := s.Add(ctx, Entry{
			ID:        fmt.Sprintf("id-%d", i),
			URL:       "https://x.test/v",
			Title:     fmt.Sprintf("Clip %d", i),
			Mode:      "video",
			Format:    "best",
			Filename:  fmt.Sprintf("Clip %d.mp4", i),
			Size:      int64(i * 100),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Add() error: %v", err)
		}
	}

	got, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "id-2" || got[1].ID != "id-1" {
		t.Fatalf("Recent(2) = %+v", got)
	}
	if !got[0].CreatedAt.Equal(base.Add(2*time.Minute)) || got[0].Size != 200 {
		t.Errorf("entry = %+v", got[0])
	}
}

func TestAddReplacesSameID(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	s.Add(ctx, Entry{ID: "a", URL: "https://x.test/1", Title: "first"})
	s.Add(ctx, Entry{ID: "a", URL: "https://x.test/1", Title: "second"})

	got, _ := s.Recent(ctx, 0)
	if len(got) != 1 || got[0].Title != "second" {
		t.Errorf("Recent() = %+v", got)
	}
}

func TestRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	s.Add(ctx, Entry{ID: "a", URL: "u"})
	s.Add(ctx, Entry{ID: "b", URL: "u"})
	s.Add(ctx, Entry{ID: "c", URL: "u"})

	ok, err := s.Remove(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("Remove(a) = %v, %v", ok, err)
	}
	if ok, _ := s.Remove(ctx, "a"); ok {
		t.Error("second Remove(a) should report missing")
	}

	n, err := s.Clear(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Clear() = %d, %v", n, err)
	}
	got, _ := s.Recent(ctx, 10)
	if len(got) != 0 {
		t.Errorf("entries left after Clear: %+v", got)
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultLimit},
		{-5, DefaultLimit},
		{7, 7},
		{1000, MaxLimit},
	}
	for _, tt := range tests {
		if got := ClampLimit(tt.in); got != tt.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
