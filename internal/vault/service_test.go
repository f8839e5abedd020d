package vault

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/quillmar/vaultgate/internal/obsidian"
	"github.com/quillmar/vaultgate/internal/whitelist"
)

// fakeStore is a canned Store implementation that records which paths
// were actually requested.
type fakeStore struct {
	vaultFiles []string
	dirFiles   map[string][]string
	contents   map[string]string
	simple     []obsidian.SimpleSearchResult
	queryRows  []obsidian.QueryResult
	dqlRows    []obsidian.QueryResult
	periodic   obsidian.Note
	recent     []obsidian.Note
	err        error

	requestedPaths []string
	lastDQL        string
}

func notFoundErr() error {
	return &obsidian.APIError{Status: http.StatusNotFound, Code: 40404, Message: "File does not exist."}
}

func (f *fakeStore) ListVault(ctx context.Context) ([]string, error) {
	return f.vaultFiles, f.err
}

func (f *fakeStore) ListDir(ctx context.Context, dir string) ([]string, error) {
	f.requestedPaths = append(f.requestedPaths, dir)
	if f.err != nil {
		return nil, f.err
	}
	files, ok := f.dirFiles[dir]
	if !ok {
		return nil, notFoundErr()
	}
	return files, nil
}

func (f *fakeStore) FileContents(ctx context.Context, path string) (string, error) {
	f.requestedPaths = append(f.requestedPaths, path)
	if f.err != nil {
		return "", f.err
	}
	content, ok := f.contents[path]
	if !ok {
		return "", notFoundErr()
	}
	return content, nil
}

func (f *fakeStore) SearchSimple(ctx context.Context, query string, contextLength int) ([]obsidian.SimpleSearchResult, error) {
	return f.simple, f.err
}

func (f *fakeStore) SearchJSONLogic(ctx context.Context, query map[string]any) ([]obsidian.QueryResult, error) {
	return f.queryRows, f.err
}

func (f *fakeStore) SearchDQL(ctx context.Context, dql string) ([]obsidian.QueryResult, error) {
	f.lastDQL = dql
	return f.dqlRows, f.err
}

func (f *fakeStore) PeriodicNote(ctx context.Context, period string) (obsidian.Note, error) {
	if f.err != nil {
		return obsidian.Note{}, f.err
	}
	return f.periodic, nil
}

func (f *fakeStore) RecentPeriodicNotes(ctx context.Context, period string, limit int, includeContent bool) ([]obsidian.Note, error) {
	return f.recent, f.err
}

func newService(store *fakeStore, patterns ...string) *Service {
	return New(store, whitelist.New(patterns))
}

func TestListFilesInVault_FiltersListing(t *testing.T) {
	store := &fakeStore{vaultFiles: []string{"Work/a.md", "Personal/b.md", "c.md", "d.txt"}}
	svc := newService(store, "Work/", "*.md")

	got, err := svc.ListFilesInVault(context.Background())
	if err != nil {
		t.Fatalf("ListFilesInVault() error = %v", err)
	}
	want := []string{"Work/a.md", "c.md"}
	if len(got) != len(want) {
		t.Fatalf("ListFilesInVault() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListFilesInVault()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestListFilesInVault_UnrestrictedPassesThrough(t *testing.T) {
	files := []string{"a.md", "b.txt", ".obsidian/app.json"}
	store := &fakeStore{vaultFiles: files}
	svc := newService(store)

	got, err := svc.ListFilesInVault(context.Background())
	if err != nil {
		t.Fatalf("ListFilesInVault() error = %v", err)
	}
	if len(got) != len(files) {
		t.Errorf("ListFilesInVault() = %v, want unmodified %v", got, files)
	}
}

func TestListFilesInDir(t *testing.T) {
	t.Run("denied directory rejected before store call", func(t *testing.T) {
		store := &fakeStore{dirFiles: map[string][]string{"Personal": {"b.md"}}}
		svc := newService(store, "Work/")

		_, err := svc.ListFilesInDir(context.Background(), "Personal")
		if !errors.Is(err, ErrNotPermitted) {
			t.Fatalf("error = %v, want ErrNotPermitted", err)
		}
		if len(store.requestedPaths) != 0 {
			t.Errorf("store was called for %v, want no calls", store.requestedPaths)
		}
	})

	t.Run("children filtered", func(t *testing.T) {
		store := &fakeStore{dirFiles: map[string][]string{
			"Work": {"plan.md", "secret.txt", "sub/"},
		}}
		svc := newService(store, "Work", "Work/plan.md", "Work/sub/")

		got, err := svc.ListFilesInDir(context.Background(), "Work")
		if err != nil {
			t.Fatalf("ListFilesInDir() error = %v", err)
		}
		want := []string{"plan.md", "sub/"}
		if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
			t.Errorf("ListFilesInDir() = %v, want %v", got, want)
		}
	})

	t.Run("prefix pattern admits bare directory argument", func(t *testing.T) {
		store := &fakeStore{dirFiles: map[string][]string{"Work": {"a.md"}}}
		svc := newService(store, "Work/")

		got, err := svc.ListFilesInDir(context.Background(), "Work")
		if err != nil {
			t.Fatalf("ListFilesInDir() error = %v", err)
		}
		if len(got) != 1 || got[0] != "a.md" {
			t.Errorf("ListFilesInDir() = %v, want [a.md]", got)
		}
	})

	t.Run("empty path invalid", func(t *testing.T) {
		svc := newService(&fakeStore{})
		if _, err := svc.ListFilesInDir(context.Background(), "  "); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("error = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestFileContents(t *testing.T) {
	t.Run("allowed by glob", func(t *testing.T) {
		store := &fakeStore{contents: map[string]string{"docs/sub/readme.md": "hello"}}
		svc := newService(store, "docs/**")

		got, err := svc.FileContents(context.Background(), "docs/sub/readme.md")
		if err != nil {
			t.Fatalf("FileContents() error = %v", err)
		}
		if got != "hello" {
			t.Errorf("FileContents() = %q, want %q", got, "hello")
		}
	})

	t.Run("denied before store call", func(t *testing.T) {
		store := &fakeStore{contents: map[string]string{"readme.md": "root"}}
		svc := newService(store, "docs/**")

		_, err := svc.FileContents(context.Background(), "readme.md")
		if !errors.Is(err, ErrNotPermitted) {
			t.Fatalf("error = %v, want ErrNotPermitted", err)
		}
		if len(store.requestedPaths) != 0 {
			t.Errorf("store was called for %v, want no calls", store.requestedPaths)
		}
	})

	t.Run("denial independent of existence", func(t *testing.T) {
		// The response for a disallowed path must not reveal whether
		// the file exists: both cases return the identical error.
		existing := &fakeStore{contents: map[string]string{"Personal/b.md": "x"}}
		missing := &fakeStore{contents: map[string]string{}}

		_, errExisting := newService(existing, "Work/").FileContents(context.Background(), "Personal/b.md")
		_, errMissing := newService(missing, "Work/").FileContents(context.Background(), "Personal/b.md")

		if errExisting == nil || errMissing == nil {
			t.Fatal("expected errors for both denied paths")
		}
		if errExisting.Error() != errMissing.Error() {
			t.Errorf("denial leaks existence: %q vs %q", errExisting, errMissing)
		}
		if len(existing.requestedPaths)+len(missing.requestedPaths) != 0 {
			t.Error("store called for denied path")
		}
	})

	t.Run("upstream 404 on allowed path", func(t *testing.T) {
		svc := newService(&fakeStore{contents: map[string]string{}}, "Work/")
		_, err := svc.FileContents(context.Background(), "Work/gone.md")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("upstream failure propagates", func(t *testing.T) {
		boom := errors.New("connection refused")
		svc := newService(&fakeStore{err: boom})
		if _, err := svc.FileContents(context.Background(), "a.md"); !errors.Is(err, boom) {
			t.Errorf("error = %v, want wrapped %v", err, boom)
		}
	})

	t.Run("path traversal rejected", func(t *testing.T) {
		svc := newService(&fakeStore{})
		if _, err := svc.FileContents(context.Background(), "../etc/passwd"); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("error = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestBatchFileContents(t *testing.T) {
	store := &fakeStore{contents: map[string]string{
		"Work/a.md": "alpha",
		"Work/b.md": "beta",
	}}
	svc := newService(store, "Work/")

	out, err := svc.BatchFileContents(context.Background(), []string{"Work/a.md", "Personal/c.md", "Work/b.md"})
	if err != nil {
		t.Fatalf("BatchFileContents() error = %v", err)
	}

	if !strings.Contains(out, "# Work/a.md\n\nalpha\n\n---\n\n") {
		t.Errorf("output missing first file section:\n%s", out)
	}
	if !strings.Contains(out, "# Work/b.md\n\nbeta\n\n---\n\n") {
		t.Errorf("output missing second file section:\n%s", out)
	}
	// Denied path gets a per-path denial section, never its content.
	if !strings.Contains(out, "# Personal/c.md") {
		t.Errorf("output missing denial section header:\n%s", out)
	}
	if !strings.Contains(out, ErrNotPermitted.Error()) {
		t.Errorf("denial section missing denial message:\n%s", out)
	}

	// The denied path must never reach the store.
	for _, p := range store.requestedPaths {
		if p == "Personal/c.md" {
			t.Error("store was called for denied path Personal/c.md")
		}
	}

	t.Run("empty input invalid", func(t *testing.T) {
		if _, err := svc.BatchFileContents(context.Background(), nil); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("error = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestSearch(t *testing.T) {
	store := &fakeStore{simple: []obsidian.SimpleSearchResult{
		{Filename: "Work/plan.md", Score: 2, Matches: []obsidian.SearchMatch{{Context: "the project plan"}}},
		{Filename: "Personal/notes.md", Score: 1, Matches: []obsidian.SearchMatch{{Context: "project ideas"}}},
	}}
	svc := newService(store, "Work/")

	got, err := svc.Search(context.Background(), "project", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 || got[0].Filename != "Work/plan.md" {
		t.Errorf("Search() = %+v, want only the Work/plan.md hit", got)
	}

	t.Run("empty query invalid", func(t *testing.T) {
		if _, err := svc.Search(context.Background(), "   ", 0); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("error = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestComplexSearch(t *testing.T) {
	store := &fakeStore{queryRows: []obsidian.QueryResult{
		{Filename: "Work/plan.md", Result: map[string]any{"tags": []any{"#todo"}}},
		{Filename: "Personal/diary.md", Result: map[string]any{"tags": []any{"#todo"}}},
	}}
	svc := newService(store, "Work/")

	query := map[string]any{"in": []any{"#todo", map[string]any{"var": "tags"}}}
	got, err := svc.ComplexSearch(context.Background(), query)
	if err != nil {
		t.Fatalf("ComplexSearch() error = %v", err)
	}
	if len(got) != 1 || got[0].Filename != "Work/plan.md" {
		t.Errorf("ComplexSearch() = %+v, want only Work/plan.md", got)
	}

	t.Run("empty query invalid", func(t *testing.T) {
		if _, err := svc.ComplexSearch(context.Background(), nil); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("error = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestPeriodicNote(t *testing.T) {
	t.Run("allowed", func(t *testing.T) {
		store := &fakeStore{periodic: obsidian.Note{Path: "Journal/2026-08-23.md", Content: "today"}}
		svc := newService(store, "Journal/")

		note, err := svc.PeriodicNote(context.Background(), "daily")
		if err != nil {
			t.Fatalf("PeriodicNote() error = %v", err)
		}
		if note.Content != "today" {
			t.Errorf("Content = %q", note.Content)
		}
	})

	t.Run("disallowed resolved path treated as absent", func(t *testing.T) {
		store := &fakeStore{periodic: obsidian.Note{Path: "Journal/2026-08-23.md"}}
		svc := newService(store, "Work/")

		_, err := svc.PeriodicNote(context.Background(), "daily")
		if !errors.Is(err, ErrNotPermitted) {
			t.Errorf("error = %v, want ErrNotPermitted", err)
		}
	})

	t.Run("unknown period invalid", func(t *testing.T) {
		svc := newService(&fakeStore{})
		if _, err := svc.PeriodicNote(context.Background(), "hourly"); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("no periodic note configured", func(t *testing.T) {
		svc := newService(&fakeStore{err: notFoundErr()})
		if _, err := svc.PeriodicNote(context.Background(), "daily"); !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestRecentPeriodicNotes(t *testing.T) {
	store := &fakeStore{recent: []obsidian.Note{
		{Path: "Journal/2026-08-23.md"},
		{Path: "Archive/2026-08-22.md"},
		{Path: "Journal/2026-08-21.md"},
	}}
	svc := newService(store, "Journal/")

	notes, err := svc.RecentPeriodicNotes(context.Background(), "daily", 0, false)
	if err != nil {
		t.Fatalf("RecentPeriodicNotes() error = %v", err)
	}
	if len(notes) != 2 || notes[0].Path != "Journal/2026-08-23.md" || notes[1].Path != "Journal/2026-08-21.md" {
		t.Errorf("RecentPeriodicNotes() = %+v", notes)
	}

	t.Run("unknown period invalid", func(t *testing.T) {
		if _, err := svc.RecentPeriodicNotes(context.Background(), "fortnightly", 5, false); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("error = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestRecentChanges_FilterBeforeTruncate(t *testing.T) {
	// Newest first from the store; the disallowed entry must not count
	// against the caller's limit.
	store := &fakeStore{dqlRows: []obsidian.QueryResult{
		{Filename: "Personal/x.md", Result: map[string]any{"file.mtime": "2026-08-23T10:00"}},
		{Filename: "Work/y.md", Result: map[string]any{"file.mtime": "2026-08-22T10:00"}},
		{Filename: "Work/z.md", Result: map[string]any{"file.mtime": "2026-08-21T10:00"}},
	}}
	svc := newService(store, "Work/")

	got, err := svc.RecentChanges(context.Background(), 2, 90)
	if err != nil {
		t.Fatalf("RecentChanges() error = %v", err)
	}
	if len(got) != 2 || got[0].Path != "Work/y.md" || got[1].Path != "Work/z.md" {
		t.Errorf("RecentChanges() = %+v, want [Work/y.md Work/z.md]", got)
	}
	if got[0].Modified != "2026-08-22T10:00" {
		t.Errorf("Modified = %q", got[0].Modified)
	}

	// The upstream query must not embed a LIMIT: truncation happens
	// after filtering, in this layer.
	if strings.Contains(store.lastDQL, "LIMIT") {
		t.Errorf("DQL query carries an upstream LIMIT:\n%s", store.lastDQL)
	}
	if !strings.Contains(store.lastDQL, "dur(90 days)") {
		t.Errorf("DQL query missing days window:\n%s", store.lastDQL)
	}
}

func TestAllTags(t *testing.T) {
	store := &fakeStore{dqlRows: []obsidian.QueryResult{
		{Filename: "Work/plan.md", Result: map[string]any{"file.tags": []any{"#project", "#todo"}}},
		{Filename: "Personal/diary.md", Result: map[string]any{"file.tags": []any{"#private", "#todo"}}},
		{Filename: "Work/meeting.md", Result: map[string]any{"file.tags": []any{"#meeting", ""}}},
	}}

	t.Run("tags inherit source-note visibility", func(t *testing.T) {
		svc := newService(store, "Work/")
		got, err := svc.AllTags(context.Background())
		if err != nil {
			t.Fatalf("AllTags() error = %v", err)
		}
		// #private appears only in a disallowed note and is excluded;
		// #todo survives via the allowed Work/plan.md.
		want := []string{"#meeting", "#project", "#todo"}
		if len(got) != len(want) {
			t.Fatalf("AllTags() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("AllTags()[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("unrestricted returns all tags", func(t *testing.T) {
		svc := newService(store)
		got, err := svc.AllTags(context.Background())
		if err != nil {
			t.Fatalf("AllTags() error = %v", err)
		}
		want := []string{"#meeting", "#private", "#project", "#todo"}
		if len(got) != len(want) {
			t.Fatalf("AllTags() = %v, want %v", got, want)
		}
	})
}

func TestUnrestrictedPassThrough(t *testing.T) {
	// With an empty whitelist every operation returns the store's
	// result unmodified.
	store := &fakeStore{
		vaultFiles: []string{"a.md", "b.txt"},
		dirFiles:   map[string][]string{"dir": {"c.md"}},
		contents:   map[string]string{"a.md": "alpha"},
		simple:     []obsidian.SimpleSearchResult{{Filename: "a.md"}, {Filename: "b.txt"}},
		dqlRows: []obsidian.QueryResult{
			{Filename: "a.md", Result: map[string]any{"file.mtime": "now"}},
		},
		periodic: obsidian.Note{Path: "daily.md", Content: "x"},
	}
	svc := newService(store)
	ctx := context.Background()

	if files, err := svc.ListFilesInVault(ctx); err != nil || len(files) != 2 {
		t.Errorf("ListFilesInVault() = %v, %v", files, err)
	}
	if files, err := svc.ListFilesInDir(ctx, "dir"); err != nil || len(files) != 1 {
		t.Errorf("ListFilesInDir() = %v, %v", files, err)
	}
	if content, err := svc.FileContents(ctx, "a.md"); err != nil || content != "alpha" {
		t.Errorf("FileContents() = %q, %v", content, err)
	}
	if hits, err := svc.Search(ctx, "q", 0); err != nil || len(hits) != 2 {
		t.Errorf("Search() = %v, %v", hits, err)
	}
	if changes, err := svc.RecentChanges(ctx, 10, 90); err != nil || len(changes) != 1 {
		t.Errorf("RecentChanges() = %v, %v", changes, err)
	}
	if note, err := svc.PeriodicNote(ctx, "daily"); err != nil || note.Content != "x" {
		t.Errorf("PeriodicNote() = %+v, %v", note, err)
	}
}
