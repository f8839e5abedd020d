// Package vault provides the access-controlled query façade over the
// Obsidian REST store. Every path a result would expose is checked
// against the whitelist before it reaches the caller.
package vault

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/quillmar/vaultgate/internal/logging"
	"github.com/quillmar/vaultgate/internal/obsidian"
	"github.com/quillmar/vaultgate/internal/whitelist"
)

// Sentinel errors surfaced by the façade. ErrNotPermitted deliberately
// reads "not found or not permitted": a denied path must not be
// distinguishable, from the response alone, from a nonexistent one.
var (
	ErrNotPermitted    = errors.New("not found or not permitted")
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Period identifiers accepted by the periodic-note operations.
var validPeriods = map[string]bool{
	"daily":     true,
	"weekly":    true,
	"monthly":   true,
	"quarterly": true,
	"yearly":    true,
}

const (
	defaultContextLength = 100
	defaultRecentLimit   = 10
	defaultRecentDays    = 90
	defaultPeriodicLimit = 5
	maxPeriodicLimit     = 50
)

// Store is the underlying vault query capability the façade gates. It is
// implemented by *obsidian.Client.
type Store interface {
	ListVault(ctx context.Context) ([]string, error)
	ListDir(ctx context.Context, dir string) ([]string, error)
	FileContents(ctx context.Context, path string) (string, error)
	SearchSimple(ctx context.Context, query string, contextLength int) ([]obsidian.SimpleSearchResult, error)
	SearchJSONLogic(ctx context.Context, query map[string]any) ([]obsidian.QueryResult, error)
	SearchDQL(ctx context.Context, dql string) ([]obsidian.QueryResult, error)
	PeriodicNote(ctx context.Context, period string) (obsidian.Note, error)
	RecentPeriodicNotes(ctx context.Context, period string, limit int, includeContent bool) ([]obsidian.Note, error)
}

// Service enforces the whitelist across every read operation. It is
// stateless per call; the whitelist is immutable after construction.
type Service struct {
	store Store
	wl    *whitelist.Whitelist
}

// New creates a Service gating store with wl.
func New(store Store, wl *whitelist.Whitelist) *Service {
	if wl == nil {
		wl = whitelist.New(nil)
	}
	return &Service{store: store, wl: wl}
}

// ChangedFile is one entry of a recent-changes feed.
type ChangedFile struct {
	Path     string `json:"path"`
	Modified string `json:"modified,omitempty"`
}

func (s *Service) deny(path string) error {
	logging.Debug("path denied by whitelist", "path", path)
	return fmt.Errorf("%s: %w", path, ErrNotPermitted)
}

// mapStoreErr reshapes an upstream 404 into the façade's not-found
// error. Everything else propagates as-is.
func mapStoreErr(path string, err error) error {
	var apiErr *obsidian.APIError
	if errors.As(err, &apiErr) && apiErr.IsNotFound() {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return err
}

// cleanPath validates and normalizes a vault-relative path argument.
func cleanPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return "", fmt.Errorf("empty path: %w", ErrInvalidArgument)
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return "", fmt.Errorf("path traversal not allowed: %w", ErrInvalidArgument)
		}
	}
	return path, nil
}

// ListFilesInVault lists every file in the vault the whitelist permits.
func (s *Service) ListFilesInVault(ctx context.Context) ([]string, error) {
	files, err := s.store.ListVault(ctx)
	if err != nil {
		return nil, err
	}
	return s.wl.Filter(files), nil
}

// ListFilesInDir lists the permitted children of a vault directory. The
// directory itself must pass the whitelist before the store is called.
func (s *Service) ListFilesInDir(ctx context.Context, dir string) ([]string, error) {
	dir, err := cleanPath(dir)
	if err != nil {
		return nil, err
	}
	dir = strings.TrimSuffix(dir, "/")
	if !s.wl.AllowsDir(dir) {
		return nil, s.deny(dir)
	}

	children, err := s.store.ListDir(ctx, dir)
	if err != nil {
		return nil, mapStoreErr(dir, err)
	}

	allowed := make([]string, 0, len(children))
	for _, name := range children {
		full := dir + "/" + name
		if strings.HasSuffix(name, "/") {
			if s.wl.AllowsDir(full) {
				allowed = append(allowed, name)
			}
		} else if s.wl.Allows(full) {
			allowed = append(allowed, name)
		}
	}
	return allowed, nil
}

// FileContents returns the content of a single vault file. The path is
// checked before the store is called, so a denied path gets the same
// response whether or not the file exists.
func (s *Service) FileContents(ctx context.Context, path string) (string, error) {
	path, err := cleanPath(path)
	if err != nil {
		return "", err
	}
	if !s.wl.Allows(path) {
		return "", s.deny(path)
	}

	content, err := s.store.FileContents(ctx, path)
	if err != nil {
		return "", mapStoreErr(path, err)
	}
	return content, nil
}

// BatchFileContents reads several files and concatenates them with
// per-file headers. Denied or failing paths become per-path sections so
// they are never silently merged with allowed content.
func (s *Service) BatchFileContents(ctx context.Context, paths []string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("no paths given: %w", ErrInvalidArgument)
	}

	var sb strings.Builder
	for _, raw := range paths {
		path, err := cleanPath(raw)
		if err == nil && !s.wl.Allows(path) {
			err = s.deny(path)
		}

		var content string
		if err == nil {
			content, err = s.store.FileContents(ctx, path)
			if err != nil {
				err = mapStoreErr(path, err)
			}
		}

		if err != nil {
			fmt.Fprintf(&sb, "# %s\n\n%v\n\n---\n\n", raw, err)
			continue
		}
		fmt.Fprintf(&sb, "# %s\n\n%s\n\n---\n\n", path, content)
	}
	return sb.String(), nil
}

// Search performs a free-text search and drops every hit whose path
// fails the whitelist.
func (s *Service) Search(ctx context.Context, query string, contextLength int) ([]obsidian.SimpleSearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty query: %w", ErrInvalidArgument)
	}
	if contextLength <= 0 {
		contextLength = defaultContextLength
	}

	results, err := s.store.SearchSimple(ctx, query, contextLength)
	if err != nil {
		return nil, err
	}

	allowed := make([]obsidian.SimpleSearchResult, 0, len(results))
	for _, r := range results {
		if s.wl.Allows(r.Filename) {
			allowed = append(allowed, r)
		}
	}
	return allowed, nil
}

// ComplexSearch runs a JsonLogic query against the store. The query
// engine is opaque; only the output paths are gated.
func (s *Service) ComplexSearch(ctx context.Context, query map[string]any) ([]obsidian.QueryResult, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("empty query: %w", ErrInvalidArgument)
	}

	results, err := s.store.SearchJSONLogic(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.filterRows(results), nil
}

func (s *Service) filterRows(rows []obsidian.QueryResult) []obsidian.QueryResult {
	allowed := make([]obsidian.QueryResult, 0, len(rows))
	for _, row := range rows {
		if s.wl.Allows(row.Filename) {
			allowed = append(allowed, row)
		}
	}
	return allowed
}

// PeriodicNote resolves the current periodic note for a period type. A
// note whose path fails the whitelist is treated as absent.
func (s *Service) PeriodicNote(ctx context.Context, period string) (obsidian.Note, error) {
	if !validPeriods[period] {
		return obsidian.Note{}, fmt.Errorf("unknown period %q: %w", period, ErrInvalidArgument)
	}

	note, err := s.store.PeriodicNote(ctx, period)
	if err != nil {
		return obsidian.Note{}, mapStoreErr(period+" note", err)
	}
	if !s.wl.Allows(note.Path) {
		return obsidian.Note{}, s.deny(note.Path)
	}
	return note, nil
}

// RecentPeriodicNotes returns the most recent periodic notes of a period
// type, dropping notes whose paths fail the whitelist.
func (s *Service) RecentPeriodicNotes(ctx context.Context, period string, limit int, includeContent bool) ([]obsidian.Note, error) {
	if !validPeriods[period] {
		return nil, fmt.Errorf("unknown period %q: %w", period, ErrInvalidArgument)
	}
	if limit <= 0 {
		limit = defaultPeriodicLimit
	}
	if limit > maxPeriodicLimit {
		limit = maxPeriodicLimit
	}

	notes, err := s.store.RecentPeriodicNotes(ctx, period, limit, includeContent)
	if err != nil {
		return nil, err
	}

	allowed := make([]obsidian.Note, 0, len(notes))
	for _, n := range notes {
		if s.wl.Allows(n.Path) {
			allowed = append(allowed, n)
		}
	}
	return allowed, nil
}

// RecentChanges returns the most recently modified permitted files,
// newest first. The Dataview query carries no LIMIT: filtering must
// happen before truncation so disallowed files never count against the
// caller's limit.
func (s *Service) RecentChanges(ctx context.Context, limit, days int) ([]ChangedFile, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if days <= 0 {
		days = defaultRecentDays
	}

	dql := strings.Join([]string{
		"TABLE file.mtime",
		fmt.Sprintf("WHERE file.mtime >= date(today) - dur(%d days)", days),
		"SORT file.mtime DESC",
	}, "\n")

	rows, err := s.store.SearchDQL(ctx, dql)
	if err != nil {
		return nil, err
	}

	changes := make([]ChangedFile, 0, limit)
	for _, row := range rows {
		if !s.wl.Allows(row.Filename) {
			continue
		}
		cf := ChangedFile{Path: row.Filename}
		if mtime, ok := row.Result["file.mtime"]; ok && mtime != nil {
			cf.Modified = fmt.Sprint(mtime)
		}
		changes = append(changes, cf)
		if len(changes) == limit {
			break
		}
	}
	return changes, nil
}

// AllTags returns the unique tags of the vault, sorted. Tags inherit the
// visibility of their source notes: the Dataview rows carry per-note
// provenance, so tags appearing only in disallowed notes are excluded.
func (s *Service) AllTags(ctx context.Context) ([]string, error) {
	rows, err := s.store.SearchDQL(ctx, "TABLE file.tags\nWHERE file.tags")
	if err != nil {
		return nil, err
	}

	tagSet := make(map[string]bool)
	for _, row := range rows {
		if !s.wl.Allows(row.Filename) {
			continue
		}
		fileTags, ok := row.Result["file.tags"].([]any)
		if !ok {
			continue
		}
		for _, t := range fileTags {
			if tag, ok := t.(string); ok && tag != "" {
				tagSet[tag] = true
			}
		}
	}

	tags := make([]string, 0, len(tagSet))
	for tag := range tagSet {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}
