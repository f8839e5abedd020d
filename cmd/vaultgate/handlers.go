package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func handleListVault(ctx context.Context, req *mcp.CallToolRequest, input ListVaultInput) (*mcp.CallToolResult, ListVaultOutput, error) {
	files, err := vaultService.ListFilesInVault(ctx)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, ListVaultOutput{}, err
	}
	return nil, ListVaultOutput{Files: files, Count: len(files)}, nil
}

func handleListDir(ctx context.Context, req *mcp.CallToolRequest, input ListDirInput) (*mcp.CallToolResult, ListDirOutput, error) {
	files, err := vaultService.ListFilesInDir(ctx, strings.TrimSpace(input.DirPath))
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, ListDirOutput{}, err
	}
	return nil, ListDirOutput{Files: files, Count: len(files)}, nil
}

func handleGetFile(ctx context.Context, req *mcp.CallToolRequest, input GetFileInput) (*mcp.CallToolResult, GetFileOutput, error) {
	path := strings.TrimSpace(input.Path)
	content, err := vaultService.FileContents(ctx, path)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, GetFileOutput{}, err
	}
	return nil, GetFileOutput{Path: path, Content: content}, nil
}

func handleBatchGet(ctx context.Context, req *mcp.CallToolRequest, input BatchGetInput) (*mcp.CallToolResult, BatchGetOutput, error) {
	content, err := vaultService.BatchFileContents(ctx, input.Paths)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, BatchGetOutput{}, err
	}
	return nil, BatchGetOutput{Content: content}, nil
}

func handleSearch(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := vaultService.Search(ctx, strings.TrimSpace(input.Query), input.ContextLength)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, SearchOutput{}, err
	}

	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		hit := SearchHit{Path: r.Filename, Score: r.Score}
		for _, m := range r.Matches {
			hit.Matches = append(hit.Matches, MatchContext{
				Context: m.Context,
				Start:   m.Match.Start,
				End:     m.Match.End,
			})
		}
		hits = append(hits, hit)
	}
	return nil, SearchOutput{Results: hits}, nil
}

func handleComplexSearch(ctx context.Context, req *mcp.CallToolRequest, input ComplexSearchInput) (*mcp.CallToolResult, ComplexSearchOutput, error) {
	rows, err := vaultService.ComplexSearch(ctx, input.Query)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, ComplexSearchOutput{}, err
	}

	hits := make([]ComplexSearchHit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, ComplexSearchHit{Path: row.Filename, Result: row.Result})
	}
	return nil, ComplexSearchOutput{Results: hits}, nil
}

func handlePeriodicNote(ctx context.Context, req *mcp.CallToolRequest, input PeriodicNoteInput) (*mcp.CallToolResult, PeriodicNoteOutput, error) {
	kind := input.Type
	if kind == "" {
		kind = "content"
	}
	if kind != "content" && kind != "metadata" {
		return &mcp.CallToolResult{IsError: true}, PeriodicNoteOutput{},
			fmt.Errorf("type must be 'content' or 'metadata', got %q", input.Type)
	}

	note, err := vaultService.PeriodicNote(ctx, strings.TrimSpace(input.Period))
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, PeriodicNoteOutput{}, err
	}

	out := PeriodicNoteOutput{Content: note.Content}
	if kind == "metadata" {
		out.Metadata = &NoteMetadata{
			Path:        note.Path,
			Tags:        note.Tags,
			Frontmatter: note.Frontmatter,
			Modified:    note.Stat.Mtime,
		}
	}
	return nil, out, nil
}

func handleRecentPeriodic(ctx context.Context, req *mcp.CallToolRequest, input RecentPeriodicInput) (*mcp.CallToolResult, RecentPeriodicOutput, error) {
	notes, err := vaultService.RecentPeriodicNotes(ctx, strings.TrimSpace(input.Period), input.Limit, input.IncludeContent)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, RecentPeriodicOutput{}, err
	}

	out := RecentPeriodicOutput{Notes: make([]RecentPeriodicNote, 0, len(notes))}
	for _, n := range notes {
		entry := RecentPeriodicNote{Path: n.Path}
		if input.IncludeContent {
			entry.Content = n.Content
		}
		out.Notes = append(out.Notes, entry)
	}
	return nil, out, nil
}

func handleRecentChanges(ctx context.Context, req *mcp.CallToolRequest, input RecentChangesInput) (*mcp.CallToolResult, RecentChangesOutput, error) {
	changes, err := vaultService.RecentChanges(ctx, input.Limit, input.Days)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, RecentChangesOutput{}, err
	}

	out := RecentChangesOutput{Changes: make([]RecentChange, 0, len(changes))}
	for _, c := range changes {
		out.Changes = append(out.Changes, RecentChange{Path: c.Path, Modified: c.Modified})
	}
	return nil, out, nil
}

func handleAllTags(ctx context.Context, req *mcp.CallToolRequest, input AllTagsInput) (*mcp.CallToolResult, AllTagsOutput, error) {
	tags, err := vaultService.AllTags(ctx)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, AllTagsOutput{}, err
	}
	return nil, AllTagsOutput{Tags: tags, Count: len(tags)}, nil
}
