package main

import "github.com/modelcontextprotocol/go-sdk/mcp"

type (
	// ListVaultInput contains parameters for listing the vault root.
	ListVaultInput struct{}

	// ListVaultOutput contains the readable files of the vault.
	ListVaultOutput struct {
		Files []string `json:"files"`
		Count int      `json:"count"`
	}

	// ListDirInput contains parameters for listing a vault directory.
	ListDirInput struct {
		DirPath string `json:"dirpath" jsonschema:"Path to the directory relative to the vault root"`
	}

	// ListDirOutput contains the readable children of a directory.
	ListDirOutput struct {
		Files []string `json:"files"`
		Count int      `json:"count"`
	}

	// GetFileInput contains parameters for reading a single file.
	GetFileInput struct {
		Path string `json:"path" jsonschema:"Path to the file relative to the vault root"`
	}

	// GetFileOutput contains a file's content.
	GetFileOutput struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}

	// BatchGetInput contains parameters for reading several files.
	BatchGetInput struct {
		Paths []string `json:"paths" jsonschema:"Paths of the files to read, relative to the vault root"`
	}

	// BatchGetOutput concatenates the requested files with per-file
	// headers; unreadable paths carry a per-path failure section.
	BatchGetOutput struct {
		Content string `json:"content"`
	}

	// SearchInput contains parameters for free-text search.
	SearchInput struct {
		Query         string `json:"query" jsonschema:"Text to search for across the vault"`
		ContextLength int    `json:"contextLength,omitempty" jsonschema:"How much context to return around each match (default: 100)"`
	}

	// MatchContext is one match location within a file.
	MatchContext struct {
		Context string `json:"context"`
		Start   int    `json:"start"`
		End     int    `json:"end"`
	}

	// SearchHit is one file's matches.
	SearchHit struct {
		Path    string         `json:"path"`
		Score   float64        `json:"score,omitempty"`
		Matches []MatchContext `json:"matches"`
	}

	// SearchOutput contains free-text search results.
	SearchOutput struct {
		Results []SearchHit `json:"results"`
	}

	// ComplexSearchInput contains a JsonLogic query.
	ComplexSearchInput struct {
		Query map[string]any `json:"query" jsonschema:"JsonLogic query object; supports glob and regexp operators against note paths and fields"`
	}

	// ComplexSearchHit is one row of a structured search result.
	ComplexSearchHit struct {
		Path   string         `json:"path"`
		Result map[string]any `json:"result,omitempty"`
	}

	// ComplexSearchOutput contains structured search results.
	ComplexSearchOutput struct {
		Results []ComplexSearchHit `json:"results"`
	}

	// PeriodicNoteInput contains parameters for fetching the current
	// periodic note.
	PeriodicNoteInput struct {
		Period string `json:"period" jsonschema:"Period type: daily, weekly, monthly, quarterly, or yearly"`
		Type   string `json:"type,omitempty" jsonschema:"Data to return: 'content' (default) or 'metadata' (path, tags, frontmatter and content)"`
	}

	// NoteMetadata is the metadata view of a note.
	NoteMetadata struct {
		Path        string         `json:"path"`
		Tags        []string       `json:"tags,omitempty"`
		Frontmatter map[string]any `json:"frontmatter,omitempty"`
		Modified    int64          `json:"modified,omitempty"`
	}

	// PeriodicNoteOutput contains the periodic note.
	PeriodicNoteOutput struct {
		Content  string        `json:"content"`
		Metadata *NoteMetadata `json:"metadata,omitempty"`
	}

	// RecentPeriodicInput contains parameters for listing recent
	// periodic notes.
	RecentPeriodicInput struct {
		Period         string `json:"period" jsonschema:"Period type: daily, weekly, monthly, quarterly, or yearly"`
		Limit          int    `json:"limit,omitempty" jsonschema:"Maximum number of notes to return (default: 5, max: 50)"`
		IncludeContent bool   `json:"includeContent,omitempty" jsonschema:"Include note content in results (default: false)"`
	}

	// RecentPeriodicNote is one entry of a recent periodic notes list.
	RecentPeriodicNote struct {
		Path    string `json:"path"`
		Content string `json:"content,omitempty"`
	}

	// RecentPeriodicOutput contains recent periodic notes, newest first.
	RecentPeriodicOutput struct {
		Notes []RecentPeriodicNote `json:"notes"`
	}

	// RecentChangesInput contains parameters for the recent-changes feed.
	RecentChangesInput struct {
		Limit int `json:"limit,omitempty" jsonschema:"Maximum number of files to return (default: 10)"`
		Days  int `json:"days,omitempty" jsonschema:"Only include files modified within this many days (default: 90)"`
	}

	// RecentChange is one recently modified file.
	RecentChange struct {
		Path     string `json:"path"`
		Modified string `json:"modified,omitempty"`
	}

	// RecentChangesOutput contains the recent-changes feed.
	RecentChangesOutput struct {
		Changes []RecentChange `json:"changes"`
	}

	// AllTagsInput contains parameters for listing tags.
	AllTagsInput struct{}

	// AllTagsOutput contains the unique tags of the readable vault.
	AllTagsOutput struct {
		Tags  []string `json:"tags"`
		Count int      `json:"count"`
	}
)

func registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_files_in_vault",
		Description: "List all readable files in the vault, recursively.",
	}, handleListVault)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_files_in_dir",
		Description: "List the readable files and subdirectories of a vault directory.",
	}, handleListDir)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_file_contents",
		Description: "Return the content of a single file in the vault.",
	}, handleGetFile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "batch_get_file_contents",
		Description: "Return the contents of multiple files, concatenated with per-file headers. Unreadable paths are reported inline and never merged with readable content.",
	}, handleBatchGet)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search",
		Description: "Free-text search across the vault. Returns matching files with surrounding context for each match.",
	}, handleSearch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "complex_search",
		Description: "Structured search with a JsonLogic query. Supports glob and regexp matching against file paths.",
	}, handleComplexSearch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_periodic_note",
		Description: "Return the current periodic note (daily, weekly, monthly, quarterly, or yearly). Set type='metadata' to include path, tags and frontmatter.",
	}, handlePeriodicNote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_recent_periodic_notes",
		Description: "Return the most recent periodic notes of a period type, newest first.",
	}, handleRecentPeriodic)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_recent_changes",
		Description: "Return the most recently modified files in the vault, newest first.",
	}, handleRecentChanges)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_all_tags",
		Description: "List the unique tags used across readable notes in the vault.",
	}, handleAllTags)
}
