package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"

	"docs-mcp/internal/tools"
)

// ListDirectorySchema is the input schema of list-directory.
const ListDirectorySchema = `{
  "type": "object",
  "properties": {
    "path": {
      "type": "string",
      "description": "The directory path to list"
    }
  },
  "required": ["path"]
}`

// DefaultListingConcurrency bounds the per-entry stat fan-out.
const DefaultListingConcurrency = 8

// isoMillis matches the ISO-8601 UTC form with millisecond precision.
const isoMillis = "2006-01-02T15:04:05.000Z"

// Entry kinds.
const (
	EntryFile      = "file"
	EntryDirectory = "directory"
	EntryUnknown   = "unknown"
)

// Entry describes one item of a directory listing.
type Entry struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Size     *int64 `json:"size,omitempty"`
	Modified string `json:"modified,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Listing is the JSON document returned by list-directory.
type Listing struct {
	Directory string  `json:"directory"`
	Entries   []Entry `json:"entries"`
	Total     int     `json:"total"`
}

// DirectoryLister implements list-directory.
type DirectoryLister struct {
	concurrency int
	readDir     func(string) ([]os.DirEntry, error)
	stat        func(string) (fs.FileInfo, error)
}

// NewDirectoryLister returns a lister running at most concurrency stats at once.
func NewDirectoryLister(concurrency int) *DirectoryLister {
	if concurrency <= 0 {
		concurrency = DefaultListingConcurrency
	}
	return &DirectoryLister{concurrency: concurrency, readDir: os.ReadDir, stat: os.Stat}
}

// Handle lists the immediate entries of args.path. A failure to read the
// directory fails the call; a failure to stat one entry only marks that entry.
func (l *DirectoryLister) Handle(ctx context.Context, args json.RawMessage) (tools.Envelope, error) {
	var params struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return tools.Envelope{}, fmt.Errorf("invalid arguments: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("path", params.Path).Msg("listing directory")

	listing, err := l.List(params.Path)
	if err != nil {
		return tools.Envelope{}, tools.Fail("listing directory", err)
	}

	text, err := encodeIndented(listing)
	if err != nil {
		return tools.Envelope{}, tools.Fail("listing directory", err)
	}
	return tools.Text(text), nil
}

// List reads dir and describes every entry in enumeration order.
func (l *DirectoryLister) List(dir string) (Listing, error) {
	dirEntries, err := l.readDir(dir)
	if err != nil {
		return Listing{}, err
	}

	names := make([]string, len(dirEntries))
	for i, de := range dirEntries {
		names[i] = de.Name()
	}

	mapper := iter.Mapper[string, Entry]{MaxGoroutines: l.concurrency}
	entries := mapper.Map(names, func(name *string) Entry {
		return l.describe(dir, *name)
	})
	if entries == nil {
		entries = []Entry{}
	}

	return Listing{Directory: dir, Entries: entries, Total: len(entries)}, nil
}

func (l *DirectoryLister) describe(dir, name string) Entry {
	info, err := l.stat(filepath.Join(dir, name))
	if err != nil {
		return Entry{Name: name, Type: EntryUnknown, Error: "Cannot access: " + err.Error()}
	}

	entry := Entry{
		Name:     name,
		Type:     EntryFile,
		Modified: info.ModTime().UTC().Format(isoMillis),
	}
	if info.IsDir() {
		entry.Type = EntryDirectory
	}
	if info.Mode().IsRegular() {
		size := info.Size()
		entry.Size = &size
	}
	return entry
}

func encodeIndented(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
