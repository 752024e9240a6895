// Package biz contains the knowledge-base business logic: document
// lifecycle, vector indexing, retrieval, prompt assembly and answer
// generation.
package biz

import "time"

// Document is an active knowledge-base document.
type Document struct {
	// ID is the content fingerprint of the original bytes.
	ID string `json:"id"`
	// Name is the original filename.
	Name string `json:"name"`
	// Type is the document format (txt, pdf, ...).
	Type string `json:"type"`
	// Content is the extracted plain text.
	Content string `json:"-"`
	// StoragePath is where the original bytes live on disk.
	StoragePath string `json:"storage_path"`
	// UploadTime is when the document entered the knowledge base.
	UploadTime time.Time `json:"upload_time"`
	// Tags are user-managed labels.
	Tags []string `json:"tags"`
	// Chunks is the number of indexed chunks.
	Chunks int `json:"chunks"`
}

// DeletedDocument is a removed document retained for restore.
type DeletedDocument struct {
	Document
	// DeletedTime is when the document was removed.
	DeletedTime time.Time `json:"deleted_time"`
}

// AddStatus describes the outcome of an upload.
type AddStatus string

const (
	// StatusAdded means the document was ingested and indexed.
	StatusAdded AddStatus = "added"
	// StatusDuplicate means identical bytes are already active.
	StatusDuplicate AddStatus = "duplicate"
	// StatusEmpty means parsing produced no text; nothing persisted.
	StatusEmpty AddStatus = "empty"
	// StatusNoChunks means the text produced no chunks; the file
	// stays registered without vector entries.
	StatusNoChunks AddStatus = "no-chunks"
)

// AddResult reports the outcome of one upload.
type AddResult struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Status AddStatus `json:"status"`
	Chunks int       `json:"chunks"`
}

// ReconcileStats summarizes a startup reconciliation pass.
type ReconcileStats struct {
	// Loaded documents rebuilt from the registry.
	Loaded int `json:"loaded"`
	// Reindexed documents that had no vector entries.
	Reindexed int `json:"reindexed"`
	// Dangling registry entries whose file is missing on disk.
	Dangling int `json:"dangling"`
}

// Stats is a point-in-time snapshot of the knowledge base.
type Stats struct {
	ActiveDocuments  int   `json:"active_documents"`
	DeletedDocuments int   `json:"deleted_documents"`
	Chunks           int   `json:"chunks"`
	VectorEntries    int64 `json:"vector_entries"`
}

// Source is one cited chunk in an answer.
type Source struct {
	// Index is the 1-based citation number used in the prompt.
	Index int `json:"index"`
	// Name is the source document filename.
	Name string `json:"name"`
	// SourceID is the source document id.
	SourceID string `json:"source_id"`
	// Content is the cited chunk text.
	Content string `json:"content"`
	// Score is the similarity to the question.
	Score float32 `json:"score"`
}

// QueryResult is the answer to one question.
type QueryResult struct {
	SessionID string   `json:"session_id"`
	Answer    string   `json:"answer"`
	Sources   []Source `json:"sources"`
	Intent    Intent   `json:"intent"`
	Entities  []string `json:"entities"`
	// Carryover reports whether the previous turn was injected into
	// the prompt.
	Carryover bool `json:"carryover"`
}
