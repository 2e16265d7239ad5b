// Package retrieval is the port to the remote vector-search and answer
// provider. Every call is a fallible remote call; callers surface errors
// without retrying.
package retrieval

import (
	"context"
)

// File is a document to upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// StoreFile is a file attached to a vector store.
type StoreFile struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	UsageBytes int64  `json:"usage_bytes"`
	CreatedAt  int64  `json:"created_at"`
	LastError  string `json:"last_error,omitempty"`
}

// FileCounts summarizes a batch.
type FileCounts struct {
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Cancelled  int `json:"cancelled"`
	Total      int `json:"total"`
}

// Batch is the result of attaching files to a store.
type Batch struct {
	ID         string     `json:"id"`
	Status     string     `json:"status"`
	FileCounts FileCounts `json:"file_counts"`
}

// Citation points an answer back to a source file.
type Citation struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename,omitempty"`
	Index    int    `json:"index"`
}

// Answer is a normalized retrieval-augmented response. Token counts are 0
// when the provider omitted them.
type Answer struct {
	Text      string
	TokensIn  int64
	TokensOut int64
	Citations []Citation
}

type Provider interface {
	CreateStore(ctx context.Context, name string) (string, error)
	UploadFiles(ctx context.Context, files []File) ([]string, error)
	// AttachFiles adds uploaded files to a store and waits for the batch to
	// leave the in_progress state.
	AttachFiles(ctx context.Context, storeID string, fileIDs []string) (*Batch, error)
	ListFiles(ctx context.Context, storeID string) ([]StoreFile, error)
	RemoveFile(ctx context.Context, storeID, fileID string, deleteRaw bool) error
	Query(ctx context.Context, storeIDs []string, question, model string) (*Answer, error)
}
