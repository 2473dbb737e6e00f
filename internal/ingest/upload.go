package ingest

import (
	"os"
	"path/filepath"
)

// Upload is a named file handed to ingestion.
type Upload interface {
	Name() string
	Read() ([]byte, error)
}

// FileUpload reads an upload from the filesystem.
type FileUpload struct {
	Path string
}

func (f FileUpload) Name() string { return filepath.Base(f.Path) }

func (f FileUpload) Read() ([]byte, error) { return os.ReadFile(f.Path) }

// MemoryUpload is an upload held in memory.
type MemoryUpload struct {
	Filename string
	Data     []byte
}

func (m MemoryUpload) Name() string { return m.Filename }

func (m MemoryUpload) Read() ([]byte, error) { return m.Data, nil }

// FileUploads wraps paths as uploads.
func FileUploads(paths ...string) []Upload {
	uploads := make([]Upload, len(paths))
	for i, p := range paths {
		uploads[i] = FileUpload{Path: p}
	}
	return uploads
}
