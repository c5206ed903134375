package files

import (
	"math"
	"time"
)

// FileEntry is one item in a remote directory listing.
type FileEntry struct {
	Name        string  `json:"name"`
	Path        string  `json:"path"`
	IsDirectory bool    `json:"is_directory"`
	Size        int64   `json:"size"`
	Modified    float64 `json:"modified"` // epoch seconds
	Type        string  `json:"type"`     // "folder" or a lowercase extension like ".log"
}

// ModTime converts Modified to a time.
func (e FileEntry) ModTime() time.Time {
	return epoch(e.Modified)
}

// Listing is the File API response for a directory.
type Listing struct {
	Path  string      `json:"path"`
	Items []FileEntry `json:"items"`
}

// SharedFile is one entry in an agent's shared-file registry.
type SharedFile struct {
	FileID    string  `json:"file_id"`
	Filename  string  `json:"filename"`
	Size      int64   `json:"size"`
	CreatedAt float64 `json:"created_at"` // epoch seconds
	SharedBy  string  `json:"shared_by"`
}

// Created converts CreatedAt to a time.
func (f SharedFile) Created() time.Time {
	return epoch(f.CreatedAt)
}

// UploadResult is what the File API returns for an accepted upload.
type UploadResult struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Message  string `json:"message"`
}

func epoch(secs float64) time.Time {
	if secs <= 0 {
		return time.Time{}
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}
