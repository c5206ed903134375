package testing

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rileyhilliard/fleetdash/internal/files"
)

// Endpoint names for AgentServer.Fail, Block, and Calls.
const (
	EndpointList     = "files"
	EndpointShared   = "shared-files"
	EndpointUpload   = "upload"
	EndpointDownload = "download"
	EndpointDelete   = "delete"
	EndpointHealth   = "health"
)

const (
	uploadFieldName    = "file"
	defaultAgentSharer = "fleetdash-test"
)

// sharedEntry is a registry entry plus its content.
type sharedEntry struct {
	meta files.SharedFile
	data []byte
}

// AgentServer is a fake agent File API with an in-memory directory tree and
// shared-file registry. Directory lookups ignore case, like a Windows agent,
// and answer with the path as it was registered.
type AgentServer struct {
	*httptest.Server

	hooks
	mu     sync.Mutex
	dirs   map[string]dirEntry // lowercased path -> entry
	shared []sharedEntry
	now    func() time.Time
}

type dirEntry struct {
	path  string
	items []files.FileEntry
}

// NewAgentServer starts a fake File API. Close it when done.
func NewAgentServer() *AgentServer {
	s := &AgentServer{
		hooks: newHooks(),
		dirs:  make(map[string]dirEntry),
		now:   time.Now,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/files", s.handleList)
	mux.HandleFunc("GET /api/shared-files", s.handleShared)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("GET /api/download/{id}", s.handleDownload)
	mux.HandleFunc("DELETE /api/shared-files/{id}", s.handleDelete)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	s.Server = httptest.NewServer(mux)
	return s
}

// AddDir registers a directory listing at dirPath.
func (s *AgentServer) AddDir(dirPath string, items ...files.FileEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if items == nil {
		items = []files.FileEntry{}
	}
	s.dirs[strings.ToLower(dirPath)] = dirEntry{path: dirPath, items: items}
}

// AddShared puts a file into the shared registry and returns its ID.
func (s *AgentServer) AddShared(filename string, data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addSharedLocked(filename, data)
}

func (s *AgentServer) addSharedLocked(filename string, data []byte) string {
	id := uuid.NewString()
	s.shared = append(s.shared, sharedEntry{
		meta: files.SharedFile{
			FileID:    id,
			Filename:  filename,
			Size:      int64(len(data)),
			CreatedAt: float64(s.now().UnixNano()) / 1e9,
			SharedBy:  defaultAgentSharer,
		},
		data: slices.Clone(data),
	})
	return id
}

// Shared returns the current registry in insertion order.
func (s *AgentServer) Shared() []files.SharedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]files.SharedFile, 0, len(s.shared))
	for _, e := range s.shared {
		out = append(out, e.meta)
	}
	return out
}

// Content returns the stored bytes of a shared file.
func (s *AgentServer) Content(id string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.shared {
		if e.meta.FileID == id {
			return slices.Clone(e.data), true
		}
	}
	return nil, false
}

// Fail makes endpoint answer with f until Recover is called.
func (s *AgentServer) Fail(endpoint string, f Failure) { s.fail(endpoint, f) }

// Recover undoes Fail for endpoint.
func (s *AgentServer) Recover(endpoint string) { s.clearFailure(endpoint) }

// Block holds requests to endpoint until release is called.
func (s *AgentServer) Block(endpoint string) (release func()) { return s.block(endpoint) }

// Calls returns how many requests endpoint received.
func (s *AgentServer) Calls(endpoint string) int { return s.count(endpoint) }

func (s *AgentServer) handleList(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, r, EndpointList) {
		return
	}
	requested := r.URL.Query().Get("path")

	s.mu.Lock()
	entry, ok := s.dirs[strings.ToLower(requested)]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Path not found: " + requested})
		return
	}
	items := slices.Clone(entry.items)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IsDirectory != items[j].IsDirectory {
			return items[i].IsDirectory
		}
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	writeJSON(w, http.StatusOK, files.Listing{Path: entry.path, Items: items})
}

func (s *AgentServer) handleShared(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, r, EndpointShared) {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]files.SharedFile{"files": s.Shared()})
}

func (s *AgentServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, r, EndpointUpload) {
		return
	}
	mr, err := r.MultipartReader()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "missing file field"})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
			return
		}
		if part.FormName() != uploadFieldName {
			continue
		}
		data, err := io.ReadAll(part)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
			return
		}
		name := path.Base(strings.ReplaceAll(part.FileName(), `\`, "/"))

		s.mu.Lock()
		id := s.addSharedLocked(name, data)
		s.mu.Unlock()

		writeJSON(w, http.StatusOK, files.UploadResult{
			FileID:   id,
			Filename: name,
			Size:     int64(len(data)),
			Message:  "File uploaded successfully",
		})
		return
	}
}

func (s *AgentServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, r, EndpointDownload) {
		return
	}
	id := r.PathValue("id")
	data, ok := s.Content(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "File not found"})
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *AgentServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, r, EndpointDelete) {
		return
	}
	id := r.PathValue("id")

	s.mu.Lock()
	before := len(s.shared)
	s.shared = slices.DeleteFunc(s.shared, func(e sharedEntry) bool { return e.meta.FileID == id })
	removed := len(s.shared) < before
	s.mu.Unlock()

	if !removed {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "File not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "File deleted"})
}

func (s *AgentServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, r, EndpointHealth) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
