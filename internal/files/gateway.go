package files

import (
	"context"
	"errors"
	"io"
	"os"
	"slices"
	"sync"
	"time"

	fderrors "github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/rileyhilliard/fleetdash/internal/telemetry"
	"github.com/spf13/afero"
)

var (
	// ErrUploadInFlight is returned by Upload while another upload is running.
	ErrUploadInFlight = fderrors.New(fderrors.ErrTransfer,
		"An upload is already in progress",
		"Wait for it to finish before starting another.")

	// ErrNoPendingFile is returned by Upload when no local file was selected.
	ErrNoPendingFile = fderrors.New(fderrors.ErrTransfer,
		"No file selected",
		"Choose a local file first.")
)

// SharedStore is an agent's shared-file registry.
type SharedStore interface {
	ListShared(ctx context.Context) ([]SharedFile, error)
	Upload(ctx context.Context, name string, r io.Reader, progress func(sent int64)) (UploadResult, error)
	Download(ctx context.Context, fileID string) (io.ReadCloser, error)
	Delete(ctx context.Context, fileID string) error
}

// notFound is implemented by transport errors that can tell a 404 apart.
type notFound interface {
	NotFound() bool
}

// GatewayState is an immutable snapshot of a Gateway.
type GatewayState struct {
	Files []SharedFile
	// Loaded is false until the first list has been applied.
	Loaded    bool
	Pending   *LocalFile
	Uploading bool
	// Progress is 0-100 while uploading, 0 otherwise.
	Progress float64
	// Err is the last failed user operation; ErrOp names it.
	Err          error
	ErrOp        string
	LastUpload   *UploadResult
	LastDownload string
	Closed       bool
}

// Gateway manages one agent's shared files: listing, upload, download and delete.
//
// The shared list follows two rules. A list response is applied only if no
// newer list was started after it. After a successful delete the file is
// hidden from any list that was started before the delete finished, so a
// slow poll cannot bring it back.
type Gateway struct {
	store SharedStore
	opts  options
	log   logger.Logger

	// base is cancelled by Close; every operation runs under it.
	base     context.Context
	shutdown context.CancelFunc

	mu           sync.Mutex
	files        []SharedFile
	loaded       bool
	listSeq      uint64
	tombstones   map[string]uint64
	pending      *LocalFile
	uploading    bool
	progress     float64
	lastErr      error
	lastOp       string
	lastUpload   *UploadResult
	lastDownload string
	closed       bool

	// saveMu serializes picking a free name and renaming into it.
	saveMu sync.Mutex
}

// NewGateway creates a gateway over store.
func NewGateway(store SharedStore, opts ...Option) *Gateway {
	o := buildOptions(opts)
	base, shutdown := context.WithCancel(context.Background())
	return &Gateway{
		store:      store,
		opts:       o,
		log:        o.log,
		base:       base,
		shutdown:   shutdown,
		tombstones: make(map[string]uint64),
	}
}

// bind derives a context that ends when either ctx or the gateway does.
func (g *Gateway) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(g.base, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// State returns the current snapshot.
func (g *Gateway) State() GatewayState {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := GatewayState{
		Files:        slices.Clone(g.files),
		Loaded:       g.loaded,
		Uploading:    g.uploading,
		Progress:     g.progress,
		Err:          g.lastErr,
		ErrOp:        g.lastOp,
		LastDownload: g.lastDownload,
		Closed:       g.closed,
	}
	if g.pending != nil {
		p := *g.pending
		s.Pending = &p
	}
	if g.lastUpload != nil {
		u := *g.lastUpload
		s.LastUpload = &u
	}
	return s
}

func (g *Gateway) fail(op string, err error) error {
	wrapped := fderrors.OperationFailed(op, err)
	g.lastErr = wrapped
	g.lastOp = op
	return wrapped
}

// ListShared fetches the shared list and applies it if it is still the
// newest list request. Failures keep the previous list and are only logged.
func (g *Gateway) ListShared(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrSessionClosed
	}
	g.listSeq++
	seq := g.listSeq
	g.mu.Unlock()

	ctx, cancel := g.bind(ctx)
	defer cancel()

	list, err := g.store.ListShared(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrSessionClosed
	}
	telemetry.ObserveFileOp("list_shared", err)
	if err != nil {
		g.log.Warn("shared file list failed, keeping %d files: %v", len(g.files), err)
		return fderrors.OperationFailed("list shared files", err)
	}
	if seq != g.listSeq {
		g.log.Debug("dropping shared list #%d, #%d is newer", seq, g.listSeq)
		return ErrSuperseded
	}

	visible := make([]SharedFile, 0, len(list))
	for _, f := range list {
		if tomb, ok := g.tombstones[f.FileID]; ok && seq <= tomb {
			continue
		}
		visible = append(visible, f)
	}
	for id, tomb := range g.tombstones {
		if tomb < seq {
			delete(g.tombstones, id)
		}
	}
	g.files = visible
	g.loaded = true
	return nil
}

// Run lists immediately and then on every poll interval until ctx is
// cancelled or the gateway is closed.
func (g *Gateway) Run(ctx context.Context) {
	ctx, cancel := g.bind(ctx)
	defer cancel()

	_ = g.ListShared(ctx)

	ticker := time.NewTicker(g.opts.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = g.ListShared(ctx)
		}
	}
}

// SelectLocalFile validates a local file and makes it the pending upload.
// While an upload is running the pending file is left alone and
// ErrUploadInFlight is returned.
func (g *Gateway) SelectLocalFile(path string) error {
	local, err := inspectLocalFile(g.opts.fs, path, g.opts.maxUploadBytes, g.opts.allowedMIME)

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrSessionClosed
	}
	if g.uploading {
		return ErrUploadInFlight
	}
	if err != nil {
		g.lastErr = err
		g.lastOp = "select"
		return err
	}
	g.pending = &local
	if g.lastOp == "select" {
		g.lastErr, g.lastOp = nil, ""
	}
	return nil
}

// ClearPending drops the pending upload, unless it is being uploaded.
func (g *Gateway) ClearPending() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.uploading {
		g.pending = nil
	}
}

// Upload sends the pending file. Only one upload runs at a time. Progress
// rises monotonically from 0 to 100 and returns to 0 when the upload ends.
// On success the pending file is cleared and the shared list refreshed; on
// failure the pending file is kept so the user can retry.
func (g *Gateway) Upload(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrSessionClosed
	}
	if g.uploading {
		g.mu.Unlock()
		return ErrUploadInFlight
	}
	if g.pending == nil {
		g.mu.Unlock()
		return ErrNoPendingFile
	}
	local := *g.pending
	g.uploading = true
	g.progress = 0
	g.lastErr, g.lastOp = nil, ""
	g.mu.Unlock()

	ctx, cancel := g.bind(ctx)
	defer cancel()

	result, err := g.upload(ctx, local)

	g.mu.Lock()
	g.uploading = false
	g.progress = 0
	if g.closed {
		g.mu.Unlock()
		return ErrSessionClosed
	}
	telemetry.ObserveFileOp("upload", err)
	if err != nil {
		wrapped := g.fail("upload", err)
		g.mu.Unlock()
		g.log.Debug("upload of %s failed: %v", local.Name, err)
		return wrapped
	}
	g.pending = nil
	g.lastUpload = &result
	g.mu.Unlock()

	g.log.Debug("uploaded %s as %s", local.Name, result.FileID)
	if err := g.ListShared(ctx); err != nil && !Discarded(err) {
		g.log.Debug("refresh after upload failed: %v", err)
	}
	return nil
}

func (g *Gateway) upload(ctx context.Context, local LocalFile) (UploadResult, error) {
	f, err := g.opts.fs.Open(local.Path)
	if err != nil {
		return UploadResult{}, err
	}
	defer f.Close()

	return g.store.Upload(ctx, local.Name, f, func(sent int64) {
		g.setProgress(sent, local.Size)
	})
}

func (g *Gateway) setProgress(sent, total int64) {
	if total <= 0 {
		return
	}
	pct := float64(sent) / float64(total) * 100
	if pct > 100 {
		pct = 100
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.uploading && pct > g.progress {
		g.progress = pct
	}
}

// Download saves a shared file into the download directory and returns the
// saved path. The content is written to a temp file and renamed into place,
// so a failed download leaves nothing behind. Existing files are never
// overwritten; a " (n)" suffix is added instead.
func (g *Gateway) Download(ctx context.Context, fileID, filename string) (string, error) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return "", ErrSessionClosed
	}
	g.mu.Unlock()

	ctx, cancel := g.bind(ctx)
	defer cancel()

	saved, err := g.download(ctx, fileID, filename)

	g.mu.Lock()
	defer g.mu.Unlock()
	telemetry.ObserveFileOp("download", err)
	if g.closed {
		if saved != "" {
			// The file was completed; keep it but report nothing to a dead session.
			g.log.Debug("download of %s finished after close: %s", fileID, saved)
		}
		return "", ErrSessionClosed
	}
	if err != nil {
		return "", g.fail("download", err)
	}
	g.lastDownload = saved
	if g.lastOp == "download" {
		g.lastErr, g.lastOp = nil, ""
	}
	return saved, nil
}

func (g *Gateway) download(ctx context.Context, fileID, filename string) (string, error) {
	fs := g.opts.fs
	dir := g.opts.downloadDir

	body, err := g.store.Download(ctx, fileID)
	if err != nil {
		return "", err
	}
	defer body.Close()

	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	tmp, err := afero.TempFile(fs, dir, ".fleetdash-*.part")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()

	_, copyErr := io.Copy(tmp, body)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = fs.Remove(tmpName)
		return "", err
	}

	g.saveMu.Lock()
	defer g.saveMu.Unlock()

	final, err := uniquePath(fs, dir, SafeName(filename, fileID))
	if err != nil {
		_ = fs.Remove(tmpName)
		return "", err
	}
	if err := fs.Rename(tmpName, final); err != nil {
		_ = fs.Remove(tmpName)
		return "", err
	}
	if err := fs.Chmod(final, 0o644); err != nil && !errors.Is(err, os.ErrNotExist) {
		g.log.Debug("chmod %s: %v", final, err)
	}
	return final, nil
}

// Delete removes a shared file from the agent. On success the file disappears
// from the local list at once and the list is refreshed. A 404 counts as
// success since the file is gone either way. On failure the list is unchanged.
func (g *Gateway) Delete(ctx context.Context, fileID string) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrSessionClosed
	}
	g.mu.Unlock()

	ctx, cancel := g.bind(ctx)
	defer cancel()

	err := g.store.Delete(ctx, fileID)
	var nf notFound
	if err != nil && errors.As(err, &nf) && nf.NotFound() {
		g.log.Debug("delete %s: already gone", fileID)
		err = nil
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrSessionClosed
	}
	telemetry.ObserveFileOp("delete", err)
	if err != nil {
		wrapped := g.fail("delete", err)
		g.mu.Unlock()
		return wrapped
	}
	g.tombstones[fileID] = g.listSeq
	g.files = slices.DeleteFunc(g.files, func(f SharedFile) bool { return f.FileID == fileID })
	if g.lastOp == "delete" {
		g.lastErr, g.lastOp = nil, ""
	}
	g.mu.Unlock()

	if err := g.ListShared(ctx); err != nil && !Discarded(err) {
		g.log.Debug("refresh after delete failed: %v", err)
	}
	return nil
}

// DismissError clears the last operation error.
func (g *Gateway) DismissError() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastErr, g.lastOp = nil, ""
}

// Close cancels in-flight work and the Run loop. Results that arrive later
// are discarded and every later call returns ErrSessionClosed.
func (g *Gateway) Close() {
	g.mu.Lock()
	g.closed = true
	g.uploading = false
	g.progress = 0
	g.mu.Unlock()
	g.shutdown()
}
