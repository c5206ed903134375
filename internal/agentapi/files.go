package agentapi

import (
	"context"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rileyhilliard/fleetdash/internal/files"
	"github.com/rileyhilliard/fleetdash/internal/telemetry"
)

// UploadField is the multipart form field the File API reads the file from.
const UploadField = "file"

// FileClient talks to one agent's File API.
type FileClient struct {
	c *client
}

// AgentBaseURL builds the File API URL for an agent address.
func AgentBaseURL(scheme, ip string, port int) string {
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + net.JoinHostPort(ip, strconv.Itoa(port))
}

// NewFileClient creates a client for the File API at baseURL.
func NewFileClient(baseURL string, opts Options) (*FileClient, error) {
	c, err := newClient(baseURL, opts)
	if err != nil {
		return nil, err
	}
	return &FileClient{c: c}, nil
}

// BaseURL returns the agent's File API URL.
func (f *FileClient) BaseURL() string {
	return f.c.BaseURL()
}

// List returns the directory listing for path. The returned Path is the
// server's canonical form of the requested path.
func (f *FileClient) List(ctx context.Context, path string) (files.Listing, error) {
	query := url.Values{}
	query.Set("path", path)

	var listing files.Listing
	err := f.c.doJSON(ctx, request{
		op:       "list files",
		endpoint: "files",
		method:   http.MethodGet,
		path:     "/api/files",
		query:    query,
	}, &listing)
	if err != nil {
		return files.Listing{}, err
	}
	if listing.Items == nil {
		listing.Items = []files.FileEntry{}
	}
	return listing, nil
}

// ListShared returns the agent's shared-file registry.
func (f *FileClient) ListShared(ctx context.Context) ([]files.SharedFile, error) {
	var body struct {
		Files []files.SharedFile `json:"files"`
	}
	err := f.c.doJSON(ctx, request{
		op:       "list shared files",
		endpoint: "shared-files",
		method:   http.MethodGet,
		path:     "/api/shared-files",
	}, &body)
	if err != nil {
		return nil, err
	}
	if body.Files == nil {
		body.Files = []files.SharedFile{}
	}
	return body.Files, nil
}

// Upload streams r to the agent as a multipart form under the "file" field.
// progress, if non-nil, is called with the cumulative bytes read from r.
func (f *FileClient) Upload(ctx context.Context, name string, r io.Reader, progress func(sent int64)) (files.UploadResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	counter := &countingReader{r: r, onRead: progress}
	writeDone := make(chan error, 1)
	go func() {
		err := writeMultipart(mw, name, counter)
		pw.CloseWithError(err) //nolint:errcheck
		writeDone <- err
	}()

	var result files.UploadResult
	err := f.c.doJSON(ctx, request{
		op:          "upload",
		endpoint:    "upload",
		method:      http.MethodPost,
		path:        "/api/upload",
		body:        pr,
		contentType: mw.FormDataContentType(),
		longLived:   true,
	}, &result)

	// Unblock the writer if the request ended before consuming the body.
	pr.CloseWithError(io.ErrClosedPipe) //nolint:errcheck
	writeErr := <-writeDone

	if err != nil {
		return files.UploadResult{}, err
	}
	if writeErr != nil {
		return files.UploadResult{}, &TransportError{Op: "upload", URL: f.c.baseURL + "/api/upload", Err: writeErr}
	}
	telemetry.AddUploadBytes(counter.n)
	return result, nil
}

func writeMultipart(mw *multipart.Writer, name string, r io.Reader) error {
	part, err := mw.CreateFormFile(UploadField, name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return err
	}
	return mw.Close()
}

type countingReader struct {
	r      io.Reader
	n      int64
	onRead func(int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.n += int64(n)
		if c.onRead != nil {
			c.onRead(c.n)
		}
	}
	return n, err
}

// Download opens the content of a shared file. The caller must close the
// returned reader, which also releases the request.
func (f *FileClient) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	resp, cancel, err := f.c.do(ctx, request{
		op:        "download",
		endpoint:  "download",
		method:    http.MethodGet,
		path:      "/api/download/" + url.PathEscape(fileID),
		longLived: true,
	})
	if err != nil {
		return nil, err
	}
	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// Delete removes a shared file from the agent's registry.
func (f *FileClient) Delete(ctx context.Context, fileID string) error {
	return f.c.doJSON(ctx, request{
		op:       "delete",
		endpoint: "delete",
		method:   http.MethodDelete,
		path:     "/api/shared-files/" + url.PathEscape(fileID),
	}, nil)
}

// Health checks that the agent's File API answers.
func (f *FileClient) Health(ctx context.Context) error {
	return f.c.doJSON(ctx, request{
		op:       "health check",
		endpoint: "health",
		method:   http.MethodGet,
		path:     "/api/health",
	}, nil)
}

var (
	_ files.Lister      = (*FileClient)(nil)
	_ files.SharedStore = (*FileClient)(nil)
)
