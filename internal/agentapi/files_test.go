package agentapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	fakeapi "github.com/rileyhilliard/fleetdash/internal/agentapi/testing"
	"github.com/rileyhilliard/fleetdash/internal/files"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAgent(t *testing.T) (*fakeapi.AgentServer, *FileClient) {
	t.Helper()
	srv := fakeapi.NewAgentServer()
	t.Cleanup(srv.Close)

	c, err := NewFileClient(srv.URL, testOptions())
	require.NoError(t, err)
	return srv, c
}

func TestAgentBaseURL(t *testing.T) {
	assert.Equal(t, "http://10.0.0.5:3000", AgentBaseURL("", "10.0.0.5", 3000))
	assert.Equal(t, "https://agent.lan:8443", AgentBaseURL("https", "agent.lan", 8443))
	assert.Equal(t, "http://[fe80::1]:3000", AgentBaseURL("http", "fe80::1", 3000))
}

func TestFileClient_List(t *testing.T) {
	srv, c := newAgent(t)
	srv.AddDir(`C:\Users`,
		files.FileEntry{Name: "notes.txt", Path: `C:\Users\notes.txt`, Size: 12, Type: ".txt"},
		files.FileEntry{Name: "bob", Path: `C:\Users\bob`, IsDirectory: true, Type: "folder"},
	)

	listing, err := c.List(context.Background(), `c:\users`)
	require.NoError(t, err)
	assert.Equal(t, `C:\Users`, listing.Path, "canonical path from server")
	require.Len(t, listing.Items, 2)
	assert.Equal(t, "bob", listing.Items[0].Name, "directories first")
	assert.True(t, listing.Items[0].IsDirectory)
}

func TestFileClient_ListEmptyDir(t *testing.T) {
	srv, c := newAgent(t)
	srv.AddDir("/empty")

	listing, err := c.List(context.Background(), "/empty")
	require.NoError(t, err)
	assert.NotNil(t, listing.Items)
	assert.Empty(t, listing.Items)
}

func TestFileClient_ListMissing(t *testing.T) {
	_, c := newAgent(t)

	_, err := c.List(context.Background(), `C:\nope`)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.True(t, httpErr.NotFound())
	assert.Contains(t, httpErr.Detail, "Path not found")
}

func TestFileClient_UploadListDownloadDelete(t *testing.T) {
	srv, c := newAgent(t)
	ctx := context.Background()
	payload := bytes.Repeat([]byte("fleetdash"), 20000)

	var progress []int64
	result, err := c.Upload(ctx, "data.bin", bytes.NewReader(payload), func(sent int64) {
		progress = append(progress, sent)
	})
	require.NoError(t, err)
	assert.Equal(t, "data.bin", result.Filename)
	assert.Equal(t, int64(len(payload)), result.Size)
	assert.NotEmpty(t, result.FileID)

	require.NotEmpty(t, progress)
	for i := 1; i < len(progress); i++ {
		assert.Greater(t, progress[i], progress[i-1])
	}
	assert.Equal(t, int64(len(payload)), progress[len(progress)-1])

	stored, ok := srv.Content(result.FileID)
	require.True(t, ok)
	assert.Equal(t, payload, stored)

	shared, err := c.ListShared(ctx)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, result.FileID, shared[0].FileID)
	assert.False(t, shared[0].Created().IsZero())

	body, err := c.Download(ctx, result.FileID)
	require.NoError(t, err)
	got, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, payload, got)

	require.NoError(t, c.Delete(ctx, result.FileID))
	shared, err = c.ListShared(ctx)
	require.NoError(t, err)
	assert.Empty(t, shared)
	assert.NotNil(t, shared)

	err = c.Delete(ctx, result.FileID)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.True(t, httpErr.NotFound())
}

func TestFileClient_UploadRejected(t *testing.T) {
	srv, c := newAgent(t)
	srv.Fail(fakeapi.EndpointUpload, fakeapi.Failure{Status: http.StatusInsufficientStorage, Detail: "Upload failed: disk full"})

	_, err := c.Upload(context.Background(), "a.txt", bytes.NewReader([]byte("hi")), nil)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "Upload failed: disk full", httpErr.Detail)
	assert.Empty(t, srv.Shared())
}

func TestFileClient_DownloadMissing(t *testing.T) {
	_, c := newAgent(t)

	_, err := c.Download(context.Background(), "does-not-exist")
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.True(t, httpErr.NotFound())
}

func TestFileClient_Health(t *testing.T) {
	srv, c := newAgent(t)
	require.NoError(t, c.Health(context.Background()))

	srv.Fail(fakeapi.EndpointHealth, fakeapi.Failure{Status: http.StatusInternalServerError, Detail: "boom"})
	assert.Error(t, c.Health(context.Background()))
	assert.Equal(t, 2, srv.Calls(fakeapi.EndpointHealth))
}

// The gateway and navigator run end to end against the fake agent.
func TestFileClient_DrivesSession(t *testing.T) {
	srv, c := newAgent(t)
	srv.AddDir(`C:\`, files.FileEntry{Name: "Users", Path: `C:\Users`, IsDirectory: true, Type: "folder"})
	srv.AddDir(`C:\Users`)
	existing := srv.AddShared("readme.txt", []byte("hello"))

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/home/me/upload.txt", []byte("upload me"), 0o644))

	session := files.NewSession("a1", 1, c, c, `C:\`,
		files.WithLogger(logger.Noop()),
		files.WithFs(fs),
		files.WithDownloadDir("/downloads"))
	defer session.Close()
	ctx := context.Background()

	require.NoError(t, session.Navigator.Start(ctx))
	entries := session.Navigator.State().Entries
	require.Len(t, entries, 1)
	require.NoError(t, session.Navigator.Open(ctx, entries[0]))
	assert.Equal(t, `C:\Users`, session.Navigator.State().Path)

	gw := session.Gateway
	require.NoError(t, gw.SelectLocalFile("/home/me/upload.txt"))
	require.NoError(t, gw.Upload(ctx))

	state := gw.State()
	require.Len(t, state.Files, 2)
	assert.Equal(t, existing, state.Files[0].FileID)
	assert.Equal(t, "upload.txt", state.Files[1].Filename)

	saved, err := gw.Download(ctx, existing, "readme.txt")
	require.NoError(t, err)
	data, err := afero.ReadFile(fs, saved)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, gw.Delete(ctx, existing))
	assert.Len(t, gw.State().Files, 1)
	assert.Len(t, srv.Shared(), 1)
}
