package files

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	fderrors "github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/spf13/afero"
)

// LocalFile is a file on this machine chosen for upload.
type LocalFile struct {
	Path string
	Name string
	Size int64
	MIME string
}

// sniffLen is how much of a file http.DetectContentType looks at.
const sniffLen = 512

// inspectLocalFile stats p and checks it against the upload limits.
func inspectLocalFile(fs afero.Fs, p string, maxBytes int64, allowed []string) (LocalFile, error) {
	info, err := fs.Stat(p)
	if err != nil {
		return LocalFile{}, fderrors.WrapWithCode(err, fderrors.ErrFiles,
			"Can't read "+p,
			"Check the path and that you have permission to read it.")
	}
	if info.IsDir() {
		return LocalFile{}, fderrors.New(fderrors.ErrFiles,
			p+" is a directory",
			"Pick a single file to upload.")
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return LocalFile{}, fderrors.New(fderrors.ErrFiles,
			fmt.Sprintf("%s is %d bytes, over the %d byte upload limit", filepath.Base(p), info.Size(), maxBytes),
			"Raise files.max_upload_bytes or pick a smaller file.")
	}

	mimeType, err := detectMIME(fs, p)
	if err != nil {
		return LocalFile{}, fderrors.WrapWithCode(err, fderrors.ErrFiles,
			"Can't read "+p,
			"Check that you have permission to read it.")
	}
	if !mimeAllowed(mimeType, allowed) {
		return LocalFile{}, fderrors.New(fderrors.ErrFiles,
			fmt.Sprintf("%s has type %s, which is not allowed", filepath.Base(p), mimeType),
			"Allowed types: "+strings.Join(allowed, ", "))
	}

	return LocalFile{
		Path: p,
		Name: filepath.Base(p),
		Size: info.Size(),
		MIME: mimeType,
	}, nil
}

// detectMIME guesses from the extension first, then sniffs the content.
func detectMIME(fs afero.Fs, p string) (string, error) {
	if byExt := mime.TypeByExtension(filepath.Ext(p)); byExt != "" {
		return baseMIME(byExt), nil
	}

	f, err := fs.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", err
	}
	return baseMIME(http.DetectContentType(buf[:n])), nil
}

// baseMIME drops parameters: "text/plain; charset=utf-8" -> "text/plain".
func baseMIME(t string) string {
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(t))
}

func mimeAllowed(t string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == t || a == "*/*" {
			return true
		}
		if prefix, ok := strings.CutSuffix(a, "/*"); ok && strings.HasPrefix(t, prefix+"/") {
			return true
		}
	}
	return false
}

// SafeName reduces a server-supplied file name to a plain base name that
// cannot escape the download directory. fallback is used when nothing usable
// remains.
func SafeName(name, fallback string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == ':' {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)

	switch name {
	case "", ".", "..", "/":
		if fallback == "" {
			return "download"
		}
		return SafeName(fallback, "download")
	}
	return name
}

// uniquePath returns dir/name, or dir/"stem (n).ext" for the first n that is free.
func uniquePath(fs afero.Fs, dir, name string) (string, error) {
	candidate := filepath.Join(dir, name)
	exists, err := afero.Exists(fs, candidate)
	if err != nil {
		return "", err
	}
	if !exists {
		return candidate, nil
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		exists, err := afero.Exists(fs, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}
