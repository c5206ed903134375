package files

import (
	"errors"
	"time"

	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/spf13/afero"
)

// DefaultSharedPollInterval is how often Gateway.Run refreshes the shared list.
const DefaultSharedPollInterval = 10 * time.Second

var (
	// ErrSessionClosed is returned by every operation after Close.
	ErrSessionClosed = errors.New("file session closed")

	// ErrSuperseded means a newer request of the same kind was started and
	// this result was discarded.
	ErrSuperseded = errors.New("superseded by a newer request")
)

type options struct {
	log            logger.Logger
	fs             afero.Fs
	downloadDir    string
	maxUploadBytes int64
	allowedMIME    []string
	pollInterval   time.Duration
}

func defaultOptions() options {
	return options{
		log:          logger.Default(),
		fs:           afero.NewOsFs(),
		downloadDir:  ".",
		pollInterval: DefaultSharedPollInterval,
	}
}

// Option configures a Navigator, Gateway, or Session.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = logger.OrDefault(l) }
}

// WithFs sets the local file system used for uploads and downloads.
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		if fs != nil {
			o.fs = fs
		}
	}
}

// WithDownloadDir sets where downloads are saved.
func WithDownloadDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.downloadDir = dir
		}
	}
}

// WithMaxUploadBytes rejects larger local files. 0 means unlimited.
func WithMaxUploadBytes(n int64) Option {
	return func(o *options) { o.maxUploadBytes = n }
}

// WithAllowedMIMETypes restricts uploads to these types ("image/*" wildcards allowed).
func WithAllowedMIMETypes(types []string) Option {
	return func(o *options) { o.allowedMIME = append([]string(nil), types...) }
}

// WithPollInterval sets the shared-list refresh interval for Gateway.Run.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
