package files

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"

	fderrors "github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/rileyhilliard/fleetdash/internal/telemetry"
)

// Lister lists a directory on an agent.
type Lister interface {
	List(ctx context.Context, path string) (Listing, error)
}

// Phase is where a Navigator is in its request cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseListed
	PhaseErrored
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseListed:
		return "listed"
	case PhaseErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// NavState is an immutable snapshot of a Navigator.
type NavState struct {
	Phase Phase
	// Path is the listed directory, or the one being loaded.
	Path    string
	Entries []FileEntry
	Err     error
	Root    string
	Closed  bool
}

// AtRoot reports whether Back would be a no-op.
func (s NavState) AtRoot() bool {
	_, ok := ParentPath(s.Path, s.Root)
	return !ok
}

// Navigator browses one agent's file system. Only the most recently issued
// request may change its state; older responses are dropped.
type Navigator struct {
	lister Lister
	root   string
	log    logger.Logger

	mu     sync.Mutex
	state  NavState
	gen    uint64
	cancel context.CancelFunc
	closed bool
}

// NewNavigator creates an idle navigator rooted at root.
func NewNavigator(lister Lister, root string, opts ...Option) *Navigator {
	o := buildOptions(opts)
	return &Navigator{
		lister: lister,
		root:   root,
		log:    o.log,
		state:  NavState{Phase: PhaseIdle, Path: root, Root: root},
	}
}

// State returns the current snapshot.
func (n *Navigator) State() NavState {
	n.mu.Lock()
	defer n.mu.Unlock()
	s := n.state
	s.Entries = append([]FileEntry(nil), n.state.Entries...)
	return s
}

// Start lists the root directory.
func (n *Navigator) Start(ctx context.Context) error {
	return n.Navigate(ctx, n.root)
}

// Navigate lists path, cancelling any request still in flight.
// It returns ErrSuperseded if a newer request replaced this one before it
// finished, and the listing error if it failed. A failure clears the entries.
func (n *Navigator) Navigate(ctx context.Context, path string) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return ErrSessionClosed
	}
	if n.cancel != nil {
		n.cancel()
	}
	n.gen++
	gen := n.gen
	reqCtx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	n.state = NavState{
		Phase:   PhaseLoading,
		Path:    path,
		Entries: n.state.Entries,
		Root:    n.root,
	}
	n.mu.Unlock()

	listing, err := n.lister.List(reqCtx, path)
	cancel()

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrSessionClosed
	}
	if gen != n.gen {
		n.log.Debug("dropping stale listing for %s", path)
		return ErrSuperseded
	}
	n.cancel = nil
	telemetry.ObserveFileOp("list", err)

	if err != nil {
		wrapped := fderrors.OperationFailed("list files", err)
		n.state = NavState{Phase: PhaseErrored, Path: path, Root: n.root, Err: wrapped}
		n.log.Debug("list %s failed: %v", path, err)
		return wrapped
	}

	shown := listing.Path
	if shown == "" {
		shown = path
	}
	n.state = NavState{
		Phase:   PhaseListed,
		Path:    shown,
		Entries: append([]FileEntry(nil), listing.Items...),
		Root:    n.root,
	}
	return nil
}

// Open navigates into a directory entry. Files are ignored.
func (n *Navigator) Open(ctx context.Context, entry FileEntry) error {
	if !entry.IsDirectory {
		return nil
	}
	return n.Navigate(ctx, entry.Path)
}

// Back navigates to the parent directory. At the root it does nothing and
// issues no request.
func (n *Navigator) Back(ctx context.Context) error {
	n.mu.Lock()
	closed := n.closed
	current := n.state.Path
	n.mu.Unlock()

	if closed {
		return ErrSessionClosed
	}
	parent, ok := ParentPath(current, n.root)
	if !ok {
		return nil
	}
	return n.Navigate(ctx, parent)
}

// Retry re-issues the request for the current path.
func (n *Navigator) Retry(ctx context.Context) error {
	n.mu.Lock()
	current := n.state.Path
	n.mu.Unlock()

	if current == "" {
		current = n.root
	}
	return n.Navigate(ctx, current)
}

// Close cancels any request in flight. Every later call returns ErrSessionClosed.
func (n *Navigator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	n.gen++
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
	n.state.Closed = true
}

var driveRoot = regexp.MustCompile(`^[A-Za-z]:[\\/]?$`)

// ParentPath returns the parent of p by dropping its last segment. The
// separator is taken from p itself (\ or /). ok is false when p is root,
// a drive root, or has no parent. A bare drive like "C:" becomes "C:\".
func ParentPath(p, root string) (string, bool) {
	if p == "" || samePath(p, root) {
		return "", false
	}
	if p == "/" || driveRoot.MatchString(p) {
		return "", false
	}

	sep := "/"
	if strings.Contains(p, `\`) {
		sep = `\`
	}

	trimmed := strings.TrimRight(p, sep)
	if trimmed == "" {
		return "", false
	}
	idx := strings.LastIndex(trimmed, sep)
	if idx < 0 {
		return "", false
	}

	parent := trimmed[:idx]
	switch {
	case parent == "":
		parent = sep
	case driveRoot.MatchString(parent):
		parent = strings.TrimRight(parent, `\/`) + `\`
	}
	return parent, true
}

func samePath(a, b string) bool {
	if b == "" {
		return false
	}
	ta, tb := strings.TrimRight(a, `\/`), strings.TrimRight(b, `\/`)
	if strings.Contains(a, `\`) || strings.Contains(b, `\`) || driveRoot.MatchString(a) {
		return strings.EqualFold(ta, tb)
	}
	return ta == tb
}

// Discarded reports whether err only means the result was dropped, either
// because a newer request won or because the session was closed.
func Discarded(err error) bool {
	return errors.Is(err, ErrSuperseded) || errors.Is(err, ErrSessionClosed)
}
