// Package files implements browsing and file transfer for a single agent.
//
// A Navigator walks the agent's file system one directory at a time. Each
// Navigate cancels the previous request and bumps a generation counter, and
// a response is applied only if its generation is still current, so the view
// always shows the last directory the user asked for.
//
// A Gateway manages the agent's shared-file registry. It polls the list,
// uploads one local file at a time with monotonic progress, downloads into a
// local directory through a temp file and rename, and deletes by ID. Deleted
// IDs are hidden from any list that was requested before the delete finished.
//
// Both are owned by a Session, which the dashboard closes when the selected
// agent changes. After Close, late responses are discarded and every call
// returns ErrSessionClosed.
package files
