// Package notify sends a message when an agent goes offline or comes back.
// Messages are delivered through shoutrrr, so any service it supports
// (Slack, Discord, ntfy, SMTP, generic webhooks) can be a target.
package notify

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/nicholas-fedor/shoutrrr"
	fderrors "github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/config"
	"github.com/rileyhilliard/fleetdash/internal/fleet"
	"github.com/rileyhilliard/fleetdash/internal/logger"
)

// DefaultCooldown is the minimum gap between two messages about one agent.
const DefaultCooldown = 5 * time.Minute

// queueSize bounds messages waiting for delivery; extra ones are dropped.
const queueSize = 64

// Sender abstracts message dispatch so the notifier can be tested without
// hitting real services.
type Sender interface {
	Send(serviceURL, message string) error
}

// ShoutrrrSender dispatches via the shoutrrr library.
type ShoutrrrSender struct{}

// Send delivers message to the service named by serviceURL.
func (ShoutrrrSender) Send(serviceURL, message string) error {
	return shoutrrr.Send(serviceURL, message)
}

// Transition is an agent whose status changed between two fleet snapshots.
type Transition struct {
	Agent fleet.AgentSnapshot
	From  fleet.Status
	To    fleet.Status
}

// WentOffline reports an online to offline change.
func (t Transition) WentOffline() bool {
	return t.To == fleet.StatusOffline
}

// Message renders the notification text.
func (t Transition) Message() string {
	name := t.Agent.DisplayName()
	if t.Agent.IP != "" {
		name = fmt.Sprintf("%s (%s)", name, t.Agent.IP)
	}
	if t.WentOffline() {
		msg := fmt.Sprintf("fleetdash: agent %s went offline", name)
		if !t.Agent.LastSeen.IsZero() {
			msg += ", last seen " + t.Agent.LastSeen.UTC().Format(time.RFC3339)
		}
		return msg
	}
	return fmt.Sprintf("fleetdash: agent %s is back online", name)
}

// Transitions lists agents present in both snapshots whose status differs,
// in next's order. Agents that appear or disappear are not transitions, so
// the first poll after startup never notifies.
func Transitions(prev, next fleet.Fleet) []Transition {
	var out []Transition
	for _, agent := range next.Agents {
		before, ok := prev.Find(agent.AgentID)
		if !ok || before.Status == agent.Status {
			continue
		}
		out = append(out, Transition{Agent: agent, From: before.Status, To: agent.Status})
	}
	return out
}

// Notifier turns fleet refreshes into messages. Observe is cheap and never
// blocks; delivery happens in Run.
type Notifier struct {
	urls     []string
	sender   Sender
	cooldown time.Duration
	now      func() time.Time
	log      logger.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time

	queue chan Transition
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithSender replaces the shoutrrr sender.
func WithSender(s Sender) Option {
	return func(n *Notifier) {
		if s != nil {
			n.sender = s
		}
	}
}

// WithCooldown sets the per-agent cooldown. Zero disables it.
func WithCooldown(d time.Duration) Option {
	return func(n *Notifier) {
		if d >= 0 {
			n.cooldown = d
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) {
		if now != nil {
			n.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(n *Notifier) { n.log = logger.OrDefault(l) }
}

// New creates a notifier for the given shoutrrr service URLs.
func New(urls []string, opts ...Option) *Notifier {
	n := &Notifier{
		urls:     append([]string(nil), urls...),
		sender:   ShoutrrrSender{},
		cooldown: DefaultCooldown,
		now:      time.Now,
		log:      logger.Default(),
		lastSent: make(map[string]time.Time),
		queue:    make(chan Transition, queueSize),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// FromConfig creates a notifier from the notify config section.
func FromConfig(cfg config.NotifyConfig, opts ...Option) *Notifier {
	return New(cfg.URLs, append([]Option{WithCooldown(cfg.Cooldown)}, opts...)...)
}

// Enabled reports whether any target is configured.
func (n *Notifier) Enabled() bool {
	return len(n.urls) > 0
}

// Observe matches fleet.Observer. It queues one message per transition that
// is not inside its agent's cooldown.
func (n *Notifier) Observe(prev, next fleet.Fleet) {
	if !n.Enabled() {
		return
	}
	for _, t := range Transitions(prev, next) {
		if !n.admit(t.Agent.AgentID) {
			n.log.Debug("notify: %s changed to %s inside cooldown, skipping", t.Agent.DisplayName(), t.To)
			continue
		}
		select {
		case n.queue <- t:
		default:
			n.log.Warn("notify: queue full, dropping message for %s", t.Agent.DisplayName())
		}
	}
}

// admit records a send for agentID unless one happened within the cooldown.
func (n *Notifier) admit(agentID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	if last, ok := n.lastSent[agentID]; ok && n.cooldown > 0 && now.Sub(last) < n.cooldown {
		return false
	}
	n.lastSent[agentID] = now
	return true
}

// Run delivers queued messages until ctx is cancelled, then drains what is
// already queued.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case t := <-n.queue:
			n.Deliver(t)
		case <-ctx.Done():
			for {
				select {
				case t := <-n.queue:
					n.Deliver(t)
				default:
					return
				}
			}
		}
	}
}

// Deliver sends t to every target now. Failures are logged and returned
// joined; one bad target does not stop the others.
func (n *Notifier) Deliver(t Transition) error {
	msg := t.Message()
	var errs []error
	for _, u := range n.urls {
		if err := n.sender.Send(u, msg); err != nil {
			wrapped := fderrors.WrapWithCode(err, fderrors.ErrNotify,
				"notification via "+service(u)+" failed",
				"Check the URL in the 'notify' section of your fleetdash.yaml.")
			n.log.Warn("%s", fderrors.UserMessage(wrapped))
			errs = append(errs, wrapped)
		}
	}
	return fderrors.Join(errs...)
}

// service returns the scheme of a shoutrrr URL, which names the service
// without leaking tokens into logs.
func service(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return "unknown service"
	}
	return u.Scheme
}
