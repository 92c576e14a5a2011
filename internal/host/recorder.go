package host

import (
	"context"
	"sync"

	"github.com/phillarmonic/praxis/internal/scope"
)

// Sent is a message captured by a Recorder
type Sent struct {
	Channel string  `json:"channel,omitempty"`
	Message Message `json:"message"`
}

// Recorder wraps a host and keeps a copy of every message sent and every
// error reported through it
type Recorder struct {
	Host

	mu      sync.Mutex
	sent    []Sent
	reports []error
	prefix  string
}

// NewRecorder wraps h; a nil h records against Nop
func NewRecorder(h Host) *Recorder {
	if h == nil {
		h = Nop{}
	}
	return &Recorder{Host: h}
}

func (r *Recorder) Send(ctx context.Context, origin scope.Origin, channel *Channel, msg Message) error {
	if err := r.Host.Send(ctx, origin, channel, msg); err != nil {
		return err
	}
	s := Sent{Message: msg}
	if channel == nil {
		channel, _ = origin.Channel.(*Channel)
	}
	if channel != nil {
		s.Channel = channel.Name
	}
	r.mu.Lock()
	r.sent = append(r.sent, s)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) SetCommandPrefix(ctx context.Context, origin scope.Origin, prefix string) error {
	if err := r.Host.SetCommandPrefix(ctx, origin, prefix); err != nil {
		return err
	}
	r.mu.Lock()
	r.prefix = prefix
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Report(ctx context.Context, sc *scope.Scope, err error) {
	r.mu.Lock()
	r.reports = append(r.reports, err)
	r.mu.Unlock()
	r.Host.Report(ctx, sc, err)
}

// Sent returns the captured messages
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sent, len(r.sent))
	copy(out, r.sent)
	return out
}

// Texts returns the plain text of each captured message
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, s := range r.sent {
		out = append(out, s.Message.Text)
	}
	return out
}

// Reports returns the captured errors
func (r *Recorder) Reports() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]error, len(r.reports))
	copy(out, r.reports)
	return out
}

// Prefix returns the last command prefix set through the recorder
func (r *Recorder) Prefix() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prefix
}
