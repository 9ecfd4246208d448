package payguard

import (
	"fmt"
	"io"

	internalaudit "github.com/MrEthical07/payguard/internal/audit"
)

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditKind identifies what an [AuditEvent] records.
type AuditKind = internalaudit.Kind

// Audit event kinds. Login success, logout and 401 revocation are lifecycle
// kinds: the dispatcher neither drops nor excludes them.
const (
	AuditLoginSuccess      = internalaudit.KindLoginSuccess
	AuditLoginFailure      = internalaudit.KindLoginFailure
	AuditLogout            = internalaudit.KindLogout
	AuditLogoutCallFailure = internalaudit.KindLogoutCallFailure
	AuditSessionRestored   = internalaudit.KindSessionRestored
	AuditSessionDiscarded  = internalaudit.KindSessionDiscarded
	AuditSessionRevoked    = internalaudit.KindSessionRevoked
	AuditNavigationDenied  = internalaudit.KindNavigationDenied
)

// AuditKinds lists every kind the engine can emit.
func AuditKinds() []AuditKind { return internalaudit.Kinds() }

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// AuditSinkFunc adapts a function to [AuditSink].
type AuditSinkFunc = internalaudit.FuncSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes one JSON object per line to
// an [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) (*internalaudit.Dispatcher, error) {
	exclude, err := cfg.excludedKinds()
	if err != nil {
		return nil, err
	}
	return internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Enabled,
		BufferSize: cfg.BufferSize,
		DropIfFull: cfg.DropIfFull,
		Exclude:    exclude,
	}, sink), nil
}

func (c AuditConfig) excludedKinds() ([]AuditKind, error) {
	kinds := make([]AuditKind, 0, len(c.Exclude))
	for _, label := range c.Exclude {
		k, err := internalaudit.ParseKind(label)
		if err != nil {
			return nil, fmt.Errorf("%w: audit exclude: %w", ErrInvalidConfig, err)
		}
		if k.Lifecycle() {
			return nil, fmt.Errorf("%w: audit exclude: %s cannot be excluded", ErrInvalidConfig, k)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
