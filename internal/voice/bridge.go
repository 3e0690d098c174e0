// Package voice bridges a live audio session with the remote assistant into
// the vehicle registry. It captures microphone audio, streams it out,
// schedules returned speech for playback, and executes the assistant's tool
// calls through the same store entry points the forms use.
package voice

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"autotrack/internal/models"
	"autotrack/internal/registry"

	"go.uber.org/zap"
)

type State int

const (
	StateIdle State = iota
	StateConnecting
	StateActive
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	default:
		return "idle"
	}
}

// ErrBusy is returned by Start while a session is already connecting or
// active.
var ErrBusy = errors.New("voice session already running")

// ErrStopped is returned by Start when a stop request arrived while the
// session was still connecting.
var ErrStopped = errors.New("voice session stopped")

// Options wires a Bridge to its collaborators.
type Options struct {
	Dialer Dialer
	// AcquireSource obtains exclusive microphone input. Called on every
	// Start; the bridge releases the source on teardown.
	AcquireSource func(ctx context.Context) (Source, error)
	Sink          Sink
	Store         *registry.Store
	// Role of the user that started the session. Tool-call writes are
	// subject to the same access policy as form submissions.
	Role models.UserRole
	// OnTranscript, if set, receives each new transcript line.
	OnTranscript func(line string)
	Logger       *zap.Logger
	Clock        func() time.Time
}

type Bridge struct {
	mu    sync.Mutex
	state State
	sess  LiveSession
	src   Source
	done  chan struct{}
	// gen increments on every Start and Stop; an in-flight Start whose
	// generation no longer matches lost a race with Stop and must discard
	// whatever it just opened instead of going Active.
	gen uint64

	sched      *Scheduler
	transcript *Transcript

	dialer        Dialer
	acquireSource func(ctx context.Context) (Source, error)
	store         *registry.Store
	role          models.UserRole
	onTranscript  func(line string)
	log           *zap.Logger
}

func NewBridge(opts Options) *Bridge {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{
		sched:         NewScheduler(opts.Sink, opts.Clock),
		transcript:    NewTranscript(),
		dialer:        opts.Dialer,
		acquireSource: opts.AcquireSource,
		store:         opts.Store,
		role:          opts.Role,
		onTranscript:  opts.OnTranscript,
		log:           log,
	}
}

func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Bridge) Transcript() []string {
	return b.transcript.Lines()
}

// Start moves Idle -> Connecting -> Active. A microphone or connection
// failure during Connecting returns the bridge to Idle with everything
// released; there is no automatic retry. A Stop issued while connecting
// wins: the freshly opened session and source are discarded and Start
// returns ErrStopped.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.state != StateIdle {
		b.mu.Unlock()
		return ErrBusy
	}
	b.state = StateConnecting
	b.gen++
	gen := b.gen
	b.mu.Unlock()

	src, err := b.acquireSource(ctx)
	if err != nil {
		b.abortConnecting(gen)
		b.log.Warn("microphone acquisition failed", zap.Error(err))
		return err
	}

	sess, err := b.dialer.Dial(ctx)
	if err != nil {
		src.Close()
		b.abortConnecting(gen)
		b.log.Warn("live session connect failed", zap.Error(err))
		return err
	}

	done := make(chan struct{})
	b.mu.Lock()
	if b.gen != gen || b.state != StateConnecting {
		// Stop arrived while we were dialing
		b.mu.Unlock()
		_ = sess.Close()
		_ = src.Close()
		return ErrStopped
	}
	b.sess = sess
	b.src = src
	b.done = done
	b.state = StateActive
	b.mu.Unlock()

	go b.pumpAudio(sess, src, done)
	go b.receiveLoop(sess)

	b.log.Info("voice session active")
	return nil
}

// Stop tears the session down: close the remote session, release the
// microphone, discard scheduled audio, reset the playback cursor. Safe to
// call from any trigger (user stop, remote error, remote close) and any
// number of times; only the call that observes a live session does work.
// abortConnecting resets a failed connection attempt to Idle. If the
// generation moved on, a concurrent Stop already did the reset.
func (b *Bridge) abortConnecting(gen uint64) {
	b.mu.Lock()
	if b.gen == gen && b.state == StateConnecting {
		b.state = StateIdle
	}
	b.mu.Unlock()
}

func (b *Bridge) Stop() {
	b.mu.Lock()
	if b.state == StateIdle {
		b.mu.Unlock()
		return
	}
	sess, src, done := b.sess, b.src, b.done
	b.sess, b.src, b.done = nil, nil, nil
	b.state = StateIdle
	b.gen++
	b.mu.Unlock()

	if done != nil {
		close(done)
	}
	if sess != nil {
		if err := sess.Close(); err != nil {
			b.log.Debug("live session close", zap.Error(err))
		}
	}
	if src != nil {
		if err := src.Close(); err != nil {
			b.log.Debug("audio source close", zap.Error(err))
		}
	}
	b.sched.Interrupt()
	b.log.Info("voice session stopped")
}

// pumpAudio streams captured frames out fire-and-forget. Frames arriving
// after a stop request are dropped, not sent.
func (b *Bridge) pumpAudio(sess LiveSession, src Source, done chan struct{}) {
	for frame := range src.Frames() {
		select {
		case <-done:
			return
		default:
		}
		if err := sess.SendAudio(frame); err != nil {
			b.log.Debug("audio frame send failed", zap.Error(err))
		}
	}
}

// receiveLoop drains inbound events until the session errors or closes.
// Either outcome is treated as an implicit stop.
func (b *Bridge) receiveLoop(sess LiveSession) {
	for {
		ev, err := sess.Receive()
		if err != nil {
			if b.State() == StateActive {
				b.log.Warn("live session error", zap.Error(err))
			}
			b.Stop()
			return
		}

		switch e := ev.(type) {
		case EventTranscript:
			line := b.transcript.Append(e.Speaker, e.Text)
			if b.onTranscript != nil {
				b.onTranscript(line)
			}
		case EventToolCall:
			b.handleToolCall(sess, e)
		case EventAudio:
			b.sched.Schedule(e.PCM)
		case EventInterrupted:
			b.sched.Interrupt()
		case EventClosed:
			b.Stop()
			return
		}
	}
}

// handleToolCall executes the assistant's request against the registry and
// sends back exactly one response tagged with the call's correlation id.
func (b *Bridge) handleToolCall(sess LiveSession, call EventToolCall) {
	result := "Not executed"

	switch call.Name {
	case ToolSearchVehicle:
		plate, _ := call.Args["plate"].(string)
		if v, ok := b.store.FindByPlate(plate); ok {
			raw, err := json.Marshal(v)
			if err == nil {
				result = string(raw)
			}
		} else {
			result = "Vehicle not found"
		}
	case ToolAddVehicle:
		p := payloadFromArgs(call.Args)
		if _, err := b.store.Create(context.Background(), b.role, p); err != nil {
			b.log.Warn("voice vehicle registration rejected", zap.Error(err))
			result = "Failed to register vehicle: " + err.Error()
		} else {
			result = "Vehicle registered successfully"
		}
	}

	if err := sess.SendToolResponse(call.ID, call.Name, result); err != nil {
		b.log.Warn("tool response send failed",
			zap.String("call_id", call.ID),
			zap.Error(err))
	}
}

func payloadFromArgs(args map[string]any) registry.Payload {
	str := func(key string) string {
		s, _ := args[key].(string)
		return s
	}
	return registry.Payload{
		Plate:   str("plate"),
		VIN:     str("vin"),
		Type:    models.VehicleType(str("type")),
		Model:   str("model"),
		Year:    str("year"),
		Color:   str("color"),
		Owner:   str("owner"),
		History: str("history"),
	}
}
