package voice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"autotrack/internal/models"
	"autotrack/internal/policy"
	"autotrack/internal/registry"
	"autotrack/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toolResponse struct {
	id, name, result string
}

// fakeSession feeds scripted events to the bridge and records everything
// sent back.
type fakeSession struct {
	events    chan Event
	responses chan toolResponse

	mu     sync.Mutex
	sent   int
	closes int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		events:    make(chan Event, 16),
		responses: make(chan toolResponse, 16),
	}
}

func (f *fakeSession) SendAudio(_ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent++
	return nil
}

func (f *fakeSession) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent
}

func (f *fakeSession) SendToolResponse(callID, name, result string) error {
	f.responses <- toolResponse{id: callID, name: name, result: result}
	return nil
}

func (f *fakeSession) Receive() (Event, error) {
	ev, ok := <-f.events
	if !ok {
		return nil, errors.New("session closed")
	}
	return ev, nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closes == 0 {
		close(f.events)
	}
	f.closes++
	return nil
}

func (f *fakeSession) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

// fakeSource keeps its frame channel open after Close so tests can push
// frames that arrive "after" a stop request.
type fakeSource struct {
	frames chan []byte

	mu     sync.Mutex
	closed bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{frames: make(chan []byte, 16)}
}

func (f *fakeSource) Frames() <-chan []byte { return f.frames }

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSource) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeDialer struct {
	sess LiveSession
	err  error
}

func (d fakeDialer) Dial(context.Context) (LiveSession, error) {
	return d.sess, d.err
}

type bridgeFixture struct {
	bridge *Bridge
	sess   *fakeSession
	src    *fakeSource
	sink   *recordingSink
	store  *registry.Store
	lines  chan string
}

func newBridgeFixture(t *testing.T, role models.UserRole) *bridgeFixture {
	t.Helper()

	store, err := registry.New(context.Background(), storage.NewMemKV(), policy.New(policy.ModeRBAC))
	require.NoError(t, err)

	f := &bridgeFixture{
		sess:  newFakeSession(),
		src:   newFakeSource(),
		sink:  &recordingSink{},
		store: store,
		lines: make(chan string, 16),
	}
	f.bridge = NewBridge(Options{
		Dialer:        fakeDialer{sess: f.sess},
		AcquireSource: func(context.Context) (Source, error) { return f.src, nil },
		Sink:          f.sink,
		Store:         store,
		Role:          role,
		OnTranscript:  func(line string) { f.lines <- line },
	})
	return f
}

func (f *bridgeFixture) awaitResponse(t *testing.T) toolResponse {
	t.Helper()
	select {
	case r := <-f.sess.responses:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no tool response received")
		return toolResponse{}
	}
}

func TestBridge_StartMovesToActive(t *testing.T) {
	f := newBridgeFixture(t, models.RoleAdmin)

	require.Equal(t, StateIdle, f.bridge.State())
	require.NoError(t, f.bridge.Start(context.Background()))
	assert.Equal(t, StateActive, f.bridge.State())

	f.bridge.Stop()
}

func TestBridge_StartWhileActiveFails(t *testing.T) {
	f := newBridgeFixture(t, models.RoleAdmin)

	require.NoError(t, f.bridge.Start(context.Background()))
	defer f.bridge.Stop()

	assert.ErrorIs(t, f.bridge.Start(context.Background()), ErrBusy)
}

// blockingDialer holds Dial until release is closed so tests can inject
// a stop request mid-connect.
type blockingDialer struct {
	sess    LiveSession
	release chan struct{}
}

func (d blockingDialer) Dial(context.Context) (LiveSession, error) {
	<-d.release
	return d.sess, nil
}

func TestBridge_StopDuringConnectDiscardsSession(t *testing.T) {
	f := newBridgeFixture(t, models.RoleAdmin)
	release := make(chan struct{})
	f.bridge.dialer = blockingDialer{sess: f.sess, release: release}

	startErr := make(chan error, 1)
	go func() { startErr <- f.bridge.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		return f.bridge.State() == StateConnecting
	}, 2*time.Second, 10*time.Millisecond)

	f.bridge.Stop()
	require.Equal(t, StateIdle, f.bridge.State())

	close(release)

	select {
	case err := <-startErr:
		assert.ErrorIs(t, err, ErrStopped)
	case <-time.After(2 * time.Second):
		t.Fatal("start did not return")
	}

	// the late session must not resurrect the bridge
	assert.Equal(t, StateIdle, f.bridge.State())
	assert.Equal(t, 1, f.sess.closeCount())
	assert.True(t, f.src.isClosed())
}

func TestBridge_MicFailureReturnsToIdle(t *testing.T) {
	f := newBridgeFixture(t, models.RoleAdmin)
	f.bridge.acquireSource = func(context.Context) (Source, error) {
		return nil, errors.New("permission denied")
	}

	require.Error(t, f.bridge.Start(context.Background()))
	assert.Equal(t, StateIdle, f.bridge.State())
}

func TestBridge_ConnectFailureReleasesSource(t *testing.T) {
	f := newBridgeFixture(t, models.RoleAdmin)
	f.bridge.dialer = fakeDialer{err: errors.New("connect refused")}

	require.Error(t, f.bridge.Start(context.Background()))
	assert.Equal(t, StateIdle, f.bridge.State())
	assert.True(t, f.src.isClosed())
}

func TestBridge_SearchToolCallGetsOneCorrelatedResponse(t *testing.T) {
	f := newBridgeFixture(t, models.RoleAdmin)
	require.NoError(t, f.bridge.Start(context.Background()))
	defer f.bridge.Stop()

	f.sess.events <- EventToolCall{
		ID:   "c1",
		Name: ToolSearchVehicle,
		Args: map[string]any{"plate": "KAB123X"},
	}

	resp := f.awaitResponse(t)
	assert.Equal(t, "c1", resp.id)
	assert.Equal(t, ToolSearchVehicle, resp.name)
	assert.Contains(t, resp.result, `"plate":"KAB123X"`)
	assert.Contains(t, resp.result, `"vin":"VIN00123998"`)

	// exactly one response per call
	select {
	case extra := <-f.sess.responses:
		t.Fatalf("unexpected second response: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBridge_SearchToolCallNotFoundSentinel(t *testing.T) {
	f := newBridgeFixture(t, models.RoleAdmin)
	require.NoError(t, f.bridge.Start(context.Background()))
	defer f.bridge.Stop()

	f.sess.events <- EventToolCall{
		ID:   "c2",
		Name: ToolSearchVehicle,
		Args: map[string]any{"plate": "NOPE999Z"},
	}

	resp := f.awaitResponse(t)
	assert.Equal(t, "c2", resp.id)
	assert.Equal(t, "Vehicle not found", resp.result)
}

func TestBridge_AddToolCallCreatesRecord(t *testing.T) {
	f := newBridgeFixture(t, models.RoleAdmin)
	require.NoError(t, f.bridge.Start(context.Background()))
	defer f.bridge.Stop()

	f.sess.events <- EventToolCall{
		ID:   "c3",
		Name: ToolAddVehicle,
		Args: map[string]any{
			"plate": "NEW001A", "vin": "X1", "type": "Car",
			"model": "Test", "year": "2024", "color": "Red", "owner": "Jane",
		},
	}

	resp := f.awaitResponse(t)
	assert.Equal(t, "Vehicle registered successfully", resp.result)

	v, ok := f.store.FindByPlate("NEW001A")
	require.True(t, ok)
	assert.Equal(t, "Jane", v.Owner)
	assert.Equal(t, 3, f.store.Count())
}

func TestBridge_AddToolCallDeniedForViewer(t *testing.T) {
	f := newBridgeFixture(t, models.RoleViewer)
	require.NoError(t, f.bridge.Start(context.Background()))
	defer f.bridge.Stop()

	f.sess.events <- EventToolCall{
		ID:   "c4",
		Name: ToolAddVehicle,
		Args: map[string]any{
			"plate": "NEW001A", "vin": "X1", "type": "Car",
			"model": "Test", "year": "2024", "color": "Red", "owner": "Jane",
		},
	}

	resp := f.awaitResponse(t)
	assert.Equal(t, "c4", resp.id)
	assert.Contains(t, resp.result, "Failed to register vehicle")
	assert.Equal(t, 2, f.store.Count())
}

func TestBridge_UnknownToolStillAnswers(t *testing.T) {
	f := newBridgeFixture(t, models.RoleAdmin)
	require.NoError(t, f.bridge.Start(context.Background()))
	defer f.bridge.Stop()

	f.sess.events <- EventToolCall{ID: "c5", Name: "selfDestruct"}

	resp := f.awaitResponse(t)
	assert.Equal(t, "c5", resp.id)
	assert.Equal(t, "Not executed", resp.result)
}

func TestBridge_AudioEventsAreScheduled(t *testing.T) {
	f := newBridgeFixture(t, models.RoleAdmin)
	require.NoError(t, f.bridge.Start(context.Background()))
	defer f.bridge.Stop()

	f.sess.events <- EventAudio{PCM: frame200ms()}
	f.sess.events <- EventAudio{PCM: frame200ms()}

	require.Eventually(t, func() bool {
		return len(f.sink.starts()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	starts := f.sink.starts()
	assert.Equal(t, 200*time.Millisecond, starts[1].Sub(starts[0]))
}

func TestBridge_InterruptionDiscardsScheduledAudio(t *testing.T) {
	f := newBridgeFixture(t, models.RoleAdmin)
	require.NoError(t, f.bridge.Start(context.Background()))
	defer f.bridge.Stop()

	f.sess.events <- EventAudio{PCM: frame200ms()}
	f.sess.events <- EventInterrupted{}

	require.Eventually(t, func() bool {
		f.sink.mu.Lock()
		defer f.sink.mu.Unlock()
		return f.sink.flushes == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBridge_TranscriptLinesReachCallback(t *testing.T) {
	f := newBridgeFixture(t, models.RoleAdmin)
	require.NoError(t, f.bridge.Start(context.Background()))
	defer f.bridge.Stop()

	f.sess.events <- EventTranscript{Speaker: SpeakerUser, Text: "find KAB123X"}

	select {
	case line := <-f.lines:
		assert.Equal(t, "You: find KAB123X", line)
	case <-time.After(2 * time.Second):
		t.Fatal("no transcript line delivered")
	}
	assert.Equal(t, []string{"You: find KAB123X"}, f.bridge.Transcript())
}

func TestBridge_StopIsIdempotent(t *testing.T) {
	f := newBridgeFixture(t, models.RoleAdmin)
	require.NoError(t, f.bridge.Start(context.Background()))

	f.bridge.Stop()
	f.bridge.Stop()

	assert.Equal(t, StateIdle, f.bridge.State())
	assert.Equal(t, 1, f.sess.closeCount())
	assert.True(t, f.src.isClosed())

	// teardown discards any scheduled audio
	f.sink.mu.Lock()
	flushes := f.sink.flushes
	f.sink.mu.Unlock()
	assert.Equal(t, 1, flushes)
}

func TestBridge_RemoteCloseTriggersTeardown(t *testing.T) {
	f := newBridgeFixture(t, models.RoleAdmin)
	require.NoError(t, f.bridge.Start(context.Background()))

	f.sess.events <- EventClosed{}

	require.Eventually(t, func() bool {
		return f.bridge.State() == StateIdle
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, f.src.isClosed())
}

func TestBridge_RemoteErrorTriggersTeardown(t *testing.T) {
	f := newBridgeFixture(t, models.RoleAdmin)
	require.NoError(t, f.bridge.Start(context.Background()))

	// a failing Receive looks like the remote stream dying
	require.NoError(t, f.sess.Close())

	require.Eventually(t, func() bool {
		return f.bridge.State() == StateIdle
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, f.src.isClosed())
}

func TestBridge_FramesAfterStopAreDropped(t *testing.T) {
	f := newBridgeFixture(t, models.RoleAdmin)
	require.NoError(t, f.bridge.Start(context.Background()))

	f.bridge.Stop()
	f.src.frames <- make([]byte, 640)

	assert.Never(t, func() bool {
		return f.sess.sentCount() > 0
	}, 200*time.Millisecond, 20*time.Millisecond)
}

func TestBridge_FramesAreStreamedWhileActive(t *testing.T) {
	f := newBridgeFixture(t, models.RoleAdmin)
	require.NoError(t, f.bridge.Start(context.Background()))
	defer f.bridge.Stop()

	f.src.frames <- make([]byte, 640)
	f.src.frames <- make([]byte, 640)

	require.Eventually(t, func() bool {
		return f.sess.sentCount() == 2
	}, 2*time.Second, 10*time.Millisecond)
}
