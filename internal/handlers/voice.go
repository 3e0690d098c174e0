package handlers

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"sync"
	"time"

	"autotrack/internal/middleware"
	"autotrack/internal/voice"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  8192,
	WriteBufferSize: 8192,
	CheckOrigin:     sameOrigin,
}

// sameOrigin accepts browsers served by this host; non-browser clients
// send no Origin header and pass.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// VoiceStream relays a browser microphone to the live assistant session.
// Binary frames in are raw PCM; JSON text frames out carry state changes,
// transcript lines and scheduled assistant audio. The socket's lifetime
// bounds the voice session.
func (h *Handlers) VoiceStream(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	if h.VoiceDialer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "voice assistant is not configured"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	out := &wsOut{conn: conn}
	src := newWSSource()

	bridge := voice.NewBridge(voice.Options{
		Dialer:        h.VoiceDialer,
		AcquireSource: func(ctx context.Context) (voice.Source, error) { return src, nil },
		Sink:          out,
		Store:         h.Store,
		Role:          user.Role,
		OnTranscript:  func(line string) { out.send(wsMessage{Type: "transcript", Line: line}) },
		Logger:        h.Log,
	})

	out.send(wsMessage{Type: "state", State: "connecting"})
	if err := bridge.Start(c.Request.Context()); err != nil {
		out.send(wsMessage{Type: "state", State: "idle", Error: err.Error()})
		return
	}
	out.send(wsMessage{Type: "state", State: "active"})

	// the read loop doubles as disconnect detection
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType == websocket.BinaryMessage {
			src.push(data)
		}
	}

	bridge.Stop()
	out.send(wsMessage{Type: "state", State: "idle"})
}

type wsMessage struct {
	Type    string `json:"type"`
	State   string `json:"state,omitempty"`
	Line    string `json:"line,omitempty"`
	Data    string `json:"data,omitempty"`
	StartMs int64  `json:"startMs,omitempty"`
	Error   string `json:"error,omitempty"`
}

// wsOut serializes writes to the socket and doubles as the bridge's audio
// sink: frames go out with their timeline offset and the browser schedules
// actual playback.
type wsOut struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsOut) send(msg wsMessage) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.WriteJSON(msg)
}

func (w *wsOut) Play(pcm []byte, start time.Time) {
	w.send(wsMessage{
		Type:    "audio",
		Data:    base64.StdEncoding.EncodeToString(pcm),
		StartMs: time.Until(start).Milliseconds(),
	})
}

func (w *wsOut) Flush() {
	w.send(wsMessage{Type: "interrupt"})
}

// wsSource adapts inbound binary frames to a voice.Source. The channel is
// bounded; when the bridge falls behind, frames are dropped rather than
// blocking the socket read loop. Frames pushed after Close are discarded.
type wsSource struct {
	mu     sync.Mutex
	frames chan []byte
	closed bool
}

func newWSSource() *wsSource {
	return &wsSource{frames: make(chan []byte, 32)}
}

func (s *wsSource) push(frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.frames <- frame:
	default:
	}
}

func (s *wsSource) Frames() <-chan []byte { return s.frames }

func (s *wsSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.frames)
	}
	return nil
}
