package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/osa030/jinglebox/internal/app/playback"
)

// fakeMPV answers IPC commands the way mpv does and emits the events that
// follow loadfile and pause changes.
type fakeMPV struct {
	t    *testing.T
	conn net.Conn

	writeMu sync.Mutex

	mu         sync.Mutex
	commands   [][]any
	properties map[string]any
	paused     bool
	hasFile    bool
	failNext   string // Command name whose next call fails
}

func newFakeMPV(t *testing.T) (*fakeMPV, io.ReadWriteCloser) {
	t.Helper()
	client, server := net.Pipe()
	f := &fakeMPV{
		t:          t,
		conn:       server,
		properties: map[string]any{"duration": 212.0, "time-pos": 0.0},
	}
	go f.serve()
	t.Cleanup(func() { _ = server.Close() })
	return f, client
}

func (f *fakeMPV) serve() {
	scanner := bufio.NewScanner(f.conn)
	for scanner.Scan() {
		var req request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			continue
		}
		f.handle(req)
	}
}

func (f *fakeMPV) handle(req request) {
	name, _ := req.Command[0].(string)

	f.mu.Lock()
	f.commands = append(f.commands, req.Command)
	fail := f.failNext == name
	if fail {
		f.failNext = ""
	}
	f.mu.Unlock()

	if fail {
		f.send(map[string]any{"request_id": req.RequestID, "error": "error running command"})
		return
	}

	switch name {
	case "get_property":
		prop, _ := req.Command[1].(string)
		f.mu.Lock()
		v, ok := f.properties[prop]
		f.mu.Unlock()
		if !ok {
			f.send(map[string]any{"request_id": req.RequestID, "error": "property unavailable"})
			return
		}
		f.send(map[string]any{"request_id": req.RequestID, "error": "success", "data": v})

	case "set_property":
		f.send(map[string]any{"request_id": req.RequestID, "error": "success"})
		if prop, _ := req.Command[1].(string); prop == "pause" {
			paused, _ := req.Command[2].(bool)
			f.mu.Lock()
			changed := f.paused != paused
			f.paused = paused
			f.mu.Unlock()
			if changed {
				f.send(map[string]any{"event": "property-change", "id": pauseObserverID, "name": "pause", "data": paused})
			}
		}

	case "observe_property":
		f.send(map[string]any{"request_id": req.RequestID, "error": "success"})
		f.mu.Lock()
		paused := f.paused
		f.mu.Unlock()
		f.send(map[string]any{"event": "property-change", "id": pauseObserverID, "name": "pause", "data": paused})

	case "loadfile":
		f.send(map[string]any{"request_id": req.RequestID, "error": "success"})
		f.mu.Lock()
		hadFile := f.hasFile
		f.hasFile = true
		f.mu.Unlock()
		if hadFile {
			f.send(map[string]any{"event": "end-file", "reason": "stop"})
		}
		f.send(map[string]any{"event": "start-file"})
		f.send(map[string]any{"event": "file-loaded"})

	default:
		f.send(map[string]any{"request_id": req.RequestID, "error": "success"})
	}
}

func (f *fakeMPV) send(v map[string]any) {
	line, err := json.Marshal(v)
	if err != nil {
		f.t.Errorf("marshal: %v", err)
		return
	}
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	_, _ = f.conn.Write(append(line, '\n'))
}

func (f *fakeMPV) SetProperty(name string, v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.properties[name] = v
}

func (f *fakeMPV) FailNext(command string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = command
}

// Commands returns the names of received commands in order.
func (f *fakeMPV) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.commands))
	for _, c := range f.commands {
		name, _ := c[0].(string)
		names = append(names, name)
	}
	return names
}

// Last returns the arguments of the most recent command named name.
func (f *fakeMPV) Last(name string) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.commands) - 1; i >= 0; i-- {
		if n, _ := f.commands[i][0].(string); n == name {
			return f.commands[i]
		}
	}
	return nil
}

// recordingListener records notifications as strings.
type recordingListener struct {
	mu    sync.Mutex
	calls []string
	ready []float64
	codes []playback.ErrorCode
}

func (l *recordingListener) OnReady(d float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, "ready")
	l.ready = append(l.ready, d)
}

func (l *recordingListener) OnStateChange(s playback.PlayerState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, s.String())
}

func (l *recordingListener) OnError(code playback.ErrorCode) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, "error")
	l.codes = append(l.codes, code)
}

func (l *recordingListener) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// newTestService returns a loaded service whose handles talk to fake peers.
func newTestService(t *testing.T) (*Service, func() *fakeMPV) {
	t.Helper()
	cfg, err := NewConfig(nil)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.SocketDir = t.TempDir()
	s := New(cfg)
	s.verify = func(context.Context) error { return nil }

	var mu sync.Mutex
	var last *fakeMPV
	s.launch = func(ctx context.Context, containerID string) (io.ReadWriteCloser, func(), error) {
		f, rwc := newFakeMPV(t)
		mu.Lock()
		last = f
		mu.Unlock()
		return rwc, func() {}, nil
	}
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s, func() *fakeMPV {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}
