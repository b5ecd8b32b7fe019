package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	ps "github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/sadopc/tracklet/internal/clock"
)

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// recordSink is written to from timer goroutines.
type recordSink struct {
	mu  sync.Mutex
	got []Notification
}

func (r *recordSink) Deliver(n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return nil
}

func (r *recordSink) delivered() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.got...)
}

type failSink struct{}

func (failSink) Deliver(Notification) error { return errors.New("offline") }

// ============================================================
// Scheduler
// ============================================================

func TestScheduleRequiresPermission(t *testing.T) {
	s := NewScheduler(clock.NewFake(epoch), true, &recordSink{})
	assert.ErrorIs(t, s.ScheduleOneShot(time.Minute, "t", "b"), ErrNotPermitted)
	assert.ErrorIs(t, s.Notify("t", "b"), ErrNotPermitted)

	assert.True(t, s.RequestPermission())
	assert.NoError(t, s.ScheduleOneShot(time.Minute, "t", "b"))
}

func TestPermissionRefused(t *testing.T) {
	assert.False(t, NewScheduler(clock.NewFake(epoch), false, &recordSink{}).RequestPermission())
	assert.False(t, NewScheduler(clock.NewFake(epoch), true).RequestPermission(), "no sinks")
}

func TestOneShotFiresOnce(t *testing.T) {
	c := clock.NewFake(epoch)
	sink := &recordSink{}
	s := NewScheduler(c, true, sink)
	s.RequestPermission()

	require.NoError(t, s.ScheduleOneShot(25*time.Minute, "Focus session complete", "Time for a break."))
	assert.Equal(t, 1, s.Pending())

	c.Advance(24 * time.Minute)
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, sink.delivered())

	c.Advance(time.Minute)
	require.Eventually(t, func() bool { return len(sink.delivered()) == 1 }, time.Second, time.Millisecond)
	got := sink.delivered()[0]
	assert.Equal(t, "Focus session complete", got.Title)
	assert.Equal(t, epoch.Add(25*time.Minute), got.At)
	assert.NotEmpty(t, got.ID)
	assert.Zero(t, s.Pending())

	c.Advance(time.Hour)
	time.Sleep(10 * time.Millisecond)
	assert.Len(t, sink.delivered(), 1)
}

func TestCancelAll(t *testing.T) {
	c := clock.NewFake(epoch)
	sink := &recordSink{}
	s := NewScheduler(c, true, sink)
	s.RequestPermission()

	require.NoError(t, s.ScheduleOneShot(time.Minute, "a", ""))
	require.NoError(t, s.ScheduleOneShot(2*time.Minute, "b", ""))
	s.CancelAll()
	assert.Zero(t, s.Pending())

	c.Advance(time.Hour)
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, sink.delivered())
}

func TestNotifyDeliversToAllSinks(t *testing.T) {
	a, b := &recordSink{}, &recordSink{}
	s := NewScheduler(clock.NewFake(epoch), true, a, failSink{}, b)
	s.RequestPermission()

	err := s.Notify("Arrived at Office", "Tracking started automatically.")
	assert.ErrorContains(t, err, "offline")
	assert.Len(t, a.delivered(), 1)
	assert.Len(t, b.delivered(), 1)
}

// ============================================================
// Sinks
// ============================================================

func TestChanSinkDropsWhenFull(t *testing.T) {
	c := NewChanSink(1)
	require.NoError(t, c.Deliver(Notification{Title: "one"}))
	assert.ErrorIs(t, c.Deliver(Notification{Title: "two"}), ErrSinkFull)
	assert.Equal(t, "one", (<-c.C).Title)
}

func TestBellSink(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, BellSink{W: &buf}.Deliver(Notification{Title: "Break over", Body: "Back to work."}))
	assert.Equal(t, "\aBreak over: Back to work.\n", buf.String())
}

func TestWebhookSink(t *testing.T) {
	var got WebhookPayload
	var secret string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret = r.Header.Get(SecretHeader)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := &WebhookSink{URL: srv.URL, Secret: "s3cret"}
	require.NoError(t, sink.Deliver(Notification{ID: "n1", Title: "Done", Body: "Long break.", At: epoch}))
	assert.Equal(t, WebhookPayload{ID: "n1", Title: "Done", Text: "Long break.", At: epoch}, got)
	assert.Equal(t, "s3cret", secret)
}

func TestWebhookSinkStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	err := (&WebhookSink{URL: srv.URL}).Deliver(Notification{})
	assert.ErrorContains(t, err, "403")
	assert.ErrorContains(t, err, "nope")
}

// ============================================================
// Tray
// ============================================================

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int           { return m.pid }
func (m *mockProcess) PPid() int          { return 0 }
func (m *mockProcess) Executable() string { return m.executable }

func withProcess(t *testing.T, exe string) {
	t.Helper()
	old := findProcessFunc
	t.Cleanup(func() { findProcessFunc = old })
	findProcessFunc = func(pid int) (ps.Process, error) {
		if exe == "" {
			return nil, nil
		}
		return &mockProcess{pid: pid, executable: exe}, nil
	}
}

func writeLockfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tray.lock")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTraySink(t *testing.T) {
	var secret string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret = r.Header.Get(SecretHeader)
	}))
	defer srv.Close()
	port := srv.URL[strings.LastIndex(srv.URL, ":")+1:]

	withProcess(t, TrayExecutable)
	sink := &TraySink{Lockfile: writeLockfile(t, fmt.Sprintf("%s|4242|abc\n", port))}
	require.NoError(t, sink.Deliver(Notification{Title: "x"}))
	assert.Equal(t, "abc", secret)
}

func TestTrayLockfileValidation(t *testing.T) {
	withProcess(t, TrayExecutable)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"malformed", "8080|1", "malformed"},
		{"bad port", "99999|1|s", "invalid port"},
		{"bad pid", "8080|x|s", "process ID"},
		{"empty secret", "8080|1| ", "secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := readTrayLockfile(writeLockfile(t, tt.content))
			assert.ErrorContains(t, err, tt.want)
		})
	}

	_, _, err := readTrayLockfile(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "not running")
}

func TestTrayWrongProcess(t *testing.T) {
	withProcess(t, "vim")
	_, _, err := readTrayLockfile(writeLockfile(t, "8080|1|s"))
	assert.ErrorContains(t, err, "is not tracklet-tray")

	withProcess(t, "")
	_, _, err = readTrayLockfile(writeLockfile(t, "8080|1|s"))
	assert.ErrorContains(t, err, "not running")
}

// ============================================================
// Keyring
// ============================================================

func TestWebhookSecret(t *testing.T) {
	gokeyring.MockInit()

	_, err := WebhookSecret()
	assert.ErrorIs(t, err, ErrNoSecret)

	require.NoError(t, SetWebhookSecret("hunter2"))
	got, err := WebhookSecret()
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got)

	require.NoError(t, DeleteWebhookSecret())
	require.NoError(t, DeleteWebhookSecret())
	_, err = WebhookSecret()
	assert.ErrorIs(t, err, ErrNoSecret)

	assert.Error(t, SetWebhookSecret(""))
}
