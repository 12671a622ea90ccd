package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNoJob = errors.New("no such job")

type jobSourceFunc func(ctx context.Context, jobID string) (any, error)

func (f jobSourceFunc) Snapshot(ctx context.Context, jobID string) (any, error) { return f(ctx, jobID) }

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jobs := jobSourceFunc(func(_ context.Context, jobID string) (any, error) {
		if jobID != "job-1" {
			return nil, errNoJob
		}
		return map[string]int{"percent": 0}, nil
	})
	h := NewHandler(hub, jobs, func(c *gin.Context, err error) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	}, zerolog.Nop())

	r := gin.New()
	r.GET("/jobs/:id/ws", h.HandleConnection)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func readEvent(t *testing.T, conn *gws.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	return ev
}

func TestHub_SnapshotThenProgress(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	srv := newTestServer(t, hub)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/jobs/job-1/ws"
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readEvent(t, conn)
	assert.Equal(t, EventSnapshot, first.Type)
	assert.Equal(t, "job-1", first.JobID)

	require.Eventually(t, func() bool { return hub.ClientCount("job-1") == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish("job-2", EventProgress, map[string]int{"percent": 10})
	hub.Publish("job-1", EventProgress, map[string]int{"percent": 50})

	ev := readEvent(t, conn)
	assert.Equal(t, EventProgress, ev.Type)
	assert.Equal(t, "job-1", ev.JobID)
	assert.Equal(t, float64(50), ev.Data.(map[string]any)["percent"])
}

func TestHub_UnknownJobIsRejected(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := newTestServer(t, hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/jobs/nope/ws"
	_, resp, err := gws.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zerolog.Nop())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	srv := newTestServer(t, hub)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/jobs/job-1/ws"
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	readEvent(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount("job-1") == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, 0, hub.ClientCount("job-1"))
}

func fillBroadcast(hub *Hub) {
	for i := 0; i < cap(hub.broadcast); i++ {
		hub.Publish("job-1", EventProgress, i)
	}
}

func TestHub_PublishCompletedWaitsForRoom(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	fillBroadcast(hub)

	// Progress is dropped outright when the buffer is full.
	hub.Publish("job-1", EventProgress, "late")
	assert.Len(t, hub.broadcast, cap(hub.broadcast))

	published := make(chan struct{})
	go func() {
		hub.Publish("job-1", EventCompleted, "done")
		close(published)
	}()

	select {
	case <-published:
		t.Fatal("completed event returned before the buffer had room")
	case <-time.After(50 * time.Millisecond):
	}

	first := <-hub.broadcast
	assert.Equal(t, EventProgress, first.Type)

	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("completed event was not queued once room appeared")
	}

	var last *Event
	for len(hub.broadcast) > 0 {
		last = <-hub.broadcast
	}
	require.NotNil(t, last)
	assert.Equal(t, EventCompleted, last.Type)
	assert.Equal(t, "done", last.Data)
}

func TestHub_PublishCompletedGivesUp(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	hub.completedTimeout = 20 * time.Millisecond
	fillBroadcast(hub)

	start := time.Now()
	hub.Publish("job-1", EventCompleted, "done")
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Len(t, hub.broadcast, cap(hub.broadcast))
}
