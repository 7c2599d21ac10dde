package livereload

import (
	"bufio"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastsToConnectedClient(t *testing.T) {
	hub := NewHub()
	defer hub.Shutdown()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	// Wait for registration, then broadcast.
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)
	hub.Notify(Notification{CycleID: "c1", Changed: []string{"/guide/", "/"}})

	deadline := time.Now().Add(3 * time.Second)
	var event, data string
	for time.Now().Before(deadline) {
		l, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(l, "event: ") {
			event = strings.TrimSpace(strings.TrimPrefix(l, "event: "))
		}
		if strings.HasPrefix(l, "data: ") {
			data = strings.TrimSpace(strings.TrimPrefix(l, "data: "))
			break
		}
	}
	assert.Equal(t, "reload", event)
	assert.Contains(t, data, `"cycle_id":"c1"`)
	assert.Contains(t, data, `"/guide/"`)
}

func TestHubReplaysLastNotificationOnConnect(t *testing.T) {
	hub := NewHub()
	defer hub.Shutdown()
	hub.Notify(Notification{CycleID: "early"})

	srv := httptest.NewServer(hub)
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	found := false
	for i := 0; i < 6; i++ {
		l, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.Contains(l, `"cycle_id":"early"`) {
			found = true
			break
		}
	}
	assert.True(t, found)
}

func TestHubShutdownRejectsNewClients(t *testing.T) {
	hub := NewHub()
	hub.Shutdown()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 503, resp.StatusCode)
}

func TestRecorderCapturesNotifications(t *testing.T) {
	var rec Recorder
	notifier := Multi{&rec, Discard{}}

	notifier.Notify(Notification{CycleID: "a"})
	notifier.Notify(Notification{CycleID: "b", Changed: []string{"/x/"}})

	all := rec.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].CycleID)
	assert.Equal(t, []string{"/x/"}, all[1].Changed)
}
