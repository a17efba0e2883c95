package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adarsh-codesOP/one2one/internal/config"
	"github.com/Adarsh-codesOP/one2one/internal/sigclient"
	"github.com/Adarsh-codesOP/one2one/internal/signaling"
)

const waitFor = 3 * time.Second

func startRelay(t *testing.T, cfg *config.Server) (string, *signaling.Registry) {
	t.Helper()

	logger := log.New()
	logger.SetLevel(log.ErrorLevel)
	entry := logger.WithField("|", "test")

	registry := signaling.NewRegistry()
	hub := signaling.NewHub(registry, entry)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	ts := httptest.NewServer(Routes(hub, registry, cfg, entry))

	t.Cleanup(func() {
		ts.Close()
		cancel()
	})

	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws", registry
}

func connect(t *testing.T, url string) *sigclient.Client {
	t.Helper()

	logger := log.New()
	logger.SetLevel(log.ErrorLevel)

	client := sigclient.NewClient(url, logger.WithField("|", "client"))
	require.NoError(t, client.Connect())
	t.Cleanup(client.Close)
	return client
}

func recvString(t *testing.T, ch <-chan string, what string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitFor):
		t.Fatalf("timed out waiting for %s", what)
		return ""
	}
}

func expectSilence[T any](t *testing.T, ch <-chan T, what string) {
	t.Helper()
	select {
	case <-ch:
		t.Fatalf("unexpected %s", what)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestCheckRoomReflectsOccupancy(t *testing.T) {
	url, _ := startRelay(t, config.LoadServer())

	probe := connect(t, url)
	exists, replied := probe.CheckRoom("ab12", waitFor)
	require.True(t, replied)
	assert.False(t, exists)

	occupant := connect(t, url)
	require.NoError(t, occupant.JoinRoom("ab12", "alice"))

	require.Eventually(t, func() bool {
		exists, replied := probe.CheckRoom("ab12", waitFor)
		return replied && exists
	}, waitFor, 50*time.Millisecond)

	// Checking never joins.
	exists, replied = probe.CheckRoom("ab12", waitFor)
	require.True(t, replied)
	require.True(t, exists)
}

func TestJoinNotifiesOnlyExistingMembers(t *testing.T) {
	url, registry := startRelay(t, config.LoadServer())

	alice := connect(t, url)
	aliceEvents := sigclient.NewHandler(alice)
	go aliceEvents.Start()
	require.NoError(t, alice.JoinRoom("ab12", "alice"))

	bob := connect(t, url)
	bobEvents := sigclient.NewHandler(bob)
	go bobEvents.Start()
	require.NoError(t, bob.JoinRoom("ab12", "bob"))

	assert.Equal(t, "bob", recvString(t, aliceEvents.UserConnected, "user-connected at alice"))

	// The joiner itself is never notified; it learns about its peer by
	// receiving the offer.
	expectSilence(t, bobEvents.UserConnected, "user-connected at bob")

	require.Eventually(t, func() bool {
		return len(registry.Members("ab12")) == 2
	}, waitFor, 50*time.Millisecond)
}

func TestSignalsAreForwardedVerbatimAndScoped(t *testing.T) {
	url, _ := startRelay(t, config.LoadServer())

	alice := connect(t, url)
	aliceEvents := sigclient.NewHandler(alice)
	go aliceEvents.Start()
	require.NoError(t, alice.JoinRoom("ab12", "alice"))

	bob := connect(t, url)
	bobEvents := sigclient.NewHandler(bob)
	go bobEvents.Start()
	require.NoError(t, bob.JoinRoom("ab12", "bob"))
	recvString(t, aliceEvents.UserConnected, "user-connected")

	// A bystander in another room must see none of it.
	carol := connect(t, url)
	carolEvents := sigclient.NewHandler(carol)
	go carolEvents.Start()
	require.NoError(t, carol.JoinRoom("zz99", "carol"))

	offer := signaling.SessionDescription{Type: "offer", SDP: "v=0\r\no=- 1 1 IN IP4 127.0.0.1\r\n"}
	require.NoError(t, alice.SendOffer("ab12", offer))

	select {
	case got := <-bobEvents.Offer:
		assert.Equal(t, offer, got)
	case <-time.After(waitFor):
		t.Fatal("offer never reached bob")
	}
	// The sender does not get its own signal back.
	expectSilence(t, aliceEvents.Offer, "echoed offer at alice")

	answer := signaling.SessionDescription{Type: "answer", SDP: "v=0\r\n"}
	require.NoError(t, bob.SendAnswer("ab12", answer))
	select {
	case got := <-aliceEvents.Answer:
		assert.Equal(t, answer, got)
	case <-time.After(waitFor):
		t.Fatal("answer never reached alice")
	}

	mid := "0"
	cand := signaling.Candidate{Candidate: "candidate:1 1 udp 2130706431 127.0.0.1 54321 typ host", SDPMid: &mid}
	require.NoError(t, alice.SendCandidate("ab12", cand))
	select {
	case got := <-bobEvents.Candidate:
		assert.Equal(t, cand, got)
	case <-time.After(waitFor):
		t.Fatal("candidate never reached bob")
	}

	expectSilence(t, carolEvents.Offer, "offer leaked into another room")
	expectSilence(t, carolEvents.Candidate, "candidate leaked into another room")
}

func TestSignalToEmptyRoomIsDropped(t *testing.T) {
	url, _ := startRelay(t, config.LoadServer())

	alice := connect(t, url)
	aliceEvents := sigclient.NewHandler(alice)
	go aliceEvents.Start()
	require.NoError(t, alice.JoinRoom("ab12", "alice"))

	// Zero recipients is not an error; the connection stays healthy.
	require.NoError(t, alice.SendOffer("ab12", signaling.SessionDescription{Type: "offer", SDP: "v=0\r\n"}))

	exists, replied := func() (bool, bool) {
		probe := connect(t, url)
		return probe.CheckRoom("ab12", waitFor)
	}()
	require.True(t, replied)
	assert.True(t, exists)
}

func TestDisconnectBroadcastsUserDisconnected(t *testing.T) {
	url, registry := startRelay(t, config.LoadServer())

	alice := connect(t, url)
	aliceEvents := sigclient.NewHandler(alice)
	go aliceEvents.Start()
	require.NoError(t, alice.JoinRoom("ab12", "alice"))

	bob := connect(t, url)
	require.NoError(t, bob.JoinRoom("ab12", "bob"))
	recvString(t, aliceEvents.UserConnected, "user-connected")

	bob.Close()

	assert.Equal(t, "bob", recvString(t, aliceEvents.UserDisconnected, "user-disconnected at alice"))

	require.Eventually(t, func() bool {
		members := registry.Members("ab12")
		return len(members) == 1 && members[0] == "alice"
	}, waitFor, 50*time.Millisecond)
}

func TestExplicitLeaveIsIdempotent(t *testing.T) {
	url, registry := startRelay(t, config.LoadServer())

	alice := connect(t, url)
	aliceEvents := sigclient.NewHandler(alice)
	go aliceEvents.Start()
	require.NoError(t, alice.JoinRoom("ab12", "alice"))

	bob := connect(t, url)
	require.NoError(t, bob.JoinRoom("ab12", "bob"))
	recvString(t, aliceEvents.UserConnected, "user-connected")

	require.NoError(t, bob.LeaveRoom("ab12"))
	require.NoError(t, bob.LeaveRoom("ab12"))

	assert.Equal(t, "bob", recvString(t, aliceEvents.UserDisconnected, "user-disconnected"))
	expectSilence(t, aliceEvents.UserDisconnected, "second user-disconnected")

	require.Eventually(t, func() bool {
		return len(registry.Members("ab12")) == 1
	}, waitFor, 50*time.Millisecond)
}

func TestServiceInfoAndHealth(t *testing.T) {
	url, _ := startRelay(t, config.LoadServer())
	base := "http" + strings.TrimSuffix(strings.TrimPrefix(url, "ws"), "/ws")

	resp, err := http.Get(base + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var info map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "running", info["status"])
	assert.Equal(t, float64(0), info["rooms"])

	resp2, err := http.Get(base + "/health")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestOriginAllowlist(t *testing.T) {
	cfg := &config.Server{Port: "0", AllowedOrigins: []string{"https://app.example.com"}}
	url, _ := startRelay(t, cfg)

	dial := func(origin string) error {
		header := http.Header{}
		if origin != "" {
			header.Set("Origin", origin)
		}
		conn, resp, err := websocket.DefaultDialer.Dial(url, header)
		if conn != nil {
			conn.Close()
		}
		if resp != nil {
			resp.Body.Close()
		}
		return err
	}

	assert.Error(t, dial("https://evil.example.com"))
	assert.NoError(t, dial("https://app.example.com"))
	// Non-browser clients send no Origin header at all.
	assert.NoError(t, dial(""))
}
