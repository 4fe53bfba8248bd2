package transport_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/gin-gonic/gin"

	"rmap/internal/crypto"
	"rmap/internal/handshake"
	"rmap/internal/identity"
	"rmap/internal/issuance"
	"rmap/internal/session"
	"rmap/internal/transport"
)

type testServer struct {
	url       string
	serverKey *openpgp.Entity
	clientKey *openpgp.Entity
}

func startServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	serverKey, err := crypto.GenerateEntity("server")
	if err != nil {
		t.Fatalf("GenerateEntity: %v", err)
	}
	clientKey, err := crypto.GenerateEntity("Group_07")
	if err != nil {
		t.Fatalf("GenerateEntity: %v", err)
	}

	resolver := identity.New(serverKey, map[string]*openpgp.Entity{
		"Group_07": clientKey,
	})
	personalizer := issuance.NewStubPersonalizer()
	engine := handshake.NewEngine(resolver, session.NewStore(time.Minute), issuance.NewGate(personalizer))
	srv := httptest.NewServer(transport.NewRouter(engine, personalizer))
	t.Cleanup(srv.Close)

	return &testServer{url: srv.URL, serverKey: serverKey, clientKey: clientKey}
}

func TestHandshakeOverHTTP(t *testing.T) {
	ts := startServer(t)
	ctx := context.Background()
	client := transport.NewClient(ts.url)

	init := handshake.NewInitiator("Group_07", ts.serverKey, ts.clientKey)
	env1, err := init.BuildMessage1()
	if err != nil {
		t.Fatalf("BuildMessage1: %v", err)
	}
	env2, err := client.Initiate(ctx, env1)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if err := init.HandleMessage2(env2); err != nil {
		t.Fatalf("HandleMessage2: %v", err)
	}
	env3, err := init.BuildMessage3()
	if err != nil {
		t.Fatalf("BuildMessage3: %v", err)
	}
	res, err := client.GetLink(ctx, env3)
	if err != nil {
		t.Fatalf("GetLink: %v", err)
	}
	if res.Identity != "Group_07" || res.Handle == "" {
		t.Fatalf("issue result %+v", res)
	}

	artifact, err := client.FetchVersion(ctx, res.Handle)
	if err != nil {
		t.Fatalf("FetchVersion: %v", err)
	}
	if !bytes.Contains(artifact, []byte(init.Link().Hex())) {
		t.Fatal("artifact does not carry the agreed link")
	}
}

func TestTypeConfusionRejectedWith400(t *testing.T) {
	ts := startServer(t)
	client := transport.NewClient(ts.url)

	init := handshake.NewInitiator("Group_07", ts.serverKey, ts.clientKey)
	env1, err := init.BuildMessage1()
	if err != nil {
		t.Fatalf("BuildMessage1: %v", err)
	}

	// message1 posted to the message3 endpoint.
	if _, err := client.GetLink(context.Background(), env1); err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("want 400 for type confusion, got %v", err)
	}
}

func TestReplayRejectedWith409(t *testing.T) {
	ts := startServer(t)
	ctx := context.Background()
	client := transport.NewClient(ts.url)

	init := handshake.NewInitiator("Group_07", ts.serverKey, ts.clientKey)
	env1, _ := init.BuildMessage1()
	env2, err := client.Initiate(ctx, env1)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if err := init.HandleMessage2(env2); err != nil {
		t.Fatalf("HandleMessage2: %v", err)
	}
	env3, _ := init.BuildMessage3()

	if _, err := client.GetLink(ctx, env3); err != nil {
		t.Fatalf("GetLink: %v", err)
	}
	if _, err := client.GetLink(ctx, env3); err == nil || !strings.Contains(err.Error(), "409") {
		t.Fatalf("want 409 on replayed message3, got %v", err)
	}

	// Replayed message1 is a nonce-reuse conflict too.
	if _, err := client.Initiate(ctx, env1); err == nil || !strings.Contains(err.Error(), "409") {
		t.Fatalf("want 409 on replayed message1, got %v", err)
	}
}

func TestUnknownHandle404(t *testing.T) {
	ts := startServer(t)
	client := transport.NewClient(ts.url)

	if _, err := client.FetchVersion(context.Background(), "no-such-handle"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("want 404 for unknown handle, got %v", err)
	}
}

func TestMalformedEnvelope400(t *testing.T) {
	ts := startServer(t)

	resp, err := http.Post(ts.url+"/api/rmap-initiate", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	ts := startServer(t)

	resp, err := http.Get(ts.url + "/healthz")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}
}
