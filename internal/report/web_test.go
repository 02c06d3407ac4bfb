package report

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/mdsim/internal/engine"
)

func TestWebReporterBroadcast(t *testing.T) {
	s := testSimulation(t, 4)
	sel, err := NewRegistry().Select("kinetic")
	if err != nil {
		t.Fatal(err)
	}
	wr := NewWebReporter("localhost:0", 10, sel)

	srv := httptest.NewServer(http.HandlerFunc(wr.handleWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	// wait for the server side to register the client
	deadline := time.Now().Add(time.Second)
	for {
		wr.mu.Lock()
		n := len(wr.clients)
		wr.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(time.Millisecond)
	}

	snap := &engine.Snapshot{Step: 10, Time: 0.5, Kinetic: 2.5, HasEnergy: true}
	if err := wr.Report(s, snap); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var row map[string]float64
	if err := json.Unmarshal(data, &row); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if row["Step"] != 10 {
		t.Errorf("expected step 10, got %v", row["Step"])
	}
	if row["Kinetic Energy [kJ/mol]"] != 2.5 {
		t.Errorf("expected kinetic 2.5, got %v", row["Kinetic Energy [kJ/mol]"])
	}
}

func TestWebReporterDropsDeadClients(t *testing.T) {
	s := testSimulation(t, 4)
	sel, err := NewRegistry().Select("kinetic")
	if err != nil {
		t.Fatal(err)
	}
	wr := NewWebReporter("localhost:0", 10, sel)

	srv := httptest.NewServer(http.HandlerFunc(wr.handleWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	conn.Close()

	snap := &engine.Snapshot{Step: 10, Kinetic: 1.0, HasEnergy: true}
	// broadcasting to a closed client must not fail the report round
	if err := wr.Report(s, snap); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		wr.mu.Lock()
		n := len(wr.clients)
		wr.mu.Unlock()
		if n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("dead client never dropped")
		}
		time.Sleep(time.Millisecond)
	}
}
