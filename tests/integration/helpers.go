//go:build integration

package integration

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

const (
	ServerKey = "defaultkey"
	Host      = "127.0.0.1:7350"
)

// Op codes mirrored from the server plugin.
const (
	OpStartGame      = 1
	OpPlaceBid       = 2
	OpPlayCard       = 3
	OpRequestState   = 4
	OpMatchState     = 100
	OpGameState      = 101
	OpGameStarted    = 102
	OpHandDealt      = 104
	OpBiddingStarted = 106
	OpBidPlaced      = 107
	OpGameError      = 112
)

// MatchData is a decoded realtime match_data envelope.
type MatchData struct {
	OpCode  int64
	Payload map[string]interface{}
}

type TestClient struct {
	Token  string
	UserID string
	Conn   *websocket.Conn
	data   chan MatchData
	cid    atomic.Int64
}

func NewTestClient(t *testing.T) *TestClient {
	t.Helper()
	deviceID := fmt.Sprintf("test_device_%d", time.Now().UnixNano())

	body, _ := json.Marshal(map[string]string{"id": deviceID})
	req, _ := http.NewRequest(http.MethodPost, "http://"+Host+"/v2/account/authenticate/device?create=true", bytes.NewReader(body))
	req.SetBasicAuth(ServerKey, "")
	req.Header.Set("Content-Type", "application/json")

	var session struct {
		Token string `json:"token"`
	}
	doJSON(t, req, &session)

	q := url.Values{"token": {session.Token}, "status": {"true"}}
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+Host+"/ws?"+q.Encode(), nil)
	if err != nil {
		t.Fatalf("Failed to connect socket: %v", err)
	}

	tc := &TestClient{Token: session.Token, Conn: conn, data: make(chan MatchData, 256)}
	go tc.readLoop()
	return tc
}

func doJSON(t *testing.T, req *http.Request, out interface{}) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("%s %s returned %s", req.Method, req.URL.Path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode %s response: %v", req.URL.Path, err)
	}
}

func (tc *TestClient) readLoop() {
	defer close(tc.data)
	for {
		_, raw, err := tc.Conn.ReadMessage()
		if err != nil {
			return
		}
		var env struct {
			MatchData *struct {
				OpCode json.Number `json:"op_code"`
				Data   string      `json:"data"`
			} `json:"match_data"`
		}
		if err := json.Unmarshal(raw, &env); err != nil || env.MatchData == nil {
			continue
		}
		op, _ := strconv.ParseInt(env.MatchData.OpCode.String(), 10, 64)
		decoded, _ := base64.StdEncoding.DecodeString(env.MatchData.Data)
		payload := map[string]interface{}{}
		_ = json.Unmarshal(decoded, &payload)
		tc.data <- MatchData{OpCode: op, Payload: payload}
	}
}

func (tc *TestClient) Close() {
	if tc.Conn != nil {
		tc.Conn.Close()
	}
}

func (tc *TestClient) send(t *testing.T, msg map[string]interface{}) {
	t.Helper()
	msg["cid"] = strconv.FormatInt(tc.cid.Add(1), 10)
	if err := tc.Conn.WriteJSON(msg); err != nil {
		t.Fatalf("Failed to write socket message: %v", err)
	}
}

// QuickMatch calls the quick_match RPC and returns the match id.
func (tc *TestClient) QuickMatch(t *testing.T) string {
	t.Helper()
	// RPC bodies are JSON-encoded strings.
	body, _ := json.Marshal("{}")
	req, _ := http.NewRequest(http.MethodPost, "http://"+Host+"/v2/rpc/quick_match", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+tc.Token)
	req.Header.Set("Content-Type", "application/json")

	var rpc struct {
		Payload string `json:"payload"`
	}
	doJSON(t, req, &rpc)

	var resp struct {
		MatchID string `json:"match_id"`
	}
	if err := json.Unmarshal([]byte(rpc.Payload), &resp); err != nil || resp.MatchID == "" {
		t.Fatalf("quick_match returned %q", rpc.Payload)
	}
	return resp.MatchID
}

func (tc *TestClient) JoinMatch(t *testing.T, matchID string) {
	t.Helper()
	tc.send(t, map[string]interface{}{"match_join": map[string]interface{}{"match_id": matchID}})
}

// SendMatchState sends a JSON payload with the given opcode.
func (tc *TestClient) SendMatchState(t *testing.T, matchID string, opCode int64, payload map[string]interface{}) {
	t.Helper()
	data, _ := json.Marshal(payload)
	tc.send(t, map[string]interface{}{"match_data_send": map[string]interface{}{
		"match_id": matchID,
		"op_code":  strconv.FormatInt(opCode, 10),
		"data":     base64.StdEncoding.EncodeToString(data),
	}})
}

// WaitForOp returns the next message with opCode, skipping others.
func (tc *TestClient) WaitForOp(t *testing.T, opCode int64, timeout time.Duration) MatchData {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case md, ok := <-tc.data:
			if !ok {
				t.Fatalf("Socket closed while waiting for op %d", opCode)
			}
			if md.OpCode == opCode {
				return md
			}
		case <-deadline:
			t.Fatalf("Timeout waiting for op %d", opCode)
			return MatchData{}
		}
	}
}
