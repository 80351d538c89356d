package backend

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"stream-lab/contract"
	"stream-lab/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	return NewClient(log, server.URL, 2*time.Second)
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	return body
}

func TestClient_JoinRoom(t *testing.T) {
	t.Run("should hit create-room when creating", func(t *testing.T) {
		req := require.New(t)
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			req.Equal("/create-room", r.URL.Path)
			req.NotEmpty(r.Header.Get("X-Request-Id"))
			body := decodeBody(t, r)
			req.Equal("1234", body["passcode"])
			req.Equal("m_Alice", body["user_identity"])
			req.Equal("demo", body["room_name"])
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{
				"token":            "tok",
				"conversation_sid": "CH123",
			})
		})

		res, err := client.JoinRoom(context.Background(), contract.JoinRoomRequest{
			Passcode:     "1234",
			UserIdentity: "m_Alice",
			RoomName:     "demo",
			CreateRoom:   true,
		})

		req.NoError(err)
		req.Equal("tok", res.Token)
		req.Equal("CH123", res.SessionID)
	})

	t.Run("should hit join-room when joining", func(t *testing.T) {
		req := require.New(t)
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			req.Equal("/join-room", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{
				"token":            "tok",
				"conversation_sid": "CH123",
			})
		})

		_, err := client.JoinRoom(context.Background(), contract.JoinRoomRequest{
			Passcode:     "1234",
			UserIdentity: "s_Bob",
			RoomName:     "demo",
		})

		req.NoError(err)
	})

	t.Run("should surface the backend error body", func(t *testing.T) {
		req := require.New(t)
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"passcode incorrect","explanation":"The passcode is incorrect"}}`))
		})

		_, err := client.JoinRoom(context.Background(), contract.JoinRoomRequest{
			Passcode: "wrong", UserIdentity: "s_Bob", RoomName: "demo",
		})

		var backendErr *errors.BackendError
		req.ErrorAs(err, &backendErr)
		req.Equal("passcode incorrect", backendErr.Message)
		req.EqualError(err, "The passcode is incorrect")
	})

	t.Run("should report an unexpected status without body", func(t *testing.T) {
		req := require.New(t)
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.JoinRoom(context.Background(), contract.JoinRoomRequest{
			Passcode: "1234", UserIdentity: "s_Bob", RoomName: "demo",
		})

		req.ErrorContains(err, "unexpected status 502")
	})
}

func TestClient_LeaveRoom(t *testing.T) {
	req := require.New(t)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/leave-room", r.URL.Path)
		body := decodeBody(t, r)
		req.Equal("s_Bob", body["user_identity"])
		w.WriteHeader(http.StatusOK)
	})

	req.NoError(client.LeaveRoom(context.Background(), "1234", "demo", "s_Bob"))
}

func TestClient_DeleteRoom(t *testing.T) {
	req := require.New(t)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/delete-room", r.URL.Path)
		body := decodeBody(t, r)
		req.Equal("demo", body["room_name"])
		req.NotContains(body, "user_identity")
		w.WriteHeader(http.StatusOK)
	})

	req.NoError(client.DeleteRoom(context.Background(), "1234", "demo"))
}

func TestClient_RemoveSpeaker(t *testing.T) {
	req := require.New(t)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/remove-speaker", r.URL.Path)
		body := decodeBody(t, r)
		req.Equal("s_Bob", body["user_identity"])
		w.WriteHeader(http.StatusOK)
	})

	req.NoError(client.RemoveSpeaker(context.Background(), "1234", "demo", "s_Bob"))
}

func TestClient_ListRooms(t *testing.T) {
	t.Run("should list active rooms", func(t *testing.T) {
		req := require.New(t)
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			req.Equal("/get-rooms", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"rooms":[{"room_name":"demo"},{"room_name":"standup"}]}`))
		})

		rooms, err := client.ListRooms(context.Background(), "1234")

		req.NoError(err)
		req.Equal([]contract.RoomSummary{{Name: "demo"}, {Name: "standup"}}, rooms)
	})

	t.Run("should return an empty directory", func(t *testing.T) {
		req := require.New(t)
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"rooms":[]}`))
		})

		rooms, err := client.ListRooms(context.Background(), "1234")

		req.NoError(err)
		req.Empty(rooms)
	})
}
