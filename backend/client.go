// Package backend implements the HTTP client for the room service that
// issues transport credentials and manages room membership.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"stream-lab/contract"
	"stream-lab/errors"
)

const jsonContentType = "application/json"

// Client talks to the room service. All endpoints are POST and validate
// the shared-secret passcode carried in the body.
type Client struct {
	log    *slog.Logger
	client *resty.Client
}

func NewClient(log *slog.Logger, baseURL string, timeout time.Duration) *Client {
	return &Client{
		log: log,
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", jsonContentType),
	}
}

type joinRoomBody struct {
	Passcode     string `json:"passcode"`
	UserIdentity string `json:"user_identity"`
	RoomName     string `json:"room_name"`
}

type joinRoomResponse struct {
	Token           string `json:"token"`
	ConversationSID string `json:"conversation_sid"`
}

type leaveRoomBody struct {
	Passcode     string `json:"passcode"`
	RoomName     string `json:"room_name"`
	UserIdentity string `json:"user_identity"`
}

type deleteRoomBody struct {
	Passcode string `json:"passcode"`
	RoomName string `json:"room_name"`
}

type listRoomsBody struct {
	Passcode string `json:"passcode"`
}

type listRoomsResponse struct {
	Rooms []struct {
		RoomName string `json:"room_name"`
	} `json:"rooms"`
}

type errorResponse struct {
	Error struct {
		Message     string `json:"message"`
		Explanation string `json:"explanation"`
	} `json:"error"`
}

func (c *Client) JoinRoom(ctx context.Context, req contract.JoinRoomRequest) (*contract.JoinRoomResponse, error) {
	path := "join-room"
	if req.CreateRoom {
		path = "create-room"
	}
	body := joinRoomBody{
		Passcode:     req.Passcode,
		UserIdentity: req.UserIdentity,
		RoomName:     req.RoomName,
	}
	var out joinRoomResponse
	if err := c.post(ctx, path, body, &out); err != nil {
		return nil, err
	}
	return &contract.JoinRoomResponse{Token: out.Token, SessionID: out.ConversationSID}, nil
}

func (c *Client) LeaveRoom(ctx context.Context, passcode, roomName, userIdentity string) error {
	return c.post(ctx, "leave-room", leaveRoomBody{
		Passcode:     passcode,
		RoomName:     roomName,
		UserIdentity: userIdentity,
	}, nil)
}

func (c *Client) DeleteRoom(ctx context.Context, passcode, roomName string) error {
	return c.post(ctx, "delete-room", deleteRoomBody{Passcode: passcode, RoomName: roomName}, nil)
}

func (c *Client) RemoveSpeaker(ctx context.Context, passcode, roomName, userIdentity string) error {
	return c.post(ctx, "remove-speaker", leaveRoomBody{
		Passcode:     passcode,
		RoomName:     roomName,
		UserIdentity: userIdentity,
	}, nil)
}

func (c *Client) ListRooms(ctx context.Context, passcode string) ([]contract.RoomSummary, error) {
	var out listRoomsResponse
	if err := c.post(ctx, "get-rooms", listRoomsBody{Passcode: passcode}, &out); err != nil {
		return nil, err
	}
	rooms := make([]contract.RoomSummary, 0, len(out.Rooms))
	for _, r := range out.Rooms {
		rooms = append(rooms, contract.RoomSummary{Name: r.RoomName})
	}
	return rooms, nil
}

// post runs one request/response round trip. Rejections carrying the
// backend's structured error body surface as *errors.BackendError.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	requestID := uuid.NewString()
	var errBody errorResponse

	res, err := c.client.R().
		SetContext(ctx).
		SetHeader("X-Request-Id", requestID).
		SetBody(body).
		SetResult(out).
		SetError(&errBody).
		Post(path)
	if err != nil {
		c.log.Error("Backend request failed", "path", path, "request_id", requestID, "err", err)
		return fmt.Errorf("backend %s: %w", path, err)
	}

	if res.StatusCode() != http.StatusOK {
		c.log.Warn("Backend request rejected",
			"path", path, "request_id", requestID, "status", res.StatusCode())
		if errBody.Error.Message != "" || errBody.Error.Explanation != "" {
			return &errors.BackendError{
				Message:     errBody.Error.Message,
				Explanation: errBody.Error.Explanation,
			}
		}
		return fmt.Errorf("backend %s: unexpected status %d", path, res.StatusCode())
	}

	c.log.Debug("Backend request completed", "path", path, "request_id", requestID)
	return nil
}
