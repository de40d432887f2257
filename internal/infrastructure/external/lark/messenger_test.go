package lark

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMessenger(create createMessageFunc) *Messenger {
	client := NewClient(Config{AppID: "cli_test", AppSecret: "secret"}, zap.NewNop())
	client.create = create
	return NewMessenger(client, zap.NewNop())
}

func notification() port.NotificationRequest {
	return port.NotificationRequest{
		Recipient: &entity.User{ID: 1, Name: "John", Email: "john@example.com"},
		Title:     "Travel Request Rejected",
		Message:   `Your travel request #1 has been rejected. Reason: "over budget"`,
		RequestID: 1,
		Type:      entity.NotificationTypeStateChange,
	}
}

func TestMessenger_Notify(t *testing.T) {
	var sent *larkim.CreateMessageReq
	messageID := "om_123"
	m := newTestMessenger(func(ctx context.Context, req *larkim.CreateMessageReq) (*larkim.CreateMessageResp, error) {
		sent = req
		return &larkim.CreateMessageResp{Data: &larkim.CreateMessageRespData{MessageId: &messageID}}, nil
	})

	require.NoError(t, m.Notify(context.Background(), notification()))
	require.NotNil(t, sent)

	assert.Equal(t, "john@example.com", *sent.Body.ReceiveId)
	assert.Equal(t, "text", *sent.Body.MsgType)

	var content map[string]string
	require.NoError(t, json.Unmarshal([]byte(*sent.Body.Content), &content))
	assert.Equal(t, "Travel Request Rejected\nYour travel request #1 has been rejected. Reason: \"over budget\"", content["text"])
}

func TestMessenger_NotifyErrors(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		m := newTestMessenger(func(ctx context.Context, req *larkim.CreateMessageReq) (*larkim.CreateMessageResp, error) {
			return nil, errors.New("connection refused")
		})
		assert.Error(t, m.Notify(context.Background(), notification()))
	})

	t.Run("api failure code", func(t *testing.T) {
		m := newTestMessenger(func(ctx context.Context, req *larkim.CreateMessageReq) (*larkim.CreateMessageResp, error) {
			resp := &larkim.CreateMessageResp{}
			resp.Code = 230001
			resp.Msg = "invalid receive_id"
			return resp, nil
		})
		err := m.Notify(context.Background(), notification())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "230001")
	})

	t.Run("recipient without email is not sent", func(t *testing.T) {
		called := false
		m := newTestMessenger(func(ctx context.Context, req *larkim.CreateMessageReq) (*larkim.CreateMessageResp, error) {
			called = true
			return &larkim.CreateMessageResp{}, nil
		})
		req := notification()
		req.Recipient = &entity.User{ID: 7}
		assert.Error(t, m.Notify(context.Background(), req))
		assert.False(t, called)
	})
}
