package lark

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/garyjia/travel-approval/internal/application/port"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"
)

// Messenger implements port.Notifier over Lark IM text messages
type Messenger struct {
	client *Client
	logger *zap.Logger
}

// NewMessenger creates a new Lark notifier
func NewMessenger(client *Client, logger *zap.Logger) *Messenger {
	return &Messenger{
		client: client,
		logger: logger,
	}
}

// Notify sends the notification title and message to the recipient
func (m *Messenger) Notify(ctx context.Context, req port.NotificationRequest) error {
	if req.Recipient == nil {
		return fmt.Errorf("recipient cannot be nil")
	}

	receiveID := req.Recipient.Email
	if receiveID == "" {
		return fmt.Errorf("user %d has no email for lark delivery", req.Recipient.ID)
	}
	if req.Message == "" {
		return fmt.Errorf("message cannot be empty")
	}

	content, err := json.Marshal(map[string]string{"text": req.Title + "\n" + req.Message})
	if err != nil {
		return fmt.Errorf("failed to encode message content: %w", err)
	}

	messageID, err := m.send(ctx, receiveID, msgTypeText, string(content))
	if err != nil {
		return err
	}

	m.logger.Info("Lark notification sent",
		zap.Int64("user_id", req.Recipient.ID),
		zap.Int64("request_id", req.RequestID),
		zap.String("message_id", messageID))

	return nil
}

func (m *Messenger) send(ctx context.Context, receiveID, msgType, content string) (string, error) {
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(receiveIDTypeEmail).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(receiveID).
			MsgType(msgType).
			Content(content).
			Build()).
		Build()

	resp, err := m.client.create(ctx, req)
	if err != nil {
		m.logger.Error("Failed to send message",
			zap.String("receive_id", receiveID),
			zap.Error(err))
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		m.logger.Error("API returned failure",
			zap.String("receive_id", receiveID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return "", fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}
	return messageID, nil
}

var _ port.Notifier = (*Messenger)(nil)
