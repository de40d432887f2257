package lark

import (
	"context"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"
)

// Config holds Lark client configuration
type Config struct {
	AppID     string
	AppSecret string
}

// Recipients are addressed by the email address in the user directory
const (
	receiveIDTypeEmail = "email"
	msgTypeText        = "text"
)

// createMessageFunc sends one IM message
type createMessageFunc func(ctx context.Context, req *larkim.CreateMessageReq) (*larkim.CreateMessageResp, error)

// Client wraps the Lark SDK client
type Client struct {
	client *lark.Client
	create createMessageFunc
	logger *zap.Logger
}

// NewClient creates a new Lark SDK client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)

	return &Client{
		client: client,
		create: func(ctx context.Context, req *larkim.CreateMessageReq) (*larkim.CreateMessageResp, error) {
			return client.Im.Message.Create(ctx, req)
		},
		logger: logger,
	}
}
