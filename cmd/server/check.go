package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/container"
	"github.com/garyjia/travel-approval/internal/domain/entity"
)

// sampleNotification mirrors the message a manager gets when a request is submitted
func sampleNotification(recipient *entity.User) port.NotificationRequest {
	return port.NotificationRequest{
		Recipient: recipient,
		Title:     "Connectivity check",
		Message:   fmt.Sprintf("Test message from travelflow sent at %s", time.Now().UTC().Format(time.RFC3339)),
		Type:      entity.NotificationTypeGeneral,
	}
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify external integrations with the configured credentials",
	}
	cmd.AddCommand(newCheckLarkCmd(opts))
	cmd.AddCommand(newCheckOpenAICmd(opts))
	return cmd
}

func newCheckLarkCmd(opts *rootOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "lark",
		Short: "Send a test Lark message to an email address",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}

			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			cc := cfg.ToContainerConfig()
			cc.Lark.Enabled = true
			if cc.Lark.AppID == "" || cc.Lark.AppSecret == "" {
				return fmt.Errorf("lark.app_id and lark.app_secret must be configured")
			}

			bundle, err := container.ProvideNotificationChannels(&cc.Lark, &container.OpenAIConfig{}, logger)
			if err != nil {
				return err
			}

			recipient := &entity.User{Name: email, Email: email}
			if err := bundle.Notifier.Notify(cmd.Context(), sampleNotification(recipient)); err != nil {
				return fmt.Errorf("lark delivery failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "lark: message delivered to %s\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "recipient email registered in Lark")
	return cmd
}

func newCheckOpenAICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "openai",
		Short: "Compose a sample notification through the OpenAI API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			cc := cfg.ToContainerConfig()
			cc.OpenAI.Enabled = true
			if cc.OpenAI.APIKey == "" {
				return fmt.Errorf("openai.api_key must be configured")
			}

			bundle, err := container.ProvideNotificationChannels(&container.LarkConfig{}, &cc.OpenAI, logger)
			if err != nil {
				return err
			}

			start := time.Now()
			text, err := bundle.Composer.Compose(cmd.Context(), sampleNotification(&entity.User{Name: "Sarah Manager"}))
			if err != nil {
				return fmt.Errorf("openai compose failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "openai: model %s answered in %s\n%s\n",
				cc.OpenAI.Model, time.Since(start).Round(time.Millisecond), text)
			return nil
		},
	}
}
