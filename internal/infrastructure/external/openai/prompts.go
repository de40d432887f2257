package openai

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptConfig holds the prompts and model parameters used by the composer
type PromptConfig struct {
	Notification struct {
		Temperature  float32 `yaml:"temperature"`
		MaxTokens    int     `yaml:"max_tokens"`
		System       string  `yaml:"system"`
		UserTemplate string  `yaml:"user_template"`
	} `yaml:"notification"`
}

// DefaultPrompts is used when no prompts file is configured
func DefaultPrompts() *PromptConfig {
	var p PromptConfig
	p.Notification.Temperature = 0.3
	p.Notification.MaxTokens = 200
	p.Notification.System = "You write short, friendly notifications for a corporate travel approval system. " +
		"Keep every fact from the original message, including request numbers, reasons and comments. " +
		"Reply with the notification text only."
	p.Notification.UserTemplate = "Recipient: {{.RecipientName}}\n" +
		"Title: {{.Title}}\n" +
		"Original message: {{.Message}}\n" +
		"Rewrite the message for the recipient in at most two sentences."
	return &p
}

// LoadPrompts loads prompt configuration from YAML file
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	data, err := os.ReadFile(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	prompts := DefaultPrompts()
	if err := yaml.Unmarshal(data, prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}

	if _, err := template.New("notification").Parse(prompts.Notification.UserTemplate); err != nil {
		return nil, fmt.Errorf("invalid notification template: %w", err)
	}

	return prompts, nil
}

// renderTemplate renders a template with provided data
func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("prompt").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
