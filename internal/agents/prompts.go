package agents

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed prompts
var promptFiles embed.FS

// LoadPrompt loads a prompt from the embedded markdown files
func LoadPrompt(path string) (string, error) {
	content, err := promptFiles.ReadFile(fmt.Sprintf("prompts/%s.md", path))
	if err != nil {
		return "", fmt.Errorf("failed to load prompt %s: %w", path, err)
	}
	return strings.TrimRight(string(content), "\n"), nil
}

// MustLoadPrompt panics on a missing prompt; prompts are compiled in.
func MustLoadPrompt(path string) string {
	p, err := LoadPrompt(path)
	if err != nil {
		panic(err)
	}
	return p
}

// UserPrompt formats the template at path as a single user message.
func UserPrompt(ctx context.Context, path string, vars map[string]any) ([]*schema.Message, error) {
	tpl, err := LoadPrompt(path)
	if err != nil {
		return nil, err
	}
	msgs, err := prompt.FromMessages(schema.FString, schema.UserMessage(tpl)).Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("format prompt %s: %w", path, err)
	}
	return msgs, nil
}

// SystemPrompt formats the template at path as a system message followed by
// the user_input messages.
func SystemPrompt(ctx context.Context, path string, vars map[string]any, userInput ...*schema.Message) ([]*schema.Message, error) {
	tpl, err := LoadPrompt(path)
	if err != nil {
		return nil, err
	}
	// 创建prompt模板
	promptTemp := prompt.FromMessages(schema.FString,
		schema.SystemMessage(tpl),
		schema.MessagesPlaceholder("user_input", true),
	)
	args := make(map[string]any, len(vars)+1)
	for k, v := range vars {
		args[k] = v
	}
	args["user_input"] = userInput
	msgs, err := promptTemp.Format(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("format prompt %s: %w", path, err)
	}
	return msgs, nil
}
