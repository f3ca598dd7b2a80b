package agents

import (
	"context"
	"errors"
	"io"

	"github.com/cloudwego/eino/schema"
)

// ToolCallChecker reads the model stream until a tool call shows up.
func ToolCallChecker(ctx context.Context, sr *schema.StreamReader[*schema.Message]) (bool, error) {
	defer sr.Close()
	for {
		msg, err := sr.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, nil
			}
			return false, err
		}
		if len(msg.ToolCalls) > 0 {
			return true, nil
		}
	}
}
