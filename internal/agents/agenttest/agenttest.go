// Package agenttest has fakes for running agent sub-graphs without a model
// provider or market data.
package agenttest

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/dyike/TradeCortex/models"
)

// ChatModel answers with Reply, or echoes Content when Reply is nil.
type ChatModel struct {
	Content string
	Reply   func(in []*schema.Message) (*schema.Message, error)

	mu    sync.Mutex
	calls [][]*schema.Message
	tools []*schema.ToolInfo
}

func (m *ChatModel) Generate(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.calls = append(m.calls, in)
	reply := m.Reply
	m.mu.Unlock()
	if reply != nil {
		return reply(in)
	}
	return schema.AssistantMessage(m.Content, nil), nil
}

func (m *ChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *ChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	m.mu.Lock()
	m.tools = tools
	m.mu.Unlock()
	return m, nil
}

func (m *ChatModel) BindTools(tools []*schema.ToolInfo) error {
	_, err := m.WithTools(tools)
	return err
}

// Calls returns the message lists the model was invoked with.
func (m *ChatModel) Calls() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]*schema.Message(nil), m.calls...)
}

// LastPrompt joins the contents of the last call's messages.
func (m *ChatModel) LastPrompt() string {
	calls := m.Calls()
	if len(calls) == 0 {
		return ""
	}
	var out string
	for _, msg := range calls[len(calls)-1] {
		out += msg.Content + "\n"
	}
	return out
}

// ErrModel is returned by Failing.
var ErrModel = errors.New("model unavailable")

// Failing returns a model whose every call fails.
func Failing() *ChatModel {
	return &ChatModel{Reply: func([]*schema.Message) (*schema.Message, error) { return nil, ErrModel }}
}

// RunNode runs one agent sub-graph over state and returns the next node key.
func RunNode(ctx context.Context, node *compose.Graph[string, string], state *models.TradingState) (string, error) {
	g := compose.NewGraph[string, string](
		compose.WithGenLocalState(func(context.Context) *models.TradingState { return state }),
	)
	if err := g.AddGraphNode("node", node); err != nil {
		return "", err
	}
	if err := g.AddEdge(compose.START, "node"); err != nil {
		return "", err
	}
	if err := g.AddEdge("node", compose.END); err != nil {
		return "", err
	}
	r, err := g.Compile(ctx)
	if err != nil {
		return "", err
	}
	return r.Invoke(ctx, state.CompanyOfInterest)
}

// Recorder keeps every published message.
type Recorder struct {
	mu       sync.Mutex
	Messages []string
	Agents   []string
}

func (r *Recorder) RecordMessage(_ context.Context, agent, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Agents = append(r.Agents, agent)
	r.Messages = append(r.Messages, content)
}
