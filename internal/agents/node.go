package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"

	"github.com/dyike/TradeCortex/consts"
)

// reactMaxStep bounds the tool-calling loop of one analyst.
const reactMaxStep = 40

// NewChatAgentGraph wires load -> chat model -> router. The router returns
// the key of the next agent, which the orchestrator reads from state.Goto.
func NewChatAgentGraph(
	cm model.BaseChatModel,
	load func(ctx context.Context, input string, opts ...any) ([]*schema.Message, error),
	route func(ctx context.Context, input *schema.Message, opts ...any) (string, error),
) (*compose.Graph[string, string], error) {
	if cm == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	g := compose.NewGraph[string, string]()
	if err := g.AddLambdaNode(consts.NodeLoad, compose.InvokableLambdaWithOption(load)); err != nil {
		return nil, err
	}
	if err := g.AddChatModelNode(consts.NodeAgent, cm); err != nil {
		return nil, err
	}
	if err := g.AddLambdaNode(consts.NodeRouter, compose.InvokableLambdaWithOption(route)); err != nil {
		return nil, err
	}
	return g, addChain(g)
}

// NewReactAgentGraph is NewChatAgentGraph with a ReAct agent bound to tools
// in place of the bare chat model.
func NewReactAgentGraph(
	ctx context.Context,
	cm model.ToolCallingChatModel,
	tools []tool.BaseTool,
	load func(ctx context.Context, input string, opts ...any) ([]*schema.Message, error),
	route func(ctx context.Context, input *schema.Message, opts ...any) (string, error),
) (*compose.Graph[string, string], error) {
	if cm == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	agent, err := react.NewAgent(ctx, &react.AgentConfig{
		MaxStep:          reactMaxStep,
		ToolCallingModel: cm,
		ToolsConfig: compose.ToolsNodeConfig{
			Tools: tools,
		},
		StreamToolCallChecker: ToolCallChecker,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	agentLambda, err := compose.AnyLambda(agent.Generate, agent.Stream, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent lambda: %w", err)
	}

	g := compose.NewGraph[string, string]()
	if err := g.AddLambdaNode(consts.NodeLoad, compose.InvokableLambdaWithOption(load)); err != nil {
		return nil, err
	}
	if err := g.AddLambdaNode(consts.NodeAgent, agentLambda); err != nil {
		return nil, err
	}
	if err := g.AddLambdaNode(consts.NodeRouter, compose.InvokableLambdaWithOption(route)); err != nil {
		return nil, err
	}
	return g, addChain(g)
}

func addChain(g *compose.Graph[string, string]) error {
	for _, e := range [][2]string{
		{compose.START, consts.NodeLoad},
		{consts.NodeLoad, consts.NodeAgent},
		{consts.NodeAgent, consts.NodeRouter},
		{consts.NodeRouter, compose.END},
	} {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			return err
		}
	}
	return nil
}

// ToolNames lists the names of tools for the analyst system prompt.
func ToolNames(ctx context.Context, tools []tool.BaseTool) (string, error) {
	var names []string
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return "", err
		}
		names = append(names, info.Name)
	}
	return strings.Join(names, ", "), nil
}
