package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"paypromise/internal/agent"
	"paypromise/internal/ai"
)

var errEmptyResponse = errors.New("empty model response")

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements agent.Model on top of the Gemini API.
type Client struct {
	models generator
	model  string
}

func New(ctx context.Context, apiKey, model string) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{models: c.Models, model: model}, nil
}

var promiseTool = &genai.Tool{
	FunctionDeclarations: []*genai.FunctionDeclaration{{
		Name:        ai.PromiseToolName,
		Description: ai.PromiseToolDescription,
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				ai.ArgAmount: {Type: genai.TypeNumber, Description: "Monto prometido"},
				ai.ArgDate:   {Type: genai.TypeString, Description: "Fecha del pago en formato DD/MM/YYYY"},
			},
			Required: []string{ai.ArgAmount, ai.ArgDate},
		},
	}},
}

func (c *Client) Negotiate(ctx context.Context, prompt string) (agent.ModelReply, error) {
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Tools: []*genai.Tool{promiseTool},
	})
	if err != nil {
		return agent.ModelReply{}, err
	}
	return replyFromResponse(resp)
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	reply, err := replyFromResponse(resp)
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType, prompt string) (string, error) {
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{Data: audio, MIMEType: mimeType}},
		},
	}}

	resp, err := c.models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", err
	}
	reply, err := replyFromResponse(resp)
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

// replyFromResponse collects the text and function calls of the first
// candidate. Thought parts are skipped.
func replyFromResponse(resp *genai.GenerateContentResponse) (agent.ModelReply, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return agent.ModelReply{}, errEmptyResponse
	}

	var reply agent.ModelReply
	var text []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		if part.FunctionCall != nil {
			reply.Calls = append(reply.Calls, agent.ToolCall{
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
			continue
		}
		if part.Text != "" {
			text = append(text, part.Text)
		}
	}
	reply.Text = strings.Join(text, "")

	if reply.Text == "" && len(reply.Calls) == 0 {
		return agent.ModelReply{}, errEmptyResponse
	}
	return reply, nil
}
