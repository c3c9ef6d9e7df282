package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/BetterCallFirewall/Sentinel/internal/models"
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	log "github.com/sirupsen/logrus"
)

// AnalyzeRequest is one analysis call
type AnalyzeRequest struct {
	APIKey       string
	SystemPrompt string
	Content      string
}

// keyCheck is the minimal schema of the credential validation call
type keyCheck struct {
	Status string `json:"status" jsonschema:"description=Always 'ok'"`
}

// Client talks to the hosted model through Genkit.
// One Genkit app is kept per credential.
type Client struct {
	factory   AppFactory
	modelName string

	mu   sync.Mutex
	apps map[string]*genkit.Genkit
}

// NewClient creates a client for the fully qualified modelName (see ModelName)
func NewClient(factory AppFactory, modelName string) *Client {
	return &Client{
		factory:   factory,
		modelName: modelName,
		apps:      make(map[string]*genkit.Genkit),
	}
}

// Model returns the model name used for every call
func (c *Client) Model() string {
	return c.modelName
}

func (c *Client) app(ctx context.Context, apiKey string) (*genkit.Genkit, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: empty api key", ErrInvalidAPIKey)
	}

	sum := sha256.Sum256([]byte(apiKey))
	id := hex.EncodeToString(sum[:])

	c.mu.Lock()
	defer c.mu.Unlock()

	if g, ok := c.apps[id]; ok {
		return g, nil
	}
	g, err := c.factory(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("initializing genkit: %w", err)
	}
	c.apps[id] = g
	return g, nil
}

// Analyze sends the code with the system instruction and returns the parsed result.
// Errors are ErrInvalidAPIKey or ErrAnalysisFailed.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (*models.AnalysisResult, error) {
	g, err := c.app(ctx, req.APIKey)
	if err != nil {
		return nil, translateError(err)
	}

	log.WithFields(log.Fields{
		"model":   c.modelName,
		"content": len(req.Content),
	}).Info("🔍 Requesting code analysis")

	resp, err := genkit.Generate(
		ctx,
		g,
		ai.WithModelName(c.modelName),
		ai.WithMessages(
			ai.NewSystemTextMessage(req.SystemPrompt),
			ai.NewUserTextMessage(req.Content),
		),
		ai.WithOutputType(models.AnalysisResult{}),
		ai.WithMiddleware(LoggingMiddleware(c.modelName)),
	)
	if err != nil {
		return nil, translateError(err)
	}

	result, err := ParseAnalysisResult(resp.Text())
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"vulnerabilities": len(result.Vulnerabilities),
		"score":           result.Summary.SecurityScore,
	}).Info("✅ Analysis parsed")
	return result, nil
}

// ValidateKey makes a trivial call to confirm the provider accepts apiKey.
// Any failure means "invalid".
func (c *Client) ValidateKey(ctx context.Context, apiKey string) bool {
	g, err := c.app(ctx, apiKey)
	if err != nil {
		return false
	}

	_, _, err = genkit.GenerateData[keyCheck](
		ctx,
		g,
		ai.WithModelName(c.modelName),
		ai.WithMessages(ai.NewUserTextMessage(`Responda com {"status": "ok"}.`)),
		ai.WithMiddleware(LoggingMiddleware(c.modelName)),
	)
	if err != nil {
		log.Warnf("⚠️ API key validation failed: %v", err)
		return false
	}
	return true
}

// Chat answers a free-text question about result, which may be nil
func (c *Client) Chat(ctx context.Context, apiKey, question string, result *models.AnalysisResult) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", errors.New("question is empty")
	}

	g, err := c.app(ctx, apiKey)
	if err != nil {
		return "", translateError(err)
	}

	resp, err := genkit.Generate(
		ctx,
		g,
		ai.WithModelName(c.modelName),
		ai.WithMessages(
			ai.NewSystemTextMessage(chatSystemPrompt),
			ai.NewUserTextMessage(BuildChatContent(question, result)),
		),
		ai.WithMiddleware(LoggingMiddleware(c.modelName)),
	)
	if err != nil {
		return "", translateError(err)
	}
	return strings.TrimSpace(resp.Text()), nil
}
