// Package dialogflow sends a resolved prompt plus the user's message to
// a Dialogflow CX agent and extracts the reply text.
package dialogflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"
)

// DefaultSessionID is used when a chat request carries no session ID.
const DefaultSessionID = "default-session"

// noAgentResponse substitutes for a 2xx reply whose body lacks the
// expected text shape.
const noAgentResponse = "No response from agent."

// missingFieldsPrefix marks replies for advertisers whose settings were
// incomplete at synthesis time.
const missingFieldsPrefix = "Missing Fields: "

var (
	// ErrCredential wraps token-acquisition failures.
	ErrCredential = errors.New("credential acquisition failed")
	// ErrUpstream wraps non-2xx or transport-level NLU failures.
	ErrUpstream = errors.New("NLU request failed")
)

// Config carries the agent coordinates for outbound detectIntent calls.
type Config struct {
	ProjectID    string
	Location     string
	AgentID      string
	LanguageCode string
	Timeout      time.Duration
	// BaseURL overrides the regional Dialogflow endpoint; tests point it
	// at a local server.
	BaseURL string
}

// Client calls the Dialogflow CX detectIntent endpoint.
type Client struct {
	http   *resty.Client
	tokens TokenSource
	cfg    Config
	log    *log.Logger
}

func NewClient(cfg Config, tokens TokenSource, logger *log.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("https://%s-dialogflow.googleapis.com", cfg.Location)
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	httpClient.JSONMarshal = sonic.Marshal
	httpClient.JSONUnmarshal = sonic.Unmarshal

	return &Client{
		http:   httpClient,
		tokens: tokens,
		cfg:    cfg,
		log:    logger,
	}
}

// DetectParams is one outbound chat turn.
type DetectParams struct {
	AdvertiserName string
	SessionID      string
	Message        string
	Prompt         string
	MissingFields  bool
}

type textInput struct {
	Text string `json:"text"`
}

type queryInput struct {
	Text         textInput `json:"text"`
	LanguageCode string    `json:"languageCode"`
}

type queryParams struct {
	Parameters map[string]any `json:"parameters"`
}

type detectIntentRequest struct {
	QueryInput  queryInput  `json:"queryInput"`
	QueryParams queryParams `json:"queryParams"`
}

type responseMessage struct {
	Text struct {
		Text []string `json:"text"`
	} `json:"text"`
}

type detectIntentResponse struct {
	QueryResult struct {
		ResponseMessages []responseMessage `json:"responseMessages"`
	} `json:"queryResult"`
}

// Detect issues one synchronous detectIntent call and returns the
// agent's reply text. The outbound text is a single natural-language
// turn: prompt, advertiser annotation, then the user's message, with
// the exact separators the agent was trained against.
func (c *Client) Detect(ctx context.Context, p DetectParams) (string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCredential, err)
	}

	sessionID := p.SessionID
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	finalMessage := p.Prompt + "\n\nAdvertiser:" + p.AdvertiserName + "\n\n Query:" + p.Message

	path := fmt.Sprintf("/v3/projects/%s/locations/%s/agents/%s/sessions/%s:detectIntent",
		c.cfg.ProjectID, c.cfg.Location, c.cfg.AgentID, sessionID)

	var result detectIntentResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(detectIntentRequest{
			QueryInput: queryInput{
				Text:         textInput{Text: finalMessage},
				LanguageCode: c.cfg.LanguageCode,
			},
			QueryParams: queryParams{Parameters: map[string]any{}},
		}).
		SetResult(&result).
		Post(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: %s", ErrUpstream, resp.Status())
	}

	reply := noAgentResponse
	if msgs := result.QueryResult.ResponseMessages; len(msgs) > 0 && len(msgs[0].Text.Text) > 0 {
		reply = msgs[0].Text.Text[0]
	}

	if p.MissingFields {
		c.log.Warn("advertiser settings incomplete, annotating reply", "advertiser", p.AdvertiserName)
		reply = missingFieldsPrefix + reply
	}
	return reply, nil
}
