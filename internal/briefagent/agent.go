package briefagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
)

const (
	BiasBullish = "bullish"
	BiasBearish = "bearish"
	BiasNeutral = "neutral"
)

type Config struct {
	Enabled    bool
	Model      string
	APIKey     string
	BaseURL    string
	ByAzure    bool
	APIVersion string
	TimeoutMs  int
}

type Mover struct {
	Symbol        string  `json:"symbol"`
	ChangePercent float64 `json:"change_pct"`
}

// Input is the market snapshot the brief is written from.
type Input struct {
	Phase        string  `json:"phase"`
	Advances     int     `json:"advances"`
	Declines     int     `json:"declines"`
	BreadthRatio float64 `json:"breadth_ratio"`
	PCR          float64 `json:"pcr"`
	PCRSymbol    string  `json:"pcr_symbol,omitempty"`
	Gainers      []Mover `json:"gainers"`
	Losers       []Mover `json:"losers"`
	TopSector    string  `json:"top_sector,omitempty"`
	BottomSector string  `json:"bottom_sector,omitempty"`
}

type Brief struct {
	Bias      string   `json:"bias"`
	Headline  string   `json:"headline"`
	Points    []string `json:"points"`
	Source    string   `json:"source"`
	Generated string   `json:"generated_at"`
}

type Agent struct {
	enabled        bool
	model          *openai.ChatModel
	modelName      string
	disabledReason string
}

func New(cfg Config) *Agent {
	if !cfg.Enabled {
		return &Agent{enabled: false, disabledReason: "disabled by config"}
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = os.Getenv("OPENAI_MODEL")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if cfg.APIKey == "" || cfg.Model == "" {
		log.Warn().Msg("briefagent disabled: missing api key or model")
		return &Agent{enabled: false, disabledReason: "api_key or model missing"}
	}

	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	model, err := openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		ByAzure:    cfg.ByAzure,
		APIVersion: cfg.APIVersion,
		Timeout:    timeout,
	})
	if err != nil {
		log.Error().Err(err).Msg("briefagent init failed")
		return &Agent{enabled: false, disabledReason: "init failed"}
	}

	return &Agent{enabled: true, model: model, modelName: cfg.Model}
}

func (a *Agent) Enabled() bool {
	return a != nil && a.enabled && a.model != nil
}

// Evaluate asks the model for a brief. The rule based brief is returned when
// the model is not configured or its answer is unusable; the error is still
// reported so callers can surface it.
func (a *Agent) Evaluate(ctx context.Context, in Input) (Brief, error) {
	if !a.Enabled() {
		return FallbackBrief(in), nil
	}

	payload, _ := json.Marshal(in)

	system := `You are a market desk assistant for the Indian equity market. Output ONLY valid JSON.
Must include keys: bias (one of bullish, bearish, neutral), headline (one sentence), points (array of at most 4 short strings).
Base the answer only on the input numbers. No extra text.`

	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(fmt.Sprintf("Input: %s", string(payload))),
	}

	resp, err := a.model.Generate(ctx, messages)
	if err != nil {
		logModelError("evaluate", err)
		return FallbackBrief(in), err
	}

	brief, err := parseBrief(strings.TrimSpace(resp.Content))
	if err != nil {
		return FallbackBrief(in), err
	}
	brief = sanitizeBrief(brief)
	brief.Source = "llm"
	brief.Generated = time.Now().Format(time.RFC3339)
	return brief, nil
}

// Health reports whether briefs come from the model or the rule based fallback.
type Health struct {
	Mode      string `json:"mode"`
	Model     string `json:"model,omitempty"`
	Reason    string `json:"reason,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

// Ping sends a minimal prompt to the model. A nil or disabled agent answers
// without a round trip.
func (a *Agent) Ping(ctx context.Context) (Health, error) {
	if !a.Enabled() {
		h := Health{Mode: "fallback", Reason: "not configured"}
		if a != nil && a.disabledReason != "" {
			h.Reason = a.disabledReason
		}
		return h, nil
	}
	start := time.Now()
	_, err := a.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage("Reply with the single word pong."),
		schema.UserMessage("ping"),
	})
	if err != nil {
		logModelError("ping", err)
		return Health{Mode: "fallback", Model: a.modelName, Reason: "model error"}, err
	}
	return Health{Mode: "llm", Model: a.modelName, LatencyMs: time.Since(start).Milliseconds()}, nil
}

// FallbackBrief derives a bias from breadth and put-call ratio alone.
func FallbackBrief(in Input) Brief {
	bias := BiasNeutral
	switch {
	case in.BreadthRatio > 1.2 || in.PCR > 1:
		bias = BiasBullish
	case in.BreadthRatio < 0.8 && in.PCR < 0.8:
		bias = BiasBearish
	}

	points := []string{
		fmt.Sprintf("Advances %d vs declines %d (ratio %.2f)", in.Advances, in.Declines, in.BreadthRatio),
	}
	if in.PCR > 0 {
		label := "PCR"
		if in.PCRSymbol != "" {
			label = in.PCRSymbol + " PCR"
		}
		points = append(points, fmt.Sprintf("%s at %.2f", label, in.PCR))
	}
	if len(in.Gainers) > 0 {
		g := in.Gainers[0]
		points = append(points, fmt.Sprintf("Top gainer %s %+.2f%%", g.Symbol, g.ChangePercent))
	}
	if len(in.Losers) > 0 {
		l := in.Losers[0]
		points = append(points, fmt.Sprintf("Top loser %s %+.2f%%", l.Symbol, l.ChangePercent))
	}

	headline := "Mixed session, no clear direction"
	switch bias {
	case BiasBullish:
		headline = "Breadth and options positioning lean positive"
	case BiasBearish:
		headline = "Declines dominate with light put writing"
	}
	if in.TopSector != "" {
		headline += ", " + in.TopSector + " leads"
	}

	return Brief{
		Bias:      bias,
		Headline:  headline,
		Points:    points,
		Source:    "fallback",
		Generated: time.Now().Format(time.RFC3339),
	}
}

func parseBrief(text string) (Brief, error) {
	var out Brief
	if err := json.Unmarshal([]byte(text), &out); err == nil {
		return out, nil
	}
	jsonStr := firstObject(text)
	if jsonStr == "" {
		return Brief{}, fmt.Errorf("no json object found")
	}
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		return Brief{}, fmt.Errorf("parse brief: %w", err)
	}
	return out, nil
}

// firstObject returns the first balanced {...} in s. Braces inside JSON
// strings are skipped, so a headline like "range {bound}" does not end it.
func firstObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			if depth--; depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func sanitizeBrief(b Brief) Brief {
	switch strings.ToLower(strings.TrimSpace(b.Bias)) {
	case BiasBullish:
		b.Bias = BiasBullish
	case BiasBearish:
		b.Bias = BiasBearish
	default:
		b.Bias = BiasNeutral
	}
	b.Headline = strings.TrimSpace(b.Headline)
	if b.Points == nil {
		b.Points = []string{}
	}
	if len(b.Points) > 4 {
		b.Points = b.Points[:4]
	}
	return b
}

func logModelError(op string, err error) {
	ev := log.Error().Str("op", op).Err(err)
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if len(msg) > 300 {
			msg = msg[:300] + "..."
		}
		ev = log.Error().Str("op", op).Int("status", apiErr.HTTPStatusCode).Str("message", msg)
	}
	ev.Msg("brief model call failed")
}
