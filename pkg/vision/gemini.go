package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/teslashibe/go-memey/internal/httpc"
	"github.com/teslashibe/go-memey/internal/log"
	"github.com/teslashibe/go-memey/pkg/emotion"
	"gocv.io/x/gocv"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const geminiPrompt = `Look at the face of the person in this photo and rate their expression.
Reply with only a JSON object whose keys are happy, sad, angry, surprised, fearful, disgusted and neutral, and whose values are scores between 0 and 1.
If there is no face in the photo reply with {}.`

// GeminiConfig configures the hosted Gemini classifier.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// DefaultGeminiConfig reads the key from GOOGLE_API_KEY.
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{
		APIKey:  os.Getenv("GOOGLE_API_KEY"),
		Model:   "gemini-2.0-flash",
		BaseURL: defaultGeminiBaseURL,
		Timeout: httpc.DefaultTimeout,
	}
}

// Gemini asks Gemini Flash to score the expression in a frame.
// It is slow compared to FER+; pair it with a long classifier interval.
type Gemini struct {
	cfg  GeminiConfig
	http *http.Client
}

// NewGemini creates a Gemini classifier.
func NewGemini(cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}
	return &Gemini{
		cfg:  cfg,
		http: httpc.NewClient(cfg.Timeout),
	}, nil
}

// Classify JPEG-encodes the frame and sends it to Gemini.
func (g *Gemini) Classify(ctx context.Context, frame gocv.Mat) (emotion.Scores, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("classify: empty frame")
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	return g.ClassifyJPEG(ctx, buf.GetBytes())
}

// ClassifyJPEG scores an already encoded JPEG image.
func (g *Gemini) ClassifyJPEG(ctx context.Context, jpeg []byte) (emotion.Scores, error) {
	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": geminiPrompt},
					{"inline_data": map[string]string{
						"mime_type": "image/jpeg",
						"data":      base64.StdEncoding.EncodeToString(jpeg),
					}},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature":      0.0,
			"maxOutputTokens":  200,
			"responseMimeType": "application/json",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	// The key stays out of the URL, which transport errors quote
	url := fmt.Sprintf("%s/models/%s:generateContent", g.cfg.BaseURL, g.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	start := time.Now()
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: API request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gemini: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini: API error (status %d): %s", resp.StatusCode, truncate(string(bodyBytes), 200))
	}

	var result geminiResponse
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return nil, fmt.Errorf("gemini: decode response: %w (body: %s)", err, truncate(string(bodyBytes), 200))
	}
	if result.Error.Message != "" {
		return nil, fmt.Errorf("gemini: %s", result.Error.Message)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini: no response content")
	}

	scores, err := parseScores(result.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, err
	}

	log.Debug("gemini classified", "latency_ms", time.Since(start).Milliseconds(), "scores", len(scores))
	return scores, nil
}

// Close is a no-op.
func (g *Gemini) Close() error {
	return nil
}

// parseScores reads the model's JSON score map. Unknown keys are ignored,
// values are clamped to [0,1] and aliases fold into one emotion.
func parseScores(text string) (emotion.Scores, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var raw map[string]float64
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("gemini: parse scores: %w (text: %s)", err, truncate(text, 100))
	}

	scores := make(emotion.Scores, len(raw))
	for k, v := range raw {
		e, err := emotion.Parse(k)
		if err != nil {
			continue
		}
		scores[e] += clamp01(v)
	}
	for e, v := range scores {
		scores[e] = clamp01(v)
	}

	if len(scores) == 0 {
		return nil, ErrNoFace
	}
	return scores, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// geminiResponse is the response structure from Gemini API.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// truncate shortens a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
