package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/cenkalti/backoff/v4"
)

const geminiEndpoint = "https://generativelanguage.googleapis.com/v1/models"

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GeminiClient talks to the Gemini vision API over plain HTTP.
type GeminiClient struct {
	apiKey     string
	model      string
	endpoint   string
	maxRetries uint64
	client     *http.Client
}

// NewGeminiClient creates a Gemini classifier client. Every Validate call
// is bounded by timeout and retried up to maxRetries times with
// exponential backoff.
func NewGeminiClient(apiKey, model string, timeout time.Duration, maxRetries uint64) *GeminiClient {
	return &GeminiClient{
		apiKey:     apiKey,
		model:      model,
		endpoint:   geminiEndpoint,
		maxRetries: maxRetries,
		client:     &http.Client{Timeout: timeout},
	}
}

// Validate sends the image and metadata to Gemini and parses the verdict.
func (c *GeminiClient) Validate(ctx context.Context, req Request) (*Verdict, error) {
	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to encode classifier request: %w", err)
	}

	var raw string
	operation := func() error {
		raw, err = c.post(ctx, body)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		log.Errorf("Classifier call failed after retries: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	verdict, err := parseVerdict(raw)
	if err != nil {
		log.Errorf("Classifier returned an unparseable verdict: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return verdict, nil
}

func (c *GeminiClient) buildRequest(req Request) geminiRequest {
	description := req.Description
	if description == "" {
		description = "No description provided"
	}
	prompt := fmt.Sprintf(`Analyze this image of a potentially dirty/unclean area.

Additional context:
- Location: %s
- Time taken: %s
- Description: %s

Categorize the severity of the waste into one of: "Clean", "Low", "Medium", "High", "Critical".
Identify visible waste types and the recyclability of visible items.

RESPOND ONLY WITH VALID JSON. Do not include any explanations, markdown formatting, or code blocks.

Your response MUST follow this exact JSON schema:
{
  "is_valid": true/false,
  "message": "analysis summary",
  "confidence_score": 0-100,
  "severity": "Clean/Low/Medium/High/Critical",
  "waste_types": [{"type": "waste type name", "confidence": 0.0-1.0}],
  "recyclable_items": [{"item": "item name", "recyclable": true/false, "notes": "recycling notes"}]
}

If the image is not of sufficient quality or does not show a dirty area, set is_valid to false.`,
		req.Location, req.Timestamp.Format(time.RFC3339), description)

	greq := geminiRequest{
		Contents: []geminiContent{
			{
				Parts: []geminiPart{
					{Text: prompt},
					{InlineData: &geminiInlineData{
						MimeType: "image/jpeg",
						Data:     stripDataURL(req.ImageBase64),
					}},
				},
			},
		},
	}
	greq.GenerationConfig.Temperature = 0.1
	greq.GenerationConfig.MaxOutputTokens = 2048
	return greq
}

func (c *GeminiClient) post(ctx context.Context, body []byte) (string, error) {
	url := fmt.Sprintf("%s/%s:generateContent", c.endpoint, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, respBody)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// A rejected key or bad request will not heal on retry.
			return "", backoff.Permanent(err)
		}
		return "", err
	}

	var gresp geminiResponse
	if err := json.Unmarshal(respBody, &gresp); err != nil {
		return "", fmt.Errorf("failed to decode classifier response: %w", err)
	}
	if len(gresp.Candidates) == 0 || len(gresp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("classifier returned no candidates")
	}
	return gresp.Candidates[0].Content.Parts[0].Text, nil
}

// stripFences drops the markdown code fences the model sometimes wraps
// its JSON in despite instructions.
func stripFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(cleaned, "```json"); ok {
		cleaned = rest
	} else if rest, ok := strings.CutPrefix(cleaned, "```"); ok {
		cleaned = rest
	}
	return strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
}

// parseVerdict decodes the model's JSON answer.
func parseVerdict(text string) (*Verdict, error) {
	cleaned := stripFences(text)

	verdict := &Verdict{}
	if err := json.Unmarshal([]byte(cleaned), verdict); err != nil {
		return nil, fmt.Errorf("failed to parse verdict: %w", err)
	}
	verdict.Raw = cleaned
	return verdict, nil
}

// stripDataURL drops a data-URL prefix if the caller sent one.
func stripDataURL(image string) string {
	if idx := strings.Index(image, "base64,"); idx >= 0 {
		return image[idx+len("base64,"):]
	}
	return image
}
