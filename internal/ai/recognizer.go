// Package ai wraps the multimodal inference endpoint used to match a
// captured product photo against the catalog. It is an untrusted,
// best-effort hint source: callers branch on which fields came back and
// always keep manual entry as the fallback.
package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"smartshop/internal/models"
)

const (
	modelName = "gemini-2.0-flash-001"
	cacheTTL  = 24 * time.Hour
)

var ErrDisabled = errors.New("recognition is not configured")

type Recognizer struct {
	apiKey string
	cache  ScanCache
}

func NewRecognizer(apiKey string, cache ScanCache) *Recognizer {
	if cache == nil {
		cache = NoopScanCache{}
	}
	return &Recognizer{apiKey: apiKey, cache: cache}
}

// Enabled reports whether an API key is configured. A disabled recognizer
// degrades to manual product entry, it never blocks the rest of the app.
func (r *Recognizer) Enabled() bool {
	return r.apiKey != ""
}

// Identify sends the captured JPEG plus the current catalog context to the
// model and returns its structured guess. The ctx controls cancellation:
// closing the capture view aborts the request and commits nothing.
func (r *Recognizer) Identify(ctx context.Context, image []byte, candidates []models.ScanCandidate) (*models.ScanResult, error) {
	if !r.Enabled() {
		return nil, ErrDisabled
	}

	digest := sha256.Sum256(image)
	key := hex.EncodeToString(digest[:])
	if cached, ok, err := r.cache.Get(ctx, key); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Printf("scan cache: lookup failed: %v", err)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(r.apiKey))
	if err != nil {
		return nil, err
	}
	defer client.Close()

	model := client.GenerativeModel(modelName)
	model.GenerationConfig.ResponseMIMEType = "application/json"
	model.GenerationConfig.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"productId":     {Type: genai.TypeString, Description: "ID of the matching catalog product, or empty"},
			"confidence":    {Type: genai.TypeNumber, Description: "Match confidence from 0.0 to 1.0"},
			"suggestedName": {Type: genai.TypeString, Description: "Suggested product name when no catalog match"},
			"brand":         {Type: genai.TypeString, Description: "Brand read from the packaging, if visible"},
			"description":   {Type: genai.TypeString, Description: "Why the image was identified this way"},
		},
		Required: []string{"confidence"},
	}

	contextJSON, err := json.Marshal(candidates)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Task: identify the product shown in the attached photo.

Current catalog: %s

Instructions:
1. Read any text, brand marks and visual features in the image.
2. If it matches a catalog entry with confidence above 0.8, return that productId.
3. Otherwise leave productId empty and suggest an accurate product name for what you see.

Answer in strict JSON.`, contextJSON)

	resp, err := model.GenerateContent(ctx,
		genai.Text(prompt),
		genai.ImageData("jpeg", image),
	)
	if err != nil {
		return nil, err
	}

	result, err := decodeScanResult(resp)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, key, result, cacheTTL); err != nil {
		log.Printf("scan cache: store failed: %v", err)
	}
	return result, nil
}

func decodeScanResult(resp *genai.GenerateContentResponse) (*models.ScanResult, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("model returned no candidates")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		txt, ok := part.(genai.Text)
		if !ok {
			continue
		}
		var result models.ScanResult
		if err := json.Unmarshal([]byte(txt), &result); err != nil {
			return nil, fmt.Errorf("model returned malformed JSON: %w", err)
		}
		return &result, nil
	}
	return nil, errors.New("model returned no text part")
}
