package classifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/apex/log"
	"github.com/cenkalti/backoff/v4"
)

// WasteCategory details one material identified in a categorization.
type WasteCategory struct {
	Type                string `json:"type"`
	Material            string `json:"material"`
	IsRecyclable        bool   `json:"is_recyclable"`
	RecyclingProcess    string `json:"recycling_process"`
	RecyclingValue      string `json:"recycling_value"`
	EnvironmentalImpact string `json:"environmental_impact"`
}

// OverallAnalysis is the categorization's recyclability summary.
type OverallAnalysis struct {
	TotalRecyclablePercentage float64 `json:"total_recyclable_percentage"`
	PrimaryMaterial           string  `json:"primary_material"`
	RecyclingRecommendation   string  `json:"recycling_recommendation"`
	EnvironmentalNotes        string  `json:"environmental_notes"`
}

// Categorization is the model's waste-composition breakdown for an image.
type Categorization struct {
	MainCategory           string          `json:"main_category"`
	MainCategoryConfidence float64         `json:"main_category_confidence"`
	WasteCategories        []WasteCategory `json:"waste_categories"`
	OverallAnalysis        OverallAnalysis `json:"overall_analysis"`
	ConfidenceScore        float64         `json:"confidence_score"`
}

// Categorizer breaks a waste image down by material and recyclability.
type Categorizer interface {
	Categorize(ctx context.Context, imageBase64 string) (*Categorization, error)
}

const categorizePrompt = `Analyze this image of waste and provide detailed categorization and recyclability information.

Instructions:
1. First, determine the MAIN CATEGORY of waste in the image. Choose ONLY ONE from:
   - DRY WASTE (paper, plastic, metal, glass, etc.)
   - WET WASTE (food waste, organic matter, etc.)
   - E-WASTE (electronic items, batteries, etc.)
   - HAZARDOUS WASTE (chemicals, medical waste, etc.)
   - CONSTRUCTION WASTE (debris, rubble, etc.)
   - MIXED WASTE (combination of multiple categories)

2. Then, identify and categorize the specific waste types present in the image
3. For each waste type, determine material composition, recyclability, the
   recycling process if applicable, estimated recycling value and
   environmental impact
4. Provide a comprehensive recyclability assessment

RESPOND ONLY WITH VALID JSON. Do not include any explanations or markdown formatting.

Your response MUST follow this exact JSON schema:
{
    "main_category": "string (DRY WASTE/WET WASTE/E-WASTE/HAZARDOUS WASTE/CONSTRUCTION WASTE/MIXED WASTE)",
    "main_category_confidence": 0-100,
    "waste_categories": [
        {
            "type": "string (e.g., Plastic, Paper, Metal, etc.)",
            "material": "string (specific material type)",
            "is_recyclable": true/false,
            "recycling_process": "string (how it can be recycled)",
            "recycling_value": "string (low/medium/high)",
            "environmental_impact": "string (brief impact description)"
        }
    ],
    "overall_analysis": {
        "total_recyclable_percentage": 0-100,
        "primary_material": "string",
        "recycling_recommendation": "string",
        "environmental_notes": "string"
    },
    "confidence_score": 0-100
}`

// Categorize sends the image to Gemini and parses the material breakdown.
func (c *GeminiClient) Categorize(ctx context.Context, imageBase64 string) (*Categorization, error) {
	greq := geminiRequest{
		Contents: []geminiContent{
			{
				Parts: []geminiPart{
					{Text: categorizePrompt},
					{InlineData: &geminiInlineData{
						MimeType: "image/jpeg",
						Data:     stripDataURL(imageBase64),
					}},
				},
			},
		},
	}
	greq.GenerationConfig.Temperature = 0.2
	greq.GenerationConfig.MaxOutputTokens = 4096

	body, err := json.Marshal(greq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode categorization request: %w", err)
	}

	var raw string
	operation := func() error {
		raw, err = c.post(ctx, body)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		log.Errorf("Categorization call failed after retries: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	result, err := parseCategorization(raw)
	if err != nil {
		log.Errorf("Categorization returned an unparseable answer: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return result, nil
}

func parseCategorization(text string) (*Categorization, error) {
	cleaned := stripFences(text)

	result := &Categorization{}
	if err := json.Unmarshal([]byte(cleaned), result); err != nil {
		return nil, fmt.Errorf("failed to parse categorization: %w", err)
	}
	if result.MainCategory == "" {
		result.MainCategory = "UNKNOWN"
	}
	if result.WasteCategories == nil {
		result.WasteCategories = []WasteCategory{}
	}
	return result, nil
}
