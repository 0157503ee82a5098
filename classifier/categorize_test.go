package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const categorizationJSON = `{
	"main_category": "DRY WASTE",
	"main_category_confidence": 88,
	"waste_categories": [
		{"type": "Plastic", "material": "PET", "is_recyclable": true,
		 "recycling_process": "Shred and re-pelletize", "recycling_value": "medium",
		 "environmental_impact": "Slow to degrade"}
	],
	"overall_analysis": {
		"total_recyclable_percentage": 75,
		"primary_material": "Plastic",
		"recycling_recommendation": "Separate PET bottles",
		"environmental_notes": "Mostly recoverable"
	},
	"confidence_score": 85
}`

func TestParseCategorization(t *testing.T) {
	testCases := []struct {
		name string
		text string

		wantErr      bool
		wantCategory string
	}{
		{
			name:         "Plain JSON",
			text:         categorizationJSON,
			wantCategory: "DRY WASTE",
		}, {
			name:         "Fenced JSON",
			text:         "```json\n" + categorizationJSON + "\n```",
			wantCategory: "DRY WASTE",
		}, {
			name:         "Missing fields get defaults",
			text:         `{"confidence_score": 10}`,
			wantCategory: "UNKNOWN",
		}, {
			name:    "Prose instead of JSON",
			text:    "This looks like garbage.",
			wantErr: true,
		},
	}
	for _, testCase := range testCases {
		result, err := parseCategorization(testCase.text)
		if testCase.wantErr {
			if err == nil {
				t.Errorf("%s, parseCategorization(): expected an error", testCase.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s, parseCategorization(): unexpected error: %v", testCase.name, err)
			continue
		}
		if result.MainCategory != testCase.wantCategory {
			t.Errorf("%s, parseCategorization(): expected category %q, got %q",
				testCase.name, testCase.wantCategory, result.MainCategory)
		}
		if result.WasteCategories == nil {
			t.Errorf("%s, parseCategorization(): waste categories should never be nil", testCase.name)
		}
	}
}

func TestCategorize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]string{{"text": categorizationJSON}},
				},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewGeminiClient("test-key", "gemini-test", 5*time.Second, 1)
	c.endpoint = server.URL

	result, err := c.Categorize(context.Background(), "data:image/jpeg;base64,aGk=")
	if err != nil {
		t.Errorf("Categorize(): unexpected error: %v", err)
		return
	}
	if result.MainCategory != "DRY WASTE" || len(result.WasteCategories) != 1 {
		t.Errorf("Categorize(): unexpected result: %+v", result)
	}
	if !result.WasteCategories[0].IsRecyclable {
		t.Errorf("Categorize(): expected the PET item to be recyclable")
	}
}
