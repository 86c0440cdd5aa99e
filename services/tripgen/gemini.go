package tripgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiStrategy asks a Gemini model to group passengers so shared boarding
// points ride together. It is best-effort: any error, timeout or malformed
// answer is surfaced to the scheduler, which falls back to the
// deterministic strategy.
type GeminiStrategy struct {
	model *genai.GenerativeModel
}

func NewGeminiStrategy(ctx context.Context, apiKey string) (*GeminiStrategy, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := client.GenerativeModel("models/gemini-1.5-pro")
	return &GeminiStrategy{model: model}, nil
}

type geminiGrouping struct {
	Groups [][]string `json:"groups"` // subscription ids per vehicle
}

func (g *GeminiStrategy) Group(ctx context.Context, req GroupingRequest) ([]Group, error) {
	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}

	return parseGrouping(req.Passengers, sb.String())
}

func buildPrompt(req GroupingRequest) (string, error) {
	payload, err := json.Marshal(req.Passengers)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`You are grouping carpool passengers into vehicles for route %s on %s.
Vehicles seat at most %d passengers. Prefer grouping passengers who share a
boarding point, ordered along the route. Respond with JSON only, shaped as
{"groups": [["subscription_id", ...], ...]}. Every passenger must appear in
exactly one group.

Passengers:
%s`, req.RouteID, req.ServiceDate, MaxTierCapacity, payload), nil
}

// parseGrouping maps the model's subscription-id groups back onto the
// request's passengers. Vehicle tiers are always recomputed locally; the
// model is not trusted with the tier table.
func parseGrouping(passengers []Passenger, raw string) ([]Group, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	var parsed geminiGrouping
	if err := json.Unmarshal([]byte(strings.TrimSpace(cleaned)), &parsed); err != nil {
		return nil, fmt.Errorf("malformed grouping response: %w", err)
	}

	byID := make(map[string]Passenger, len(passengers))
	for _, p := range passengers {
		byID[p.SubscriptionID] = p
	}

	var groups []Group
	for _, ids := range parsed.Groups {
		var members []Passenger
		for _, id := range ids {
			p, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("grouping references unknown subscription %s", id)
			}
			members = append(members, p)
		}
		if len(members) == 0 {
			continue
		}
		tier, err := TierFor(len(members))
		if err != nil {
			return nil, err
		}
		groups = append(groups, Group{VehicleTier: tier, Passengers: members})
	}

	if err := ValidateGrouping(passengers, groups); err != nil {
		return nil, err
	}
	return groups, nil
}
