package worker

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ModelResponse is the structured content extracted from a model reply.
// Missing sections decode to their zero values, never to a parse failure.
type ModelResponse struct {
	Analysis     string
	Improvements []string
	Suggestions  []string
	Safety       []string
}

// ErrNoPayload is returned when no JSON object can be located in the reply.
var ErrNoPayload = errors.New("no structured payload in model response")

// ParseResponse extracts a ModelResponse from raw model output. The model
// routinely wraps its JSON in markdown code fences and surrounding prose,
// and older model versions emit object forms for list entries; all of these
// are tolerated.
func ParseResponse(raw string) (*ModelResponse, error) {
	payload, ok := extractJSON(raw)
	if !ok {
		return nil, ErrNoPayload
	}

	var doc struct {
		Analysis     json.RawMessage `json:"analysis"`
		Improvements json.RawMessage `json:"improvements"`
		Suggestions  json.RawMessage `json:"suggestions"`
		Safety       json.RawMessage `json:"safety"`
	}
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("decode model payload: %w", err)
	}

	return &ModelResponse{
		Analysis:     decodeText(doc.Analysis),
		Improvements: decodeList(doc.Improvements, "area", "recommendation"),
		Suggestions:  decodeList(doc.Suggestions, "workout", "description"),
		Safety:       decodeList(doc.Safety, "", ""),
	}, nil
}

// extractJSON locates the JSON object inside raw text, stripping markdown
// code fences and any prose around it.
func extractJSON(raw string) (string, bool) {
	text := strings.TrimSpace(raw)

	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			text = rest[:end]
		} else {
			text = rest
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// decodeText accepts either a plain string or the nested object form the
// original model emitted ({"overall": ..., "pace": ...}) and flattens the
// latter into readable lines.
func decodeText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var fields map[string]string
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ""
	}

	// Known sections first, remaining keys in sorted order.
	preferred := []string{"overall", "pace", "heart_rate", "heartRate", "calories", "caloriesBurned"}
	seen := make(map[string]struct{}, len(fields))
	lines := make([]string, 0, len(fields))

	appendLine := func(key string) {
		value := strings.TrimSpace(fields[key])
		if value == "" {
			return
		}
		lines = append(lines, fmt.Sprintf("%s: %s", titleCase(key), value))
		seen[key] = struct{}{}
	}

	for _, key := range preferred {
		if _, ok := fields[key]; ok {
			appendLine(key)
		}
	}

	rest := make([]string, 0, len(fields))
	for key := range fields {
		if _, ok := seen[key]; !ok {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		appendLine(key)
	}

	return strings.Join(lines, "\n")
}

// decodeList accepts a list whose entries are plain strings or objects with
// the given label/detail keys, preserving source order.
func decodeList(raw json.RawMessage, labelKey, detailKey string) []string {
	if len(raw) == 0 {
		return []string{}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return []string{}
	}

	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		var text string
		if err := json.Unmarshal(entry, &text); err == nil {
			if trimmed := strings.TrimSpace(text); trimmed != "" {
				out = append(out, trimmed)
			}
			continue
		}

		var obj map[string]string
		if err := json.Unmarshal(entry, &obj); err != nil {
			continue
		}
		label := strings.TrimSpace(obj[labelKey])
		detail := strings.TrimSpace(obj[detailKey])
		switch {
		case label != "" && detail != "":
			out = append(out, fmt.Sprintf("%s: %s", label, detail))
		case detail != "":
			out = append(out, detail)
		case label != "":
			out = append(out, label)
		}
	}
	return out
}

func titleCase(key string) string {
	if key == "" {
		return key
	}
	return strings.ToUpper(key[:1]) + key[1:]
}
