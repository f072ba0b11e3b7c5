package resume

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ScreeningResult is what the scoring API told us about a resume.
//
// The API is a third party and its response shape has changed over time, so
// every field is optional and Raw keeps the untouched body for clients that
// want to render something we do not model yet.
type ScreeningResult struct {
	ATSScore           *float64                   `json:"atsScore,omitempty"`
	Issues             []string                   `json:"issues"`
	Improvements       []string                   `json:"improvements"`
	InterviewQuestions []string                   `json:"interviewQuestions"`
	Sections           map[string]SectionFeedback `json:"sections"`
	Raw                json.RawMessage            `json:"raw,omitempty"`
}

// SectionFeedback is the per-section verdict (education, experience, ...).
type SectionFeedback struct {
	Score    *float64 `json:"score,omitempty"`
	Feedback string   `json:"feedback,omitempty"`
}

// Field aliases seen in scoring API responses, checked in order.
var (
	scoreKeys       = []string{"ats_score", "atsScore", "score", "ATS_score", "overall_score"}
	issueKeys       = []string{"issues", "problems", "weaknesses"}
	improvementKeys = []string{"improvements", "suggestions", "recommendations"}
	questionKeys    = []string{"interview_questions", "interviewQuestions", "questions"}
	sectionKeys     = []string{"sections", "section_feedback", "sectionFeedback"}
	textKeys        = []string{"text", "message", "description", "title"}
	feedbackKeys    = []string{"feedback", "comment", "comments", "summary"}
)

// DecodeResult parses body without trusting its shape. Only a body that is
// not a JSON object at all is an error; unknown or mistyped fields are
// skipped.
func DecodeResult(body []byte) (*ScreeningResult, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, err
	}

	// Some deployments wrap everything in {"data": {...}} or {"result": {...}}.
	for _, wrapper := range []string{"data", "result"} {
		if inner, ok := top[wrapper]; ok {
			var nested map[string]json.RawMessage
			if json.Unmarshal(inner, &nested) == nil && len(nested) > 0 {
				top = nested
				break
			}
		}
	}

	res := &ScreeningResult{
		Issues:             []string{},
		Improvements:       []string{},
		InterviewQuestions: []string{},
		Sections:           map[string]SectionFeedback{},
		Raw:                json.RawMessage(body),
	}
	if raw, ok := first(top, scoreKeys); ok {
		res.ATSScore = decodeNumber(raw)
	}
	if raw, ok := first(top, issueKeys); ok {
		res.Issues = decodeTextList(raw)
	}
	if raw, ok := first(top, improvementKeys); ok {
		res.Improvements = decodeTextList(raw)
	}
	if raw, ok := first(top, questionKeys); ok {
		res.InterviewQuestions = decodeTextList(raw)
	}
	if raw, ok := first(top, sectionKeys); ok {
		res.Sections = decodeSections(raw)
	}
	return res, nil
}

func first(m map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

// decodeNumber accepts 72, 72.5, "72", "72.5" and "72%".
func decodeNumber(raw json.RawMessage) *float64 {
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return &f
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
	}
	return nil
}

// decodeTextList accepts a list of strings, a list of objects carrying
// text under a known key, or a single string.
func decodeTextList(raw json.RawMessage) []string {
	out := []string{}

	var single string
	if json.Unmarshal(raw, &single) == nil {
		if single != "" {
			out = append(out, single)
		}
		return out
	}

	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return out
	}
	for _, item := range items {
		if text := decodeText(item, textKeys); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func decodeText(raw json.RawMessage, keys []string) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) != nil {
		return ""
	}
	for _, k := range keys {
		if v, ok := obj[k]; ok && json.Unmarshal(v, &s) == nil && s != "" {
			return s
		}
	}
	return ""
}

// decodeSections accepts {"name": {"score": .., "feedback": ..}},
// {"name": "feedback"} or {"name": 80}.
func decodeSections(raw json.RawMessage) map[string]SectionFeedback {
	out := map[string]SectionFeedback{}

	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) != nil {
		return out
	}
	for name, v := range obj {
		var fb SectionFeedback
		if n := decodeNumber(v); n != nil {
			fb.Score = n
		} else if text := decodeText(v, feedbackKeys); text != "" {
			fb.Feedback = text
		}

		var inner map[string]json.RawMessage
		if json.Unmarshal(v, &inner) == nil {
			if s, ok := first(inner, []string{"score", "rating"}); ok {
				fb.Score = decodeNumber(s)
			}
		}
		out[name] = fb
	}
	return out
}
