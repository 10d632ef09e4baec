package intake

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Shape names the payload interpretation that produced a question list.
type Shape string

const (
	ShapeDirectList  Shape = "direct_list"
	ShapeMatterTypes Shape = "matter_types"
	ShapeStringList  Shape = "string_list"
	ShapeRaw         Shape = "raw"
)

// shapeStrategy reports ok only when the payload parsed in its shape and yielded at least one question.
type shapeStrategy struct {
	shape Shape
	parse func(raw string) ([]QuestionConfig, bool)
}

// shapeStrategies run in order; the raw strategy is last and always succeeds.
var shapeStrategies = [...]shapeStrategy{
	{shape: ShapeDirectList, parse: parseDirectList},
	{shape: ShapeMatterTypes, parse: parseMatterTypes},
	{shape: ShapeStringList, parse: parseStringList},
	{shape: ShapeRaw, parse: parseRaw},
}

// Normalize converts a question payload into an ordered list of question configs.
// It never fails; unrecognised payloads become a single literal question.
func Normalize(rawPayload string) []QuestionConfig {
	questions, _ := NormalizeShape(rawPayload)
	return questions
}

// NormalizeShape is Normalize that also reports which shape matched.
func NormalizeShape(rawPayload string) ([]QuestionConfig, Shape) {
	for _, strategy := range shapeStrategies {
		if questions, ok := strategy.parse(rawPayload); ok {
			return questions, strategy.shape
		}
	}
	// unreachable while parseRaw terminates the list
	return []QuestionConfig{{QuestionText: rawPayload}}, ShapeRaw
}

func parseDirectList(raw string) ([]QuestionConfig, bool) {
	if !strings.HasPrefix(strings.TrimSpace(raw), "[{") {
		return nil, false
	}
	var questions []QuestionConfig
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return nil, false
	}
	return questions, len(questions) > 0
}

type matterTypesEnvelope struct {
	MatterTypes json.RawMessage `json:"MatterTypes"`
}

func parseMatterTypes(raw string) ([]QuestionConfig, bool) {
	if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return nil, false
	}
	var envelope matterTypesEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, false
	}
	// Walk the mapping with gjson: it iterates in document order, a Go map would not.
	mapping := gjson.ParseBytes(envelope.MatterTypes)
	if !mapping.IsObject() {
		return nil, false
	}
	var (
		questions []QuestionConfig
		failed    bool
	)
	mapping.ForEach(func(_, value gjson.Result) bool {
		var matterType MatterTypeConfig
		if err := json.Unmarshal([]byte(value.Raw), &matterType); err != nil {
			failed = true
			return false
		}
		questions = append(questions, matterType.Questions...)
		return true
	})
	if failed {
		return nil, false
	}
	return questions, len(questions) > 0
}

func parseStringList(raw string) ([]QuestionConfig, bool) {
	if !strings.HasPrefix(strings.TrimSpace(raw), "[") {
		return nil, false
	}
	var texts []string
	if err := json.Unmarshal([]byte(raw), &texts); err != nil {
		return nil, false
	}
	questions := make([]QuestionConfig, 0, len(texts))
	for _, text := range texts {
		questions = append(questions, QuestionConfig{QuestionText: text})
	}
	return questions, len(questions) > 0
}

func parseRaw(raw string) ([]QuestionConfig, bool) {
	return []QuestionConfig{{QuestionText: raw}}, true
}
