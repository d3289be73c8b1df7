package ai

import (
	"strings"

	"github.com/buger/jsonparser"
)

// Extractor pulls reply text out of one known response layout. It returns
// an empty string when the layout does not match.
type Extractor func(data []byte) string

// ExtractReply tries each extractor in order; the first non-empty result wins.
func ExtractReply(data []byte, extractors []Extractor) string {
	for _, extract := range extractors {
		if text := extract(data); text != "" {
			return text
		}
	}
	return ""
}

// geminiExtractors lists the response layouts seen from generateMessage and
// its successors, most specific first.
var geminiExtractors = []Extractor{
	joinedTexts("candidates", "[0]", "content"),
	stringAt("candidates", "[0]", "content"),
	joinedTexts("candidates", "[0]", "content", "parts"),
	joinedTexts("output", "[0]", "content"),
	stringAt("content", "[0]", "text"),
}

// joinedTexts concatenates the "text" field of every element of the array
// found at path.
func joinedTexts(path ...string) Extractor {
	return func(data []byte) string {
		value, dataType, _, err := jsonparser.Get(data, path...)
		if err != nil || dataType != jsonparser.Array {
			return ""
		}

		var b strings.Builder
		_, _ = jsonparser.ArrayEach(value, func(item []byte, itemType jsonparser.ValueType, _ int, err error) {
			if err != nil || itemType != jsonparser.Object {
				return
			}
			if text, err := jsonparser.GetString(item, "text"); err == nil {
				b.WriteString(text)
			}
		})
		return b.String()
	}
}

// stringAt returns the string found at path.
func stringAt(path ...string) Extractor {
	return func(data []byte) string {
		value, dataType, _, err := jsonparser.Get(data, path...)
		if err != nil || dataType != jsonparser.String {
			return ""
		}
		text, err := jsonparser.ParseString(value)
		if err != nil {
			return ""
		}
		return text
	}
}
