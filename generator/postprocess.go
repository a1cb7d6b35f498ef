package generator

import (
	"errors"
	"regexp"
	"strings"
)

var speakerPrefix = regexp.MustCompile(`^\s*\**(` + BrandLabel + `(\s*담당자)?|상담원 AI)\**\s*[:：]\s*`)

// PostProcess trims the model output and strips a leading speaker label the
// model sometimes echoes back from the transcript.
func PostProcess(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimSpace(speakerPrefix.ReplaceAllString(text, ""))
	if text == "" {
		return "", errors.New("model returned empty text")
	}
	return text, nil
}
