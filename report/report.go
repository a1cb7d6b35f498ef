// Package report renders a consultation transcript as Markdown and HTML.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"oem_consult/generator"
	"oem_consult/questionnaire"
)

// Transcript is a point-in-time copy of a consultation.
type Transcript struct {
	Title            string
	SessionID        string
	GeneratedAt      time.Time
	Progress         questionnaire.Progress
	Entries          []questionnaire.LogEntry
	TargetMOQ        int
	ProposedMOQ      int
	Negotiation      []generator.Message
	NegotiationEnded bool
}

// Without html.WithUnsafe, raw HTML in answers or model output is omitted.
var md = goldmark.New(
	goldmark.WithExtensions(extension.Table),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// Markdown lays out the questionnaire answers followed by the negotiation.
func Markdown(t Transcript) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", t.Title))
	sb.WriteString(fmt.Sprintf("세션 `%s` · %s\n\n", t.SessionID, t.GeneratedAt.Format("2006-01-02 15:04")))

	sb.WriteString("## 진행 상황\n\n")
	sb.WriteString("| 카테고리 | 완료 | 전체 |\n|---|---|---|\n")
	for _, c := range t.Progress.Categories {
		sb.WriteString(fmt.Sprintf("| %s | %d | %d |\n", cell(c.Name), c.Done, c.Total))
	}
	sb.WriteString(fmt.Sprintf("\n전체 진행률 %d%% (%d/%d)\n\n", t.Progress.Percent, t.Progress.Answered, t.Progress.Total))

	category := ""
	for _, e := range t.Entries {
		if e.Category != category {
			category = e.Category
			sb.WriteString(fmt.Sprintf("## %s\n\n", category))
		}
		sb.WriteString(fmt.Sprintf("**Q:** %s\n\n", e.Question))
		sb.WriteString(fmt.Sprintf("**A:** %s\n\n", e.Answer))
		if e.AIResponse != "" {
			sb.WriteString(fmt.Sprintf("**AI:** %s\n\n", e.AIResponse))
		}
		sb.WriteString("---\n\n")
	}

	if len(t.Negotiation) > 0 {
		sb.WriteString("## MOQ 협상\n\n")
		sb.WriteString(fmt.Sprintf("- 목표 MOQ: %d개\n- 제조사 제시 MOQ: %d개\n\n", t.TargetMOQ, t.ProposedMOQ))
		for _, m := range t.Negotiation {
			sb.WriteString(fmt.Sprintf("**%s:**\n\n", speaker(m.Role)))
			for _, line := range strings.Split(strings.TrimSpace(m.Content), "\n") {
				sb.WriteString("> " + strings.TrimSpace(line) + "\n")
			}
			sb.WriteString("\n")
		}
		if t.NegotiationEnded {
			sb.WriteString("_협상 종료_\n")
		}
	}
	return sb.String()
}

// HTML converts the Markdown transcript into a standalone page.
func HTML(t Transcript) (string, error) {
	body, err := mdToHTML(Markdown(t))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := page.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{t.Title, template.HTML(body)}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func mdToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func speaker(role string) string {
	if role == generator.RoleAssistant {
		return generator.BrandLabel + " 담당자"
	}
	return generator.ManufacturerLabel
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

var page = template.Must(template.New("report").Parse(`<!doctype html>
<html lang="ko">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:sans-serif;max-width:860px;margin:2em auto;line-height:1.6;padding:0 1em}
blockquote{background:#f0f0f0;border-radius:10px;margin:0 0 10px;padding:10px}
table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:4px 8px}
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))
