// Package terminal drives a consultation session from a line-oriented
// terminal: one prompt, one line of input, one command.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"oem_consult/consult"
	"oem_consult/generator"
	"oem_consult/logger"
	"oem_consult/negotiation"
	"oem_consult/questionnaire"
	"oem_consult/report"
)

// maxLineBytes bounds one line of input; pasted answers can run long.
const maxLineBytes = 1 << 20

const (
	cmdLog  = "/log"
	cmdQuit = "/quit"
	cmdEnd  = "/end"
)

type Options struct {
	NoColor bool
	// ReportPath, when set, receives an HTML transcript when the run ends.
	ReportPath string
}

type UI struct {
	sess *consult.Session
	in   *bufio.Scanner
	out  io.Writer
	log  logger.Logger
	opts Options

	brand, maker, heading, warn, faint *color.Color
	shownMessages                      int
}

func New(sess *consult.Session, in io.Reader, out io.Writer, log logger.Logger, opts Options) *UI {
	ui := &UI{
		sess:    sess,
		in:      bufio.NewScanner(in),
		out:     out,
		log:     log,
		opts:    opts,
		brand:   color.New(color.FgBlue, color.Bold),
		maker:   color.New(color.FgGreen, color.Bold),
		heading: color.New(color.Bold),
		warn:    color.New(color.FgRed),
		faint:   color.New(color.Faint),
	}
	ui.in.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	if opts.NoColor {
		for _, c := range []*color.Color{ui.brand, ui.maker, ui.heading, ui.warn, ui.faint} {
			c.DisableColor()
		}
	}
	return ui
}

// Run loops until the negotiation ends, the user quits or input runs out. A
// read failure, such as a line over maxLineBytes, is returned.
func (ui *UI) Run(ctx context.Context) error {
	defer ui.writeReport()

	v, err := ui.sess.Apply(ctx, consult.Refresh(""))
	if err != nil {
		return err
	}
	ui.heading.Fprintf(ui.out, "%s\n", v.Title)
	ui.faint.Fprintf(ui.out, "(%s [카테고리]: 답변 기록, %s: 종료)\n", cmdLog, cmdQuit)

	lastAnswered := -1
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if v.Progress.Answered != lastAnswered {
			ui.renderProgress(v.Progress)
			lastAnswered = v.Progress.Answered
		}

		var (
			next consult.View
			done bool
		)
		if v.Screen == consult.ScreenQuestionnaire {
			next, done, err = ui.questionnaireStep(ctx, v)
		} else {
			next, done, err = ui.negotiationStep(ctx, v)
		}
		if done {
			if err := ui.in.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return nil
		}
		if err != nil {
			if fatal := ui.reportError(err); fatal != nil {
				return fatal
			}
			continue
		}
		v = next
	}
}

func (ui *UI) questionnaireStep(ctx context.Context, v consult.View) (consult.View, bool, error) {
	if v.Phase == questionnaire.PhaseAnswering {
		ui.heading.Fprintf(ui.out, "\n현재 카테고리: %s\n", v.Category)
		fmt.Fprintf(ui.out, "현재 질문: %s\n", v.Question)
		line, ok := ui.prompt("답변을 입력해주세요: ")
		if !ok {
			return v, true, nil
		}
		if handled, quit := ui.meta(ctx, line); quit || handled {
			return v, quit, nil
		}
		next, err := ui.sess.Apply(ctx, consult.SubmitAnswer(line))
		return next, false, err
	}

	line, ok := ui.prompt("다음 질문으로 넘어가시겠습니까? (y/n): ")
	if !ok {
		return v, true, nil
	}
	if handled, quit := ui.meta(ctx, line); quit || handled {
		return v, quit, nil
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		next, err := ui.sess.Apply(ctx, consult.Commit())
		if err == nil && next.Screen == consult.ScreenNegotiation {
			ui.heading.Fprintf(ui.out, "\n%s\n\n📊 MOQ 협상\n", next.Notice)
		}
		return next, false, err
	case "n", "no":
		next, err := ui.sess.Apply(ctx, consult.Redraft())
		if err != nil {
			return v, false, err
		}
		ui.bubble(ui.maker, "고객님", next.Staged)
		ui.bubble(ui.brand, "상담원 AI", next.Draft)
		return next, false, nil
	default:
		ui.warn.Fprintln(ui.out, "y 또는 n을 입력해주세요.")
		return v, false, nil
	}
}

func (ui *UI) negotiationStep(ctx context.Context, v consult.View) (consult.View, bool, error) {
	n := v.Negotiation
	if !n.Started {
		line, ok := ui.prompt(fmt.Sprintf("제조사 제시 MOQ (최소 %d, %d 단위): ", n.MinMOQ, n.MOQStep))
		if !ok {
			return v, true, nil
		}
		if handled, quit := ui.meta(ctx, line); quit || handled {
			return v, quit, nil
		}
		moq, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			return v, false, fmt.Errorf("%w: %q", negotiation.ErrInvalidMOQ, line)
		}
		next, err := ui.sess.Apply(ctx, consult.StartNegotiation(moq))
		if err == nil {
			ui.log.Info("terminal", "negotiation started", map[string]interface{}{"session_id": v.SessionID, "proposed_moq": moq})
			ui.renderMessages(next.Negotiation.Messages)
		}
		return next, false, err
	}

	line, ok := ui.prompt(fmt.Sprintf("제조사 답변을 입력하세요 (%s: 협상 종료): ", cmdEnd))
	if !ok {
		return v, true, nil
	}
	if strings.TrimSpace(line) == cmdEnd {
		next, err := ui.sess.Apply(ctx, consult.EndNegotiation())
		if err != nil {
			return v, false, err
		}
		ui.heading.Fprintln(ui.out, next.Notice)
		return next, true, nil
	}
	if handled, quit := ui.meta(ctx, line); quit || handled {
		return v, quit, nil
	}
	next, err := ui.sess.Apply(ctx, consult.SendMessage(line))
	if err == nil {
		ui.renderMessages(next.Negotiation.Messages)
	}
	return next, false, err
}

// meta handles /log and /quit.
func (ui *UI) meta(ctx context.Context, line string) (handled, quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, false
	}
	switch fields[0] {
	case cmdQuit:
		return true, true
	case cmdLog:
		filter := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), cmdLog))
		v, err := ui.sess.Apply(ctx, consult.Refresh(filter))
		if err != nil {
			ui.warn.Fprintf(ui.out, "%v (선택 가능: %s)\n", err, strings.Join(questionnaireFilters(ctx, ui.sess), ", "))
			return true, false
		}
		ui.renderLog(v.Log)
		return true, false
	}
	return false, false
}

func questionnaireFilters(ctx context.Context, sess *consult.Session) []string {
	v, err := sess.Apply(ctx, consult.Refresh(""))
	if err != nil {
		return nil
	}
	return v.LogFilters
}

func (ui *UI) prompt(label string) (string, bool) {
	fmt.Fprint(ui.out, label)
	if !ui.in.Scan() {
		fmt.Fprintln(ui.out)
		return "", false
	}
	return ui.in.Text(), true
}

// reportError prints recoverable errors and returns the ones that end the run.
func (ui *UI) reportError(err error) error {
	var perr *generator.ProviderError
	switch {
	case errors.As(err, &perr):
		ui.log.Error("terminal", "llm call failed", map[string]interface{}{"error": err})
		ui.warn.Fprintf(ui.out, "AI 응답을 가져오지 못했습니다: %v\n", err)
	case errors.Is(err, negotiation.ErrInvalidMOQ),
		errors.Is(err, negotiation.ErrEmptyMessage),
		errors.Is(err, questionnaire.ErrUnknownCategory):
		ui.warn.Fprintln(ui.out, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		ui.log.Error("terminal", "unexpected error", map[string]interface{}{"error": err})
		return err
	}
	return nil
}

func (ui *UI) renderProgress(p questionnaire.Progress) {
	fmt.Fprintln(ui.out)
	fmt.Fprintf(ui.out, "전체 진행률 %d%% | 답변 완료 %d개 | 남은 질문 %d개\n", p.Percent, p.Answered, p.Remaining)
	for _, c := range p.Categories {
		fmt.Fprintf(ui.out, "  %s %s %d/%d 완료\n", bar(c.Done, c.Total, 10), c.Name, c.Done, c.Total)
	}
}

func (ui *UI) renderLog(entries []questionnaire.LogEntry) {
	if len(entries) == 0 {
		ui.faint.Fprintln(ui.out, "아직 답변이 없습니다.")
		return
	}
	category := ""
	for _, e := range entries {
		if e.Category != category {
			category = e.Category
			ui.heading.Fprintf(ui.out, "### %s\n", category)
		}
		fmt.Fprintf(ui.out, "Q: %s\nA: %s\n", e.Question, e.Answer)
		if e.AIResponse != "" {
			fmt.Fprintf(ui.out, "AI: %s\n", e.AIResponse)
		}
		ui.faint.Fprintln(ui.out, "---")
	}
}

func (ui *UI) renderMessages(msgs []generator.Message) {
	for _, m := range msgs[ui.shownMessages:] {
		if m.Role == generator.RoleAssistant {
			ui.bubble(ui.brand, generator.BrandLabel+" 담당자", m.Content)
		} else {
			ui.bubble(ui.maker, generator.ManufacturerLabel, m.Content)
		}
	}
	ui.shownMessages = len(msgs)
}

func (ui *UI) bubble(c *color.Color, who, text string) {
	c.Fprintf(ui.out, "%s:\n", who)
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		fmt.Fprintf(ui.out, "  %s\n", strings.TrimSpace(line))
	}
}

func (ui *UI) writeReport() {
	if ui.opts.ReportPath == "" {
		return
	}
	page, err := report.HTML(ui.sess.Transcript())
	if err == nil {
		err = os.WriteFile(ui.opts.ReportPath, []byte(page), 0o644)
	}
	if err != nil {
		ui.log.Error("terminal", "report not written", map[string]interface{}{"path": ui.opts.ReportPath, "error": err})
		ui.warn.Fprintf(ui.out, "상담 기록을 저장하지 못했습니다: %v\n", err)
		return
	}
	fmt.Fprintf(ui.out, "상담 기록 저장: %s\n", ui.opts.ReportPath)
}

func bar(done, total, width int) string {
	if total <= 0 {
		return "[" + strings.Repeat(" ", width) + "]"
	}
	filled := done * width / total
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}
