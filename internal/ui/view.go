package ui

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"
)

type applyMsg struct {
	fn func(*Root)
}

type clockMsg time.Time
type animateMsg time.Time

const maxLogLines = 5000

type shellKeyMap struct {
	Convert key.Binding
	About   key.Binding
	Back    key.Binding
	Quit    key.Binding
}

func (k shellKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Convert, k.About, k.Back, k.Quit}
}

func (k shellKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Convert, k.About}, {k.Back, k.Quit}}
}

// Focus targets on the setup form.
const (
	focusInput = iota
	focusOutput
	focusConvert
	focusCount
)

// Root is the single Bubble Tea model for the shell. Model state is only
// mutated on the UI loop; cross-goroutine updates arrive as applyMsg via
// program.Send (see apply).
type Root struct {
	theme        Theme
	ascii        bool
	debug        bool
	styleVariant string
	notice       string

	mu      sync.Mutex
	program *tea.Program
	running bool

	ctrl Controller

	screen Screen
	layout LayoutMode
	cols   int
	rows   int

	inputField  textinput.Model
	outputField textinput.Model
	focus       int

	phase     Phase
	startedAt time.Time

	logLines []string
	follow   bool
	logView  viewport.Model

	setup        SetupState
	result       ResultState
	aboutOpen    bool
	aboutText    string
	setupMsg     string
	setupDetails string
	statusFlash  string
	flashTTL     int

	help     help.Model
	keymap   shellKeyMap
	spin     spinner.Model
	markdown *glamour.TermRenderer
	logger   *clog.Logger

	spring     harmonica.Spring
	overlayPos float64
	overlayVel float64
}

type Options struct {
	ASCIIOnly    bool
	Debug        bool
	StyleVariant string
	Notice       string
}

func New(opts Options) *Root {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "cwpdf-ui", Level: clog.WarnLevel})
	if opts.Debug {
		logger.SetLevel(clog.DebugLevel)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(70),
	)
	if err != nil {
		renderer = nil
	}

	theme := ThemeForVariant(opts.StyleVariant)

	h := help.New()
	h.Styles = help.DefaultDarkStyles()

	inputField := textinput.New()
	inputField.Placeholder = "/path/to/export.json  (or drop a file here)"
	inputField.CharLimit = 4096
	inputField.Focus()

	outputField := textinput.New()
	outputField.Placeholder = "output folder (created if missing)"
	outputField.CharLimit = 4096

	spin := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(theme.Accent),
	)

	r := &Root{
		theme:        theme,
		ascii:        opts.ASCIIOnly,
		debug:        opts.Debug,
		styleVariant: opts.StyleVariant,
		notice:       opts.Notice,
		screen:       ScreenSetup,
		layout:       LayoutWide,
		cols:         100,
		rows:         30,
		inputField:   inputField,
		outputField:  outputField,
		follow:       true,
		logView:      viewport.New(viewport.WithWidth(96), viewport.WithHeight(24)),
		help:         h,
		spin:         spin,
		markdown:     renderer,
		logger:       logger,
		spring:       harmonica.NewSpring(harmonica.FPS(60), 10.0, 0.8),
	}
	r.keymap = shellKeyMap{
		Convert: key.NewBinding(key.WithKeys("f5"), key.WithHelp("F5", "Convert")),
		About:   key.NewBinding(key.WithKeys("f2"), key.WithHelp("F2", "About")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "Back")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+q"), key.WithHelp("Ctrl+Q", "Quit")),
	}
	return r
}

func (r *Root) Init() tea.Cmd {
	return tea.Batch(clockTickCmd(), spinnerTickCmd(r.spin))
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout = DetermineLayoutMode(r.cols, r.rows)
		r.resize()
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, r.animateIfNeeded()
	case clockMsg:
		if r.flashTTL > 0 {
			r.flashTTL--
			if r.flashTTL == 0 {
				r.statusFlash = ""
			}
		}
		return r, clockTickCmd()
	case animateMsg:
		target := 0.0
		if r.result.Visible {
			target = 1.0
		}
		r.overlayPos, r.overlayVel = r.spring.Update(r.overlayPos, r.overlayVel, target)
		if r.shouldAnimate(target) {
			return r, animateTickCmd()
		}
		r.overlayPos = target
		r.overlayVel = 0
		return r, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.spin, cmd = r.spin.Update(msg)
		return r, cmd
	case tea.PasteMsg:
		return r.handlePaste(msg)
	case tea.ClipboardMsg:
		return r.handlePaste(tea.PasteMsg{Content: msg.Content})
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	return r, nil
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec)
			width := max(1, r.cols)
			view = tea.NewView(r.theme.Fail.Width(width).Render(trimForWidth("UI recovered from a rendering panic. Check logs.", max(1, width-1))))
		}
	}()

	if r.cols < 1 {
		r.cols = 100
	}
	if r.rows < 1 {
		r.rows = 30
	}

	var base string
	if r.layout == LayoutTooSmall {
		base = r.renderTooSmall()
	} else {
		switch r.screen {
		case ScreenSetup:
			base = r.renderSetup()
		default:
			base = r.renderRunning()
		}
	}

	if r.aboutOpen {
		base = composeOverlay(base, r.renderAbout(), r.cols, r.rows, 0)
	} else if r.result.Visible {
		// Slide the dialog in from slightly above its resting spot.
		shift := int((1 - r.overlayPos) * 4)
		base = composeOverlay(base, r.renderResult(), r.cols, r.rows, -shift)
	}

	v := tea.NewView(base)
	v.AltScreen = true
	return v
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

// apply funnels every cross-goroutine mutation through the program's message
// queue so the model is only ever touched on the UI loop.
func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	ctrl := r.ctrl
	go fn(ctrl)
}

func (r *Root) SetScreen(screen Screen) {
	r.apply(func(m *Root) {
		m.screen = screen
		if screen == ScreenSetup {
			m.statusFlash = ""
			m.flashTTL = 0
		}
	})
}

func (r *Root) SetSetup(state SetupState) {
	r.apply(func(m *Root) {
		m.setup = state
		if state.InputPath != "" && m.inputField.Value() == "" {
			m.inputField.SetValue(state.InputPath)
		}
		if state.OutputDir != "" && m.outputField.Value() == "" {
			m.outputField.SetValue(state.OutputDir)
		}
	})
}

func (r *Root) SetPhase(phase Phase) {
	r.apply(func(m *Root) {
		m.phase = phase
		if phase == PhaseProbing {
			m.startedAt = time.Now()
		}
	})
}

func (r *Root) AppendLog(stream Stream, line string) {
	r.apply(func(m *Root) {
		m.logLines = append(m.logLines, m.styleLogLine(stream, line))
		if len(m.logLines) > maxLogLines {
			m.logLines = append([]string(nil), m.logLines[len(m.logLines)-maxLogLines/2:]...)
		}
		m.syncLogView()
	})
}

func (r *Root) ClearLog() {
	r.apply(func(m *Root) {
		m.logLines = nil
		m.follow = true
		m.logView.SetContent("")
	})
}

func (r *Root) SetResult(state ResultState) {
	r.apply(func(m *Root) {
		m.result = state
	})
}

func (r *Root) SetSetupError(msg, details string) {
	r.apply(func(m *Root) {
		m.setupMsg = msg
		m.setupDetails = details
		m.screen = ScreenSetup
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(m *Root) {
		m.setFlash(msg)
	})
}

// flashTicks is how many clock ticks a status flash stays visible.
const flashTicks = 4

func (r *Root) setFlash(msg string) {
	r.statusFlash = msg
	r.flashTTL = flashTicks
}

func (r *Root) styleLogLine(stream Stream, line string) string {
	switch stream {
	case StreamStderr:
		return r.theme.StderrLine.Render(line)
	case StreamShell:
		return r.theme.Muted.Render("› " + line)
	default:
		return line
	}
}

func (r *Root) syncLogView() {
	r.logView.SetContent(strings.Join(r.logLines, "\n"))
	if r.follow {
		r.logView.GotoBottom()
	}
}

func (r *Root) resize() {
	innerW := max(20, r.cols-4)
	r.inputField.SetWidth(max(10, innerW-4))
	r.outputField.SetWidth(max(10, innerW-4))
	r.logView.SetWidth(innerW)
	r.logView.SetHeight(max(3, r.rows-5))
	r.syncLogView()
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, r.keymap.Quit) {
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}

	if r.aboutOpen {
		if msg.Code == tea.KeyEsc || msg.Code == tea.KeyEnter ||
			msg.Code == tea.KeyF2 || msg.Code == 'q' {
			r.aboutOpen = false
		}
		return r, nil
	}

	if r.result.Visible {
		switch msg.Code {
		case tea.KeyEnter:
			r.result.Visible = false
			r.dispatchController(func(c Controller) { c.OnBackToSetup() })
			return r, r.animateIfNeeded()
		case tea.KeyEsc:
			// Keep the log on screen for diagnosis.
			r.result.Visible = false
			return r, r.animateIfNeeded()
		}
		return r, nil
	}

	if key.Matches(msg, r.keymap.About) {
		r.aboutOpen = true
		return r, nil
	}

	switch r.screen {
	case ScreenSetup:
		return r.handleSetupKey(msg)
	default:
		return r.handleRunningKey(msg)
	}
}

func (r *Root) handleSetupKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, r.keymap.Convert) {
		r.startRun()
		return r, nil
	}

	if msg.Code == tea.KeyTab && msg.Mod&tea.ModShift != 0 {
		r.setFocus(wrapIndex(r.focus-1, focusCount))
		return r, nil
	}

	switch msg.Code {
	case tea.KeyTab, tea.KeyDown:
		r.setFocus(wrapIndex(r.focus+1, focusCount))
		return r, nil
	case tea.KeyUp:
		r.setFocus(wrapIndex(r.focus-1, focusCount))
		return r, nil
	case tea.KeyEnter:
		if r.focus == focusConvert {
			r.startRun()
		} else {
			r.setFocus(r.focus + 1)
		}
		return r, nil
	}

	var cmd tea.Cmd
	switch r.focus {
	case focusInput:
		r.inputField, cmd = r.inputField.Update(msg)
	case focusOutput:
		r.outputField, cmd = r.outputField.Update(msg)
	}
	return r, cmd
}

func (r *Root) handleRunningKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Code {
	case tea.KeyEsc:
		if r.phase.Terminal() {
			r.dispatchController(func(c Controller) { c.OnBackToSetup() })
		} else {
			r.setFlash("Conversion runs to completion; no cancel")
		}
		return r, nil
	case tea.KeyEnd:
		r.follow = true
		r.logView.GotoBottom()
		return r, nil
	}

	var cmd tea.Cmd
	r.logView, cmd = r.logView.Update(msg)
	r.follow = r.logView.AtBottom()
	return r, cmd
}

func (r *Root) handlePaste(msg tea.PasteMsg) (tea.Model, tea.Cmd) {
	if r.screen != ScreenSetup || r.aboutOpen || r.result.Visible {
		return r, nil
	}
	path := SanitizePastedPath(msg.Content)
	if path == "" {
		return r, nil
	}
	// A dropped file lands in whichever path field has focus; the button
	// counts as the input field so drag-and-drop works from anywhere.
	if r.focus == focusOutput {
		r.outputField.SetValue(path)
		r.outputField.CursorEnd()
	} else {
		r.inputField.SetValue(path)
		r.inputField.CursorEnd()
	}
	r.setFlash("Path pasted")
	return r, nil
}

func (r *Root) setFocus(focus int) {
	r.focus = wrapIndex(focus, focusCount)
	if r.focus == focusInput {
		r.inputField.Focus()
	} else {
		r.inputField.Blur()
	}
	if r.focus == focusOutput {
		r.outputField.Focus()
	} else {
		r.outputField.Blur()
	}
}

func (r *Root) startRun() {
	input := strings.TrimSpace(r.inputField.Value())
	output := strings.TrimSpace(r.outputField.Value())
	r.setupMsg = ""
	r.setupDetails = ""
	r.dispatchController(func(c Controller) { c.OnRun(input, output) })
}

func (r *Root) renderSetup() string {
	w := r.cols
	header := r.theme.Header.Width(max(1, w)).Render("cwpdf — ConnectWise export to PDF")

	formLines := []string{
		r.theme.FieldLabel.Render("Input export JSON"),
		"  " + r.inputField.View(),
		"",
		r.theme.FieldLabel.Render("Output folder"),
		"  " + r.outputField.View(),
		"",
		r.convertButton(),
	}
	formW := w
	if r.layout == LayoutWide {
		formW = w - 34
	}
	form := r.drawPanel("Conversion", formLines, max(40, formW), 11)

	info := r.sessionLines()
	body := form
	if r.layout == LayoutWide {
		side := r.drawPanel("Session", info, 34, 11)
		body = lipgloss.JoinHorizontal(lipgloss.Top, form, side)
	} else {
		body += "\n" + r.drawPanel("Session", info, w, len(info)+2)
	}

	if r.setupMsg != "" {
		lines := []string{r.theme.Fail.Render(r.setupMsg)}
		for _, l := range strings.Split(strings.TrimSpace(r.setupDetails), "\n") {
			if l != "" {
				lines = append(lines, l)
			}
		}
		body += "\n" + r.drawPanel("Problem", lines, min(100, w), len(lines)+2)
	}

	return header + "\n" + body + "\n" + r.statusBar()
}

func (r *Root) convertButton() string {
	label := "[ Convert ]"
	if r.focus == focusConvert {
		return "  " + r.theme.Accent.Render("> "+label)
	}
	return "    " + label
}

func (r *Root) sessionLines() []string {
	lines := []string{
		r.theme.PanelTitle.Render("Interpreters"),
		"  " + strings.Join(r.setup.Candidates, ", "),
		"",
	}
	if r.setup.LastRun != "" {
		lines = append(lines, r.theme.PanelTitle.Render("Last run"), "  "+r.setup.LastRun, "")
	}
	if r.setup.Totals != "" {
		lines = append(lines, r.theme.PanelTitle.Render("Lifetime"), "  "+r.setup.Totals)
	}
	return lines
}

func (r *Root) renderRunning() string {
	w := r.cols
	header := r.theme.Header.Width(max(1, w)).Render("cwpdf — converting")
	panel := r.drawPanel("Conversion log", strings.Split(r.logView.View(), "\n"), w, max(5, r.rows-3))
	return header + "\n" + panel + "\n" + r.statusBar()
}

func (r *Root) renderTooSmall() string {
	msg := fmt.Sprintf("Terminal too small (%dx%d). Need at least 60x18.", r.cols, r.rows)
	return lipgloss.Place(max(1, r.cols), max(1, r.rows), lipgloss.Center, lipgloss.Center, r.theme.Pending.Render(msg))
}

func (r *Root) renderAbout() string {
	if r.aboutText == "" {
		r.aboutText = r.notice
		if r.markdown != nil {
			if out, err := r.markdown.Render(r.notice); err == nil {
				r.aboutText = out
			}
		}
	}
	body := strings.TrimRight(r.aboutText, "\n")
	return r.theme.Overlay.Render(r.theme.OverlayTitle.Render("About") + "\n\n" + body + "\n\n" + r.theme.Muted.Render("Esc to close"))
}

func (r *Root) renderResult() string {
	var title string
	switch r.result.Outcome {
	case OutcomeSuccess:
		title = r.theme.Pass.Render("Conversion complete")
	case OutcomeNonZeroExit:
		title = r.theme.Fail.Render(fmt.Sprintf("Conversion failed (exit %d)", r.result.ExitCode))
	case OutcomeLaunchFailure:
		title = r.theme.Fail.Render("Could not start the conversion")
	case OutcomeNoInterpreter:
		title = r.theme.Fail.Render("No usable Python interpreter")
	default:
		title = r.theme.Fail.Render("Conversion failed unexpectedly")
	}

	lines := []string{title, ""}
	if r.result.Message != "" {
		lines = append(lines, r.result.Message, "")
	}
	if r.result.Outcome == OutcomeSuccess || r.result.Outcome == OutcomeNonZeroExit {
		lines = append(lines, fmt.Sprintf("PDFs generated:  %d", r.result.PDFs))
		if r.result.Skipped > 0 {
			lines = append(lines, fmt.Sprintf("Fragments skipped: %d", r.result.Skipped))
		}
		if r.result.ParseErrors > 0 {
			lines = append(lines, fmt.Sprintf("Parse errors:    %d", r.result.ParseErrors))
		}
		lines = append(lines, fmt.Sprintf("Elapsed:         %s", formatElapsed(r.result.Elapsed)))
	}
	lines = append(lines, "", r.theme.Muted.Render("Enter: back to setup   Esc: inspect log"))
	return r.theme.Overlay.Render(strings.Join(lines, "\n"))
}

func (r *Root) statusBar() string {
	w := max(1, r.cols)
	left := r.phase.Label()
	if r.phase == PhaseStreaming || r.phase == PhaseProbing || r.phase == PhaseLaunched {
		left = r.spin.View() + " " + left
		if !r.startedAt.IsZero() {
			left += " " + r.theme.Muted.Render(formatElapsed(time.Since(r.startedAt)))
		}
	}
	if r.statusFlash != "" {
		left += "  " + r.theme.Pending.Render(r.statusFlash)
	}
	bar := left + "  " + r.help.View(r.keymap)
	return r.theme.Status.Width(w).Render(trimForWidth(bar, max(1, w-2)))
}

func (r *Root) drawPanel(title string, lines []string, width, height int) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2

	h := "─"
	v := "│"
	tl := "┌"
	tr := "┐"
	bl := "└"
	br := "┘"
	if r.ascii {
		h = "-"
		v = "|"
		tl, tr, bl, br = "+", "+", "+", "+"
	}

	top := tl + strings.Repeat(h, innerW) + tr
	if title != "" && innerW > 2 {
		t := " " + title + " "
		runes := []rune(top)
		start := 1
		for i, ch := range []rune(t) {
			pos := start + i
			if pos >= len(runes)-1 {
				break
			}
			runes[pos] = ch
		}
		top = string(runes)
	}

	out := make([]string, 0, height)
	out = append(out, r.theme.PanelBorder.Render(top))
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		line = r.theme.PanelBody.Render(padANSI(line, innerW))
		out = append(out, r.theme.PanelBorder.Render(v)+line+r.theme.PanelBorder.Render(v))
	}
	out = append(out, r.theme.PanelBorder.Render(bl+strings.Repeat(h, innerW)+br))
	return strings.Join(out, "\n")
}

func (r *Root) onModelPanic(where string, rec any) {
	r.logger.Error("model panic", "where", where, "panic", fmt.Sprint(rec), "stack", string(debug.Stack()))
	r.setFlash("Recovered UI panic")
}

func (r *Root) animateIfNeeded() tea.Cmd {
	target := 0.0
	if r.result.Visible {
		target = 1.0
	}
	if r.shouldAnimate(target) {
		return animateTickCmd()
	}
	return nil
}

func (r *Root) shouldAnimate(target float64) bool {
	if target > 0 {
		return r.overlayPos < 0.999 || abs(r.overlayVel) > 0.001
	}
	return r.overlayPos > 0.001 || abs(r.overlayVel) > 0.001
}

// SanitizePastedPath turns terminal drag-and-drop payloads into a plain
// filesystem path: quotes stripped, file:// URLs unwrapped, extra lines
// dropped.
func SanitizePastedPath(content string) string {
	s := strings.TrimSpace(content)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	s = strings.Trim(s, `"'`)
	s = strings.TrimPrefix(s, "file://")
	return strings.TrimSpace(s)
}

func clockTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return clockMsg(t) })
}

func animateTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return animateMsg(t) })
}

func spinnerTickCmd(model spinner.Model) tea.Cmd {
	return func() tea.Msg {
		return model.Tick()
	}
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}

func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 0 {
		i = n - 1
	}
	if i >= n {
		i = 0
	}
	return i
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func padRune(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(s, "\t", "    "))
	if len(r) > width {
		r = r[:width]
	}
	if len(r) < width {
		r = append(r, []rune(strings.Repeat(" ", width-len(r)))...)
	}
	return string(r)
}

// padANSI pads or trims a possibly styled line to the given display width.
func padANSI(s string, width int) string {
	if width <= 0 {
		return ""
	}
	w := ansi.StringWidth(s)
	if w > width {
		return ansi.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-w)
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(ansi.Strip(s), "\n", " "))
	if len(r) <= width {
		return string(r)
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

// composeOverlay centers overlay on base, shifting it rowShift rows from
// center. Styling is stripped so rune-level composition stays aligned.
func composeOverlay(base, overlay string, cols, rows, rowShift int) string {
	if cols <= 0 || rows <= 0 {
		return base
	}
	base = ansi.Strip(base)
	overlay = ansi.Strip(overlay)
	baseLines := strings.Split(base, "\n")
	if len(baseLines) < rows {
		pad := make([]string, rows-len(baseLines))
		baseLines = append(baseLines, pad...)
	}
	for i := 0; i < rows; i++ {
		baseLines[i] = padRune(baseLines[i], cols)
	}

	overlayLines := strings.Split(strings.TrimRight(overlay, "\n"), "\n")
	if len(overlayLines) == 0 {
		return strings.Join(baseLines[:rows], "\n")
	}
	ow := 1
	for _, line := range overlayLines {
		if lw := len([]rune(line)); lw > ow {
			ow = lw
		}
	}
	if ow > cols {
		ow = cols
	}
	oh := len(overlayLines)
	if oh > rows {
		oh = rows
	}
	startRow := (rows-oh)/2 + rowShift
	startCol := (cols - ow) / 2
	if startCol < 0 {
		startCol = 0
	}

	for i := 0; i < oh; i++ {
		row := startRow + i
		if row < 0 || row >= rows {
			continue
		}
		dst := []rune(baseLines[row])
		src := []rune(overlayLines[i])
		if len(src) > ow {
			src = src[:ow]
		}
		for j := 0; j < ow && startCol+j < len(dst); j++ {
			dst[startCol+j] = ' '
		}
		for j := 0; j < len(src) && startCol+j < len(dst); j++ {
			dst[startCol+j] = src[j]
		}
		baseLines[row] = string(dst)
	}
	return strings.Join(baseLines[:rows], "\n")
}
