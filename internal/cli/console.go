package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joebot/relaybot/internal/channel"
)

// --- message types ---

type replyMsg struct {
	replies []string
	err     error
}

// --- console config ---

// ConsoleConfig holds what the console TUI needs to talk to the bot.
type ConsoleConfig struct {
	Console *channel.Console
	Handler channel.Handler
	User    string
	Model   string
}

type consoleEntry struct {
	role    string // "user", "bot", "quiet", "error"
	content string
}

// --- interactive console model ---

type consoleModel struct {
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	entries    []consoleEntry
	waiting    bool
	cancelFunc context.CancelFunc

	cfg ConsoleConfig
	ctx context.Context

	ready  bool
	width  int
	height int
}

func newSpinner() spinner.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(Accent)
	return sp
}

func newConsoleModel(ctx context.Context, cfg ConsoleConfig) consoleModel {
	ti := textinput.New()
	ti.Placeholder = "Say something to the bot..."
	ti.Focus()
	ti.CharLimit = 0
	ti.Prompt = "❯ "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(Accent)

	return consoleModel{
		input:   ti,
		spinner: newSpinner(),
		cfg:     cfg,
		ctx:     ctx,
	}
}

func (m consoleModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// header + divider + viewport + divider + input + status
		vpHeight := msg.Height - 5
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.input.Width = msg.Width - 4
		m.viewport.SetContent(m.renderEntries())
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.waiting {
				return m, nil
			}
			input := strings.TrimSpace(m.input.Value())
			if input == "" {
				return m, nil
			}
			if isExitCmd(input) {
				return m, tea.Quit
			}
			m.entries = append(m.entries, consoleEntry{role: "user", content: input})
			m.input.SetValue("")
			m.input.Blur()
			m.waiting = true
			msgCtx, cancel := context.WithCancel(m.ctx)
			m.cancelFunc = cancel
			m.viewport.SetContent(m.renderEntries())
			m.viewport.GotoBottom()
			return m, m.post(msgCtx, input)
		case tea.KeyEsc:
			if m.waiting && m.cancelFunc != nil {
				m.cancelFunc()
				m.cancelFunc = nil
			}
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case replyMsg:
		m.waiting = false
		m.cancelFunc = nil
		focusCmd := m.input.Focus()
		m.entries = append(m.entries, entriesFor(msg)...)
		m.viewport.SetContent(m.renderEntries())
		m.viewport.GotoBottom()
		return m, focusCmd

	case spinner.TickMsg:
		if m.waiting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if !m.waiting {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// entriesFor turns the outcome of one post into transcript entries. Each sent
// chunk becomes its own bot entry, as it would on Discord.
func entriesFor(msg replyMsg) []consoleEntry {
	var out []consoleEntry
	for _, r := range msg.replies {
		out = append(out, consoleEntry{role: "bot", content: r})
	}
	switch {
	case errors.Is(msg.err, context.Canceled):
		out = append(out, consoleEntry{role: "quiet", content: "[Interrupted]"})
	case msg.err != nil:
		out = append(out, consoleEntry{role: "error", content: msg.err.Error()})
	case len(msg.replies) == 0:
		out = append(out, consoleEntry{role: "quiet", content: "[no reply]"})
	}
	return out
}

func (m consoleModel) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	header := Title("console")
	divider := DimStyle.Render(strings.Repeat("─", m.width))

	var inputLine string
	if m.waiting {
		inputLine = fmt.Sprintf(" %s Waiting for the model... (Esc to stop)", m.spinner.View())
	} else {
		inputLine = " " + m.input.View()
	}

	return header + "\n" +
		divider + "\n" +
		m.viewport.View() + "\n" +
		divider + "\n" +
		inputLine + "\n" +
		m.renderStatusBar()
}

func (m consoleModel) renderEntries() string {
	if len(m.entries) == 0 {
		return m.renderWelcome()
	}

	var sb strings.Builder
	for _, e := range m.entries {
		sb.WriteString("\n")
		switch e.role {
		case "user":
			writeBlock(&sb, UserLabel.Render(m.cfg.User), e.content)
		case "bot":
			writeBlock(&sb, BotLabel.Render("relaybot"), e.content)
		case "quiet":
			sb.WriteString("  " + DimStyle.Render(e.content) + "\n")
		case "error":
			sb.WriteString("  " + ErrStyle.Render("Error: "+e.content) + "\n")
		}
	}
	return sb.String()
}

func writeBlock(sb *strings.Builder, label, content string) {
	sb.WriteString("  " + label + "\n")
	for _, line := range strings.Split(content, "\n") {
		sb.WriteString("  " + line + "\n")
	}
}

func (m consoleModel) renderWelcome() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString("  " + BoldStyle.Render("Every line you send mentions the bot directly.") + "\n")
	sb.WriteString(DimStyle.Render("  Replies go through the same history, prompt and chunking path as Discord.") + "\n")
	sb.WriteString(DimStyle.Render("  Type exit or press Ctrl+C to leave.") + "\n")
	return sb.String()
}

func (m consoleModel) renderStatusBar() string {
	left := DimStyle.Render(" " + channel.ConsoleChatID)
	right := DimStyle.Render(m.cfg.Model + " ")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m consoleModel) post(ctx context.Context, input string) tea.Cmd {
	return func() tea.Msg {
		replies, err := m.cfg.Console.Post(ctx, input, m.cfg.Handler)
		return replyMsg{replies: replies, err: err}
	}
}

func isExitCmd(s string) bool {
	s = strings.ToLower(s)
	return s == "exit" || s == "quit" || s == "/exit" || s == "/quit" || s == ":q"
}

// RunConsole starts the interactive console TUI.
func RunConsole(ctx context.Context, cfg ConsoleConfig) error {
	p := tea.NewProgram(newConsoleModel(ctx, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// --- single message model ---

type singleModel struct {
	spinner spinner.Model
	cfg     ConsoleConfig
	ctx     context.Context
	message string
	result  replyMsg
	done    bool
}

func (m singleModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			replies, err := m.cfg.Console.Post(m.ctx, m.message, m.cfg.Handler)
			return replyMsg{replies: replies, err: err}
		},
	)
}

func (m singleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case replyMsg:
		m.result = msg
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m singleModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("\n %s Processing...\n", m.spinner.View())
}

// RunSingleMessage posts one message with a spinner, then prints the replies.
func RunSingleMessage(ctx context.Context, cfg ConsoleConfig, message string) error {
	p := tea.NewProgram(singleModel{
		spinner: newSpinner(),
		cfg:     cfg,
		ctx:     ctx,
		message: message,
	})
	final, err := p.Run()
	if err != nil {
		return err
	}

	res := final.(singleModel).result
	fmt.Println()
	for _, r := range res.replies {
		fmt.Println("  " + BotLabel.Render("relaybot"))
		for _, line := range strings.Split(r, "\n") {
			fmt.Println("  " + line)
		}
		fmt.Println()
	}
	if res.err != nil {
		fmt.Println(ErrStyle.Render("  Error: " + res.err.Error()))
		fmt.Println()
		return res.err
	}
	if len(res.replies) == 0 {
		fmt.Println(DimStyle.Render("  [no reply]"))
		fmt.Println()
	}
	return nil
}
