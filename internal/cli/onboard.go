package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joebot/relaybot/internal/config"
)

// --- onboard selection model ---

type onboardChoice int

const (
	choiceUpgrade onboardChoice = iota
	choiceOverwrite
	choiceSkip
)

type onboardModel struct {
	path    string
	choices []string
	cursor  int
	chosen  bool
	choice  onboardChoice
}

func (m onboardModel) Init() tea.Cmd { return nil }

func (m onboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyCtrlC:
			m.choice = choiceSkip
			m.chosen = true
			return m, tea.Quit
		case tea.KeyUp, tea.KeyShiftTab:
			if m.cursor > 0 {
				m.cursor--
			}
		case tea.KeyDown, tea.KeyTab:
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}
		case tea.KeyEnter:
			m.choice = onboardChoice(m.cursor)
			m.chosen = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m onboardModel) View() string {
	if m.chosen {
		return ""
	}

	s := "\n"
	s += fmt.Sprintf("  %s already exists\n\n", DimStyle.Render(m.path))
	for i, choice := range m.choices {
		cursor := "  "
		if i == m.cursor {
			cursor = BotLabel.Render("❯ ")
		}
		s += "  " + cursor + choice + "\n"
	}
	s += "\n" + DimStyle.Render("  ↑/↓ navigate · enter select · ctrl+c cancel") + "\n"
	return s
}

// RunOnboard writes a starter .env file, or upgrades an existing one.
func RunOnboard() error {
	path := config.DotEnvPath

	fmt.Println()
	fmt.Println(Title("Onboard"))

	if !fileExists(path) {
		if err := config.WriteDotEnv(path); err != nil {
			return err
		}
		fmt.Println()
		fmt.Println("  " + OkStyle.Render("✓") + " Created " + DimStyle.Render(path))
		printNextSteps()
		return nil
	}

	final, err := tea.NewProgram(onboardModel{
		path: path,
		choices: []string{
			"Upgrade — add missing variables, keep existing values",
			"Overwrite — replace with fresh defaults",
			"Skip — do not modify " + path,
		},
	}).Run()
	if err != nil {
		return err
	}

	fmt.Println()
	switch final.(onboardModel).choice {
	case choiceUpgrade:
		added, err := config.UpgradeDotEnv(path)
		if err != nil {
			return err
		}
		fmt.Printf("  %s Upgraded %s %s\n", OkStyle.Render("✓"), path, DimStyle.Render(fmt.Sprintf("(%d added)", added)))
	case choiceOverwrite:
		if err := os.Rename(path, path+".bak"); err != nil {
			return fmt.Errorf("back up %s: %w", path, err)
		}
		if err := config.WriteDotEnv(path); err != nil {
			return err
		}
		fmt.Println("  " + OkStyle.Render("✓") + " Overwrote " + path + DimStyle.Render(" (previous file kept as "+path+".bak)"))
	default:
		fmt.Println("  " + DimStyle.Render(path+" unchanged"))
	}
	printNextSteps()
	return nil
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(DimStyle.Render("  Next steps:"))
	fmt.Println(DimStyle.Render("  1. Set DISCORD_TOKEN and the LLM_* variables in .env"))
	fmt.Println(DimStyle.Render("  2. Try it locally: relaybot console -m \"Hello!\""))
	fmt.Println(DimStyle.Render("  3. Go live: relaybot run"))
	fmt.Println()
}
