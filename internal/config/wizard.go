package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Wizard provides an interactive configuration wizard
type Wizard struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewWizard creates a new configuration wizard reading answers from in and
// writing prompts to out.
func NewWizard(in io.Reader, out io.Writer) *Wizard {
	return &Wizard{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Run runs the interactive configuration wizard. Empty answers keep the
// default shown in brackets.
func (w *Wizard) Run() (*Config, error) {
	fmt.Fprintln(w.out, "=== Prompt Optimiser Configuration ===")
	fmt.Fprintln(w.out)

	cfg := DefaultConfig()
	validator := NewValidator()

	name, err := w.ask("Server name", cfg.Server.Name)
	if err != nil {
		return nil, err
	}
	if err := validator.ValidateServerName(name); err == nil {
		cfg.Server.Name = name
	}

	level, err := w.ask("Log level (debug, info, warn, error)", cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	if err := validator.ValidateLogLevel(level); err != nil {
		fmt.Fprintf(w.out, "Warning: %v, using default (%s)\n", err, cfg.Logging.Level)
	} else {
		cfg.Logging.Level = level
	}

	file, err := w.ask("Log file (empty for stderr only)", cfg.Logging.File)
	if err != nil {
		return nil, err
	}
	cfg.Logging.File = file

	for {
		answer, err := w.ask("Max prompt length (0 for unlimited)", strconv.Itoa(cfg.Tools.MaxPromptLength))
		if err != nil {
			return nil, err
		}
		limit, convErr := strconv.Atoi(answer)
		if convErr == nil {
			convErr = validator.ValidateMaxPromptLength(limit)
		}
		if convErr != nil {
			fmt.Fprintf(w.out, "Error: %v\n", convErr)
			continue
		}
		cfg.Tools.MaxPromptLength = limit
		break
	}

	disabled, err := w.ask("Disabled tools (comma separated)", "")
	if err != nil {
		return nil, err
	}
	for _, name := range strings.Split(disabled, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if err := validator.ValidateToolName(name); err != nil {
			fmt.Fprintf(w.out, "Warning: %v, ignored\n", err)
			continue
		}
		cfg.Tools.Disabled = append(cfg.Tools.Disabled, name)
	}

	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, "Configuration complete!")

	return cfg, nil
}

func (w *Wizard) ask(question, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(w.out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(w.out, "%s: ", question)
	}

	answer, err := w.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

func (w *Wizard) readLine() (string, error) {
	line, err := w.reader.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
