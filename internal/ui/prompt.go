package ui

import (
	stderrors "errors"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrCancelled is returned when the user interrupts a prompt
var ErrCancelled = stderrors.New("cancelled by user")

// Prompter asks the user for values
type Prompter interface {
	Input(message, defaultValue, help string) (string, error)
	Password(message, help string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
}

// SurveyPrompter prompts on a terminal
type SurveyPrompter struct {
	in  terminal.FileReader
	out terminal.FileWriter
	err io.Writer
}

// NewSurveyPrompter creates a prompter bound to the process's terminal
func NewSurveyPrompter() *SurveyPrompter {
	return &SurveyPrompter{in: os.Stdin, out: os.Stdout, err: os.Stderr}
}

// Input displays a text input prompt. Empty answers are rejected.
func (p *SurveyPrompter) Input(message, defaultValue, help string) (string, error) {
	var result string
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
		Help:    help,
	}
	err := survey.AskOne(prompt, &result, p.opts(survey.WithValidator(survey.Required))...)
	return result, interrupted(err)
}

// Password displays a masked input prompt. Empty answers are rejected.
func (p *SurveyPrompter) Password(message, help string) (string, error) {
	var result string
	prompt := &survey.Password{
		Message: message,
		Help:    help,
	}
	err := survey.AskOne(prompt, &result, p.opts(survey.WithValidator(survey.Required))...)
	return result, interrupted(err)
}

// Confirm displays a yes/no prompt
func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	err := survey.AskOne(prompt, &result, p.opts()...)
	return result, interrupted(err)
}

func (p *SurveyPrompter) opts(extra ...survey.AskOpt) []survey.AskOpt {
	return append([]survey.AskOpt{survey.WithStdio(p.in, p.out, p.err)}, extra...)
}

func interrupted(err error) error {
	if err == terminal.InterruptErr {
		return ErrCancelled
	}
	return err
}
