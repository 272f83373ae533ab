package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"

	"github.com/goliatone/go-jumpgate/internal/provision"
)

type printer struct {
	out     io.Writer
	success *color.Color
	info    *color.Color
	warn    *color.Color
	fail    *color.Color
}

func newPrinter(out io.Writer) *printer {
	return &printer{
		out:     out,
		success: color.New(color.FgGreen, color.Bold),
		info:    color.New(color.FgCyan),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed, color.Bold),
	}
}

func (p *printer) successf(format string, args ...any) {
	p.success.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) infof(format string, args ...any) {
	p.info.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) warnf(format string, args ...any) {
	p.warn.Fprintf(p.out, format+"\n", args...)
}

// failure prints the user-facing message of err. Installer failures carry
// their own message; everything else prints the error chain.
func (p *printer) failure(err error) {
	var stepErr *provision.Error
	if errors.As(err, &stepErr) {
		p.fail.Fprintf(p.out, "Jumpgate script failed with the following error: %s\n", stepErr.Message)
		return
	}
	p.fail.Fprintf(p.out, "Error: %v\n", err)
}

func surveySecret(message string) (string, error) {
	var value string
	prompt := &survey.Password{Message: message}
	if err := survey.AskOne(prompt, &value, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// secretOrPrompt returns value, asking for it when it is blank.
func secretOrPrompt(value, message string) (string, error) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed, nil
	}
	answer, err := promptSecret(message)
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	return answer, nil
}
