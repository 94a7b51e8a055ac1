package main

import (
	"errors"
	"fmt"
	"strings"

	"portfolio/libs/contactform"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

var goalOptions = []string{"Speed", "SEO", "Leads", "Online Sales", "Brand Awareness", "Redesign"}

var requiredFields = map[string]bool{
	"Full Name / Company": true,
	"Email":               true,
}

var errAborted = errors.New("aborted")

// promptMissing asks for every known field that is still empty.
func promptMissing(cfg *contactform.Config) error {
	if cfg.Fields == nil {
		cfg.Fields = make(map[string]string)
	}

	for _, name := range contactform.FieldNames {
		if strings.TrimSpace(cfg.Fields[name]) != "" {
			continue
		}

		var answer string
		var opts []survey.AskOpt
		if requiredFields[name] {
			opts = append(opts, survey.WithValidator(survey.Required))
		}

		var prompt survey.Prompt = &survey.Input{Message: name + ":"}
		if name == "Notes" || name == "Business Description" {
			prompt = &survey.Multiline{Message: name + ":"}
		}
		if err := survey.AskOne(prompt, &answer, opts...); err != nil {
			return promptError(err)
		}
		if answer = strings.TrimSpace(answer); answer != "" {
			cfg.Fields[name] = answer
		}
	}

	if len(cfg.Goals) == 0 {
		var picked []string
		prompt := &survey.MultiSelect{
			Message: "Goals:",
			Options: goalOptions,
		}
		if err := survey.AskOne(prompt, &picked); err != nil {
			return promptError(err)
		}
		cfg.Goals = picked
	}
	return nil
}

func promptError(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return fmt.Errorf("prompt: %w", err)
}
