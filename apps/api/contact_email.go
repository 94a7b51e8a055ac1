package main

import (
	"fmt"
	"html"
	"net/mail"
	"strings"

	"portfolio/libs/mailer"
)

const (
	contactSubject   = "New Contact Form Submission"
	notProvidedValue = "Not provided"
)

func (a *App) buildContactEmail(sub *Submission) mailer.Message {
	replyTo := a.mailer.FromAddress()
	if addr, err := mail.ParseAddress(sub.ContactEmail()); err == nil {
		replyTo = addr.Address
	}

	var body, text strings.Builder
	body.WriteString(`<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto; line-height: 1.6; color: #333;">` + "\n")
	fmt.Fprintf(&body, "<h2>%s</h2>\n", contactSubject)
	fmt.Fprintf(&text, "%s\n\n", contactSubject)

	for _, field := range contactFields {
		value, ok := sub.Value(field.Key)
		if !ok {
			value = notProvidedValue
		}
		fmt.Fprintf(&body, "<p>%s: %s</p>\n", field.Label, html.EscapeString(value))
		fmt.Fprintf(&text, "%s: %s\n", field.Label, value)
	}
	body.WriteString("</div>\n")

	return mailer.Message{
		To:      []string{a.cfg.ContactEmailTo},
		ReplyTo: replyTo,
		Subject: contactSubject,
		HTML:    body.String(),
		Text:    text.String(),
	}
}
