package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"portfolio/libs/mailer"

	"github.com/gin-gonic/gin"
)

type contactSetting struct {
	Env   string
	Value string
}

func (a *App) contactHandler(c *gin.Context) {
	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusOK)
		return
	}
	if c.Request.Method != http.MethodPost {
		writeAPIError(c, &apiError{
			Status:  http.StatusMethodNotAllowed,
			Code:    "method_not_allowed",
			Message: fmt.Sprintf("Method %s not allowed", c.Request.Method),
		})
		return
	}

	log := a.requestLogger(c)

	sub, err := a.readSubmission(c)
	if err != nil {
		log.Warn("contact submission rejected", "err", err)
		writeAPIError(c, err)
		return
	}

	if err := a.checkContactConfig(); err != nil {
		log.Error("contact endpoint misconfigured", "err", err)
		writeAPIError(c, err)
		return
	}

	msg := a.buildContactEmail(sub)

	// Delivery runs to completion even if the browser goes away.
	ctx := context.WithoutCancel(c.Request.Context())
	result, err := a.mailer.Send(ctx, msg)
	if err != nil {
		var deliveryErr *mailer.DeliveryError
		if errors.As(err, &deliveryErr) {
			log.Error("contact email rejected by provider",
				"provider", deliveryErr.Provider,
				"status", deliveryErr.Status,
				"details", deliveryErr.Body,
			)
			writeAPIError(c, &apiError{
				Status:  http.StatusInternalServerError,
				Code:    "delivery_failed",
				Message: "Failed to send email",
				Details: map[string]any{
					"status":  deliveryErr.Status,
					"details": deliveryErr.Body,
				},
			})
			return
		}
		log.Error("failed to send contact email", "provider", a.mailer.ProviderName(), "err", err)
		writeAPIError(c, err)
		return
	}

	log.Info("contact email sent",
		"provider", a.mailer.ProviderName(),
		"message_id", result.ProviderMessageID,
		"fields_provided", len(sub.Fields),
	)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *App) readSubmission(c *gin.Context) (*Submission, error) {
	var src any
	if parsed, ok := c.Get(contactPayloadContextKey); ok {
		src = parsed
	} else if c.Request.Body != nil && c.Request.Body != http.NoBody {
		src = http.MaxBytesReader(c.Writer, c.Request.Body, a.cfg.MaxContactBodyBytes)
	}

	raw, err := decodeSubmissionPayload(src)
	if err != nil {
		return nil, err
	}
	return newSubmission(raw), nil
}

// contactSettings lists what the active provider needs, credential first.
func (a *App) contactSettings() []contactSetting {
	var settings []contactSetting
	switch a.cfg.MailerProvider {
	case "resend":
		settings = append(settings, contactSetting{Env: "RESEND_API_KEY", Value: a.cfg.ResendAPIKey})
	case "smtp":
		settings = append(settings, contactSetting{Env: "SMTP_HOST", Value: a.cfg.SMTPHost})
	}
	return append(settings, contactSetting{Env: "MY_EMAIL", Value: a.cfg.ContactEmailTo})
}

func (a *App) missingContactSetting() string {
	for _, setting := range a.contactSettings() {
		if strings.TrimSpace(setting.Value) == "" {
			return setting.Env
		}
	}
	return ""
}

func (a *App) checkContactConfig() error {
	missing := a.missingContactSetting()
	if missing == "" {
		return nil
	}
	return &apiError{
		Status:  http.StatusInternalServerError,
		Code:    "missing_" + strings.ToLower(missing),
		Message: fmt.Sprintf("Server misconfigured: %s is not configured", missing),
		Details: map[string]any{"missing": missing},
	}
}
