package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"portfolio/libs/mailer"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultContactPath         = "/api/contact"
	defaultMaxContactBodyBytes = 64 * 1024
	defaultSMTPPort            = 587
	requestIDHeader            = "X-Request-ID"
	requestIDContextKey        = "requestID"
	trustedProxyLoopbackIPv4   = "127.0.0.1"
	trustedProxyLoopbackIPv6   = "::1"
)

var mailerProviders = []string{"resend", "smtp", "log"}

type Config struct {
	Addr                string
	Env                 string
	ContactPath         string
	StaticRoot          string
	MaxContactBodyBytes int64
	MailerProvider      string
	ResendAPIKey        string
	ResendBaseURL       *url.URL
	ContactEmailTo      string
	SMTPHost            string
	SMTPPort            int
	SMTPUsername        string
	SMTPPassword        string
	MailerFromAddresses map[string]string
}

type App struct {
	cfg    *Config
	log    *slog.Logger
	mailer *mailer.Mailer
}

type apiError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *apiError) Error() string { return e.Message }

func main() {
	if err := loadDotEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if strings.EqualFold(cfg.Env, "production") {
		gin.SetMode(gin.ReleaseMode)
	}

	mailProvider := newMailProvider(cfg, logger)
	logger.Info("mailer initialized", "provider", mailProvider.Name())

	app := &App{
		cfg:    cfg,
		log:    logger,
		mailer: mailer.New(mailProvider, cfg.MailerFromAddresses[mailProvider.Name()]),
	}

	logger.Info(
		"runtime configuration",
		"env",
		cfg.Env,
		"addr",
		cfg.Addr,
		"contact_path",
		cfg.ContactPath,
		"static_root",
		cfg.StaticRoot,
	)
	if missing := app.missingContactSetting(); missing != "" {
		logger.Warn("contact endpoint will reject submissions until configured", "missing", missing)
	}

	r, err := app.newRouter()
	if err != nil {
		panic(err)
	}

	app.log.Info("starting gin API", "addr", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		panic(err)
	}
}

func newMailProvider(cfg *Config, logger *slog.Logger) mailer.Provider {
	switch cfg.MailerProvider {
	case "smtp":
		return mailer.NewSMTPProvider(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	case "log":
		return mailer.NewLogProvider(logger)
	default:
		return mailer.NewResendProvider(cfg.ResendAPIKey, mailer.WithBaseURL(cfg.ResendBaseURL))
	}
}

func (a *App) newRouter() (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies([]string{trustedProxyLoopbackIPv4, trustedProxyLoopbackIPv6}); err != nil {
		return nil, err
	}
	r.Use(a.loggingMiddleware())
	r.Use(corsMiddleware())
	r.Use(gin.CustomRecovery(a.recoverPanic))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Method checks live in the handler so unsupported verbs get 405.
	r.Any(a.cfg.ContactPath, a.contactHandler)

	fallback := notFoundHandler
	if a.cfg.StaticRoot != "" {
		site, err := siteStaticFileSystem(a.cfg.StaticRoot)
		if err != nil {
			return nil, err
		}
		fallback = staticSiteHandler(site)
	}
	r.NoRoute(a.noRouteHandler(fallback))

	return r, nil
}

// noRouteHandler sends verbs gin's Any does not register (PROPFIND and
// friends) on the contact path to the contact handler.
func (a *App) noRouteHandler(fallback gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == a.cfg.ContactPath {
			a.contactHandler(c)
			return
		}
		fallback(c)
	}
}

func notFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Not found"})
}

func loadConfig() (*Config, error) {
	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "development"
	}

	contactPath := valueOrDefault("CONTACT_PATH", defaultContactPath)
	if !strings.HasPrefix(contactPath, "/") {
		return nil, fmt.Errorf("CONTACT_PATH must start with '/'")
	}

	cfg := &Config{
		Addr:                valueOrDefault("GIN_ADDR", ":8080"),
		Env:                 env,
		ContactPath:         contactPath,
		StaticRoot:          strings.TrimSpace(os.Getenv("STATIC_ROOT")),
		MaxContactBodyBytes: defaultMaxContactBodyBytes,
		MailerProvider:      strings.ToLower(valueOrDefault("MAILER_PROVIDER", "resend")),
		ResendAPIKey:        strings.TrimSpace(os.Getenv("RESEND_API_KEY")),
		ContactEmailTo:      valueFromEnvKeys("MY_EMAIL", "CONTACT_EMAIL_TO"),
		SMTPHost:            strings.TrimSpace(os.Getenv("SMTP_HOST")),
		SMTPPort:            defaultSMTPPort,
		SMTPUsername:        strings.TrimSpace(os.Getenv("SMTP_USERNAME")),
		SMTPPassword:        os.Getenv("SMTP_PASSWORD"),
		MailerFromAddresses: map[string]string{
			"resend": valueOrDefault("MAILER_FROM_ADDRESS_RESEND", "Portfolio Contact <onboarding@resend.dev>"),
			"smtp":   valueOrDefault("MAILER_FROM_ADDRESS_SMTP", "noreply@localhost"),
			"log":    valueOrDefault("MAILER_FROM_ADDRESS_LOG", "noreply@portfolio.local"),
		},
	}

	if !containsString(mailerProviders, cfg.MailerProvider) {
		return nil, fmt.Errorf("MAILER_PROVIDER must be one of %s", strings.Join(mailerProviders, ", "))
	}

	if rawBaseURL := strings.TrimSpace(os.Getenv("RESEND_BASE_URL")); rawBaseURL != "" {
		parsed, err := url.Parse(rawBaseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("RESEND_BASE_URL must be an absolute URL")
		}
		cfg.ResendBaseURL = parsed
	}

	if rawPort := strings.TrimSpace(os.Getenv("SMTP_PORT")); rawPort != "" {
		parsed, err := strconv.Atoi(rawPort)
		if err != nil || parsed <= 0 || parsed > 65535 {
			return nil, fmt.Errorf("SMTP_PORT must be a valid port number")
		}
		cfg.SMTPPort = parsed
	}

	if rawMax := strings.TrimSpace(os.Getenv("MAX_CONTACT_BODY_BYTES")); rawMax != "" {
		parsed, err := strconv.ParseInt(rawMax, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("MAX_CONTACT_BODY_BYTES must be a valid number")
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("MAX_CONTACT_BODY_BYTES must be > 0")
		}
		cfg.MaxContactBodyBytes = parsed
	}

	return cfg, nil
}

func loadDotEnvFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, raw := range strings.Split(string(content), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.Trim(strings.TrimSpace(line[idx+1:]), "\"")
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
	return nil
}

func valueOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func valueFromEnvKeys(keys ...string) string {
	for _, key := range keys {
		value := strings.TrimSpace(os.Getenv(key))
		if value != "" {
			return value
		}
	}
	return ""
}

func containsString(list []string, value string) bool {
	for _, entry := range list {
		if entry == value {
			return true
		}
	}
	return false
}

func (a *App) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDContextKey, requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		a.log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
			"request_id", requestID,
		)
	}
}

func (a *App) requestLogger(c *gin.Context) *slog.Logger {
	return a.log.With("request_id", c.GetString(requestIDContextKey))
}

// corsMiddleware stamps the permissive CORS headers before anything else
// runs, so error and panic responses stay readable from the browser.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Next()
	}
}

func (a *App) recoverPanic(c *gin.Context, recovered any) {
	a.requestLogger(c).Error("panic while handling request", "path", c.Request.URL.Path, "panic", recovered)
	writeAPIError(c, &apiError{
		Status:  http.StatusInternalServerError,
		Code:    "server_error",
		Message: fmt.Sprint(recovered),
	})
	c.Abort()
}

func writeAPIError(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		body := gin.H{"error": apiErr.Code, "message": apiErr.Message}
		for key, value := range apiErr.Details {
			body[key] = value
		}
		c.JSON(apiErr.Status, body)
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "message": err.Error()})
}
