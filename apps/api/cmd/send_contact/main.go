package main

import (
	"fmt"
	"os"
	"strings"

	"portfolio/libs/contactform"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

const defaultBaseURL = "http://localhost:8080"

var (
	cfgFile     string
	baseURL     string
	endpoint    string
	fieldFlags  []string
	goalFlags   []string
	interactive bool
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "send_contact",
	Short: "Submit a contact form to a running contact endpoint",
	Long: `send_contact fills in the portfolio contact form from a YAML file,
flags and optional prompts, then submits it the way the browser does.

Example:
  send_contact --field "Full Name / Company=Acme" --field Email=a@x.com --goal Speed --goal SEO
  send_contact --config contact.yaml --base-url https://example.com
  send_contact --interactive`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
	RunE: runSendContact,
}

func init() {
	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "YAML file with endpoint, fields and goals")
	rootCmd.Flags().StringVar(&baseURL, "base-url", defaultBaseURL, "site the endpoint path is resolved against")
	rootCmd.Flags().StringVar(&endpoint, "endpoint", "", "contact endpoint path or absolute URL (default /api/contact)")
	rootCmd.Flags().StringArrayVarP(&fieldFlags, "field", "f", nil, `form field as "Key=Value", repeatable`)
	rootCmd.Flags().StringArrayVarP(&goalFlags, "goal", "g", nil, "checked goal, repeatable")
	rootCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "prompt for fields that are still empty")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error("send_contact failed", "err", err)
		os.Exit(1)
	}
}

func runSendContact(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cfgFile, endpoint, fieldFlags, goalFlags)
	if err != nil {
		return err
	}

	if interactive {
		if err := promptMissing(cfg); err != nil {
			return err
		}
	}

	target, err := contactform.ResolveEndpoint(baseURL, cfg.Endpoint)
	if err != nil {
		return err
	}

	form := cfg.Form()
	log.Debug("submitting contact form", "endpoint", target, "entries", form.Len())

	out := cmd.OutOrStdout()
	collector := contactform.New(form, target,
		contactform.OnSuccess(func(resp *contactform.Response) {
			log.Info("submission accepted", "status", resp.StatusCode)
			fmt.Fprintln(out, "Thank you! Your message has been sent.")
		}),
		contactform.OnFailure(func(err error) {
			fmt.Fprintln(cmd.ErrOrStderr(), "There was an error sending your message. Please try again.")
		}),
	)

	_, err = collector.Submit(cmd.Context())
	return err
}

// buildConfig loads the optional config file and lays flag values over it.
func buildConfig(path, endpoint string, fields, goals []string) (*contactform.Config, error) {
	cfg := &contactform.Config{}
	if path != "" {
		loaded, err := contactform.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	parsed, err := parseFieldFlags(fields)
	if err != nil {
		return nil, err
	}

	override := contactform.Config{
		Endpoint: strings.TrimSpace(endpoint),
		Fields:   parsed,
		Goals:    goals,
	}
	if err := cfg.Merge(override); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseFieldFlags(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(values))
	for _, raw := range values {
		key, value, ok := strings.Cut(raw, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --field %q, expected Key=Value", raw)
		}
		if key == "Goals" || key == "Goals[]" {
			return nil, fmt.Errorf("use --goal for goals")
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}
