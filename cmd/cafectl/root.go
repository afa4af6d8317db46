package main

import (
	"time"

	"github.com/spf13/cobra"

	"cafe-directory/internal/common/config"
)

type globalOptions struct {
	baseURL        string
	token          string
	externalPrefix string
	timeout        time.Duration
	cacheSize      int
	verbose        bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "cafectl",
		Short: "Browse the cafe directory API",
		Long: `Browse the cafe directory listing API from the terminal.

Examples:
  cafectl cafes --filter region=sukabirus,sukapura --sort price
  cafectl reviews --filter cafeId=abc123 --sort rating --sort rating
  cafectl facilities --search wifi --limit 50`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.fillFromConfig()
		},
	}

	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "API base URL (default from client.base_url)")
	root.PersistentFlags().StringVar(&opts.token, "token", "", "Bearer token; requests go to the external mount when set")
	root.PersistentFlags().StringVar(&opts.externalPrefix, "external-prefix", "", "Mount used with --token (default from client.external_prefix)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "Request timeout (default from client.timeout)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log fetch details to stderr")

	for _, e := range entities {
		root.AddCommand(newListCmd(e, opts))
	}
	return root
}

// fillFromConfig reads the client section only when the base URL was not
// given on the command line.
func (o *globalOptions) fillFromConfig() error {
	if o.baseURL != "" {
		if o.externalPrefix == "" {
			o.externalPrefix = config.DefaultExternalPrefix
		}
		if o.timeout == 0 {
			o.timeout = 10 * time.Second
		}
		if o.cacheSize == 0 {
			o.cacheSize = 16
		}
		return nil
	}

	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	o.baseURL = cfg.Client.BaseURL
	if o.token == "" {
		o.token = cfg.Client.APIToken
	}
	if o.externalPrefix == "" {
		o.externalPrefix = cfg.Client.ExternalPrefix
	}
	if o.timeout == 0 {
		o.timeout = config.GetDuration(cfg.Client.Timeout)
	}
	o.cacheSize = cfg.Client.CacheSize
	return nil
}
