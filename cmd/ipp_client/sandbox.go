package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/ipp-client/internal/sandbox"
	"github.com/jonathan/ipp-client/internal/types"
)

const envSandboxSecret = "IPP_SANDBOX_SECRET"

var (
	sandboxAddr        string
	sandboxFailStep    string
	sandboxFailMessage string
	sandboxTokenTTL    time.Duration
)

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Run a local stand-in for the analysis API",
	Long: `Serves the API the client talks to from memory, for demos and trying the workflow offline.
Sign in with any email address as the token. Each status read moves an analysis one step forward.`,
	Args: cobra.NoArgs,
	RunE: runSandbox,
}

func init() {
	sandboxCmd.Flags().StringVar(&sandboxAddr, "addr", "127.0.0.1:8000", "Address to listen on")
	sandboxCmd.Flags().StringVar(&sandboxFailStep, "fail-step", "", "Fail analyses when they reach this progress step")
	sandboxCmd.Flags().StringVar(&sandboxFailMessage, "fail-message", "Analysis failed. Please try again.", "Error message for failed analyses")
	sandboxCmd.Flags().DurationVar(&sandboxTokenTTL, "token-ttl", sandbox.DefaultTokenTTL, "Lifetime of issued access tokens")
	rootCmd.AddCommand(sandboxCmd)
}

func runSandbox(cmd *cobra.Command, _ []string) error {
	if sandboxFailStep != "" && types.ProgressIndex(sandboxFailStep, types.JobStatusProcessing) < 0 {
		return fmt.Errorf("unknown progress step %q", sandboxFailStep)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	opts := []sandbox.Option{
		sandbox.WithLogger(logger),
		sandbox.WithTokenTTL(sandboxTokenTTL),
	}
	if secret := os.Getenv(envSandboxSecret); secret != "" {
		opts = append(opts, sandbox.WithSecret(secret))
	}
	if sandboxFailStep != "" {
		opts = append(opts, sandbox.WithFailAt(sandboxFailStep, sandboxFailMessage))
	}

	_, _ = fmt.Fprintf(stdout(cmd), "Sandbox API on http://%s%s (Ctrl+C to stop)\n", sandboxAddr, sandbox.BasePath)
	return sandbox.New(opts...).ListenAndServe(cmd.Context(), sandboxAddr)
}
