// Package main provides the ipp command line client for the guided career reflection
// workflow.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/ipp-client/internal/workflow"
)

var rootCmd = &cobra.Command{
	Use:           "ipp",
	Short:         "Guided career reflection client",
	Long:          "ipp signs you in, uploads your resume and target job description, runs the analysis and walks you through the Context, Experience, Reflection, Action and Evaluation stages.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", workflow.UserMessage(err))
		os.Exit(1)
	}
}
