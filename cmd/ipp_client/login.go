package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/ipp-client/internal/app"
)

const envGoogleToken = "IPP_GOOGLE_TOKEN"

var loginCmd = &cobra.Command{
	Use:   "login [google-id-token]",
	Short: "Sign in with a Google ID token",
	Long:  "Exchanges a Google ID token for an API session and stores it locally. The token may be passed as an argument or in " + envGoogleToken + ".",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	token := os.Getenv(envGoogleToken)
	if len(args) == 1 {
		token = args[0]
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("a Google ID token is required (argument or %s)", envGoogleToken)
	}

	return withApp(cmd, func(ctx context.Context, a *app.Context) error {
		s, err := a.Session.Login(ctx, token)
		if err != nil {
			return err
		}
		printer(cmd).PrintUser(s.User)

		path, err := a.SelectedPath(ctx)
		if err != nil {
			return err
		}
		if path == "" {
			_, _ = fmt.Fprintln(stdout(cmd), "Choose your journey next: ipp path exploration|interview")
		}
		return nil
	})
}
