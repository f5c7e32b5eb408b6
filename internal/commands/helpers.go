// Package commands implements the ajo CLI subcommands.
package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajopay/ajo-cli/internal/apierr"
	"github.com/ajopay/ajo-cli/internal/appctx"
)

// app pulls the application bundle out of the command context.
func app(cmd *cobra.Command) *appctx.App {
	return appctx.FromContext(cmd.Context())
}

// requireAuth fails fast when no session exists, before any network call.
func requireAuth(a *appctx.App) error {
	if !a.Session.Authenticated() {
		return apierr.HTTP(401, "Not signed in. Run: ajo auth login", "", nil)
	}
	return nil
}

// promptLine reads one line from stdin with a prompt, for values not passed
// as flags.
func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// summarize builds "<n> <noun>" / "<n> <noun>s".
func summarize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
