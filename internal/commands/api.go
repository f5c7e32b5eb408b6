package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/ajopay/ajo-cli/internal/api"
)

// NewAPICmd creates the raw API escape hatch for endpoints without a
// dedicated command.
func NewAPICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api <verb> <endpoint>",
		Short: "Raw API access",
		Long: `Call an arbitrary API endpoint with the authenticated client.
GET responses go through the cache; mutations go through the offline queue.

The --jq flag filters the response through a jq expression before output.`,
	}

	cmd.AddCommand(
		newAPIGetCmd(),
		newAPIPostCmd(),
		newAPIPutCmd(),
		newAPIDeleteCmd(),
	)

	return cmd
}

func newAPIGetCmd() *cobra.Command {
	var (
		jqExpr  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "get <endpoint>",
		Short: "GET an endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			var opts []api.GetOption
			if noCache {
				opts = append(opts, api.NoCache())
			}
			data, err := a.Client.Get(cmd.Context(), args[0], opts...)
			if err != nil {
				return err
			}
			return emitAPIResponse(cmd, data, jqExpr)
		},
	}

	cmd.Flags().StringVar(&jqExpr, "jq", "", "Filter the response through a jq expression")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the response cache")
	return cmd
}

func newAPIPostCmd() *cobra.Command {
	var jqExpr, body string

	cmd := &cobra.Command{
		Use:   "post <endpoint>",
		Short: "POST to an endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			payload, err := parseBody(body)
			if err != nil {
				return err
			}
			data, err := a.Client.Post(cmd.Context(), args[0], payload)
			if err != nil {
				return err
			}
			return emitAPIResponse(cmd, data, jqExpr)
		},
	}

	cmd.Flags().StringVar(&jqExpr, "jq", "", "Filter the response through a jq expression")
	cmd.Flags().StringVarP(&body, "data", "d", "", "Request body as JSON, or - to read stdin")
	return cmd
}

func newAPIPutCmd() *cobra.Command {
	var jqExpr, body string

	cmd := &cobra.Command{
		Use:   "put <endpoint>",
		Short: "PUT to an endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			payload, err := parseBody(body)
			if err != nil {
				return err
			}
			data, err := a.Client.Put(cmd.Context(), args[0], payload)
			if err != nil {
				return err
			}
			return emitAPIResponse(cmd, data, jqExpr)
		},
	}

	cmd.Flags().StringVar(&jqExpr, "jq", "", "Filter the response through a jq expression")
	cmd.Flags().StringVarP(&body, "data", "d", "", "Request body as JSON, or - to read stdin")
	return cmd
}

func newAPIDeleteCmd() *cobra.Command {
	var jqExpr string

	cmd := &cobra.Command{
		Use:   "delete <endpoint>",
		Short: "DELETE an endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)
			data, err := a.Client.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return emitAPIResponse(cmd, data, jqExpr)
		},
	}

	cmd.Flags().StringVar(&jqExpr, "jq", "", "Filter the response through a jq expression")
	return cmd
}

// parseBody decodes the --data flag value, reading stdin when it is "-".
func parseBody(body string) (any, error) {
	if body == "" {
		return nil, nil
	}
	raw := []byte(body)
	if body == "-" {
		var err error
		raw, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, err
		}
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	return payload, nil
}

// emitAPIResponse writes the decoded payload, optionally filtered through jq.
func emitAPIResponse(cmd *cobra.Command, data json.RawMessage, jqExpr string) error {
	a := app(cmd)

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("response is not valid JSON: %w", err)
	}

	if jqExpr != "" {
		results, err := applyJQ(jqExpr, decoded)
		if err != nil {
			return err
		}
		if len(results) == 1 {
			return a.Output.OK(results[0], "")
		}
		return a.Output.OK(results, "")
	}
	return a.Output.OK(decoded, "")
}

// applyJQ runs a jq expression over a decoded JSON value and collects the
// emitted results.
func applyJQ(expr string, input any) ([]any, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}

	var results []any
	iter := query.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("jq: %w", err)
		}
		results = append(results, v)
	}
	return results, nil
}
