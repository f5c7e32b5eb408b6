package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// doctorCheck is one diagnostic result.
type doctorCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

func baseURLSource(sources map[string]string) string {
	if src, ok := sources["base_url"]; ok {
		return src
	}
	return "default"
}

// NewDoctorCmd creates the doctor command, a quick environment health check.
func NewDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, credentials, and connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app(cmd)

			var checks []doctorCheck

			checks = append(checks, doctorCheck{
				Name:   "config",
				OK:     a.Config.BaseURL != "",
				Detail: fmt.Sprintf("base URL %s (from %s)", a.Config.BaseURL, baseURLSource(a.Config.Sources)),
			})

			cacheDetail := "disabled"
			if a.Config.CacheEnabled {
				cacheDetail = "dir " + a.Config.CacheDir
			}
			checks = append(checks, doctorCheck{
				Name:   "cache",
				OK:     true,
				Detail: cacheDetail,
			})

			credDetail := "file fallback"
			if a.Store.UsingKeyring() {
				credDetail = "system keyring"
			}
			checks = append(checks, doctorCheck{
				Name:   "credentials",
				OK:     a.Session.Authenticated(),
				Detail: credDetail,
			})

			online := a.Monitor.Probe(cmd.Context())
			connDetail := "reachable"
			if !online {
				connDetail = "unreachable: " + a.Config.BaseURL + a.Config.HealthPath
			}
			checks = append(checks, doctorCheck{
				Name:   "connectivity",
				OK:     online,
				Detail: connDetail,
			})

			st, err := a.Queue.Status()
			if err != nil {
				return err
			}
			checks = append(checks, doctorCheck{
				Name:   "queue",
				OK:     true,
				Detail: summarize(st.Count, "pending action"),
			})

			healthy := 0
			for _, c := range checks {
				if c.OK {
					healthy++
				}
			}
			return a.Output.OK(checks, fmt.Sprintf("%d/%d checks passing", healthy, len(checks)))
		},
	}
}
