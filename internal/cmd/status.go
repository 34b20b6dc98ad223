package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	errwrap "github.com/sblp/sblpd/internal/errors"
	"github.com/sblp/sblpd/internal/server/handlers"
)

var (
	statusURL  string
	statusJSON bool
)

var statusHTTPClient = &http.Client{
	Timeout: 5 * time.Second,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the cooldown and lifecycle state of a running listener",
	Long: `Query a running sblpd instance for its lifecycle state, cooldown
configuration, and time until the next bump is accepted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		url := statusURL
		if url == "" {
			url = fmt.Sprintf("http://%s:%d/sblp/status",
				viper.GetString("server.host"), viper.GetInt("server.port"))
		}

		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
		if err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "failed to build status request")
		}
		if token := viper.GetString("auth.token"); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := statusHTTPClient.Do(req)
		if err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "listener is not reachable")
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return errwrap.NewInternalError(
				fmt.Sprintf("listener returned status %d", resp.StatusCode))
		}

		var status handlers.StatusResponse
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "failed to decode status response")
		}

		if statusJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(status)
		}

		fmt.Println(renderStatusTable(url, status))
		return nil
	},
}

func renderStatusTable(url string, status handlers.StatusResponse) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Field", "Value"})

	t.AppendRow(table.Row{"Endpoint", url})
	t.AppendRow(table.Row{"State", status.State})
	t.AppendRow(table.Row{"Cooldown", (time.Duration(status.CooldownSeconds) * time.Second).String()})

	lastAccepted := status.LastAccepted
	if lastAccepted == "" {
		lastAccepted = "never"
	}
	t.AppendRow(table.Row{"Last accepted bump", lastAccepted})

	if status.RemainingSeconds > 0 {
		t.AppendRow(table.Row{"Next bump in", (time.Duration(status.RemainingSeconds) * time.Second).String()})
	} else {
		t.AppendRow(table.Row{"Next bump in", "ready now"})
	}
	t.AppendRow(table.Row{"Bus subscribers", status.BusHandlers})

	return t.Render()
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusURL, "url", "", "status endpoint URL (default derives from server.host and server.port)")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output raw JSON instead of a table")
}
