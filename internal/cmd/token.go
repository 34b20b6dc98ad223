package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	errwrap "github.com/sblp/sblpd/internal/errors"
)

var tokenFile string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the bump endpoint auth token",
}

// tokenFileConfig is the YAML fragment written by `token new`. It matches the
// config file layout, so the generated file can be used directly as (or
// merged into) the sblpd config.
type tokenFileConfig struct {
	Auth struct {
		Token string `yaml:"token"`
	} `yaml:"auth"`
}

var tokenNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a new auth token",
	Long: `Generate a new bearer token for the bump endpoints and print it.
With --file, the token is also written as a YAML config fragment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		token := uuid.NewString()

		if tokenFile != "" {
			var fragment tokenFileConfig
			fragment.Auth.Token = token

			data, err := yaml.Marshal(&fragment)
			if err != nil {
				return errwrap.WrapInternal(cmd.Context(), err, "failed to encode token file")
			}

			if dir := filepath.Dir(tokenFile); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return errwrap.WrapInternal(cmd.Context(), err, "failed to create token file directory")
				}
			}
			// Tokens are credentials; keep the file owner-only.
			if err := os.WriteFile(tokenFile, data, 0o600); err != nil {
				return errwrap.WrapInternal(cmd.Context(), err, "failed to write token file")
			}

			fmt.Printf("Token written to %s\n", tokenFile)
		}

		fmt.Println(token)
		return nil
	},
}

var tokenShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the currently configured auth token",
	RunE: func(cmd *cobra.Command, args []string) error {
		token := viper.GetString("auth.token")
		if token == "" {
			fmt.Println("No auth token configured; bump endpoints are unprotected.")
			return nil
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenNewCmd)
	tokenCmd.AddCommand(tokenShowCmd)

	tokenNewCmd.Flags().StringVar(&tokenFile, "file", "", "write the token as a YAML config fragment to this path")
}
