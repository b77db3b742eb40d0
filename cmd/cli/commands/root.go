package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomlim2/unreal-mcp-jobs/internal/config"
	"github.com/tomlim2/unreal-mcp-jobs/pkg/api/v1/client"
	"github.com/tomlim2/unreal-mcp-jobs/pkg/api/v1/routes"
)

// flag names
const (
	flagServerAddress = "server-address"
)

var (
	// apiClient is the shared API client instance
	apiClient client.Client
	// serverAddress holds the target backend address. Flag parsing sets this.
	serverAddress string
)

// initClient initializes the API client
func initClient() error {
	var err error
	opts := client.DefaultOptions()
	opts.BaseURL = serverAddress

	apiClient, err = client.NewClient(opts)
	return err
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&serverAddress, flagServerAddress, "s", routes.DefaultBaseURL,
		fmt.Sprintf("Address of the bridge backend (env: %s)", config.EnvBridgeAPIURL))

	RootCmd.AddCommand(GetJobsCmd())
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "mcpjobs",
	Short: "mcpjobs - drive asynchronous jobs on the bridge backend",
	Long: `mcpjobs submits, tracks, cancels and downloads long-running jobs
(screenshot capture, batch rendering) on the bridge backend.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Precedence: flag > environment > default.
		if !cmd.Flags().Changed(flagServerAddress) {
			serverAddress = config.BridgeAPIURL()
		}

		if serverAddress == "" {
			return fmt.Errorf("server address cannot be empty")
		}
		return initClient()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}
