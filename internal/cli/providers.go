package cli

import (
	"github.com/spf13/cobra"

	"github.com/user/mds-pull/internal/config"
)

func newProvidersCmd(ro *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List the providers in the registry",
		Long:  `Prints the provider registry at the configured ref, or from --registry, without querying any provider.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(ro.configPath)
			if err != nil {
				return err
			}
			reg, err := loadRegistry(cmd.Context(), newHTTPClient(ro.settings), ro, config.ResolveRef(ro.ref, cfg))
			if err != nil {
				return err
			}

			if jsonOutput {
				return PrintJSON(cmd.OutOrStdout(), reg.All())
			}
			return PrintProviders(cmd.OutOrStdout(), reg.All())
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}
