package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/user/mds-pull/internal/config"
	"github.com/user/mds-pull/internal/logging"
)

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	configPath string
	ref        string
	registry   string

	v        *viper.Viper
	settings *config.Settings
}

func Execute() error {
	defer logging.Sync()
	return NewRootCmd().Execute()
}

// NewRootCmd builds the mds-pull command tree. Each call returns independent flag state.
func NewRootCmd() *cobra.Command {
	ro := &rootOptions{v: config.NewViper()}
	po := &pullOptions{}

	rootCmd := &cobra.Command{
		Use:   "mds-pull",
		Short: "Pull MDS data from mobility providers",
		Long: `Queries MDS provider endpoints for status changes and trips within a time range
and writes the results as JSON files to a local directory or an S3 bucket.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettings(ro.v)
			if err != nil {
				return err
			}
			if err := logging.Initialize(settings.Logging); err != nil {
				return err
			}
			ro.settings = settings
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPull(cmd, ro, po)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&ro.configPath, "config", config.DefaultPath(), "Path to the provider configuration file")
	pf.StringVar(&ro.ref, "ref", "", "Git branch, tag or commit of the provider registry (default from config, else master)")
	pf.StringVar(&ro.registry, "registry", "", "Read the provider registry from a local .csv or .yaml file")
	pf.String("log_level", "info", "Log level: debug, info, warn or error")
	pf.String("log_format", "console", "Log format: console or json")
	pf.Duration("timeout", config.DefaultSettings().Timeout, "Per-request HTTP timeout")

	for _, name := range []string{"log_level", "log_format", "timeout"} {
		_ = ro.v.BindPFlag(name, pf.Lookup(name))
	}

	f := rootCmd.Flags()
	f.StringVar(&po.start, "start_time", "", "Beginning of the query range, as epoch seconds or ISO 8601")
	f.StringVar(&po.end, "end_time", "", "End of the query range, as epoch seconds or ISO 8601")
	f.StringVar(&po.duration, "duration", "", "Length of the query range, in seconds or as an ISO 8601 duration (PT1H)")
	f.StringSliceVar(&po.providers, "providers", nil, "Provider names or ids to query; repeat or separate with commas (default all)")
	f.StringVar(&po.bbox, "bbox", "", "Bounding box as sw_lng,sw_lat,ne_lng,ne_lat")
	f.BoolVar(&po.noPaging, "no_paging", false, "Only request the first page from each provider")
	f.StringVar(&po.output, "output", "", "Directory for data files, or key prefix with --s3_bucket (default current directory)")
	f.StringVar(&po.bucket, "s3_bucket", "", "S3 bucket to upload data files to")
	f.StringVar(&po.region, "aws_region", "", "AWS region for S3 uploads; overrides AWS_DEFAULT_REGION")
	f.BoolVar(&po.statusChanges, "status_changes", false, "Request status changes")
	f.BoolVar(&po.trips, "trips", false, "Request trips")
	f.StringVar(&po.deviceID, "device_id", "", "Restrict trips to one device")
	f.StringVar(&po.vehicleID, "vehicle_id", "", "Restrict trips to one vehicle")

	rootCmd.AddCommand(newProvidersCmd(ro))

	return rootCmd
}
