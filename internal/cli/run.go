package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/mds-pull/internal/config"
	mdserr "github.com/user/mds-pull/internal/errors"
	"github.com/user/mds-pull/internal/httpclient"
	"github.com/user/mds-pull/internal/logging"
	"github.com/user/mds-pull/internal/mds"
	"github.com/user/mds-pull/internal/output"
	"github.com/user/mds-pull/internal/provider"
	"github.com/user/mds-pull/internal/storage"
	"github.com/user/mds-pull/internal/timerange"
)

type pullOptions struct {
	start     string
	end       string
	duration  string
	providers []string
	bbox      string
	noPaging  bool

	output string
	bucket string
	region string

	statusChanges bool
	trips         bool
	deviceID      string
	vehicleID     string
}

// Replaced in tests.
var (
	getenv         = os.Getenv
	newObjectStore = func(cfg storage.Config) (storage.ObjectStore, error) {
		return storage.NewS3Client(cfg)
	}
)

func runPull(cmd *cobra.Command, ro *rootOptions, po *pullOptions) error {
	if po.start == "" && po.end == "" {
		_ = cmd.Help()
		return mdserr.Usage("one of --start_time or --end_time is required")
	}
	if (po.start == "" || po.end == "") && po.duration == "" {
		_ = cmd.Help()
		return mdserr.Usage("--duration is required with only one of --start_time or --end_time")
	}

	r, err := timerange.Resolve(timerange.Input{Start: po.start, End: po.end, Duration: po.duration})
	if err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if err := mds.ValidateBBox(po.bbox); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info("Reading provider config", zap.String("path", ro.configPath))
	cfg, err := config.Load(ro.configPath)
	if err != nil {
		return err
	}
	ref := config.ResolveRef(ro.ref, cfg)
	logging.Info("Using MDS ref", zap.String("ref", ref))

	target, err := establishTarget(cmd, ro.settings, po)
	if err != nil {
		return err
	}
	logging.Info("Writing data files", zap.Stringer("target", target))

	hc := newHTTPClient(ro.settings)
	reg, err := loadRegistry(ctx, hc, ro, ref)
	if err != nil {
		return err
	}

	providers := reg.Filter(provider.ParseSelectors(po.providers))
	client := mds.NewClient(hc, cfg.ConfigureAll(providers))
	logging.Info("Requesting from providers", zap.String("providers", provider.Names(client.Providers())))
	logging.Info("Time range", zap.Stringer("range", r))

	paging := !po.noPaging
	var runErrs []error

	if po.statusChanges {
		logging.Info("Requesting status changes")
		payloads, err := client.GetStatusChanges(ctx, mds.StatusChangesQuery{Range: r, BBox: po.bbox, Paging: paging})
		if err != nil {
			runErrs = append(runErrs, err)
		}
		if err := output.Dispatch(ctx, target, payloads, mds.StatusChanges, r); err != nil {
			runErrs = append(runErrs, err)
		} else {
			logging.Info("Status changes complete", zap.Int("providers", len(payloads)))
		}
	}

	if po.trips {
		logging.Info("Requesting trips")
		payloads, err := client.GetTrips(ctx, mds.TripsQuery{
			Range:     r,
			BBox:      po.bbox,
			DeviceID:  po.deviceID,
			VehicleID: po.vehicleID,
			Paging:    paging,
		})
		if err != nil {
			runErrs = append(runErrs, err)
		}
		if err := output.Dispatch(ctx, target, payloads, mds.Trips, r); err != nil {
			runErrs = append(runErrs, err)
		} else {
			logging.Info("Trips complete", zap.Int("providers", len(payloads)))
		}
	}

	if !po.statusChanges && !po.trips {
		logging.Warn("Nothing requested; pass --status_changes and/or --trips")
	}

	return errors.Join(runErrs...)
}

// establishTarget validates S3 region and credentials when a bucket is given, otherwise it
// creates the output directory.
func establishTarget(cmd *cobra.Command, settings *config.Settings, po *pullOptions) (output.Target, error) {
	if po.bucket != "" {
		region, err := storage.EnvFromLookup(po.region, getenv).ResolveRegion()
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), storage.CredentialsHelp)
			return nil, err
		}
		store, err := newObjectStore(storage.Config{
			Endpoint: settings.S3Endpoint,
			Region:   region,
			Insecure: settings.S3Insecure,
		})
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), storage.CredentialsHelp)
			return nil, err
		}
		return output.ObjectTarget{Store: store, Bucket: po.bucket, Prefix: po.output}, nil
	}

	dir := po.output
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, mdserr.Storage("create output directory "+dir, err)
	}
	return output.FileTarget{Dir: dir}, nil
}

func newHTTPClient(settings *config.Settings) *httpclient.Client {
	return httpclient.New(
		httpclient.WithTimeout(settings.Timeout),
		httpclient.WithRateLimit(settings.RequestsPerSecond),
	)
}

// loadRegistry reads --registry when given, otherwise downloads the registry at ref.
func loadRegistry(ctx context.Context, g provider.Getter, ro *rootOptions, ref string) (*provider.Registry, error) {
	if ro.registry != "" {
		logging.Info("Reading provider registry", zap.String("path", ro.registry))
		return provider.LoadFile(ro.registry)
	}
	url := provider.RegistryURL(ro.settings.RegistryURL, ref)
	logging.Info("Downloading provider registry", zap.String("url", url))
	return provider.Fetch(ctx, g, url)
}
