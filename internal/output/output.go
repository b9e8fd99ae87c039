// Package output names and writes pulled MDS payloads to the local filesystem or object storage.
package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	mdserr "github.com/user/mds-pull/internal/errors"
	"github.com/user/mds-pull/internal/logging"
	"github.com/user/mds-pull/internal/mds"
	"github.com/user/mds-pull/internal/storage"
	"github.com/user/mds-pull/internal/timerange"
)

const ContentType = "application/json"

// Target is where a run writes its files. It is either a FileTarget or an ObjectTarget.
type Target interface {
	isTarget()
	String() string
}

// FileTarget writes into a local directory, creating it when absent.
type FileTarget struct {
	Dir string
}

func (FileTarget) isTarget() {}

func (t FileTarget) String() string { return t.Dir }

// ObjectTarget uploads to a bucket, with an optional key prefix.
type ObjectTarget struct {
	Store  storage.ObjectStore
	Bucket string
	Prefix string
}

func (ObjectTarget) isTarget() {}

func (t ObjectTarget) String() string {
	return "s3://" + path.Join(t.Bucket, t.Prefix)
}

// FileName returns "<datatype>_<provider>_<start>_<end>.json".
func FileName(dt mds.Datatype, providerName string, r timerange.Range) string {
	return fmt.Sprintf("%s_%s_%s_%s.json", dt, providerName, timerange.ISO(r.Start), timerange.ISO(r.End))
}

// Dispatch writes one JSON document per provider in payloads.
func Dispatch(ctx context.Context, target Target, payloads mds.PayloadMap, dt mds.Datatype, r timerange.Range) error {
	if len(payloads) == 0 {
		return nil
	}

	switch t := target.(type) {
	case FileTarget:
		return writeFiles(t, payloads, dt, r)
	case ObjectTarget:
		return upload(ctx, t, payloads, dt, r)
	default:
		return mdserr.Storage(fmt.Sprintf("unsupported output target %T", target), nil)
	}
}

func encode(p mds.Payload) ([]byte, error) {
	if p == nil {
		p = mds.Payload{}
	}
	return json.Marshal(p)
}

func writeFiles(t FileTarget, payloads mds.PayloadMap, dt mds.Datatype, r timerange.Range) error {
	dir := t.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return mdserr.Storage("create output directory "+dir, err)
	}

	var errs []error
	for _, pp := range payloads {
		name := filepath.Join(dir, FileName(dt, pp.Provider.Name, r))

		data, err := encode(pp.Payload)
		if err != nil {
			errs = append(errs, fmt.Errorf("encode %s: %w", name, err))
			continue
		}
		if err := os.WriteFile(name, data, 0644); err != nil {
			logging.Error("Failed to write file", zap.String("path", name), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		logging.Info("Wrote file", zap.String("path", name), zap.Int("pages", len(pp.Payload)))
	}

	if len(errs) > 0 {
		return mdserr.Storage(fmt.Sprintf("%d of %d files failed", len(errs), len(payloads)), errors.Join(errs...))
	}
	return nil
}

func upload(ctx context.Context, t ObjectTarget, payloads mds.PayloadMap, dt mds.Datatype, r timerange.Range) error {
	if t.Store == nil {
		return mdserr.Storage("object target has no store", nil)
	}
	if t.Bucket == "" {
		return mdserr.Storage("object target has no bucket", nil)
	}

	for _, pp := range payloads {
		key := FileName(dt, pp.Provider.Name, r)
		if t.Prefix != "" {
			key = path.Join(t.Prefix, key)
		}

		data, err := encode(pp.Payload)
		if err != nil {
			return mdserr.Storage("encode "+key, err)
		}
		if err := t.Store.PutObject(ctx, t.Bucket, key, data, ContentType); err != nil {
			if mdserr.IsType(err, mdserr.TypeStorage) || mdserr.IsType(err, mdserr.TypeConfig) {
				return err
			}
			return mdserr.Storage("upload "+key, err)
		}
		logging.Info("Uploaded object", zap.String("bucket", t.Bucket), zap.String("key", key))
	}
	return nil
}
