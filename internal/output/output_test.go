package output

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	mdserr "github.com/user/mds-pull/internal/errors"
	"github.com/user/mds-pull/internal/mds"
	"github.com/user/mds-pull/internal/provider"
	"github.com/user/mds-pull/internal/storage"
	"github.com/user/mds-pull/internal/timerange"
)

func testRange() timerange.Range {
	return timerange.Range{
		Start: time.Date(2020, 1, 1, 0, 0, 0, 0, timerange.Naive),
		End:   time.Date(2020, 1, 2, 0, 0, 0, 0, timerange.Naive),
	}
}

func testPayloads() mds.PayloadMap {
	return mds.PayloadMap{
		{
			Provider: provider.Provider{Name: "acme", ID: uuid.New()},
			Payload:  mds.Payload{json.RawMessage(`{"data":{"trips":[{"trip_id":"t1"}]},"version":"0.3.0"}`)},
		},
		{
			Provider: provider.Provider{Name: "zoom", ID: uuid.New()},
			Payload:  nil,
		},
	}
}

func TestFileName(t *testing.T) {
	got := FileName(mds.Trips, "acme", testRange())
	want := "trips_acme_2020-01-01T00:00:00_2020-01-02T00:00:00.json"
	if got != want {
		t.Errorf("FileName() = %q, want %q", got, want)
	}
}

func TestDispatch_EmptyPayloadMap(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	if err := Dispatch(context.Background(), FileTarget{Dir: dir}, nil, mds.Trips, testRange()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("expected no output directory, stat err = %v", err)
	}

	ctrl := gomock.NewController(t)
	store := storage.NewMockObjectStore(ctrl)
	if err := Dispatch(context.Background(), ObjectTarget{Store: store, Bucket: "b"}, mds.PayloadMap{}, mds.Trips, testRange()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDispatch_Files(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	payloads := testPayloads()

	if err := Dispatch(context.Background(), FileTarget{Dir: dir}, payloads, mds.Trips, testRange()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 files, got %d", len(entries))
	}

	data, err := os.ReadFile(filepath.Join(dir, "trips_acme_2020-01-01T00:00:00_2020-01-02T00:00:00.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var pages []map[string]any
	if err := json.Unmarshal(data, &pages); err != nil {
		t.Fatalf("file is not valid JSON: %v", err)
	}
	if len(pages) != 1 || pages[0]["version"] != "0.3.0" {
		t.Errorf("unexpected content %s", data)
	}

	empty, err := os.ReadFile(filepath.Join(dir, "trips_zoom_2020-01-01T00:00:00_2020-01-02T00:00:00.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(empty) != "[]" {
		t.Errorf("expected empty JSON array, got %s", empty)
	}
}

func TestDispatch_FilesOverwrite(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, FileName(mds.StatusChanges, "acme", testRange()))
	if err := os.WriteFile(name, []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}

	payloads := testPayloads()[:1]
	if err := Dispatch(context.Background(), FileTarget{Dir: dir}, payloads, mds.StatusChanges, testRange()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := os.ReadFile(name)
	if string(data) == "stale" {
		t.Error("expected file to be overwritten")
	}
}

func TestDispatch_FileErrorsContinue(t *testing.T) {
	dir := t.TempDir()
	// A directory in place of the first file makes only that write fail.
	blocked := filepath.Join(dir, FileName(mds.Trips, "acme", testRange()))
	if err := os.Mkdir(blocked, 0755); err != nil {
		t.Fatal(err)
	}

	err := Dispatch(context.Background(), FileTarget{Dir: dir}, testPayloads(), mds.Trips, testRange())
	if !mdserr.IsType(err, mdserr.TypeStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, FileName(mds.Trips, "zoom", testRange()))); err != nil {
		t.Errorf("expected sibling file to be written: %v", err)
	}
}

func TestDispatch_Objects(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storage.NewMockObjectStore(ctrl)
	ctx := context.Background()

	gomock.InOrder(
		store.EXPECT().
			PutObject(ctx, "mds-data", "la/trips_acme_2020-01-01T00:00:00_2020-01-02T00:00:00.json", gomock.Any(), ContentType).
			DoAndReturn(func(_ context.Context, _, _ string, data []byte, _ string) error {
				if !json.Valid(data) {
					t.Errorf("uploaded invalid JSON: %s", data)
				}
				return nil
			}),
		store.EXPECT().
			PutObject(ctx, "mds-data", "la/trips_zoom_2020-01-01T00:00:00_2020-01-02T00:00:00.json", []byte("[]"), ContentType).
			Return(nil),
	)

	target := ObjectTarget{Store: store, Bucket: "mds-data", Prefix: "la"}
	if err := Dispatch(ctx, target, testPayloads(), mds.Trips, testRange()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDispatch_ObjectFailureStops(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storage.NewMockObjectStore(ctrl)

	store.EXPECT().
		PutObject(gomock.Any(), "mds-data", gomock.Any(), gomock.Any(), ContentType).
		Return(errors.New("connection reset")).
		Times(1)

	err := Dispatch(context.Background(), ObjectTarget{Store: store, Bucket: "mds-data"}, testPayloads(), mds.Trips, testRange())
	if !mdserr.IsType(err, mdserr.TypeStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestDispatch_ObjectTargetRequiresBucket(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storage.NewMockObjectStore(ctrl)

	err := Dispatch(context.Background(), ObjectTarget{Store: store}, testPayloads(), mds.Trips, testRange())
	if !mdserr.IsType(err, mdserr.TypeStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
