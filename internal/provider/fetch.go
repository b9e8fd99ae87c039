package provider

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	mdserr "github.com/user/mds-pull/internal/errors"
	"github.com/user/mds-pull/internal/logging"
)

// DefaultRegistryURL is the providers.csv location; {ref} is replaced by a git branch, tag or commit.
const DefaultRegistryURL = "https://raw.githubusercontent.com/openmobilityfoundation/mobility-data-specification/{ref}/providers.csv"

// Getter is the HTTP capability needed to download a registry.
type Getter interface {
	Get(ctx context.Context, url string, header http.Header) ([]byte, error)
}

func RegistryURL(template, ref string) string {
	if template == "" {
		template = DefaultRegistryURL
	}
	return strings.ReplaceAll(template, "{ref}", ref)
}

// Fetch downloads and parses the CSV registry at url.
func Fetch(ctx context.Context, g Getter, url string) (*Registry, error) {
	body, err := g.Get(ctx, url, nil)
	if err != nil {
		return nil, mdserr.Network("download provider registry", err).WithContext("url", url)
	}
	return ParseCSV(bytes.NewReader(body))
}

// LoadFile reads a local registry: .yaml/.yml as YAML, anything else as CSV.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, mdserr.Config("read registry file "+path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseCSV(bytes.NewReader(data))
	}
}

// ParseCSV reads a providers.csv. Columns are located by header name; rows without a valid
// provider_id are skipped.
func ParseCSV(r io.Reader) (*Registry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, mdserr.Parsing("provider registry is empty", err)
		}
		return nil, mdserr.Parsing("read registry header", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"provider_name", "provider_id"} {
		if _, ok := cols[required]; !ok {
			return nil, mdserr.Parsing(fmt.Sprintf("registry header is missing %q", required), nil)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	reg := NewRegistry()
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, mdserr.Parsing(fmt.Sprintf("read registry line %d", line), err)
		}

		id, err := uuid.Parse(field(rec, "provider_id"))
		if err != nil {
			logging.Warn("skipping registry row with invalid provider_id",
				zap.Int("line", line),
				zap.String("provider_name", field(rec, "provider_name")),
			)
			continue
		}

		p := Provider{
			Name:    field(rec, "provider_name"),
			ID:      id,
			URL:     field(rec, "url"),
			APIURL:  field(rec, "mds_api_url"),
			GBFSURL: field(rec, "gbfs_api_url"),
		}
		if err := reg.Register(p); err != nil {
			logging.Warn("skipping duplicate registry row", zap.Int("line", line), zap.Error(err))
		}
	}
	return reg, nil
}

// ParseYAML accepts either a list of providers or a mapping with a "providers" list.
func ParseYAML(data []byte) (*Registry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, mdserr.Parsing("decode registry yaml", err)
	}

	var ps []Provider
	if len(doc.Content) > 0 {
		root := doc.Content[0]
		var err error
		switch root.Kind {
		case yaml.SequenceNode:
			err = root.Decode(&ps)
		case yaml.MappingNode:
			var wrapped struct {
				Providers []Provider `yaml:"providers"`
			}
			err = root.Decode(&wrapped)
			ps = wrapped.Providers
		default:
			err = fmt.Errorf("unexpected yaml node kind %d", root.Kind)
		}
		if err != nil {
			return nil, mdserr.Parsing("decode registry yaml", err)
		}
	}

	reg := NewRegistry()
	for i, p := range ps {
		if p.ID == uuid.Nil {
			return nil, mdserr.Parsing(fmt.Sprintf("registry entry %d (%s) has no provider_id", i, p.Name), nil)
		}
		if err := reg.Register(p); err != nil {
			return nil, mdserr.Parsing("build registry", err)
		}
	}
	return reg, nil
}
