package compat

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// rustVersions lists every stable Rust release, latest point release only.
var rustVersions = []string{
	"1.0.0", "1.1.0", "1.2.0", "1.3.0", "1.4.0", "1.5.0", "1.6.0", "1.7.0", "1.8.0", "1.9.0",
	"1.10.0", "1.11.0", "1.12.1", "1.13.0", "1.14.0", "1.15.1", "1.16.0", "1.17.0", "1.18.0", "1.19.0",
	"1.20.0", "1.21.0", "1.22.1", "1.23.0", "1.24.1", "1.25.0", "1.26.2", "1.27.2", "1.28.0", "1.29.2",
	"1.30.1", "1.31.1", "1.32.0", "1.33.0", "1.34.2", "1.35.0", "1.36.0", "1.37.0", "1.38.0", "1.39.0",
	"1.40.0", "1.41.1", "1.42.0", "1.43.1", "1.44.1", "1.45.2", "1.46.0", "1.47.0", "1.48.0", "1.49.0",
	"1.50.0", "1.51.0", "1.52.1", "1.53.0", "1.54.0", "1.55.0", "1.56.1", "1.57.0", "1.58.1", "1.59.0",
	"1.60.0", "1.61.0", "1.62.1", "1.63.0", "1.64.0", "1.65.0", "1.66.1", "1.67.1", "1.68.2", "1.69.0",
	"1.70.0", "1.71.1", "1.72.1", "1.73.0", "1.74.1", "1.75.0", "1.76.0", "1.77.2", "1.78.0", "1.79.0",
	"1.80.1", "1.81.0", "1.82.0", "1.83.0", "1.84.1", "1.85.1", "1.86.0", "1.87.0", "1.88.0", "1.89.0",
	"1.90.0",
}

// rustCatalog uses the latest major version for crates at or above 1.0 and
// major.minor below it, leaving the resolver a range to choose from.
var rustCatalog = []Library{
	{Name: "anyhow", Constraint: "1"},
	{Name: "backtrace", Constraint: "0.3"},
	{Name: "bitflags", Constraint: "1"},
	{Name: "byteorder", Constraint: "1"},
	{Name: "cfg-if", Constraint: "1"},
	{Name: "chrono", Constraint: "0.4"},
	{Name: "crossbeam", Constraint: "0.8"},
	{Name: "env_logger", Constraint: "0.11"},
	{Name: "extension-trait", Constraint: "1.0"},
	{Name: "futures", Constraint: "0.3"},
	{Name: "hex", Constraint: "0.4"},
	{Name: "itertools", Constraint: "0.13"},
	{Name: "libc", Constraint: "0.2"},
	{Name: "log", Constraint: "0.4"},
	{Name: "mime", Constraint: "0.3"},
	{Name: "num_cpus", Constraint: "1"},
	{Name: "rand", Constraint: "0.8"},
	{Name: "rayon", Constraint: "1"},
	{Name: "regex", Constraint: "1"},
	{Name: "serde", Constraint: "1"},
	{Name: "semver", Constraint: "1"},
	{Name: "socket2", Constraint: "0.5"},
	{Name: "syn", Constraint: "2"},
	{Name: "tempfile", Constraint: "3"},
	{Name: "thiserror", Constraint: "1"},
	{Name: "toml", Constraint: "0.8"},
	{Name: "unicode-segmentation", Constraint: "1"},
	{Name: "url", Constraint: "2"},
	{Name: "walkdir", Constraint: "2"},
}

// goVersions follows golang.org/dl naming, which gained the patch number
// with 1.21.
var goVersions = []string{
	"1.13", "1.14", "1.15", "1.16", "1.17", "1.18",
	"1.19", "1.20", "1.21.0", "1.22.0", "1.23.0", "1.24.0",
}

// goCatalog: v2+ modules carry the major suffix in their path. Import is
// set where the module root is not an importable package.
var goCatalog = []Library{
	{Name: "github.com/gorilla/mux", Constraint: "v1"},
	{Name: "github.com/gin-gonic/gin", Constraint: "v1"},
	{Name: "github.com/stretchr/testify", Constraint: "v1", Import: "github.com/stretchr/testify/assert"},
	{Name: "github.com/spf13/cobra", Constraint: "v1"},
	{Name: "github.com/urfave/cli/v2", Constraint: "v2"},
	{Name: "github.com/sirupsen/logrus", Constraint: "v1"},
	{Name: "go.uber.org/zap", Constraint: "v1"},
	{Name: "github.com/go-resty/resty/v2", Constraint: "v2"},
	{Name: "gopkg.in/yaml.v3", Constraint: "v3"},
	{Name: "github.com/lib/pq", Constraint: "v1"},
	{Name: "github.com/go-sql-driver/mysql", Constraint: "v1"},
	{Name: "github.com/google/uuid", Constraint: "v1"},
	{Name: "github.com/pkg/errors", Constraint: "v0.9"},
	{Name: "github.com/hashicorp/go-multierror", Constraint: "v1"},
	{Name: "github.com/prometheus/client_golang", Constraint: "v1", Import: "github.com/prometheus/client_golang/prometheus"},
	{Name: "github.com/gorilla/websocket", Constraint: "v1"},
	{Name: "github.com/julienschmidt/httprouter", Constraint: "v1"},
	{Name: "github.com/dgrijalva/jwt-go", Constraint: "v3"},
	{Name: "golang.org/x/sync", Constraint: "v0.10", Import: "golang.org/x/sync/errgroup"},
	{Name: "golang.org/x/crypto", Constraint: "v0.31", Import: "golang.org/x/crypto/bcrypt"},
	{Name: "github.com/go-chi/chi/v5", Constraint: "v5"},
	{Name: "github.com/labstack/echo/v4", Constraint: "v4"},
	{Name: "github.com/gomodule/redigo", Constraint: "v1", Import: "github.com/gomodule/redigo/redis"},
	{Name: "github.com/elastic/go-elasticsearch/v7", Constraint: "v7"},
	{Name: "github.com/aws/aws-sdk-go", Constraint: "v1", Import: "github.com/aws/aws-sdk-go/aws"},
	{Name: "google.golang.org/grpc", Constraint: "v1"},
}

// CatalogFile is the YAML form of a catalog:
//
//	ecosystem: rust
//	versions: ["1.60.0", "1.70.0", "1.80.1"]
//	libraries:
//	  - name: serde
//	    constraint: "1"
//	  - name: github.com/stretchr/testify
//	    constraint: v1
//	    import: github.com/stretchr/testify/assert
//
// Versions is optional; the ecosystem's built-in list is used when empty.
type CatalogFile struct {
	Ecosystem string    `yaml:"ecosystem"`
	Versions  []string  `yaml:"versions"`
	Libraries []Library `yaml:"libraries"`
}

// LoadCatalog reads a catalog file from path.
func LoadCatalog(path string) (*CatalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	catalog, err := ParseCatalog(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return catalog, nil
}

// ParseCatalog decodes a catalog document. Unknown fields are rejected.
func ParseCatalog(r io.Reader) (*CatalogFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var catalog CatalogFile
	if err := dec.Decode(&catalog); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("catalog is empty")
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(catalog.Versions) > 0 {
		if err := ValidateVersions(catalog.Versions); err != nil {
			return nil, err
		}
	}
	return &catalog, nil
}

// normalizeCatalog trims names, fills empty constraints with
// defaultConstraint and rejects empty or duplicate names.
func normalizeCatalog(catalog []Library, defaultConstraint string) ([]Library, error) {
	libs := make([]Library, 0, len(catalog))
	seen := make(map[string]struct{}, len(catalog))

	for i, lib := range catalog {
		lib.Name = strings.TrimSpace(lib.Name)
		lib.Constraint = strings.TrimSpace(lib.Constraint)
		lib.Import = strings.TrimSpace(lib.Import)

		if lib.Name == "" {
			return nil, fmt.Errorf("catalog entry %d has no name", i)
		}
		if lib.Name == ControlName {
			return nil, fmt.Errorf("catalog entry %d uses reserved name %s", i, ControlName)
		}
		if _, dup := seen[lib.Name]; dup {
			return nil, fmt.Errorf("catalog lists %s more than once", lib.Name)
		}
		seen[lib.Name] = struct{}{}

		if lib.Constraint == "" {
			lib.Constraint = defaultConstraint
		}
		libs = append(libs, lib)
	}
	return libs, nil
}
