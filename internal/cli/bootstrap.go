package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/corvidb/corvid/internal/config"
	"github.com/corvidb/corvid/pkg/catalog"
	"github.com/corvidb/corvid/pkg/catalog/bootstrap"
	"github.com/corvidb/corvid/pkg/catalog/initfile"
	"github.com/corvidb/corvid/pkg/fn"
	"github.com/corvidb/corvid/pkg/storage"
)

// Bootstrap builds a fresh, formatted catalog cache: a function
// registry and bootstrap catalog (the hard-coded built-in types,
// functions, and systable shapes), an init file to drain into it, and
// a volatile in-memory file substrate to hold the result. Every shell
// session calls this exactly once; there is no persistence across
// runs regardless of where the init file came from.
//
// When cfg.Storage.InitDataFile names a file that exists, its contents
// are read verbatim. Otherwise Bootstrap falls back to generating one
// from the bootstrap catalog's own self-describing schemas, the same
// file a real deployment would have shipped on disk.
func Bootstrap(cfg *config.Config) (*catalog.CatCache, error) {
	reg := fn.NewRegistry()
	boot, err := bootstrap.New(reg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap catalog: %w", err)
	}

	src, err := initSource(cfg, boot)
	if err != nil {
		return nil, err
	}

	sub := storage.NewVolatileSubstrate()
	rd := initfile.NewReader(src, boot, reg)
	cc, err := catalog.FromInit(rd, boot, reg, sub)
	if err != nil {
		return nil, fmt.Errorf("format catalog: %w", err)
	}
	return cc, nil
}

// initSource returns the init file data to bootstrap from: the file at
// cfg.Storage.InitDataFile if it exists, otherwise a generated buffer.
func initSource(cfg *config.Config, boot *bootstrap.Catalog) (io.Reader, error) {
	if cfg != nil && cfg.Storage.InitDataFile != "" {
		data, err := os.ReadFile(cfg.Storage.InitDataFile)
		if err == nil {
			return bytes.NewReader(data), nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read init data file: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := boot.WriteInitFile(&buf); err != nil {
		return nil, fmt.Errorf("generate init file: %w", err)
	}
	return &buf, nil
}
