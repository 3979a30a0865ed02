// Package artifact writes the per request template and parameters files handed
// to the az CLI and removes them again
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	perr "armvalidator/internal/platform/errors"
	"armvalidator/internal/platform/logger"

	"github.com/google/uuid"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
	indent   = "\t"
)

// Handle names the two files of one request. Valid for that request only
type Handle struct {
	TemplatePath   string
	ParametersPath string
}

// Store owns a directory of short lived artifact files
type Store struct {
	dir string
	log *logger.Logger

	// seams for tests
	writeFile func(name string, data []byte, perm fs.FileMode) error
	remove    func(name string) error
}

// New creates dir when missing. An empty dir means the OS temp dir
func New(dir string) (*Store, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "armvalidator")
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, perr.IOf(err, "create artifact dir %s", dir)
	}
	return &Store{
		dir:       dir,
		log:       logger.Named("artifact"),
		writeFile: os.WriteFile,
		remove:    os.Remove,
	}, nil
}

// Dir returns the artifact directory
func (s *Store) Dir() string { return s.dir }

// NewHandle mints two fresh file names; nothing touches disk yet
func (s *Store) NewHandle() Handle {
	return Handle{
		TemplatePath:   filepath.Join(s.dir, uuid.NewString()+".json"),
		ParametersPath: filepath.Join(s.dir, uuid.NewString()+".json"),
	}
}

// Write pretty prints the template (key order kept) and the parameters
// document, template first. A template that is not valid JSON is a JSON error,
// any disk failure an IO error
func (s *Store) Write(h Handle, template json.RawMessage, parameters any) error {
	var tpl bytes.Buffer
	if err := json.Indent(&tpl, template, "", indent); err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "template is not valid JSON")
	}

	var par bytes.Buffer
	enc := json.NewEncoder(&par)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(parameters); err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "encode parameters")
	}

	if err := s.writeFile(h.TemplatePath, tpl.Bytes(), filePerm); err != nil {
		return perr.IOf(err, "write template file")
	}
	if err := s.writeFile(h.ParametersPath, bytes.TrimRight(par.Bytes(), "\n"), filePerm); err != nil {
		return perr.IOf(err, "write parameters file")
	}
	return nil
}

// Cleanup removes both files. Missing files are fine; anything else is logged
// and swallowed so callers can defer it unconditionally
func (s *Store) Cleanup(ctx context.Context, h Handle) {
	for _, p := range []string{h.TemplatePath, h.ParametersPath} {
		if p == "" {
			continue
		}
		if err := s.remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.C(ctx).Warn().Err(err).Str("path", p).Msg("artifact cleanup failed")
		}
	}
}
