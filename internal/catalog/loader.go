package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/panelshop/internal/logger"
)

// Loader reads the curated catalog file. It is called on every catalog
// request so edits apply without a restart.
type Loader struct {
	filePath string
	logger   logger.Logger
	validate *validator.Validate
}

// NewLoader creates a loader for filePath (.json, or .yaml/.yml).
func NewLoader(filePath string, log logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{
		filePath: filePath,
		logger:   log,
		validate: validator.New(),
	}
}

// Path returns the resolved catalog path.
func (l *Loader) Path() string {
	if abs, err := filepath.Abs(l.filePath); err == nil {
		return abs
	}
	return l.filePath
}

// Load returns the curated catalog, or false when none applies: the file is
// missing, unreadable or invalid. Problems are logged, never returned.
func (l *Loader) Load() (*Catalog, bool) {
	c, err := l.Read()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("failed to load catalog, serving without curation",
				logger.String("path", l.Path()),
				logger.Error(err))
		}
		return nil, false
	}
	return c, true
}

// Read parses and validates the file, reporting why it could not.
func (l *Loader) Read() (*Catalog, error) {
	data, err := os.ReadFile(l.Path())
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var c Catalog
	switch strings.ToLower(filepath.Ext(l.filePath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to parse catalog yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to parse catalog json: %w", err)
		}
	}

	if err := l.validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}
