package rules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"fjacquet/merchant-resolver/internal/logging"
	"fjacquet/merchant-resolver/internal/models"

	"gopkg.in/yaml.v3"
)

// File is the YAML layout written by ExportFile:
//
//	rules:
//	  - pattern: zelle to jane doe
//	    category: Housing
//	    subcategory: Rent
type File struct {
	Rules []models.Rule `yaml:"rules"`
}

// FindRulesFile looks for a rules file in standard locations
func FindRulesFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
		filepath.Join("database", filename),
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".config", "merchant-resolver", filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	return "", os.ErrNotExist
}

// ParseFile decodes rules from YAML. Three shapes are accepted: a document
// with a top-level "rules" list, a bare list of rules, or a plain mapping
// from pattern to category.
func ParseFile(data []byte) ([]models.Rule, error) {
	var doc File
	if err := yaml.Unmarshal(data, &doc); err == nil && len(doc.Rules) > 0 {
		return doc.Rules, nil
	}

	var list []models.Rule
	if err := yaml.Unmarshal(data, &list); err == nil && len(list) > 0 {
		return list, nil
	}

	var mapping map[string]string
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("error parsing rules file: %w", err)
	}
	out := make([]models.Rule, 0, len(mapping))
	for pattern, category := range mapping {
		out = append(out, models.Rule{Pattern: pattern, Category: category})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pattern < out[j].Pattern })
	return out, nil
}

// LoadFile upserts every rule found in the named file. A missing file is
// not an error and loads nothing.
func (b *Book) LoadFile(ctx context.Context, filename string) (int, error) {
	path, err := FindRulesFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			b.logger.Warn("Rules file not found", logging.F(logging.FieldFile, filename))
			return 0, nil
		}
		return 0, fmt.Errorf("error resolving rules file: %w", err)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- user-supplied rules file
	if err != nil {
		return 0, fmt.Errorf("error reading rules file: %w", err)
	}
	parsed, err := ParseFile(data)
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, r := range parsed {
		if models.NormalizePattern(r.Pattern) == "" {
			continue
		}
		if err := b.Upsert(ctx, r); err != nil {
			return loaded, err
		}
		loaded++
	}
	b.logger.Info("Loaded rules file",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, loaded))
	return loaded, nil
}

// ExportFile writes every rule to path in match order.
func (b *Book) ExportFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	data, err := yaml.Marshal(File{Rules: b.Rules()})
	if err != nil {
		return fmt.Errorf("error marshaling rules: %w", err)
	}
	if err := os.WriteFile(path, data, models.PermissionReportFile); err != nil {
		return fmt.Errorf("error writing rules: %w", err)
	}

	b.logger.Debug("Exported rules", logging.F(logging.FieldFile, path))
	return nil
}
