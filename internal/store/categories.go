package store

import (
	"fmt"
	"os"
	"strings"

	"fjacquet/expense-manager/internal/logging"
	"fjacquet/expense-manager/internal/models"

	"gopkg.in/yaml.v3"
)

// CategoryStore loads the category vocabulary offered to the oracle.
type CategoryStore struct {
	CategoriesFile string
	logger         logging.Logger
}

// NewCategoryStore returns a store reading categoriesFile. An empty path
// means the built-in vocabulary.
func NewCategoryStore(categoriesFile string, logger logging.Logger) *CategoryStore {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &CategoryStore{CategoriesFile: categoriesFile, logger: logger}
}

// LoadCategories reads the YAML vocabulary. Both a top-level "categories:"
// key and a bare list are accepted. A missing file falls back to
// models.DefaultCategories.
func (s *CategoryStore) LoadCategories() ([]models.CategoryConfig, error) {
	if s.CategoriesFile == "" {
		return models.DefaultCategories, nil
	}

	data, err := os.ReadFile(s.CategoriesFile)
	if os.IsNotExist(err) {
		s.logger.Warn("Categories file not found, using built-in categories",
			logging.Field{Key: logging.FieldFile, Value: s.CategoriesFile})
		return models.DefaultCategories, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading categories file: %w", err)
	}

	var cfg models.CategoriesConfig
	if err := yaml.Unmarshal(data, &cfg); err == nil && len(cfg.Categories) > 0 {
		return clean(cfg.Categories), nil
	}

	var list []models.CategoryConfig
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("error parsing categories file: %w", err)
	}
	if len(list) == 0 {
		s.logger.Warn("Categories file is empty, using built-in categories",
			logging.Field{Key: logging.FieldFile, Value: s.CategoriesFile})
		return models.DefaultCategories, nil
	}
	return clean(list), nil
}

func clean(cats []models.CategoryConfig) []models.CategoryConfig {
	out := make([]models.CategoryConfig, 0, len(cats))
	for _, c := range cats {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}
