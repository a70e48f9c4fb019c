// Package tableconfig loads declarative table definitions from YAML and
// creates the described tables in a store.
package tableconfig

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/andrewkroh/go-tablestore/tablestore"
)

// TablesConfig holds the full table configuration loaded from a tables file.
type TablesConfig struct {
	Tables map[string]*TableConfig `yaml:"tables"`
}

// TableConfig defines the columns of one table.
type TableConfig struct {
	// Columns are created in the listed order.
	Columns []*ColumnConfig `yaml:"columns"`
}

// ColumnConfig defines a single column.
type ColumnConfig struct {
	Name string `yaml:"name"`

	// Type is one of integer, real, text or null (also int, float, str,
	// string and none). Empty means untyped.
	Type string `yaml:"type"`

	// Comment is emitted inside the CREATE TABLE body.
	Comment string `yaml:"comment"`
}

// LoadConfig reads and parses a tables file.
func LoadConfig(path string) (*TablesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse parses and validates table definitions.
func Parse(data []byte) (*TablesConfig, error) {
	var cfg TablesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.Tables) == 0 {
		return nil, errors.New("no tables defined")
	}

	for _, name := range cfg.TableNames() {
		if _, err := cfg.StoreColumns(name); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// TableNames returns the configured table names in sorted order.
func (c *TablesConfig) TableNames() []string {
	names := make([]string, 0, len(c.Tables))
	for name := range c.Tables {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// StoreColumns converts the columns of the named table to store columns.
func (c *TablesConfig) StoreColumns(table string) ([]tablestore.Column, error) {
	tc, ok := c.Tables[table]
	if !ok || tc == nil || len(tc.Columns) == 0 {
		return nil, fmt.Errorf("table %s: no columns defined", table)
	}

	seen := make(map[string]bool, len(tc.Columns))
	cols := make([]tablestore.Column, 0, len(tc.Columns))
	for i, cc := range tc.Columns {
		if cc == nil || cc.Name == "" {
			return nil, fmt.Errorf("table %s: column %d has no name", table, i)
		}
		if seen[cc.Name] {
			return nil, fmt.Errorf("table %s: duplicate column %s", table, cc.Name)
		}
		seen[cc.Name] = true

		typ, err := tablestore.ParseColumnType(cc.Type)
		if err != nil {
			return nil, fmt.Errorf("table %s: column %s: %w", table, cc.Name, err)
		}
		cols = append(cols, tablestore.Column{Name: cc.Name, Type: typ, Comment: cc.Comment})
	}
	return cols, nil
}

// Apply creates every configured table in sorted name order. Tables that
// already exist are left untouched.
func Apply(ctx context.Context, s *tablestore.Store, cfg *TablesConfig) error {
	for _, name := range cfg.TableNames() {
		cols, err := cfg.StoreColumns(name)
		if err != nil {
			return err
		}
		if err := s.CreateTable(ctx, name, cols); err != nil {
			return err
		}
	}
	return nil
}
