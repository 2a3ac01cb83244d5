// Package persistence holds helpers shared by the user store backends.
package persistence

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// ApplyMigrations calls apply for each file in fsys matching pattern, in name order.
// Errors from apply are wrapped with the file name.
func ApplyMigrations(fsys fs.FS, pattern string, apply func(content string) error) error {
	names, err := fs.Glob(fsys, pattern)
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		if err := apply(string(content)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// SplitStatements splits a migration file on ';'. Blank statements are dropped.
func SplitStatements(content string) []string {
	var stmts []string
	for _, stmt := range strings.Split(content, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts
}
