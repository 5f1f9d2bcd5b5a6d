// Package ignore decides which paths under a scan root the walker skips.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
	"gitlab.com/tozd/go/errors"
)

// File is the per-tree ignore file read from the scan root.
const File = ".capibaraignore"

var defaultRules = []string{
	".git/",
	".hg/",
	".svn/",
}

// Matcher applies gitignore rules with "last rule wins" behavior.
type Matcher struct {
	gi *gitignore.GitIgnore
}

// NewMatcher builds a matcher from user rules. Default excludes are prepended
// and can be overridden by user negation rules.
func NewMatcher(userRules []string) *Matcher {
	all := make([]string, 0, len(defaultRules)+len(userRules))
	all = append(all, defaultRules...)
	for _, line := range userRules {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		all = append(all, line)
	}
	return &Matcher{gi: gitignore.CompileIgnoreLines(all...)}
}

// ShouldIgnore returns true when relPath should be excluded.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	if m == nil || m.gi == nil {
		return false
	}
	relPath = normalizePath(relPath)
	if relPath == "" || relPath == "." {
		return false
	}
	if m.gi.MatchesPath(relPath) {
		return true
	}
	return isDir && m.gi.MatchesPath(relPath+"/")
}

// LoadRules reads the ignore file at the scan root. A missing file yields no rules.
func LoadRules(rootPath string) ([]string, error) {
	f, err := os.Open(filepath.Join(rootPath, File))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Errorf("failed to read %s: %w", File, err)
	}
	defer f.Close()

	rules := make([]string, 0)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Errorf("failed to parse %s: %w", File, err)
	}
	return rules, nil
}

func normalizePath(path string) string {
	path = filepath.ToSlash(path)
	path = strings.TrimPrefix(path, "./")
	path = strings.TrimPrefix(path, "/")
	return path
}
