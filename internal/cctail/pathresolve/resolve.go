// Package pathresolve maps a working directory to exactly one escaped log
// directory under ~/.claude/projects/, per spec §4.1. Grounded on the
// teacher's parser/session.go (CurrentProjectDir, resolveGitRoot) and
// parser/project.go (findGitRepoRoot worktree handling).
package pathresolve

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Kind classifies why resolution failed, per spec §7.
type Kind int

const (
	KindNotFound Kind = iota
	KindAmbiguous
	KindGitQueryFailed
)

// Error reports a resolution failure with its classification.
type Error struct {
	Kind Kind
	Dir  string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindAmbiguous:
		return "ambiguous project directory for " + e.Dir
	case KindGitQueryFailed:
		return "git root query failed for " + e.Dir
	default:
		return "project not found for " + e.Dir
	}
}

// Resolve implements spec §4.1's algorithm. explicitOverride, when non-empty,
// is used verbatim (caller-supplied --project). Otherwise the working
// directory is escaped and tested under projectsRoot; on a miss, each parent
// directory is tried in turn; on a further miss, the git root (if any) is
// tried. Ambiguity — multiple candidate escapes with existing directories —
// is resolved by picking the longest escaped path rather than failing.
func Resolve(workingDir, explicitOverride, projectsRoot string) (string, error) {
	if explicitOverride != "" {
		return explicitOverride, nil
	}
	if projectsRoot == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", &Error{Kind: KindNotFound, Dir: workingDir}
		}
		projectsRoot = filepath.Join(home, ".claude", "projects")
	}

	workingDir = filepath.Clean(workingDir)

	var candidates []string
	for dir := workingDir; ; {
		candidates = append(candidates, escape(dir))
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if gitRoot, err := findGitRoot(workingDir); err == nil && gitRoot != "" {
		candidates = append(candidates, escape(gitRoot))
	}

	var existing []string
	seen := map[string]bool{}
	for _, c := range candidates {
		if seen[c] || c == "" {
			continue
		}
		seen[c] = true
		full := filepath.Join(projectsRoot, c)
		if info, err := os.Stat(full); err == nil && info.IsDir() {
			existing = append(existing, full)
		}
	}

	switch len(existing) {
	case 0:
		return "", &Error{Kind: KindNotFound, Dir: workingDir}
	case 1:
		return existing[0], nil
	default:
		// Ambiguous: resolved via longest escaped path per §4.1. The
		// ambiguity itself is not reported: Resolve returns the longest
		// match with a nil error and never returns KindAmbiguous.
		longest := existing[0]
		for _, c := range existing[1:] {
			if len(c) > len(longest) {
				longest = c
			}
		}
		return longest, nil
	}
}

// escape replaces every path separator with "-" and strips the leading "-",
// per the GLOSSARY's "Escaped path" definition.
func escape(dir string) string {
	escaped := strings.ReplaceAll(dir, string(filepath.Separator), "-")
	return strings.TrimPrefix(escaped, "-")
}

// findGitRoot walks up from dir looking for a .git entry, following worktree
// .git files back to the main repository root (ported from the teacher's
// resolveGitRoot/findGitRepoRoot). A failure here is non-fatal per §4.1
// ("GitQueryFailed ... treated as no git root").
func findGitRoot(dir string) (string, error) {
	current := dir
	for {
		gitPath := filepath.Join(current, ".git")
		info, err := os.Lstat(gitPath)
		if err == nil {
			if info.IsDir() {
				return current, nil
			}
			if info.Mode().IsRegular() {
				if root := rootFromWorktreeFile(gitPath); root != "" {
					return root, nil
				}
				return "", errors.New("unresolvable git worktree file")
			}
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", nil
		}
		current = parent
	}
}

// rootFromWorktreeFile resolves a worktree's main repo root from its .git
// file contents ("gitdir: /path/to/main/.git/worktrees/<name>").
func rootFromWorktreeFile(gitFilePath string) string {
	data, err := os.ReadFile(gitFilePath)
	if err != nil {
		return ""
	}
	content := strings.TrimSpace(string(data))
	const prefix = "gitdir:"
	if !strings.HasPrefix(strings.ToLower(content), prefix) {
		return ""
	}
	gitdir := strings.TrimSpace(content[len(prefix):])
	if !filepath.IsAbs(gitdir) {
		gitdir = filepath.Clean(filepath.Join(filepath.Dir(gitFilePath), gitdir))
	}
	mainGitDir := filepath.Clean(filepath.Join(gitdir, "..", ".."))
	mainRoot := filepath.Dir(mainGitDir)
	if fi, err := os.Stat(filepath.Join(mainRoot, ".git")); err == nil && fi.IsDir() {
		return mainRoot
	}
	return ""
}
