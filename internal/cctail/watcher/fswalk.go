package watcher

import (
	"os"
	"path/filepath"
)

// matchesJSONL reports whether path has the .jsonl extension (spec §4.5:
// "filters events to paths matching *.jsonl").
func matchesJSONL(path string) bool {
	return filepath.Ext(path) == ".jsonl"
}

// statIsDir reports whether path currently exists and is a directory.
func statIsDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// filepathGlobDirs finds every `subagents` directory nested one level below
// a session directory under projectDir, so the initial fsnotify.Add pass
// covers subagent files that existed before the watcher started.
func filepathGlobDirs(projectDir string) ([]string, error) {
	top, err := os.ReadDir(projectDir)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range top {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(projectDir, e.Name(), "subagents")
		if info, err := os.Stat(sub); err == nil && info.IsDir() {
			dirs = append(dirs, sub)
		}
	}
	return dirs, nil
}
