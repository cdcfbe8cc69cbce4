// Package configpaths locates lwclone configuration and board files.
package configpaths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "lwclone"

var extensions = []string{".json", ".yaml", ".yml", ".toml"}

// DefaultConfigDir returns the platform-specific configuration directory for lwclone.
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		if appdata := os.Getenv("AppData"); appdata != "" {
			return filepath.Join(appdata, appName), nil
		}
		return "", errors.New("AppData not set")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config", appName), nil
	}
	return "", errors.New("HOME not set")
}

// EnsureDir ensures the directory for a given file path exists.
func EnsureDir(filePath string) error {
	return os.MkdirAll(filepath.Dir(filePath), 0o755)
}

// searchDirs lists the directories probed for config files, highest
// priority first: the working directory, the user config dir and /etc/lwclone.
func searchDirs() []string {
	var dirs []string
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if dir, err := DefaultConfigDir(); err == nil {
		dirs = append(dirs, dir)
	}
	if runtime.GOOS != "windows" {
		dirs = append(dirs, filepath.Join("/etc", appName))
	}
	return dirs
}

// ConfigCandidatePaths builds candidate paths for config files per format.
// If userPath is provided, it comes first and goes to the loader matching its
// extension (JSON when unknown).
func ConfigCandidatePaths(userPath string) (jsonPaths, yamlPaths, tomlPaths []string) {
	add := func(p string) {
		switch filepath.Ext(p) {
		case ".yaml", ".yml":
			yamlPaths = append(yamlPaths, p)
		case ".toml":
			tomlPaths = append(tomlPaths, p)
		default:
			jsonPaths = append(jsonPaths, p)
		}
	}
	if userPath != "" {
		add(userPath)
	}
	for i, dir := range searchDirs() {
		bases := []string{"config", "serve"}
		if i == 0 {
			// a bare lwclone.* in the working directory also counts
			bases = append([]string{appName}, bases...)
		}
		for _, base := range bases {
			for _, ext := range extensions {
				add(filepath.Join(dir, base+ext))
			}
		}
	}
	return
}

// FindBoard returns the first board file found in the search directories,
// or "" when there is none.
func FindBoard() string {
	for _, dir := range searchDirs() {
		for _, ext := range extensions {
			p := filepath.Join(dir, "board"+ext)
			if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
				return p
			}
		}
	}
	return ""
}
