package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandTilde replaces a leading ~ or ~/ with the user's home directory.
// ~username is left alone.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// ExpandLocalPath expands ${HOME}, ${USER} and a leading ~ in a path on this
// machine. Other ${VAR} references are kept as written, since download_dir
// is the only place it is applied and agent-side paths never go through it.
func ExpandLocalPath(s string) string {
	if s == "" {
		return s
	}
	s = strings.NewReplacer("${HOME}", homeDir(), "${USER}", userName()).Replace(s)
	return ExpandTilde(s)
}

func userName() string {
	for _, key := range []string{"USER", "LOGNAME", "USERNAME"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return "user"
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "~"
}
