package eval

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// LookPath resolves a command name against PATH. Names containing a slash
// are probed directly and never searched. Empty PATH entries mean the
// current directory.
func (st *State) LookPath(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if strings.ContainsRune(name, '/') {
		if executable(name) {
			return name, true
		}
		return "", false
	}
	for _, dir := range st.pathList() {
		if dir == "" {
			dir = "."
		}
		full := filepath.Join(dir, name)
		if executable(full) {
			return full, true
		}
	}
	return "", false
}

func (st *State) pathList() []string {
	path, ok := st.Var("PATH")
	if !ok || path == "" {
		path = os.Getenv("PATH")
	}
	if path == "" {
		return nil
	}
	return strings.Split(path, string(os.PathListSeparator))
}

func executable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return unix.Access(path, unix.X_OK) == nil
}
