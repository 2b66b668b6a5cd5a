package application

import (
	"os"
	"os/user"
	"runtime"
	"sort"
	"strings"
)

const maxVisibleEntries = 20

// Environment assembles the environment block sent with every request. The
// block is rebuilt only when the working directory changes.
type Environment struct {
	getwd    func() (string, error)
	readDir  func(string) ([]os.DirEntry, error)
	username func() string
	platform string

	cachedFor string
	cached    string
}

func NewEnvironment() *Environment {
	return &Environment{
		getwd:    os.Getwd,
		readDir:  os.ReadDir,
		username: currentUsername,
		platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (e *Environment) Context() string {
	cwd, err := e.getwd()
	if err != nil {
		cwd = "."
	}
	if e.cached != "" && e.cachedFor == cwd {
		return e.cached
	}

	var files, dirs []string
	if entries, err := e.readDir(cwd); err == nil {
		for _, entry := range entries {
			name := entry.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}
			if entry.IsDir() {
				dirs = append(dirs, name)
			} else {
				files = append(files, name)
			}
		}
	}

	var b strings.Builder
	b.WriteString("[ENVIRONMENT CONTEXT]\n")
	b.WriteString("RULE: ONLY REFERENCE ENVIRONMENT CONTEXT IF IT IS RELEVANT TO THE CONVERSATION\n")
	b.WriteString("Current User: " + e.username() + "\n")
	b.WriteString("Operating System: " + e.platform + "\n")
	b.WriteString("Working Directory: " + cwd + "\n")
	b.WriteString("Visible Files: " + visibleList(files) + "\n")
	b.WriteString("Visible Directories: " + visibleList(dirs))

	e.cachedFor = cwd
	e.cached = b.String()
	return e.cached
}

// Invalidate forces the next Context call to list the directory again.
func (e *Environment) Invalidate() {
	e.cached = ""
	e.cachedFor = ""
}

func visibleList(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	sort.Strings(names)
	if len(names) > maxVisibleEntries {
		names = names[:maxVisibleEntries]
	}
	return strings.Join(names, ", ")
}

func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "unknown"
}
