package sdroot

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"cifinalize/internal/config"
	"cifinalize/internal/ticket"
)

// Result reports the outcome of a single readiness check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunChecks inspects everything a run touches on disk. It never modifies
// anything.
func RunChecks(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckDirectoryAccess("SD root", cfg.Paths.SDRoot),
		checkPending(cfg.PendingPath()),
	}
	if cfg.Ticket.TemplatePath != "" {
		results = append(results, checkTemplate(cfg.Ticket.TemplatePath))
	}
	return results
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// A missing pending file is not a failure; there is simply nothing to do.
func checkPending(path string) Result {
	const name = "Pending database"
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (absent, nothing to finalize)", path)}
	case err != nil:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	case info.IsDir():
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d bytes)", path, info.Size())}
}

func checkTemplate(path string) Result {
	const name = "Ticket template"
	if _, err := ticket.LoadTemplate(path); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: path}
}
