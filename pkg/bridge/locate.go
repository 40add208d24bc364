package bridge

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// EnvWorker names a worker executable, overriding the search.
const EnvWorker = "KICADBRIDGE_WORKER"

// ExecutableName is the base name of the kicadbridge binary.
const ExecutableName = "kicadbridge"

func exeName() string {
	if runtime.GOOS == "windows" {
		return ExecutableName + ".exe"
	}
	return ExecutableName
}

// candidate is one place the worker may live.
type candidate struct {
	source string
	path   string
}

// candidates lists the search order after an explicit worker path:
// $KICADBRIDGE_WORKER, configured candidates, the running executable when
// it is kicadbridge itself, a sibling kicadbridge, $PATH, then the
// conventional install locations.
func (o *options) candidates() []candidate {
	var cs []candidate
	if env := os.Getenv(EnvWorker); env != "" {
		cs = append(cs, candidate{"$" + EnvWorker, env})
	}
	for _, p := range o.extraCandidates {
		cs = append(cs, candidate{"config", p})
	}
	if self, err := os.Executable(); err == nil {
		if strings.TrimSuffix(filepath.Base(self), ".exe") == ExecutableName {
			cs = append(cs, candidate{"self", self})
		}
		cs = append(cs, candidate{"sibling", filepath.Join(filepath.Dir(self), exeName())})
	}
	if p, err := exec.LookPath(ExecutableName); err == nil {
		cs = append(cs, candidate{"$PATH", p})
	}
	for _, p := range o.installDirs {
		cs = append(cs, candidate{"install", filepath.Join(p, exeName())})
	}
	return cs
}

func defaultInstallDirs() []string {
	if runtime.GOOS == "windows" {
		var dirs []string
		if pf := os.Getenv("ProgramFiles"); pf != "" {
			dirs = append(dirs, filepath.Join(pf, ExecutableName))
		}
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			dirs = append(dirs, filepath.Join(local, "Programs", ExecutableName))
		}
		return dirs
	}
	return []string{"/usr/local/bin", "/usr/bin"}
}

// usable reports whether path is an existing executable regular file.
func usable(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	if st.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if runtime.GOOS != "windows" && st.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}

// locate resolves the worker executable. An explicit path must be usable;
// the other candidates are probed in order and skipped when missing.
func locate(o *options, log logrus.FieldLogger) (string, error) {
	if o.worker != "" {
		if err := usable(o.worker); err != nil {
			return "", fmt.Errorf("configured worker is not usable: %w", err)
		}
		return o.worker, nil
	}

	var errs []error
	for _, c := range o.candidates() {
		err := usable(c.path)
		if err == nil {
			log.WithFields(logrus.Fields{"source": c.source, "path": c.path}).Debug("Found worker")
			return c.path, nil
		}
		log.WithFields(logrus.Fields{"source": c.source, "path": c.path}).WithError(err).Debug("Skipping worker candidate")
		errs = append(errs, fmt.Errorf("%s: %w", c.source, err))
	}
	if len(errs) == 0 {
		return "", errors.New("no kicadbridge worker candidates to probe")
	}
	return "", fmt.Errorf("no usable kicadbridge worker found: %w", errors.Join(errs...))
}
