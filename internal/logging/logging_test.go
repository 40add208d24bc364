package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestSetupLevels(t *testing.T) {
	log := logrus.New()
	_, err := Setup(log, Options{Debug: true})
	assert.NilError(t, err)
	assert.Equal(t, log.GetLevel(), logrus.DebugLevel)

	_, err = Setup(log, Options{Debug: true, Level: "warn"})
	assert.NilError(t, err)
	assert.Equal(t, log.GetLevel(), logrus.WarnLevel)

	_, err = Setup(log, Options{Level: "chatty"})
	assert.Assert(t, err != nil)
	_, err = Setup(log, Options{Format: "xml"})
	assert.ErrorContains(t, err, "unsupported log-format")
}

func TestSetupFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "worker.log")
	log := logrus.New()
	closer, err := Setup(log, Options{Format: "json", File: path})
	assert.NilError(t, err)

	log.WithField("method", "load_board").Info("Board loaded")
	assert.NilError(t, closer.Close())

	data, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Assert(t, is.Contains(string(data), `"method":"load_board"`))
	assert.Assert(t, is.Contains(string(data), `"msg":"Board loaded"`))
}
