package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	v, commit, date := Info()
	assert.Equal(t, Version, v)
	assert.Equal(t, GitCommit, commit)
	assert.Equal(t, BuildDate, date)
}

func TestString(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "1.2.3"
	assert.Equal(t, "pitchmap 1.2.3 (commit unknown, built unknown)", String())
}
