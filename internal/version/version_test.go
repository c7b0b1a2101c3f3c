package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFull(t *testing.T) {
	full := Full()

	assert.True(t, strings.HasPrefix(full, "v"+Short()))
	assert.True(t, strings.HasSuffix(full, runtime.GOOS+"/"+runtime.GOARCH))
	assert.True(t, strings.HasPrefix(Short(), Core()))
}

func TestCommit(t *testing.T) {
	defer func(c string) { commit = c }(commit)

	commit = "abc123"
	assert.Equal(t, "abc123", Commit())
	assert.Contains(t, Full(), "(abc123)")
}
