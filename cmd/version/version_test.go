package version

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmwatch/farmwatch/internal/buildinfo"
)

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	cmd := Command(buildinfo.NewContext("1.2.3", "2026-01-02", "ABCD-1234-EF56"))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "FarmWatch 1.2.3")
	assert.Contains(t, out.String(), "2026-01-02")
	assert.Contains(t, out.String(), "ABCD-1234-EF56")
}

func TestVersionCommandNilContext(t *testing.T) {
	t.Parallel()

	cmd := Command(nil)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), buildinfo.UnknownValue)
}
