package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUI() (*UI, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &UI{Out: out, ErrOut: errOut}, out, errOut
}

func TestInfoAndSuccessGoToOut(t *testing.T) {
	u, out, errOut := newTestUI()
	u.Info("tracking %s", "Writing")
	u.Success("stopped after %d minutes", 25)
	assert.Contains(t, out.String(), "tracking Writing")
	assert.Contains(t, out.String(), "stopped after 25 minutes")
	assert.Empty(t, errOut.String())
}

func TestWarningAndErrorGoToErrOut(t *testing.T) {
	u, out, errOut := newTestUI()
	u.Warning("careful %s", "now")
	u.Error("failed %s", "badly")
	assert.Contains(t, errOut.String(), "careful now")
	assert.Contains(t, errOut.String(), "failed badly")
	assert.Empty(t, out.String())
}

func TestVerboseLog(t *testing.T) {
	u, out, _ := newTestUI()
	u.VerboseLog("hidden")
	assert.Empty(t, out.String())

	u.Verbose = true
	u.VerboseLog("detail %d", 1)
	assert.Contains(t, out.String(), "detail 1")
}

func TestGoalColor(t *testing.T) {
	assert.Contains(t, GoalColor(120), "120%")
	assert.Contains(t, GoalColor(75), "75%")
	assert.Contains(t, GoalColor(10), "10%")
}

func TestFlag(t *testing.T) {
	assert.Empty(t, Flag(false))
	assert.NotEmpty(t, Flag(true))
}

func TestTable(t *testing.T) {
	u, out, _ := newTestUI()
	table := u.Table([]string{"Name", "Color"})
	require.NoError(t, table.Append([]string{"Writing", "#6C63FF"}))
	require.NoError(t, table.Render())
	assert.Contains(t, out.String(), "Writing")
	assert.Contains(t, out.String(), "#6C63FF")
}
