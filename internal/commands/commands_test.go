package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klabast/wb-services/treatment-calendar/internal/program"
)

const sampleProgram = `{
	"week14": [{"weekday": "MONDAY", "title": "Run", "completed": true}],
	"week15": [{"weekday": "WEDNESDAY", "title": "Swim", "completed": false}],
	"week16": [{"weekday": "MONDAY", "title": "Walk", "completed": true},
	           {"weekday": "FRIDAY", "title": "Bike", "completed": false}]
}`

func writeProgram(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "program.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCmd(t *testing.T) {
	out, err := run(t, "", "validate", "--date", "2024-04-15", writeProgram(t, sampleProgram))
	require.NoError(t, err)

	var res program.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.IsValid)
}

func TestValidateCmd_Rejected(t *testing.T) {
	out, err := run(t, `{"week1": []}`, "validate", "--date", "2024-04-15", "-")
	assert.ErrorIs(t, err, errRejected)

	var res program.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, program.MsgNotThreeWeeks, res.ErrorMessage)
}

func TestValidateCmd_Errors(t *testing.T) {
	_, err := run(t, "", "validate", "--date", "15.04.2024", "-")
	assert.ErrorContains(t, err, "expected YYYY-MM-DD")

	_, err = run(t, "", "validate", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "reading program")

	_, err = run(t, "", "validate")
	assert.Error(t, err)
}

func TestMonthCmd(t *testing.T) {
	out, err := run(t, "", "month", "--date", "2024-04-15", writeProgram(t, sampleProgram))
	require.NoError(t, err)

	assert.Contains(t, out, "April 2024")
	assert.Contains(t, out, "MON")
	assert.Contains(t, out, "16 SWIM")
	assert.Contains(t, out, "(from 2024-04-10)")
	assert.Contains(t, out, "scheduled 3 · rolled over 1 · unplaced 0")
}

func TestMonthCmd_EmptyMonth(t *testing.T) {
	out, err := run(t, "", "month", "--date", "2021-02-10")
	require.NoError(t, err)
	assert.Contains(t, out, "February 2021")
	assert.Contains(t, out, "scheduled 0 · rolled over 0 · unplaced 0")
}

func TestMonthCmd_BadProgram(t *testing.T) {
	_, err := run(t, `{"week1": [{"weekday": "FUNDAY", "title": "x", "completed": false}]}`, "month", "-")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "WALK", truncate("WALK", 8))
	assert.Equal(t, "STRETCH…", truncate("STRETCHING", 8))
}
