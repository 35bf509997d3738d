package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickerCommand(t *testing.T) {
	name, args, err := pickerCommand("darwin", `/Users/me/My "Code"`)
	require.NoError(t, err)
	assert.Equal(t, "osascript", name)
	require.Len(t, args, 2)
	assert.Equal(t, `POSIX path of (choose folder with prompt "Choose the folder that contains your projects" default location POSIX file "/Users/me/My \"Code\"")`, args[1])

	name, args, err = pickerCommand("linux", "/home/me/code/")
	require.NoError(t, err)
	assert.Equal(t, "zenity", name)
	assert.Contains(t, args, "--directory")
	assert.Contains(t, args, "--filename=/home/me/code/")

	_, _, err = pickerCommand("plan9", "")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name   string
		out    string
		want   string
		wantOK bool
	}{
		{name: "trailing slash", out: "/Users/me/code/\n", want: "/Users/me/code", wantOK: true},
		{name: "plain", out: "/home/me/code\n", want: "/home/me/code", wantOK: true},
		{name: "filesystem root", out: "/\n", want: "/", wantOK: true},
		{name: "empty", out: "\n", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseSelection(tt.out)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPickerCommandWithoutDefault(t *testing.T) {
	_, args, err := pickerCommand("darwin", "")
	require.NoError(t, err)
	assert.NotContains(t, args[1], "default location")
}
