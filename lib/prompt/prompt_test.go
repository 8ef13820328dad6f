package prompt

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interactive() bool { return true }

func TestTerminal_Confirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes \r\n", true},
		{"n\n", false},
		{"\n", false},
		{"maybe\n", false},
		{"y", true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			term := &Terminal{In: strings.NewReader(tt.input), Out: &out, IsTerminal: interactive}

			got, err := term.Confirm(context.Background(), "Reboot?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Reboot? [y/N] ", out.String())
		})
	}
}

func TestTerminal_NotInteractive(t *testing.T) {
	term := &Terminal{In: strings.NewReader("y\n"), Out: io.Discard, IsTerminal: func() bool { return false }}

	ok, err := term.Confirm(context.Background(), "Start?")
	assert.ErrorIs(t, err, ErrNotInteractive)
	assert.False(t, ok)
}

func TestTerminal_Cancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	term := &Terminal{In: r, Out: io.Discard, IsTerminal: interactive}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := term.Confirm(ctx, "Start?")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAuto(t *testing.T) {
	var out bytes.Buffer
	ok, err := Auto{Answer: true, Out: &out}.Confirm(context.Background(), "Reboot?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Reboot? yes\n", out.String())

	ok, err = Auto{}.Confirm(context.Background(), "Reboot?")
	require.NoError(t, err)
	assert.False(t, ok)
}
