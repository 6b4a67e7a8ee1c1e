package hotkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccelerator(t *testing.T) {
	tests := []struct {
		in      string
		want    Accelerator
		wantErr bool
	}{
		{in: "Alt+Space", want: Accelerator{Mods: ModAlt, Key: "space"}},
		{in: "Ctrl+J", want: Accelerator{Mods: ModCtrl, Key: "j"}},
		{in: "ctrl + shift + F9", want: Accelerator{Mods: ModCtrl | ModShift, Key: "f9"}},
		{in: "Cmd+Option+Space", want: Accelerator{Mods: ModSuper | ModAlt, Key: "space"}},
		{in: "Space", want: Accelerator{Key: "space"}},
		{in: "Alt", want: Accelerator{Key: "alt"}},
		{in: "", wantErr: true},
		{in: "Alt+", wantErr: true},
		{in: "J+Space", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAccelerator(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAcceleratorString(t *testing.T) {
	a, err := ParseAccelerator("shift+ctrl+space")
	require.NoError(t, err)
	assert.Equal(t, "Ctrl+Shift+Space", a.String())
}
