package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/kioskwm/internal/config"
	"github.com/1broseidon/kioskwm/internal/ipc"
	"github.com/1broseidon/kioskwm/internal/kiosk"
)

func TestParseSurfaceID(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"4194305", 4194305, false},
		{"0x400001", 0x400001, false},
		{" 12 ", 12, false},
		{"0", 0, true},
		{"abc", 0, true},
		{"0x1ffffffff", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSurfaceID(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatSource(t *testing.T) {
	assert.Equal(t, "default", formatSource(config.Source{Kind: config.SourceDefault}))
	assert.Equal(t, "file", formatSource(config.Source{Kind: config.SourceFile}))
	assert.Equal(t, "file:/etc/k.yaml", formatSource(config.Source{Kind: config.SourceFile, File: "/etc/k.yaml"}))
	assert.Equal(t, "file:/etc/k.yaml:3:5", formatSource(config.Source{Kind: config.SourceFile, File: "/etc/k.yaml", Line: 3, Column: 5}))
}

func TestPrintStatus_Plain(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, &ipc.StatusData{DaemonRunning: true, UptimeSeconds: 90, Outputs: 2, Windows: 3, MappedWindows: 2, Focused: 0x400001})

	out := buf.String()
	assert.Contains(t, out, "daemon_running: yes")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "3 (2 mapped)")
	assert.Contains(t, out, "0x400001")
	assert.NotContains(t, out, "\x1b[", "no colours when not a terminal")
}

func TestPrintWindows(t *testing.T) {
	var buf bytes.Buffer
	printWindows(&buf, []kiosk.WindowInfo{
		{SurfaceID: 0x400001, AppID: "player", Mode: "fullscreen", Output: 1, Activated: true, Mapped: true, Title: "Main"},
		{SurfaceID: 0x400002, Mode: "normal", Parent: 0x400001},
	})

	out := buf.String()
	assert.Contains(t, out, "APP_ID")
	assert.Contains(t, out, "0x400001")
	assert.Contains(t, out, "normal (unmapped)")
	assert.Contains(t, out, "Main")

	buf.Reset()
	printWindows(&buf, nil)
	assert.Equal(t, "no windows\n", buf.String())
}

func TestPrintOutputs(t *testing.T) {
	var buf bytes.Buffer
	printOutputs(&buf, []kiosk.OutputInfo{{ID: 1, Name: "HDMI-1", Width: 1920, Height: 1080, X: 0, Y: 0, Windows: 1}})

	out := buf.String()
	assert.Contains(t, out, "1920x1080+0+0")
	assert.Contains(t, out, "HDMI-1")

	buf.Reset()
	printOutputs(&buf, nil)
	assert.Equal(t, "no outputs\n", buf.String())
}
