package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kindredapp/kindred/internal/realtime"
	"github.com/kindredapp/kindred/internal/version"
	"github.com/kindredapp/kindred/protocol/wire"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(""), &out)
	return out.String(), err
}

func TestVersionAndHelp(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	require.Equal(t, "kindred "+version.Full()+"\n", out)

	out, err = runCLI(t, "help")
	require.NoError(t, err)
	require.Contains(t, out, "profile set")
	require.Contains(t, out, "--server-url")
}

func TestUnknownSubcommand(t *testing.T) {
	_, err := runCLI(t, "--home", t.TempDir(), "teleport")
	require.Error(t, err)
}

func TestProfileLifecycle(t *testing.T) {
	home := t.TempDir()

	out, err := runCLI(t, "--home", home, "profile", "show")
	require.NoError(t, err)
	require.Equal(t, "not signed in\n", out)

	_, err = runCLI(t, "--home", home, "profile", "set", "--name", "Alice")
	require.Error(t, err)

	out, err = runCLI(t, "--home", home, "profile", "set",
		"--id", "user-alice", "--name", "Alice", "--partner-id", "user-sam", "--partner-name", "Sam")
	require.NoError(t, err)
	require.Contains(t, out, filepath.Join(home, "profile.json"))

	out, err = runCLI(t, "--home", home, "profile")
	require.NoError(t, err)
	require.Contains(t, out, `"id": "user-alice"`)
	require.Contains(t, out, `"partnerName": "Sam"`)

	_, err = runCLI(t, "--home", home, "profile", "clear")
	require.NoError(t, err)
	out, err = runCLI(t, "--home", home, "profile", "show")
	require.NoError(t, err)
	require.Equal(t, "not signed in\n", out)
}

func TestRunRequiresProfile(t *testing.T) {
	_, err := runCLI(t, "--home", t.TempDir(), "run")
	require.ErrorContains(t, err, "no signed-in user")
}

func TestRunRejectsBadConfig(t *testing.T) {
	_, err := runCLI(t, "--home", t.TempDir(), "--server-url", "ftp://example.com", "run")
	require.Error(t, err)
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want command
		ok   bool
		err  bool
	}{
		{line: "   ", ok: false},
		{line: "help", want: command{kind: cmdHelp}, ok: true},
		{line: "EXIT", want: command{kind: cmdQuit}, ok: true},
		{line: "mood 🥰 Very loved", want: command{kind: cmdMood, emoji: "🥰", label: "Very loved"}, ok: true},
		{line: "mood", err: true},
		{line: "nudge", want: command{kind: cmdNudge}, ok: true},
		{line: "nudge hug", want: command{kind: cmdNudge, nudge: "hug"}, ok: true},
		{line: "nudge hug kiss", err: true},
		{
			line: "scribble M0 0 L10 10",
			want: command{kind: cmdScribble, paths: []wire.PathSegment{
				{D: "M0 0 L10 10", Color: defaultScribbleColor, StrokeWidth: defaultScribbleWidth},
			}},
			ok: true,
		},
		{
			line: "scribble color=#ff0000 width=5.5 M1 1",
			want: command{kind: cmdScribble, paths: []wire.PathSegment{
				{D: "M1 1", Color: "#ff0000", StrokeWidth: 5.5},
			}},
			ok: true,
		},
		{line: "scribble width=0 M1 1", err: true},
		{line: "scribble size=3 M1 1", err: true},
		{line: "scribble color=#fff", err: true},
		{line: "refresh", want: command{kind: cmdRefresh, refresh: refreshAll}, ok: true},
		{line: "refresh Mood", want: command{kind: cmdRefresh, refresh: refreshMood}, ok: true},
		{line: "refresh weather", err: true},
		{line: "background", want: command{kind: cmdAppState, appState: realtime.AppStateBackground}, ok: true},
		{line: "foreground", want: command{kind: cmdAppState, appState: realtime.AppStateActive}, ok: true},
		{line: "dance", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok, err := parseCommand(tt.line)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestPromptWithoutSession(t *testing.T) {
	var buf bytes.Buffer
	bus := &realtime.AppStateBus{}
	var states []realtime.AppState
	bus.Subscribe(func(s realtime.AppState) { states = append(states, s) })

	sh := &shell{out: &syncWriter{w: &buf}, bus: bus}
	in := strings.NewReader("state\nbogus\nmood 🥰 Loved\nbackground\nforeground\nquit\nstate\n")

	require.NoError(t, prompt(context.Background(), sh, in))

	out := buf.String()
	require.Contains(t, out, `"connection": "disconnected"`)
	require.Contains(t, out, `unknown command "bogus"`)
	require.Equal(t, 1, strings.Count(out, `"connection"`), "commands after quit must not run")
	require.Equal(t, []realtime.AppState{realtime.AppStateBackground, realtime.AppStateActive}, states)
}

func TestPromptStopsOnEOF(t *testing.T) {
	var buf bytes.Buffer
	sh := &shell{out: &syncWriter{w: &buf}, bus: &realtime.AppStateBus{}}
	require.NoError(t, prompt(context.Background(), sh, strings.NewReader("help\n")))
	require.Contains(t, buf.String(), "commands:")
}
