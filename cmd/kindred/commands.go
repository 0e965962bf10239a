package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/kindredapp/kindred/internal/realtime"
	"github.com/kindredapp/kindred/protocol/wire"
)

const (
	defaultScribbleColor = "#000000"
	defaultScribbleWidth = 3
)

// errQuit ends the interactive loop.
var errQuit = errors.New("quit")

type commandKind int

const (
	cmdHelp commandKind = iota
	cmdQuit
	cmdState
	cmdConnect
	cmdDisconnect
	cmdMood
	cmdNudge
	cmdScribble
	cmdRefresh
	cmdAppState
)

// refresh targets
const (
	refreshAll      = "all"
	refreshPresence = "presence"
	refreshMood     = "mood"
	refreshScribble = "scribble"
)

type command struct {
	kind commandKind

	emoji, label string
	nudge        string
	paths        []wire.PathSegment
	refresh      string
	appState     realtime.AppState
}

// parseCommand parses one line typed at the prompt. An empty line parses to
// a zero command with ok false.
func parseCommand(line string) (cmd command, ok bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, false, nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "help", "?":
		return command{kind: cmdHelp}, true, nil
	case "quit", "exit":
		return command{kind: cmdQuit}, true, nil
	case "state":
		return command{kind: cmdState}, true, nil
	case "connect":
		return command{kind: cmdConnect}, true, nil
	case "disconnect":
		return command{kind: cmdDisconnect}, true, nil

	case "mood":
		if len(args) == 0 {
			return command{}, false, errors.New("usage: mood <emoji> [label]")
		}
		return command{kind: cmdMood, emoji: args[0], label: strings.Join(args[1:], " ")}, true, nil

	case "nudge":
		if len(args) > 1 {
			return command{}, false, errors.New("usage: nudge [type]")
		}
		c := command{kind: cmdNudge}
		if len(args) == 1 {
			c.nudge = args[0]
		}
		return c, true, nil

	case "scribble":
		seg, err := parseSegment(args)
		if err != nil {
			return command{}, false, err
		}
		return command{kind: cmdScribble, paths: []wire.PathSegment{seg}}, true, nil

	case "refresh":
		target := refreshAll
		if len(args) > 0 {
			target = strings.ToLower(args[0])
		}
		switch target {
		case refreshAll, refreshPresence, refreshMood, refreshScribble:
		default:
			return command{}, false, fmt.Errorf("unknown refresh target %q", target)
		}
		return command{kind: cmdRefresh, refresh: target}, true, nil

	case "foreground", "active", "background", "inactive":
		st, err := realtime.ParseAppState(name)
		if err != nil {
			return command{}, false, err
		}
		return command{kind: cmdAppState, appState: st}, true, nil

	default:
		return command{}, false, fmt.Errorf("unknown command %q (try help)", name)
	}
}

// parseSegment reads "[color=#rrggbb] [width=n] <path data...>".
func parseSegment(args []string) (wire.PathSegment, error) {
	seg := wire.PathSegment{Color: defaultScribbleColor, StrokeWidth: defaultScribbleWidth}
	for len(args) > 0 {
		key, val, found := strings.Cut(args[0], "=")
		if !found {
			break
		}
		switch key {
		case "color":
			seg.Color = val
		case "width":
			w, err := strconv.ParseFloat(val, 64)
			if err != nil || w <= 0 {
				return seg, fmt.Errorf("invalid width %q", val)
			}
			seg.StrokeWidth = w
		default:
			return seg, fmt.Errorf("unknown scribble option %q", key)
		}
		args = args[1:]
	}
	if len(args) == 0 {
		return seg, errors.New("usage: scribble [color=#rrggbb] [width=n] <path data>")
	}
	seg.D = strings.Join(args, " ")
	return seg, nil
}

// shell executes parsed commands against the session carried by its context.
type shell struct {
	out *syncWriter
	bus *realtime.AppStateBus
}

func (sh *shell) execute(ctx context.Context, cmd command) error {
	s := realtime.FromContext(ctx)

	switch cmd.kind {
	case cmdHelp:
		sh.out.Println(interactiveHelp)
	case cmdQuit:
		return errQuit
	case cmdState:
		raw, err := json.MarshalIndent(s.State(), "", "  ")
		if err != nil {
			return err
		}
		sh.out.Println(string(raw))
	case cmdConnect:
		s.Connect()
	case cmdDisconnect:
		s.Disconnect()
	case cmdMood:
		s.Mood().UpdateMood(cmd.emoji, cmd.label)
	case cmdNudge:
		s.Presence().SendNudge(cmd.nudge)
	case cmdScribble:
		s.Scribbles().SendScribble(cmd.paths)
	case cmdRefresh:
		if cmd.refresh == refreshAll || cmd.refresh == refreshPresence {
			s.Presence().RefreshPresence()
		}
		if cmd.refresh == refreshAll || cmd.refresh == refreshMood {
			s.Mood().RefreshPartnerMood()
		}
		if cmd.refresh == refreshAll || cmd.refresh == refreshScribble {
			s.Scribbles().RefreshScribble()
		}
	case cmdAppState:
		sh.bus.Publish(cmd.appState)
	}
	return nil
}

const interactiveHelp = `commands:
  mood <emoji> [label]                         set your mood
  nudge [type]                                 nudge your partner
  scribble [color=#hex] [width=n] <path data>  send a one-stroke drawing
  refresh [all|presence|mood|scribble]         request fresh snapshots
  state                                        print the reconciled state
  connect | disconnect                         manage the connection
  foreground | background | inactive           simulate app lifecycle
  quit`

// syncWriter serializes writes from the prompt and from session observers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Println(a ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.w, a...)
}

func (w *syncWriter) Printf(format string, a ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.w, format, a...)
}
