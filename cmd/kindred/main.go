package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/kindredapp/kindred/internal/config"
	"github.com/kindredapp/kindred/internal/debugserver"
	"github.com/kindredapp/kindred/internal/realtime"
	"github.com/kindredapp/kindred/internal/storage"
	"github.com/kindredapp/kindred/internal/version"
	"github.com/kindredapp/kindred/pkg/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout)
	cancel()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	fs := pflag.NewFlagSet("kindred", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	config.BindFlags(fs)
	fs.SetInterspersed(false)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printUsage(out, fs)
			return nil
		}
		return err
	}

	rest := fs.Args()
	sub := "run"
	if len(rest) > 0 {
		sub, rest = rest[0], rest[1:]
	}

	switch sub {
	case "help":
		printUsage(out, fs)
		return nil
	case "version":
		fmt.Fprintf(out, "kindred %s\n", version.Full())
		return nil
	}

	cfg, err := config.Load(config.Options{Flags: fs})
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.SetLevel(cfg.Level())

	switch sub {
	case "run":
		return runClient(ctx, cfg, in, out)
	case "profile":
		return profileCommand(cfg, rest, out)
	default:
		printUsage(out, fs)
		return fmt.Errorf("unknown command %q", sub)
	}
}

func runClient(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	instance := uuid.NewString()
	logger.Infof("kindred %s starting (instance %s)", version.Full(), instance)
	logger.Infof("home: %s, server: %s", cfg.Home, cfg.ServerURL)

	profile := storage.NewProfileStore(cfg.ProfilePath)
	user, err := profile.GetUser()
	if err != nil {
		return fmt.Errorf("failed to read profile: %w", err)
	}
	if user == nil {
		return errors.New("no signed-in user; run `kindred profile set --id <user id>` first")
	}

	widget, err := storage.OpenWidgetStore(cfg.WidgetDBPath)
	if err != nil {
		return err
	}
	defer widget.Close()

	bus := &realtime.AppStateBus{}
	session, err := realtime.NewSession(realtime.Options{
		Dial:      realtime.SocketDialer(cfg.Socket()),
		Profile:   profile,
		Widget:    widget,
		Lifecycle: bus,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	w := &syncWriter{w: out}
	watch(session, w)

	ctx, cancel := context.WithCancel(realtime.NewContext(ctx, session))
	defer cancel()

	session.Connect()
	w.Printf("signed in as %s (%s); type help for commands\n", user.Name, user.ID)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return prompt(ctx, &shell{out: w, bus: bus}, in)
	})
	if cfg.DebugAddr != "" {
		srv := debugserver.New(debugserver.Config{
			Addr:     cfg.DebugAddr,
			State:    session,
			AppState: bus.Publish,
		})
		g.Go(func() error { return srv.Run(ctx) })
	}
	return g.Wait()
}

// watch prints connection, presence and mood changes as they are reconciled.
func watch(s *realtime.Session, w *syncWriter) {
	prev := s.State()
	s.Subscribe(func(st realtime.State) {
		if st.Connection != prev.Connection {
			w.Printf("* connection: %s\n", st.Connection)
		}
		if st.PartnerOnline != prev.PartnerOnline {
			if st.PartnerOnline {
				w.Println("* partner is online")
			} else {
				w.Println("* partner is offline")
			}
		}
		if st.PartnerScribble != nil && st.PartnerScribble != prev.PartnerScribble {
			w.Printf("* scribble from %s (%d strokes)\n",
				st.PartnerScribble.FromUserName, len(st.PartnerScribble.Paths))
		}
		prev = st
	})
	s.OnMoodUpdated(func(u realtime.MoodUpdate) {
		if u.Mood == nil {
			w.Printf("* %s mood cleared\n", u.Source)
			return
		}
		w.Printf("* %s mood: %s %s\n", u.Source, u.Mood.Emoji, u.Mood.Label)
	})
	s.OnScribbleError(func(e realtime.ScribbleError) {
		w.Printf("! scribble not delivered: %s\n", e.Message)
	})
}

// prompt reads commands until quit, EOF or cancellation.
func prompt(ctx context.Context, sh *shell, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case line := <-lines:
			cmd, ok, err := parseCommand(line)
			if err != nil {
				sh.out.Printf("! %v\n", err)
				continue
			}
			if !ok {
				continue
			}
			if err := sh.execute(ctx, cmd); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				sh.out.Printf("! %v\n", err)
			}
		}
	}
}

func profileCommand(cfg *config.Config, args []string, out io.Writer) error {
	store := storage.NewProfileStore(cfg.ProfilePath)
	action := "show"
	if len(args) > 0 {
		action, args = args[0], args[1:]
	}

	switch action {
	case "show":
		u, err := store.GetUser()
		if err != nil {
			return err
		}
		if u == nil {
			fmt.Fprintln(out, "not signed in")
			return nil
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(u)

	case "set":
		fs := pflag.NewFlagSet("profile set", pflag.ContinueOnError)
		fs.SetOutput(io.Discard)
		id := fs.String("id", "", "user id (required)")
		name := fs.String("name", "", "display name")
		partnerID := fs.String("partner-id", "", "partner user id")
		partnerName := fs.String("partner-name", "", "partner display name")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == "" {
			return errors.New("profile set: --id is required")
		}
		err := store.SaveUser(storage.User{
			ID:          *id,
			Name:        *name,
			PartnerID:   *partnerID,
			PartnerName: *partnerName,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "saved profile to %s\n", store.Path())
		return nil

	case "clear":
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(out, "signed out")
		return nil

	default:
		return fmt.Errorf("unknown profile action %q (expected show, set or clear)", action)
	}
}

func printUsage(out io.Writer, fs *pflag.FlagSet) {
	fmt.Fprint(out, `kindred - realtime partner sync client

Usage:
  kindred [flags] [run]          Connect and start the interactive prompt
  kindred [flags] profile show   Show the signed-in profile
  kindred [flags] profile set --id <id> [--name n] [--partner-id p] [--partner-name n]
  kindred [flags] profile clear  Sign out
  kindred version                Show version information
  kindred help                   Show this help message

Flags:
`)
	fmt.Fprint(out, fs.FlagUsages())
	fmt.Fprint(out, `
Environment Variables:
  KINDRED_SERVER_URL    Server URL (default: http://localhost:3000)
  KINDRED_HOME          State directory (default: ~/.kindred)
  KINDRED_LOG_LEVEL     Log level (trace|debug|info|warn|error)
  KINDRED_DEBUG_ADDR    Debug server listen address
  KINDRED_SOCKET_PATH   Socket.IO path (default: /socket.io/)
  KINDRED_TRANSPORT     websocket or polling
  KINDRED_WIRE_DUMP     Set to 1 to dump inbound payloads as test fixtures
`)
}
