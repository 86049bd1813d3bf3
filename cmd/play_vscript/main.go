package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"golang.org/x/term"

	"github.com/superterminal/voicesynth"
	"github.com/superterminal/voicesynth/internal/logging"
)

const defaultScript = `VOICE 1 WAVEFORM TRIANGLE
VOICE 1 ENVELOPE 5 80 0.6 200
LOOP 2
  VOICE 1 NOTE C4
  VOICE 1 GATE ON
  WAIT 0.5
  VOICE 1 GATE OFF
  VOICE 1 NOTE E4
  VOICE 1 GATE ON
  WAIT 0.5
  VOICE 1 GATE OFF
  VOICE 1 NOTE G4
  VOICE 1 GATE ON
  WAIT 1
  VOICE 1 GATE OFF
END
`

func main() {
	var (
		scriptPath = flag.String("file", "", "path to a voice script")
		inline     = flag.String("script", "", "inline voice script")
		bpm        = flag.Float64("bpm", 120, "script tempo")
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate: 44100|48000|96000")
		backend    = flag.String("backend", "ebiten", "audio backend: ebiten|oto")
		luaPath    = flag.String("lua", "", "run a Lua host script before playback")
		repl       = flag.Bool("repl", false, "read voice-script lines and lua commands interactively")
		seconds    = flag.Float64("seconds", 0, "stop after N seconds (0 = until the script ends)")
		logLevel   = flag.String("log-level", "info", "log level: debug|info|warn|error")
	)
	flag.Parse()

	logger, err := logging.Stderr(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	be, err := voicesynth.ParseBackend(*backend)
	if err != nil {
		log.Fatal(err)
	}
	sys, err := voicesynth.NewSystem(
		voicesynth.WithSampleRate(*sampleRate),
		voicesynth.WithBackend(be),
		voicesynth.WithLogger(logger),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer sys.Close()
	if err := sys.Start(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *luaPath != "" {
		path, err := homedir.Expand(*luaPath)
		if err != nil {
			log.Fatal(err)
		}
		if err := sys.RunLuaFile(path); err != nil {
			log.Fatal(err)
		}
	}
	if *repl {
		if err := runREPL(ctx, sys, *bpm); err != nil {
			log.Fatal(err)
		}
		return
	}
	if *luaPath != "" && *scriptPath == "" && *inline == "" {
		waitFor(ctx, sys, *seconds)
		return
	}

	src, err := resolveScript(*scriptPath, *inline)
	if err != nil {
		log.Fatal(err)
	}
	if err := sys.LoadScript("main", src); err != nil {
		log.Fatal(err)
	}
	if err := sys.PlayScript("main", *bpm); err != nil {
		log.Fatal(err)
	}
	if *seconds > 0 {
		waitFor(ctx, sys, *seconds)
		sys.StopScript()
		return
	}
	done := make(chan struct{})
	go func() {
		sys.WaitScript()
		close(done)
	}()
	select {
	case <-done:
		// Let releases and echoes ring out.
		waitFor(ctx, sys, sys.Voices().TailSeconds())
	case <-ctx.Done():
		sys.StopScript()
	}
	fmt.Println("playback completed")
}

func waitFor(ctx context.Context, sys *voicesynth.System, seconds float64) {
	if seconds <= 0 {
		<-ctx.Done()
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(seconds * float64(time.Second))):
	}
}

func resolveScript(path string, inline string) (string, error) {
	if strings.TrimSpace(inline) != "" {
		return strings.ReplaceAll(inline, ";", "\n"), nil
	}
	if strings.TrimSpace(path) != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return "", err
		}
		data, err := os.ReadFile(expanded)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return defaultScript, nil
}

const replHelp = `voice-script lines run immediately, e.g. VOICE 1 NOTE C4 or VOICE 1 GATE ON
  lua <code>    run a Lua host statement
  stop          stop the running script and reset voices
  help          show this text
  quit          exit`

// lineReader hides whether input comes from a raw terminal or a pipe.
type lineReader interface {
	ReadLine() (string, error)
}

type scannerReader struct{ s *bufio.Scanner }

func (r scannerReader) ReadLine() (string, error) {
	if !r.s.Scan() {
		if err := r.s.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.s.Text(), nil
}

func runREPL(ctx context.Context, sys *voicesynth.System, bpm float64) error {
	var in lineReader = scannerReader{bufio.NewScanner(os.Stdin)}
	out := io.Writer(os.Stdout)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		old, err := term.MakeRaw(fd)
		if err != nil {
			return err
		}
		defer term.Restore(fd, old)
		t := term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{os.Stdin, os.Stdout}, "vs> ")
		in, out = t, t
	}
	fmt.Fprintln(out, replHelp)
	for n := 1; ctx.Err() == nil; n++ {
		line, err := in.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case line == "quit" || line == "exit":
			return nil
		case line == "help":
			fmt.Fprintln(out, replHelp)
		case line == "stop":
			sys.StopScript()
		case strings.HasPrefix(line, "lua "):
			if err := sys.RunLua(strings.TrimPrefix(line, "lua ")); err != nil {
				fmt.Fprintln(out, err)
			}
		default:
			name := fmt.Sprintf("repl%d", n)
			if err := sys.LoadScript(name, line); err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			if err := sys.PlayScript(name, bpm); err != nil {
				fmt.Fprintln(out, err)
			}
		}
	}
	return nil
}
