package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/superterminal/voicesynth"
	"github.com/superterminal/voicesynth/internal/logging"
	"github.com/superterminal/voicesynth/internal/spectrum"
)

func main() {
	var (
		scriptPath = flag.String("file", "", "path to a voice script")
		inline     = flag.String("script", "", "inline voice script (';' separates lines)")
		outPath    = flag.String("out", "out.wav", "output WAV path")
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		bits       = flag.Int("bits", 16, "WAV bit depth: 16|32")
		bpm        = flag.Float64("bpm", 120, "script tempo")
		fast       = flag.Bool("fast", false, "align events to 32-frame blocks")
		analyze    = flag.Bool("analyze", false, "print level and spectral peaks of the render")
		disasm     = flag.Bool("disasm", false, "print the compiled bytecode and exit")
		logLevel   = flag.String("log-level", "info", "log level: debug|info|warn|error")
	)
	flag.Parse()

	logger, err := logging.Stderr(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	src, err := resolveScript(*scriptPath, *inline)
	if err != nil {
		log.Fatal(err)
	}
	if *disasm {
		dis, err := voicesynth.CompileScript(src)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Print(dis)
		return
	}
	buf, err := voicesynth.RenderScript(src, voicesynth.RenderConfig{
		SampleRate: *sampleRate,
		BPM:        *bpm,
		Fast:       *fast,
		Logger:     logger,
	})
	if err != nil {
		log.Fatal(err)
	}
	out, err := homedir.Expand(*outPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := voicesynth.WriteWAV(out, buf, *bits); err != nil {
		log.Fatal(err)
	}
	logger.Info("wav written", "path", out, "seconds", buf.Duration(), "bits", *bits)
	if *analyze {
		report(buf)
	}
}

func resolveScript(path string, inline string) (string, error) {
	if strings.TrimSpace(inline) != "" {
		return strings.ReplaceAll(inline, ";", "\n"), nil
	}
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("one of -file or -script is required")
	}
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

func report(buf *voicesynth.Buffer) {
	left := buf.Channel(0)
	spec := spectrum.Analyze(left, buf.SampleRate)
	fmt.Printf("duration  %.3f s (%d frames @ %d Hz)\n", buf.Duration(), buf.Frames(), buf.SampleRate)
	fmt.Printf("peak      %.4f\n", buf.Peak())
	fmt.Printf("rms       %.4f\n", spectrum.RMS(left))
	for i, f := range spec.Peaks(5) {
		name := "-"
		if midi := voicesynth.HzToNearestNote(f); midi >= 0 {
			name = voicesynth.NoteName(midi)
		}
		fmt.Printf("peak %d    %8.2f Hz  %s\n", i+1, f, name)
	}
}
