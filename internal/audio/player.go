// Package audio plays command cues through the system speaker.
package audio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"
)

// Player announces a named cue.
type Player interface {
	Play(cue string) error
}

// Silent is a Player that plays nothing.
type Silent struct{}

// Play does nothing.
func (Silent) Play(string) error { return nil }

// Cue describes a synthesized tone pattern.
type Cue struct {
	Frequency float64
	Duration  time.Duration
	Repeat    int
	Gap       time.Duration
}

// DefaultCues maps command names to tones.
var DefaultCues = map[string]Cue{
	"beep":           {Frequency: 1000, Duration: 200 * time.Millisecond},
	"fire":           {Frequency: 880, Duration: 500 * time.Millisecond},
	"warning":        {Frequency: 660, Duration: 150 * time.Millisecond, Repeat: 2, Gap: 100 * time.Millisecond},
	"stop":           {Frequency: 440, Duration: 800 * time.Millisecond},
	"shooters_ready": {Frequency: 523, Duration: 150 * time.Millisecond, Repeat: 3, Gap: 150 * time.Millisecond},
	"load":           {Frequency: 587, Duration: 300 * time.Millisecond},
	"are_you_ready":  {Frequency: 659, Duration: 300 * time.Millisecond, Repeat: 2, Gap: 100 * time.Millisecond},
	"line_ready":     {Frequency: 784, Duration: 400 * time.Millisecond},
}

var fallbackCue = Cue{Frequency: 750, Duration: 250 * time.Millisecond}

// Streamer renders the cue at the given sample rate.
func (cue Cue) Streamer(sampleRate beep.SampleRate) (beep.Streamer, error) {
	tone, err := generators.SineTone(sampleRate, cue.Frequency)
	if err != nil {
		return nil, fmt.Errorf("generate tone: %w", err)
	}
	repeat := cue.Repeat
	if repeat <= 0 {
		repeat = 1
	}

	parts := make([]beep.Streamer, 0, repeat*2)
	for index := 0; index < repeat; index++ {
		if index > 0 && cue.Gap > 0 {
			parts = append(parts, beep.Silence(sampleRate.N(cue.Gap)))
		}
		parts = append(parts, beep.Take(sampleRate.N(cue.Duration), tone))
	}
	return &effects.Volume{Streamer: beep.Seq(parts...), Base: 2, Volume: -1}, nil
}

// Config contains options for BeepPlayer.
type Config struct {
	SampleRate int
	Logger     *slog.Logger
}

// BeepPlayer synthesizes cues and optionally plays decoded recordings instead.
type BeepPlayer struct {
	mu         sync.Mutex
	sampleRate beep.SampleRate
	cues       map[string]Cue
	overrides  map[string]*beep.Buffer
	logger     *slog.Logger
}

// NewBeepPlayer initializes the speaker and returns a player.
func NewBeepPlayer(config Config) (*BeepPlayer, error) {
	player := newBeepPlayer(config)
	if err := speaker.Init(player.sampleRate, player.sampleRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	return player, nil
}

func newBeepPlayer(config Config) *BeepPlayer {
	if config.SampleRate <= 0 {
		config.SampleRate = 44100
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	cues := make(map[string]Cue, len(DefaultCues))
	for name, cue := range DefaultCues {
		cues[name] = cue
	}
	return &BeepPlayer{
		sampleRate: beep.SampleRate(config.SampleRate),
		cues:       cues,
		overrides:  make(map[string]*beep.Buffer),
		logger:     config.Logger,
	}
}

// Play starts the cue without waiting for it to finish.
func (player *BeepPlayer) Play(cue string) error {
	streamer, err := player.streamer(cue)
	if err != nil {
		return err
	}
	speaker.Play(streamer)
	return nil
}

func (player *BeepPlayer) streamer(cue string) (beep.Streamer, error) {
	player.mu.Lock()
	buffer, overridden := player.overrides[cue]
	spec, known := player.cues[cue]
	player.mu.Unlock()

	if overridden {
		return buffer.Streamer(0, buffer.Len()), nil
	}
	if !known {
		player.logger.Debug("no cue for command, using fallback tone", "cue", cue)
		spec = fallbackCue
	}
	return spec.Streamer(player.sampleRate)
}

// LoadCue decodes an Ogg Vorbis recording and plays it for the named cue.
func (player *BeepPlayer) LoadCue(name string, source io.ReadCloser) error {
	streamer, format, err := vorbis.Decode(source)
	if err != nil {
		_ = source.Close()
		return fmt.Errorf("decode cue %s: %w", name, err)
	}
	defer streamer.Close()

	buffer := beep.NewBuffer(beep.Format{SampleRate: player.sampleRate, NumChannels: format.NumChannels, Precision: format.Precision})
	if format.SampleRate == player.sampleRate {
		buffer.Append(streamer)
	} else {
		buffer.Append(beep.Resample(4, format.SampleRate, player.sampleRate, streamer))
	}

	player.mu.Lock()
	player.overrides[name] = buffer
	player.mu.Unlock()
	return nil
}

// LoadCueDir loads every <cue>.ogg file in dir. Files that fail to decode are
// skipped and reported in the returned error.
func (player *BeepPlayer) LoadCueDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read cue dir: %w", err)
	}

	loaded := 0
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".ogg") {
			continue
		}
		file, err := os.Open(filepath.Join(dir, entry.Name()))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if err := player.LoadCue(name, file); err != nil {
			errs = append(errs, err)
			continue
		}
		player.logger.Info("loaded audio cue", "cue", name)
		loaded++
	}
	return loaded, errors.Join(errs...)
}
