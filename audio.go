package main

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/milk9111/harvest/config"
	"go.uber.org/zap"
)

const (
	sampleRate   = 44100
	toneDuration = 0.18
)

// toneSink stands in for recorded voice lines: every sound id gets a short
// beep whose pitch is derived from the id.
type toneSink struct {
	ctx     *audio.Context
	players map[string]*audio.Player
	volume  float64
	mute    bool
	log     *zap.Logger
}

func newToneSink(cfg config.AudioConfig, logger *zap.Logger) *toneSink {
	return &toneSink{
		ctx:     audio.NewContext(sampleRate),
		players: make(map[string]*audio.Player),
		volume:  cfg.Volume,
		mute:    cfg.Mute,
		log:     logger,
	}
}

// Play implements cue.Sink.
func (s *toneSink) Play(sound string, volume float64) {
	if s == nil || s.mute {
		return
	}
	player, ok := s.players[sound]
	if !ok {
		player = s.ctx.NewPlayerFromBytes(synthTone(sound))
		s.players[sound] = player
	}
	if player.IsPlaying() {
		return
	}
	player.SetVolume(volume * s.volume)
	if err := player.Rewind(); err != nil {
		s.log.Debug("rewind sound", zap.String("sound", sound), zap.Error(err))
	}
	player.Play()
}

// synthTone renders a fading sine as 16-bit little-endian stereo PCM.
func synthTone(name string) []byte {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	freq := 220 + float64(h.Sum32()%660)

	n := int(sampleRate * toneDuration)
	buf := make([]byte, n*4)
	for i := 0; i < n; i++ {
		t := float64(i) / sampleRate
		env := 1 - float64(i)/float64(n)
		v := int16(math.Sin(2*math.Pi*freq*t) * env * 0.6 * math.MaxInt16)
		binary.LittleEndian.PutUint16(buf[i*4:], uint16(v))
		binary.LittleEndian.PutUint16(buf[i*4+2:], uint16(v))
	}
	return buf
}
