// Package audio decodes encoded clips into mono waveforms.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"

	"github.com/ewilliams-labs/chordlens/internal/core/domain"
)

// Format is the container detected from the leading bytes of a payload.
type Format string

const (
	FormatUnknown Format = "unknown"
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
	readChunk           = 4096
)

// Decoder implements ports.WaveformSource for WAV and MP3 payloads.
type Decoder struct {
	logger *slog.Logger
}

// NewDecoder returns a Decoder. A nil logger discards output.
func NewDecoder(logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Decoder{logger: logger}
}

// Sniff detects the container from the first bytes of raw.
func Sniff(raw []byte) Format {
	switch {
	case len(raw) >= 12 && string(raw[0:4]) == "RIFF" && string(raw[8:12]) == "WAVE":
		return FormatWAV
	case len(raw) >= 3 && string(raw[0:3]) == "ID3":
		return FormatMP3
	case len(raw) >= 2 && raw[0] == 0xFF && raw[1]&0xE0 == 0xE0:
		return FormatMP3
	}
	return FormatUnknown
}

// Load decodes raw into a mono waveform at the rate found in the stream.
// declaredSampleRate is carried through unchanged; no resampling happens.
func (d *Decoder) Load(ctx context.Context, raw []byte, declaredSampleRate int) (domain.Waveform, error) {
	if len(raw) == 0 {
		return domain.Waveform{}, fmt.Errorf("audio: empty payload: %w", domain.ErrEmptyAudio)
	}

	var (
		samples []float64
		rate    int
		err     error
	)
	format := Sniff(raw)
	switch format {
	case FormatWAV:
		samples, rate, err = decodeWAV(raw)
	case FormatMP3:
		samples, rate, err = decodeMP3(ctx, raw)
	default:
		return domain.Waveform{}, fmt.Errorf("audio: unrecognized container: %w", domain.ErrDecode)
	}
	if err != nil {
		return domain.Waveform{}, err
	}
	if len(samples) == 0 {
		return domain.Waveform{}, fmt.Errorf("audio: %s stream has no samples: %w", format, domain.ErrEmptyAudio)
	}

	d.logger.Debug("decoded clip",
		slog.String("format", string(format)),
		slog.Int("samples", len(samples)),
		slog.Int("sample_rate", rate))

	return domain.Waveform{Samples: samples, SampleRate: rate, DeclaredSampleRate: declaredSampleRate}, nil
}

func decodeWAV(raw []byte) ([]float64, int, error) {
	dec := wav.NewDecoder(bytes.NewReader(raw))
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("audio: invalid wav header: %w", domain.ErrDecode)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, 0, fmt.Errorf("audio: unsupported wav format %d: %w", dec.WavAudioFormat, domain.ErrDecode)
	}
	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, 0, fmt.Errorf("audio: unsupported bit depth %d: %w", dec.BitDepth, domain.ErrDecode)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("audio: read wav: %v: %w", err, domain.ErrDecode)
	}
	if buf == nil || buf.Format == nil {
		return nil, 0, fmt.Errorf("audio: wav has no format chunk: %w", domain.ErrDecode)
	}
	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, 0, fmt.Errorf("audio: wav has %d channels: %w", channels, domain.ErrDecode)
	}

	return mixDown(buf, int(dec.BitDepth)), int(dec.SampleRate), nil
}

// mixDown averages interleaved channels and scales integer PCM into [-1, 1].
// 8-bit WAV is unsigned; wider depths are two's complement.
func mixDown(buf *audio.IntBuffer, bitDepth int) []float64 {
	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels
	full := float64(int64(1) << (bitDepth - 1))
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}

	out := make([]float64, frames)
	for i := range out {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c] - offset)
		}
		out[i] = sum / float64(channels) / full
	}
	return out
}

// decodeMP3 reads the decoder's 16-bit little-endian stereo stream.
func decodeMP3(ctx context.Context, raw []byte) ([]float64, int, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(raw))
	if err != nil {
		return nil, 0, fmt.Errorf("audio: mp3 header: %v: %w", err, domain.ErrDecode)
	}

	var pcm bytes.Buffer
	if n := dec.Length(); n > 0 {
		pcm.Grow(int(n))
	}
	chunk := make([]byte, readChunk)
	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		n, err := dec.Read(chunk)
		pcm.Write(chunk[:n])
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, 0, fmt.Errorf("audio: mp3 read: %v: %w", err, domain.ErrDecode)
		}
	}

	return stereo16ToMono(pcm.Bytes()), dec.SampleRate(), nil
}

// stereo16ToMono averages interleaved little-endian int16 pairs into
// samples scaled to [-1, 1). A trailing partial frame is dropped.
func stereo16ToMono(b []byte) []float64 {
	out := make([]float64, len(b)/4)
	for i := range out {
		j := i * 4
		left := int16(uint16(b[j]) | uint16(b[j+1])<<8)
		right := int16(uint16(b[j+2]) | uint16(b[j+3])<<8)
		out[i] = (float64(left) + float64(right)) / 2 / 32768.0
	}
	return out
}
