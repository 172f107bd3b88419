package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// Speech-side audio formats. Twilio media streams are always 8kHz mu-law.
const (
	FormatMuLaw = "g711_ulaw"
	FormatPCM16 = "pcm16"
)

// pcm16Rate / mulawRate
const resampleFactor = 3

// Codec converts base64 audio payloads between the telephony and speech
// encodings.
type Codec interface {
	ToSpeech(payload string) (string, error)
	ToTelephony(payload string) (string, error)
}

// NewCodec returns the codec for a speech-side format.
func NewCodec(format string) (Codec, error) {
	switch format {
	case FormatMuLaw, "":
		return Passthrough{}, nil
	case FormatPCM16:
		return PCM16{}, nil
	default:
		return nil, fmt.Errorf("unsupported audio format %q", format)
	}
}

// Passthrough relays payloads unmodified.
type Passthrough struct{}

func (Passthrough) ToSpeech(payload string) (string, error) {
	return payload, nil
}

func (Passthrough) ToTelephony(payload string) (string, error) {
	return payload, nil
}

// PCM16 converts between 8kHz mu-law and 24kHz 16-bit little-endian PCM.
type PCM16 struct{}

func (PCM16) ToSpeech(payload string) (string, error) {
	mulaw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("invalid caller audio: %w", err)
	}

	samples := make([]int16, len(mulaw))
	for i, b := range mulaw {
		samples[i] = decodeMulaw(b)
	}
	return base64.StdEncoding.EncodeToString(pcmBytes(upsample(samples, resampleFactor))), nil
}

func (PCM16) ToTelephony(payload string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("invalid agent audio: %w", err)
	}

	samples := downsample(pcmSamples(raw), resampleFactor)
	mulaw := make([]byte, len(samples))
	for i, s := range samples {
		mulaw[i] = encodeMulaw(s)
	}
	return base64.StdEncoding.EncodeToString(mulaw), nil
}

const (
	mulawBias = 0x84
	mulawClip = 32635
)

func decodeMulaw(b byte) int16 {
	b = ^b
	sign := b & 0x80
	exponent := (b >> 4) & 0x07
	mantissa := b & 0x0F

	sample := ((int32(mantissa) << 3) + mulawBias) << exponent
	sample -= mulawBias
	if sign != 0 {
		return int16(-sample)
	}
	return int16(sample)
}

func encodeMulaw(sample int16) byte {
	s := int32(sample)
	sign := byte(0)
	if s < 0 {
		sign = 0x80
		s = -s
	}
	if s > mulawClip {
		s = mulawClip
	}
	s += mulawBias

	// segment is the position of the highest set bit above bit 7
	exponent := byte(7)
	for mask := int32(0x4000); s&mask == 0 && exponent > 0; mask >>= 1 {
		exponent--
	}
	mantissa := byte(s>>(exponent+3)) & 0x0F

	return ^(sign | exponent<<4 | mantissa)
}

// upsample inserts linearly interpolated samples. The last sample is held.
func upsample(samples []int16, factor int) []int16 {
	out := make([]int16, len(samples)*factor)
	for i, current := range samples {
		next := current
		if i+1 < len(samples) {
			next = samples[i+1]
		}
		for j := 0; j < factor; j++ {
			out[i*factor+j] = int16(int32(current) + (int32(next)-int32(current))*int32(j)/int32(factor))
		}
	}
	return out
}

// downsample averages each group of factor samples. A trailing partial
// group is averaged on its own.
func downsample(samples []int16, factor int) []int16 {
	out := make([]int16, 0, (len(samples)+factor-1)/factor)
	for i := 0; i < len(samples); i += factor {
		end := min(i+factor, len(samples))
		var sum int32
		for _, s := range samples[i:end] {
			sum += int32(s)
		}
		out = append(out, int16(sum/int32(end-i)))
	}
	return out
}

func pcmBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// pcmSamples drops a trailing odd byte.
func pcmSamples(raw []byte) []int16 {
	out := make([]int16, len(raw)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return out
}
