package config

import (
	"fmt"
	"strings"
)

const (
	EngineCoqui     = "coqui"
	EnginePocketTTS = "pocket-tts"
	EnginePiper     = "piper"

	DevicePortAudio = "portaudio"
	DeviceCommand   = "command"
)

func NormalizeEngine(raw string) (string, error) {
	engine := strings.ToLower(strings.TrimSpace(raw))
	if engine == "" {
		engine = EngineCoqui
	}
	switch engine {
	case EngineCoqui, EnginePocketTTS, EnginePiper:
		return engine, nil
	case "xtts", "tts":
		return EngineCoqui, nil
	case "pockettts", "pocket":
		return EnginePocketTTS, nil
	case "wyoming":
		return EnginePiper, nil
	default:
		return "", fmt.Errorf(
			"invalid engine %q (expected %s|%s|%s)",
			raw,
			EngineCoqui,
			EnginePocketTTS,
			EnginePiper,
		)
	}
}

func NormalizeDevice(raw string) (string, error) {
	device := strings.ToLower(strings.TrimSpace(raw))
	if device == "" {
		device = DeviceCommand
	}
	switch device {
	case DevicePortAudio, DeviceCommand:
		return device, nil
	case "pa":
		return DevicePortAudio, nil
	case "exec", "player":
		return DeviceCommand, nil
	default:
		return "", fmt.Errorf("invalid playback device %q (expected %s|%s)", raw, DevicePortAudio, DeviceCommand)
	}
}
