package tts

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/example/go-friday-voice/internal/audio"
	"github.com/example/go-friday-voice/internal/config"
)

// defaultPiperVoices maps ISO-639-1 codes to Piper voice models.
var defaultPiperVoices = map[string]string{
	"en": "en_US-lessac-medium",
	"fr": "fr_FR-siwis-medium",
	"es": "es_ES-mls_10246-low",
	"de": "de_DE-thorsten-medium",
	"it": "it_IT-riccardo-x_low",
	"pt": "pt_BR-faber-medium",
	"nl": "nl_NL-mls-medium",
	"pl": "pl_PL-darkman-medium",
	"ru": "ru_RU-ruslan-medium",
	"ja": "ja_JP-amitaro-medium",
	"ko": "ko_KR-kss-x_low",
	"zh": "zh_CN-huayan-medium",
}

const (
	piperDialTimeout = 10 * time.Second
	piperIOTimeout   = 30 * time.Second
)

// PiperEngine is a Wyoming protocol client for a Piper server. Connections
// are per request.
type PiperEngine struct {
	endpoint  string
	endpoints map[string]string
	voices    map[string]string
	logger    *slog.Logger
}

func NewPiperEngine(cfg config.PiperConfig, logger *slog.Logger) *PiperEngine {
	if logger == nil {
		logger = slog.Default()
	}

	voices := make(map[string]string, len(defaultPiperVoices)+len(cfg.Voices))
	for k, v := range defaultPiperVoices {
		voices[k] = v
	}
	for k, v := range cfg.Voices {
		voices[strings.ToLower(k)] = v
	}

	endpoints := make(map[string]string, len(cfg.Endpoints))
	for lang, ep := range cfg.Endpoints {
		endpoints[strings.ToLower(lang)] = cleanEndpoint(ep)
	}

	return &PiperEngine{
		endpoint:  cleanEndpoint(cfg.Endpoint),
		endpoints: endpoints,
		voices:    voices,
		logger:    logger,
	}
}

func cleanEndpoint(ep string) string {
	ep = strings.TrimSpace(ep)
	ep = strings.TrimPrefix(ep, "tcp://")
	ep = strings.TrimPrefix(ep, "http://")
	return strings.TrimSuffix(ep, "/")
}

func (e *PiperEngine) route(language string) (endpoint, voice string, err error) {
	language = strings.ToLower(language)

	voice = e.voices[language]
	if voice == "" {
		return "", "", fmt.Errorf("%w %q: no piper voice configured", ErrUnsupportedLanguage, language)
	}

	endpoint = e.endpoints[language]
	if endpoint == "" {
		endpoint = e.endpoint
	}
	if endpoint == "" {
		return "", "", fmt.Errorf("no piper endpoint configured for language %q", language)
	}
	return endpoint, voice, nil
}

// dial connects to endpoint. The returned release func closes the connection.
func (e *PiperEngine) dial(ctx context.Context, endpoint string) (net.Conn, *bufio.Reader, func(), error) {
	dialer := net.Dialer{Timeout: piperDialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to piper at %s: %w", endpoint, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(piperIOTimeout))
	}

	// Unblock reads when ctx is cancelled.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Unix(1, 0)) })
	release := func() {
		stop()
		_ = conn.Close()
	}

	return conn, bufio.NewReader(conn), release, nil
}

// Warm asks the default endpoint to describe itself.
func (e *PiperEngine) Warm(ctx context.Context) error {
	if e.endpoint == "" {
		return nil
	}

	conn, r, release, err := e.dial(ctx, e.endpoint)
	if err != nil {
		return fmt.Errorf("piper: %w", err)
	}
	defer release()

	if err := writeEvent(conn, wyomingEvent{Type: "describe"}, nil); err != nil {
		return fmt.Errorf("piper: send describe: %w", err)
	}
	for {
		evt, _, err := readEvent(r)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("piper: describe: %w", err)
		}
		if evt.Type == "info" {
			e.logger.Debug("piper engine ready", "endpoint", e.endpoint)
			return nil
		}
	}
}

func (e *PiperEngine) Generate(ctx context.Context, req Request) ([]byte, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("piper: %w", ErrEmptyText)
	}

	endpoint, voice, err := e.route(req.Language)
	if err != nil {
		return nil, fmt.Errorf("piper: %w", err)
	}

	e.logger.Debug("piper synthesize", "chars", len(req.Text), "voice", voice, "language", req.Language, "endpoint", endpoint)

	conn, r, release, err := e.dial(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("piper: %w", err)
	}
	defer release()

	synth := wyomingEvent{
		Type: "synthesize",
		Data: map[string]any{
			"text":  req.Text,
			"voice": map[string]any{"name": voice},
		},
	}
	if err := writeEvent(conn, synth, nil); err != nil {
		return nil, fmt.Errorf("piper: send synthesize: %w", err)
	}

	var (
		pcm    bytes.Buffer
		format = audio.Format{SampleRate: 22050, Channels: 1, BitDepth: 16}
		width  = 2
	)

	for {
		evt, payload, err := readEvent(r)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("piper: %w", ctxErr)
			}
			return nil, fmt.Errorf("piper: %w", err)
		}

		switch evt.Type {
		case "audio-start":
			format.SampleRate = intField(evt.Data, "rate", format.SampleRate)
			format.Channels = intField(evt.Data, "channels", format.Channels)
			width = intField(evt.Data, "width", width)
			if width != 2 {
				return nil, fmt.Errorf("piper: unsupported sample width %d", width)
			}
		case "audio-chunk":
			pcm.Write(payload)
		case "audio-stop":
			wav, err := audio.EncodeWAV(audio.PCM16ToFloat32(pcm.Bytes()), format)
			if err != nil {
				return nil, fmt.Errorf("piper: %w", err)
			}
			return wav, nil
		case "error":
			msg, _ := evt.Data["text"].(string)
			if msg == "" {
				msg = "unknown error"
			}
			return nil, fmt.Errorf("piper: server error: %s", msg)
		default:
			e.logger.Debug("piper event ignored", "type", evt.Type)
		}
	}
}
