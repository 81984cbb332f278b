package tts

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Wyoming events are framed as
//
//	<json_length> <payload_length>\n
//	<json_bytes>\n
//	<payload_bytes>   (if payload_length > 0)
type wyomingEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

const maxWyomingHeader = 64

func writeEvent(w io.Writer, evt wyomingEvent, payload []byte) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, err := fmt.Fprintf(w, "%d %d\n", len(body), len(payload)); err != nil {
		return err
	}
	if _, err := w.Write(append(body, '\n')); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return err
		}
	}
	return nil
}

func readEvent(r *bufio.Reader) (wyomingEvent, []byte, error) {
	var evt wyomingEvent

	header, err := r.ReadSlice('\n')
	if err != nil {
		return evt, nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > maxWyomingHeader {
		return evt, nil, fmt.Errorf("wyoming header too long (%d bytes)", len(header))
	}

	fields := strings.Fields(string(header))
	if len(fields) != 2 {
		return evt, nil, fmt.Errorf("invalid wyoming header %q", strings.TrimSpace(string(header)))
	}
	jsonLen, err := strconv.Atoi(fields[0])
	if err != nil || jsonLen < 0 {
		return evt, nil, fmt.Errorf("invalid json length %q", fields[0])
	}
	payloadLen, err := strconv.Atoi(fields[1])
	if err != nil || payloadLen < 0 {
		return evt, nil, fmt.Errorf("invalid payload length %q", fields[1])
	}

	body := make([]byte, jsonLen+1)
	if _, err := io.ReadFull(r, body); err != nil {
		return evt, nil, fmt.Errorf("read json: %w", err)
	}
	if err := json.Unmarshal(body[:jsonLen], &evt); err != nil {
		return evt, nil, fmt.Errorf("decode event: %w", err)
	}

	var payload []byte
	if payloadLen > 0 {
		payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return evt, nil, fmt.Errorf("read payload: %w", err)
		}
	}
	return evt, payload, nil
}

func intField(data map[string]any, key string, fallback int) int {
	if v, ok := data[key].(float64); ok {
		return int(v)
	}
	return fallback
}
