package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/bazelment/yoloswe/ptystream/ptyparse"
)

// JSONL writes one envelope per line. Write errors are logged once and
// reported by Err; they never reach the parser.
type JSONL struct {
	enc    *json.Encoder
	logger *slog.Logger
	err    error
	seq    Sequencer
	mu     sync.Mutex
}

// NewJSONL creates a JSON lines sink writing to w. A nil logger means
// slog.Default().
func NewJSONL(w io.Writer, logger *slog.Logger) *JSONL {
	if logger == nil {
		logger = slog.Default()
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONL{enc: enc, logger: logger}
}

// HandleEvent implements ptyparse.Sink.
func (j *JSONL) HandleEvent(e ptyparse.Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return
	}
	if err := j.enc.Encode(j.seq.Next(e)); err != nil {
		j.err = fmt.Errorf("write event: %w", err)
		j.logger.Error("jsonl sink stopped", "error", err)
	}
}

// Err returns the first write error, if any.
func (j *JSONL) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// ReadJSONL decodes envelopes from r until EOF, calling fn for each.
func ReadJSONL(r io.Reader, fn func(Envelope) error) error {
	dec := json.NewDecoder(r)
	for {
		var env Envelope
		if err := dec.Decode(&env); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}
		if err := fn(env); err != nil {
			return err
		}
	}
}
