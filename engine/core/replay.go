package core

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
)

// ReplayRecorder writes every submitted command to a file, one JSON object
// per line. Feeding the recorded stream back into a fresh engine over the
// same map reproduces the run tick for tick.
type ReplayRecorder struct {
	file   afero.File
	writer *bufio.Writer
}

// NewReplayRecorder creates a replay file for recording
func NewReplayRecorder(fs afero.Fs, path string) (*ReplayRecorder, error) {
	f, err := fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create replay: %w", err)
	}
	return &ReplayRecorder{
		file:   f,
		writer: bufio.NewWriter(f),
	}, nil
}

// Record appends a command to the replay file
func (r *ReplayRecorder) Record(cmd GameCommand) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}
	if _, err := r.writer.Write(data); err != nil {
		return err
	}
	return r.writer.WriteByte('\n')
}

// Close flushes and closes the replay file
func (r *ReplayRecorder) Close() error {
	if r.writer != nil {
		if err := r.writer.Flush(); err != nil {
			return err
		}
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// LoadReplay reads a recorded command stream in submission order
func LoadReplay(fs afero.Fs, path string) ([]GameCommand, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	defer f.Close()

	var cmds []GameCommand
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var cmd GameCommand
		if err := json.Unmarshal(line, &cmd); err != nil {
			return nil, fmt.Errorf("parse replay line %d: %w", len(cmds)+1, err)
		}
		cmds = append(cmds, cmd)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read replay: %w", err)
	}
	return cmds, nil
}
