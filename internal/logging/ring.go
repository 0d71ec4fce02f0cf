package logging

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ytget/ytin/internal/platform"
)

// RingFile is an append-only text file bounded to the most recent maxLines
// lines. It is safe for concurrent use.
type RingFile struct {
	path     string
	maxLines int

	mu    sync.Mutex
	lines int // -1 until counted
}

// NewRingFile creates a ring file at path, creating its directory
func NewRingFile(path string, maxLines int) (*RingFile, error) {
	if maxLines < 1 {
		return nil, fmt.Errorf("invalid ring size %d", maxLines)
	}
	if err := platform.CreateDirectoryIfNotExists(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &RingFile{path: path, maxLines: maxLines, lines: -1}, nil
}

// Path returns the file location
func (r *RingFile) Path() string {
	return r.path
}

// Write appends p and truncates the file to the most recent lines
func (r *RingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lines < 0 {
		n, err := r.countLines()
		if err != nil {
			return 0, err
		}
		r.lines = n
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, platform.DefaultFilePermissions)
	if err != nil {
		return 0, err
	}
	n, err := f.Write(p)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		r.lines = -1
		return n, err
	}

	r.lines += bytes.Count(p, []byte{'\n'})
	if r.lines > r.maxLines {
		if err := r.truncate(); err != nil {
			r.lines = -1
			return n, err
		}
	}
	return n, nil
}

// Lines returns the current file content split into lines
func (r *RingFile) Lines() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

func (r *RingFile) countLines() (int, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return bytes.Count(data, []byte{'\n'}), nil
}

// truncate rewrites the file with its last maxLines lines
func (r *RingFile) truncate() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return err
	}

	excess := bytes.Count(data, []byte{'\n'}) - r.maxLines
	for ; excess > 0; excess-- {
		i := bytes.IndexByte(data, '\n')
		data = data[i+1:]
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), platform.DefaultFilePermissions); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return err
	}
	r.lines = r.maxLines
	return nil
}
