package logs

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const defaultPoll = 250 * time.Millisecond

// TailOptions controls Tail.
type TailOptions struct {
	// Limit is the number of trailing lines printed before following; zero
	// prints none.
	Limit  int
	Follow bool
	Poll   time.Duration
	// Match filters lines; nil accepts everything.
	Match func(line string) bool
}

// Latest returns the lexically newest file in dir matching pattern. Daily log
// names sort by date, so this is the current file.
func Latest(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("list log files: %w", err)
	}
	files := matches[:0]
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && !info.IsDir() {
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no log files in %s: %w", dir, os.ErrNotExist)
	}
	sort.Strings(files)
	return files[len(files)-1], nil
}

// Tail writes the last matching lines of path to w. With Follow set it keeps
// polling for appended lines until ctx is done, which is not an error.
func Tail(ctx context.Context, path string, w io.Writer, opts TailOptions) error {
	match := opts.Match
	if match == nil {
		match = func(string) bool { return true }
	}

	lines, offset, err := readLastLines(path, opts.Limit, match)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if !opts.Follow {
		return nil
	}

	poll := opts.Poll
	if poll <= 0 {
		poll = defaultPoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		lines, offset, err = readForward(path, offset)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if !match(line) {
				continue
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
}

// readLastLines keeps a ring of the last limit matching lines and returns the
// end offset for following.
func readLastLines(path string, limit int, match func(string) bool) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		offset, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, offset, nil
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	ring := make([]string, limit)
	count, next := 0, 0
	var offset int64
	for {
		raw, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(raw))
		if raw != "" {
			if line := strings.TrimRight(raw, "\r\n"); match(line) {
				ring[next] = line
				next = (next + 1) % limit
				if count < limit {
					count++
				}
			}
		}
		if err != nil {
			break
		}
	}

	lines := make([]string, 0, count)
	start := 0
	if count == limit {
		start = next
	}
	for i := 0; i < count; i++ {
		lines = append(lines, ring[(start+i)%limit])
	}
	return lines, offset, nil
}

// readForward returns complete lines written after offset. A partial last
// line is left for the next poll. A truncated file restarts from zero.
func readForward(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, offset, nil
		}
		return nil, offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, offset, fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() < offset {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReader(file)
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return lines, offset, nil
			}
			return nil, offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}
}

// BatchFilter matches lines belonging to the batch whose id starts with
// prefix. JSON lines are matched on their batch_id field; console lines on
// the abbreviated "Batch <id>" subject.
func BatchFilter(prefix string) func(string) bool {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil
	}
	return func(line string) bool {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "{") {
			var entry struct {
				BatchID string `json:"batch_id"`
			}
			if json.Unmarshal([]byte(trimmed), &entry) == nil {
				return entry.BatchID != "" && strings.HasPrefix(strings.ToLower(entry.BatchID), prefix)
			}
		}
		short := prefix
		if len(short) > 8 {
			short = short[:8]
		}
		return strings.Contains(strings.ToLower(line), "batch "+short)
	}
}
