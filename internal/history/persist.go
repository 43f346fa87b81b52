package history

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Format selects the on-disk encoding persist.go reads and writes.
type Format int

const (
	// FormatVis is the teacher's libedit-compatible format: a
	// "_HiStOrY_V2_" cookie line followed by one encodeVis-escaped entry
	// per line. No timestamps.
	FormatVis Format = iota
	// FormatTimestamped is spec §4.3/§6's GNU-readline format:
	// "#<digit>..." comment-prefixed timestamp lines, each followed by
	// its (possibly multi-line) entry.
	FormatTimestamped
)

// Option configures a Persist.
type Option func(*Persist)

// WithHistoryFormat selects the on-disk format. Default FormatVis, matching
// the teacher's existing on-disk files.
func WithHistoryFormat(f Format) Option {
	return func(p *Persist) { p.format = f }
}

// WithCommentChar sets the byte that prefixes a timestamp line in
// FormatTimestamped, per spec §4.3's "configured comment character".
// Default '#'.
func WithCommentChar(c byte) Option {
	return func(p *Persist) { p.commentChar = c }
}

// WithTimestamping enables writing a timestamp line before each entry in
// FormatTimestamped. Default off: entries without a timestamp are written
// bare, per spec §4.3 ("written only when timestamping is enabled and the
// entry has one").
func WithTimestamping(on bool) Option {
	return func(p *Persist) { p.timestamp = on }
}

// Persist reads and writes a Store against a file path, in either of the
// two formats persist.go and vis.go implement between them. It generalizes
// the teacher's history.Load/Close (a single vis-encoded, append-only file)
// to spec §4.3's full write/range-read/atomic-truncate API and the second,
// timestamped format.
type Persist struct {
	path        string
	format      Format
	commentChar byte
	timestamp   bool
	file        io.WriteCloser
}

// NewPersist returns a Persist bound to path, configured by opts.
func NewPersist(path string, opts ...Option) *Persist {
	p := &Persist{path: path, commentChar: '#'}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

const visCookie = "_HiStOrY_V2_"

// Load reads path into s, appending its entries, and leaves the file open
// for append so subsequent Add calls can be mirrored with Append. Mirrors
// the teacher's history.Load, generalized to dispatch on format.
func (p *Persist) Load(s *Store) error {
	if p.path == "" {
		return nil
	}

	f, err := os.OpenFile(p.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if f != nil {
			f.Close()
		}
	}()

	switch p.format {
	case FormatVis:
		if err := p.loadVis(f, s); err != nil {
			return err
		}
	case FormatTimestamped:
		if err := p.loadTimestamped(f, s); err != nil {
			return err
		}
	default:
		return fmt.Errorf("history: unknown format %d", p.format)
	}

	p.file, f = f, nil
	return nil
}

func (p *Persist) loadVis(f *os.File, s *Store) error {
	var n int
	for sc := bufio.NewScanner(f); sc.Scan(); n++ {
		text := sc.Text()
		if n == 0 {
			if text != visCookie {
				return fmt.Errorf("malformed history cookie: %q != %q", text, visCookie)
			}
			continue
		}
		v, err := decodeVis(text)
		if err != nil {
			return err
		}
		s.Add(v)
	}
	if n == 0 {
		fmt.Fprintf(f, "%s\n", visCookie)
	}
	return nil
}

// loadTimestamped implements spec §4.3's read: "when the first non-comment
// line begins with the configured comment character followed by a digit,
// the reader treats the file as timestamped and allows multi-line entries
// (lines not prefixed by a timestamp are appended to the previous entry
// with a newline)".
func (p *Persist) loadTimestamped(f *os.File, s *Store) error {
	var pendingTime time.Time
	var havePending bool
	var lines []string

	flush := func() {
		if len(lines) == 0 {
			return
		}
		e := s.Add(strings.Join(lines, "\n"))
		if havePending {
			e.Time = pendingTime
		}
		lines = nil
		havePending = false
	}

	first, multiline := true, false
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if first {
			multiline = p.looksLikeTimestamp(line)
			first = false
		}
		if p.looksLikeTimestamp(line) {
			flush()
			if t, err := parseTimestampLine(line[1:]); err == nil {
				pendingTime, havePending = t, true
			}
			continue
		}
		if len(lines) == 0 || !multiline {
			flush()
			lines = []string{line}
		} else {
			lines = append(lines, line)
		}
	}
	flush()
	return sc.Err()
}

// looksLikeTimestamp reports whether line "looks like a timestamp": its
// first byte is the configured comment character and its second byte is an
// ASCII digit, per spec §4.3's timestamp heuristic.
func (p *Persist) looksLikeTimestamp(line string) bool {
	return len(line) >= 2 && line[0] == p.commentChar && line[1] >= '0' && line[1] <= '9'
}

func parseTimestampLine(s string) (time.Time, error) {
	sec, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0), nil
}

// Close closes the append handle opened by Load, if any.
func (p *Persist) Close() error {
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// Append mirrors a single new entry to the open file, matching the
// teacher's history.Add appending to h.file as each line is added.
func (p *Persist) Append(e Entry) error {
	if p.file == nil {
		return nil
	}
	switch p.format {
	case FormatVis:
		_, err := fmt.Fprintf(p.file, "%s\n", encodeVis(e.Line))
		return err
	case FormatTimestamped:
		if p.timestamp && !e.Time.IsZero() {
			if _, err := fmt.Fprintf(p.file, "%c%d\n", p.commentChar, e.Time.Unix()); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(p.file, "%s\n", e.Line)
		return err
	default:
		return fmt.Errorf("history: unknown format %d", p.format)
	}
}

// WriteAll truncates and rewrites path with every entry in s, atomically:
// it writes to path-<pid>.tmp in the same directory (following symlinks)
// and renames over the original, then chowns the new file to match the
// original's owner when they differ, per spec §4.3's truncation semantics.
func (p *Persist) WriteAll(s *Store) error {
	real, err := filepath.EvalSymlinks(p.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		real = p.path
	}

	var origInfo os.FileInfo
	if fi, err := os.Stat(real); err == nil {
		origInfo = fi
	}

	tmp := fmt.Sprintf("%s-%d.tmp", real, os.Getpid())
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if err := p.writeEntries(f, s); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, real); err != nil {
		os.Remove(tmp)
		return err
	}

	chownIfNeeded(real, origInfo)
	return nil
}

func (p *Persist) writeEntries(w io.Writer, s *Store) error {
	switch p.format {
	case FormatVis:
		if _, err := fmt.Fprintf(w, "%s\n", visCookie); err != nil {
			return err
		}
		for _, e := range s.All() {
			if _, err := fmt.Fprintf(w, "%s\n", encodeVis(e.Line)); err != nil {
				return err
			}
		}
	case FormatTimestamped:
		for _, e := range s.All() {
			if p.timestamp && !e.Time.IsZero() {
				if _, err := fmt.Fprintf(w, "%c%d\n", p.commentChar, e.Time.Unix()); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "%s\n", e.Line); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("history: unknown format %d", p.format)
	}
	return nil
}

// ReadRange reads only the entries in [first, last] from path, per spec
// §4.3's "range-read" file operation. The file is read into a scratch Store,
// so no caller's Store is modified.
func (p *Persist) ReadRange(first, last int) ([]string, error) {
	tmp := New()
	f, err := os.Open(p.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch p.format {
	case FormatVis:
		if err := p.loadVis(f, tmp); err != nil {
			return nil, err
		}
	case FormatTimestamped:
		if err := p.loadTimestamped(f, tmp); err != nil {
			return nil, err
		}
	}

	var out []string
	for i := tmp.Base(); i < tmp.Base()+tmp.Len(); i++ {
		if i < first || (last >= 0 && i > last) {
			continue
		}
		if e, ok := tmp.Get(i); ok {
			out = append(out, e.Line)
		}
	}
	return out, nil
}
