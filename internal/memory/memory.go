// Package memory keeps the rolling conversation history used to give the
// language model context across turns.
package memory

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

type Entry struct {
	Input  string
	Output string
	At     time.Time
}

// Log is an append-only exchange history safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

func NewLog() *Log {
	return &Log{now: time.Now}
}

func (l *Log) Append(input, output string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{Input: input, Output: output, At: l.now()})
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Recent returns up to n of the newest entries, oldest first.
func (l *Log) Recent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || len(l.entries) == 0 {
		return nil
	}
	start := len(l.entries) - n
	if start < 0 {
		start = 0
	}
	out := make([]Entry, len(l.entries)-start)
	copy(out, l.entries[start:])
	return out
}

// Transcript renders the newest n exchanges as prompt context.
func (l *Log) Transcript(n int) string {
	entries := l.Recent(n)
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", e.Input, e.Output)
	}
	return b.String()
}

// Last returns the newest assistant output, if any.
func (l *Log) Last() (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[len(l.entries)-1], true
}
