package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"

	"pathowners/internal/model"
	"pathowners/internal/owners"
)

// FileChange reports the outcome of a write-path command for one config file.
type FileChange struct {
	Path    string `json:"path"`
	Changed bool   `json:"changed"`
	// Diff holds a unified-style before/after rendering when requested.
	Diff string `json:"diff,omitempty"`
}

// ConsoleSink renders results to the console. Writes are serialized, so one
// sink can be shared by concurrent workers.
type ConsoleSink struct {
	writer  io.Writer
	format  string // "text", "json", "ndjson"
	verbose bool
	mu      sync.Mutex
	items   []any // for JSON array output
}

func NewConsoleSink(w io.Writer, format string, verbose bool) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}
	return &ConsoleSink{writer: w, format: format, verbose: verbose}
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json":
		s.items = append(s.items, v)
		return nil
	case "ndjson":
		if err := json.NewEncoder(s.writer).Encode(v); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	case "text":
		if err := s.writeText(v); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func (s *ConsoleSink) writeText(v any) error {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	switch t := v.(type) {
	case *owners.PathOwners:
		bold.Fprintln(s.writer, t.Path)
		if t.OwnedByAllUsers {
			yellow.Fprintln(s.writer, "  owned by all users")
		}
		if len(t.Owners) == 0 && !t.OwnedByAllUsers {
			red.Fprintln(s.writer, "  no code owners")
		}
		for _, o := range t.Owners {
			fmt.Fprintf(s.writer, "  %s", o.Reference.Email)
			for _, a := range o.Annotations {
				fmt.Fprintf(s.writer, " #{%s}", a)
			}
			fmt.Fprintf(s.writer, " (distance %d)\n", o.Distance)
		}
		for _, imp := range t.Unresolved {
			yellow.Fprintf(s.writer, "  warning: %s\n", imp.Message)
		}
		s.writeDebugLogs(t.DebugLogs)
		return nil

	case *owners.CheckResult:
		if t.IsCodeOwner {
			green.Fprintf(s.writer, "%s is a code owner of %s\n", t.Email, t.Path)
		} else {
			red.Fprintf(s.writer, "%s is not a code owner of %s\n", t.Email, t.Path)
		}
		for _, p := range t.ConfigFilePaths {
			fmt.Fprintf(s.writer, "  listed in %s\n", p)
		}
		if t.IsDefaultCodeOwner {
			fmt.Fprintln(s.writer, "  default code owner")
		}
		if t.IsGlobalCodeOwner {
			fmt.Fprintln(s.writer, "  global code owner")
		}
		if t.IsFallbackCodeOwner {
			fmt.Fprintln(s.writer, "  fallback code owner")
		}
		if t.IsOwnedByAllUsers {
			fmt.Fprintln(s.writer, "  path is owned by all users")
		}
		s.writeDebugLogs(t.DebugLogs)
		return nil

	case owners.Finding:
		red.Fprintf(s.writer, "[%s] ", t.Kind)
		fmt.Fprintf(s.writer, "%s: %s\n", t.Path, t.Message)
		return nil

	case model.PathCodeOwnerStatus:
		switch t.Status {
		case model.StatusApproved:
			green.Fprintf(s.writer, "[%s] ", t.Status)
		case model.StatusPending:
			yellow.Fprintf(s.writer, "[%s] ", t.Status)
		default:
			red.Fprintf(s.writer, "[%s] ", t.Status)
		}
		fmt.Fprint(s.writer, t.Path)
		for _, r := range t.Reasons {
			fmt.Fprintf(s.writer, " - %s", r)
		}
		fmt.Fprintln(s.writer)
		return nil

	case FileChange:
		if t.Changed {
			yellow.Fprintf(s.writer, "%s\n", t.Path)
			if t.Diff != "" {
				fmt.Fprint(s.writer, t.Diff)
			}
		} else if s.verbose {
			fmt.Fprintf(s.writer, "%s (unchanged)\n", t.Path)
		}
		return nil

	default:
		return json.NewEncoder(s.writer).Encode(v)
	}
}

func (s *ConsoleSink) writeDebugLogs(logs []string) {
	if !s.verbose {
		return
	}
	for _, l := range logs {
		fmt.Fprintf(s.writer, "    # %s\n", l)
	}
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		encoder := json.NewEncoder(s.writer)
		encoder.SetIndent("", "  ")
		items := s.items
		if items == nil {
			items = []any{}
		}
		if err := encoder.Encode(items); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	}
	if s.format != "text" && s.format != "ndjson" {
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
	return nil
}

type flusher interface {
	Flush() error
}

func flushIfPossible(w io.Writer) error {
	f, ok := w.(flusher)
	if !ok {
		return nil
	}
	return f.Flush()
}
