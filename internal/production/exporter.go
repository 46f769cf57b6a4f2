package production

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/comalice/asynclanes/internal/core"
	"github.com/comalice/asynclanes/timeline"
)

// FrameRecord is the serialized form of one replay frame.
type FrameRecord struct {
	Index       int               `json:"index" yaml:"index"`
	Event       string            `json:"event,omitempty" yaml:"event,omitempty"`
	Note        string            `json:"note,omitempty" yaml:"note,omitempty"`
	Fingerprint string            `json:"fingerprint" yaml:"fingerprint"`
	Snapshot    core.SnapshotView `json:"snapshot" yaml:"snapshot"`
}

// Replay is the serialized form of a whole replay.
type Replay struct {
	Session  string        `json:"session" yaml:"session"`
	Scenario string        `json:"scenario" yaml:"scenario"`
	Total    int           `json:"total" yaml:"total"`
	Frames   []FrameRecord `json:"frames" yaml:"frames"`
}

// Exporter writes frames to w.
type Exporter interface {
	Export(w io.Writer, frames []timeline.Frame) error
}

// CollectFrames resets s and returns its frame at Start and after every step
// up to and including index upTo.
func CollectFrames(s *timeline.Session, upTo int) []timeline.Frame {
	s.Reset()
	frames := []timeline.Frame{s.Frame()}
	for s.Index() < upTo && s.Step() {
		frames = append(frames, s.Frame())
	}
	return frames
}

// NewReplay converts frames into their serialized form.
func NewReplay(frames []timeline.Frame) (Replay, error) {
	var r Replay
	if len(frames) > 0 {
		r.Session = frames[0].SessionID.String()
		r.Scenario = frames[0].ScenarioID
		r.Total = frames[0].Total
	}
	r.Frames = make([]FrameRecord, 0, len(frames))
	for _, f := range frames {
		fp, err := f.Snapshot.Fingerprint()
		if err != nil {
			return Replay{}, fmt.Errorf("frame %d: %w", f.Index, err)
		}
		rec := FrameRecord{
			Index:       f.Index,
			Note:        f.Note(),
			Fingerprint: fp,
			Snapshot:    f.Snapshot.View(),
		}
		if f.Event != nil {
			rec.Event = f.Event.String()
		}
		r.Frames = append(r.Frames, rec)
	}
	return r, nil
}

// JSONExporter writes a Replay as indented JSON.
type JSONExporter struct{}

func (JSONExporter) Export(w io.Writer, frames []timeline.Frame) error {
	r, err := NewReplay(frames)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

// YAMLExporter writes a Replay as YAML.
type YAMLExporter struct{}

func (YAMLExporter) Export(w io.Writer, frames []timeline.Frame) error {
	r, err := NewReplay(frames)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return nil
}

// DOTExporter writes the last frame as Graphviz DOT.
type DOTExporter struct{}

func (DOTExporter) Export(w io.Writer, frames []timeline.Frame) error {
	if len(frames) == 0 {
		return fmt.Errorf("dot export: no frames")
	}
	v := &DOTVisualizer{}
	if _, err := io.WriteString(w, v.ExportDOT(frames[len(frames)-1].Snapshot)); err != nil {
		return fmt.Errorf("dot export: %w", err)
	}
	return nil
}

// ExporterFor returns the exporter for a format name: json, yaml or dot.
func ExporterFor(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "json":
		return JSONExporter{}, nil
	case "yaml", "yml":
		return YAMLExporter{}, nil
	case "dot", "gv":
		return DOTExporter{}, nil
	}
	return nil, fmt.Errorf("unknown export format %q", format)
}

// WriteFile exports frames to path, choosing the format from its extension
// and creating parent directories as needed.
func WriteFile(path string, frames []timeline.Frame) error {
	exp, err := ExporterFor(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := exp.Export(f, frames); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
