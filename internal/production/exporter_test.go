package production

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/comalice/asynclanes/internal/primitives"
	"github.com/comalice/asynclanes/testutil"
	"github.com/comalice/asynclanes/timeline"
)

func frames(t *testing.T, upTo int) []timeline.Frame {
	t.Helper()
	s := timeline.NewSession("io", testutil.IOAwaitLog(primitives.CaptureTrue), primitives.ModeUI)
	return CollectFrames(s, upTo)
}

func TestCollectFrames(t *testing.T) {
	fs := frames(t, 2)
	if len(fs) != 4 {
		t.Fatalf("got %d frames, want 4 (start + 3 steps)", len(fs))
	}
	for i, f := range fs {
		if f.Index != i-1 {
			t.Errorf("frame %d index = %d", i, f.Index)
		}
	}
	if all := frames(t, 100); len(all) != len(testutil.IOAwaitLog(primitives.CaptureTrue))+1 {
		t.Errorf("CollectFrames past end = %d frames", len(all))
	}
}

func TestJSONExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSONExporter{}).Export(&buf, frames(t, 100)); err != nil {
		t.Fatalf("Export: %v", err)
	}
	var r Replay
	if err := json.Unmarshal(buf.Bytes(), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.Scenario != "io" || r.Total != 8 || len(r.Frames) != 9 {
		t.Errorf("replay = scenario %q total %d frames %d", r.Scenario, r.Total, len(r.Frames))
	}
	if r.Frames[0].Event != "" || r.Frames[1].Event != "call lane=ui method=FooAsync" {
		t.Errorf("events = %q, %q", r.Frames[0].Event, r.Frames[1].Event)
	}
	if len(r.Frames[0].Fingerprint) != 64 || r.Frames[0].Fingerprint == r.Frames[1].Fingerprint {
		t.Error("fingerprints should be distinct sha256 hex digests")
	}
}

func TestYAMLExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := (YAMLExporter{}).Export(&buf, frames(t, 1)); err != nil {
		t.Fatalf("Export: %v", err)
	}
	var r Replay
	if err := yaml.Unmarshal(buf.Bytes(), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(r.Frames) != 3 {
		t.Fatalf("frames = %d, want 3", len(r.Frames))
	}
	last := r.Frames[2].Snapshot
	if len(last.Lanes) == 0 || len(last.Lanes[0].Suspended) != 1 {
		t.Errorf("suspended ui frame not exported: %+v", last.Lanes)
	}
	if !strings.Contains(buf.String(), "captureContext: \"true\"") && !strings.Contains(buf.String(), "captureContext: true") {
		t.Errorf("capture flag missing:\n%s", buf.String())
	}
}

func TestExporterFor(t *testing.T) {
	for _, name := range []string{"json", "YAML", "yml", "dot"} {
		if _, err := ExporterFor(name); err != nil {
			t.Errorf("ExporterFor(%q): %v", name, err)
		}
	}
	if _, err := ExporterFor("xml"); err == nil {
		t.Error("ExporterFor(xml) should fail")
	}
	if err := (DOTExporter{}).Export(&bytes.Buffer{}, nil); err == nil {
		t.Error("DOT export of no frames should fail")
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	fs := frames(t, 100)

	for _, name := range []string{"out/replay.json", "out/replay.yaml", "out/final.dot"} {
		path := filepath.Join(dir, name)
		if err := WriteFile(path, fs); err != nil {
			t.Fatalf("WriteFile(%s): %v", name, err)
		}
		data, err := os.ReadFile(path)
		if err != nil || len(data) == 0 {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	if err := WriteFile(filepath.Join(dir, "replay.txt"), fs); err == nil {
		t.Error("WriteFile with unknown extension should fail")
	}
}
