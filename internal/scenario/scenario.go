// Package scenario loads scenario documents: a titled, annotated event log
// describing one async program, written in YAML.
//
// Documents are checked in three passes before any event is built: the JSON
// Schema in schema.json, the format version (must satisfy ^1) and finally the
// per-type field requirements of the primitives constructors. Records with an
// unrecognized type tag are kept as primitives.Unknown.
package scenario

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/comalice/asynclanes/internal/primitives"
)

// Errors returned by Parse, LoadFile and Lookup.
var (
	ErrNotFound          = errors.New("scenario not found")
	ErrInvalid           = errors.New("invalid scenario")
	ErrUnsupportedFormat = errors.New("unsupported scenario format")
)

// SupportedFormat is the constraint every document's format version must meet.
const SupportedFormat = "^1"

const schemaURL = "https://asynclanes.local/schemas/scenario.schema.json"

//go:embed schema.json
var schemaSource []byte

var (
	compiledSchema *jsonschema.Schema
	schemaErr      error
	schemaOnce     sync.Once
)

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, bytes.NewReader(schemaSource)); err != nil {
			schemaErr = fmt.Errorf("scenario schema load failed: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("scenario schema compile failed: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// Scenario is a decoded document.
type Scenario struct {
	Format  string
	ID      string
	Title   string
	Summary string
	Goals   []string
	Code    string
	Events  []primitives.Event
}

type document struct {
	Format  string   `json:"format"`
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Goals   []string `json:"goals"`
	Code    string   `json:"code"`
	Events  []record `json:"events"`
}

// record is one event as authored. Fields a type does not use are ignored.
type record struct {
	T              int      `json:"t"`
	Type           string   `json:"type"`
	Lane           string   `json:"lane"`
	Method         string   `json:"method"`
	TaskID         string   `json:"taskId"`
	Awaitable      string   `json:"awaitable"`
	Op             string   `json:"op"`
	Work           string   `json:"work"`
	WorkerID       string   `json:"workerId"`
	CaptureContext *bool    `json:"captureContext"`
	Joins          []string `json:"joins"`
	Note           string   `json:"note"`
}

// Parse decodes and validates a YAML scenario document.
func Parse(data []byte) (*Scenario, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: yaml: %w", ErrInvalid, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalid)
	}

	// The schema validator works on JSON values, so round-trip through JSON.
	js, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: json: %w", ErrInvalid, err)
	}
	dec := json.NewDecoder(bytes.NewReader(js))
	dec.UseNumber()
	var inst any
	if err := dec.Decode(&inst); err != nil {
		return nil, fmt.Errorf("%w: json: %w", ErrInvalid, err)
	}

	sch, err := schema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: schema validation failed: %w", ErrInvalid, err)
	}

	var doc document
	if err := json.Unmarshal(js, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := checkFormat(doc.Format); err != nil {
		return nil, err
	}

	sc := &Scenario{
		Format:  doc.Format,
		ID:      doc.ID,
		Title:   doc.Title,
		Summary: doc.Summary,
		Goals:   doc.Goals,
		Code:    doc.Code,
		Events:  make([]primitives.Event, 0, len(doc.Events)),
	}
	for i, r := range doc.Events {
		evt, err := r.event()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: event %d: %w", ErrInvalid, doc.ID, i, err)
		}
		sc.Events = append(sc.Events, evt)
	}
	return sc, nil
}

// LoadFile parses the scenario document at path.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

func checkFormat(format string) error {
	constraint, err := semver.NewConstraint(SupportedFormat)
	if err != nil {
		return fmt.Errorf("invalid format constraint %s: %w", SupportedFormat, err)
	}
	v, err := semver.NewVersion(format)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrUnsupportedFormat, format, err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrUnsupportedFormat, v, SupportedFormat)
	}
	return nil
}

func (r record) lane() (primitives.LaneID, error) {
	if r.Lane == "" {
		return "", fmt.Errorf("%s: missing lane", r.Type)
	}
	return primitives.ParseLane(r.Lane)
}

func (r record) event() (primitives.Event, error) {
	var (
		evt primitives.Event
		err error
	)
	switch primitives.Kind(r.Type) {
	case primitives.KindCall, primitives.KindReturn, primitives.KindAwait,
		primitives.KindYield, primitives.KindResume:
		lane, lerr := r.lane()
		if lerr != nil {
			return nil, lerr
		}
		evt, err = r.laneEvent(lane)
	case primitives.KindIOStart:
		evt, err = primitives.NewIOStart(r.TaskID, r.Op)
	case primitives.KindIOComplete:
		evt, err = primitives.NewIOComplete(r.TaskID)
	case primitives.KindQueueWork:
		evt, err = primitives.NewQueueWork(r.TaskID, r.Work)
	case primitives.KindWorkStart:
		evt, err = primitives.NewWorkStart(r.TaskID, r.WorkerID, r.Work)
	case primitives.KindWorkComplete:
		evt, err = primitives.NewWorkComplete(r.TaskID, r.WorkerID)
	case primitives.KindScheduleContinuation:
		evt, err = primitives.NewScheduleContinuation(r.TaskID, r.Joins...)
	default:
		evt = primitives.Unknown{Type: r.Type}
	}
	if err != nil {
		return nil, err
	}
	return primitives.WithMeta(evt, primitives.Meta{At: r.T, Comment: r.Note}), nil
}

func (r record) laneEvent(lane primitives.LaneID) (primitives.Event, error) {
	switch primitives.Kind(r.Type) {
	case primitives.KindCall:
		return primitives.NewCall(lane, r.Method)
	case primitives.KindReturn:
		return primitives.NewReturn(lane, r.Method, r.TaskID)
	case primitives.KindAwait:
		return primitives.NewAwait(lane, r.Method, r.TaskID, r.Awaitable, primitives.CaptureOf(r.CaptureContext))
	case primitives.KindYield:
		return primitives.NewYield(lane, r.Method)
	default:
		return primitives.NewResume(lane, r.Method, r.TaskID)
	}
}
