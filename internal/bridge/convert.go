package bridge

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmitrijs2005/kolp/internal/events"
	"github.com/dmitrijs2005/kolp/internal/models"
)

// Struct payloads use the snapshot's JSON field names. Timestamps are UTC
// RFC 3339 strings; the zero time is sent as "".

func snapshotToStruct(s *models.Snapshot) (*structpb.Struct, error) {
	m, err := toMap(s)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func snapshotFromStruct(st *structpb.Struct) (*models.Snapshot, error) {
	if st == nil {
		return nil, fmt.Errorf("empty snapshot")
	}
	return snapshotFromMap(st.AsMap())
}

func snapshotFromMap(m map[string]any) (*models.Snapshot, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var s models.Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return &s, nil
}

func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func instant(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseInstant reads a value written by instant. Anything else is the zero time.
func parseInstant(v any) time.Time {
	s, _ := v.(string)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func eventToStruct(e events.Event) (*structpb.Struct, error) {
	fields := make(map[string]any, len(e.Fields))
	for k, v := range e.Fields {
		fields[k] = v
	}
	return structpb.NewStruct(map[string]any{
		"kind":   string(e.Kind),
		"at":     instant(e.At),
		"fields": fields,
	})
}

func eventFromStruct(st *structpb.Struct) events.Event {
	m := st.AsMap()
	e := events.Event{Fields: map[string]string{}}
	if k, ok := m["kind"].(string); ok {
		e.Kind = events.Kind(k)
	}
	e.At = parseInstant(m["at"])
	if f, ok := m["fields"].(map[string]any); ok {
		for k, v := range f {
			if s, ok := v.(string); ok {
				e.Fields[k] = s
			}
		}
	}
	return e
}

func stringField(st *structpb.Struct, key string) string {
	if st == nil {
		return ""
	}
	return st.GetFields()[key].GetStringValue()
}
