// Package models defines the data exchanged between the backup core and the
// note application: the snapshot and its parts.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Snapshot is a point-in-time copy of the whole note library. It is built by
// the application, consumed whole by the codec and never mutated by the core.
//
// The core does not own the note schema. Notes, folders, tags and settings
// are kept as the JSON objects the application sent, and top-level members
// other than the five named ones are carried in Extra, so a snapshot
// survives encoding and decoding unchanged. Numbers are held as json.Number.
//
// A nil collection is left out of the JSON document; an empty one is
// written as [] or {}.
type Snapshot struct {
	Notes    []Note
	Folders  []Folder
	Tags     []Tag
	Settings Settings

	// Attachments maps an attachment id to its base64-encoded payload.
	Attachments map[string]string

	// Extra holds every other top-level member, and any named member whose
	// value does not have the expected shape, as compact JSON.
	Extra map[string]json.RawMessage
}

const (
	keyNotes       = "notes"
	keyFolders     = "folders"
	keyTags        = "tags"
	keySettings    = "settings"
	keyAttachments = "attachments"
)

// ParseSnapshot decodes a snapshot JSON document.
func ParseSnapshot(b []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+5)
	for k, v := range s.Extra {
		out[k] = v
	}
	if s.Notes != nil {
		out[keyNotes] = s.Notes
	}
	if s.Folders != nil {
		out[keyFolders] = s.Folders
	}
	if s.Tags != nil {
		out[keyTags] = s.Tags
	}
	if s.Settings != nil {
		out[keySettings] = s.Settings
	}
	if s.Attachments != nil {
		out[keyAttachments] = s.Attachments
	}
	return json.Marshal(out)
}

func (s *Snapshot) UnmarshalJSON(b []byte) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(b, &members); err != nil {
		return fmt.Errorf("snapshot must be a JSON object: %w", err)
	}

	*s = Snapshot{}
	for key, raw := range members {
		var ok bool
		switch key {
		case keyNotes:
			ok = decodeMember(raw, &s.Notes)
		case keyFolders:
			ok = decodeMember(raw, &s.Folders)
		case keyTags:
			ok = decodeMember(raw, &s.Tags)
		case keySettings:
			ok = decodeMember(raw, &s.Settings)
		case keyAttachments:
			ok = decodeMember(raw, &s.Attachments)
		}
		if ok {
			continue
		}
		if s.Extra == nil {
			s.Extra = map[string]json.RawMessage{}
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			return err
		}
		s.Extra[key] = compact.Bytes()
	}
	return nil
}

// decodeMember sets *dst only when raw is a non-null value of T's shape.
func decodeMember[T any](raw json.RawMessage, dst *T) bool {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v T
	if err := dec.Decode(&v); err != nil {
		return false
	}
	*dst = v
	return true
}

// Counts summarises a snapshot for logs and journal entries.
func (s *Snapshot) Counts() (notes, folders, tags, attachments int) {
	return len(s.Notes), len(s.Folders), len(s.Tags), len(s.Attachments)
}

// Note is one note as a JSON object.
type Note map[string]any

func (n Note) ID() string       { return stringMember(n, "id") }
func (n Note) Title() string    { return stringMember(n, "title") }
func (n Note) Content() string  { return stringMember(n, "content") }
func (n Note) FolderID() string { return stringMember(n, "folderId") }

// Folder is one folder as a JSON object.
type Folder map[string]any

func (f Folder) ID() string       { return stringMember(f, "id") }
func (f Folder) Name() string     { return stringMember(f, "name") }
func (f Folder) ParentID() string { return stringMember(f, "parentId") }

// Tag is one tag as a JSON object.
type Tag map[string]any

func (t Tag) ID() string   { return stringMember(t, "id") }
func (t Tag) Name() string { return stringMember(t, "name") }

// Settings is the application preferences record as a JSON object.
type Settings map[string]any

// LastBackupFolder is the folder the application last exported to.
func (s Settings) LastBackupFolder() string { return stringMember(s, "lastBackupFolder") }

// stringMember returns m[key] when it is a string.
func stringMember(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}
