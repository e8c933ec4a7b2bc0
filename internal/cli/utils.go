package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/kolp/internal/filex"
	"github.com/dmitrijs2005/kolp/internal/models"
	"github.com/dmitrijs2005/kolp/internal/services"
)

// stdio is the path argument that selects stdin or stdout.
const stdio = "-"

// readSnapshot loads a snapshot JSON document from path, or from in when
// path is "-".
func (r *runtime) readSnapshot(path string) (*models.Snapshot, error) {
	var (
		data []byte
		err  error
	)
	if path == stdio {
		data, err = io.ReadAll(r.in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	s, err := models.ParseSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return s, nil
}

// writeSnapshot stores s as indented JSON at path, or prints it when path
// is empty or "-".
func (r *runtime) writeSnapshot(s *models.Snapshot, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize snapshot: %w", err)
	}
	data = append(data, '\n')

	if path == "" || path == stdio {
		_, err = r.out.Write(data)
		return err
	}
	return filex.WriteFileAtomic(path, data, 0o600)
}

// toStdout reports whether a snapshot destination means standard output.
func toStdout(path string) bool {
	return path == "" || path == stdio
}

// userError converts err into the short message shown by the command line.
func userError(err error) error {
	return errors.New(services.Message(err))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}

func summary(s *models.Snapshot) string {
	notes, folders, tags, attachments := s.Counts()
	return fmt.Sprintf("%d notes, %d folders, %d tags, %d attachments", notes, folders, tags, attachments)
}
