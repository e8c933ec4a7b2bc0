package bridge

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/kolp/internal/bridge/auth"
	"github.com/dmitrijs2005/kolp/internal/common"
	"github.com/dmitrijs2005/kolp/internal/filex"
)

const (
	secretSize = 32
	uiSubject  = "ui"
)

// NewSecret returns a fresh signing key. Keys live only as long as the
// serving process, so tokens from an earlier run stop working.
func NewSecret() []byte {
	return common.GenerateRandByteArray(secretSize)
}

// IssueToken mints a token for the UI and stores it at path (mode 0600)
// where the UI process picks it up.
func IssueToken(path string, secret []byte, validity time.Duration) (string, error) {
	tok, err := auth.GenerateToken(uiSubject, secret, validity)
	if err != nil {
		return "", fmt.Errorf("sign bridge token: %w", err)
	}
	if err := filex.WriteFileAtomic(path, []byte(tok+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("store bridge token: %w", err)
	}
	return tok, nil
}

// ReadToken loads a token written by IssueToken.
func ReadToken(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
