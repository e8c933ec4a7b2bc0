// Package remote talks to the storage provider (Google Drive v3). Every
// operation takes a ready access token; refreshing is the caller's job.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/dmitrijs2005/kolp/internal/common"
	"github.com/dmitrijs2005/kolp/internal/logging"
)

// ErrTransport wraps every failed provider call. The provider message, when
// there is one, is kept in the chain as *googleapi.Error.
var ErrTransport = errors.New("remote storage request failed")

const backupMimeType = "application/octet-stream"

// Client is a thin Drive wrapper. The zero Endpoint targets Google.
type Client struct {
	endpoint string
	base     *http.Client
	logger   logging.Logger
}

// NewClient builds a Client. endpoint is the API root (for example
// "https://www.googleapis.com/"); empty means the default. base, when not
// nil, is the transport underneath the bearer-token client.
func NewClient(endpoint string, base *http.Client, logger logging.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		base:     base,
		logger:   logger.With("module", "remote"),
	}
}

func (c *Client) service(ctx context.Context, token string) (*drive.Service, *http.Client, error) {
	if c.base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.base)
	}
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))

	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimSuffix(c.endpoint, "/")+"/drive/v3/"))
	}
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("drive client: %w", err)
	}
	return svc, hc, nil
}

// Upload stores data as a new object called name in one multipart request
// and returns its id.
func (c *Client) Upload(ctx context.Context, token string, data []byte, name string) (string, error) {
	svc, _, err := c.service(ctx, token)
	if err != nil {
		return "", err
	}

	f, err := svc.Files.Create(&drive.File{Name: name, MimeType: backupMimeType}).
		Media(bytes.NewReader(data), googleapi.ChunkSize(0), googleapi.ContentType(backupMimeType)).
		Fields("id", "name").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("%w: upload %s: %w", ErrTransport, name, err)
	}

	c.logger.Info(ctx, "backup uploaded", "file_id", f.Id, "name", name, "size", len(data))
	return f.Id, nil
}

// FindLatest returns the id of the most recently modified backup object.
func (c *Client) FindLatest(ctx context.Context, token string) (string, bool, error) {
	svc, _, err := c.service(ctx, token)
	if err != nil {
		return "", false, err
	}

	list, err := svc.Files.List().
		Q(fmt.Sprintf("name contains '%s' and trashed = false", common.BackupNameMarker)).
		OrderBy("modifiedTime desc").
		PageSize(1).
		Fields("files(id, name, modifiedTime)").
		Context(ctx).
		Do()
	if err != nil {
		return "", false, fmt.Errorf("%w: list backups: %w", ErrTransport, err)
	}
	if len(list.Files) == 0 {
		c.logger.Debug(ctx, "no remote backup")
		return "", false, nil
	}

	latest := list.Files[0]
	c.logger.Debug(ctx, "latest remote backup", "file_id", latest.Id, "name", latest.Name, "modified", latest.ModifiedTime)
	return latest.Id, true, nil
}

// Download returns the full content of object id.
func (c *Client) Download(ctx context.Context, token, id string) ([]byte, error) {
	svc, _, err := c.service(ctx, token)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("%w: download %s: %w", ErrTransport, id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrTransport, id, err)
	}

	c.logger.Info(ctx, "backup downloaded", "file_id", id, "size", len(data))
	return data, nil
}

// Delete removes object id. Only 200 and 204 count as success.
func (c *Client) Delete(ctx context.Context, token, id string) error {
	svc, hc, err := c.service(ctx, token)
	if err != nil {
		return err
	}

	u := googleapi.ResolveRelative(svc.BasePath, "files/"+url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrTransport, id, err)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrTransport, id, err)
	}
	defer googleapi.CloseBody(resp)

	if err := googleapi.CheckResponse(resp); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrTransport, id, err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: delete %s: unexpected status %d", ErrTransport, id, resp.StatusCode)
	}

	c.logger.Info(ctx, "backup deleted", "file_id", id)
	return nil
}

// Message returns the provider's own message for err when it carries one.
func Message(err error) string {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Message != "" {
		return gerr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
