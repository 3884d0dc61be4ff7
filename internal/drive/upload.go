package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// UploadResult reports where a mirrored file ended up. Skipped marks
// the administratively-disabled case, which is a success with no
// effect rather than a failure.
type UploadResult struct {
	WebURL   string
	FileID   string
	FileName string
	Skipped  bool
}

// Upload delivers a file into the user's drive folder: token, folder
// resolution, unique naming, then a single PUT of the raw bytes. Each
// step is a hard dependency on the previous one and no step retries;
// failures are reported verbatim to the caller.
func (c *Client) Upload(ctx context.Context, content []byte, fileName, userID string) (*UploadResult, error) {
	if !c.Enabled() {
		return &UploadResult{Skipped: true}, nil
	}

	token, err := c.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("drive token: %w", err)
	}

	folderID, err := c.ensureFolder(ctx, token, c.folderName)
	if err != nil {
		return nil, fmt.Errorf("drive folder: %w", err)
	}

	uniqueName := UniqueName(fileName, userID)
	uploadURL := fmt.Sprintf("%s/me/drive/items/%s:/%s:/content", c.baseURL, folderID, url.PathEscape(uniqueName))

	reqCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPut, uploadURL, bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send upload request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("drive upload status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var item driveItem
	if err := json.Unmarshal(respBody, &item); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}

	return &UploadResult{
		WebURL:   item.WebURL,
		FileID:   item.ID,
		FileName: uniqueName,
	}, nil
}
