package drive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// FileInfo describes one file in a drive folder.
type FileInfo struct {
	Name        string `json:"name"`
	ID          string `json:"id"`
	Size        int64  `json:"size"`
	Created     string `json:"created,omitempty"`
	Modified    string `json:"modified,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	WebURL      string `json:"web_url,omitempty"`
}

// ListFolder lists the files (folders are skipped) of the named drive
// folder, or of the drive root when folderName is empty.
func (c *Client) ListFolder(ctx context.Context, folderName string) ([]FileInfo, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("drive token: %w", err)
	}

	listURL := c.baseURL + "/me/drive/root/children"
	if strings.TrimSpace(folderName) != "" {
		folderID, err := c.ensureFolder(ctx, token, folderName)
		if err != nil {
			return nil, fmt.Errorf("drive folder: %w", err)
		}
		listURL = c.baseURL + "/me/drive/items/" + folderID + "/children"
	}

	items, err := c.listItems(ctx, token, listURL)
	if err != nil {
		return nil, err
	}

	files := make([]FileInfo, 0, len(items))
	for _, item := range items {
		if item.File == nil {
			continue
		}
		files = append(files, FileInfo{
			Name:        item.Name,
			ID:          item.ID,
			Size:        item.Size,
			Created:     item.CreatedAt,
			Modified:    item.ModifiedAt,
			DownloadURL: item.DownloadURL,
			WebURL:      item.WebURL,
		})
	}
	return files, nil
}

// DeleteFile removes a drive file by id.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	token, err := c.token(ctx)
	if err != nil {
		return fmt.Errorf("drive token: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodDelete, c.baseURL+"/me/drive/items/"+fileID, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send delete request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("drive delete status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}
