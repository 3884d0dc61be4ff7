package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type driveItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	WebURL      string    `json:"webUrl"`
	CreatedAt   string    `json:"createdDateTime"`
	ModifiedAt  string    `json:"lastModifiedDateTime"`
	DownloadURL string    `json:"@microsoft.graph.downloadUrl"`
	Folder      *struct{} `json:"folder"`
	File        *struct{} `json:"file"`
}

type driveItemList struct {
	Value []driveItem `json:"value"`
}

// ensureFolder returns the id of the named folder, creating it under
// the drive root when absent. The folder id is re-resolved on every
// call; conflict behavior "rename" keeps a creation race from
// hard-failing.
func (c *Client) ensureFolder(ctx context.Context, token, folderName string) (string, error) {
	listURL := c.baseURL + "/me/drive/root/children"

	items, err := c.listItems(ctx, token, listURL)
	if err != nil {
		return "", err
	}
	for _, item := range items {
		if item.Name == folderName && item.Folder != nil {
			return item.ID, nil
		}
	}

	body, err := json.Marshal(map[string]any{
		"name":                              folderName,
		"folder":                            map[string]any{},
		"@microsoft.graph.conflictBehavior": "rename",
	})
	if err != nil {
		return "", fmt.Errorf("marshal folder request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, listURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build folder request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send folder request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read folder response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("create folder status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var created driveItem
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", fmt.Errorf("decode folder response: %w", err)
	}
	if strings.TrimSpace(created.ID) == "" {
		return "", fmt.Errorf("folder response missing id")
	}
	return created.ID, nil
}

func (c *Client) listItems(ctx context.Context, token, listURL string) ([]driveItem, error) {
	reqCtx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send list request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read list response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("list items status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed driveItemList
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode list response: %w", err)
	}
	return parsed.Value, nil
}
