package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	telemetry "machine-analytics/internal/telemetry/domain"
)

const (
	defaultBaseURL = "https://www.googleapis.com"
	readonlyScope  = "https://www.googleapis.com/auth/drive.readonly"
	csvMimeType    = "text/csv"
	pageSize       = 100
)

// Client is a minimal Google Drive v3 client listing the CSV files of one folder.
type Client struct {
	baseURL  string
	folderID string
	client   *http.Client

	mu  sync.RWMutex
	ids map[string]string
}

// NewClient builds a client authorized with a service account key.
func NewClient(ctx context.Context, credentialsJSON []byte, folderID string) (*Client, error) {
	if len(credentialsJSON) == 0 {
		return nil, errors.New("drive: empty credentials")
	}
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, readonlyScope)
	if err != nil {
		return nil, fmt.Errorf("drive: credentials: %w", err)
	}
	httpClient := oauth2.NewClient(ctx, creds.TokenSource)
	httpClient.Timeout = 60 * time.Second
	return NewClientWithHTTP(defaultBaseURL, folderID, httpClient)
}

// NewClientWithHTTP builds a client on an already authorized HTTP client.
func NewClientWithHTTP(baseURL, folderID string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("drive: empty base url")
	}
	if folderID == "" {
		return nil, errors.New("drive: empty folder id")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		folderID: folderID,
		client:   httpClient,
		ids:      make(map[string]string),
	}, nil
}

type fileList struct {
	Files         []driveFile `json:"files"`
	NextPageToken string      `json:"nextPageToken"`
}

type driveFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// List returns every CSV file in the folder.
func (c *Client) List(ctx context.Context) ([]telemetry.File, error) {
	query := fmt.Sprintf("'%s' in parents and mimeType='%s' and trashed=false", c.folderID, csvMimeType)

	var files []telemetry.File
	ids := make(map[string]string)
	pageToken := ""
	for {
		params := url.Values{}
		params.Set("q", query)
		params.Set("fields", "nextPageToken,files(id,name)")
		params.Set("pageSize", fmt.Sprint(pageSize))
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}
		var page fileList
		if err := c.getJSON(ctx, "/drive/v3/files?"+params.Encode(), &page); err != nil {
			return nil, err
		}
		for _, f := range page.Files {
			files = append(files, telemetry.File{ID: f.ID, Name: f.Name})
			if _, dup := ids[f.Name]; !dup {
				ids[f.Name] = f.ID
			}
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	c.mu.Lock()
	c.ids = ids
	c.mu.Unlock()
	return files, nil
}

// Open downloads a file by name, refreshing the listing when the name is unknown.
func (c *Client) Open(ctx context.Context, name string) (telemetry.Dataset, error) {
	if name == "" {
		return telemetry.Dataset{}, telemetry.ErrEmptyFileName
	}
	id, ok := c.lookup(name)
	if !ok {
		if _, err := c.List(ctx); err != nil {
			return telemetry.Dataset{}, err
		}
		if id, ok = c.lookup(name); !ok {
			return telemetry.Dataset{}, telemetry.ErrFileNotFound
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/drive/v3/files/"+url.PathEscape(id)+"?alt=media", nil)
	if err != nil {
		return telemetry.Dataset{}, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return telemetry.Dataset{}, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return telemetry.Dataset{}, telemetry.ErrFileNotFound
	}
	if resp.StatusCode >= 300 {
		resp.Body.Close()
		return telemetry.Dataset{}, fmt.Errorf("drive: http %d", resp.StatusCode)
	}
	return telemetry.Dataset{Name: name, Body: resp.Body}, nil
}

func (c *Client) lookup(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.ids[name]
	return id, ok
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("drive: http %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
