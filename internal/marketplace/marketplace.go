package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vsxdl/internal/models"
	"vsxdl/internal/utils"
)

const (
	PageSize        = 15
	VersionPageSize = 100

	// Filter types understood by the extensionquery endpoint.
	FilterTypeExtensionName = 7
	FilterTypeTarget        = 8
	FilterTypeSearchText    = 10
	FilterTypeExcludeFlags  = 12

	TargetVSCode = "Microsoft.VisualStudio.Code"
	excludeFlags = "37888"

	searchFlags  = 870
	versionFlags = 2151
)

var searchAssetTypes = []string{
	models.AssetIconDefault,
	models.AssetIconBranding,
	models.AssetIconSmall,
}

type Marketplace struct {
	endpoint string
	client   *http.Client
	logger   *utils.Logger
}

func New(endpoint string, timeout time.Duration) *Marketplace {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Marketplace{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: utils.NewLogger(),
	}
}

// TotalPages derives the page count from the raw total.
func TotalPages(totalCount int) int {
	if totalCount <= 0 {
		return 0
	}
	return (totalCount + PageSize - 1) / PageSize
}

// Search returns one page (1-based) of free-text results.
func (m *Marketplace) Search(ctx context.Context, query string, page int) (*models.SearchResult, error) {
	if page < 1 {
		page = 1
	}

	requestBody := map[string]interface{}{
		"assetTypes": searchAssetTypes,
		"filters": []map[string]interface{}{
			{
				"criteria": []map[string]interface{}{
					{"filterType": FilterTypeTarget, "value": TargetVSCode},
					{"filterType": FilterTypeSearchText, "value": query},
					{"filterType": FilterTypeExcludeFlags, "value": excludeFlags},
				},
				"direction":   2,
				"pageSize":    PageSize,
				"pageNumber":  page,
				"sortBy":      0,
				"sortOrder":   0,
				"pagingToken": nil,
			},
		},
		"flags": searchFlags,
	}

	response, err := m.query(ctx, "search", requestBody, "")
	if err != nil {
		return nil, err
	}

	set := response.Results[0]
	extensions := set.Extensions
	if extensions == nil {
		extensions = []models.Extension{}
	}

	result := &models.SearchResult{
		Page:       page,
		TotalCount: set.totalCount(),
		Extensions: extensions,
	}
	m.logger.LogSearchQuery(query, page, len(result.Extensions), result.TotalCount)
	return result, nil
}

// Lookup fetches one extension by "publisher.extension" with its full version
// history.
func (m *Marketplace) Lookup(ctx context.Context, extensionID string) (*models.Extension, error) {
	requestBody := map[string]interface{}{
		"assetTypes": nil,
		"filters": []map[string]interface{}{
			{
				"criteria": []map[string]interface{}{
					{"filterType": FilterTypeExtensionName, "value": extensionID},
				},
				"direction":   2,
				"pageSize":    VersionPageSize,
				"pageNumber":  1,
				"sortBy":      0,
				"sortOrder":   0,
				"pagingToken": nil,
			},
		},
		"flags": versionFlags,
	}

	response, err := m.query(ctx, "version lookup", requestBody, utils.GalleryAPIVersion)
	if err != nil {
		return nil, err
	}

	extensions := response.Results[0].Extensions
	if len(extensions) == 0 {
		return nil, &MalformedResponseError{Op: "version lookup", Reason: fmt.Sprintf("extension not found: %s", extensionID)}
	}

	ext := extensions[0]
	m.logger.LogVersionLookup(extensionID, len(ext.Versions))
	return &ext, nil
}

// FetchVersions returns the unfiltered version list of the first match.
func (m *Marketplace) FetchVersions(ctx context.Context, extensionID string) ([]models.Version, error) {
	ext, err := m.Lookup(ctx, extensionID)
	if err != nil {
		return nil, err
	}
	return ext.Versions, nil
}

type queryResponse struct {
	Results []resultSet `json:"results"`
}

type resultSet struct {
	Extensions     []models.Extension `json:"extensions"`
	ResultMetadata []struct {
		MetadataType  string `json:"metadataType"`
		MetadataItems []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"metadataItems"`
	} `json:"resultMetadata"`
}

func (r resultSet) totalCount() int {
	if len(r.ResultMetadata) == 0 || len(r.ResultMetadata[0].MetadataItems) == 0 {
		return 0
	}
	return r.ResultMetadata[0].MetadataItems[0].Count
}

func (m *Marketplace) query(ctx context.Context, op string, requestBody map[string]interface{}, accept string) (*queryResponse, error) {
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(utils.ContentTypeHeader, utils.JSONContentType)
	req.Header.Set(utils.RequestedWith, utils.XMLHttpRequest)
	req.Header.Set(utils.UserAgentHeader, utils.UserAgent)
	if accept != "" {
		req.Header.Set(utils.AcceptHeader, accept)
	}

	start := time.Now()
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	m.logger.LogPerformance(op, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{Op: op, StatusCode: resp.StatusCode}
	}

	var response queryResponse
	if err := json.Unmarshal(bodyBytes, &response); err != nil {
		return nil, &MalformedResponseError{Op: op, Reason: "failed to parse response", Err: err}
	}

	if len(response.Results) == 0 {
		return nil, &MalformedResponseError{Op: op, Reason: "no result set in " + strings.TrimSpace(truncate(string(bodyBytes), 120))}
	}

	return &response, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
