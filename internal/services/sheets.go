package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/mcb/internal/models"
)

const defaultSheetsURL = "https://sheets.googleapis.com/v4/spreadsheets"

// SheetService fetches sheet ranges as row-sets.
type SheetService struct {
	client
	baseURL       string
	spreadsheetID string
	key           string
}

// NewSheetService creates a service reading from spreadsheetID with the API key.
func NewSheetService(baseURL, spreadsheetID, key string, opts ...Option) *SheetService {
	if baseURL == "" {
		baseURL = defaultSheetsURL
	}
	return &SheetService{
		client:        newClient("sheets", opts),
		baseURL:       strings.TrimRight(baseURL, "/"),
		spreadsheetID: spreadsheetID,
		key:           key,
	}
}

// SheetRange joins a sheet name and a cell range into an A1 range, e.g. "Main Catalog!A:Q".
func SheetRange(sheet, request string) string {
	if request == "" {
		return sheet
	}
	return sheet + "!" + request
}

// FetchRows fetches the values of the range source. Trailing empty cells are omitted by the API, so rows can be
// shorter than the header.
func (s *SheetService) FetchRows(ctx context.Context, source string) (models.RowSet, error) {
	if s.spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is not configured")
	}

	endpoint := fmt.Sprintf("%s/%s/values/%s", s.baseURL, url.PathEscape(s.spreadsheetID), url.PathEscape(source))
	if s.key != "" {
		endpoint += "?" + url.Values{"key": {s.key}}.Encode()
	}

	var body struct {
		Range  string     `json:"range"`
		Values [][]string `json:"values"`
	}
	if err := s.getJSON(ctx, endpoint, &body); err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", source, err)
	}

	s.logger.Debug("fetched sheet", "range", body.Range, "rows", len(body.Values))
	return models.RowSet(body.Values), nil
}
