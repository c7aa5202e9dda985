package source

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsSource reads one spreadsheet with one tab per office. Row 1 is the
// header; data starts at A2.
type SheetsSource struct {
	svc           *sheets.Service
	spreadsheetID string
}

func NewSheetsSource(ctx context.Context, credentialsFile, spreadsheetID string) (*SheetsSource, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsSource{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (s *SheetsSource) FetchRows(ctx context.Context, officeSheet string) ([]RawRow, error) {
	readRange := fmt.Sprintf("%s!A2:Z", officeSheet)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", readRange, err)
	}

	rows := make([]RawRow, 0, len(resp.Values))
	for _, v := range resp.Values {
		row := make(RawRow, len(v))
		for i, cell := range v {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
