package sheetstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"vedomost/internal/auth"
	"vedomost/internal/logger"
)

// Client is the Google Sheets implementation of Store. Every call goes
// through a single refresh-and-retry on an authorization failure; a
// second failure is terminal for the calling workflow.
type Client struct {
	svc     *sheets.Service
	session *auth.Session
	log     zerolog.Logger
}

var _ Store = (*Client)(nil)

// NewClient creates a Google Sheets client bound to the given session.
func NewClient(ctx context.Context, session *auth.Session) (*Client, error) {
	const op = "NewClient"

	svc, err := sheets.NewService(ctx, option.WithTokenSource(session))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return &Client{
		svc:     svc,
		session: session,
		log:     logger.WithComponent("sheetstore"),
	}, nil
}

// withAuthRetry runs fn once and, when the credential is rejected,
// refreshes the session and runs it a second time.
func (c *Client) withAuthRetry(ctx context.Context, op string, fn func() error) error {
	err := fn()
	if err == nil || !isAuthError(err) {
		return err
	}

	c.log.Debug().Str("op", op).Msg("Credential rejected, refreshing session")
	if rerr := c.session.Refresh(ctx); rerr != nil {
		return fmt.Errorf("%s: refresh after auth failure: %w", op, rerr)
	}
	return fn()
}

func isAuthError(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusUnauthorized
	}
	return false
}

// Sheets lists the sheets of a spreadsheet file.
func (c *Client) Sheets(ctx context.Context, spreadsheetID string) ([]SheetInfo, error) {
	const op = "Sheets"

	var meta *sheets.Spreadsheet
	err := c.withAuthRetry(ctx, op, func() error {
		var err error
		meta, err = c.svc.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	infos := make([]SheetInfo, 0, len(meta.Sheets))
	for _, sheet := range meta.Sheets {
		infos = append(infos, SheetInfo{
			ID:    sheet.Properties.SheetId,
			Title: sheet.Properties.Title,
		})
	}

	c.log.Debug().Int("sheets", len(infos)).Msg("Listed spreadsheet sheets")
	return infos, nil
}

// AddSheet creates a new sheet inside the spreadsheet file.
func (c *Client) AddSheet(ctx context.Context, spreadsheetID, title string, rows, cols int64) (SheetInfo, error) {
	const op = "AddSheet"

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: title,
						GridProperties: &sheets.GridProperties{
							RowCount:    rows,
							ColumnCount: cols,
						},
					},
				},
			},
		},
	}

	var resp *sheets.BatchUpdateSpreadsheetResponse
	err := c.withAuthRetry(ctx, op, func() error {
		var err error
		resp, err = c.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return SheetInfo{}, fmt.Errorf("%s: failed to create sheet %q: %w", op, title, err)
	}

	props := resp.Replies[0].AddSheet.Properties
	c.log.Info().Str("sheet", props.Title).Int64("sheet_id", props.SheetId).Msg("Created new sheet")
	return SheetInfo{ID: props.SheetId, Title: props.Title}, nil
}

// ReadRange reads values from a range in the spreadsheet.
func (c *Client) ReadRange(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error) {
	const op = "ReadRange"

	var resp *sheets.ValueRange
	err := c.withAuthRetry(ctx, op, func() error {
		var err error
		resp, err = c.svc.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read range %s: %w", op, readRange, err)
	}

	c.log.Debug().
		Int("rows", len(resp.Values)).
		Str("range", readRange).
		Msg("Read range from spreadsheet")

	return resp.Values, nil
}

// UpdateRange writes raw values into a range.
func (c *Client) UpdateRange(ctx context.Context, spreadsheetID, updateRange string, values [][]interface{}) error {
	const op = "UpdateRange"

	valueRange := &sheets.ValueRange{Values: values}
	err := c.withAuthRetry(ctx, op, func() error {
		_, err := c.svc.Spreadsheets.Values.Update(spreadsheetID, updateRange, valueRange).
			ValueInputOption("RAW").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: failed to update range %s: %w", op, updateRange, err)
	}

	c.log.Debug().
		Int("rows", len(values)).
		Str("range", updateRange).
		Msg("Updated range in spreadsheet")

	return nil
}

// ClearRange blanks a range.
func (c *Client) ClearRange(ctx context.Context, spreadsheetID, clearRange string) error {
	const op = "ClearRange"

	err := c.withAuthRetry(ctx, op, func() error {
		_, err := c.svc.Spreadsheets.Values.Clear(spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: failed to clear range %s: %w", op, clearRange, err)
	}
	return nil
}

// BatchUpdate applies a batch of structural requests as one transaction.
func (c *Client) BatchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) error {
	const op = "BatchUpdate"

	err := c.withAuthRetry(ctx, op, func() error {
		_, err := c.svc.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: requests,
		}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: failed to apply %d requests: %w", op, len(requests), err)
	}

	c.log.Debug().Int("requests", len(requests)).Msg("Applied batch update")
	return nil
}
