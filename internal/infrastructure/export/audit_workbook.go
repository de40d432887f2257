package export

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Sheet layout of the audit workbook
const (
	SheetAuditLog = "Audit Log"
	SheetSummary  = "Summary"

	defaultSheet = "Sheet1"
)

var auditHeader = []interface{}{
	"Log ID", "Request ID", "User ID", "Action", "Before Status", "After Status",
	"Selected Ticket", "Ticket Option", "Diff", "IP Address", "Timestamp",
}

// AuditWorkbook renders audit entries into an XLSX workbook
type AuditWorkbook struct {
	fontName string
	logger   *zap.Logger
}

// NewAuditWorkbook creates a renderer. fontName is optional.
func NewAuditWorkbook(fontName string, logger *zap.Logger) *AuditWorkbook {
	return &AuditWorkbook{
		fontName: fontName,
		logger:   logger,
	}
}

// Render writes one row per entry on the audit sheet and per-action counts on the summary sheet
func (w *AuditWorkbook) Render(ctx context.Context, logs []*entity.AuditLog) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if w.fontName != "" {
		if err := file.SetDefaultFont(w.fontName); err != nil {
			w.logger.Warn("Failed to set default font for audit export",
				zap.String("font_name", w.fontName),
				zap.Error(err))
		}
	}

	if err := file.SetSheetName(defaultSheet, SheetAuditLog); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := w.fillAuditSheet(file, logs); err != nil {
		return nil, fmt.Errorf("failed to fill audit sheet: %w", err)
	}

	if _, err := file.NewSheet(SheetSummary); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := w.fillSummarySheet(file, logs); err != nil {
		return nil, fmt.Errorf("failed to fill summary sheet: %w", err)
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	w.logger.Info("Audit workbook rendered",
		zap.Int("entry_count", len(logs)),
		zap.Int("size", buf.Len()))

	return buf.Bytes(), nil
}

func (w *AuditWorkbook) fillAuditSheet(file *excelize.File, logs []*entity.AuditLog) error {
	if err := file.SetSheetRow(SheetAuditLog, "A1", &auditHeader); err != nil {
		return err
	}

	style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(auditHeader), 1)
	if err != nil {
		return err
	}
	if err := file.SetCellStyle(SheetAuditLog, "A1", last, style); err != nil {
		return err
	}

	for i, l := range logs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			l.ID,
			l.RequestID,
			l.UserID,
			string(l.ActionType),
			string(l.BeforeState.Status),
			string(l.AfterState.Status),
			optionalID(l.AfterState.SelectedTicketID),
			optionalID(l.AfterState.TicketOptionID),
			string(l.Diff),
			l.IPAddress,
			l.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := file.SetSheetRow(SheetAuditLog, cell, &row); err != nil {
			return err
		}
	}

	return file.SetColWidth(SheetAuditLog, "I", "I", 60)
}

func (w *AuditWorkbook) fillSummarySheet(file *excelize.File, logs []*entity.AuditLog) error {
	counts := make(map[entity.AuditAction]int)
	for _, l := range logs {
		counts[l.ActionType]++
	}

	actions := make([]string, 0, len(counts))
	for a := range counts {
		actions = append(actions, string(a))
	}
	sort.Strings(actions)

	if err := file.SetSheetRow(SheetSummary, "A1", &[]interface{}{"Action", "Count"}); err != nil {
		return err
	}
	for i, a := range actions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := file.SetSheetRow(SheetSummary, cell, &[]interface{}{a, counts[entity.AuditAction(a)]}); err != nil {
			return err
		}
	}

	totalCell, err := excelize.CoordinatesToCellName(1, len(actions)+2)
	if err != nil {
		return err
	}
	return file.SetSheetRow(SheetSummary, totalCell, &[]interface{}{"Total", len(logs)})
}

func optionalID(id *int64) interface{} {
	if id == nil {
		return ""
	}
	return *id
}

var _ port.AuditRenderer = (*AuditWorkbook)(nil)
