// Package docgen renders printable purchase order forms as Excel workbooks.
package docgen

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/keystonepm/approvalflow/internal/application/port"
	"github.com/keystonepm/approvalflow/internal/domain/approval"
)

const sheetName = "Purchase Order"

// Generator implements port.DocumentGenerator by writing an xlsx form for an
// approved purchase order into outputDir.
type Generator struct {
	docs      port.DocumentRepository
	logs      port.LogRepository
	outputDir string
	baseURL   string
	logger    *zap.Logger
}

// NewGenerator creates a Generator. baseURL is prepended to the generated
// file name to form the returned URL.
func NewGenerator(docs port.DocumentRepository, logs port.LogRepository, outputDir, baseURL string, logger *zap.Logger) *Generator {
	return &Generator{
		docs:      docs,
		logs:      logs,
		outputDir: outputDir,
		baseURL:   baseURL,
		logger:    logger,
	}
}

// Generate renders the purchase order form and returns its URL.
func (g *Generator) Generate(ctx context.Context, documentID string) (string, error) {
	doc, err := g.docs.GetByID(ctx, documentID)
	if err != nil {
		return "", fmt.Errorf("load document: %w", err)
	}
	if doc.Type != approval.DocumentTypePurchaseOrder {
		return "", fmt.Errorf("document %s is not a purchase order", documentID)
	}

	entries, err := g.logs.GetByDocumentID(ctx, documentID)
	if err != nil {
		return "", fmt.Errorf("load approval trail: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		g.logger.Warn("Failed to remove default sheet", zap.Error(err))
	}

	g.setCell(f, "A1", "PURCHASE ORDER")
	g.setCell(f, "A3", "Order Number")
	g.setCell(f, "B3", doc.Reference)
	g.setCell(f, "A4", "Description")
	g.setCell(f, "B4", doc.Description)
	g.setCell(f, "A5", "Amount")
	g.setCell(f, "B5", doc.Amount.StringFixed(2))
	g.setCell(f, "A6", "Status")
	g.setCell(f, "B6", doc.Status)
	g.setCell(f, "A7", "Requested By")
	g.setCell(f, "B7", doc.OwnerID)
	if doc.ApprovedAt != nil {
		g.setCell(f, "A8", "Approved On")
		g.setCell(f, "B8", doc.ApprovedAt.Format("2006-01-02"))
	}

	// Approval trail below the header block.
	g.setCell(f, "A10", "Action")
	g.setCell(f, "B10", "Actor")
	g.setCell(f, "C10", "On Behalf Of")
	g.setCell(f, "D10", "Date")
	g.setCell(f, "E10", "Comment")
	for i, entry := range entries {
		row := 11 + i
		g.setCell(f, fmt.Sprintf("A%d", row), string(entry.Action))
		g.setCell(f, fmt.Sprintf("B%d", row), entry.ActorID)
		g.setCell(f, fmt.Sprintf("C%d", row), entry.OnBehalfOf)
		g.setCell(f, fmt.Sprintf("D%d", row), entry.Timestamp.Format("2006-01-02 15:04"))
		g.setCell(f, fmt.Sprintf("E%d", row), entry.Comment)
	}

	fileName := fmt.Sprintf("po_%s.xlsx", doc.ID)
	outputPath := filepath.Join(g.outputDir, fileName)
	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	url := g.baseURL + "/" + fileName
	g.logger.Info("Purchase order form generated",
		zap.String("document_id", doc.ID),
		zap.String("output_path", outputPath))
	return url, nil
}

func (g *Generator) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(sheetName, cell, value); err != nil {
		g.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}
