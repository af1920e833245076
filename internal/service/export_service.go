package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/spt-web/internal/models"
	appErrors "github.com/noah-isme/spt-web/pkg/errors"
	"github.com/noah-isme/spt-web/pkg/export"
)

// Export formats offered for score-history downloads.
const (
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders one student's score history into a tabular
// download.
type ExportService struct {
	csv  *export.CSVExporter
	pdf  *export.PDFExporter
	xlsx *export.XLSXExporter
}

// NewExportService wires the three renderers.
func NewExportService() *ExportService {
	return &ExportService{
		csv:  export.NewCSVExporter(),
		pdf:  export.NewPDFExporter(),
		xlsx: export.NewXLSXExporter(),
	}
}

// ScoreHistory renders the student's records in server order.
func (s *ExportService) ScoreHistory(student models.Student, records []models.ScoreRecord, format string) (*ExportFile, error) {
	dataset := export.Dataset{
		Headers: []string{"Subject", "Marks"},
		Rows:    make([]map[string]string, 0, len(records)),
	}
	for _, record := range records {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Subject": record.Subject,
			"Marks":   record.Marks,
		})
	}

	base := fmt.Sprintf("scores-%s", slugify(student.Name))
	title := fmt.Sprintf("%s (%s, %s)", student.Name, student.RollNo, student.ClassName)

	switch strings.ToLower(format) {
	case FormatCSV, "":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "csv export failed")
		}
		return &ExportFile{Filename: base + ".csv", ContentType: "text/csv", Data: data}, nil
	case FormatPDF:
		data, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pdf export failed")
		}
		return &ExportFile{Filename: base + ".pdf", ContentType: "application/pdf", Data: data}, nil
	case FormatXLSX:
		data, err := s.xlsx.Render(dataset, "Scores")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "xlsx export failed")
		}
		return &ExportFile{
			Filename:    base + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown export format %q", format))
	}
}

func slugify(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "student"
	}
	return b.String()
}
