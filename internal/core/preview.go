package core

import (
	"bytes"
	"context"
	"io"
	"time"
)

// PreviewResult is the response from a read-only conversion preview.
type PreviewResult struct {
	FormatKey        string     `json:"formatKey"`
	InputHeader      []string   `json:"inputHeader"`
	EmailColumn      string     `json:"emailColumn,omitempty"`
	EmailColumnFound bool       `json:"emailColumnFound"`
	OutputHeader     []string   `json:"outputHeader"`
	SampleRows       [][]string `json:"sampleRows"`
	TotalDataRows    int64      `json:"totalDataRows"`
	EmptyEmailRows   int64      `json:"emptyEmailRows"`
	ProcessingTimeMs int64      `json:"processingTimeMs"`
}

// DefaultPreviewRows is the sample size when no override is configured.
const DefaultPreviewRows = 10

// AnalyzeFile performs a read-only preview of a conversion. It streams the
// data through the same reader chain as a real conversion, so malformed rows
// and encoding problems surface with identical errors. The whole input is
// scanned to produce accurate row counts; only the first few output rows are
// kept as samples.
func (s *Service) AnalyzeFile(ctx context.Context, formatKey string, data []byte, topics []TopicPreference) (*PreviewResult, error) {
	startTime := time.Now()

	format, err := ResolveFormat(formatKey)
	if err != nil {
		return nil, err
	}
	schema, err := BuildSchema(topics)
	if err != nil {
		return nil, err
	}

	result := &PreviewResult{
		FormatKey:    format.Key,
		OutputHeader: schema.Header(),
		SampleRows:   [][]string{},
	}

	cr := newCSVReader(NewUTF8ValidatingReader(NewBOMSkippingReader(bytes.NewReader(data))))

	header, err := cr.Read()
	if err == io.EOF {
		result.ProcessingTimeMs = time.Since(startTime).Milliseconds()
		return result, nil
	}
	if err != nil {
		return nil, convertReadError(err)
	}

	result.InputHeader = append([]string(nil), header...)

	emailIdx := format.EmailColumnIndex(MakeHeaderIndex(header))
	if emailIdx >= 0 {
		result.EmailColumn = header[emailIdx]
		result.EmailColumnFound = true
	}

	sampleLimit := s.previewRows()

	for {
		if result.TotalDataRows%contextCheckRows == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, convertReadError(err)
		}

		email := ""
		if emailIdx >= 0 && emailIdx < len(record) {
			email = record[emailIdx]
		}
		if email == "" {
			result.EmptyEmailRows++
		}

		if int64(len(result.SampleRows)) < int64(sampleLimit) {
			result.SampleRows = append(result.SampleRows, schema.Row(email))
		}
		result.TotalDataRows++
	}

	result.ProcessingTimeMs = time.Since(startTime).Milliseconds()
	return result, nil
}

func (s *Service) previewRows() int {
	if s.cfg != nil && s.cfg.Convert.PreviewRows > 0 {
		return s.cfg.Convert.PreviewRows
	}
	return DefaultPreviewRows
}
