package core

// convert.go implements the streaming conversion pipeline. Input rows are
// read, mapped, and written one at a time, so memory stays constant no
// matter how large the export file is.
//
// The pipeline per file:
//
//	file -> BOM skip -> UTF-8 validation -> CSV parse -> map row -> CSV write
//
// Only the source format's email column is read from each input row; every
// other input column is ignored. The rest of each output row is fixed at
// schema build time.
//
// All errors are fatal to the run. There is no skip-and-continue policy:
// the first malformed row, decode failure, or write failure aborts the
// conversion and is reported to the caller.

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// contextCheckRows is how often the row loop polls for cancellation and
// reports progress.
const contextCheckRows = 100

// ConvertFile converts the contact export at inputPath and writes the
// result to outputPath. It returns the number of data rows written.
//
// The output file is created (or truncated) once the options validate and
// the input opens. On failure a partially written output file may remain;
// callers that care should remove it.
func ConvertFile(ctx context.Context, inputPath, outputPath string, opts Options) (int64, error) {
	format, err := ResolveFormat(opts.Format)
	if err != nil {
		return 0, err
	}
	schema, err := BuildSchema(opts.Topics)
	if err != nil {
		return 0, err
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInputNotFound, err)
	}
	defer in.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}

	rows, convErr := convertRows(ctx, in, out, format, schema, nil)

	if err := out.Close(); err != nil && convErr == nil {
		convErr = fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}
	if convErr != nil {
		return 0, convErr
	}
	return rows, nil
}

// ConvertStream converts contact CSV data from r and writes the converted
// rows to w. It returns the number of data rows written.
//
// The caller owns both streams; ConvertStream never closes them.
func ConvertStream(ctx context.Context, r io.Reader, w io.Writer, opts Options) (int64, error) {
	format, err := ResolveFormat(opts.Format)
	if err != nil {
		return 0, err
	}
	schema, err := BuildSchema(opts.Topics)
	if err != nil {
		return 0, err
	}
	return convertRows(ctx, r, w, format, schema, nil)
}

// convertRows runs the row loop. onRows, when non-nil, is called with the
// running row count every contextCheckRows rows and once more at the end.
func convertRows(ctx context.Context, r io.Reader, w io.Writer, format *SourceFormat, schema *OutputSchema, onRows func(rows int64)) (int64, error) {
	cr := newCSVReader(NewUTF8ValidatingReader(NewBOMSkippingReader(r)))
	cw := csv.NewWriter(w)

	writeHeader := func() error {
		if err := cw.Write(schema.Header()); err != nil {
			return fmt.Errorf("%w: %w", ErrOutputWrite, err)
		}
		return nil
	}
	flush := func() error {
		cw.Flush()
		if err := cw.Error(); err != nil {
			return fmt.Errorf("%w: %w", ErrOutputWrite, err)
		}
		return nil
	}

	header, err := cr.Read()
	if err == io.EOF {
		// Zero-byte input. Emit the header so the output is still a
		// well-formed import file.
		if err := writeHeader(); err != nil {
			return 0, err
		}
		return 0, flush()
	}
	if err != nil {
		return 0, convertReadError(err)
	}

	// -1 when the export carries no recognizable email column; every
	// output row then gets an empty emailAddress.
	emailIdx := format.EmailColumnIndex(MakeHeaderIndex(header))

	if err := writeHeader(); err != nil {
		return 0, err
	}

	row := schema.Row("")
	var rows int64
	for {
		if rows%contextCheckRows == 0 {
			if err := ctx.Err(); err != nil {
				return rows, err
			}
		}

		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, convertReadError(err)
		}

		email := ""
		if emailIdx >= 0 && emailIdx < len(record) {
			email = record[emailIdx]
		}
		row[0] = email

		if err := cw.Write(row); err != nil {
			return rows, fmt.Errorf("%w: %w", ErrOutputWrite, err)
		}
		rows++

		if onRows != nil && rows%contextCheckRows == 0 {
			onRows(rows)
		}
	}

	if err := flush(); err != nil {
		return rows, err
	}
	if onRows != nil {
		onRows(rows)
	}
	return rows, nil
}

// newCSVReader returns a csv.Reader configured for strict parsing: the
// header row fixes the field count for all data rows, and quoting
// violations are errors rather than repaired.
func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	return cr
}

// convertReadError maps low-level read failures onto the conversion error
// taxonomy. Decode errors pass through untouched; parser errors become
// MalformedRowError carrying the offending line number.
func convertReadError(err error) error {
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return decodeErr
	}
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &MalformedRowError{Line: parseErr.Line, Err: parseErr.Err}
	}
	return err
}
