package document

import (
	"bufio"
	"encoding/csv"
	"io"
)

const (
	csvBufferSize = 32 * 1024
	csvFlushEvery = 200
)

// CSVWriter streams rows to w, flushing periodically so large exports reach
// the client before the last row is produced.
type CSVWriter struct {
	buf  *bufio.Writer
	csv  *csv.Writer
	rows int
}

func NewCSVWriter(w io.Writer) *CSVWriter {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &CSVWriter{buf: buf, csv: writer}
}

func (w *CSVWriter) Write(record []string) error {
	if err := w.csv.Write(record); err != nil {
		return err
	}
	w.rows++
	if w.rows%csvFlushEvery == 0 {
		return w.Flush()
	}
	return nil
}

// Flush writes buffered rows through to the underlying writer
func (w *CSVWriter) Flush() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return err
	}
	return w.buf.Flush()
}
