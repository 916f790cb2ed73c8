// Package serialize streams finished Patient records to one or more output
// formats as they are produced. Every writer is incremental: nothing
// buffers the whole cohort in memory, and each format is driven by its own
// small state machine rather than a whole-array buffer-then-write pass.
package serialize

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dunebase/casugen/internal/models"
)

// PatientWriter accepts one finished Patient at a time, in ascending
// event_id order, and must be Close()d to flush trailing framing (the
// closing bracket of a JSON array, a gzip footer, and so on).
type PatientWriter interface {
	Write(p *models.Patient) error
	Close() error
}

// NewWriter builds the writer for the given format name, wrapping w. format
// is one of "ndjson", "json", "csv".
func NewWriter(format string, w io.Writer) (PatientWriter, error) {
	switch format {
	case "ndjson", "":
		return newNDJSONWriter(w), nil
	case "json":
		return newJSONArrayWriter(w), nil
	case "csv":
		return newCSVWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// ndjsonWriter emits one JSON object per line — the canonical, preferred
// format for large cohorts since it needs no closing-bracket state machine.
type ndjsonWriter struct {
	bw  *bufio.Writer
	enc *json.Encoder
}

func newNDJSONWriter(w io.Writer) *ndjsonWriter {
	bw := bufio.NewWriter(w)
	return &ndjsonWriter{bw: bw, enc: json.NewEncoder(bw)}
}

func (n *ndjsonWriter) Write(p *models.Patient) error {
	return n.enc.Encode(p)
}

func (n *ndjsonWriter) Close() error {
	return n.bw.Flush()
}

// jsonArrayWriter streams a single top-level JSON array: '[' then
// comma-separated objects then ']', without ever holding the whole
// collection in memory.
type jsonArrayWriter struct {
	bw      *bufio.Writer
	enc     *json.Encoder
	started bool
}

func newJSONArrayWriter(w io.Writer) *jsonArrayWriter {
	bw := bufio.NewWriter(w)
	bw.WriteByte('[')
	return &jsonArrayWriter{bw: bw, enc: json.NewEncoder(bw)}
}

func (j *jsonArrayWriter) Write(p *models.Patient) error {
	if j.started {
		if _, err := j.bw.WriteString(","); err != nil {
			return err
		}
	}
	j.started = true
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = j.bw.Write(b)
	return err
}

func (j *jsonArrayWriter) Close() error {
	if _, err := j.bw.WriteString("]"); err != nil {
		return err
	}
	return j.bw.Flush()
}

// csvWriter is a flattened projection of the Patient record; the fixed
// csvHeader row is written once, just before the first record.
type csvWriter struct {
	w           *csv.Writer
	headerDone  bool
}

func newCSVWriter(w io.Writer) *csvWriter {
	// UTF-8 BOM for spreadsheet compatibility. Written directly to w, before
	// csv.Writer's own internal buffering takes over, so Close's Flush
	// reaches it too.
	w.Write([]byte{0xEF, 0xBB, 0xBF})
	return &csvWriter{w: csv.NewWriter(w)}
}

var csvHeader = []string{
	"patient_id", "event_id", "front_name", "nationality", "sex", "age",
	"triage_category", "injury_type", "warfare_pattern", "primary_code",
	"primary_system", "polytrauma", "outcome", "outcome_time", "num_timeline_events",
}

func (c *csvWriter) Write(p *models.Patient) error {
	if !c.headerDone {
		if err := c.w.Write(csvHeader); err != nil {
			return err
		}
		c.headerDone = true
	}
	polytrauma := "false"
	if p.PolytraumaIndicators() {
		polytrauma = "true"
	}
	record := []string{
		p.PatientID,
		fmt.Sprintf("%d", p.EventID),
		p.FrontName,
		p.Demographics.Nationality,
		p.Demographics.Sex,
		fmt.Sprintf("%d", p.Demographics.Age),
		string(p.Triage),
		string(p.InjuryType),
		string(p.WarfarePattern),
		p.PrimaryCode,
		p.PrimarySystem,
		polytrauma,
		string(p.Outcome),
		p.OutcomeTime.Format("2006-01-02T15:04:05Z07:00"),
		fmt.Sprintf("%d", len(p.Timeline)),
	}
	return c.w.Write(record)
}

func (c *csvWriter) Close() error {
	c.w.Flush()
	return c.w.Error()
}
