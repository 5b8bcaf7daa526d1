package snapshot

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/micego/chain"
	"github.com/hupe1980/micego/dataset"
)

// Compression selects the codec applied to the snapshot body.
type Compression byte

const (
	// CompressionNone stores the body uncompressed.
	CompressionNone Compression = iota

	// CompressionZstd compresses the body with zstandard.
	CompressionZstd

	// CompressionLZ4 compresses the body with lz4.
	CompressionLZ4
)

// magic identifies a snapshot stream; version gates the record layout.
var magic = [4]byte{'M', 'C', 'S', 'N'}

const version = 1

var (
	// ErrBadMagic is returned when a stream is not a snapshot.
	ErrBadMagic = errors.New("snapshot: bad magic")

	// ErrUnsupportedVersion is returned for snapshots written by a newer
	// format revision.
	ErrUnsupportedVersion = errors.New("snapshot: unsupported format version")
)

// Options configures Save.
type Options struct {
	// Compression selects the body codec.
	Compression Compression
}

// DefaultOptions is the default snapshot configuration.
var DefaultOptions = Options{
	Compression: CompressionZstd,
}

const (
	kindNumeric     uint8 = 0
	kindCategorical uint8 = 1
)

type columnRecord struct {
	Name    string
	Kind    uint8
	Values  []float64
	Missing []int
	Codes   []int
	Levels  []string
}

type imputationRecord struct {
	Column string
	Rows   []int
	Values []float64 // len(Rows)×M row-major; nil when the column has no missing rows
}

type traceRecord struct {
	Column   string
	Rows     int
	Mean     []float64
	Variance []float64
}

type eventRecord struct {
	Iteration int
	Column    string
	Copy      int
	Message   string
}

type stateRecord struct {
	M              int
	Iterations     int
	Seed           uint64
	Columns        []columnRecord
	Methods        map[string]string
	PredictorNames []string
	PredictorRows  [][]bool
	Visit          []string
	Imputations    []imputationRecord
	Traces         []traceRecord
	Events         []eventRecord
	RNGStates      [][]byte
}

// Save writes a complete snapshot of the state to w: data, configuration,
// imputation matrices, traces, events and the per-copy RNG streams. A state
// loaded from the snapshot resumes exactly where the saved one stopped.
func Save(w io.Writer, m *chain.Mids, optFns ...func(o *Options)) error {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	rec, err := encode(m)
	if err != nil {
		return err
	}

	header := []byte{magic[0], magic[1], magic[2], magic[3], version, byte(opts.Compression)}
	if _, err := w.Write(header); err != nil {
		return err
	}

	switch opts.Compression {
	case CompressionNone:
		return gob.NewEncoder(w).Encode(rec)
	case CompressionZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if err := gob.NewEncoder(zw).Encode(rec); err != nil {
			_ = zw.Close()
			return err
		}
		return zw.Close()
	case CompressionLZ4:
		lw := lz4.NewWriter(w)
		if err := gob.NewEncoder(lw).Encode(rec); err != nil {
			_ = lw.Close()
			return err
		}
		return lw.Close()
	default:
		return fmt.Errorf("snapshot: unknown compression %d", opts.Compression)
	}
}

// Load reads a snapshot from r and reconstructs the state it was saved from.
func Load(r io.Reader) (*chain.Mids, error) {
	header := make([]byte, 6)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("snapshot: read header: %w", err)
	}
	if [4]byte(header[:4]) != magic {
		return nil, ErrBadMagic
	}
	if header[4] != version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, header[4])
	}

	var body io.Reader
	switch Compression(header[5]) {
	case CompressionNone:
		body = r
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		body = zr
	case CompressionLZ4:
		body = lz4.NewReader(r)
	default:
		return nil, fmt.Errorf("snapshot: unknown compression %d", header[5])
	}

	var rec stateRecord
	if err := gob.NewDecoder(body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	return decode(&rec)
}

func encode(m *chain.Mids) (*stateRecord, error) {
	rec := &stateRecord{
		M:              m.M,
		Iterations:     m.Iterations,
		Seed:           m.Seed,
		Methods:        make(map[string]string, len(m.Methods)),
		PredictorNames: m.Predictors.Names(),
		PredictorRows:  m.Predictors.Rows(),
		Visit:          append([]string(nil), m.Visit...),
	}

	for name, method := range m.Methods {
		rec.Methods[name] = string(method)
	}

	for _, c := range m.Data.Columns() {
		cr := columnRecord{Name: c.Name()}
		switch cc := c.(type) {
		case *dataset.NumericColumn:
			cr.Kind = kindNumeric
			cr.Values = make([]float64, cc.Len())
			for i := range cr.Values {
				cr.Values[i] = cc.Float(i)
			}
			cr.Missing = cc.MissingRows()
		case *dataset.CategoricalColumn:
			cr.Kind = kindCategorical
			cr.Codes = make([]int, cc.Len())
			for i := range cr.Codes {
				cr.Codes[i] = cc.Code(i)
			}
			cr.Levels = cc.Levels()
		default:
			return nil, fmt.Errorf("snapshot: column %q: unsupported column type %T", c.Name(), c)
		}
		rec.Columns = append(rec.Columns, cr)
	}

	for _, name := range rec.Visit {
		imp := m.Imputations[name]
		ir := imputationRecord{Column: name, Rows: append([]int(nil), imp.Rows...)}
		if imp.Values != nil {
			ir.Values = denseData(imp.Values)
		}
		rec.Imputations = append(rec.Imputations, ir)

		if tr, ok := m.Traces[name]; ok {
			rec.Traces = append(rec.Traces, traceRecord{
				Column:   name,
				Rows:     tr.Iterations(),
				Mean:     denseData(tr.Mean),
				Variance: denseData(tr.Variance),
			})
		}
	}

	for _, ev := range m.Events {
		rec.Events = append(rec.Events, eventRecord(ev))
	}

	states, err := m.RNGStates()
	if err != nil {
		return nil, err
	}
	rec.RNGStates = states

	return rec, nil
}

func decode(rec *stateRecord) (*chain.Mids, error) {
	cols := make([]dataset.Column, 0, len(rec.Columns))
	for _, cr := range rec.Columns {
		switch cr.Kind {
		case kindNumeric:
			cols = append(cols, dataset.NewNumericMasked(cr.Name, cr.Values, cr.Missing))
		case kindCategorical:
			c, err := dataset.NewCategoricalCodes(cr.Name, cr.Codes, cr.Levels)
			if err != nil {
				return nil, fmt.Errorf("snapshot: column %q: %w", cr.Name, err)
			}
			cols = append(cols, c)
		default:
			return nil, fmt.Errorf("snapshot: column %q: unknown kind %d", cr.Name, cr.Kind)
		}
	}

	data, err := dataset.New(cols...)
	if err != nil {
		return nil, fmt.Errorf("snapshot: rebuild dataset: %w", err)
	}

	predictors, err := chain.NewPredictorMatrixFromRows(rec.PredictorNames, rec.PredictorRows)
	if err != nil {
		return nil, fmt.Errorf("snapshot: rebuild predictor matrix: %w", err)
	}

	methods := make(map[string]chain.Method, len(rec.Methods))
	for name, method := range rec.Methods {
		methods[name] = chain.Method(method)
	}

	imputations := make(map[string]*chain.Imputation, len(rec.Imputations))
	for _, ir := range rec.Imputations {
		imp := &chain.Imputation{Rows: ir.Rows}
		if ir.Values != nil {
			imp.Values = mat.NewDense(len(ir.Rows), rec.M, ir.Values)
		}
		imputations[ir.Column] = imp
	}

	traces := make(map[string]*chain.Trace, len(rec.Traces))
	for _, tr := range rec.Traces {
		traces[tr.Column] = &chain.Trace{
			Mean:     mat.NewDense(tr.Rows, rec.M, tr.Mean),
			Variance: mat.NewDense(tr.Rows, rec.M, tr.Variance),
		}
	}

	// An empty event log stays nil so the field round-trips verbatim.
	var events []chain.Event
	for _, ev := range rec.Events {
		events = append(events, chain.Event(ev))
	}

	m := &chain.Mids{
		Data:        data,
		M:           rec.M,
		Iterations:  rec.Iterations,
		Seed:        rec.Seed,
		Methods:     methods,
		Predictors:  predictors,
		Visit:       rec.Visit,
		Imputations: imputations,
		Traces:      traces,
		Events:      events,
	}

	if err := m.RestoreRNGStates(rec.RNGStates); err != nil {
		return nil, err
	}
	return m, nil
}

// denseData returns the row-major backing data of a dense matrix.
func denseData(d *mat.Dense) []float64 {
	raw := d.RawMatrix()
	out := make([]float64, 0, raw.Rows*raw.Cols)
	for i := range raw.Rows {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		out = append(out, row...)
	}
	return out
}
