package main

import (
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/born-ml/trainstate/internal/serialization"
	"github.com/born-ml/trainstate/internal/tensor"
	"github.com/born-ml/trainstate/internal/treefmt"
)

// maxShownValues caps the elements printed per tensor with -values.
const maxShownValues = 8

func runInspect(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stdout)
	filterExpr := fs.String("filter", "", `Leaf filter, e.g. 'path startsWith "params." && size > 10'`)
	showValues := fs.Bool("values", false, "Print tensor values instead of shapes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("inspect: expected one checkpoint file, got %d arguments", fs.NArg())
	}

	var filter *treefmt.Filter
	if *filterExpr != "" {
		f, err := treefmt.CompileFilter(*filterExpr)
		if err != nil {
			return err
		}
		filter = f
	}

	r, err := serialization.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	writeHeader(stdout, r.Header())

	tree, err := r.Tree()
	if err != nil {
		return err
	}
	format := treefmt.ArrayFormatter
	if *showValues {
		format = valueFormatter
	}
	out, err := treefmt.RenderFiltered(tree, format, filter)
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Fprintln(stdout, out)
	}
	return nil
}

func writeHeader(w io.Writer, h serialization.Header) {
	var total int64
	for _, t := range h.Tensors {
		total += t.Size
	}

	fmt.Fprintf(w, "format:     v%d\n", h.FormatVersion)
	fmt.Fprintf(w, "run_id:     %s\n", h.RunID)
	fmt.Fprintf(w, "created_at: %s\n", h.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintf(w, "step:       %d\n", h.Step)
	if h.Structure != "" {
		fmt.Fprintf(w, "structure:  %s\n", h.Structure)
	}
	if h.Optimizer != "" {
		fmt.Fprintf(w, "optimizer:  %s%s\n", h.Optimizer, formatConfig(h.OptimizerConfig))
	}
	fmt.Fprintf(w, "ema:        %t\n", h.HasEMA)
	for _, k := range sortedKeys(h.Metadata) {
		fmt.Fprintf(w, "meta.%s: %s\n", k, h.Metadata[k])
	}
	fmt.Fprintf(w, "tensors:    %d (%d bytes)\n\n", len(h.Tensors), total)
}

func formatConfig(cfg map[string]float64) string {
	if len(cfg) == 0 {
		return ""
	}
	keys := make([]string, 0, len(cfg))
	for k := range cfg {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%.6g", k, cfg[k])
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// valueFormatter prints "<shape>@<dtype> [v0 v1 ...]", truncated to
// maxShownValues elements.
func valueFormatter(value any) (string, error) {
	desc, err := treefmt.ArrayFormatter(value)
	if err != nil {
		return "", err
	}
	raw, ok := value.(*tensor.RawTensor)
	if !ok {
		return desc, nil
	}

	var values []string
	n := min(raw.NumElements(), maxShownValues)
	switch raw.DType() {
	case tensor.Float32:
		values = formatValues(raw.AsFloat32()[:n])
	case tensor.Float64:
		values = formatValues(raw.AsFloat64()[:n])
	case tensor.Int32:
		values = formatValues(raw.AsInt32()[:n])
	case tensor.Int64:
		values = formatValues(raw.AsInt64()[:n])
	case tensor.Uint8:
		values = formatValues(raw.AsUint8()[:n])
	case tensor.Bool:
		values = formatValues(raw.AsBool()[:n])
	}
	if raw.NumElements() > n {
		values = append(values, "...")
	}
	return desc + " [" + strings.Join(values, " ") + "]", nil
}

func formatValues[T any](vs []T) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = fmt.Sprint(v)
	}
	return out
}
