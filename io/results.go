// Package io implements the two binary file formats the quality
// engine reads and writes: a hydraulic trace produced by an upstream
// network solver, and a results file carrying reported concentrations
// over time. Both are little-endian fixed-width binary streams, the
// same wire-format family the engine's own project/segment model
// follows for its own internal arrays.
package io

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
)

const (
	resultsMagic   uint32 = 0x4d535852 // "MSXR"
	resultsVersion uint32 = 1
)

// ResultsWriter implements the project's resultsWriter interface,
// streaming one reporting instant at a time to a binary file: a fixed
// header once, then per-instant records of {time float32, nNodeVecs
// uint32, node values, nLinkVecs uint32, link values}, where each
// count is the number of vectors that follow.
type ResultsWriter struct {
	f   *os.File
	w   *bufio.Writer
	nSp int // species per reported node/link vector, written once
}

// CreateResultsWriter creates (or truncates) path and writes the
// results-file header: magic, version, and species-per-vector count.
func CreateResultsWriter(path string, speciesPerVector int) (*ResultsWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("msx/io: create results file: %w", err)
	}
	w := bufio.NewWriter(f)
	rw := &ResultsWriter{f: f, w: w, nSp: speciesPerVector}
	for _, v := range []uint32{resultsMagic, resultsVersion, uint32(speciesPerVector)} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			f.Close()
			return nil, fmt.Errorf("msx/io: write results header: %w", err)
		}
	}
	return rw, nil
}

// WriteInstant appends one reporting instant's node and link
// concentration vectors.
func (rw *ResultsWriter) WriteInstant(t float64, nodeVals, linkVals [][]float32) error {
	if err := binary.Write(rw.w, binary.LittleEndian, float32(t)); err != nil {
		return fmt.Errorf("msx/io: write instant time: %w", err)
	}
	if err := writeVectorBlock(rw.w, nodeVals); err != nil {
		return fmt.Errorf("msx/io: write node block: %w", err)
	}
	if err := writeVectorBlock(rw.w, linkVals); err != nil {
		return fmt.Errorf("msx/io: write link block: %w", err)
	}
	return nil
}

func writeVectorBlock(w *bufio.Writer, vecs [][]float32) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(vecs))); err != nil {
		return err
	}
	for _, v := range vecs {
		for _, x := range v {
			if err := binary.Write(w, binary.LittleEndian, x); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close flushes buffered output and closes the underlying file.
func (rw *ResultsWriter) Close() error {
	if err := rw.w.Flush(); err != nil {
		rw.f.Close()
		return fmt.Errorf("msx/io: flush results file: %w", err)
	}
	return rw.f.Close()
}
