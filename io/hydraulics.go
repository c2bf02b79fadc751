package io

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// HydraulicsReader streams successive hydraulic snapshots from a
// binary trace file produced by an upstream network solver. Each
// record holds, for every node and link (counts fixed at file open),
// the instant's demands, heads, and signed flows.
type HydraulicsReader struct {
	f    *os.File
	r    *bufio.Reader
	nNod int
	nLnk int
}

// OpenHydraulicsReader opens path and reads its fixed header: node
// count, link count, both as uint32.
func OpenHydraulicsReader(path string) (*HydraulicsReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("msx/io: open hydraulics file: %w", err)
	}
	r := bufio.NewReader(f)
	var nNod, nLnk uint32
	if err := binary.Read(r, binary.LittleEndian, &nNod); err != nil {
		f.Close()
		return nil, fmt.Errorf("msx/io: read hydraulics header: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &nLnk); err != nil {
		f.Close()
		return nil, fmt.Errorf("msx/io: read hydraulics header: %w", err)
	}
	return &HydraulicsReader{f: f, r: r, nNod: int(nNod), nLnk: int(nLnk)}, nil
}

// Instant is one hydraulic snapshot: a time in seconds, 1-based (index
// 0 unused) demand/head/flow vectors sized to the node or link count
// recorded in the file header, and the 0-based link status/setting
// pairs reported for that instant (only links whose status or control
// setting changed need appear).
type Instant struct {
	Time        float64
	Demands     []float64
	Heads       []float64
	Flows       []float64
	LinkStatus  []uint8
	LinkSetting []float64
}

// Next reads the next snapshot, returning io.EOF once the file is
// exhausted.
func (hr *HydraulicsReader) Next() (*Instant, error) {
	var t uint32
	if err := binary.Read(hr.r, binary.LittleEndian, &t); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("msx/io: read hydraulics instant: %w", err)
	}
	var nLinkStatus uint16
	if err := binary.Read(hr.r, binary.LittleEndian, &nLinkStatus); err != nil {
		return nil, fmt.Errorf("msx/io: read hydraulics instant: %w", err)
	}

	inst := &Instant{
		Time:    float64(t),
		Demands: make([]float64, hr.nNod+1),
		Heads:   make([]float64, hr.nNod+1),
		Flows:   make([]float64, hr.nLnk+1),
	}
	if err := readF32Vector(hr.r, inst.Demands[1:]); err != nil {
		return nil, fmt.Errorf("msx/io: read demands: %w", err)
	}
	if err := readF32Vector(hr.r, inst.Heads[1:]); err != nil {
		return nil, fmt.Errorf("msx/io: read heads: %w", err)
	}
	if err := readF32Vector(hr.r, inst.Flows[1:]); err != nil {
		return nil, fmt.Errorf("msx/io: read flows: %w", err)
	}

	inst.LinkStatus = make([]uint8, nLinkStatus)
	inst.LinkSetting = make([]float64, nLinkStatus)
	for i := 0; i < int(nLinkStatus); i++ {
		var status uint8
		if err := binary.Read(hr.r, binary.LittleEndian, &status); err != nil {
			return nil, fmt.Errorf("msx/io: read link status: %w", err)
		}
		var setting float32
		if err := binary.Read(hr.r, binary.LittleEndian, &setting); err != nil {
			return nil, fmt.Errorf("msx/io: read link setting: %w", err)
		}
		inst.LinkStatus[i] = status
		inst.LinkSetting[i] = float64(setting)
	}
	return inst, nil
}

func readF32Vector(r *bufio.Reader, dst []float64) error {
	for i := range dst {
		var v float32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return err
		}
		dst[i] = float64(v)
	}
	return nil
}

// Close closes the underlying file.
func (hr *HydraulicsReader) Close() error {
	return hr.f.Close()
}
