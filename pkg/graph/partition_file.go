package graph

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"golang.org/x/exp/mmap"
)

// PartitionFileMagic identifies a serialized edge fragment.
const PartitionFileMagic uint32 = 0x31464743 // "CGF1"

const partitionFileWeighted uint32 = 1

type partitionFileHeader struct {
	Magic      uint32
	Flags      uint32
	MajorFirst uint64
	MajorLast  uint64
	HyperFirst uint64
	OffsetsLen uint64
	IndicesLen uint64
	HyperLen   uint64
}

// WritePartitionFile serializes a fragment so it can be handed to another
// process. The engine itself never writes these; graph construction and the
// benchmark tooling do.
func WritePartitionFile(path string, p *EdgePartition) error {
	if err := p.Validate(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	hdr := partitionFileHeader{
		Magic:      PartitionFileMagic,
		MajorFirst: p.MajorFirst,
		MajorLast:  p.MajorLast,
		HyperFirst: p.HyperFirst,
		OffsetsLen: uint64(len(p.Offsets)),
		IndicesLen: uint64(len(p.Indices)),
		HyperLen:   uint64(len(p.HyperMajors)),
	}
	if p.Weighted() {
		hdr.Flags |= partitionFileWeighted
	}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return err
	}
	for _, arr := range [][]uint64{p.Offsets, p.Indices} {
		if err := binary.Write(w, binary.LittleEndian, arr); err != nil {
			return err
		}
	}
	if p.Weighted() {
		if err := binary.Write(w, binary.LittleEndian, p.Weights); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, p.HyperMajors); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

// ReadPartitionFile loads a fragment through memory-mapped I/O.
func ReadPartitionFile(path string) (*EdgePartition, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	headerSize := binary.Size(partitionFileHeader{})
	headerBuf := make([]byte, headerSize)
	if _, err := r.ReadAt(headerBuf, 0); err != nil {
		return nil, fmt.Errorf("%w: short header: %v", ErrBadPartitionFile, err)
	}
	var hdr partitionFileHeader
	if err := binary.Read(bytes.NewReader(headerBuf), binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	if hdr.Magic != PartitionFileMagic {
		return nil, fmt.Errorf("%w: magic %x", ErrBadPartitionFile, hdr.Magic)
	}

	p := &EdgePartition{
		MajorFirst: hdr.MajorFirst,
		MajorLast:  hdr.MajorLast,
		HyperFirst: hdr.HyperFirst,
	}

	off := int64(headerSize)
	if p.Offsets, off, err = readUint64Section(r, off, hdr.OffsetsLen); err != nil {
		return nil, err
	}
	if p.Indices, off, err = readUint64Section(r, off, hdr.IndicesLen); err != nil {
		return nil, err
	}
	if hdr.Flags&partitionFileWeighted != 0 {
		raw, next, err := readUint64Section(r, off, hdr.IndicesLen)
		if err != nil {
			return nil, err
		}
		p.Weights = make([]float64, len(raw))
		for i, bits := range raw {
			p.Weights[i] = math.Float64frombits(bits)
		}
		off = next
	}
	if p.HyperMajors, _, err = readUint64Section(r, off, hdr.HyperLen); err != nil {
		return nil, err
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPartitionFile, err)
	}
	return p, nil
}

func readUint64Section(r *mmap.ReaderAt, off int64, n uint64) ([]uint64, int64, error) {
	buf := make([]byte, n*8)
	if _, err := r.ReadAt(buf, off); err != nil {
		return nil, 0, fmt.Errorf("%w: truncated section at %d: %v", ErrBadPartitionFile, off, err)
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(buf[i*8:])
	}
	return out, off + int64(n*8), nil
}
