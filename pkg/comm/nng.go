package comm

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/golang/snappy"
	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/bus"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"
)

// Frame phases for group collectives.
const (
	phaseGather uint8 = iota + 1
	phaseRing
	phaseTotal
)

// Payloads above this size are snappy-compressed on the wire.
const compressThreshold = 1024

// defaultDeadline bounds every socket send and receive.
const defaultDeadline = 60 * time.Second

const frameHeaderSize = 1 + 1 + 4 + 8 // phase, flags, rank, seq

const frameCompressed uint8 = 1

type frameKey struct {
	phase uint8
	rank  uint32
	seq   uint64
}

// NNGGroup is an Exchanger backed by an NNG bus socket connecting the whole
// group. Every member sees every frame; frames carry phase, sender rank and
// a collective sequence number so late or reordered deliveries are buffered
// until their collective runs.
type NNGGroup struct {
	sock    mangos.Socket
	rank    int
	size    int
	seq     uint64
	pending map[frameKey][]byte
}

// NewNNGGroup creates a bus-connected group member. listenAddr is this
// member's own endpoint; peerAddrs lists the endpoints of every other
// member. The caller is responsible for starting all members before the
// first collective, since a missing member blocks the group forever.
func NewNNGGroup(rank, size int, listenAddr string, peerAddrs []string) (*NNGGroup, error) {
	if rank < 0 || rank >= size {
		return nil, fmt.Errorf("%w: rank %d of %d", ErrRankOutOfRange, rank, size)
	}
	if len(peerAddrs) != size-1 {
		return nil, fmt.Errorf("%w: %d peer addresses for group of %d", ErrGridMismatch, len(peerAddrs), size)
	}

	sock, err := bus.NewSocket()
	if err != nil {
		return nil, err
	}
	// A missing peer wedges the whole group; surface it as an error instead
	// of blocking forever.
	if err := sock.SetOption(mangos.OptionRecvDeadline, defaultDeadline); err != nil {
		sock.Close()
		return nil, err
	}
	if err := sock.SetOption(mangos.OptionSendDeadline, defaultDeadline); err != nil {
		sock.Close()
		return nil, err
	}
	// Peers come up in arbitrary order; keep dialing in the background until
	// the mesh is complete.
	if err := sock.SetOption(mangos.OptionDialAsynch, true); err != nil {
		sock.Close()
		return nil, err
	}
	if err := sock.Listen(listenAddr); err != nil {
		sock.Close()
		return nil, err
	}
	for _, addr := range peerAddrs {
		if err := sock.Dial(addr); err != nil {
			sock.Close()
			return nil, err
		}
	}

	return &NNGGroup{
		sock:    sock,
		rank:    rank,
		size:    size,
		pending: make(map[frameKey][]byte),
	}, nil
}

// Close tears down the group socket.
func (g *NNGGroup) Close() error {
	return g.sock.Close()
}

// Rank returns this member's rank.
func (g *NNGGroup) Rank() int { return g.rank }

// Size returns the group size.
func (g *NNGGroup) Size() int { return g.size }

// AllGatherVar broadcasts the local array and collects every other member's
// array for the same collective, concatenated in rank order.
func (g *NNGGroup) AllGatherVar(local []uint64) ([]uint64, error) {
	g.seq++
	if g.size == 1 {
		return Solo{}.AllGatherVar(local)
	}
	if err := g.sendFrame(phaseGather, local); err != nil {
		return nil, err
	}

	parts := make([][]uint64, g.size)
	parts[g.rank] = local
	for r := 0; r < g.size; r++ {
		if r == g.rank {
			continue
		}
		arr, err := g.recv(frameFrom(phaseGather, r, g.seq))
		if err != nil {
			return nil, err
		}
		parts[r] = arr
	}

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]uint64, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

// RingAccumulate runs the rank-ordered chain over the bus. Each hop blocks
// on the predecessor's frame, so the chain is strictly sequential; the last
// rank publishes the inclusive total for everyone.
func (g *NNGGroup) RingAccumulate(local []uint64) ([]uint64, []uint64, error) {
	g.seq++
	if g.size == 1 {
		return Solo{}.RingAccumulate(local)
	}

	var exclusive []uint64
	if g.rank == 0 {
		exclusive = make([]uint64, len(local))
	} else {
		var err error
		exclusive, err = g.recv(frameFrom(phaseRing, g.rank-1, g.seq))
		if err != nil {
			return nil, nil, err
		}
		if len(exclusive) != len(local) {
			return nil, nil, fmt.Errorf("%w: got %d, local %d", ErrLengthMismatch, len(exclusive), len(local))
		}
	}

	running := make([]uint64, len(local))
	for i := range local {
		running[i] = exclusive[i] + local[i]
	}

	if g.rank < g.size-1 {
		if err := g.sendFrame(phaseRing, running); err != nil {
			return nil, nil, err
		}
		total, err := g.recv(frameFrom(phaseTotal, g.size-1, g.seq))
		if err != nil {
			return nil, nil, err
		}
		return exclusive, total, nil
	}

	if err := g.sendFrame(phaseTotal, running); err != nil {
		return nil, nil, err
	}
	return exclusive, running, nil
}

func frameFrom(phase uint8, rank int, seq uint64) frameKey {
	return frameKey{phase: phase, rank: uint32(rank), seq: seq}
}

func (g *NNGGroup) sendFrame(phase uint8, arr []uint64) error {
	payload := make([]byte, len(arr)*8)
	for i, v := range arr {
		binary.LittleEndian.PutUint64(payload[i*8:], v)
	}

	var flags uint8
	if len(payload) > compressThreshold {
		payload = snappy.Encode(nil, payload)
		flags |= frameCompressed
	}

	frame := make([]byte, frameHeaderSize+len(payload))
	frame[0] = phase
	frame[1] = flags
	binary.LittleEndian.PutUint32(frame[2:], uint32(g.rank))
	binary.LittleEndian.PutUint64(frame[6:], g.seq)
	copy(frame[frameHeaderSize:], payload)
	return g.sock.Send(frame)
}

// recv blocks until the frame for key arrives, buffering any frames that
// belong to other (pending) collectives.
func (g *NNGGroup) recv(key frameKey) ([]uint64, error) {
	for {
		if payload, ok := g.pending[key]; ok {
			delete(g.pending, key)
			return decodeUint64s(payload)
		}

		frame, err := g.sock.Recv()
		if err != nil {
			return nil, err
		}
		if len(frame) < frameHeaderSize {
			return nil, fmt.Errorf("%w: %d bytes", ErrBadFrame, len(frame))
		}
		got := frameKey{
			phase: frame[0],
			rank:  binary.LittleEndian.Uint32(frame[2:]),
			seq:   binary.LittleEndian.Uint64(frame[6:]),
		}
		payload := frame[frameHeaderSize:]
		if frame[1]&frameCompressed != 0 {
			payload, err = snappy.Decode(nil, payload)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadFrame, err)
			}
		}
		if got == key {
			return decodeUint64s(payload)
		}
		g.pending[got] = payload
	}
}

func decodeUint64s(payload []byte) ([]uint64, error) {
	if len(payload)%8 != 0 {
		return nil, fmt.Errorf("%w: payload length %d", ErrBadFrame, len(payload))
	}
	out := make([]uint64, len(payload)/8)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(payload[i*8:])
	}
	return out, nil
}
