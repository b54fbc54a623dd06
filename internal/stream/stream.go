package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Size caps on brain structures. These are forever-lower bounds: a future
// wire format revision may raise them but must never lower them.
const (
	MaxShortString = 512
	MaxLongString  = 64 * 1024
	MaxByteArray   = 1 << 20
)

// DataTag is the one-byte discriminator that precedes every scalar in the
// stream.
type DataTag byte

const (
	TagU8 DataTag = iota + 1
	TagBytes
	TagU32
	TagF64
	TagBool
	TagString
	TagFourCCTag
	TagChunkTag
)

// Sentinel errors. Stream and invariant breaches throw; callers decide
// whether to recover at an I/O boundary.
var (
	ErrUnexpectedEOF    = errors.New("stream: unexpected end of input")
	ErrUnsupportedVer   = errors.New("stream: unsupported chunk version")
	ErrValueOutOfRange  = errors.New("stream: value out of range")
	ErrTooLong          = errors.New("stream: value exceeds size cap")
	ErrNoOpenReadChunk  = errors.New("stream: leaveChunk with no open read chunk")
	ErrNoOpenWriteChunk = errors.New("stream: popChunk with no open write chunk")
	ErrNoSavedReadState = errors.New("stream: popReadPos with no saved state")
)

// TagMismatchError reports a scalar or chunk tag that didn't match what the
// reader expected.
type TagMismatchError struct {
	Expected, Got any
}

func (e *TagMismatchError) Error() string {
	return fmt.Sprintf("stream: tag mismatch: expected %v, got %v", e.Expected, e.Got)
}

type writeFrame struct {
	id      FourCC
	version uint32
	buf     []byte
}

type readChunkFrame struct {
	end int // absolute offset where this chunk's payload ends
}

type readPosSnapshot struct {
	cursor     int
	chunkStack []readChunkFrame
}

// Stream is a single in-memory buffer that supports both write (via a stack
// of nested chunk buffers) and read (via a cursor plus a stack of open
// chunk bounds), using self-describing tags and arbitrary chunk nesting
// instead of a fixed top-level layout.
type Stream struct {
	root []byte // finished, fully-written bytes once writing is done, or the input buffer when reading

	writeStack []writeFrame // open chunk buffers, innermost last

	cursor     int
	chunkStack []readChunkFrame
	savedReads []readPosSnapshot
}

// NewWriter returns an empty Stream ready to be written to.
func NewWriter() *Stream {
	return &Stream{}
}

// NewReader wraps an existing byte slice for reading.
func NewReader(data []byte) *Stream {
	return &Stream{root: data}
}

// Bytes returns the fully written root buffer. Valid only after all chunks
// opened with pushChunk have been closed with popChunk.
func (s *Stream) Bytes() []byte {
	return s.root
}

// activeBuf returns the buffer that writes currently land in: the innermost
// open chunk's scratch buffer, or the root buffer at depth 0.
func (s *Stream) activeBuf() *[]byte {
	if len(s.writeStack) == 0 {
		return &s.root
	}
	return &s.writeStack[len(s.writeStack)-1].buf
}

func (s *Stream) writeRaw(b []byte) {
	buf := s.activeBuf()
	*buf = append(*buf, b...)
}

// --- tagged scalar writes ---

func (s *Stream) WriteU8(v uint8) {
	s.writeRaw([]byte{byte(TagU8), v})
}

func (s *Stream) WriteBool(v bool) {
	b := byte(0)
	if v {
		b = 1
	}
	s.writeRaw([]byte{byte(TagBool), b})
}

func (s *Stream) WriteU32(v uint32) {
	var b [5]byte
	b[0] = byte(TagU32)
	binary.LittleEndian.PutUint32(b[1:], v)
	s.writeRaw(b[:])
}

func (s *Stream) WriteF64(v float64) {
	var b [9]byte
	b[0] = byte(TagF64)
	binary.LittleEndian.PutUint64(b[1:], math.Float64bits(v))
	s.writeRaw(b[:])
}

// WriteString writes a short string (≤ MaxShortString bytes); see
// WriteLongString for the 64KB-capped variant.
func (s *Stream) WriteString(v string) error {
	if len(v) > MaxShortString {
		return fmt.Errorf("%w: string %d bytes exceeds %d", ErrTooLong, len(v), MaxShortString)
	}
	return s.writeTaggedBytes(TagString, []byte(v))
}

// WriteLongString writes a string up to MaxLongString bytes, tagged the same
// as WriteString; only the write-side cap differs. The brain serializer
// writes every string, tile labels included, with WriteString.
func (s *Stream) WriteLongString(v string) error {
	if len(v) > MaxLongString {
		return fmt.Errorf("%w: string %d bytes exceeds %d", ErrTooLong, len(v), MaxLongString)
	}
	return s.writeTaggedBytes(TagString, []byte(v))
}

// WriteBytes writes an opaque byte array (≤ MaxByteArray), e.g. a tile's
// visual blob.
func (s *Stream) WriteBytes(v []byte) error {
	if len(v) > MaxByteArray {
		return fmt.Errorf("%w: byte array %d bytes exceeds %d", ErrTooLong, len(v), MaxByteArray)
	}
	return s.writeTaggedBytes(TagBytes, v)
}

func (s *Stream) writeTaggedBytes(tag DataTag, v []byte) error {
	if len(v) > math.MaxUint32 {
		return ErrTooLong
	}
	var hdr [5]byte
	hdr[0] = byte(tag)
	binary.LittleEndian.PutUint32(hdr[1:], uint32(len(v)))
	s.writeRaw(hdr[:])
	s.writeRaw(v)
	return nil
}

// WriteFourCC writes a bare FourCC tag scalar (used for peekTag probing and
// for tagged convenience pairs below).
func (s *Stream) WriteFourCC(cc FourCC) {
	var b [5]byte
	b[0] = byte(TagFourCCTag)
	binary.LittleEndian.PutUint32(b[1:], uint32(cc))
	s.writeRaw(b[:])
}

// WriteTaggedU32 writes a FourCC id followed by a U32 value, e.g.
// writeTaggedU32(TagPGCT, pageCount).
func (s *Stream) WriteTaggedU32(id FourCC, v uint32) {
	s.WriteFourCC(id)
	s.WriteU32(v)
}

// WriteTaggedString writes a FourCC id followed by a short string.
func (s *Stream) WriteTaggedString(id FourCC, v string) error {
	s.WriteFourCC(id)
	return s.WriteString(v)
}

// --- chunk framing ---

// PushChunk opens a new nested chunk; subsequent writes land in its private
// buffer until the matching PopChunk.
func (s *Stream) PushChunk(id FourCC, version uint32) {
	s.writeStack = append(s.writeStack, writeFrame{id: id, version: version})
}

// PopChunk closes the innermost open chunk, framing its payload as
// `ChunkTag byte ∥ id:u32 ∥ version:u32 ∥ length:u32 ∥ payload` and
// appending that frame to the now-active buffer (the enclosing chunk, or
// root at depth 0).
func (s *Stream) PopChunk() error {
	if len(s.writeStack) == 0 {
		return ErrNoOpenWriteChunk
	}
	frame := s.writeStack[len(s.writeStack)-1]
	s.writeStack = s.writeStack[:len(s.writeStack)-1]

	if len(frame.buf) > math.MaxUint32 {
		return ErrTooLong
	}

	var hdr [13]byte
	hdr[0] = byte(TagChunkTag)
	binary.LittleEndian.PutUint32(hdr[1:5], uint32(frame.id))
	binary.LittleEndian.PutUint32(hdr[5:9], frame.version)
	binary.LittleEndian.PutUint32(hdr[9:13], uint32(len(frame.buf)))

	buf := s.activeBuf()
	*buf = append(*buf, hdr[:]...)
	*buf = append(*buf, frame.buf...)
	return nil
}

// --- tagged scalar reads ---

func (s *Stream) need(n int) error {
	if s.cursor+n > len(s.root) {
		return ErrUnexpectedEOF
	}
	return nil
}

func (s *Stream) readTag() (DataTag, error) {
	if err := s.need(1); err != nil {
		return 0, err
	}
	t := DataTag(s.root[s.cursor])
	s.cursor++
	return t, nil
}

func (s *Stream) expectTag(want DataTag) error {
	got, err := s.readTag()
	if err != nil {
		return err
	}
	if got != want {
		return &TagMismatchError{Expected: want, Got: got}
	}
	return nil
}

func (s *Stream) ReadU8() (uint8, error) {
	if err := s.expectTag(TagU8); err != nil {
		return 0, err
	}
	if err := s.need(1); err != nil {
		return 0, err
	}
	v := s.root[s.cursor]
	s.cursor++
	return v, nil
}

func (s *Stream) ReadBool() (bool, error) {
	if err := s.expectTag(TagBool); err != nil {
		return false, err
	}
	if err := s.need(1); err != nil {
		return false, err
	}
	v := s.root[s.cursor] != 0
	s.cursor++
	return v, nil
}

func (s *Stream) ReadU32() (uint32, error) {
	if err := s.expectTag(TagU32); err != nil {
		return 0, err
	}
	if err := s.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(s.root[s.cursor:])
	s.cursor += 4
	return v, nil
}

func (s *Stream) ReadF64() (float64, error) {
	if err := s.expectTag(TagF64); err != nil {
		return 0, err
	}
	if err := s.need(8); err != nil {
		return 0, err
	}
	v := math.Float64frombits(binary.LittleEndian.Uint64(s.root[s.cursor:]))
	s.cursor += 8
	return v, nil
}

func (s *Stream) readTaggedBytes(want DataTag) ([]byte, error) {
	if err := s.expectTag(want); err != nil {
		return nil, err
	}
	if err := s.need(4); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(s.root[s.cursor:])
	s.cursor += 4
	if err := s.need(int(n)); err != nil {
		return nil, err
	}
	v := s.root[s.cursor : s.cursor+int(n)]
	s.cursor += int(n)
	return v, nil
}

func (s *Stream) ReadString() (string, error) {
	b, err := s.readTaggedBytes(TagString)
	if err != nil {
		return "", err
	}
	if len(b) > MaxLongString {
		return "", fmt.Errorf("%w: string %d bytes exceeds %d", ErrTooLong, len(b), MaxLongString)
	}
	return string(b), nil
}

func (s *Stream) ReadBytes() ([]byte, error) {
	b, err := s.readTaggedBytes(TagBytes)
	if err != nil {
		return nil, err
	}
	if len(b) > MaxByteArray {
		return nil, fmt.Errorf("%w: byte array %d bytes exceeds %d", ErrTooLong, len(b), MaxByteArray)
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (s *Stream) ReadFourCC() (FourCC, error) {
	if err := s.expectTag(TagFourCCTag); err != nil {
		return 0, err
	}
	if err := s.need(4); err != nil {
		return 0, err
	}
	v := FourCC(binary.LittleEndian.Uint32(s.root[s.cursor:]))
	s.cursor += 4
	return v, nil
}

// ReadTaggedU32 reads a FourCC id and checks it against want, then reads the
// following U32.
func (s *Stream) ReadTaggedU32(want FourCC) (uint32, error) {
	got, err := s.ReadFourCC()
	if err != nil {
		return 0, err
	}
	if got != want {
		return 0, &TagMismatchError{Expected: want, Got: got}
	}
	return s.ReadU32()
}

// ReadTaggedString reads a FourCC id checked against want, then a string.
func (s *Stream) ReadTaggedString(want FourCC) (string, error) {
	got, err := s.ReadFourCC()
	if err != nil {
		return "", err
	}
	if got != want {
		return "", &TagMismatchError{Expected: want, Got: got}
	}
	return s.ReadString()
}

// PeekTag returns the next FourCC tag without advancing the cursor, or 0 if
// the next datum is not a FourCC tag at all (e.g. end of input, or a plain
// scalar), so a decoder can tell whether an optional tagged field is
// present.
func (s *Stream) PeekTag() FourCC {
	if s.cursor >= len(s.root) {
		return 0
	}
	if DataTag(s.root[s.cursor]) != TagFourCCTag {
		return 0
	}
	if s.cursor+5 > len(s.root) {
		return 0
	}
	return FourCC(binary.LittleEndian.Uint32(s.root[s.cursor+1:]))
}

// --- chunk reads ---

// EnterChunk expects a chunk header, verifies its id, and returns its
// declared version. The read-chunk stack records where this chunk's
// payload ends so a mismatched or unknown-future LeaveChunk still lands in
// the right place.
func (s *Stream) EnterChunk(id FourCC) (version uint32, err error) {
	if err := s.expectTag(TagChunkTag); err != nil {
		return 0, err
	}
	if err := s.need(12); err != nil {
		return 0, err
	}
	gotID := FourCC(binary.LittleEndian.Uint32(s.root[s.cursor:]))
	version = binary.LittleEndian.Uint32(s.root[s.cursor+4:])
	length := binary.LittleEndian.Uint32(s.root[s.cursor+8:])
	s.cursor += 12
	if gotID != id {
		return 0, &TagMismatchError{Expected: id, Got: gotID}
	}
	if err := s.need(int(length)); err != nil {
		return 0, err
	}
	s.chunkStack = append(s.chunkStack, readChunkFrame{end: s.cursor + int(length)})
	return version, nil
}

// LeaveChunk fast-forwards the cursor to the end of the current chunk's
// declared payload, regardless of how much of it was actually consumed —
// this is what lets an older decoder tolerate a newer encoder's extra
// trailing fields within a chunk.
func (s *Stream) LeaveChunk() error {
	if len(s.chunkStack) == 0 {
		return ErrNoOpenReadChunk
	}
	frame := s.chunkStack[len(s.chunkStack)-1]
	s.chunkStack = s.chunkStack[:len(s.chunkStack)-1]
	s.cursor = frame.end
	return nil
}

// CheckVersion is a convenience for decoders: fail with ErrUnsupportedVer if
// got exceeds the maximum this decoder understands.
func CheckVersion(got, max uint32) error {
	if got > max {
		return fmt.Errorf("%w: got v%d, support up to v%d", ErrUnsupportedVer, got, max)
	}
	return nil
}

// --- read-position save/restore, for peek-ahead during deserialization ---

// PushReadPos snapshots both the cursor and the open read-chunk stack.
func (s *Stream) PushReadPos() {
	stackCopy := make([]readChunkFrame, len(s.chunkStack))
	copy(stackCopy, s.chunkStack)
	s.savedReads = append(s.savedReads, readPosSnapshot{cursor: s.cursor, chunkStack: stackCopy})
}

// PopReadPos restores the most recently pushed cursor and read-chunk stack.
func (s *Stream) PopReadPos() error {
	if len(s.savedReads) == 0 {
		return ErrNoSavedReadState
	}
	snap := s.savedReads[len(s.savedReads)-1]
	s.savedReads = s.savedReads[:len(s.savedReads)-1]
	s.cursor = snap.cursor
	s.chunkStack = snap.chunkStack
	return nil
}

// AtEnd reports whether the cursor has reached the end of the buffer.
func (s *Stream) AtEnd() bool {
	return s.cursor >= len(s.root)
}
