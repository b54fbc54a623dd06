package serialize

import (
	"fmt"

	"github.com/humanapp/mindcraft-lang-sub002/internal/stream"
	"github.com/humanapp/mindcraft-lang-sub002/internal/tiles"
	"github.com/humanapp/mindcraft-lang-sub002/internal/types"
)

func writeTypeID(s *stream.Stream, t types.TypeID) error {
	s.WriteU8(uint8(t.Native))
	return s.WriteString(t.Name)
}

func readTypeID(s *stream.Stream) (types.TypeID, error) {
	native, err := s.ReadU8()
	if err != nil {
		return types.TypeID{}, err
	}
	name, err := s.ReadString()
	if err != nil {
		return types.TypeID{}, err
	}
	return types.TypeID{Native: types.NativeTag(native), Name: name}, nil
}

// Capabilities is a uint64; the stream only has a tagged U32 scalar, so it
// is split into two words, low word first.
func writeCapabilities(s *stream.Stream, c tiles.Capabilities) {
	s.WriteU32(uint32(c))
	s.WriteU32(uint32(c >> 32))
}

func readCapabilities(s *stream.Stream) (tiles.Capabilities, error) {
	lo, err := s.ReadU32()
	if err != nil {
		return 0, err
	}
	hi, err := s.ReadU32()
	if err != nil {
		return 0, err
	}
	return tiles.Capabilities(uint64(lo) | uint64(hi)<<32), nil
}

func writeHeader(s *stream.Stream, kind tiles.Kind, h tiles.Header) error {
	s.PushChunk(stream.TagTDHD, 1)
	s.WriteTaggedU32(stream.TagTKND, uint32(kind))
	if err := s.WriteTaggedString(stream.TagTIID, h.TileID); err != nil {
		return err
	}
	s.WriteU8(uint8(h.Placement))
	s.WriteBool(h.Persist)
	writeCapabilities(s, h.Capabilities)
	writeCapabilities(s, h.Requirements)
	if err := s.WriteBytes(h.Visual); err != nil {
		return err
	}
	return s.PopChunk()
}

type decodedHeader struct {
	kind tiles.Kind
	hdr  tiles.Header
}

func readHeader(s *stream.Stream) (decodedHeader, error) {
	ver, err := s.EnterChunk(stream.TagTDHD)
	if err != nil {
		return decodedHeader{}, err
	}
	if err := stream.CheckVersion(ver, 1); err != nil {
		return decodedHeader{}, err
	}
	kindU32, err := s.ReadTaggedU32(stream.TagTKND)
	if err != nil {
		return decodedHeader{}, err
	}
	if kindU32 > uint32(tiles.KindMissing) {
		return decodedHeader{}, fmt.Errorf("%w: tile kind %d", stream.ErrValueOutOfRange, kindU32)
	}
	tileID, err := s.ReadTaggedString(stream.TagTIID)
	if err != nil {
		return decodedHeader{}, err
	}
	placement, err := s.ReadU8()
	if err != nil {
		return decodedHeader{}, err
	}
	persist, err := s.ReadBool()
	if err != nil {
		return decodedHeader{}, err
	}
	caps, err := readCapabilities(s)
	if err != nil {
		return decodedHeader{}, err
	}
	reqs, err := readCapabilities(s)
	if err != nil {
		return decodedHeader{}, err
	}
	visual, err := s.ReadBytes()
	if err != nil {
		return decodedHeader{}, err
	}
	if err := s.LeaveChunk(); err != nil {
		return decodedHeader{}, err
	}
	return decodedHeader{
		kind: tiles.Kind(kindU32),
		hdr: tiles.Header{
			TileID:       tileID,
			Placement:    tiles.Placement(placement),
			Persist:      persist,
			Capabilities: caps,
			Requirements: reqs,
			Visual:       visual,
		},
	}, nil
}

// writeLiteralValue encodes a Literal tile's Value. Literal tiles are
// user-entered immediate constants, which in practice only ever carry one
// of the scalar native representations (Nil, Boolean, Number, String) —
// a visual tile for a List/Map/Struct literal isn't part of the catalog's
// legal tile set, so those natives aren't supported here.
func writeLiteralValue(s *stream.Stream, valueType types.TypeID, v any) error {
	switch valueType.Native {
	case types.NativeNil:
		return nil
	case types.NativeBoolean:
		b, _ := v.(bool)
		s.WriteBool(b)
		return nil
	case types.NativeNumber:
		n, _ := v.(float64)
		s.WriteF64(n)
		return nil
	case types.NativeString:
		str, _ := v.(string)
		return s.WriteString(str)
	default:
		return fmt.Errorf("serialize: literal tiles only support scalar native types, got %s", valueType)
	}
}

func readLiteralValue(s *stream.Stream, valueType types.TypeID) (any, error) {
	switch valueType.Native {
	case types.NativeNil:
		return nil, nil
	case types.NativeBoolean:
		return s.ReadBool()
	case types.NativeNumber:
		return s.ReadF64()
	case types.NativeString:
		return s.ReadString()
	default:
		return nil, fmt.Errorf("serialize: literal tiles only support scalar native types, got %s", valueType)
	}
}

// writeTileDef encodes one catalog entry: a TDHD header followed by a
// kind-specific payload chunk (Modifier has none of its own).
func writeTileDef(s *stream.Stream, d tiles.Def) error {
	if err := writeHeader(s, d.Kind(), d.Base()); err != nil {
		return err
	}
	switch t := d.(type) {
	case tiles.Operator:
		s.PushChunk(stream.TagOPRD, 1)
		if err := s.WriteString(t.OpID); err != nil {
			return err
		}
		return s.PopChunk()
	case tiles.ControlFlow:
		s.PushChunk(stream.TagCFLW, 1)
		if err := s.WriteString(t.CFID); err != nil {
			return err
		}
		return s.PopChunk()
	case tiles.Parameter:
		s.PushChunk(stream.TagPARM, 1)
		if err := s.WriteString(t.Name); err != nil {
			return err
		}
		if err := writeTypeID(s, t.DataType); err != nil {
			return err
		}
		s.WriteBool(t.Optional)
		return s.PopChunk()
	case tiles.Modifier:
		return nil
	case tiles.Variable:
		s.PushChunk(stream.TagVARD, 1)
		if err := s.WriteString(t.Name); err != nil {
			return err
		}
		if err := writeTypeID(s, t.VarType); err != nil {
			return err
		}
		if err := s.WriteString(t.UniqueID); err != nil {
			return err
		}
		return s.PopChunk()
	case tiles.VariableFactory:
		s.PushChunk(stream.TagVFAC, 1)
		if err := writeTypeID(s, t.ProducedType); err != nil {
			return err
		}
		return s.PopChunk()
	case tiles.Literal:
		s.PushChunk(stream.TagLITD, 1)
		if err := writeTypeID(s, t.ValueType); err != nil {
			return err
		}
		if err := writeLiteralValue(s, t.ValueType, t.Value); err != nil {
			return err
		}
		if err := s.WriteString(t.ValueLabel); err != nil {
			return err
		}
		return s.PopChunk()
	case tiles.LiteralFactory:
		s.PushChunk(stream.TagLFAC, 1)
		if err := writeTypeID(s, t.ProducedType); err != nil {
			return err
		}
		return s.PopChunk()
	case tiles.Accessor:
		s.PushChunk(stream.TagACCR, 1)
		if err := writeTypeID(s, t.ParentType); err != nil {
			return err
		}
		if err := s.WriteString(t.FieldName); err != nil {
			return err
		}
		if err := writeTypeID(s, t.FieldType); err != nil {
			return err
		}
		s.WriteBool(t.ReadOnly)
		return s.PopChunk()
	case tiles.Sensor:
		s.PushChunk(stream.TagSENS, 1)
		if err := s.WriteString(t.FnEntry); err != nil {
			return err
		}
		if err := writeTypeID(s, t.ReturnType); err != nil {
			return err
		}
		s.WriteU8(uint8(t.SensorPlacement))
		return s.PopChunk()
	case tiles.Actuator:
		s.PushChunk(stream.TagACTR, 1)
		if err := s.WriteString(t.FnEntry); err != nil {
			return err
		}
		return s.PopChunk()
	case tiles.Page:
		s.PushChunk(stream.TagBPAG, 1)
		if err := s.WriteString(t.PageID); err != nil {
			return err
		}
		if err := s.WriteString(t.Label); err != nil {
			return err
		}
		s.WriteBool(t.Hidden)
		return s.PopChunk()
	case tiles.Missing:
		s.PushChunk(stream.TagMISS, 1)
		s.WriteU8(uint8(t.OriginalKind))
		if err := s.WriteString(t.Label); err != nil {
			return err
		}
		return s.PopChunk()
	default:
		return fmt.Errorf("serialize: unknown tile def type %T", d)
	}
}

func readTileDef(s *stream.Stream) (tiles.Def, error) {
	dh, err := readHeader(s)
	if err != nil {
		return nil, err
	}
	switch dh.kind {
	case tiles.KindOperator:
		ver, err := s.EnterChunk(stream.TagOPRD)
		if err != nil {
			return nil, err
		}
		if err := stream.CheckVersion(ver, 1); err != nil {
			return nil, err
		}
		opID, err := s.ReadString()
		if err != nil {
			return nil, err
		}
		if err := s.LeaveChunk(); err != nil {
			return nil, err
		}
		return tiles.Operator{Header: dh.hdr, OpID: opID}, nil
	case tiles.KindControlFlow:
		ver, err := s.EnterChunk(stream.TagCFLW)
		if err != nil {
			return nil, err
		}
		if err := stream.CheckVersion(ver, 1); err != nil {
			return nil, err
		}
		cfID, err := s.ReadString()
		if err != nil {
			return nil, err
		}
		if err := s.LeaveChunk(); err != nil {
			return nil, err
		}
		return tiles.ControlFlow{Header: dh.hdr, CFID: cfID}, nil
	case tiles.KindParameter:
		ver, err := s.EnterChunk(stream.TagPARM)
		if err != nil {
			return nil, err
		}
		if err := stream.CheckVersion(ver, 1); err != nil {
			return nil, err
		}
		name, err := s.ReadString()
		if err != nil {
			return nil, err
		}
		dt, err := readTypeID(s)
		if err != nil {
			return nil, err
		}
		optional, err := s.ReadBool()
		if err != nil {
			return nil, err
		}
		if err := s.LeaveChunk(); err != nil {
			return nil, err
		}
		return tiles.Parameter{Header: dh.hdr, Name: name, DataType: dt, Optional: optional}, nil
	case tiles.KindModifier:
		return tiles.Modifier{Header: dh.hdr}, nil
	case tiles.KindVariable:
		ver, err := s.EnterChunk(stream.TagVARD)
		if err != nil {
			return nil, err
		}
		if err := stream.CheckVersion(ver, 1); err != nil {
			return nil, err
		}
		name, err := s.ReadString()
		if err != nil {
			return nil, err
		}
		vt, err := readTypeID(s)
		if err != nil {
			return nil, err
		}
		uid, err := s.ReadString()
		if err != nil {
			return nil, err
		}
		if err := s.LeaveChunk(); err != nil {
			return nil, err
		}
		return tiles.Variable{Header: dh.hdr, Name: name, VarType: vt, UniqueID: uid}, nil
	case tiles.KindVariableFactory:
		ver, err := s.EnterChunk(stream.TagVFAC)
		if err != nil {
			return nil, err
		}
		if err := stream.CheckVersion(ver, 1); err != nil {
			return nil, err
		}
		pt, err := readTypeID(s)
		if err != nil {
			return nil, err
		}
		if err := s.LeaveChunk(); err != nil {
			return nil, err
		}
		return tiles.VariableFactory{Header: dh.hdr, ProducedType: pt}, nil
	case tiles.KindLiteral:
		ver, err := s.EnterChunk(stream.TagLITD)
		if err != nil {
			return nil, err
		}
		if err := stream.CheckVersion(ver, 1); err != nil {
			return nil, err
		}
		vt, err := readTypeID(s)
		if err != nil {
			return nil, err
		}
		val, err := readLiteralValue(s, vt)
		if err != nil {
			return nil, err
		}
		label, err := s.ReadString()
		if err != nil {
			return nil, err
		}
		if err := s.LeaveChunk(); err != nil {
			return nil, err
		}
		return tiles.Literal{Header: dh.hdr, ValueType: vt, Value: val, ValueLabel: label}, nil
	case tiles.KindLiteralFactory:
		ver, err := s.EnterChunk(stream.TagLFAC)
		if err != nil {
			return nil, err
		}
		if err := stream.CheckVersion(ver, 1); err != nil {
			return nil, err
		}
		pt, err := readTypeID(s)
		if err != nil {
			return nil, err
		}
		if err := s.LeaveChunk(); err != nil {
			return nil, err
		}
		return tiles.LiteralFactory{Header: dh.hdr, ProducedType: pt}, nil
	case tiles.KindAccessor:
		ver, err := s.EnterChunk(stream.TagACCR)
		if err != nil {
			return nil, err
		}
		if err := stream.CheckVersion(ver, 1); err != nil {
			return nil, err
		}
		parentType, err := readTypeID(s)
		if err != nil {
			return nil, err
		}
		fieldName, err := s.ReadString()
		if err != nil {
			return nil, err
		}
		fieldType, err := readTypeID(s)
		if err != nil {
			return nil, err
		}
		readOnly, err := s.ReadBool()
		if err != nil {
			return nil, err
		}
		if err := s.LeaveChunk(); err != nil {
			return nil, err
		}
		return tiles.Accessor{Header: dh.hdr, ParentType: parentType, FieldName: fieldName, FieldType: fieldType, ReadOnly: readOnly}, nil
	case tiles.KindSensor:
		ver, err := s.EnterChunk(stream.TagSENS)
		if err != nil {
			return nil, err
		}
		if err := stream.CheckVersion(ver, 1); err != nil {
			return nil, err
		}
		fnEntry, err := s.ReadString()
		if err != nil {
			return nil, err
		}
		rt, err := readTypeID(s)
		if err != nil {
			return nil, err
		}
		placement, err := s.ReadU8()
		if err != nil {
			return nil, err
		}
		if err := s.LeaveChunk(); err != nil {
			return nil, err
		}
		return tiles.Sensor{Header: dh.hdr, FnEntry: fnEntry, ReturnType: rt, SensorPlacement: tiles.Placement(placement)}, nil
	case tiles.KindActuator:
		ver, err := s.EnterChunk(stream.TagACTR)
		if err != nil {
			return nil, err
		}
		if err := stream.CheckVersion(ver, 1); err != nil {
			return nil, err
		}
		fnEntry, err := s.ReadString()
		if err != nil {
			return nil, err
		}
		if err := s.LeaveChunk(); err != nil {
			return nil, err
		}
		return tiles.Actuator{Header: dh.hdr, FnEntry: fnEntry}, nil
	case tiles.KindPage:
		ver, err := s.EnterChunk(stream.TagBPAG)
		if err != nil {
			return nil, err
		}
		if err := stream.CheckVersion(ver, 1); err != nil {
			return nil, err
		}
		pageID, err := s.ReadString()
		if err != nil {
			return nil, err
		}
		label, err := s.ReadString()
		if err != nil {
			return nil, err
		}
		hidden, err := s.ReadBool()
		if err != nil {
			return nil, err
		}
		if err := s.LeaveChunk(); err != nil {
			return nil, err
		}
		return tiles.Page{Header: dh.hdr, PageID: pageID, Label: label, Hidden: hidden}, nil
	case tiles.KindMissing:
		ver, err := s.EnterChunk(stream.TagMISS)
		if err != nil {
			return nil, err
		}
		if err := stream.CheckVersion(ver, 1); err != nil {
			return nil, err
		}
		originalKind, err := s.ReadU8()
		if err != nil {
			return nil, err
		}
		label, err := s.ReadString()
		if err != nil {
			return nil, err
		}
		if err := s.LeaveChunk(); err != nil {
			return nil, err
		}
		return tiles.Missing{Header: dh.hdr, OriginalKind: tiles.Kind(originalKind), Label: label}, nil
	default:
		return nil, fmt.Errorf("serialize: unknown tile kind %d", dh.kind)
	}
}
