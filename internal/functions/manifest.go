package functions

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/humanapp/mindcraft-lang-sub002/internal/types"
	"github.com/humanapp/mindcraft-lang-sub002/internal/value"
)

// LoadManifest bootstraps a Registry from a JSON document declaring the
// sensor/actuator shape the host intends to fill in — tileId, declared
// return type and placement, whether it's an actuator — without the exec
// body itself, since "the functions are not" in scope. The
// manifest is walked with gjson rather than unmarshaled into a fixed Go
// struct: a host's tile catalog is data, not code, the same way the host
// app supplies its own sensors/actuators at registration time rather than
// this module declaring them.
//
// Each entry gets a stub Exec that reports a runtime diagnostic identifying
// the unimplemented tile; a fresh Register call under the same tileId is
// how a host wires the real implementation in.
//
// Manifest shape:
//
//	[
//	  {"tileId": "vision.seesTarget", "returnType": "Boolean", "placement": "inline"},
//	  {"tileId": "actuator.moveTo", "returnType": "Nil", "actuator": true}
//	]
func LoadManifest(doc []byte) (*Registry, error) {
	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("functions: manifest is not valid JSON")
	}
	reg := NewRegistry()
	var parseErr error
	gjson.ParseBytes(doc).ForEach(func(_, entry gjson.Result) bool {
		tileID := entry.Get("tileId").String()
		if tileID == "" {
			parseErr = fmt.Errorf("functions: manifest entry missing tileId: %s", entry.Raw)
			return false
		}
		returnTypeName := entry.Get("returnType").String()
		if returnTypeName == "" {
			returnTypeName = "Nil"
		}
		placement := PlacementStatement
		if entry.Get("placement").String() == "inline" {
			placement = PlacementInline
		}
		isActuator := entry.Get("actuator").Bool()

		reg.Register(Entry{
			TileID:     tileID,
			ReturnType: namedTypeID(returnTypeName),
			Placement:  placement,
			IsActuator: isActuator,
			Exec:       stubExec(tileID),
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return reg, nil
}

// stubExec reports an "unimplemented by host" diagnostic for a tile the
// manifest declared but no Register call has replaced yet.
func stubExec(tileID string) ExecFunc {
	return func(ctx *Context, args *value.Map) value.Value {
		return ctx.ReportError("tile %q has no host implementation registered", tileID)
	}
}

// namedTypeID resolves the small set of core type names a manifest can
// reference by bare name. Struct-typed sensor/actuator returns are
// registered programmatically (they need a live TypeID from a types.Registry
// the manifest can't see), not through this JSON bootstrap.
func namedTypeID(name string) types.TypeID {
	switch name {
	case "Boolean":
		return types.Boolean
	case "Number":
		return types.Number
	case "String":
		return types.String
	case "List":
		return types.List
	case "Map":
		return types.Map
	default:
		return types.Nil
	}
}
