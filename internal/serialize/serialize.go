// Package serialize implements the brain model's tagged, chunked binary
// persistence format, built directly on internal/stream's self-describing
// scalar tags and nestable chunk framing: a length-prefixed, versioned
// stream written and read through one matched pair of save/load passes
// over a brain's tile catalog and rule tree.
package serialize

import (
	"github.com/humanapp/mindcraft-lang-sub002/internal/brain"
	"github.com/humanapp/mindcraft-lang-sub002/internal/catalog"
	"github.com/humanapp/mindcraft-lang-sub002/internal/stream"
	"github.com/humanapp/mindcraft-lang-sub002/internal/tiles"
)

const (
	branVersion        = 1
	tcatVersion        = 1
	pageVersionMax     = 2
	pageVersionCurrent = 2
	rul1Version        = 1
	rul2Version        = 1
	tsetVersion        = 1
)

// SaveBrain encodes b as a BRAN chunk: NAME, the brain's local tile
// catalog (TCAT), and every page in order.
func SaveBrain(b *brain.BrainDef) ([]byte, error) {
	s := stream.NewWriter()
	s.PushChunk(stream.TagBRAN, branVersion)
	if err := s.WriteTaggedString(stream.TagNAME, b.Name()); err != nil {
		return nil, err
	}
	if err := writeCatalog(s, b.Catalog); err != nil {
		return nil, err
	}
	s.WriteTaggedU32(stream.TagPGCT, uint32(len(b.Pages)))
	for _, p := range b.Pages {
		if err := writePage(s, p); err != nil {
			return nil, err
		}
	}
	if err := s.PopChunk(); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

// LoadBrain decodes a BRAN chunk produced by SaveBrain. global is consulted
// (read-only) alongside the brain's own freshly-loaded local catalog when
// resolving a rule's tile references; policy controls what happens to a
// tileId that resolves against neither.
func LoadBrain(data []byte, global *catalog.Catalog, policy catalog.ResolvePolicy) (*brain.BrainDef, error) {
	s := stream.NewReader(data)
	ver, err := s.EnterChunk(stream.TagBRAN)
	if err != nil {
		return nil, err
	}
	if err := stream.CheckVersion(ver, branVersion); err != nil {
		return nil, err
	}
	name, err := s.ReadTaggedString(stream.TagNAME)
	if err != nil {
		return nil, err
	}
	b, err := brain.NewBrainDef(name)
	if err != nil {
		return nil, err
	}
	if err := readCatalog(s, b.Catalog); err != nil {
		return nil, err
	}

	lookup := catalog.Lookup{Local: b.Catalog, Global: global}
	pgct, err := s.ReadTaggedU32(stream.TagPGCT)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < pgct; i++ {
		p, err := readPage(s, lookup, b.Catalog, policy)
		if err != nil {
			return nil, err
		}
		if err := b.AdoptPage(p); err != nil {
			return nil, err
		}
	}
	if err := s.LeaveChunk(); err != nil {
		return nil, err
	}
	return b, nil
}

func writeCatalog(s *stream.Stream, c *catalog.Catalog) error {
	persisted := c.Find(func(d tiles.Def) bool { return d.Base().Persist })
	s.PushChunk(stream.TagTCAT, tcatVersion)
	s.WriteTaggedU32(stream.TagTCNT, uint32(len(persisted)))
	for _, d := range persisted {
		if err := writeTileDef(s, d); err != nil {
			return err
		}
	}
	return s.PopChunk()
}

func readCatalog(s *stream.Stream, into *catalog.Catalog) error {
	ver, err := s.EnterChunk(stream.TagTCAT)
	if err != nil {
		return err
	}
	if err := stream.CheckVersion(ver, tcatVersion); err != nil {
		return err
	}
	count, err := s.ReadTaggedU32(stream.TagTCNT)
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		d, err := readTileDef(s)
		if err != nil {
			return err
		}
		// First-write-wins: a tileId already present (e.g. seeded before
		// load, or duplicated in a corrupt stream) is left untouched.
		into.AddIfAbsent(d)
	}
	if err := s.LeaveChunk(); err != nil {
		return err
	}
	return nil
}

func writePage(s *stream.Stream, p *brain.PageDef) error {
	s.PushChunk(stream.TagPAGE, pageVersionCurrent)
	if err := s.WriteTaggedString(stream.TagNAME, p.Name()); err != nil {
		return err
	}
	if err := s.WriteTaggedString(stream.TagPGID, p.PageID); err != nil {
		return err
	}
	s.WriteTaggedU32(stream.TagRLCT, uint32(len(p.Rules)))
	for _, r := range p.Rules {
		if err := writeRule(s, r); err != nil {
			return err
		}
	}
	return s.PopChunk()
}

func readPage(s *stream.Stream, lookup catalog.Lookup, local *catalog.Catalog, policy catalog.ResolvePolicy) (*brain.PageDef, error) {
	ver, err := s.EnterChunk(stream.TagPAGE)
	if err != nil {
		return nil, err
	}
	if err := stream.CheckVersion(ver, pageVersionMax); err != nil {
		return nil, err
	}
	name, err := s.ReadTaggedString(stream.TagNAME)
	if err != nil {
		return nil, err
	}
	p, err := brain.NewPageDef(name)
	if err != nil {
		return nil, err
	}
	if ver >= 2 {
		pageID, err := s.ReadTaggedString(stream.TagPGID)
		if err != nil {
			return nil, err
		}
		p.PageID = pageID
	} // else: a v1 page predates PGID; NewPageDef already minted a fresh one.

	rlct, err := s.ReadTaggedU32(stream.TagRLCT)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < rlct; i++ {
		r, err := readRule(s, lookup, local, policy)
		if err != nil {
			return nil, err
		}
		p.AddRootRule(r)
	}
	if err := s.LeaveChunk(); err != nil {
		return nil, err
	}
	return p, nil
}

func writeRule(s *stream.Stream, r *brain.RuleDef) error {
	s.PushChunk(stream.TagRUL1, rul1Version)
	s.PushChunk(stream.TagRUL2, rul2Version)
	if err := writeTileSet(s, r.When); err != nil {
		return err
	}
	if err := writeTileSet(s, r.Do); err != nil {
		return err
	}
	if err := s.PopChunk(); err != nil { // RUL2
		return err
	}
	s.WriteTaggedU32(stream.TagCRCT, uint32(len(r.Children)))
	for _, c := range r.Children {
		if err := writeRule(s, c); err != nil {
			return err
		}
	}
	return s.PopChunk() // RUL1
}

func readRule(s *stream.Stream, lookup catalog.Lookup, local *catalog.Catalog, policy catalog.ResolvePolicy) (*brain.RuleDef, error) {
	ver, err := s.EnterChunk(stream.TagRUL1)
	if err != nil {
		return nil, err
	}
	if err := stream.CheckVersion(ver, rul1Version); err != nil {
		return nil, err
	}

	r2ver, err := s.EnterChunk(stream.TagRUL2)
	if err != nil {
		return nil, err
	}
	if err := stream.CheckVersion(r2ver, rul2Version); err != nil {
		return nil, err
	}
	r := brain.NewRuleDef()
	if err := readTileSetInto(s, r.When, lookup, local, policy); err != nil {
		return nil, err
	}
	if err := readTileSetInto(s, r.Do, lookup, local, policy); err != nil {
		return nil, err
	}
	if err := s.LeaveChunk(); err != nil { // RUL2
		return nil, err
	}

	crct, err := s.ReadTaggedU32(stream.TagCRCT)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < crct; i++ {
		c, err := readRule(s, lookup, local, policy)
		if err != nil {
			return nil, err
		}
		r.AddChild(c)
	}
	if err := s.LeaveChunk(); err != nil { // RUL1
		return nil, err
	}
	return r, nil
}

func writeTileSet(s *stream.Stream, ts *brain.TileSet) error {
	s.PushChunk(stream.TagTSET, tsetVersion)
	s.WriteTaggedU32(stream.TagTCNT, uint32(len(ts.TileIDs)))
	for _, id := range ts.TileIDs {
		if err := s.WriteString(id); err != nil {
			return err
		}
	}
	return s.PopChunk()
}

// readTileSetInto decodes a TSET chunk's tile references into an already-
// constructed TileSet (owner already wired by NewRuleDef), resolving each
// reference against lookup and, on a miss, applying policy — inserting a
// Missing placeholder into local or aborting outright.
func readTileSetInto(s *stream.Stream, ts *brain.TileSet, lookup catalog.Lookup, local *catalog.Catalog, policy catalog.ResolvePolicy) error {
	ver, err := s.EnterChunk(stream.TagTSET)
	if err != nil {
		return err
	}
	if err := stream.CheckVersion(ver, tsetVersion); err != nil {
		return err
	}
	count, err := s.ReadTaggedU32(stream.TagTCNT)
	if err != nil {
		return err
	}
	ids := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		id, err := s.ReadString()
		if err != nil {
			return err
		}
		if !lookup.Has(id) {
			d, err := catalog.ResolveOrPlaceholder(id, tiles.KindMissing, id, policy)
			if err != nil {
				return err
			}
			local.AddIfAbsent(d)
		}
		ids = append(ids, id)
	}
	if err := ts.LoadAll(ids); err != nil {
		return err
	}
	return s.LeaveChunk()
}
