package brain

import (
	"fmt"

	"github.com/google/uuid"
)

// MaxNameLength is the forever-lower-bound cap on brain and page display
// names.
const MaxNameLength = 100

// NameTooLongError is returned when a brain or page name exceeds
// MaxNameLength.
type NameTooLongError struct {
	Name string
}

func (e *NameTooLongError) Error() string {
	return fmt.Sprintf("brain: name %q exceeds %d characters", e.Name, MaxNameLength)
}

// NameChange is the payload of a NameChanged event.
type NameChange struct{ Old, New string }

// PageChange is the payload of a PageDef Changed event.
type PageChange struct{ What string }

// PageDef is a named collection of root-level rules. Its
// PageID is a stable identifier minted once at creation (or on load, for a
// v1-format page that predates PGID) and never reused.
type PageDef struct {
	PageID string
	Rules  []*RuleDef

	name  string
	brain *BrainDef // weak back-reference; set by BrainDef.AddPage

	NameChanged *Emitter[NameChange]
	Changed     *Emitter[PageChange]
}

// NewPageDef returns a page with a freshly minted pageId.
func NewPageDef(name string) (*PageDef, error) {
	if len(name) > MaxNameLength {
		return nil, &NameTooLongError{Name: name}
	}
	return &PageDef{
		PageID:      uuid.NewString(),
		name:        name,
		NameChanged: NewEmitter[NameChange](),
		Changed:     NewEmitter[PageChange](),
	}, nil
}

// Name returns the page's current display name.
func (p *PageDef) Name() string { return p.name }

// SetName renames the page and emits NameChanged; the brain's tile catalog
// is not touched here — BrainDef.SyncPageTiles reconciles the page tile's
// Label on demand.
func (p *PageDef) SetName(name string) error {
	if len(name) > MaxNameLength {
		return &NameTooLongError{Name: name}
	}
	old := p.name
	p.name = name
	p.NameChanged.Emit(NameChange{Old: old, New: name})
	return nil
}

// Brain returns the page's owning brain.
func (p *PageDef) Brain() *BrainDef { return p.brain }

// AddRootRule appends r as a new root-level rule of this page.
func (p *PageDef) AddRootRule(r *RuleDef) {
	r.parent = nil
	r.page = p
	p.Rules = append(p.Rules, r)
}
