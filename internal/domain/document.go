package domain

import "fmt"

// Document is the mutable element sequence and viewport of one room. The
// server room and the client store both apply events through it, so the two
// sides converge whenever they see the same event sequence.
//
// A Document is not safe for concurrent use.
type Document struct {
	elements []Element
	index    map[string]int      // element id -> position in elements
	retired  map[string]struct{} // deleted ids; never reused within the document's lifetime
	viewport Viewport
}

// NewDocument creates an empty document with the default viewport
func NewDocument() *Document {
	return &Document{
		index:    make(map[string]int),
		retired:  make(map[string]struct{}),
		viewport: DefaultViewport(),
	}
}

// Apply merges one event into the document and reports whether it changed
// anything. Updates and deletes of unknown ids are no-ops. Adding an id that
// is present or was deleted earlier returns ErrDuplicateElement and leaves the
// document untouched. Updates are resolved first (see Resolve). Presence
// events are ignored.
func (d *Document) Apply(ev Event) (bool, error) {
	switch e := ev.(type) {
	case ElementAdded:
		return d.add(e.Element)
	case ElementUpdated:
		i, ok := d.index[e.Element.ID]
		if !ok {
			return false, nil
		}
		el, err := resolveUpdate(d.elements[i], e.Element)
		if err != nil {
			return false, err
		}
		d.elements[i] = el
		return true, nil
	case ElementDeleted:
		return d.remove(e.ID), nil
	case ViewportChanged:
		d.viewport = e.Viewport
		return true, nil
	}
	return false, nil
}

// Resolve returns ev in the form Apply would store it. An update that left
// out its kind takes the kind the element was created with; an update that
// names a different kind fails with ErrInvalidElement. Other events, and
// updates of unknown ids, come back unchanged.
func (d *Document) Resolve(ev Event) (Event, error) {
	e, ok := ev.(ElementUpdated)
	if !ok {
		return ev, nil
	}
	i, ok := d.index[e.Element.ID]
	if !ok {
		return ev, nil
	}
	el, err := resolveUpdate(d.elements[i], e.Element)
	if err != nil {
		return nil, err
	}
	return ElementUpdated{Element: el}, nil
}

func resolveUpdate(stored, upd Element) (Element, error) {
	switch upd.Kind {
	case stored.Kind:
		return upd.Clone(), nil
	case "":
		el := upd.As(stored.Kind)
		if err := el.Validate(); err != nil {
			return Element{}, err
		}
		return el, nil
	}
	return Element{}, fmt.Errorf("%w: %s was created as %s, update says %s",
		ErrInvalidElement, upd.ID, stored.Kind, upd.Kind)
}

func (d *Document) add(el Element) (bool, error) {
	if _, ok := d.index[el.ID]; ok {
		return false, fmt.Errorf("%w: %s", ErrDuplicateElement, el.ID)
	}
	if _, ok := d.retired[el.ID]; ok {
		return false, fmt.Errorf("%w: %s was deleted", ErrDuplicateElement, el.ID)
	}
	d.index[el.ID] = len(d.elements)
	d.elements = append(d.elements, el.Clone())
	return true, nil
}

func (d *Document) remove(id string) bool {
	i, ok := d.index[id]
	if !ok {
		return false
	}
	copy(d.elements[i:], d.elements[i+1:])
	d.elements[len(d.elements)-1] = Element{}
	d.elements = d.elements[:len(d.elements)-1]
	delete(d.index, id)
	for j := i; j < len(d.elements); j++ {
		d.index[d.elements[j].ID] = j
	}
	d.retired[id] = struct{}{}
	return true
}

// Get returns a copy of the element with the given id
func (d *Document) Get(id string) (Element, bool) {
	i, ok := d.index[id]
	if !ok {
		return Element{}, false
	}
	return d.elements[i].Clone(), true
}

// Elements returns a copy of the element sequence in paint order
func (d *Document) Elements() []Element {
	out := make([]Element, len(d.elements))
	for i, el := range d.elements {
		out[i] = el.Clone()
	}
	return out
}

// Len returns the number of live elements
func (d *Document) Len() int {
	return len(d.elements)
}

// Viewport returns the current viewport
func (d *Document) Viewport() Viewport {
	return d.viewport
}

// Reset replaces the whole document with a snapshot's contents. Ids deleted
// before the snapshot are forgotten; the server is the authority from here on.
func (d *Document) Reset(elements []Element, viewport Viewport) {
	d.elements = make([]Element, 0, len(elements))
	d.index = make(map[string]int, len(elements))
	d.retired = make(map[string]struct{})
	for _, el := range elements {
		if _, dup := d.index[el.ID]; dup {
			continue
		}
		d.index[el.ID] = len(d.elements)
		d.elements = append(d.elements, el.Clone())
	}
	d.viewport = viewport
}
