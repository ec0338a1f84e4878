package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"unicode"
)

// ElementKind tags the variant carried by an Element. It is chosen when the
// element is created and travels on the wire as "kind".
type ElementKind string

const (
	KindShape ElementKind = "shape"
	KindText  ElementKind = "text"
	KindImage ElementKind = "image"
)

// ShapeType is the geometry of a shape element
type ShapeType string

const (
	ShapeRectangle ShapeType = "rectangle"
	ShapeCircle    ShapeType = "circle"
	ShapeTriangle  ShapeType = "triangle"
)

// Point is a position in room-local canvas coordinates
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Shape holds the attributes of a shape element
type Shape struct {
	ShapeType   ShapeType `json:"shapeType"`
	Fill        string    `json:"fill,omitempty"`
	Stroke      string    `json:"stroke,omitempty"`
	StrokeWidth float64   `json:"strokeWidth,omitempty"`
	Rotation    float64   `json:"rotation,omitempty"`
}

// Text holds the attributes of a text element
type Text struct {
	Content    string  `json:"content"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
	Color      string  `json:"color,omitempty"`
}

// WithDefaults fills the presentation attributes a creator left out
func (t Text) WithDefaults() Text {
	if t.FontSize == 0 {
		t.FontSize = DefaultFontSize
	}
	if t.FontFamily == "" {
		t.FontFamily = DefaultFontFamily
	}
	if t.Color == "" {
		t.Color = DefaultTextColor
	}
	return t
}

// Image holds the attributes of an image element. Src is an opaque payload
// reference produced by whatever ingested the file (often a data URL).
type Image struct {
	Src string `json:"src"`
}

// Element is one visual object on the canvas. Exactly one of Shape, Text and
// Image is set, matching Kind. On the wire the variant attributes are
// flattened into the element object.
type Element struct {
	ID     string      `json:"id"`
	Kind   ElementKind `json:"kind"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Width  float64     `json:"width,omitempty"`
	Height float64     `json:"height,omitempty"`

	*Shape
	*Text
	*Image
}

// NewShape creates a shape element
func NewShape(id string, shapeType ShapeType, x, y, width, height float64, fill string) Element {
	return Element{
		ID: id, Kind: KindShape, X: x, Y: y, Width: width, Height: height,
		Shape: &Shape{ShapeType: shapeType, Fill: fill},
	}
}

// NewText creates a text element
func NewText(id string, x, y float64, content string) Element {
	return Element{ID: id, Kind: KindText, X: x, Y: y, Text: &Text{Content: content}}
}

// NewImage creates an image element
func NewImage(id string, x, y, width, height float64, src string) Element {
	return Element{
		ID: id, Kind: KindImage, X: x, Y: y, Width: width, Height: height,
		Image: &Image{Src: src},
	}
}

// MoveTo returns a copy of the element at a new position. Variant attributes
// are copied too, so the result shares no memory with e.
func (e Element) MoveTo(x, y float64) Element {
	c := e.Clone()
	c.X, c.Y = x, y
	return c
}

// Clone returns a deep copy of the element
func (e Element) Clone() Element {
	if e.Shape != nil {
		s := *e.Shape
		e.Shape = &s
	}
	if e.Text != nil {
		t := *e.Text
		e.Text = &t
	}
	if e.Image != nil {
		i := *e.Image
		e.Image = &i
	}
	return e
}

// UnmarshalJSON decodes the flat wire form, selecting the variant from "kind".
// The variant is never guessed from which fields happen to be present. An
// object without "kind" decodes every variant's attributes and stays
// kind-less until As picks the kind the element was created with.
func (e *Element) UnmarshalJSON(data []byte) error {
	var head struct {
		ID     string      `json:"id"`
		Kind   ElementKind `json:"kind"`
		X      float64     `json:"x"`
		Y      float64     `json:"y"`
		Width  float64     `json:"width"`
		Height float64     `json:"height"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	el := Element{ID: head.ID, Kind: head.Kind, X: head.X, Y: head.Y}
	switch head.Kind {
	case KindShape:
		var s Shape
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		el.Width, el.Height = head.Width, head.Height
		el.Shape = &s
	case KindText:
		var t Text
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		el.Text = &t
	case KindImage:
		var i Image
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		el.Width, el.Height = head.Width, head.Height
		el.Image = &i
	case "":
		var (
			s Shape
			t Text
			i Image
		)
		for _, v := range []any{&s, &t, &i} {
			if err := json.Unmarshal(data, v); err != nil {
				return err
			}
		}
		el.Width, el.Height = head.Width, head.Height
		el.Shape, el.Text, el.Image = &s, &t, &i
	default:
		return fmt.Errorf("%w: %q", ErrUnknownElementKind, head.Kind)
	}

	*e = el
	return nil
}

// As returns a copy of a kind-less element narrowed to the given kind. Only
// that variant's attributes survive; text elements carry no size.
func (e Element) As(kind ElementKind) Element {
	c := e.Clone()
	c.Kind = kind
	switch kind {
	case KindShape:
		c.Text, c.Image = nil, nil
		if c.Shape == nil {
			c.Shape = &Shape{}
		}
	case KindText:
		c.Shape, c.Image = nil, nil
		c.Width, c.Height = 0, 0
		if c.Text == nil {
			c.Text = &Text{}
		}
	case KindImage:
		c.Shape, c.Text = nil, nil
		if c.Image == nil {
			c.Image = &Image{}
		}
	}
	return c
}

// Validate checks the structural invariants of an element
func (e Element) Validate() error {
	if err := e.validateFrame(); err != nil {
		return err
	}

	switch e.Kind {
	case KindShape:
		if e.Shape == nil || e.Text != nil || e.Image != nil {
			return fmt.Errorf("%w: %s: shape attributes mismatch", ErrInvalidElement, e.ID)
		}
		switch e.ShapeType {
		case ShapeRectangle, ShapeCircle, ShapeTriangle:
		default:
			return fmt.Errorf("%w: %s: shape type %q", ErrInvalidElement, e.ID, e.ShapeType)
		}
		if !finite(e.StrokeWidth, e.Rotation) || e.StrokeWidth < 0 {
			return fmt.Errorf("%w: %s: bad stroke or rotation", ErrInvalidElement, e.ID)
		}
	case KindText:
		if e.Text == nil || e.Shape != nil || e.Image != nil {
			return fmt.Errorf("%w: %s: text attributes mismatch", ErrInvalidElement, e.ID)
		}
		if len(e.Content) > MaxTextLength {
			return fmt.Errorf("%w: %s: text too long", ErrInvalidElement, e.ID)
		}
		if !finite(e.FontSize) || e.FontSize < 0 {
			return fmt.Errorf("%w: %s: bad font size", ErrInvalidElement, e.ID)
		}
	case KindImage:
		if e.Image == nil || e.Shape != nil || e.Text != nil {
			return fmt.Errorf("%w: %s: image attributes mismatch", ErrInvalidElement, e.ID)
		}
		if e.Src == "" || len(e.Src) > MaxPayloadRefLength {
			return fmt.Errorf("%w: %s: bad image payload reference", ErrInvalidElement, e.ID)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownElementKind, e.Kind)
	}
	return nil
}

// validateFrame checks the attributes every kind shares
func (e Element) validateFrame() error {
	if err := ValidateElementID(e.ID); err != nil {
		return err
	}
	if !finite(e.X, e.Y, e.Width, e.Height) {
		return fmt.Errorf("%w: %s: non-finite geometry", ErrInvalidElement, e.ID)
	}
	if e.Width < 0 || e.Height < 0 {
		return fmt.Errorf("%w: %s: negative size", ErrInvalidElement, e.ID)
	}
	return nil
}

// ValidateElementID checks an element id taken from the wire
func ValidateElementID(id string) error {
	if id == "" || len(id) > MaxElementIDLength {
		return fmt.Errorf("%w: id length %d", ErrInvalidElement, len(id))
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character in id", ErrInvalidElement)
		}
	}
	return nil
}

// Viewport is the shared pan/zoom transform of a room. Advisory only.
type Viewport struct {
	Offset Point   `json:"offset"`
	Scale  float64 `json:"scale"`
}

// DefaultViewport is the viewport of a freshly created room
func DefaultViewport() Viewport {
	return Viewport{Scale: DefaultScale}
}

// Validate rejects viewports no transform can be built from. A positive
// scale outside the zoom bounds is valid here; Clamp brings it in range.
func (v Viewport) Validate() error {
	if !finite(v.Offset.X, v.Offset.Y, v.Scale) {
		return fmt.Errorf("%w: non-finite value", ErrInvalidViewport)
	}
	if v.Scale <= 0 {
		return fmt.Errorf("%w: scale %v is not positive", ErrInvalidViewport, v.Scale)
	}
	return nil
}

// Clamp returns the viewport with its scale limited to [MinScale, MaxScale]
func (v Viewport) Clamp() Viewport {
	v.Scale = min(max(v.Scale, MinScale), MaxScale)
	return v
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
