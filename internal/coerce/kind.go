package coerce

// Kind is a declared wire type tag. The set is closed: every command schema
// must reference one of the tags below, and Decode/Encode switch over them
// exhaustively.
type Kind string

const (
	KindText    Kind = "text"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindImage   Kind = "image"
	KindVector  Kind = "vector"
)

// Valid reports whether k is a member of the closed kind set.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindNumber, KindBoolean, KindImage, KindVector:
		return true
	}
	return false
}

// Field declares the coercion for one named input or output value.
// Width/Height constrain image fields (0 = unconstrained); Length constrains
// vector fields the same way.
type Field struct {
	Kind   Kind
	Width  int
	Height int
	Length int
}

// Text, Number, Boolean, Vector are shorthand Field constructors for the
// common unconstrained cases.
func Text() Field    { return Field{Kind: KindText} }
func Number() Field  { return Field{Kind: KindNumber} }
func Boolean() Field { return Field{Kind: KindBoolean} }
func Vector() Field  { return Field{Kind: KindVector} }

// Image declares an image field fitted to w x h on decode. Pass zeros to keep
// the original dimensions.
func Image(w, h int) Field { return Field{Kind: KindImage, Width: w, Height: h} }
