package analysis

// The document service returns every extracted field as a typed variant. A
// field can be absent, or present with a type other than the one a caller
// expects; the accessors below report ok=false in both cases so callers can
// skip the field instead of failing the whole document.

// FieldType tags the variant carried by a Field.
type FieldType string

const (
	FieldTypeString FieldType = "string"
	FieldTypeDate   FieldType = "date"
	FieldTypeNumber FieldType = "number"
	FieldTypeArray  FieldType = "array"
	FieldTypeObject FieldType = "object"
)

// Field is one extracted value, tagged by type.
type Field struct {
	Type        FieldType        `json:"type"`
	ValueString string           `json:"valueString,omitempty"`
	ValueDate   string           `json:"valueDate,omitempty"`
	ValueNumber *float64         `json:"valueNumber,omitempty"`
	ValueArray  []Field          `json:"valueArray,omitempty"`
	ValueObject map[string]Field `json:"valueObject,omitempty"`
	Content     string           `json:"content,omitempty"`
}

// StringValue returns the string variant.
func (f Field) StringValue() (string, bool) {
	if f.Type != FieldTypeString {
		return "", false
	}
	return f.ValueString, true
}

// DateValue returns the date variant in the service's native representation.
func (f Field) DateValue() (string, bool) {
	if f.Type != FieldTypeDate || f.ValueDate == "" {
		return "", false
	}
	return f.ValueDate, true
}

// NumberValue returns the numeric variant.
func (f Field) NumberValue() (float64, bool) {
	if f.Type != FieldTypeNumber || f.ValueNumber == nil {
		return 0, false
	}
	return *f.ValueNumber, true
}

// ListValue returns the array variant.
func (f Field) ListValue() ([]Field, bool) {
	if f.Type != FieldTypeArray {
		return nil, false
	}
	return f.ValueArray, true
}

// ObjectValue returns the nested-record variant.
func (f Field) ObjectValue() (map[string]Field, bool) {
	if f.Type != FieldTypeObject {
		return nil, false
	}
	return f.ValueObject, true
}

// Document is one analyzed document: a mapping from field name to typed value.
type Document struct {
	DocType string           `json:"docType"`
	Fields  map[string]Field `json:"fields"`
}

// AnalyzeResult is the completed output of one analysis operation.
type AnalyzeResult struct {
	ModelID   string     `json:"modelId"`
	Documents []Document `json:"documents"`
}
