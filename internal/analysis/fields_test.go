package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessorsRejectMismatchedTypes(t *testing.T) {
	str := Field{Type: FieldTypeString, ValueString: "Cafe Roma"}
	num := 12.5
	total := Field{Type: FieldTypeNumber, ValueNumber: &num}

	if _, ok := str.NumberValue(); ok {
		t.Error("string field must not read as number")
	}
	if _, ok := total.StringValue(); ok {
		t.Error("number field must not read as string")
	}
	if _, ok := str.ListValue(); ok {
		t.Error("string field must not read as list")
	}
	if _, ok := str.DateValue(); ok {
		t.Error("string field must not read as date")
	}

	v, ok := total.NumberValue()
	require.True(t, ok)
	assert.Equal(t, 12.5, v)
}

func TestNumberValueNilPointer(t *testing.T) {
	f := Field{Type: FieldTypeNumber}
	if _, ok := f.NumberValue(); ok {
		t.Error("number field without a value must report absent")
	}
}

func TestDecodeServicePayload(t *testing.T) {
	raw := `{
		"modelId": "prebuilt-receipt",
		"documents": [{
			"docType": "receipt.retailMeal",
			"fields": {
				"MerchantName": {"type": "string", "valueString": "Cafe Roma", "content": "Cafe Roma"},
				"TransactionDate": {"type": "date", "valueDate": "2024-03-14"},
				"Items": {"type": "array", "valueArray": [
					{"type": "object", "valueObject": {
						"Description": {"type": "string", "valueString": "Espresso"},
						"TotalPrice": {"type": "number", "valueNumber": 1.2}
					}}
				]},
				"Total": {"type": "number", "valueNumber": 12.5}
			}
		}]
	}`

	var result AnalyzeResult
	require.NoError(t, json.Unmarshal([]byte(raw), &result))
	require.Len(t, result.Documents, 1)

	doc := result.Documents[0]
	name, ok := doc.Fields["MerchantName"].StringValue()
	require.True(t, ok)
	assert.Equal(t, "Cafe Roma", name)

	date, ok := doc.Fields["TransactionDate"].DateValue()
	require.True(t, ok)
	assert.Equal(t, "2024-03-14", date)

	items, ok := doc.Fields["Items"].ListValue()
	require.True(t, ok)
	require.Len(t, items, 1)

	record, ok := items[0].ObjectValue()
	require.True(t, ok)
	desc, ok := record["Description"].StringValue()
	require.True(t, ok)
	assert.Equal(t, "Espresso", desc)

	total, ok := doc.Fields["Total"].NumberValue()
	require.True(t, ok)
	assert.Equal(t, 12.5, total)
}
