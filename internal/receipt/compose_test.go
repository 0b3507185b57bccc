package receipt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scontreeno/scontreeno/internal/analysis"
)

func numberField(v float64) analysis.Field {
	return analysis.Field{Type: analysis.FieldTypeNumber, ValueNumber: &v}
}

func stringField(v string) analysis.Field {
	return analysis.Field{Type: analysis.FieldTypeString, ValueString: v}
}

func itemField(desc string) analysis.Field {
	return analysis.Field{Type: analysis.FieldTypeObject, ValueObject: map[string]analysis.Field{
		"Description": stringField(desc),
	}}
}

func fullDocument() analysis.Document {
	return analysis.Document{
		DocType: "receipt.retailMeal",
		Fields: map[string]analysis.Field{
			"MerchantName":    stringField("Cafe Roma"),
			"TransactionDate": {Type: analysis.FieldTypeDate, ValueDate: "2024-03-14"},
			"Items": {Type: analysis.FieldTypeArray, ValueArray: []analysis.Field{
				itemField("Espresso"),
				itemField("Cornetto"),
			}},
			"Total": numberField(12.5),
		},
	}
}

func TestComposeReplyAllFields(t *testing.T) {
	reply := ComposeReply(fullDocument())

	require.True(t, strings.HasPrefix(reply, "It seems that you purchased:\n"))
	assert.Contains(t, reply, "at *Cafe Roma*")
	assert.Contains(t, reply, "on the *2024-03-14*")
	assert.Contains(t, reply, "top 5 items: *Espresso*, *Cornetto*")
	assert.Contains(t, reply, "with a total of: *12.5*")
	assert.True(t, strings.HasSuffix(reply, "I'll add this receipt to your records. Thank you! \U0001F525\U0001F525\U0001F525"))

	// Field order is fixed: merchant, date, items, total.
	merchantIdx := strings.Index(reply, "Cafe Roma")
	dateIdx := strings.Index(reply, "2024-03-14")
	itemsIdx := strings.Index(reply, "top 5 items")
	totalIdx := strings.Index(reply, "with a total")
	assert.Less(t, merchantIdx, dateIdx)
	assert.Less(t, dateIdx, itemsIdx)
	assert.Less(t, itemsIdx, totalIdx)
}

func TestComposeReplyIdempotent(t *testing.T) {
	doc := fullDocument()
	assert.Equal(t, ComposeReply(doc), ComposeReply(doc))
}

func TestComposeReplyPartialFields(t *testing.T) {
	// Merchant and total only; date and items lines must be omitted while the
	// closing line still terminates the reply.
	doc := analysis.Document{Fields: map[string]analysis.Field{
		"MerchantName": stringField("Cafe Roma"),
		"Total":        numberField(12.5),
	}}

	reply := ComposeReply(doc)
	assert.Contains(t, reply, "at *Cafe Roma*")
	assert.Contains(t, reply, "with a total of: *12.5*")
	assert.NotContains(t, reply, "on the")
	assert.NotContains(t, reply, "top 5 items")
	assert.True(t, strings.HasSuffix(reply, "Thank you! \U0001F525\U0001F525\U0001F525"))
}

func TestComposeReplyMistypedFieldsSkipped(t *testing.T) {
	doc := analysis.Document{Fields: map[string]analysis.Field{
		"MerchantName":    numberField(3),
		"TransactionDate": stringField("yesterday"),
		"Items":           stringField("not a list"),
		"Total":           numberField(9.99),
	}}

	reply := ComposeReply(doc)
	assert.NotContains(t, reply, "at *")
	assert.NotContains(t, reply, "on the")
	assert.NotContains(t, reply, "top 5 items")
	assert.Contains(t, reply, "with a total of: *9.99*")
}

func TestComposeReplyNoFieldsFallsBack(t *testing.T) {
	assert.Equal(t, FallbackReply, ComposeReply(analysis.Document{}))
	assert.Equal(t, FallbackReply, ComposeReply(analysis.Document{Fields: map[string]analysis.Field{}}))

	// Present but all mistyped counts as zero analyzable fields.
	doc := analysis.Document{Fields: map[string]analysis.Field{
		"MerchantName": numberField(1),
		"Total":        stringField("12.5"),
	}}
	assert.Equal(t, FallbackReply, ComposeReply(doc))
}

func TestComposeReplyItemCap(t *testing.T) {
	items := make([]analysis.Field, 0, 7)
	for i := 1; i <= 7; i++ {
		items = append(items, itemField(fmt.Sprintf("Item %d", i)))
	}
	doc := analysis.Document{Fields: map[string]analysis.Field{
		"Items": {Type: analysis.FieldTypeArray, ValueArray: items},
	}}

	reply := ComposeReply(doc)
	for i := 1; i <= 5; i++ {
		assert.Contains(t, reply, fmt.Sprintf("*Item %d*", i))
	}
	assert.NotContains(t, reply, "Item 6")
	assert.NotContains(t, reply, "Item 7")
}

func TestComposeReplyStripsEmphasisMarkers(t *testing.T) {
	doc := analysis.Document{Fields: map[string]analysis.Field{
		"Items": {Type: analysis.FieldTypeArray, ValueArray: []analysis.Field{
			itemField("Caffe *speciale*"),
		}},
	}}

	reply := ComposeReply(doc)
	assert.Contains(t, reply, "*Caffe speciale*")
}

func TestComposeReplyItemsSourceOrderNoDedup(t *testing.T) {
	doc := analysis.Document{Fields: map[string]analysis.Field{
		"Items": {Type: analysis.FieldTypeArray, ValueArray: []analysis.Field{
			itemField("Espresso"),
			itemField("Espresso"),
			itemField("Acqua"),
		}},
	}}

	reply := ComposeReply(doc)
	assert.Contains(t, reply, "top 5 items: *Espresso*, *Espresso*, *Acqua*")
}

func TestComposeReplySkipsEntriesWithoutDescription(t *testing.T) {
	doc := analysis.Document{Fields: map[string]analysis.Field{
		"Items": {Type: analysis.FieldTypeArray, ValueArray: []analysis.Field{
			stringField("bare string entry"),
			{Type: analysis.FieldTypeObject, ValueObject: map[string]analysis.Field{
				"TotalPrice": numberField(2),
			}},
			itemField("Espresso"),
		}},
	}}

	reply := ComposeReply(doc)
	assert.Contains(t, reply, "top 5 items: *Espresso*")
}

func TestComposeReplyItemsEmptyListOmitted(t *testing.T) {
	doc := analysis.Document{Fields: map[string]analysis.Field{
		"MerchantName": stringField("Cafe Roma"),
		"Items":        {Type: analysis.FieldTypeArray, ValueArray: nil},
	}}

	reply := ComposeReply(doc)
	assert.NotContains(t, reply, "top 5 items")
	assert.Contains(t, reply, "at *Cafe Roma*")
}

func TestComposeReplyTotalDefaultFormatting(t *testing.T) {
	tests := []struct {
		total float64
		want  string
	}{
		{12.5, "*12.5*"},
		{10, "*10*"},
		{9.99, "*9.99*"},
	}
	for _, tc := range tests {
		doc := analysis.Document{Fields: map[string]analysis.Field{
			"Total": numberField(tc.total),
		}}
		assert.Contains(t, ComposeReply(doc), tc.want)
	}
}
