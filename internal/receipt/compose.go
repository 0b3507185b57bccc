package receipt

import (
	"fmt"
	"strings"

	"github.com/scontreeno/scontreeno/internal/analysis"
)

// FallbackReply is sent whenever a receipt could not be analyzed, whether the
// analysis call failed or the result carried nothing usable.
const FallbackReply = "I'm sorry. I couldn't analyze this receipt. Try with a different one. Thanks!"

const (
	replyHeader  = "It seems that you purchased:\n"
	replyClosing = "\n\nI'll add this receipt to your records. Thank you! \U0001F525\U0001F525\U0001F525"

	maxListedItems = 5
)

// ComposeReply renders the structured analysis of one receipt document into
// the outbound message text. Field order is fixed: merchant, date, items,
// total. A field that is absent or carries an unexpected type is skipped
// without affecting the others. If no field renders at all, the whole reply
// collapses to FallbackReply.
func ComposeReply(doc analysis.Document) string {
	var bld strings.Builder
	bld.WriteString(replyHeader)
	rendered := false

	if name, ok := doc.Fields["MerchantName"].StringValue(); ok {
		fmt.Fprintf(&bld, "-\U0001F3EA at *%s*\n", name)
		rendered = true
	}

	// The date stays in the service's own representation; no reformatting.
	if date, ok := doc.Fields["TransactionDate"].DateValue(); ok {
		fmt.Fprintf(&bld, "-\U0001F5D3 on the *%s*\n", date)
		rendered = true
	}

	if entries, ok := doc.Fields["Items"].ListValue(); ok {
		names := make([]string, 0, maxListedItems)
		for _, entry := range entries {
			if len(names) == maxListedItems {
				break
			}
			record, ok := entry.ObjectValue()
			if !ok {
				continue
			}
			desc, ok := record["Description"].StringValue()
			if !ok {
				continue
			}
			// Strip literal emphasis markers so sender-controlled text cannot
			// corrupt the message's own markup.
			names = append(names, "*"+strings.ReplaceAll(desc, "*", "")+"*")
		}
		if len(names) > 0 {
			fmt.Fprintf(&bld, "-\U0001F6D2 top 5 items: %s", strings.Join(names, ", "))
			rendered = true
		}
	}

	if total, ok := doc.Fields["Total"].NumberValue(); ok {
		fmt.Fprintf(&bld, "-\U0001FA99 with a total of: *%v*", total)
		rendered = true
	}

	if !rendered {
		return FallbackReply
	}

	bld.WriteString(replyClosing)
	return bld.String()
}
