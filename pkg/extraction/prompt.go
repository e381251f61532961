package extraction

import (
	"fmt"
	"strings"
)

// BlockDelimiter separates requirement blocks in the model's response.
const BlockDelimiter = "===REQUIREMENT==="

// PromptBuilder produces the queries sent against an indexed workspace.
type PromptBuilder struct {
	attachment *Attachment
}

func NewPromptBuilder(att *Attachment) *PromptBuilder {
	return &PromptBuilder{attachment: att}
}

// BuildExtraction creates the single combined accessibility-probe +
// extraction query. Probe and extraction used to be separate round trips;
// each round trip against this backend can take minutes, so they are
// collapsed into one call.
func (b *PromptBuilder) BuildExtraction() string {
	var p strings.Builder

	p.WriteString("<task>\n")
	p.WriteString("You are a requirements engineer extracting requirement statements from the uploaded document ")
	p.WriteString(fmt.Sprintf("%q.\n", b.attachment.FileName))
	p.WriteString("</task>\n\n")

	p.WriteString("<accessibility_check>\n")
	p.WriteString("First, state in one sentence whether you can actually read the content of this document.\n")
	p.WriteString("If you cannot see the document content, say exactly: CANNOT ACCESS DOCUMENT, and stop. ")
	p.WriteString("Never invent or assume hypothetical content.\n")
	p.WriteString("</accessibility_check>\n\n")

	p.WriteString("<instructions>\n")
	p.WriteString("Extract EVERY requirement-like statement from the document:\n")
	p.WriteString("- sentences containing shall, must, will, or should\n")
	p.WriteString("- constraints, interface specifications, environmental and performance specs\n")
	p.WriteString("- acceptance criteria, numbered requirement clauses, tabulated requirements\n")
	p.WriteString("\n")
	p.WriteString(fmt.Sprintf("Output each requirement as a block preceded by the line %s with colon-separated fields:\n", BlockDelimiter))
	p.WriteString(BlockDelimiter + "\n")
	p.WriteString("ID: <requirement identifier from the document, or a sequential number>\n")
	p.WriteString("Requirement: <the full requirement text>\n")
	p.WriteString("Category: <functional | performance | interface | environmental | safety | other>\n")
	p.WriteString("Priority: <high | medium | low>\n")
	p.WriteString("Verification: <test | analysis | inspection | demonstration>\n")
	p.WriteString("Source: <section, page or table where found>\n")
	p.WriteString("\n")
	p.WriteString("Be exhaustive. Do not summarize or merge requirements. Do not add commentary between blocks.\n")
	p.WriteString("</instructions>\n")

	return p.String()
}

// BuildValidation asks the model to confirm each candidate against the
// retrieved document content.
func (b *PromptBuilder) BuildValidation(candidates []Candidate) string {
	var p strings.Builder

	p.WriteString("<task>\n")
	p.WriteString("Cross-check each candidate requirement below against the content of the uploaded document ")
	p.WriteString(fmt.Sprintf("%q.\n", b.attachment.FileName))
	p.WriteString("</task>\n\n")

	p.WriteString("<candidates>\n")
	for _, c := range candidates {
		p.WriteString(fmt.Sprintf("%s: %s\n", c.ID, compact(c.Text, 200)))
	}
	p.WriteString("</candidates>\n\n")

	p.WriteString("<instructions>\n")
	p.WriteString("For each candidate output exactly one line:\n")
	p.WriteString("Confirmed: <id> - <one-line justification quoting or citing the document>\n")
	p.WriteString("or\n")
	p.WriteString("Rejected: <id> - <why the document does not support it>\n")
	p.WriteString("Base every verdict on retrieved document content only.\n")
	p.WriteString("</instructions>\n")

	return p.String()
}

// BuildRecovery creates the bounded re-query issued when the yield looks
// suspiciously low for the document's size.
func (b *PromptBuilder) BuildRecovery(existingCount int) string {
	var p strings.Builder

	p.WriteString("<task>\n")
	p.WriteString(fmt.Sprintf("A first pass over %q extracted %d requirement(s), which looks incomplete for a document of this size.\n",
		b.attachment.FileName, existingCount))
	p.WriteString("</task>\n\n")

	p.WriteString("<instructions>\n")
	p.WriteString("Search the regions a first pass commonly misses:\n")
	p.WriteString("- tables and their cells\n")
	p.WriteString("- appendices and annexes\n")
	p.WriteString("- figure and table captions\n")
	p.WriteString("- bulleted acceptance criteria lists\n")
	p.WriteString("\n")
	p.WriteString(fmt.Sprintf("Output ONLY requirements not already reported, using the same %s block format as before. ", BlockDelimiter))
	p.WriteString(fmt.Sprintf("Continue identifier numbering past %d.\n", existingCount))
	p.WriteString("</instructions>\n")

	return p.String()
}

func compact(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
