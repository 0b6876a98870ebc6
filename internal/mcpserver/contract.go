package mcpserver

// DraftFormatContract describes the YAML draft format accepted by the
// compute_totals and render_document tools.
const DraftFormatContract = `# Folio Draft Format Contract

A draft describes one Invoice or Quotation before it is rendered.

## Structure

` + "```" + `yaml
kind: Quotation          # OPTIONAL – Invoice (default) or Quotation
bill_to:                 # OPTIONAL – every field may be omitted
  name: Acme Co
  phone: "+1 555 0100"
  email: billing@acme.test
  address: 1 Main St, Springfield
items:                   # OPTIONAL – defaults to one blank row
  - description: Website redesign
    quantity: 2
    unit_price: 150
` + "```" + `

## Rules

1. **Unknown keys are rejected.** Only the keys shown above are accepted.
2. **kind** is case-sensitive: ` + "`" + `Invoice` + "`" + ` or ` + "`" + `Quotation` + "`" + `.
3. **quantity** and **unit_price** are plain decimal numbers without currency
   symbols or thousands separators. A missing quantity means 1, a missing
   unit price means 0. Values that are not numbers, or are negative, count as 0
   unless the server runs with strict numbers, in which case the draft is rejected.
4. **Amounts and totals are never supplied.** Each amount is quantity × unit
   price; subtotal is their sum; tax is subtotal × the configured rate rounded
   to a whole unit; total is subtotal + tax.
5. A blank description is printed as "Item N".
6. Rendered files are named ` + "`" + `<Kind>_<unix-milliseconds>.pdf` + "`" + `.
`
