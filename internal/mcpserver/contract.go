package mcpserver

// TemplateFormatContract describes the template document JSON that LLM
// consumers should pass to render_template.
const TemplateFormatContract = `# Menuboard Template Document Format

A template document is a JSON object. Every field is optional; missing fields
take the defaults of the template family and language.

## Template ids

- ` + "`T1`" + ` list: a title and name/price rows.
- ` + "`T2`" + ` photo + list: up to 8 photo slots beside name/price rows.
- ` + "`T3`" + ` grid: name/price cells in 2 or 3 columns.

Append a variant letter ` + "`A`" + `, ` + "`B`" + ` or ` + "`C`" + ` (e.g. ` + "`T2B`" + `). ` + "`A`" + ` is the default.

## Common fields

` + "```" + `json
{
  "restaurantName": "Hansoban",
  "logoSrc": "data:image/png;base64,...",
  "title": "Today's Menu",
  "currency": "$",
  "style": {
    "fontFamily": "system-ui",
    "textColor": "#ffffff",
    "accentColor": "rgba(255,255,255,0.65)",
    "lineSpacing": 1.12,
    "rowGap": 14,
    "forceTwoDecimals": true
  }
}
` + "```" + `

## Family fields

- T1: ` + "`rows`" + `: array of ` + "`{\"name\": \"...\", \"price\": \"...\"}`" + `.
- T2: ` + "`rows`" + ` as above, ` + "`photos`" + `: array of up to 8 data URLs or null,
  ` + "`caption`" + `: text shown while no photo is set.
- T3: ` + "`cells`" + `: array of name/price objects, ` + "`columns`" + `: 2 or 3.

## Rules

1. **Prices are free text.** Numeric prices are prefixed with the currency and,
   with ` + "`forceTwoDecimals`" + `, fixed to two decimals (` + "`4.5`" + ` renders ` + "`$4.50`" + `).
   Anything else is shown as written.
2. **Numbers may be strings.** ` + "`\"rowGap\": \"20\"`" + ` is read as 20.
3. **Images are data URLs.** Remote URLs are not fetched at render time.
4. **Language** (` + "`lang`" + ` argument) only changes defaults: ` + "`ko`" + ` or ` + "`en`" + `.
`
