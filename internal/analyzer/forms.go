package analyzer

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Forms are isolated with regular expressions rather than a DOM walk so that
// fields of unclosed or badly nested forms are still attributed to the block
// that textually contains them.
var (
	formBlockRe   = regexp.MustCompile(`(?is)<form(.*?)</form>`)
	formHeadRe    = regexp.MustCompile(`(?s)^(.*?)>`)
	inputTagRe    = regexp.MustCompile(`(?is)<input(.*?)>`)
	textareaTagRe = regexp.MustCompile(`(?is)<textarea(.*?)>`)
	selectTagRe   = regexp.MustCompile(`(?is)<select(.*?)>`)
	selectCloseRe = regexp.MustCompile(`(?i)</select`)
	optionTagRe   = regexp.MustCompile(`(?is)<option(.*?)>`)
)

func extractForms(html string) (forms []FormElement, err error) {
	defer recovered("forms", &err)

	for _, m := range formBlockRe.FindAllStringSubmatch(html, -1) {
		forms = append(forms, parseForm(m[1]))
	}
	return forms, nil
}

// parseForm builds a FormElement from the text between "<form" and "</form>".
func parseForm(block string) FormElement {
	form := FormElement{
		Attrs:     formAttrs(block),
		Inputs:    tagAttrsAll("input", inputTagRe, block),
		Textareas: tagAttrsAll("textarea", textareaTagRe, block),
		Selects:   formSelects(block),
	}

	auditable := make([]AuditableElement, 0, len(form.Inputs)+len(form.Textareas)+len(form.Selects))
	for _, in := range form.Inputs {
		auditable = append(auditable, AuditableElement{Kind: KindInput, Attrs: in})
	}
	for _, ta := range form.Textareas {
		auditable = append(auditable, AuditableElement{Kind: KindTextarea, Attrs: ta})
	}
	for _, sel := range form.Selects {
		auditable = append(auditable, AuditableElement{Kind: KindSelect, Attrs: sel.Attrs})
	}
	form.Auditable = auditable

	return form
}

// formAttrs parses the attributes of the <form ...> opening tag only.
func formAttrs(block string) Attrs {
	head := block
	if m := formHeadRe.FindStringSubmatch(block); m != nil {
		head = m[1]
	}
	return tagAttrs("form", "<form "+head+">")
}

func formSelects(block string) []SelectElement {
	var selects []SelectElement
	for _, idx := range selectTagRe.FindAllStringSubmatchIndex(block, -1) {
		inner := block[idx[2]:idx[3]]

		// options run from the end of the opening tag to </select>, or to the
		// end of the form when the select is never closed
		body := block[idx[1]:]
		if c := selectCloseRe.FindStringIndex(body); c != nil {
			body = body[:c[0]]
		}

		selects = append(selects, SelectElement{
			Attrs:   tagAttrs("select", "<select "+inner+"/>"),
			Options: tagAttrsAll("option", optionTagRe, body),
		})
	}
	return selects
}

// tagAttrsAll finds every opening tag matched by re in html and parses its
// attributes.
func tagAttrsAll(tag string, re *regexp.Regexp, html string) []Attrs {
	matches := re.FindAllStringSubmatch(html, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Attrs, 0, len(matches))
	for _, m := range matches {
		out = append(out, tagAttrs(tag, "<"+tag+" "+m[1]+"/>"))
	}
	return out
}

// tagAttrs parses a single re-wrapped tag and returns the attributes of the
// first element named tag, with lower-cased names. Unparsable markup yields
// an empty, non-nil map.
func tagAttrs(tag, html string) Attrs {
	attrs := Attrs{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return attrs
	}
	sel := doc.Find(tag).First()
	if sel.Length() == 0 {
		return attrs
	}
	for _, a := range sel.Nodes[0].Attr {
		attrs[strings.ToLower(a.Key)] = a.Val
	}
	return attrs
}
