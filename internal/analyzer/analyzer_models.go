package analyzer

import "github.com/raysh454/surfaudit/internal/utils"

// PageStructure is the auditable surface of one page. Any of the three slices
// may be nil when the category was disabled or nothing was found. It is not
// modified after Extract returns.
type PageStructure struct {
	URL     string          `json:"url"`
	Forms   []FormElement   `json:"forms,omitempty"`
	Links   []LinkElement   `json:"links,omitempty"`
	Cookies []CookieElement `json:"cookies,omitempty"`
}

// Attrs maps lower-cased attribute names to their values.
type Attrs map[string]string

// Clone returns a shallow copy of a.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// FormElement represents one <form> block.
type FormElement struct {
	// Attrs holds the attributes of the <form> tag itself.
	Attrs     Attrs           `json:"attrs"`
	Inputs    []Attrs         `json:"inputs,omitempty"`
	Textareas []Attrs         `json:"textareas,omitempty"`
	Selects   []SelectElement `json:"selects,omitempty"`

	// Auditable is inputs, then textareas, then one entry per select.
	Auditable []AuditableElement `json:"auditable,omitempty"`
}

// Action returns the form's action attribute, or pageURL when it has none.
func (f FormElement) Action(pageURL string) string {
	if action, ok := f.Attrs["action"]; ok && action != "" {
		return action
	}
	return pageURL
}

// SelectElement is a <select> tag with its <option> tags.
type SelectElement struct {
	Attrs   Attrs   `json:"attrs"`
	Options []Attrs `json:"options,omitempty"`
}

// ElementKind tags the origin of an AuditableElement.
type ElementKind string

const (
	KindInput    ElementKind = "input"
	KindTextarea ElementKind = "textarea"
	KindSelect   ElementKind = "select"
)

// AuditableElement is a form field whose value can be attacker-controlled.
// Selects contribute their own attributes, never their options.
type AuditableElement struct {
	Kind  ElementKind `json:"kind"`
	Attrs Attrs       `json:"attrs"`
}

// Name returns the element's name attribute ("" when absent).
func (e AuditableElement) Name() string { return e.Attrs["name"] }

// Value returns the element's value attribute ("" when absent).
func (e AuditableElement) Value() string { return e.Attrs["value"] }

// WithValue returns a copy of e with its value replaced; e is left untouched.
func (e AuditableElement) WithValue(v string) AuditableElement {
	attrs := e.Attrs.Clone()
	if attrs == nil {
		attrs = Attrs{}
	}
	attrs["value"] = v
	return AuditableElement{Kind: e.Kind, Attrs: attrs}
}

// QueryVar is a query-string variable of a link.
type QueryVar = utils.QueryVar

// LinkElement is an anchor whose href resolved to an absolute URL.
type LinkElement struct {
	Href  string     `json:"href"`
	Attrs Attrs      `json:"attrs,omitempty"`
	Vars  []QueryVar `json:"vars,omitempty"`
}

// VarMap returns the link's variables as a name → value map.
func (l LinkElement) VarMap() map[string]string {
	out := make(map[string]string, len(l.Vars))
	for _, v := range l.Vars {
		out[v.Name] = v.Value
	}
	return out
}

// CookieElement is one Set-Cookie record flattened to strings. Flag
// attributes (Secure, HttpOnly) are "true" when set and empty otherwise.
type CookieElement struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain,omitempty"`
	Path     string `json:"path,omitempty"`
	Expires  string `json:"expires,omitempty"`
	MaxAge   string `json:"max_age,omitempty"`
	Secure   string `json:"secure,omitempty"`
	HTTPOnly string `json:"http_only,omitempty"`
	SameSite string `json:"same_site,omitempty"`
}

// WithValue returns a copy of c carrying value v.
func (c CookieElement) WithValue(v string) CookieElement {
	c.Value = v
	return c
}
