package analyzer

import (
	"net/url"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/raysh454/surfaudit/internal/utils"
)

func extractLinks(base *url.URL, doc string) (links []LinkElement, err error) {
	defer recovered("links", &err)

	root, err := htmlquery.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, err
	}
	anchors, err := htmlquery.QueryAll(root, "//a")
	if err != nil {
		return nil, err
	}

	for _, a := range anchors {
		attrs := anchorAttrs(a)

		href, ok := attrs["href"]
		if !ok {
			continue
		}
		abs, ok := utils.ToAbsolute(base, href)
		if !ok {
			continue
		}
		attrs["href"] = abs

		links = append(links, LinkElement{
			Href:  abs,
			Attrs: attrs,
			Vars:  utils.LinkVars(abs),
		})
	}
	return links, nil
}

// anchorAttrs collects the anchor's attributes plus those of its immediate
// element children (e.g. the <img> used as a label). The anchor's own
// attributes win on collision.
func anchorAttrs(n *html.Node) Attrs {
	attrs := Attrs{}
	for _, a := range n.Attr {
		attrs[strings.ToLower(a.Key)] = a.Val
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		for _, a := range c.Attr {
			key := strings.ToLower(a.Key)
			if _, own := attrs[key]; !own {
				attrs[key] = a.Val
			}
		}
	}
	return attrs
}
