package guard

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ParseForms collects every <form> in an HTML document.
//
// Actions are resolved against pageURL (an empty action posts back to the page).
// Values follow browser submission rules closely enough for server-rendered pages:
// named inputs, checked checkboxes/radios, textareas and selects. Buttons, file
// inputs and disabled controls are left out.
func ParseForms(r io.Reader, pageURL string, submitter Submitter) ([]*Form, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url '%s': %w", pageURL, err)
	}

	var forms []*Form
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "form" {
			forms = append(forms, buildForm(n, base, submitter))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return forms, nil
}

func buildForm(n *html.Node, base *url.URL, submitter Submitter) *Form {
	action := base.String()
	if raw := strings.TrimSpace(attr(n, "action")); raw != "" {
		if ref, err := url.Parse(raw); err == nil {
			action = base.ResolveReference(ref).String()
		}
	}

	f := NewForm(attr(n, "method"), action, url.Values{}, submitter, strings.Fields(attr(n, "class"))...)
	f.ID = attr(n, "id")
	collectControls(n, f.Values)
	return f
}

func collectControls(n *html.Node, values url.Values) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		name := attr(c, "name")
		_, disabled := lookupAttr(c, "disabled")

		switch c.Data {
		case "form":
			// Nested forms are invalid HTML; ignore their controls.
			continue
		case "input":
			if name == "" || disabled {
				continue
			}
			switch strings.ToLower(attr(c, "type")) {
			case "submit", "button", "reset", "image", "file":
				continue
			case "checkbox", "radio":
				if _, checked := lookupAttr(c, "checked"); !checked {
					continue
				}
				value, ok := lookupAttr(c, "value")
				if !ok {
					value = "on"
				}
				values.Add(name, value)
			default:
				values.Add(name, attr(c, "value"))
			}
			continue
		case "textarea":
			if name != "" && !disabled {
				values.Add(name, textContent(c))
			}
			continue
		case "select":
			if name != "" && !disabled {
				if value, ok := selectedOption(c); ok {
					values.Add(name, value)
				}
			}
			continue
		}
		collectControls(c, values)
	}
}

func selectedOption(sel *html.Node) (string, bool) {
	var first, selected *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "option" {
				if first == nil {
					first = c
				}
				if _, ok := lookupAttr(c, "selected"); ok && selected == nil {
					selected = c
				}
				continue
			}
			walk(c)
		}
	}
	walk(sel)

	option := selected
	if option == nil {
		option = first
	}
	if option == nil {
		return "", false
	}
	if value, ok := lookupAttr(option, "value"); ok {
		return value, true
	}
	return strings.TrimSpace(textContent(option)), true
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
