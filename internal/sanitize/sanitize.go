// internal/sanitize/sanitize.go
//
// Input sanitizers shared by the log store and the test-email sender.
//
// Context
// -------
// Captured mail is untrusted: subjects and recipient lists can carry markup,
// and bodies are arbitrary HTML.  Three cleaners cover every column:
//
//   - Text        – strips all markup and collapses whitespace (one line).
//   - AddressList – keeps only the addr-spec of each recipient, strips
//     markup and characters that cannot appear in an address, then
//     re-joins the list with ", ".
//   - HTML        – keeps a constrained user-content subset (links, lists,
//     emphasis, tables) and drops scripts, handlers, and styles.
//
// Policies are built once; bluemonday policies are safe for concurrent use
// after construction.
//
// Notes
// -----
//   - Text output is plain text.  Entities are decoded, so consumers must
//     escape on render (the JSON API does).
//   - Oxford commas, two spaces after periods.
package sanitize

import (
	"html"
	"net/mail"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict = bluemonday.StrictPolicy()
	ugc    = bluemonday.UGCPolicy()
)

// StripTags removes every tag and decodes entities.  Line breaks survive, so
// it suits multi-line plain-text bodies.
func StripTags(s string) string {
	return html.UnescapeString(strict.Sanitize(s))
}

// Text returns s as a single line of plain text.
func Text(s string) string {
	return strings.Join(strings.Fields(StripTags(s)), " ")
}

// HTML returns s restricted to the user-content subset.
func HTML(s string) string {
	return ugc.Sanitize(s)
}

// Mailbox reduces a name-addr such as `"Jane Doe" <jane@example.com>` to
// its addr-spec.  Input that does not parse is returned trimmed, unless it
// still carries an angle-addr with an "@", which is then taken as is.
func Mailbox(s string) string {
	s = strings.TrimSpace(s)
	if a, err := mail.ParseAddress(s); err == nil {
		return a.Address
	}
	if i := strings.LastIndexByte(s, '<'); i >= 0 {
		if j := strings.IndexByte(s[i:], '>'); j > 0 {
			if inner := s[i+1 : i+j]; strings.Contains(inner, "@") {
				return inner
			}
		}
	}
	return s
}

// Address cleans one mailbox.  Display names are dropped, then anything
// outside the RFC 5322 atext set plus "@" and "." is removed.
func Address(s string) string {
	s = StripTags(Mailbox(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if addressRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AddressList cleans a comma-separated recipient list.  Empty entries are
// dropped and survivors are joined with ", ".  A list that parses as RFC
// 5322 is split by the parser, so quoted display names may hold commas.
func AddressList(s string) string {
	var parts []string
	if list, err := mail.ParseAddressList(s); err == nil {
		for _, a := range list {
			parts = append(parts, a.Address)
		}
	} else {
		parts = strings.Split(s, ",")
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if a := Address(p); a != "" {
			out = append(out, a)
		}
	}
	return strings.Join(out, ", ")
}

func addressRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("!#$%&'*+-/=?^_`{|}~.@", r)
}
