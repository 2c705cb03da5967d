package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	cases := map[string]struct {
		in, want string
	}{
		"plain":        {"Hello world", "Hello world"},
		"tags":         {"<b>Hello</b> <script>alert(1)</script>world", "Hello world"},
		"whitespace":   {"  Hello\n\t  world  ", "Hello world"},
		"entities":     {"Tom &amp; Jerry", "Tom & Jerry"},
		"empty":        {"", ""},
		"ampersand":    {"Q&A", "Q&A"},
		"nested":       {"<div><p>Order <em>#42</em></p></div>", "Order #42"},
		"attr handler": {`<img src=x onerror="alert(1)">Hi`, "Hi"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Text(tc.in))
		})
	}
}

func TestStripTagsKeepsLineBreaks(t *testing.T) {
	got := StripTags("<p>line one</p>\nline two")
	assert.Equal(t, "line one\nline two", got)
}

func TestHTMLDropsScripts(t *testing.T) {
	got := HTML(`<p>Hi <a href="https://example.com">there</a></p><script>alert(1)</script>`)
	assert.Contains(t, got, `<p>Hi <a href="https://example.com"`)
	assert.NotContains(t, got, "script")
}

func TestHTMLDropsEventHandlers(t *testing.T) {
	got := HTML(`<a href="https://example.com" onclick="steal()">x</a>`)
	assert.NotContains(t, got, "onclick")
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "user@example.com", Address(" user@example.com "))
	assert.Equal(t, "user@example.com", Address("<b>user@example.com</b>"))
	assert.Equal(t, "first.last+tag@example.co.uk", Address("first.last+tag@example.co.uk"))
	assert.Equal(t, "userexample.com", Address("user\"()example.com"))
}

func TestAddressList(t *testing.T) {
	assert.Equal(t, "a@x.com, b@y.com", AddressList("a@x.com,b@y.com"))
	assert.Equal(t, "a@x.com, b@y.com", AddressList(" a@x.com , , b@y.com "))
	assert.Equal(t, "", AddressList(""))
}

func TestAddressDropsDisplayName(t *testing.T) {
	cases := map[string]struct {
		in, want string
	}{
		"quoted name":    {`"Jane Doe" <jane@example.com>`, "jane@example.com"},
		"bare name":      {"Jane Doe <jane@example.com>", "jane@example.com"},
		"angle only":     {"<jane@example.com>", "jane@example.com"},
		"markup in name": {`Jane <b>Doe</b> <jane@example.com>`, "jane@example.com"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Address(tc.in))
		})
	}
}

func TestAddressListKeepsMailboxes(t *testing.T) {
	assert.Equal(t, "jane@example.com, bob@example.com",
		AddressList("Jane Doe <jane@example.com>, bob@example.com"))
	assert.Equal(t, "jane@example.com, bob@example.com",
		AddressList(`"Doe, Jane" <jane@example.com>, Bob <bob@example.com>`))
}
