// Package rawlinks points raw.githubusercontent.com links inside a template at
// a pull request's source branch, so nested templates and scripts are fetched
// from the branch under test instead of master
//
// The replacement is textual over the serialized template: any occurrence of
// the master prefix is rewritten, including inside unrelated string fields.
// The template is first re-serialized compactly with minimal string escaping,
// so an escaped link like https:\/\/raw.githubusercontent.com\/... still matches
package rawlinks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"

	perr "armvalidator/internal/platform/errors"
)

const (
	rawHost      = "raw.githubusercontent.com"
	masterBranch = "master"
)

// LinkResolver looks up the raw base link of a pull request's source branch,
// e.g. https://raw.githubusercontent.com/alice/repo/feature-x
type LinkResolver interface {
	PullRequestBaseLink(ctx context.Context, pr int) (string, error)
}

// MasterPrefix builds https://raw.githubusercontent.com/<repo>/master
// Stray slashes in repo collapse the way a path join does
func MasterPrefix(repo string) string {
	return "https://" + path.Join(rawHost, repo, masterBranch)
}

// Rewriter swaps the configured repo's master prefix for a pull request link
type Rewriter struct {
	prefix   []byte
	resolver LinkResolver
}

// New constructs a Rewriter for the given owner/name repository path
func New(repo string, resolver LinkResolver) *Rewriter {
	return &Rewriter{prefix: []byte(MasterPrefix(repo)), resolver: resolver}
}

// Prefix returns the master link prefix being replaced
func (w *Rewriter) Prefix() string { return string(w.prefix) }

// Rewrite resolves the pull request link and replaces every occurrence of the
// master prefix in template. The input is not modified. Lookup failures are
// returned with ErrorCodeLinkLookup and are never retried
func (w *Rewriter) Rewrite(ctx context.Context, template json.RawMessage, pr int) (json.RawMessage, error) {
	if w.resolver == nil {
		return nil, perr.LinkLookupf(nil, "no link resolver configured for pull request %d", pr)
	}
	link, err := w.resolver.PullRequestBaseLink(ctx, pr)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeLinkLookup) {
			return nil, err
		}
		return nil, perr.LinkLookupf(err, "resolve pull request %d", pr)
	}

	canon, err := canonical(template)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "template is not valid JSON")
	}
	out := bytes.ReplaceAll(canon, w.prefix, []byte(link))
	if !json.Valid(out) {
		return nil, perr.LinkLookupf(nil, "link %q for pull request %d breaks the template JSON", link, pr)
	}
	return out, nil
}

// level is one open object or array while re-serializing
type level struct {
	object bool
	n      int // tokens written so far; keys count in objects
}

// canonical re-serializes src compactly, keeping key order and number text.
// Strings are re-encoded with only the escapes JSON requires, HTML escaping off
func canonical(src []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(src))
	dec.UseNumber()

	var (
		out   bytes.Buffer
		str   bytes.Buffer
		stack []level
	)
	enc := json.NewEncoder(&str)
	enc.SetEscapeHTML(false)

	sep := func() {
		if len(stack) == 0 {
			return
		}
		top := &stack[len(stack)-1]
		switch {
		case top.object && top.n%2 == 1:
			out.WriteByte(':')
		case top.n > 0:
			out.WriteByte(',')
		}
		top.n++
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{', '[':
				sep()
				stack = append(stack, level{object: v == '{'})
			default:
				stack = stack[:len(stack)-1]
			}
			out.WriteRune(rune(v))
		case string:
			sep()
			str.Reset()
			if err := enc.Encode(v); err != nil {
				return nil, err
			}
			out.Write(bytes.TrimSuffix(str.Bytes(), []byte("\n")))
		case json.Number:
			sep()
			out.WriteString(v.String())
		case bool:
			sep()
			fmt.Fprint(&out, v)
		case nil:
			sep()
			out.WriteString("null")
		}
	}
	if len(stack) != 0 || out.Len() == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	return out.Bytes(), nil
}
