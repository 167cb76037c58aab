package note

import "regexp"

// wikiLinkPattern matches [[qp-abc123]] style wiki-links.
var wikiLinkPattern = regexp.MustCompile(`\[\[([a-zA-Z0-9\-]+)\]\]`)

// mdLinkPattern matches [text](qp-abc123.md) style Markdown links that
// target a note file.
var mdLinkPattern = regexp.MustCompile(`\[[^\]]*\]\(([a-zA-Z0-9\-]+)\.md\)`)

// defaultInlineLinkType is the link type assigned to edges discovered
// from body wiki-link syntax, per spec.md §3/§9 ("Inline vs declared
// links").
const defaultInlineLinkType = "related"

// ExtractInlineLinks scans body for `[[id]]` and `[text](id.md)`
// wiki-link syntax and returns one TypedLink per distinct target id,
// each with Inline=true and LinkType=defaultInlineLinkType.
func ExtractInlineLinks(sourceID, body string) []TypedLink {
	seen := map[string]bool{}
	var out []TypedLink

	add := func(target string) {
		if target == "" || target == sourceID || seen[target] {
			return
		}
		seen[target] = true
		out = append(out, TypedLink{
			SourceID: sourceID,
			TargetID: target,
			LinkType: defaultInlineLinkType,
			Inline:   true,
		})
	}

	for _, m := range wikiLinkPattern.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	for _, m := range mdLinkPattern.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// StripInlineLink removes every `[[targetID]]` and `[text](targetID.md)`
// occurrence referencing targetID from body, so a subsequent
// ExtractInlineLinks no longer resurrects the edge (doctor's
// broken-link fix needs this: Store.SaveNote always re-derives inline
// links from the body text, so dropping the edge from Links alone is
// not durable for a link that originated inline).
func StripInlineLink(body, targetID string) string {
	wiki := regexp.MustCompile(`\[\[` + regexp.QuoteMeta(targetID) + `\]\]`)
	md := regexp.MustCompile(`\[[^\]]*\]\(` + regexp.QuoteMeta(targetID) + `\.md\)`)
	body = wiki.ReplaceAllString(body, "")
	body = md.ReplaceAllString(body, "")
	return body
}

// MergeLinks combines declared (frontmatter) links and inline (body)
// links into the final edge set for a note, applying the rule from
// spec.md §9: a (source,target,type) triple with both origins collapses
// to one edge with inline=false winning.
func MergeLinks(declared, inline []TypedLink) []TypedLink {
	type key struct{ source, target, typ string }
	index := map[key]int{}
	var out []TypedLink

	for _, l := range declared {
		k := key{l.SourceID, l.TargetID, l.LinkType}
		if i, ok := index[k]; ok {
			out[i] = l
			continue
		}
		index[k] = len(out)
		out = append(out, l)
	}
	for _, l := range inline {
		k := key{l.SourceID, l.TargetID, l.LinkType}
		if _, ok := index[k]; ok {
			continue // declared wins
		}
		index[k] = len(out)
		out = append(out, l)
	}
	return out
}
