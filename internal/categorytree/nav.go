package categorytree

import "net/url"

// ActiveQueryParam is the location query parameter carrying the active slug.
const ActiveQueryParam = "category"

// ActiveSlug extracts the active selection from location query values.
func ActiveSlug(q url.Values) string {
	return q.Get(ActiveQueryParam)
}

// NextChipSlug returns the selection after clicking a chip in the flat
// category bar: clicking the selected chip clears the selection.
func NextChipSlug(current, clicked string) string {
	if clicked == current {
		return ""
	}
	return clicked
}

// LocationFor returns the query string selecting slug, or "" for none.
func LocationFor(slug string) string {
	if slug == "" {
		return ""
	}
	return url.Values{ActiveQueryParam: {slug}}.Encode()
}
