// Package markdown converts markdown files into block documents and renders
// text block content to HTML. Frontmatter is parsed with adrg/frontmatter and
// the body with goldmark.
package markdown
