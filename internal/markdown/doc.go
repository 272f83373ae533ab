// Package markdown turns Markdown documentation files into rich text
// documents. Files carry their metadata (name, description, reference url,
// optional id) in YAML frontmatter; locales are inferred from the first
// directory segment.
package markdown
