package mcpserver

// NoteFormatContract describes how notes are written and linked, for LLM
// consumers creating or updating notes.
const NoteFormatContract = `# Inkwell Note Format Contract

Notes live in folders. A note has a title, a Markdown body, optional tags and
a favorite flag. Title and metadata are managed by the tools; the body is plain
Markdown with no frontmatter.

## Identity

- Every note has an id of the form ` + "`folder:slot`" + ` (e.g. ` + "`0:3`" + `).
  Ids never change while the note exists, even when it is renamed.
- Titles are unique within a folder. Two folders may hold notes with the same title.

## Links

- Reference another note with ` + "`[[Title]]`" + `, or ` + "`[[Title|label]]`" + ` for display text.
- Links resolve by title across the whole vault. When several notes share the
  title, the one in the lowest folder, then the lowest slot, wins.
- A link to a title that does not exist yet is "unresolved"; creating a note
  with that title resolves it.
- Renaming a note does not rewrite references to its old title.

## Encryption

- Encrypted notes need a password to read, save or restore.
- Encrypted bodies are not searched and contribute no outgoing links, though
  other notes can still link to them.

## History

- Every save records a version. Restoring a version records a new one;
  nothing is ever overwritten.
- Edits made outside Inkwell are recorded as "external change" versions
  when the vault reloads.
- diff_versions reports line insertions and deletions between two versions.

## Example

` + "```" + `markdown
# Weekly standup

Attendees: Alice, Bob.

## Action items

- Alice to review the [[Design doc]]
- Bob to update [[Roadmap|the roadmap]]
` + "```" + `
`
