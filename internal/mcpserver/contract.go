package mcpserver

// NoteFormatContract describes the note shape that LLM consumers should
// follow when creating or saving notes.
const NoteFormatContract = `# Quire Note Format Contract

Every note stored in Quire is a JSON record. Clients only ever write
` + "`" + `title` + "`" + ` and ` + "`" + `content` + "`" + `; everything else is managed by the store.

## Fields

| Field        | Written by | Notes                                              |
|--------------|------------|----------------------------------------------------|
| id           | store      | "note-<uuid>", never reused                        |
| title        | client     | Plain text. Blank notes start as "Untitled Note".  |
| content      | client     | Rich-text editor markup (HTML subset, see below).  |
| folder_id    | store      | Absent when the note is not in a folder.           |
| tags         | store      | Set from templates and Markdown imports.           |
| is_favorite  | store      | Flip with the toggle_favorite tool.                |
| created_at   | store      | RFC 3339, UTC.                                     |
| updated_at   | store      | Bumped by every save.                              |

## Content markup

1. Use block elements: ` + "`" + `<h1>` + "`" + `..` + "`" + `<h3>` + "`" + `, ` + "`" + `<p>` + "`" + `, ` + "`" + `<ul>` + "`" + `/` + "`" + `<ol>` + "`" + ` with ` + "`" + `<li>` + "`" + `.
2. Inline formatting: ` + "`" + `<strong>` + "`" + `, ` + "`" + `<em>` + "`" + `, ` + "`" + `<a href>` + "`" + `.
3. Escape ` + "`" + `<` + "`" + `, ` + "`" + `>` + "`" + ` and ` + "`" + `&` + "`" + ` in text.
4. Do not repeat the title as a leading ` + "`" + `<h1>` + "`" + ` unless it is part of the body.
5. **Encoding** is UTF-8.

## Folders & PDFs

- Put a note in a folder by passing ` + "`" + `folder_id` + "`" + ` to create_note.
- Attach PDFs with the ` + "`" + `import_pdf` + "`" + ` tool. PDF URLs only resolve while
  the server process that imported them is running.

## Example

` + "```" + `json
{
  "title": "Weekly standup 2025-01-20",
  "content": "<p>Attendees: Alice, Bob.</p><h2>Action items</h2><ul><li>Review design doc</li></ul>"
}
` + "```" + `
`
