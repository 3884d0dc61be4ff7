package translator

// FormatOption describes one document format the engine accepts.
type FormatOption struct {
	Name         string   `json:"name"`
	Extensions   []string `json:"extensions"`
	ContentTypes []string `json:"content_types"`
}

var documentFormats = []FormatOption{
	{
		Name:         "Adobe PDF",
		Extensions:   []string{".pdf"},
		ContentTypes: []string{"application/pdf"},
	},
	{
		Name:         "HTML",
		Extensions:   []string{".html", ".htm"},
		ContentTypes: []string{"text/html"},
	},
	{
		Name:         "Markdown",
		Extensions:   []string{".md", ".markdown"},
		ContentTypes: []string{"text/markdown"},
	},
	{
		Name:         "Microsoft Excel",
		Extensions:   []string{".xlsx"},
		ContentTypes: []string{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	},
	{
		Name:         "Microsoft PowerPoint",
		Extensions:   []string{".pptx"},
		ContentTypes: []string{"application/vnd.openxmlformats-officedocument.presentationml.presentation"},
	},
	{
		Name:         "Microsoft Word",
		Extensions:   []string{".docx"},
		ContentTypes: []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	},
	{
		Name:         "Plain Text",
		Extensions:   []string{".txt"},
		ContentTypes: []string{"text/plain"},
	},
}

// FormatOptions returns the document formats accepted for translation.
func FormatOptions() []FormatOption {
	options := make([]FormatOption, len(documentFormats))
	copy(options, documentFormats)
	return options
}
