package blobstore

import "strings"

// TranslatedBlobName derives the output blob name for a source blob and
// target language: "doc.docx" + "es" -> "doc-es.docx". A name without an
// extension gets the language suffix appended directly.
func TranslatedBlobName(blobName, targetLang string) string {
	dot := strings.LastIndex(blobName, ".")
	if dot < 0 {
		return blobName + "-" + targetLang
	}
	return blobName[:dot] + "-" + targetLang + blobName[dot:]
}
