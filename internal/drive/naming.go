package drive

import (
	"strings"

	"github.com/PlumyCat/doctrans/internal/globaltime"
)

// UniqueName derives a collision-resistant file name from the original
// name, the user id and the current wall-clock second:
// "report.pdf" + "u1" -> "report_u1_20260823_141503.pdf".
//
// Granularity is one second, so repeated uploads of the same name by
// the same user within one second produce the same result; the drive's
// rename-on-conflict upload behavior keeps that from losing data.
func UniqueName(fileName, userID string) string {
	base := fileName
	ext := ""
	if dot := strings.LastIndex(fileName, "."); dot >= 0 {
		base = fileName[:dot]
		ext = fileName[dot+1:]
	}

	name := base + "_" + userID + "_" + globaltime.Now().Format("20060102_150405")
	if ext != "" {
		name += "." + ext
	}
	return name
}
