package deploy

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dev-edu1998/bia/internal/models"
)

// renderImages writes the image listing as a table, newest push first.
func renderImages(w io.Writer, images []models.Image) {
	out := tabwriter.NewWriter(w, 4, 4, 2, ' ', 0)
	fmt.Fprintln(out, "TAGS\tDIGEST\tSIZE\tPUSHED")
	for _, img := range images {
		tags := strings.Join(img.Tags, ",")
		if tags == "" {
			tags = "<untagged>"
		}
		fmt.Fprintf(out, "%s\t%s\t%.1f MB\t%s\n",
			tags, shortDigest(img.Digest), img.SizeMB, img.PushedAt.Format("2006-01-02 15:04:05"))
	}
	out.Flush()
}

// shortDigest trims a sha256 digest down to a readable prefix.
func shortDigest(digest string) string {
	const prefixLen = 19 // "sha256:" plus 12 hex characters
	if len(digest) <= prefixLen {
		return digest
	}
	return digest[:prefixLen]
}
