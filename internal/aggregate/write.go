package aggregate

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/whywhathow/jenv-landing/internal/core"
)

// Encode writes doc as indented JSON
func Encode(w io.Writer, doc *core.Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

// Write replaces the file at path with doc
func Write(path string, doc *core.Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}

	if err := Encode(f, doc); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming file: %w", err)
	}

	return nil
}

// Summary prints the end-of-run report
func Summary(w io.Writer, doc *core.Document) {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Summary:") + "\n")
	fmt.Fprintf(&b, "  jenv version: %s\n", doc.Release.Version)
	fmt.Fprintf(&b, "  jenv platforms: %d\n", len(doc.Release.Platforms))
	fmt.Fprintf(&b, "  JDK versions: %d\n", len(doc.JDK.TrackedVersions))
	fmt.Fprintf(&b, "  Distributions: %d\n", len(doc.JDK.Distributions))

	ids := make([]string, 0, len(doc.JDK.Distributions))
	for id := range doc.JDK.Distributions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	b.WriteString("\n" + titleStyle.Render("Distributions:") + "\n")
	for _, id := range ids {
		dist := doc.JDK.Distributions[id]
		packages := 0
		for _, assets := range dist.Versions {
			packages += len(assets)
		}
		fmt.Fprintf(&b, "  - %s: %d versions, %d packages\n", dist.Name, len(dist.Versions), packages)
	}

	fmt.Fprint(w, b.String())
}
