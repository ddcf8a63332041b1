package help

import "testing"

func TestDocs_UniqueSlugsAndContent(t *testing.T) {
	seen := make(map[string]bool)
	for _, d := range Docs() {
		if d.Slug == "" || d.Title == "" || d.Body == "" {
			t.Errorf("incomplete doc: %+v", d)
		}
		if seen[d.Slug] {
			t.Errorf("duplicate slug %q", d.Slug)
		}
		seen[d.Slug] = true
	}
	for _, want := range []string{"hero", "about", "projects", "seo", "theme", "publish", "export"} {
		if !seen[want] {
			t.Errorf("missing doc %q", want)
		}
	}
}

func TestDocs_ReturnsCopy(t *testing.T) {
	got := Docs()
	got[0].Title = "changed"
	if Docs()[0].Title == "changed" {
		t.Error("Docs should not expose the package-level slice")
	}
}
