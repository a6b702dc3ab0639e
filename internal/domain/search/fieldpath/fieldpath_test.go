package fieldpath

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"id", "uuid.id"},
		{"type", "uuid.type"},
		{"category", "indexed_metadata.category"},
		{"brand.id", "indexed_metadata.brand.id"},
		{"indexed_metadata.price", "indexed_metadata.price"},
		{"metadata.title", "metadata.title"},
		{"searchable_metadata.name", "searchable_metadata.name"},
		{"_score", "_score"},
		{"coordinate", "coordinate"},
	}
	for _, tt := range tests {
		if got := Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNestedFilterPath(t *testing.T) {
	tests := []struct {
		field    string
		wantPath string
		wantOK   bool
	}{
		{"a.b.c", "a.b", true},
		{"indexed_metadata.brand.id", "indexed_metadata.brand", true},
		{"a.b", "", false},
		{"a", "", false},
		{"a.b.c.d", "", false},
	}
	for _, tt := range tests {
		path, ok := NestedFilterPath(tt.field)
		if path != tt.wantPath || ok != tt.wantOK {
			t.Errorf("NestedFilterPath(%q) = %q, %v, want %q, %v", tt.field, path, ok, tt.wantPath, tt.wantOK)
		}
	}
}

func TestNestedScorePath(t *testing.T) {
	tests := []struct {
		field    string
		wantPath string
		wantOK   bool
	}{
		{"indexed_metadata.relevance", "", false},
		{"indexed_metadata.brand.rank", "indexed_metadata.brand", true},
		{"a.b.c.d", "a.b.c", true},
	}
	for _, tt := range tests {
		path, ok := NestedScorePath(tt.field)
		if path != tt.wantPath || ok != tt.wantOK {
			t.Errorf("NestedScorePath(%q) = %q, %v, want %q, %v", tt.field, path, ok, tt.wantPath, tt.wantOK)
		}
	}
}

func TestParent(t *testing.T) {
	if got := Parent("a.b.c"); got != "a.b" {
		t.Errorf("Parent(a.b.c) = %q", got)
	}
	if got := Parent("a"); got != "" {
		t.Errorf("Parent(a) = %q", got)
	}
}
