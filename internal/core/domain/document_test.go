package domain

import "testing"

func TestRawDocumentExt(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"report.pdf", ".pdf"},
		{"Report.PDF", ".pdf"},
		{"notes.v2.DocX", ".docx"},
		{"README", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			d := &RawDocument{Filename: tt.filename}
			if got := d.Ext(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestExtractedTextParts_Plain(t *testing.T) {
	e := &ExtractedText{Text: "hello world"}

	if e.IsPaginated() {
		t.Error("plain text should not be paginated")
	}
	parts := e.Parts()
	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}
	if parts[0].Number != nil {
		t.Errorf("expected no part number, got %d", *parts[0].Number)
	}
	if parts[0].Text != "hello world" {
		t.Errorf("unexpected text %q", parts[0].Text)
	}
}

func TestExtractedTextParts_PagesInOrder(t *testing.T) {
	e := &ExtractedText{Pages: map[int]string{3: "third", 1: "first", 7: "seventh"}}

	parts := e.Parts()
	want := []int{1, 3, 7}
	if len(parts) != len(want) {
		t.Fatalf("expected %d parts, got %d", len(want), len(parts))
	}
	for i, n := range want {
		if parts[i].Number == nil || *parts[i].Number != n {
			t.Errorf("part %d: expected page %d", i, n)
		}
	}
}

func TestExtractedTextIsEmpty(t *testing.T) {
	tests := []struct {
		name     string
		text     ExtractedText
		expected bool
	}{
		{"empty text", ExtractedText{}, true},
		{"text", ExtractedText{Text: "x"}, false},
		{"no pages", ExtractedText{Pages: map[int]string{}}, true},
		{"pages", ExtractedText{Pages: map[int]string{1: "x"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.text.IsEmpty() != tt.expected {
				t.Errorf("expected IsEmpty() = %v", tt.expected)
			}
		})
	}
}

func TestPointFilterMatches(t *testing.T) {
	alice := Payload{UserID: "alice"}
	bob := Payload{UserID: "bob"}

	var global *PointFilter
	if !global.Matches(alice) || !global.Matches(bob) {
		t.Error("nil filter should match every payload")
	}

	f := UserFilter("alice")
	if !f.Matches(alice) {
		t.Error("filter should match its owner")
	}
	if f.Matches(bob) {
		t.Error("filter should not match another owner")
	}

	ownerless := UserFilter("")
	if ownerless.Matches(alice) || ownerless.Matches(Payload{}) {
		t.Error("filter without an owner should match nothing")
	}
}

func TestIngestRequestHasInput(t *testing.T) {
	tests := []struct {
		name     string
		req      IngestRequest
		expected bool
	}{
		{"nothing", IngestRequest{}, false},
		{"whitespace only", IngestRequest{Text: " \n\t "}, false},
		{"text", IngestRequest{Text: "hello"}, true},
		{"file", IngestRequest{File: &RawDocument{Filename: "a.txt"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.req.HasInput() != tt.expected {
				t.Errorf("expected HasInput() = %v", tt.expected)
			}
		})
	}
}
