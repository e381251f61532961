package extraction

import "testing"

func TestAttachmentKind(t *testing.T) {
	tests := []struct {
		mime string
		file string
		want DocumentKind
	}{
		{mime: "application/pdf", file: "x.bin", want: KindPDF},
		{mime: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", file: "x.bin", want: KindWord},
		{mime: "application/vnd.ms-excel", file: "x.bin", want: KindExcel},
		{mime: "text/plain", file: "x.bin", want: KindText},
		{mime: "", file: "spec.PDF", want: KindPDF},
		{mime: "", file: "notes.docx", want: KindWord},
		{mime: "", file: "data.csv", want: KindText},
		{mime: "application/octet-stream", file: "blob", want: KindUnknown},
	}
	for _, tt := range tests {
		a := &Attachment{FileName: tt.file, MimeType: tt.mime}
		if got := a.Kind(); got != tt.want {
			t.Errorf("Kind(mime=%q, file=%q) = %q, want %q", tt.mime, tt.file, got, tt.want)
		}
	}
}

func TestCandidateKeyNormalizes(t *testing.T) {
	a := Candidate{ID: " req-001 "}
	b := Candidate{ID: "REQ-001"}
	if a.Key() != b.Key() {
		t.Fatalf("keys differ: %q vs %q", a.Key(), b.Key())
	}
}
