package buffer

import "testing"

// recordingListener captures the notification stream for assertions.
type recordingListener struct {
	calls []call
}

type call struct {
	phase string // "before" or "after"
	start int
	text  string
}

func (r *recordingListener) BeforeChange(start int, removed string) {
	r.calls = append(r.calls, call{"before", start, removed})
}

func (r *recordingListener) AfterChange(start int, inserted string) {
	r.calls = append(r.calls, call{"after", start, inserted})
}

func TestBufferInsert(t *testing.T) {
	b := NewBufferFromString("hello world")

	end, err := b.Insert(5, " there")
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if end != 11 {
		t.Errorf("end = %d, want 11", end)
	}
	if b.Text() != "hello there world" {
		t.Errorf("Text() = %q, want %q", b.Text(), "hello there world")
	}
}

func TestBufferDelete(t *testing.T) {
	b := NewBufferFromString("hello world")
	if err := b.Delete(5, 11); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if b.Text() != "hello" {
		t.Errorf("Text() = %q, want %q", b.Text(), "hello")
	}
}

func TestBufferReplace(t *testing.T) {
	b := NewBufferFromString("hello world")
	end, err := b.Replace(6, 11, "there")
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if end != 11 {
		t.Errorf("end = %d, want 11", end)
	}
	if b.Text() != "hello there" {
		t.Errorf("Text() = %q, want %q", b.Text(), "hello there")
	}
}

func TestBufferRangeValidation(t *testing.T) {
	b := NewBufferFromString("abc")

	if _, err := b.Insert(-1, "x"); err != ErrOffsetOutOfRange {
		t.Errorf("Insert(-1) err = %v, want ErrOffsetOutOfRange", err)
	}
	if _, err := b.Insert(4, "x"); err != ErrOffsetOutOfRange {
		t.Errorf("Insert(4) err = %v, want ErrOffsetOutOfRange", err)
	}
	if _, err := b.Replace(2, 1, "x"); err != ErrRangeInvalid {
		t.Errorf("Replace(2,1) err = %v, want ErrRangeInvalid", err)
	}
	if err := b.Delete(0, 9); err != ErrRangeInvalid {
		t.Errorf("Delete(0,9) err = %v, want ErrRangeInvalid", err)
	}
}

func TestBufferNotifiesTwoPhases(t *testing.T) {
	b := NewBufferFromString("hello world")
	rec := &recordingListener{}
	b.AddListener(rec)

	if _, err := b.Replace(6, 11, "there"); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	want := []call{
		{"before", 6, "world"},
		{"after", 6, "there"},
	}
	if len(rec.calls) != len(want) {
		t.Fatalf("got %d calls, want %d", len(rec.calls), len(want))
	}
	for i, c := range rec.calls {
		if c != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, c, want[i])
		}
	}
}

func TestBufferNoOpReplaceDoesNotNotify(t *testing.T) {
	b := NewBufferFromString("hello")
	rec := &recordingListener{}
	b.AddListener(rec)

	if _, err := b.Replace(2, 2, ""); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("got %d calls, want 0 for a no-op", len(rec.calls))
	}
}

func TestBufferRemoveListener(t *testing.T) {
	b := NewBufferFromString("hello")
	rec := &recordingListener{}
	b.AddListener(rec)
	b.RemoveListener(rec)

	if _, err := b.Insert(0, "x"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("removed listener received %d calls", len(rec.calls))
	}
}

func TestBufferSelectionClampedAfterSplice(t *testing.T) {
	b := NewBufferFromString("hello world")
	if err := b.SetSelection(6, 11); err != nil {
		t.Fatalf("SetSelection failed: %v", err)
	}

	if err := b.Delete(0, 8); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	start, end := b.Selection()
	if start < 0 || end > b.Len() || start > end {
		t.Errorf("selection [%d, %d) out of bounds for len %d", start, end, b.Len())
	}
}

func TestBufferCursor(t *testing.T) {
	b := NewBufferFromString("hello")
	if err := b.SetCursor(3); err != nil {
		t.Fatalf("SetCursor failed: %v", err)
	}
	if b.Cursor() != 3 {
		t.Errorf("Cursor() = %d, want 3", b.Cursor())
	}
	if err := b.SetCursor(9); err != ErrOffsetOutOfRange {
		t.Errorf("SetCursor(9) err = %v, want ErrOffsetOutOfRange", err)
	}
}

func TestBufferRevisionChangesOnMutation(t *testing.T) {
	b := NewBufferFromString("hello")
	before := b.RevisionID()
	if _, err := b.Insert(0, "x"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if b.RevisionID() == before {
		t.Error("revision ID unchanged after mutation")
	}
}

func TestBufferNormalizesLineEndings(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
		in   string
		want string
	}{
		{"lf", WithLineEnding(LineEndingLF), "a\r\nb\rc", "a\nb\nc"},
		{"crlf", WithLineEnding(LineEndingCRLF), "a\nb\rc", "a\r\nb\r\nc"},
		{"cr", WithLineEnding(LineEndingCR), "a\r\nb\nc", "a\rb\rc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBufferFromString(tt.in, tt.opt)
			if b.Text() != tt.want {
				t.Errorf("Text() = %q, want %q", b.Text(), tt.want)
			}
		})
	}
}

func TestDetectLineEnding(t *testing.T) {
	tests := []struct {
		name string
		text string
		want LineEnding
	}{
		{"empty", "", LineEndingLF},
		{"lf", "a\nb\nc", LineEndingLF},
		{"crlf", "a\r\nb\r\nc\n", LineEndingCRLF},
		{"cr", "a\rb\rc", LineEndingCR},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectLineEnding(tt.text); got != tt.want {
				t.Errorf("DetectLineEnding(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestBufferLineCount(t *testing.T) {
	b := NewBufferFromString("a\nb\nc")
	if got := b.LineCount(); got != 3 {
		t.Errorf("LineCount() = %d, want 3", got)
	}
}
