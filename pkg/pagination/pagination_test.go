package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -3: DefaultLimit, 7: 7, MaxLimit + 50: MaxLimit}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d want %d", in, got, want)
		}
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("expected buffered limit 11, got %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{
		CreatedAt: time.Date(2025, 3, 1, 12, 30, 0, 123456789, time.UTC),
		ID:        uuid.New(),
	}
	encoded := EncodeCursor(want)
	got, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("ParseCursor: %v", err)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || got.ID != want.ID {
		t.Fatalf("cursor mismatch: got %+v want %+v", got, want)
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	if c, err := ParseCursor("   "); c != nil || err != nil {
		t.Fatalf("blank cursor should yield nil, nil; got %v %v", c, err)
	}
	if _, err := ParseCursor("!!!"); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := ParseCursor(EncodeCursor(Cursor{})[:4]); err == nil {
		t.Fatal("expected format error")
	}
}

func TestSplit(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]Cursor, 4)
	for i := range rows {
		rows[i] = Cursor{CreatedAt: base.Add(-time.Duration(i) * time.Minute), ID: uuid.New()}
	}
	key := func(c Cursor) Cursor { return c }

	page, next := Split(rows, 3, key)
	if len(page) != 3 || next == nil || next.ID != rows[2].ID {
		t.Fatalf("unexpected split: %d rows next=%v", len(page), next)
	}

	page, next = Split(rows[:2], 3, key)
	if len(page) != 2 || next != nil {
		t.Fatalf("short page should have no cursor")
	}
	if EncodeNext(nil) != "" {
		t.Fatal("nil cursor should encode to empty string")
	}
}
