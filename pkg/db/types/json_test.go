package dbtypes

import "testing"

type line struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

func TestJSONListValueNilIsEmptyArray(t *testing.T) {
	var l JSONList[string]
	v, err := l.Value()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "[]" {
		t.Fatalf("expected [], got %v", v)
	}
}

func TestJSONListScanFromBytesAndString(t *testing.T) {
	var l JSONList[line]
	if err := l.Scan([]byte(`[{"sku":"A","qty":2}]`)); err != nil {
		t.Fatalf("scan bytes: %v", err)
	}
	if len(l) != 1 || l[0].SKU != "A" || l[0].Qty != 2 {
		t.Fatalf("unexpected scan result %+v", l)
	}

	if err := l.Scan(`[]`); err != nil {
		t.Fatalf("scan string: %v", err)
	}
	if len(l) != 0 {
		t.Fatalf("expected empty list, got %+v", l)
	}

	if err := l.Scan(nil); err != nil || l == nil {
		t.Fatalf("nil scan should yield empty non-nil list, got %v err=%v", l, err)
	}

	if err := l.Scan(42); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}
