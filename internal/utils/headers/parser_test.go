package headers

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	in := []string{"referer: https://www.mubawab.ma/", "Accept: text/html"}
	out, err := Parse(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := map[string]string{"Referer": "https://www.mubawab.ma/", "Accept": "text/html"}
	if !reflect.DeepEqual(out, expected) {
		t.Fatalf("unexpected parse result: %#v", out)
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, bad := range []string{"BadHeader", ": value"} {
		if _, err := Parse([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" Accept: text/html ; ;DNT: 1")
	expected := []string{"Accept: text/html", "DNT: 1"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("unexpected split: %#v", got)
	}
}
