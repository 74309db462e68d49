package chromium

import (
	"reflect"
	"testing"
)

func TestMergeViewports(t *testing.T) {
	narrow := []ruleEntry{
		{CSS: "h1{a:b}", Critical: true},
		{CSS: ".side{c:d}", Critical: false},
		{CSS: "footer{e:f}", Critical: false},
	}
	wide := []ruleEntry{
		{CSS: "h1{a:b}", Critical: true},
		{CSS: ".side{c:d}", Critical: true},
		{CSS: "footer{e:f}", Critical: false},
		{CSS: ".wide-only{g:h}", Critical: false},
	}

	critical, rest, all := mergeViewports([][]ruleEntry{narrow, wide})

	if want := []string{"h1{a:b}", ".side{c:d}"}; !reflect.DeepEqual(critical, want) {
		t.Errorf("critical = %q, want %q", critical, want)
	}
	if want := []string{"footer{e:f}", ".wide-only{g:h}"}; !reflect.DeepEqual(rest, want) {
		t.Errorf("rest = %q, want %q", rest, want)
	}
	if want := []string{"h1{a:b}", ".side{c:d}", "footer{e:f}", ".wide-only{g:h}"}; !reflect.DeepEqual(all, want) {
		t.Errorf("all = %q, want %q", all, want)
	}
}

func TestMergeViewportsEmpty(t *testing.T) {
	critical, rest, all := mergeViewports(nil)
	if critical != nil || rest != nil || all != nil {
		t.Errorf("mergeViewports(nil) = %q, %q, %q; want all nil", critical, rest, all)
	}
}

func TestUncriticalRules(t *testing.T) {
	all := []string{"a{}", "b{}", "c{}", "d{}"}
	critical := []string{"a{}", "c{}"}
	dropped := []string{"c{}"}

	got := uncriticalRules(all, critical, dropped)
	if want := []string{"b{}", "c{}", "d{}"}; !reflect.DeepEqual(got, want) {
		t.Errorf("uncriticalRules() = %q, want %q", got, want)
	}
}
