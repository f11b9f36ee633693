package placeholder_test

import (
	"strings"
	"testing"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/placeholder"
)

func TestProtect_NoMarkup(t *testing.T) {
	text := "الحمد لله رب العالمين"
	got, markers := placeholder.Protect(text)
	if got != text {
		t.Errorf("expected unchanged text, got %q", got)
	}
	if len(markers) != 0 {
		t.Errorf("expected 0 markers, got %d", len(markers))
	}
}

func TestProtect_HTMLTags(t *testing.T) {
	text := "<p>قال <b>المؤلف</b></p>"
	got, markers := placeholder.Protect(text)

	if len(markers) != 4 {
		t.Fatalf("expected 4 markers (<p>, <b>, </b>, </p>), got %d: %v", len(markers), markers)
	}
	for _, tag := range []string{"<p>", "<b>", "</b>", "</p>"} {
		if strings.Contains(got, tag) {
			t.Errorf("expected tag %q to be replaced, still present in %q", tag, got)
		}
	}
}

func TestProtect_VerseBrackets(t *testing.T) {
	text := "قال تعالى ﴿قل هو الله أحد﴾ في السورة"
	got, markers := placeholder.Protect(text)

	if len(markers) != 1 {
		t.Fatalf("expected 1 marker for verse span, got %d: %v", len(markers), markers)
	}
	if strings.Contains(got, "﴿") {
		t.Errorf("verse span still present in %q", got)
	}
	if !strings.Contains(got, "[PH0]") {
		t.Errorf("expected [PH0] in %q", got)
	}
}

func TestProtect_FootnoteRefs(t *testing.T) {
	text := "كما ورد في الحديث [12] وفي الأثر (٣)"
	got, markers := placeholder.Protect(text)

	if len(markers) != 2 {
		t.Fatalf("expected 2 markers, got %d: %v", len(markers), markers)
	}
	if strings.Contains(got, "[12]") || strings.Contains(got, "(٣)") {
		t.Errorf("footnote refs still present in %q", got)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	text := "قال تعالى ﴿آية﴾ انظر [7] <br>"
	protected, markers := placeholder.Protect(text)

	if got := placeholder.Restore(protected, markers); got != text {
		t.Errorf("round trip mismatch:\n got  %q\n want %q", got, text)
	}
}

func TestRestore_MarkersReordered(t *testing.T) {
	// Translation may move markers around; each index still restores.
	_, markers := placeholder.Protect("﴿آية﴾ نص [1]")
	translated := "text [PH1] then [PH0]"

	got := placeholder.Restore(translated, markers)
	if !strings.Contains(got, "﴿آية﴾") || !strings.Contains(got, "[1]") {
		t.Errorf("expected both originals restored, got %q", got)
	}
}

func TestRestore_UnknownIndexLeftAlone(t *testing.T) {
	got := placeholder.Restore("keep [PH5] as is", []string{"<b>"})
	if !strings.Contains(got, "[PH5]") {
		t.Errorf("unknown index should be left in place, got %q", got)
	}
}

func TestValidate_ReportsMissing(t *testing.T) {
	_, markers := placeholder.Protect("﴿آية﴾ نص [1] <i>x</i>")
	if len(markers) < 3 {
		t.Fatalf("setup: expected at least 3 markers, got %d", len(markers))
	}

	translated := "only [PH0] survived"
	missing := placeholder.Validate(translated, markers)
	if len(missing) != len(markers)-1 {
		t.Errorf("expected %d missing markers, got %v", len(markers)-1, missing)
	}
}

func TestValidate_AllPresent(t *testing.T) {
	text := "﴿آية﴾ [2]"
	protected, markers := placeholder.Protect(text)

	if missing := placeholder.Validate(protected, markers); len(missing) != 0 {
		t.Errorf("expected no missing markers, got %v", missing)
	}
}
