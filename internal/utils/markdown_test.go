package utils

import (
	"strings"
	"testing"
)

func TestRenderMarkdownStripsScript(t *testing.T) {
	out := RenderMarkdown("hello <script>alert(1)</script> **world**")
	if strings.Contains(out, "<script") {
		t.Errorf("rendered output still contains script tag: %q", out)
	}
	if !strings.Contains(out, "<strong>world</strong>") {
		t.Errorf("markdown emphasis lost: %q", out)
	}
}

func TestSanitizeTextStripsAllTags(t *testing.T) {
	// 标题、地点等纯文本字段整个标签剥掉
	got := SanitizeText(`Campus <b>Fair</b> <img src=x onerror=alert(1)>`)
	if strings.ContainsAny(got, "<>") {
		t.Errorf("sanitized text still contains markup: %q", got)
	}
	if !strings.Contains(got, "Campus") || !strings.Contains(got, "Fair") {
		t.Errorf("plain text content lost: %q", got)
	}
}
