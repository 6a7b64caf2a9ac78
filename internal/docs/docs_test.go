package docs

import (
	"strings"
	"testing"
)

func TestTopicsAreReadable(t *testing.T) {
	t.Parallel()

	topics := Topics()
	if len(topics) == 0 {
		t.Fatalf("expected embedded topics")
	}
	for _, topic := range topics {
		body, ok := Get(topic)
		if !ok || !strings.HasPrefix(body, "# ") {
			t.Fatalf("topic %q: ok=%v body starts %q", topic, ok, strings.SplitN(body, "\n", 2)[0])
		}
	}
	if _, ok := Get("REORDER"); !ok {
		t.Fatalf("lookup should ignore case")
	}
	for _, bad := range []string{"", "nope", "../docs", "content/api"} {
		if _, ok := Get(bad); ok {
			t.Fatalf("Get(%q) should fail", bad)
		}
	}
}
