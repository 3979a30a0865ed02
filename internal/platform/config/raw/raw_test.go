package raw

import "testing"

func TestConf(t *testing.T) {
	t.Setenv("LOG_LEVEL", " info ")
	t.Setenv("LOG_FORMAT", "   ")
	t.Setenv("LOG_CALLER", "yes")
	t.Setenv("LOG_COLOR", "off")
	t.Setenv("LOG_JSON", "maybe")
	t.Setenv("LOG_SAMPLE_EVERY", "10")
	t.Setenv("LOG_BAD_INT", "-3")

	c := New().Prefix("LOG_")

	if got := c.Get("LEVEL", "debug"); got != "info" {
		t.Fatalf("Get trims: %q", got)
	}
	if got := c.Get("FORMAT", "console"); got != "console" {
		t.Fatalf("blank falls back: %q", got)
	}
	if got := New().Get("LOG_LEVEL", ""); got != "info" {
		t.Fatalf("unprefixed view: %q", got)
	}

	bools := []struct {
		key  string
		def  bool
		want bool
	}{
		{"CALLER", false, true},
		{"COLOR", true, false},
		{"JSON", true, true},
		{"MISSING", true, true},
	}
	for _, b := range bools {
		if got := c.GetBool(b.key, b.def); got != b.want {
			t.Fatalf("GetBool(%s) = %v, want %v", b.key, got, b.want)
		}
	}

	if got := c.GetInt("SAMPLE_EVERY", 0); got != 10 {
		t.Fatalf("GetInt = %d", got)
	}
	if got := c.GetInt("BAD_INT", 7); got != 7 {
		t.Fatalf("negative falls back: %d", got)
	}
}
