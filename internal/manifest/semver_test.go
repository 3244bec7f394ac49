package manifest

import (
	"testing"

	"github.com/stamforge/modhost/internal/errs"
)

func TestCompatibleMajorMinor(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"1.2.3", "1.2.9", true},
		{"1.2.3", "1.3.0", false},
		{"1.2.3", "2.2.3", false},
	}
	for _, tt := range tests {
		got, err := CompatibleMajorMinor(tt.a, tt.b)
		if err != nil {
			t.Fatalf("CompatibleMajorMinor(%q, %q): %v", tt.a, tt.b, err)
		}
		if got != tt.want {
			t.Errorf("CompatibleMajorMinor(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestConstraintSatisfiesExact(t *testing.T) {
	c, err := ParseConstraint("1.2.0")
	if err != nil {
		t.Fatalf("ParseConstraint: %v", err)
	}
	ok, err := c.Satisfies("1.2.0")
	if err != nil || !ok {
		t.Fatalf("expected exact match to satisfy, ok=%v err=%v", ok, err)
	}
	ok, err = c.Satisfies("1.2.1")
	if err != nil || ok {
		t.Fatalf("expected non-exact version to fail, ok=%v err=%v", ok, err)
	}
}

func TestConstraintSatisfiesRange(t *testing.T) {
	c, err := ParseConstraint("1.0.0,2.0.0")
	if err != nil {
		t.Fatalf("ParseConstraint: %v", err)
	}
	for _, v := range []string{"1.0.0", "1.5.2", "2.0.0"} {
		ok, err := c.Satisfies(v)
		if err != nil || !ok {
			t.Errorf("expected %q in range, ok=%v err=%v", v, ok, err)
		}
	}
	ok, err := c.Satisfies("2.0.1")
	if err != nil || ok {
		t.Fatalf("expected out-of-range version to fail, ok=%v err=%v", ok, err)
	}
}

func TestCheckRequiresMissingPeer(t *testing.T) {
	err := CheckRequires("my-mod", map[string]string{"other-mod": "1.0.0"},
		HostVersions{}, true, func(string) (string, bool) { return "", false })
	if err == nil {
		t.Fatal("expected DependencyError for missing peer")
	}
	if code, ok := errs.Of(err); !ok || code != errs.CodeDependencyError {
		t.Fatalf("expected CodeDependencyError, got %v ok=%v", code, ok)
	}
}

func TestCheckRequiresSkipsClientOnServer(t *testing.T) {
	err := CheckRequires("my-mod", map[string]string{"@client": "9.9.9"},
		HostVersions{Server: "1.0.0"}, true, nil)
	if err != nil {
		t.Fatalf("expected @client check to be skipped on server, got %v", err)
	}
}
