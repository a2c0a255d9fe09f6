package projection

import "testing"

const testUUID = "9b2fe1d0-8a43-4b21-9c3d-d51f00a3e7c2"

func TestContainsUUID_ExactToken(t *testing.T) {
	cases := []struct {
		name string
		desc string
		want bool
	}{
		{"bare token", testUUID, true},
		{"token on own line", "rent for flat\n" + testUUID, true},
		{"token mid text", "before " + testUUID + " after", true},
		{"empty description", "", false},
		{"hex prefix extends token", "ab" + testUUID, false},
		{"hex suffix extends token", testUUID + "1f", false},
		{"hyphen extends token", testUUID + "-extra", false},
		{"uppercase matches", "X " + "9B2FE1D0-8A43-4B21-9C3D-D51F00A3E7C2" + " Y", true},
		{"different uuid", "0b2fe1d0-8a43-4b21-9c3d-d51f00a3e7c2", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ContainsUUID(tc.desc, testUUID); got != tc.want {
				t.Errorf("ContainsUUID(%q) = %v, want %v", tc.desc, got, tc.want)
			}
		})
	}
}

func TestContainsUUID_EmptyUUID(t *testing.T) {
	if ContainsUUID("anything", "") {
		t.Error("empty uuid must never match")
	}
}

func TestExtractUUID(t *testing.T) {
	desc := AppendUUID("utilities", testUUID)
	got, ok := ExtractUUID(desc)
	if !ok || got != testUUID {
		t.Fatalf("ExtractUUID = %q, %v", got, ok)
	}

	if _, ok := ExtractUUID("no token here"); ok {
		t.Error("found a uuid in plain text")
	}

	// An undelimited run must not yield a token.
	if _, ok := ExtractUUID("beef" + testUUID); ok {
		t.Error("extracted uuid from extended hex run")
	}
}

func TestAppendUUID(t *testing.T) {
	if got := AppendUUID("", testUUID); got != testUUID {
		t.Errorf("AppendUUID on empty = %q", got)
	}
	got := AppendUUID("desc", testUUID)
	if got != "desc\n"+testUUID {
		t.Errorf("AppendUUID = %q", got)
	}
	if !ContainsUUID(got, testUUID) {
		t.Error("appended token not found by ContainsUUID")
	}
}
