package matching

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"canonical uuid", "A1B2C3D4-E5F6-7890-A1B2-C3D4E5F67890", "a1b2c3d4e5f67890a1b2c3d4e5f67890"},
		{"bank noise", "DH  a1b2 c3d4", "da1b2c3d4"},
		{"no hex at all", "xyz ghi", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name        string
		description string
		expected    string
		wantErr     error
	}{
		{"hyphenless uuid after prefix", "DH a1b2c3d4e5f67890a1b2c3d4e5f67890", "a1b2c3d4e5f67890a1b2c3d4e5f67890", nil},
		{"canonical uuid inside text", "thanh toan don a1b2c3d4-e5f6-7890-a1b2-c3d4e5f67890 cam on", "a1b2c3d4e5f67890a1b2c3d4e5f67890", nil},
		{"uppercase glued to letters", "DHA1B2C3D4E5F67890A1B2C3D4E5F67890 MBVCB", "a1b2c3d4e5f67890a1b2c3d4e5f67890", nil},
		{"truncated id", "MBVCB.123 DH a1b2c3d4e5f6 chuyen tien", "a1b2c3d4e5f6", nil},
		{"longest run wins", "ab12 a1b2c3d4e5 cafe", "a1b2c3d4e5", nil},
		{"numeric reference does not shadow prefix", "MBVCB.3456789012345.DH a1b2c3d4e5f6 chuyen tien", "a1b2c3d4e5f6", nil},
		{"uuid glued to hex letters is not cut", "ada1b2c3d4e5f67890a1b2c3d4e5f67890", "ada1b2c3d4e5f67890a1b2c3d4e5f67890", nil},
		{"too short", "DH a1b2c3", "", ErrNoOrderID},
		{"nothing", "chuyen khoan", "", ErrNoOrderID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.description)
			if err != tt.wantErr {
				t.Fatalf("Extract(%q) error = %v, want %v", tt.description, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("Extract(%q) = %q, want %q", tt.description, got, tt.expected)
			}
		})
	}
}

func TestExtractAllRanking(t *testing.T) {
	tests := []struct {
		name        string
		description string
		expected    []string
	}{
		{
			"uuid then letters then digits",
			"REF 99887766554433 DH c0ffee1234 a1b2c3d4-e5f6-7890-a1b2-c3d4e5f67890",
			[]string{"a1b2c3d4e5f67890a1b2c3d4e5f67890", "c0ffee1234", "99887766554433"},
		},
		{
			"longer lettered run first",
			"ab12cd34 a1b2c3d4e5f6 12345678",
			[]string{"a1b2c3d4e5f6", "ab12cd34", "12345678"},
		},
		{
			"duplicates collapse",
			"a1b2c3d4 a1b2c3d4",
			[]string{"a1b2c3d4"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractAll(tt.description)
			if err != nil {
				t.Fatalf("ExtractAll(%q) error: %v", tt.description, err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ExtractAll(%q) = %v, want %v", tt.description, got, tt.expected)
			}
		})
	}

	if _, err := ExtractAll("chuyen khoan"); err != ErrNoOrderID {
		t.Errorf("ExtractAll(no hex) error = %v, want ErrNoOrderID", err)
	}
}

func TestFindUUIDsBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"spaced", "dh a1b2c3d4e5f67890a1b2c3d4e5f67890 ok", []string{"a1b2c3d4e5f67890a1b2c3d4e5f67890"}},
		{"hyphen neighbour", "x-a1b2c3d4-e5f6-7890-a1b2-c3d4e5f67890", []string{"a1b2c3d4-e5f6-7890-a1b2-c3d4e5f67890"}},
		{"glued before", "ada1b2c3d4e5f67890a1b2c3d4e5f67890", nil},
		{"glued after", "a1b2c3d4e5f67890a1b2c3d4e5f6789012", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findUUIDs(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("findUUIDs(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCanonicalUUID(t *testing.T) {
	got, ok := CanonicalUUID("a1b2c3d4e5f67890a1b2c3d4e5f67890")
	if !ok || got != "a1b2c3d4-e5f6-7890-a1b2-c3d4e5f67890" {
		t.Errorf("CanonicalUUID() = %q, %v", got, ok)
	}
	if _, ok := CanonicalUUID("a1b2c3d4e5f6"); ok {
		t.Errorf("CanonicalUUID(short) reported ok")
	}
}

func TestCandidates(t *testing.T) {
	full := "a1b2c3d4e5f67890a1b2c3d4e5f67890"
	want := []string{full, "a1b2c3d4e5f67890", "a1b2c3d4e5f6", "a1b2c3d4"}
	if got := Candidates(full); !reflect.DeepEqual(got, want) {
		t.Errorf("Candidates(full) = %v, want %v", got, want)
	}

	if got := Candidates("a1b2c3d4e5"); !reflect.DeepEqual(got, []string{"a1b2c3d4e5", "a1b2c3d4"}) {
		t.Errorf("Candidates(10 chars) = %v", got)
	}
	if got := Candidates("a1b2c3d4"); !reflect.DeepEqual(got, []string{"a1b2c3d4"}) {
		t.Errorf("Candidates(8 chars) = %v", got)
	}
	if got := Candidates("a1b2c3d"); got != nil {
		t.Errorf("Candidates(7 chars) = %v, want nil", got)
	}
	for _, c := range Candidates(full) {
		if len(c) < MinCandidateLength {
			t.Errorf("candidate %q shorter than %d", c, MinCandidateLength)
		}
	}
}

func TestMatch(t *testing.T) {
	order := "a1b2c3d4-e5f6-7890-a1b2-c3d4e5f67890"
	tests := []struct {
		name       string
		candidates []string
		wantRule   Rule
		wantOK     bool
	}{
		{"exact", Candidates("a1b2c3d4e5f67890a1b2c3d4e5f67890"), RuleExact, true},
		{"truncated prefix", Candidates("a1b2c3d4e5f6"), RuleOrderPrefix, true},
		{"bank appended digits", []string{"a1b2c3d4e5f67890a1b2c3d4e5f678901234"}, RuleCandidatePrefix, true},
		{"leading noise", []string{"da1b2c3d4e5f67890a1b2c3d4e5f67890"}, RuleContains, true},
		{"inner fragment", []string{"e5f67890a1b2"}, RuleContains, true},
		{"seven chars ignored", []string{"a1b2c3d"}, "", false},
		{"different order", Candidates("ffffffff00000000ffffffff00000000"), "", false},
		{"no candidates", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := Match(order, tt.candidates)
			if ok != tt.wantOK || rule != tt.wantRule {
				t.Errorf("Match() = %q, %v; want %q, %v", rule, ok, tt.wantRule, tt.wantOK)
			}
		})
	}
}
