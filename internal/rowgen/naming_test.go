package rowgen

import "testing"

func TestToGoName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"id", "ID"},
		{"name", "Name"},
		{"created_at", "CreatedAt"},
		{"user_id", "UserID"},
		{"asset_ids", "AssetIDs"},
		{"home-url", "HomeURL"},
		{"api.key", "APIKey"},
		{"first name", "FirstName"},
		{"userName", "UserName"},
		{"HTTPStatus", "HTTPStatus"},
		{"URLParser", "URLParser"},
		{"ttl_seconds", "TTLSeconds"},
		{"UPPER", "Upper"},
		{"2fa_enabled", "X2faEnabled"},
		{"_", "X"},
		{"", "X"},
		{"count(*)", "Count"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ToGoName(tt.input)
			if got != tt.want {
				t.Errorf("ToGoName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"format_version", []string{"format", "version"}},
		{"camelCase", []string{"camel", "Case"}},
		{"URLParser", []string{"URL", "Parser"}},
		{"a b\tc", []string{"a", "b", "c"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := splitWords(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("splitWords(%q) = %q, want %q", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("splitWords(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}
