package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func formRequest(values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestTimeEntryFormBind(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		wantErr string
	}{
		{
			name: "valid",
			form: url.Values{"employee_name": {"John Doe"}, "date": {"2024-01-15"}, "hours": {"7.5"}, "project": {"Project A"}},
		},
		{
			name: "zero hours",
			form: url.Values{"employee_name": {"John Doe"}, "date": {"2024-01-15"}, "hours": {"0"}, "project": {"Project A"}},
		},
		{
			name:    "missing project",
			form:    url.Values{"employee_name": {"John Doe"}, "date": {"2024-01-15"}, "hours": {"8"}},
			wantErr: "Please fill in all required fields",
		},
		{
			name:    "blank name",
			form:    url.Values{"employee_name": {"   "}, "date": {"2024-01-15"}, "hours": {"8"}, "project": {"P"}},
			wantErr: "Please fill in all required fields",
		},
		{
			name:    "too many hours",
			form:    url.Values{"employee_name": {"J"}, "date": {"2024-01-15"}, "hours": {"24.5"}, "project": {"P"}},
			wantErr: "Hours must be a number between 0 and 24",
		},
		{
			name:    "negative hours",
			form:    url.Values{"employee_name": {"J"}, "date": {"2024-01-15"}, "hours": {"-1"}, "project": {"P"}},
			wantErr: "Hours must be a number between 0 and 24",
		},
		{
			name:    "quarter hour",
			form:    url.Values{"employee_name": {"J"}, "date": {"2024-01-15"}, "hours": {"1.25"}, "project": {"P"}},
			wantErr: "Hours must be entered in half hour steps",
		},
		{
			name: "description at the limit",
			form: url.Values{"employee_name": {"J"}, "date": {"2024-01-15"}, "hours": {"8"}, "project": {"P"}, "description": {strings.Repeat("é", 500)}},
		},
		{
			name:    "description too long",
			form:    url.Values{"employee_name": {"J"}, "date": {"2024-01-15"}, "hours": {"8"}, "project": {"P"}, "description": {strings.Repeat("a", 501)}},
			wantErr: "Description must be at most 500 characters",
		},
		{
			name:    "bad date",
			form:    url.Values{"employee_name": {"J"}, "date": {"15/01/2024"}, "hours": {"8"}, "project": {"P"}},
			wantErr: "Date must be in YYYY-MM-DD format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f TimeEntryForm
			fe, err := bindForm(formRequest(tt.form), &f)
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if tt.wantErr == "" {
				if fe != nil {
					t.Fatalf("unexpected validation error: %v", fe)
				}
				return
			}
			if fe == nil || fe.Message != tt.wantErr {
				t.Fatalf("got %v, want %q", fe, tt.wantErr)
			}
		})
	}
}

func TestTimeEntryFormEntry(t *testing.T) {
	f := TimeEntryForm{EmployeeName: "Jane Smith", Date: "2024-01-16", Hours: "6,5", Project: "Project B", Description: "Reviews"}
	e, err := f.Entry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !e.Hours.Equal(decimal.RequireFromString("6.5")) || e.Date.String() != "2024-01-16" || e.ID != "" {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestBindFormJSON(t *testing.T) {
	body := `{"employee_name":"John Doe","date":"2024-01-15","hours":"8","project":"Project A"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	var f TimeEntryForm
	fe, err := bindForm(r, &f)
	if err != nil || fe != nil {
		t.Fatalf("bind failed: %v %v", fe, err)
	}
	if f.EmployeeName != "John Doe" {
		t.Fatalf("employee = %q", f.EmployeeName)
	}
}

func TestBindFormMalformed(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"employee_name":`))
	r.Header.Set("Content-Type", "application/json")
	var f TimeEntryForm
	fe, err := bindForm(r, &f)
	if err == nil || fe != nil {
		t.Fatalf("expected decode error, got %v %v", fe, err)
	}
}

func TestContactFormBind(t *testing.T) {
	tests := []struct {
		name  string
		form  url.Values
		field string
		ok    bool
	}{
		{"valid", url.Values{"name": {"Ada"}, "email": {"ada@example.com"}, "subject": {"Hi"}, "message": {"Hello"}}, "", true},
		{"missing message", url.Values{"name": {"Ada"}, "email": {"ada@example.com"}, "subject": {"Hi"}}, "", false},
		{"bad email", url.Values{"name": {"Ada"}, "email": {"nope"}, "subject": {"Hi"}, "message": {"Hello"}}, "email", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f ContactForm
			fe, err := bindForm(formRequest(tt.form), &f)
			if err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if tt.ok != (fe == nil) {
				t.Fatalf("validation = %v, want ok=%v", fe, tt.ok)
			}
			if fe != nil && fe.Field != tt.field {
				t.Fatalf("field = %q, want %q", fe.Field, tt.field)
			}
		})
	}
}

func TestLoginAndSettingsForms(t *testing.T) {
	var lf LoginForm
	if fe, _ := bindForm(formRequest(url.Values{"username": {"demo"}}), &lf); fe == nil {
		t.Fatal("login without password should fail")
	}
	var sf SettingsForm
	if fe, _ := bindForm(formRequest(url.Values{"theme": {" dark "}}), &sf); fe != nil || sf.Theme != "dark" {
		t.Fatalf("dark theme rejected: %v %q", fe, sf.Theme)
	}
	if fe, _ := bindForm(formRequest(url.Values{"theme": {"neon"}}), &sf); fe == nil {
		t.Fatal("unknown theme should fail")
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain  ", "plain"},
		{"a\x00b\x07c", "abc"},
		{"line\nbreak\ttab", "line\nbreak\ttab"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
