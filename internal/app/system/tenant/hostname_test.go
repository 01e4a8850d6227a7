package tenant

import "testing"

func TestBareHost(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"montrecott.loomos.com", "montrecott.loomos.com"},
		{"Montrecott.Loomos.com:8443", "montrecott.loomos.com"},
		{"localhost:3000", "localhost"},
		{"127.0.0.1:8080", "127.0.0.1"},
		{"[::1]:8080", "::1"},
		{"example.org.", "example.org"},
		{"example.org:", "example.org"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := BareHost(tc.in); got != tc.want {
			t.Errorf("BareHost(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParser_ExtractSubdomain(t *testing.T) {
	p := NewParser(Config{BaseDomain: "loomos.com"})

	tests := []struct {
		host   string
		want   string
		wantOK bool
	}{
		{"montrecott.loomos.com", "montrecott", true},
		{"montrecott.loomos.com:443", "montrecott", true},
		{"MONTRECOTT.loomos.com", "montrecott", true},
		{"a.b.loomos.com", "a.b", true},
		{"localhost", "", false},
		{"localhost:3000", "", false},
		{"127.0.0.1:8080", "", false},
		{"loomos.com", "", false},
		{"www.loomos.com", "", false},
		{"www.loomos.com:80", "", false},
		{"community.example.org", "", false},
		{"notloomos.com", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.host, func(t *testing.T) {
			got, ok := p.ExtractSubdomain(tc.host)
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("ExtractSubdomain(%q) = (%q, %v), want (%q, %v)", tc.host, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestParser_ExtractSubdomain_Reconstruction(t *testing.T) {
	p := NewParser(Config{BaseDomain: "loomos.com"})

	hosts := []string{
		"montrecott.loomos.com", "a.b.loomos.com:8080", "x.loomos.com.",
		"www.loomos.com", "loomos.com", "example.org", "localhost",
		"api.loomos.com", "Mixed.Case.Loomos.COM",
	}
	for _, h := range hosts {
		sub, ok := p.ExtractSubdomain(h)
		if !ok {
			continue
		}
		again, ok2 := p.ExtractSubdomain(sub + ".loomos.com")
		if !ok2 || again != sub {
			t.Errorf("reparse of %q: got (%q, %v), want (%q, true)", sub+".loomos.com", again, ok2, sub)
		}
	}
}

func TestParser_CustomDevHosts(t *testing.T) {
	p := NewParser(Config{BaseDomain: "loomos.test", DevHosts: []string{"Dev.Local"}})

	if _, ok := p.ExtractSubdomain("dev.local:9000"); ok {
		t.Error("expected configured dev host to have no subdomain")
	}
	if got, ok := p.ExtractSubdomain("oak.loomos.test"); !ok || got != "oak" {
		t.Errorf("ExtractSubdomain(oak.loomos.test) = (%q, %v)", got, ok)
	}
}

func TestParser_NoBaseDomain(t *testing.T) {
	p := NewParser(Config{})
	if _, ok := p.ExtractSubdomain("oak.loomos.com"); ok {
		t.Error("expected no subdomain without a base domain")
	}
}
