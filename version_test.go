package spyglass

import (
	"testing"
)

func TestParseVersion(t *testing.T) {
	cases := map[string][3]int{
		"5.6.40":                    {5, 6, 40},
		"5.6.40-84.0":               {5, 6, 40},
		"5.7.22":                    {5, 7, 22},
		"8.0.13":                    {8, 0, 13},
		"10.1.22-MariaDB-":          {10, 1, 22},
		"10.3.7-MariaDB-log":        {10, 3, 7},
		"5.6":                       {5, 6, 0},
		"5":                         {5, 0, 0},
		"5.6.invalid":               {5, 6, 0},
		"banana":                    {0, 0, 0},
		"":                          {0, 0, 0},
		"v8.0.1":                    {0, 0, 0},
		"5.7.9300000000000000000":   {0, 0, 0},
		"10.11.2-MariaDB-1:10.11.2": {10, 11, 2},
	}
	for input, expected := range cases {
		actual := ParseVersion(input)
		if actual != expected {
			t.Errorf("Expected ParseVersion(\"%s\") to return %v, instead found %v", input, expected, actual)
		}
	}
}

func TestVersionToInt(t *testing.T) {
	cases := map[string]int{
		"5.6.35":           50635,
		"5.7.22":           50722,
		"8.0.13":           80013,
		"10.1.22-MariaDB-": 100122,
		"10.11.2":          101102,
		"5.6":              50600,
		"5":                50000,
		"5.6.invalid":      50600,
		"":                 0,
		"banana":           0,
	}
	for input, expected := range cases {
		if actual := VersionToInt(input); actual != expected {
			t.Errorf("Expected VersionToInt(\"%s\") to return %d, instead found %d", input, expected, actual)
		}
	}
}

func TestParseServerVersion(t *testing.T) {
	cases := []struct {
		version  string
		comment  string
		expected ServerVersion
	}{
		{"8.0.19", "MySQL Community Server - GPL", ServerVersion{Raw: "8.0.19", Numeric: 80019}},
		{"5.6.35", "", ServerVersion{Raw: "5.6.35", Numeric: 50635}},
		{"5.7.30-33", "Percona Server (GPL), Release 33, Revision 6517692", ServerVersion{Raw: "5.7.30-33", Numeric: 50730, Percona: true}},
		{"10.3.22-MariaDB", "mariadb.org binary distribution", ServerVersion{Raw: "10.3.22-MariaDB", Numeric: 100322, MariaDB: true}},
		{"10.1.48-MariaDB-1~bionic", "MariaDB Server", ServerVersion{Raw: "10.1.48-MariaDB-1~bionic", Numeric: 100148, MariaDB: true}},
		{"bogus", "MySQL", ServerVersion{Raw: "bogus"}},
		// Vendor detection considers only the comment, never the version string
		{"5.6.10-mariadb", "MySQL Community Server", ServerVersion{Raw: "5.6.10-mariadb", Numeric: 50610}},
	}
	for _, tc := range cases {
		actual := ParseServerVersion(tc.version, tc.comment)
		if actual != tc.expected {
			t.Errorf("Expected ParseServerVersion(%q, %q) to return %+v, instead found %+v", tc.version, tc.comment, tc.expected, actual)
		}
	}
}

func TestServerVersionMethods(t *testing.T) {
	v := ParseServerVersion("5.7.22-log", "MySQL Community Server (GPL)")
	if v.Major() != 5 || v.Minor() != 7 || v.Patch() != 22 {
		t.Errorf("Unexpected component breakdown for %+v: %d / %d / %d", v, v.Major(), v.Minor(), v.Patch())
	}
	if !v.Known() {
		t.Errorf("Expected version %+v to be Known, instead found unknown", v)
	}
	if !v.AtLeast(50722) {
		t.Error("Expected AtLeast to treat an equal version as satisfied, instead found false")
	}
	if !v.AtLeast(50635) {
		t.Error("Expected 5.7.22 to satisfy AtLeast(50635), instead found false")
	}
	if v.AtLeast(80000) {
		t.Error("Expected 5.7.22 to fail AtLeast(80000), instead found true")
	}
	if v.String() != "5.7.22-log" {
		t.Errorf("Expected String to return the raw version, instead found %q", v.String())
	}

	var zero ServerVersion
	if zero.Known() {
		t.Error("Expected zero ServerVersion to be unknown, instead found Known")
	}
	if zero.AtLeast(1) {
		t.Error("Expected zero ServerVersion to fail AtLeast(1), instead found true")
	}
	if zero.String() != "unknown" {
		t.Errorf("Expected zero ServerVersion String to be \"unknown\", instead found %q", zero.String())
	}
}
