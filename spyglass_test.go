package spyglass

import (
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestMain(m *testing.M) {
	UseFilteredDriverLogger()
	os.Exit(m.Run())
}

func TestIntegration(t *testing.T) {
	images := SplitEnv("SPYGLASS_TEST_IMAGES")
	if len(images) == 0 {
		fmt.Println("SPYGLASS_TEST_IMAGES env var is not set, so integration tests will be skipped!")
		fmt.Println("To run integration tests, you may set SPYGLASS_TEST_IMAGES to a comma-separated")
		fmt.Println("list of Docker images. Example:\n# SPYGLASS_TEST_IMAGES=\"mysql:5.6,mysql:5.7\" go test")
	}
	RunSuite(&SpyglassIntegrationSuite{}, t, images)
}

type SpyglassIntegrationSuite struct {
	manager *DockerClient
	d       *DockerizedServer
}

func (s *SpyglassIntegrationSuite) Setup(backend string) (err error) {
	if s.manager == nil {
		if s.manager, err = NewDockerClient(DockerClientOptions{}); err != nil {
			return err
		}
	}
	opts := DockerizedServerOptions{
		Name:         fmt.Sprintf("spyglass-test-%s", strings.Replace(backend, ":", "-", -1)),
		Image:        backend,
		RootPassword: "fakepw",
	}
	s.d, err = s.manager.GetOrCreateServer(opts)
	return err
}

func (s *SpyglassIntegrationSuite) Teardown(backend string) error {
	return s.d.Stop()
}

func (s *SpyglassIntegrationSuite) BeforeTest(method string, backend string) error {
	if err := s.d.NukeData(); err != nil {
		return err
	}
	_, err := s.d.SourceSQL("testdata/integration.sql")
	return err
}

// connect establishes an additional session to the suite's current backend,
// using the supplied config.
func (s SpyglassIntegrationSuite) connect(t *testing.T, config Config) *Session {
	t.Helper()
	sess, err := Connect(s.d.DSN(), config)
	if err != nil {
		t.Fatalf("Unable to connect to %s: %s", s.d, err)
	}
	return sess
}

func TestEscapeIdentifier(t *testing.T) {
	values := map[string]string{
		"foo":       "`foo`",
		"":          "``",
		"weird`one": "`weird``one`",
		"``":        "``````",
	}
	for input, expected := range values {
		if actual := EscapeIdentifier(input); actual != expected {
			t.Errorf("Expected EscapeIdentifier(%q) to return %q, instead found %q", input, expected, actual)
		}
	}
}

func TestEscapeValue(t *testing.T) {
	values := map[string]string{
		"plain":          "plain",
		"it's":           "it''s",
		"back\\slash":    "back\\\\slash",
		"line\nbreak":    "line\\nbreak",
		"carriage\rhere": "carriage\\rhere",
		"nul\000byte":    "nul\\0byte",
		"\\'":            "\\\\''",
	}
	for input, expected := range values {
		if actual := EscapeValue(input); actual != expected {
			t.Errorf("Expected EscapeValue(%q) to return %q, instead found %q", input, expected, actual)
		}
	}
}

func TestSplitHostOptionalPort(t *testing.T) {
	assertSplit := func(addr, expectHost string, expectPort int, expectErr bool) {
		host, port, err := SplitHostOptionalPort(addr)
		if host != expectHost {
			t.Errorf("Expected SplitHostOptionalPort(\"%s\") to return host of \"%s\", instead found \"%s\"", addr, expectHost, host)
		}
		if port != expectPort {
			t.Errorf("Expected SplitHostOptionalPort(\"%s\") to return port of %d, instead found %d", addr, expectPort, port)
		}
		if expectErr && err == nil {
			t.Errorf("Expected SplitHostOptionalPort(\"%s\") to return an error, but instead found nil", addr)
		} else if !expectErr && err != nil {
			t.Errorf("Expected SplitHostOptionalPort(\"%s\") to return NOT return an error, but instead found %s", addr, err)
		}
	}

	assertSplit("", "", 0, true)
	assertSplit("foo", "foo", 0, false)
	assertSplit("1.2.3.4", "1.2.3.4", 0, false)
	assertSplit("some.host:1234", "some.host", 1234, false)
	assertSplit("some.host:text", "", 0, true)
	assertSplit("some.host:1234:5678", "", 0, true)
	assertSplit("some.host:0", "", 0, true)
	assertSplit("some.host:-5", "", 0, true)
	assertSplit("fe80::1", "", 0, true)
	assertSplit("[fe80::1]", "[fe80::1]", 0, false)
	assertSplit("[fe80::1]:3306", "[fe80::1]", 3306, false)
	assertSplit("[fe80::bd0f:a8bc:6480:238b%11]", "[fe80::bd0f:a8bc:6480:238b%11]", 0, false)
	assertSplit("[fe80::bd0f:a8bc:6480:238b%11]:443", "[fe80::bd0f:a8bc:6480:238b%11]", 443, false)
	assertSplit("[fe80::bd0f:a8bc:6480:238b%11]:sup", "", 0, true)
	assertSplit("[fe80::bd0f:a8bc:6480:238b%11]:123:456", "", 0, true)
}

func TestBaseDSN(t *testing.T) {
	values := map[string]string{
		"root:pass@tcp(1.2.3.4:3306)/":                  "root:pass@tcp(1.2.3.4:3306)/",
		"root:pass@tcp(1.2.3.4:3306)/dbname":            "root:pass@tcp(1.2.3.4:3306)/",
		"root:pass@tcp(1.2.3.4:3306)/dbname?param=valu": "root:pass@tcp(1.2.3.4:3306)/",
		"root@unix(/var/lib/mysql/mysql.sock)/dbname":   "root@unix(/var/lib/mysql/mysql.sock)/",
	}
	for input, expected := range values {
		if actual := baseDSN(input); actual != expected {
			t.Errorf("Expected baseDSN(%q) to return %q, instead found %q", input, expected, actual)
		}
	}
}

func TestMatchesLikePattern(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
		expect  bool
	}{
		{"testing", "testing", true},
		{"testing", "TESTING", true},
		{"testing", "test%", true},
		{"testing", "%ing", true},
		{"testing", "%", true},
		{"testing", "t_sting", true},
		{"testing", "t__sting", false},
		{"testing", "", false},
		{"", "%", true},
		{"", "", true},
		{"db_10", "db\\_10", true},
		{"dbx10", "db\\_10", false},
		{"dbx10", "db_10", true},
		{"100%", "100\\%", true},
		{"10000", "100\\%", false},
		{"a.b", "a.b", true},
		{"axb", "a.b", false},
		{"юникод", "юни%", true},
		{"trailing\\", "trailing\\", true},
	}
	for _, tc := range cases {
		if actual := MatchesLikePattern(tc.name, tc.pattern); actual != tc.expect {
			t.Errorf("Expected MatchesLikePattern(%q, %q) to return %t, instead found %t", tc.name, tc.pattern, tc.expect, actual)
		}
	}
}
