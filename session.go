package spyglass

import (
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

// Conn is the narrow connection capability a Session requires. *sqlx.DB
// satisfies it. Implementations should tolerate result columns that have no
// matching destination field, the way an unsafe sqlx handle does, since
// several SHOW commands emit more columns than the scan structs here use.
type Conn interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// Session wraps a logical connection to a database server, layering on
// probe-result caching, version and vendor detection, collation lookups, and
// the schema introspection methods in this package. The session cache is
// safe for concurrent use, but a Session's connection state (version,
// collation) should be mutated from one goroutine at a time.
type Session struct {
	BaseDSN    string // DSN ending in trailing slash; i.e. no default database or params
	User       string
	Host       string
	Port       int
	SocketPath string

	conn    Conn
	control Conn // secondary privileged connection; nil unless configured
	cache   *Cache
	config  Config
	version ServerVersion
}

// NewSession returns a Session wrapping an already-established connection.
// No probe queries are issued; call PostConnect to run the usual
// post-connection sequence.
func NewSession(conn Conn, config Config) *Session {
	return &Session{
		conn:   conn,
		cache:  NewCache(),
		config: config,
	}
}

// Connect establishes a connection for the supplied go-sql-driver/mysql
// format DSN, runs the post-connection sequence, and returns a ready
// Session. If config.ControlUser is non-blank, a second connection using the
// control credentials (but an otherwise identical DSN) is established
// alongside the primary one.
func Connect(dsn string, config Config) (*Session, error) {
	parsedConfig, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, wrapConnectError(err)
	}
	s := NewSession(db.Unsafe(), config)
	s.BaseDSN = baseDSN(dsn)
	s.User = parsedConfig.User
	if parsedConfig.Net == "unix" {
		s.Host = "localhost"
		s.SocketPath = parsedConfig.Addr
	} else if s.Host, s.Port, err = SplitHostOptionalPort(parsedConfig.Addr); err != nil {
		return nil, err
	}
	if config.ControlUser != "" {
		parsedConfig.User = config.ControlUser
		parsedConfig.Passwd = config.ControlPassword
		controlDB, err := sqlx.Connect("mysql", parsedConfig.FormatDSN())
		if err != nil {
			return nil, wrapConnectError(err)
		}
		s.control = controlDB.Unsafe()
	}
	if err := s.PostConnect(); err != nil {
		return nil, err
	}
	return s, nil
}

// wrapConnectError converts a dial-time failure into a *QueryError. The Go
// driver surfaces refused or unreachable servers as net errors rather than
// client error numbers, so those are mapped onto the classic client code
// that FormatError understands.
func wrapConnectError(err error) error {
	if _, ok := err.(net.Error); ok {
		return &QueryError{
			Number:  CR_CONN_HOST_ERROR,
			Message: FormatError(CR_CONN_HOST_ERROR, err.Error()),
			Err:     err,
		}
	}
	return WrapQueryError("", err)
}

// String for a session returns a "host:port" string (or
// "localhost:/path/to/socket" when using UNIX domain sockets), suitable for
// logging or usage in output.
func (s *Session) String() string {
	if s.SocketPath != "" {
		return fmt.Sprintf("%s:%s", s.Host, s.SocketPath)
	} else if s.Port == 0 {
		return s.Host
	}
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Cache exposes the session's probe cache, primarily so callers can remove
// entries on state transitions the cache cannot observe (switching the
// default database, dropping databases, and so on).
func (s *Session) Cache() *Cache {
	return s.cache
}

func (s *Session) logQuery(query string) {
	if s.config.DebugSQL {
		log.Debug(query)
	}
}

func (s *Session) get(conn Conn, dest interface{}, query string, args ...interface{}) error {
	s.logQuery(query)
	return conn.Get(dest, query, args...)
}

func (s *Session) selectAll(conn Conn, dest interface{}, query string, args ...interface{}) error {
	s.logQuery(query)
	return conn.Select(dest, query, args...)
}

func (s *Session) exec(conn Conn, query string, args ...interface{}) (sql.Result, error) {
	s.logQuery(query)
	return conn.Exec(query, args...)
}

type versionRow struct {
	Version        string `db:"version"`
	VersionComment string `db:"version_comment"`
}

func (s *Session) probeVersion() {
	var row versionRow
	query := "SELECT @@version AS version, @@version_comment AS version_comment"
	if err := s.get(s.conn, &row, query); err != nil {
		// Restricted deployments may forbid the probe; the version simply
		// remains unset
		log.Debugf("Server version probe yielded no result: %s", err)
		return
	}
	s.SetVersion(row.Version, row.VersionComment)
}

// PostConnect runs the post-connection sequence: it probes the server
// version and vendor, warns if the server is older than
// Config.MinSupportedVersion, establishes the connection character set, and
// pre-warms the cached database name list. A failed version probe or a
// failed pre-warm is not an error; a failed SET NAMES is.
func (s *Session) PostConnect() error {
	s.probeVersion()
	if s.OutdatedVersion() {
		log.Warnf("Server version %s is older than the minimum supported version; please consider upgrading. Some features may misbehave on this server.", s.version)
	}
	charSet := "utf8mb4"
	if s.version.Known() && !s.version.AtLeast(50503) {
		// utf8mb4 first appeared in MySQL 5.5.3
		charSet = "utf8"
	}
	query := "SET NAMES " + charSet
	if _, err := s.exec(s.conn, query); err != nil {
		return WrapQueryError(query, err)
	}
	if _, err := s.DatabaseNames(); err != nil {
		log.Debugf("Unable to pre-warm database name list: %s", err)
	}
	return nil
}

// SetVersion explicitly (re-)sets the session's server version from raw
// @@version and @@version_comment values. PostConnect calls this
// automatically when its probe succeeds; SetVersion is for callers that
// already hold the values from elsewhere.
func (s *Session) SetVersion(version, versionComment string) {
	s.version = ParseServerVersion(version, versionComment)
}

// Version returns the server version probed at connection time, or a zero
// ServerVersion if the probe was restricted or has not run.
func (s *Session) Version() ServerVersion {
	return s.version
}

// OutdatedVersion returns true if the session's server version is known and
// falls below Config.MinSupportedVersion. An unknown version is never
// considered outdated.
func (s *Session) OutdatedVersion() bool {
	return s.config.MinSupportedVersion > 0 && s.version.Known() && !s.version.AtLeast(s.config.MinSupportedVersion)
}

// CurrentUserAndHost returns the account name and host portion of the
// session's effective user, as reported by CURRENT_USER(). The probe result
// is cached under CacheKeyCurrentUser; a failed or restricted probe is
// cached as blank so it won't be repeated, and yields two empty strings.
func (s *Session) CurrentUserAndHost() (user, host string) {
	var raw string
	if cached, ok := s.cache.Get(CacheKeyCurrentUser); ok {
		raw, _ = cached.(string)
	} else {
		if err := s.get(s.conn, &raw, "SELECT CURRENT_USER()"); err != nil {
			log.Debugf("CURRENT_USER() probe failed: %s", err)
			raw = ""
		}
		s.cache.Set(CacheKeyCurrentUser, raw)
	}
	if raw == "" {
		return "", ""
	}
	// Split on the last @, since the account name may itself contain one
	if at := strings.LastIndex(raw, "@"); at >= 0 {
		return raw[:at], raw[at+1:]
	}
	return raw, ""
}

// CurrentUser returns just the account name portion of CurrentUserAndHost.
func (s *Session) CurrentUser() string {
	user, _ := s.CurrentUserAndHost()
	return user
}

// IsAmazonRDS returns true if the server appears to be an Amazon RDS
// instance, detected from the server's base directory. The result is cached
// under CacheKeyAmazonRDS; a failed probe is cached as false.
func (s *Session) IsAmazonRDS() bool {
	if cached, ok := s.cache.Get(CacheKeyAmazonRDS); ok {
		result, _ := cached.(bool)
		return result
	}
	var baseDir string
	if err := s.get(s.conn, &baseDir, "SELECT @@basedir"); err != nil {
		log.Debugf("@@basedir probe failed: %s", err)
	}
	// RDS installs the server under /rdsdbbin/, typically in a
	// version-suffixed dir such as /rdsdbbin/mysql-5.7.19.R1
	result := strings.HasPrefix(strings.ToLower(baseDir), "/rdsdbbin/")
	s.cache.Set(CacheKeyAmazonRDS, result)
	return result
}

// systemCollation is the collation of information_schema in all supported
// flavors, fixed regardless of server defaults.
const systemCollation = "utf8_general_ci"

// DatabaseCollation returns the default collation of the supplied database.
// information_schema has a fixed, known collation and short-circuits without
// touching the server. Results for other databases are cached per database
// name; when Config.DebugSQL is set the cache read is skipped (though the
// result is still written back), so both paths return identical values for
// identical inputs.
func (s *Session) DatabaseCollation(database string) (string, error) {
	if strings.EqualFold(database, "information_schema") {
		return systemCollation, nil
	}
	key := DatabaseCollationCacheKey(database)
	if !s.config.DebugSQL {
		if cached, ok := s.cache.Get(key); ok {
			collation, _ := cached.(string)
			return collation, nil
		}
	}
	var collation string
	query := "SELECT default_collation_name AS default_collation_name FROM information_schema.schemata WHERE schema_name = ?"
	if err := s.get(s.conn, &collation, query, database); err != nil {
		return "", WrapQueryError(query, err)
	}
	s.cache.Set(key, collation)
	return collation, nil
}

// ServerCollation returns the server-wide default collation, cached under
// CacheKeyServerCollation. As with DatabaseCollation, Config.DebugSQL skips
// the cache read but not the write.
func (s *Session) ServerCollation() (string, error) {
	if !s.config.DebugSQL {
		if cached, ok := s.cache.Get(CacheKeyServerCollation); ok {
			collation, _ := cached.(string)
			return collation, nil
		}
	}
	var collation string
	query := "SELECT @@collation_server"
	if err := s.get(s.conn, &collation, query); err != nil {
		return "", WrapQueryError(query, err)
	}
	s.cache.Set(CacheKeyServerCollation, collation)
	return collation, nil
}

// SetCollation changes the collation of the session's connection, exactly as
// if the caller had issued the SET statement directly. It does not alter any
// cached collation values, which describe server and database defaults
// rather than connection state.
func (s *Session) SetCollation(collation string) error {
	_, err := s.Exec(fmt.Sprintf("SET collation_connection = '%s'", EscapeValue(collation)))
	return err
}

// Exec executes a statement on the session's primary connection. Failures
// come back as a *QueryError carrying the FormatError-processed message.
func (s *Session) Exec(query string, args ...interface{}) (sql.Result, error) {
	result, err := s.exec(s.conn, query, args...)
	if err != nil {
		return nil, WrapQueryError(query, err)
	}
	return result, nil
}

// TryExec is like Exec, but failure is reported via the boolean return
// instead of an error; the underlying cause is only logged at debug level.
// Intended for best-effort statements whose failure should never interrupt
// the caller.
func (s *Session) TryExec(query string, args ...interface{}) (sql.Result, bool) {
	result, err := s.exec(s.conn, query, args...)
	if err != nil {
		log.Debugf("Query failed: %s (%s)", err, query)
		return nil, false
	}
	return result, true
}

// ExecAsControlUser executes a statement on the secondary privileged
// control-user connection, for administrative bookkeeping that the session's
// own user may not be allowed to perform. An error is returned if the
// session was not configured with a control user.
func (s *Session) ExecAsControlUser(query string, args ...interface{}) (sql.Result, error) {
	if s.control == nil {
		return nil, errors.New("no control user configured for this session")
	}
	result, err := s.exec(s.control, query, args...)
	if err != nil {
		return nil, WrapQueryError(query, err)
	}
	return result, nil
}

// TryExecAsControlUser is like ExecAsControlUser, but reports failure via
// the boolean return, including the case of no control user being
// configured.
func (s *Session) TryExecAsControlUser(query string, args ...interface{}) (sql.Result, bool) {
	if s.control == nil {
		return nil, false
	}
	result, err := s.exec(s.control, query, args...)
	if err != nil {
		log.Debugf("Control-user query failed: %s (%s)", err, query)
		return nil, false
	}
	return result, true
}
