package spyglass

// Config supplies the behavioral knobs a Session honors. Sessions copy the
// Config they are constructed with; there is no process-global configuration
// and no mutation of a live session's settings.
type Config struct {
	// DisableInformationSchema selects the introspection strategy: when true,
	// schema metadata is obtained from SHOW commands rather than from
	// information_schema queries. Useful against servers where the catalog
	// tables are slow or restricted.
	DisableInformationSchema bool

	// DebugSQL logs every statement the session issues at debug level. It
	// also makes collation lookups skip the cache read (the fresh result is
	// still written back), so the underlying query is visible on every call.
	DebugSQL bool

	// NaturalSort orders database names containing digit runs the way a
	// human would (db2 before db10) whenever results are sorted by name.
	NaturalSort bool

	// OnlyDatabases restricts the session's database universe to a fixed
	// list. When non-empty, no discovery query is ever issued and the listed
	// names are used verbatim, in the given order.
	OnlyDatabases []string

	// MinSupportedVersion is an encoded version (in VersionToInt form) below
	// which a connected server is considered outdated; see
	// Session.OutdatedVersion. Zero disables the check.
	MinSupportedVersion int

	// ControlUser and ControlPassword are credentials for a secondary
	// privileged connection used for administrative bookkeeping statements;
	// see Session.ExecAsControlUser. A blank ControlUser disables the
	// control connection.
	ControlUser     string
	ControlPassword string
}
