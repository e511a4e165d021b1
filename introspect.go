package spyglass

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/maruel/natural"
	"github.com/nozzle/throttler"
	"golang.org/x/sync/errgroup"
)

/*
	Important note on information_schema queries in this file: MySQL 8.0 changes
	information_schema column names to come back from queries in all caps, so we
	need to explicitly use AS clauses in order to get them back in the same
	mixed-case form the corresponding SHOW command uses. This lets a single scan
	struct serve both introspection strategies.
*/

// TableStatus is the canonical representation of one table's status row,
// populated identically by either introspection strategy. Fields the server
// may return as NULL use database/sql null types; time fields stay as raw
// strings since consumers render them rather than compute with them.
type TableStatus struct {
	Name          string         `db:"Name"`
	Engine        sql.NullString `db:"Engine"`
	Version       sql.NullInt64  `db:"Version"`
	RowFormat     sql.NullString `db:"Row_format"`
	Rows          sql.NullInt64  `db:"Rows"`
	AvgRowLength  sql.NullInt64  `db:"Avg_row_length"`
	DataLength    sql.NullInt64  `db:"Data_length"`
	MaxDataLength sql.NullInt64  `db:"Max_data_length"`
	IndexLength   sql.NullInt64  `db:"Index_length"`
	DataFree      sql.NullInt64  `db:"Data_free"`
	AutoIncrement sql.NullInt64  `db:"Auto_increment"`
	CreateTime    sql.NullString `db:"Create_time"`
	UpdateTime    sql.NullString `db:"Update_time"`
	CheckTime     sql.NullString `db:"Check_time"`
	Collation     sql.NullString `db:"Collation"`
	Checksum      sql.NullInt64  `db:"Checksum"`
	CreateOptions sql.NullString `db:"Create_options"`
	Comment       string         `db:"Comment"`
	TableType     string         `db:"Table_type"`
}

func nullableString(ns sql.NullString) interface{} {
	if !ns.Valid {
		return nil
	}
	return ns.String
}

func nullableInt(ni sql.NullInt64) interface{} {
	if !ni.Valid {
		return nil
	}
	return ni.Int64
}

// LegacyRow serializes ts using the mixed-case key names of SHOW TABLE
// STATUS output. NULL fields serialize as nil values.
func (ts *TableStatus) LegacyRow() map[string]interface{} {
	return map[string]interface{}{
		"Name":            ts.Name,
		"Engine":          nullableString(ts.Engine),
		"Version":         nullableInt(ts.Version),
		"Row_format":      nullableString(ts.RowFormat),
		"Rows":            nullableInt(ts.Rows),
		"Avg_row_length":  nullableInt(ts.AvgRowLength),
		"Data_length":     nullableInt(ts.DataLength),
		"Max_data_length": nullableInt(ts.MaxDataLength),
		"Index_length":    nullableInt(ts.IndexLength),
		"Data_free":       nullableInt(ts.DataFree),
		"Auto_increment":  nullableInt(ts.AutoIncrement),
		"Create_time":     nullableString(ts.CreateTime),
		"Update_time":     nullableString(ts.UpdateTime),
		"Check_time":      nullableString(ts.CheckTime),
		"Collation":       nullableString(ts.Collation),
		"Checksum":        nullableInt(ts.Checksum),
		"Create_options":  nullableString(ts.CreateOptions),
		"Comment":         ts.Comment,
	}
}

// CatalogRow serializes ts using the upper-case key names of
// information_schema.tables, with every legacy-style key mirrored alongside
// so consumers written against either naming convention work unmodified.
// TABLE_TYPE is synthesized as "BASE TABLE" when the underlying strategy did
// not supply one, which is what SHOW TABLE STATUS omits for ordinary tables.
func (ts *TableStatus) CatalogRow() map[string]interface{} {
	tableType := ts.TableType
	if tableType == "" {
		tableType = "BASE TABLE"
	}
	row := ts.LegacyRow()
	row["TABLE_NAME"] = ts.Name
	row["ENGINE"] = nullableString(ts.Engine)
	row["VERSION"] = nullableInt(ts.Version)
	row["ROW_FORMAT"] = nullableString(ts.RowFormat)
	row["TABLE_ROWS"] = nullableInt(ts.Rows)
	row["AVG_ROW_LENGTH"] = nullableInt(ts.AvgRowLength)
	row["DATA_LENGTH"] = nullableInt(ts.DataLength)
	row["MAX_DATA_LENGTH"] = nullableInt(ts.MaxDataLength)
	row["INDEX_LENGTH"] = nullableInt(ts.IndexLength)
	row["DATA_FREE"] = nullableInt(ts.DataFree)
	row["AUTO_INCREMENT"] = nullableInt(ts.AutoIncrement)
	row["CREATE_TIME"] = nullableString(ts.CreateTime)
	row["UPDATE_TIME"] = nullableString(ts.UpdateTime)
	row["CHECK_TIME"] = nullableString(ts.CheckTime)
	row["TABLE_COLLATION"] = nullableString(ts.Collation)
	row["CHECKSUM"] = nullableInt(ts.Checksum)
	row["CREATE_OPTIONS"] = nullableString(ts.CreateOptions)
	row["TABLE_COMMENT"] = ts.Comment
	row["TABLE_TYPE"] = tableType
	return row
}

// Tables returns the status of every table (and view) in the supplied
// database, keyed by table name. Config.DisableInformationSchema selects
// whether SHOW TABLE STATUS or an information_schema query supplies the
// rows; both populate the same struct identically for shared fields.
func (s *Session) Tables(database string) (map[string]*TableStatus, error) {
	var statuses []*TableStatus
	var query string
	var args []interface{}
	if s.config.DisableInformationSchema {
		query = fmt.Sprintf("SHOW TABLE STATUS FROM %s", EscapeIdentifier(database))
	} else {
		query = "SELECT  t.table_name AS `Name`, t.engine AS `Engine`, t.version AS `Version`, " +
			"        t.row_format AS `Row_format`, t.table_rows AS `Rows`, " +
			"        t.avg_row_length AS `Avg_row_length`, t.data_length AS `Data_length`, " +
			"        t.max_data_length AS `Max_data_length`, t.index_length AS `Index_length`, " +
			"        t.data_free AS `Data_free`, t.auto_increment AS `Auto_increment`, " +
			"        t.create_time AS `Create_time`, t.update_time AS `Update_time`, " +
			"        t.check_time AS `Check_time`, t.table_collation AS `Collation`, " +
			"        t.checksum AS `Checksum`, t.create_options AS `Create_options`, " +
			"        t.table_comment AS `Comment`, t.table_type AS `Table_type` " +
			"FROM    information_schema.tables t " +
			"WHERE   t.table_schema = ?"
		args = append(args, database)
	}
	if err := s.selectAll(s.conn, &statuses, query, args...); err != nil {
		return nil, WrapQueryError(query, err)
	}
	result := make(map[string]*TableStatus, len(statuses))
	for _, ts := range statuses {
		result[ts.Name] = ts
	}
	return result, nil
}

// TableNames returns the names of all tables and views in the supplied
// database, using the strategy selected by Config.DisableInformationSchema.
func (s *Session) TableNames(database string) ([]string, error) {
	var names []string
	var query string
	var args []interface{}
	if s.config.DisableInformationSchema {
		query = fmt.Sprintf("SHOW TABLES FROM %s", EscapeIdentifier(database))
	} else {
		query = "SELECT table_name AS table_name FROM information_schema.tables WHERE table_schema = ? ORDER BY table_name"
		args = append(args, database)
	}
	if err := s.selectAll(s.conn, &names, query, args...); err != nil {
		return nil, WrapQueryError(query, err)
	}
	return names, nil
}

// DatabaseNames returns the session's database name universe: the verbatim
// contents of Config.OnlyDatabases when non-empty (no query is issued), or
// the discovered server-wide list otherwise. Discovery results are memoized
// under CacheKeyDatabaseNames; PostConnect pre-warms them, and removing the
// key forces rediscovery.
func (s *Session) DatabaseNames() ([]string, error) {
	if len(s.config.OnlyDatabases) > 0 {
		return append([]string(nil), s.config.OnlyDatabases...), nil
	}
	if cached, ok := s.cache.Get(CacheKeyDatabaseNames); ok {
		names, _ := cached.([]string)
		return names, nil
	}
	var names []string
	var query string
	if s.config.DisableInformationSchema {
		query = "SHOW DATABASES"
	} else {
		query = "SELECT schema_name AS schema_name FROM information_schema.schemata ORDER BY schema_name"
	}
	if err := s.selectAll(s.conn, &names, query); err != nil {
		return nil, WrapQueryError(query, err)
	}
	s.cache.Set(CacheKeyDatabaseNames, names)
	return names, nil
}

// DatabaseStats is a per-database aggregate of table statistics, as produced
// by Session.Databases. Sizes are in bytes; row counts are the engine's
// estimates for engines that only track estimates.
type DatabaseStats struct {
	Name        string
	Collation   string
	Tables      int
	Rows        int64
	DataLength  int64
	IndexLength int64
	TotalLength int64
	DataFree    int64
}

// DatabaseListOptions controls filtering, ordering and slicing of
// Session.Databases results.
type DatabaseListOptions struct {
	// Like filters database names with SQL LIKE semantics (% and _
	// wildcards, case-insensitive). Blank means no filter.
	Like string
	// SortBy names the DatabaseStats field to order by: "Name", "Collation",
	// "Tables", "Rows", "DataLength", "IndexLength", "TotalLength" or
	// "DataFree". Blank or unrecognized values sort by name. Numeric fields
	// are compared numerically, never as strings.
	SortBy string
	// Descending inverts the sort direction.
	Descending bool
	// Limit caps the number of returned entries; non-positive means no cap.
	Limit int
	// Offset skips that many entries from the start of the sorted result.
	Offset int
}

// Databases aggregates table statistics for each database in the session's
// universe, one entry per database. The per-database fan-out runs
// sequentially, which keeps connection usage flat at administrative-tool
// scale. Any per-database failure aborts the whole listing. Entries that tie
// on the sort column keep their relative universe order.
func (s *Session) Databases(opts DatabaseListOptions) ([]DatabaseStats, error) {
	names, err := s.DatabaseNames()
	if err != nil {
		return nil, err
	}
	stats := make([]DatabaseStats, 0, len(names))
	for _, name := range names {
		if opts.Like != "" && !MatchesLikePattern(name, opts.Like) {
			continue
		}
		tables, err := s.Tables(name)
		if err != nil {
			return nil, err
		}
		collation, err := s.DatabaseCollation(name)
		if err != nil {
			return nil, err
		}
		entry := DatabaseStats{
			Name:      name,
			Collation: collation,
			Tables:    len(tables),
		}
		for _, ts := range tables {
			entry.Rows += ts.Rows.Int64
			entry.DataLength += ts.DataLength.Int64
			entry.IndexLength += ts.IndexLength.Int64
			entry.DataFree += ts.DataFree.Int64
		}
		entry.TotalLength = entry.DataLength + entry.IndexLength
		stats = append(stats, entry)
	}
	s.sortDatabaseStats(stats, opts.SortBy, opts.Descending)
	return sliceDatabaseStats(stats, opts.Limit, opts.Offset), nil
}

func (s *Session) sortDatabaseStats(stats []DatabaseStats, sortBy string, descending bool) {
	byName := func(a, b DatabaseStats) bool {
		if s.config.NaturalSort {
			return natural.Less(a.Name, b.Name)
		}
		return a.Name < b.Name
	}
	var less func(a, b DatabaseStats) bool
	switch sortBy {
	case "Collation":
		less = func(a, b DatabaseStats) bool { return a.Collation < b.Collation }
	case "Tables":
		less = func(a, b DatabaseStats) bool { return a.Tables < b.Tables }
	case "Rows":
		less = func(a, b DatabaseStats) bool { return a.Rows < b.Rows }
	case "DataLength":
		less = func(a, b DatabaseStats) bool { return a.DataLength < b.DataLength }
	case "IndexLength":
		less = func(a, b DatabaseStats) bool { return a.IndexLength < b.IndexLength }
	case "TotalLength":
		less = func(a, b DatabaseStats) bool { return a.TotalLength < b.TotalLength }
	case "DataFree":
		less = func(a, b DatabaseStats) bool { return a.DataFree < b.DataFree }
	default:
		less = byName
	}
	// Stable sort, with descending handled by swapping the comparison rather
	// than reversing the slice, so that ties keep their original order either
	// direction
	sort.SliceStable(stats, func(i, j int) bool {
		if descending {
			return less(stats[j], stats[i])
		}
		return less(stats[i], stats[j])
	})
}

func sliceDatabaseStats(stats []DatabaseStats, limit, offset int) []DatabaseStats {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(stats) {
		return []DatabaseStats{}
	}
	stats = stats[offset:]
	if limit > 0 && limit < len(stats) {
		stats = stats[:limit]
	}
	return stats
}

// Column describes one column of a table, in the shape produced by SHOW FULL
// COLUMNS.
type Column struct {
	Name      string
	Type      string
	Collation sql.NullString
	Nullable  bool
	Key       string
	Default   sql.NullString
	Extra     string
	Comment   string
}

type rawColumnRow struct {
	TableName string         `db:"Table_name"`
	Field     string         `db:"Field"`
	Type      string         `db:"Type"`
	Collation sql.NullString `db:"Collation"`
	Null      string         `db:"Null"`
	Key       string         `db:"Key"`
	Default   sql.NullString `db:"Default"`
	Extra     string         `db:"Extra"`
	Comment   string         `db:"Comment"`
}

func (raw rawColumnRow) toColumn() *Column {
	return &Column{
		Name:      raw.Field,
		Type:      raw.Type,
		Collation: raw.Collation,
		Nullable:  raw.Null == "YES",
		Key:       raw.Key,
		Default:   raw.Default,
		Extra:     raw.Extra,
		Comment:   raw.Comment,
	}
}

// Columns returns the columns of the supplied table in ordinal position
// order, using the strategy selected by Config.DisableInformationSchema.
func (s *Session) Columns(database, table string) ([]*Column, error) {
	var rawColumns []rawColumnRow
	var query string
	var args []interface{}
	if s.config.DisableInformationSchema {
		query = fmt.Sprintf("SHOW FULL COLUMNS FROM %s FROM %s", EscapeIdentifier(table), EscapeIdentifier(database))
	} else {
		query = "SELECT   column_name AS `Field`, column_type AS `Type`, collation_name AS `Collation`, " +
			"         is_nullable AS `Null`, column_key AS `Key`, column_default AS `Default`, " +
			"         extra AS `Extra`, column_comment AS `Comment` " +
			"FROM     information_schema.columns " +
			"WHERE    table_schema = ? AND table_name = ? " +
			"ORDER BY ordinal_position"
		args = []interface{}{database, table}
	}
	if err := s.selectAll(s.conn, &rawColumns, query, args...); err != nil {
		return nil, WrapQueryError(query, err)
	}
	columns := make([]*Column, len(rawColumns))
	for n, raw := range rawColumns {
		columns[n] = raw.toColumn()
	}
	return columns, nil
}

// columnsBySchema fetches columns for every table of a database in one
// information_schema query, grouped by table name. Only used by the catalog
// strategy; SHOW has no bulk equivalent.
func (s *Session) columnsBySchema(database string) (map[string][]*Column, error) {
	var rawColumns []rawColumnRow
	query := "SELECT   table_name AS `Table_name`, column_name AS `Field`, column_type AS `Type`, " +
		"         collation_name AS `Collation`, is_nullable AS `Null`, column_key AS `Key`, " +
		"         column_default AS `Default`, extra AS `Extra`, column_comment AS `Comment` " +
		"FROM     information_schema.columns " +
		"WHERE    table_schema = ? " +
		"ORDER BY table_name, ordinal_position"
	if err := s.selectAll(s.conn, &rawColumns, query, database); err != nil {
		return nil, WrapQueryError(query, err)
	}
	columnsByTable := make(map[string][]*Column)
	for _, raw := range rawColumns {
		columnsByTable[raw.TableName] = append(columnsByTable[raw.TableName], raw.toColumn())
	}
	return columnsByTable, nil
}

// IndexColumn is one column (or column prefix) participating in an index.
type IndexColumn struct {
	Name    string
	SubPart int64 // nonzero only for prefix indexes
}

// Index describes one index of a table, with multi-column indexes already
// folded into a single value.
type Index struct {
	Name    string
	Unique  bool
	Type    string
	Comment string
	Columns []IndexColumn
}

type rawIndexRow struct {
	Table        string         `db:"Table"`
	KeyName      string         `db:"Key_name"`
	NonUnique    uint8          `db:"Non_unique"`
	SeqInIndex   uint16         `db:"Seq_in_index"`
	ColumnName   sql.NullString `db:"Column_name"`
	SubPart      sql.NullInt64  `db:"Sub_part"`
	IndexType    string         `db:"Index_type"`
	IndexComment string         `db:"Index_comment"`
}

// stitchIndexes folds the one-row-per-column shape of SHOW INDEX and
// information_schema.statistics into one Index per (table, index name),
// grouped by table. Two passes: the first creates each index from its
// seq-1 row, the second attaches columns by sequence position.
func stitchIndexes(rows []rawIndexRow) map[string][]*Index {
	indexesByTable := make(map[string][]*Index)
	byTableAndName := make(map[string]*Index)
	for _, row := range rows {
		if row.SeqInIndex > 1 {
			continue
		}
		index := &Index{
			Name:    row.KeyName,
			Unique:  row.NonUnique == 0,
			Type:    row.IndexType,
			Comment: row.IndexComment,
		}
		indexesByTable[row.Table] = append(indexesByTable[row.Table], index)
		byTableAndName[row.Table+"."+row.KeyName] = index
	}
	for _, row := range rows {
		index, ok := byTableAndName[row.Table+"."+row.KeyName]
		if !ok {
			panic(fmt.Errorf("Cannot find index %s of table %s", row.KeyName, row.Table))
		}
		for len(index.Columns) < int(row.SeqInIndex) {
			index.Columns = append(index.Columns, IndexColumn{})
		}
		index.Columns[row.SeqInIndex-1] = IndexColumn{
			Name:    row.ColumnName.String,
			SubPart: row.SubPart.Int64,
		}
	}
	return indexesByTable
}

// Indexes returns the indexes of the supplied table, with multi-column
// indexes stitched into single values.
func (s *Session) Indexes(database, table string) ([]*Index, error) {
	var rawIndexes []rawIndexRow
	var query string
	var args []interface{}
	if s.config.DisableInformationSchema {
		query = fmt.Sprintf("SHOW INDEX FROM %s FROM %s", EscapeIdentifier(table), EscapeIdentifier(database))
	} else {
		query = "SELECT   table_name AS `Table`, index_name AS `Key_name`, non_unique AS `Non_unique`, " +
			"         seq_in_index AS `Seq_in_index`, column_name AS `Column_name`, " +
			"         sub_part AS `Sub_part`, index_type AS `Index_type`, index_comment AS `Index_comment` " +
			"FROM     information_schema.statistics " +
			"WHERE    table_schema = ? AND table_name = ? " +
			"ORDER BY index_name, seq_in_index"
		args = []interface{}{database, table}
	}
	if err := s.selectAll(s.conn, &rawIndexes, query, args...); err != nil {
		return nil, WrapQueryError(query, err)
	}
	if len(rawIndexes) == 0 {
		return []*Index{}, nil
	}
	// Both strategies report the table's own name in the Table column
	return stitchIndexes(rawIndexes)[rawIndexes[0].Table], nil
}

// indexesBySchema fetches indexes for every table of a database in one
// information_schema query, grouped by table name.
func (s *Session) indexesBySchema(database string) (map[string][]*Index, error) {
	var rawIndexes []rawIndexRow
	query := "SELECT   table_name AS `Table`, index_name AS `Key_name`, non_unique AS `Non_unique`, " +
		"         seq_in_index AS `Seq_in_index`, column_name AS `Column_name`, " +
		"         sub_part AS `Sub_part`, index_type AS `Index_type`, index_comment AS `Index_comment` " +
		"FROM     information_schema.statistics " +
		"WHERE    table_schema = ? " +
		"ORDER BY table_name, index_name, seq_in_index"
	if err := s.selectAll(s.conn, &rawIndexes, query, database); err != nil {
		return nil, WrapQueryError(query, err)
	}
	return stitchIndexes(rawIndexes), nil
}

type showCreateRow struct {
	TableName       string `db:"Table"`
	CreateStatement string `db:"Create Table"`
}

// ShowCreateTable returns the output of SHOW CREATE TABLE for the supplied
// table, verbatim from the server.
func (s *Session) ShowCreateTable(database, table string) (string, error) {
	var createRows []showCreateRow
	query := fmt.Sprintf("SHOW CREATE TABLE %s.%s", EscapeIdentifier(database), EscapeIdentifier(table))
	if err := s.selectAll(s.conn, &createRows, query); err != nil {
		return "", WrapQueryError(query, err)
	}
	if len(createRows) != 1 {
		return "", sql.ErrNoRows
	}
	return createRows[0].CreateStatement, nil
}

// TableDetail bundles everything the structure view of one table needs.
type TableDetail struct {
	Status          *TableStatus
	Columns         []*Column
	Indexes         []*Index
	CreateStatement string
}

// TableDetails returns a fully-hydrated TableDetail for every table in the
// supplied database. With the catalog strategy, the three schema-wide
// metadata queries run concurrently; with SHOW commands there is no bulk
// equivalent, so per-table fetches are fanned out with bounded concurrency
// instead. SHOW CREATE TABLE output is always gathered via the bounded
// fan-out, since no catalog table exposes it. Everything queried here is
// plain connection traffic with no session-cache involvement, so the
// concurrency is safe.
func (s *Session) TableDetails(database string) (map[string]*TableDetail, error) {
	if s.config.DisableInformationSchema {
		return s.tableDetailsFromShow(database)
	}
	return s.tableDetailsFromCatalog(database)
}

func (s *Session) tableDetailsFromCatalog(database string) (map[string]*TableDetail, error) {
	var statuses map[string]*TableStatus
	var columnsByTable map[string][]*Column
	var indexesByTable map[string][]*Index
	var g errgroup.Group
	g.Go(func() (err error) {
		statuses, err = s.Tables(database)
		return err
	})
	g.Go(func() (err error) {
		columnsByTable, err = s.columnsBySchema(database)
		return err
	})
	g.Go(func() (err error) {
		indexesByTable, err = s.indexesBySchema(database)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	details := make(map[string]*TableDetail, len(statuses))
	for name, ts := range statuses {
		details[name] = &TableDetail{
			Status:  ts,
			Columns: columnsByTable[name],
			Indexes: indexesByTable[name],
		}
	}
	if err := s.fetchCreateStatements(database, details); err != nil {
		return nil, err
	}
	return details, nil
}

func (s *Session) tableDetailsFromShow(database string) (map[string]*TableDetail, error) {
	statuses, err := s.Tables(database)
	if err != nil {
		return nil, err
	}
	details := make(map[string]*TableDetail, len(statuses))
	for name, ts := range statuses {
		details[name] = &TableDetail{Status: ts}
	}
	if len(details) == 0 {
		return details, nil
	}
	th := throttler.New(15, len(details))
	for name, detail := range details {
		go func(name string, detail *TableDetail) {
			th.Done(s.hydrateTableDetail(database, name, detail))
		}(name, detail)
		if th.Throttle() > 0 {
			return nil, th.Errs()[0]
		}
	}
	return details, nil
}

func (s *Session) hydrateTableDetail(database, table string, detail *TableDetail) (err error) {
	if detail.Columns, err = s.Columns(database, table); err != nil {
		return err
	}
	if detail.Indexes, err = s.Indexes(database, table); err != nil {
		return err
	}
	detail.CreateStatement, err = s.ShowCreateTable(database, table)
	return err
}

func (s *Session) fetchCreateStatements(database string, details map[string]*TableDetail) error {
	if len(details) == 0 {
		return nil
	}
	th := throttler.New(15, len(details))
	for name, detail := range details {
		go func(name string, detail *TableDetail) {
			create, err := s.ShowCreateTable(database, name)
			if err == nil {
				detail.CreateStatement = create
			}
			th.Done(err)
		}(name, detail)
		if th.Throttle() > 0 {
			return th.Errs()[0]
		}
	}
	return nil
}

// ResultField identifies the origin of one column of a result set: the table
// it was selected from and its name there. Drivers expose these as result
// metadata.
type ResultField struct {
	Table string
	Name  string
}

// ColumnMapEntry relates one result-set column to the display name a view
// layer shows for it.
type ColumnMapEntry struct {
	TableName       string
	ReferringColumn string
	RealColumn      string
}

// ColumnMap zips result-set field metadata with an equal-length ordered list
// of view column display names, preserving order. Both slices describe the
// same result set, so differing lengths are a caller bug and panic rather
// than silently misaligning columns.
func ColumnMap(fields []ResultField, viewColumns []string) []ColumnMapEntry {
	if len(fields) != len(viewColumns) {
		panic(fmt.Errorf("ColumnMap called with %d result fields but %d view columns", len(fields), len(viewColumns)))
	}
	result := make([]ColumnMapEntry, len(fields))
	for n, field := range fields {
		result[n] = ColumnMapEntry{
			TableName:       field.Table,
			ReferringColumn: field.Name,
			RealColumn:      viewColumns[n],
		}
	}
	return result
}
