// Package schema describes the star-schema warehouse tables and provisions them:
// two staging tables, the songplays fact table and four dimension tables.
package schema

// Role classifies a table within the star schema.
type Role string

const (
	RoleStaging   Role = "staging"
	RoleFact      Role = "fact"
	RoleDimension Role = "dimension"
)

// ColumnType is a logical column type rendered per dialect.
type ColumnType int

const (
	Varchar ColumnType = iota
	Integer
	BigInt
	Float
	Timestamp
)

// Column describes one table column and its key hints.
type Column struct {
	Name       string
	Type       ColumnType
	Size       int  // VARCHAR length; 0 = dialect default
	Identity   bool // auto-incrementing surrogate key
	PrimaryKey bool
	DistKey    bool
	SortKey    bool
}

// Table describes a warehouse table.
type Table struct {
	Name    string
	Role    Role
	Columns []Column
}

// ColumnNames returns the table's column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

var StagingEvents = Table{
	Name: "staging_events",
	Role: RoleStaging,
	Columns: []Column{
		{Name: "artist", Type: Varchar},
		{Name: "auth", Type: Varchar},
		{Name: "first_name", Type: Varchar},
		{Name: "gender", Type: Varchar, Size: 1},
		{Name: "item_in_session", Type: Varchar},
		{Name: "last_name", Type: Varchar},
		{Name: "length", Type: Float},
		{Name: "level", Type: Varchar},
		{Name: "location", Type: Varchar},
		{Name: "method", Type: Varchar, Size: 10},
		{Name: "page", Type: Varchar},
		{Name: "registration", Type: Float},
		{Name: "session_id", Type: Integer},
		{Name: "song", Type: Varchar},
		{Name: "status", Type: Integer},
		{Name: "ts", Type: BigInt},
		{Name: "user_agent", Type: Varchar},
		{Name: "user_id", Type: Integer},
	},
}

var StagingSongs = Table{
	Name: "staging_songs",
	Role: RoleStaging,
	Columns: []Column{
		{Name: "artist_id", Type: Varchar},
		{Name: "artist_latitude", Type: Varchar},
		{Name: "artist_location", Type: Varchar},
		{Name: "artist_longitude", Type: Varchar},
		{Name: "artist_name", Type: Varchar},
		{Name: "duration", Type: Float},
		{Name: "num_songs", Type: Integer},
		{Name: "song_id", Type: Varchar, Size: 100},
		{Name: "title", Type: Varchar},
		{Name: "year", Type: Integer},
	},
}

var Songplays = Table{
	Name: "songplays",
	Role: RoleFact,
	Columns: []Column{
		{Name: "songplay_id", Type: Integer, Identity: true, PrimaryKey: true},
		{Name: "start_time", Type: Timestamp, DistKey: true, SortKey: true},
		{Name: "user_id", Type: Integer},
		{Name: "level", Type: Varchar},
		{Name: "song_id", Type: Varchar, Size: 100},
		{Name: "artist_id", Type: Varchar, Size: 100},
		{Name: "session_id", Type: Integer},
		{Name: "location", Type: Varchar},
		{Name: "user_agent", Type: Varchar},
	},
}

var Users = Table{
	Name: "users",
	Role: RoleDimension,
	Columns: []Column{
		{Name: "user_id", Type: Integer, PrimaryKey: true, SortKey: true},
		{Name: "first_name", Type: Varchar},
		{Name: "last_name", Type: Varchar},
		{Name: "gender", Type: Varchar, Size: 1},
		{Name: "level", Type: Varchar},
	},
}

var Songs = Table{
	Name: "songs",
	Role: RoleDimension,
	Columns: []Column{
		{Name: "song_id", Type: Varchar, Size: 100, PrimaryKey: true, SortKey: true},
		{Name: "title", Type: Varchar},
		{Name: "artist_id", Type: Varchar},
		{Name: "year", Type: Integer},
		{Name: "duration", Type: Float},
	},
}

var Artists = Table{
	Name: "artists",
	Role: RoleDimension,
	Columns: []Column{
		{Name: "artist_id", Type: Varchar, PrimaryKey: true, SortKey: true},
		{Name: "name", Type: Varchar},
		{Name: "location", Type: Varchar},
		{Name: "latitude", Type: Varchar},
		{Name: "longitude", Type: Varchar},
	},
}

var Time = Table{
	Name: "time",
	Role: RoleDimension,
	Columns: []Column{
		{Name: "start_time", Type: Timestamp, PrimaryKey: true, DistKey: true, SortKey: true},
		{Name: "hour", Type: Integer},
		{Name: "day", Type: Integer},
		{Name: "week", Type: Integer},
		{Name: "month", Type: Integer},
		{Name: "year", Type: Integer},
		{Name: "weekday", Type: Varchar},
	},
}

// Tables lists every warehouse table: staging first, then the fact table, then
// dimensions. Drop and create both follow this order.
var Tables = []Table{StagingEvents, StagingSongs, Songplays, Users, Songs, Artists, Time}

// TableByName looks up a table in the catalog.
func TableByName(name string) (Table, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
